package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus implements every hook interface with client_golang metrics.
type Prometheus struct {
	fetchTotal      *prometheus.CounterVec
	fetchDuration   prometheus.Histogram
	topologySize    *prometheus.GaugeVec
	layoutTotal     *prometheus.CounterVec
	layoutDuration  *prometheus.HistogramVec
	renderTotal     *prometheus.CounterVec
	renderDuration  prometheus.Histogram
	cacheTotal      *prometheus.CounterVec
	cacheBytes      *prometheus.CounterVec
	backendRequests *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
	sessionsActive  prometheus.Gauge
	sessionDuration prometheus.Histogram
	sessionEvents   *prometheus.CounterVec
	notices         *prometheus.CounterVec
}

// NewPrometheus registers the console metrics with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		fetchTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "topoconsole_fetch_total",
			Help: "Topology fetches by result",
		}, []string{"result"}),
		fetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "topoconsole_fetch_duration_seconds",
			Help:    "Topology fetch duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		topologySize: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "topoconsole_topology_elements",
			Help: "Nodes and edges in the last fetched topology",
		}, []string{"element"}),
		layoutTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "topoconsole_layout_total",
			Help: "Layout computations by mode and result",
		}, []string{"mode", "result"}),
		layoutDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "topoconsole_layout_duration_seconds",
			Help:    "Layout computation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}, []string{"mode"}),
		renderTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "topoconsole_render_total",
			Help: "Render runs by result",
		}, []string{"result"}),
		renderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "topoconsole_render_duration_seconds",
			Help:    "Render duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		cacheTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "topoconsole_cache_requests_total",
			Help: "Cache lookups by stage and outcome",
		}, []string{"stage", "outcome"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "topoconsole_cache_written_bytes_total",
			Help: "Bytes written to the cache by stage",
		}, []string{"stage"}),
		backendRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "topoconsole_backend_requests_total",
			Help: "Backend requests by path and status (\"error\" for transport failures)",
		}, []string{"path", "status"}),
		backendLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "topoconsole_backend_request_duration_seconds",
			Help:    "Backend request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
		sessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "topoconsole_sessions_active",
			Help: "Open console websocket sessions",
		}),
		sessionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "topoconsole_session_duration_seconds",
			Help:    "Console session lifetime in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		sessionEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "topoconsole_session_events_total",
			Help: "Client messages by type",
		}, []string{"type"}),
		notices: f.NewCounterVec(prometheus.CounterOpts{
			Name: "topoconsole_notices_total",
			Help: "Failures reported to console clients by error code",
		}, []string{"code"}),
	}
}

// Install registers p as the pipeline, cache, HTTP and session hooks.
func (p *Prometheus) Install() {
	SetPipelineHooks(p)
	SetCacheHooks(p)
	SetHTTPHooks(p)
	SetSessionHooks(p)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (p *Prometheus) OnFetchStart(context.Context, string) {}

func (p *Prometheus) OnFetchComplete(_ context.Context, _ string, nodes, edges int, d time.Duration, err error) {
	p.fetchTotal.WithLabelValues(result(err)).Inc()
	p.fetchDuration.Observe(d.Seconds())
	if err == nil {
		p.topologySize.WithLabelValues("nodes").Set(float64(nodes))
		p.topologySize.WithLabelValues("edges").Set(float64(edges))
	}
}

func (p *Prometheus) OnLayoutStart(context.Context, string, int) {}

func (p *Prometheus) OnLayoutComplete(_ context.Context, mode string, d time.Duration, err error) {
	p.layoutTotal.WithLabelValues(mode, result(err)).Inc()
	p.layoutDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (p *Prometheus) OnRenderStart(context.Context, []string) {}

func (p *Prometheus) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	p.renderTotal.WithLabelValues(result(err)).Inc()
	p.renderDuration.Observe(d.Seconds())
}

func (p *Prometheus) OnCacheHit(_ context.Context, stage string) {
	p.cacheTotal.WithLabelValues(stage, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, stage string) {
	p.cacheTotal.WithLabelValues(stage, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, stage string, size int) {
	p.cacheBytes.WithLabelValues(stage).Add(float64(size))
}

func (p *Prometheus) OnRequest(context.Context, string, string, string) {}

func (p *Prometheus) OnResponse(_ context.Context, _, _, path string, status int, d time.Duration) {
	p.backendRequests.WithLabelValues(path, strconv.Itoa(status)).Inc()
	p.backendLatency.WithLabelValues(path).Observe(d.Seconds())
}

func (p *Prometheus) OnError(_ context.Context, _, _, path string, _ error) {
	p.backendRequests.WithLabelValues(path, "error").Inc()
}

func (p *Prometheus) OnSessionOpen(context.Context) { p.sessionsActive.Inc() }

func (p *Prometheus) OnSessionClose(_ context.Context, d time.Duration) {
	p.sessionsActive.Dec()
	p.sessionDuration.Observe(d.Seconds())
}

func (p *Prometheus) OnSessionEvent(_ context.Context, eventType string) {
	p.sessionEvents.WithLabelValues(eventType).Inc()
}

func (p *Prometheus) OnNotice(_ context.Context, code string) {
	if code == "" {
		code = "UNKNOWN"
	}
	p.notices.WithLabelValues(code).Inc()
}

var (
	_ PipelineHooks = (*Prometheus)(nil)
	_ CacheHooks    = (*Prometheus)(nil)
	_ HTTPHooks     = (*Prometheus)(nil)
	_ SessionHooks  = (*Prometheus)(nil)
)
