package client

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/beepf/topoconsole/pkg/errors"
	"github.com/beepf/topoconsole/pkg/observability"
	"github.com/beepf/topoconsole/pkg/topology"
)

// Backend API paths.
const (
	TopologyPath = "/api/v1/observability/topo"
	ProgramsPath = "/api/v1/observability/topo/prog"
)

// DefaultTimeout bounds a single backend request.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response is quoted in errors.
const maxErrorBody = 512

// Envelope is the backend's response wrapper. Failed requests usually come
// back with HTTP 200 and Success=false.
type Envelope[T any] struct {
	Success   bool   `json:"success"`
	ErrorCode int    `json:"errorCode"`
	ErrorMsg  string `json:"errorMsg"`
	Data      T      `json:"data"`
}

// Client talks to the eBPF platform backend.
//
// Every call makes exactly one attempt. Failures are returned to the caller,
// which reports them once.
type Client struct {
	base    *url.URL
	http    *http.Client
	headers map[string]string
	logger  *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout. Zero keeps DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHeaders adds headers to every request.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) {
		for k, v := range h {
			c.headers[k] = v
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithLogger sets the logger for request tracing.
func WithLogger(l *log.Logger) Option { return func(c *Client) { c.logger = l } }

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	u, _ := url.Parse(strings.TrimRight(baseURL, "/"))

	c := &Client{
		base:    u,
		http:    &http.Client{Timeout: DefaultTimeout},
		headers: map[string]string{"Accept": "application/json"},
		logger:  log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string { return c.base.String() }

// Name identifies the backend in cache keys and logs.
func (c *Client) Name() string { return c.BaseURL() }

// GetTopology fetches the program/map topology.
func (c *Client) GetTopology(ctx context.Context) (topology.Topology, error) {
	body, err := c.get(ctx, TopologyPath)
	if err != nil {
		return topology.Topology{}, err
	}
	var t topology.Topology
	if err := decode(body, &t); err != nil {
		return topology.Topology{}, err
	}
	return t.Normalized(), nil
}

// ListPrograms fetches per-program details.
func (c *Client) ListPrograms(ctx context.Context) ([]topology.ProgramInfo, error) {
	body, err := c.get(ctx, ProgramsPath)
	if err != nil {
		return nil, err
	}
	var progs []topology.ProgramInfo
	if err := decode(body, &progs); err != nil {
		return nil, err
	}
	return progs, nil
}

// Ping checks that the backend answers the topology endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.GetTopology(ctx)
	return err
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	u := c.base.JoinPath(path).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build request")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, req.URL.Host, path)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, req.URL.Host, path, err)
		return nil, transportError(ctx, err, u)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		hooks.OnError(ctx, req.Method, req.URL.Host, path, err)
		return nil, transportError(ctx, err, u)
	}
	hooks.OnResponse(ctx, req.Method, req.URL.Host, path, resp.StatusCode, time.Since(start))
	c.logger.Debug("backend request", "url", u, "status", resp.StatusCode, "bytes", len(body), "elapsed", time.Since(start))

	if err := checkStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

func transportError(ctx context.Context, err error, u string) error {
	var ne interface{ Timeout() bool }
	if stderrors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded ||
		(stderrors.As(err, &ne) && ne.Timeout()) {
		return errors.Wrap(errors.ErrCodeTimeout, err, "GET %s timed out", u)
	}
	return errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", u)
}

func checkStatus(code int, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}
	be := &errors.BackendError{Status: code}
	var env Envelope[json.RawMessage]
	if json.Unmarshal(body, &env) == nil && env.ErrorMsg != "" {
		be.ErrorCode, be.Message = env.ErrorCode, env.ErrorMsg
	} else {
		be.Message = excerpt(body)
	}
	return be
}

// decode unmarshals body into v. Bodies carrying a "success" key are treated
// as envelopes: success=false becomes a BackendError and data is unwrapped.
func decode[T any](body []byte, v *T) error {
	var head struct {
		Success *bool `json:"success"`
	}
	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		if err := json.Unmarshal(body, &head); err != nil {
			return errors.Wrap(errors.ErrCodeDecode, err, "decode response")
		}
	}
	if head.Success == nil {
		if err := json.Unmarshal(body, v); err != nil {
			return errors.Wrap(errors.ErrCodeDecode, err, "decode response")
		}
		return nil
	}

	var env Envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return errors.Wrap(errors.ErrCodeDecode, err, "decode envelope")
	}
	if !env.Success {
		return &errors.BackendError{ErrorCode: env.ErrorCode, Message: env.ErrorMsg}
	}
	*v = env.Data
	return nil
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "…"
	}
	return s
}
