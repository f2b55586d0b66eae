package sink

import (
	"html/template"
	"io"

	"github.com/beepf/topoconsole/pkg/canvas"
	"github.com/beepf/topoconsole/pkg/graph"
	"github.com/beepf/topoconsole/pkg/layout"
)

// Page is the data for the console page.
type Page struct {
	Title  string
	Width  float64
	Height float64
	// WSPath is the websocket endpoint the page connects to.
	WSPath string
	Mode   layout.Mode
}

type modeOption struct {
	Value   layout.Mode
	Label   string
	Checked bool
}

type pageData struct {
	Page
	Modes         []modeOption
	ProgramFill   string
	ProgramStroke string
	MapFill       string
	MapStroke     string
}

var (
	consoleTemplate  = template.Must(template.New("console").Parse(consolePage))
	documentTemplate = template.Must(template.New("document").Parse(documentPage))
)

// RenderDocument wraps a rendered frame in a standalone HTML page with the
// legend and hover script, for offline sharing.
func RenderDocument(w io.Writer, title string, f canvas.Frame) error {
	if title == "" {
		title = "eBPF Topology"
	}
	svg := RenderSVG(f, WithLegend(), WithInteraction())
	return documentTemplate.Execute(w, struct {
		Title string
		SVG   template.HTML
		Nodes int
		Edges int
	}{title, template.HTML(svg), len(f.Nodes), len(f.Edges)})
}

// RenderHTML writes the console page: layout switcher, legend, status line
// and an SVG host kept in sync with the server over a websocket.
func RenderHTML(w io.Writer, p Page) error {
	if p.Title == "" {
		p.Title = "eBPF Topology"
	}
	if p.WSPath == "" {
		p.WSPath = "/ws"
	}
	if !p.Mode.Known() {
		p.Mode = layout.DefaultMode
	}
	if p.Width <= 0 || p.Height <= 0 {
		p.Width, p.Height = layout.DefaultWidth, layout.DefaultHeight
	}

	data := pageData{
		Page:          p,
		ProgramFill:   graph.ProgramFill,
		ProgramStroke: graph.ProgramStroke,
		MapFill:       graph.MapFill,
		MapStroke:     graph.MapStroke,
	}
	for _, m := range layout.Modes {
		data.Modes = append(data.Modes, modeOption{Value: m, Label: m.Label(), Checked: m == p.Mode})
	}
	return consoleTemplate.Execute(w, data)
}

const consolePage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <style>
    body { margin: 0; font: 14px -apple-system, "Segoe UI", sans-serif; color: #262626; background: #fafafa; }
    header { display: flex; align-items: center; gap: 24px; padding: 12px 16px; background: #fff; border-bottom: 1px solid #f0f0f0; }
    header h1 { font-size: 16px; margin: 0; }
    .layouts label { margin-right: 12px; cursor: pointer; }
    .legend span { display: inline-flex; align-items: center; margin-right: 12px; }
    .legend i { width: 12px; height: 12px; border-radius: 3px; margin-right: 6px; border: 1px solid; }
    #status { margin-left: auto; color: #8c8c8c; }
    #notice { display: none; padding: 8px 16px; background: #fff2f0; border-bottom: 1px solid #ffccc7; color: #a8071a; }
    #stage { position: relative; height: calc(100vh - 56px); min-height: {{.Height}}px; }
    #stage svg { display: block; width: 100%; height: 100%; user-select: none; }
    #stage .node { cursor: pointer; }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    <form class="layouts" id="layouts">
      {{range .Modes}}<label><input type="radio" name="layout" value="{{.Value}}"{{if .Checked}} checked{{end}}> {{.Label}}</label>
      {{end}}
    </form>
    <div class="legend">
      <span><i style="background: {{.ProgramFill}}; border-color: {{.ProgramStroke}}"></i>eBPF program</span>
      <span><i style="background: {{.MapFill}}; border-color: {{.MapStroke}}"></i>eBPF map</span>
    </div>
    <button id="refresh" type="button">Refresh</button>
    <span id="status">Connecting…</span>
  </header>
  <div id="notice" role="alert"></div>
  <div id="stage"></div>
  <script>
  (() => {
    const stage = document.getElementById('stage');
    const status = document.getElementById('status');
    const notice = document.getElementById('notice');
    const wsPath = {{.WSPath}};
    const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
    let ws, hovered = null, drag = null;

    const send = msg => { if (ws && ws.readyState === WebSocket.OPEN) ws.send(JSON.stringify(msg)); };
    const size = () => ({ type: 'resize', width: stage.clientWidth, height: stage.clientHeight });
    const nodeOf = el => el && el.closest ? el.closest('.node') : null;

    function connect() {
      ws = new WebSocket(scheme + location.host + wsPath);
      ws.onopen = () => {
        status.textContent = 'Connected';
        send(size());
        send({ type: 'layout', mode: document.querySelector('input[name=layout]:checked').value });
      };
      ws.onclose = () => { status.textContent = 'Disconnected, retrying…'; setTimeout(connect, 2000); };
      ws.onmessage = ev => {
        const msg = JSON.parse(ev.data);
        switch (msg.type) {
        case 'frame':
          stage.innerHTML = msg.svg;
          status.textContent = msg.loading ? 'Loading…' : msg.nodes + ' nodes, ' + msg.edges + ' edges';
          break;
        case 'notice':
          notice.textContent = msg.message;
          notice.style.display = 'block';
          setTimeout(() => { notice.style.display = 'none'; }, 5000);
          break;
        }
      };
    }

    document.getElementById('layouts').addEventListener('change', e => send({ type: 'layout', mode: e.target.value }));
    document.getElementById('refresh').addEventListener('click', () => send({ type: 'refresh' }));
    window.addEventListener('resize', () => send(size()));

    stage.addEventListener('mouseover', e => {
      const n = nodeOf(e.target);
      if (!n || n.dataset.id === hovered) return;
      if (hovered) send({ type: 'node:mouseleave', id: hovered });
      hovered = n.dataset.id;
      send({ type: 'node:mouseenter', id: hovered });
    });
    stage.addEventListener('mouseout', e => {
      const n = nodeOf(e.target);
      if (!n || (e.relatedTarget && n.contains(e.relatedTarget))) return;
      send({ type: 'node:mouseleave', id: n.dataset.id });
      hovered = null;
    });
    stage.addEventListener('mousedown', e => {
      const n = nodeOf(e.target);
      drag = { id: n ? n.dataset.id : null, x: e.clientX, y: e.clientY, moved: false };
    });
    window.addEventListener('mousemove', e => {
      if (!drag) return;
      const dx = e.clientX - drag.x, dy = e.clientY - drag.y;
      if (Math.abs(dx) + Math.abs(dy) < 3) return;
      drag.moved = true;
      drag.x = e.clientX; drag.y = e.clientY;
      send(drag.id ? { type: 'drag', id: drag.id, dx, dy } : { type: 'pan', dx, dy });
    });
    window.addEventListener('mouseup', e => {
      if (drag && !drag.moved) {
        const n = nodeOf(e.target);
        send(n ? { type: 'node:click', id: n.dataset.id } : { type: 'canvas:click' });
      }
      drag = null;
    });
    stage.addEventListener('wheel', e => {
      e.preventDefault();
      const r = stage.getBoundingClientRect();
      send({ type: 'zoom', factor: e.deltaY < 0 ? 1.1 : 1 / 1.1, x: e.clientX - r.left, y: e.clientY - r.top });
    }, { passive: false });
    stage.addEventListener('dblclick', () => send({ type: 'fit' }));

    connect();
  })();
  </script>
</body>
</html>`

const documentPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { margin: 0; font: 14px -apple-system, "Segoe UI", sans-serif; background: #fafafa; }
    header { padding: 12px 16px; background: #fff; border-bottom: 1px solid #f0f0f0; }
    header h1 { display: inline; font-size: 16px; margin: 0 12px 0 0; }
    header span { color: #8c8c8c; }
    main svg { display: block; margin: 0 auto; background: #fff; }
  </style>
</head>
<body>
  <header><h1>{{.Title}}</h1><span>{{.Nodes}} nodes, {{.Edges}} edges</span></header>
  <main>
{{.SVG}}
  </main>
</body>
</html>
`
