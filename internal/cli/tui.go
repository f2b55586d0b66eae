package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/beepf/topoconsole/pkg/canvas"
	"github.com/beepf/topoconsole/pkg/errors"
	"github.com/beepf/topoconsole/pkg/graph"
	"github.com/beepf/topoconsole/pkg/layout"
	"github.com/beepf/topoconsole/pkg/pipeline"
	"github.com/beepf/topoconsole/pkg/render/shapes"
	"github.com/beepf/topoconsole/pkg/topology"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// Terminal cells are mapped to canvas pixels at this size.
const (
	cellWidth  = 8.0
	cellHeight = 16.0
)

// zoomStep is the factor applied by one +/- key press.
const zoomStep = 1.25

// =============================================================================
// ExploreModel - Interactive topology browser
// =============================================================================

// topologyMsg carries the result of a fetch.
type topologyMsg struct {
	topology topology.Topology
	offline  bool
	err      error
}

// ExploreModel is the bubbletea model behind "topoconsole explore". It
// drives a canvas.Surface the way the web console does: the cursor hovers
// nodes, enter selects, esc clears, and the number keys switch layouts.
type ExploreModel struct {
	ctx    context.Context
	runner *pipeline.Runner
	source pipeline.Source
	opts   pipeline.Options

	window  *canvas.Window
	surface *canvas.Surface
	frame   canvas.Frame
	graph   graph.Graph

	Cursor  int
	Offset  int
	Height  int
	focus   string // last clicked node
	loading bool
	offline bool
	err     error
}

// NewExploreModel creates a model that fetches from src through runner.
// opts must have been validated.
func NewExploreModel(ctx context.Context, runner *pipeline.Runner, src pipeline.Source, opts pipeline.Options) ExploreModel {
	win := canvas.NewWindow(opts.Width, opts.Height)
	surface := canvas.New(win,
		canvas.WithLogger(opts.Logger),
		canvas.WithMode(opts.Mode),
		canvas.WithSeed(opts.Seed),
		canvas.WithLayoutFunc(runner.LayoutFunc(ctx)),
	)
	surface.LoadGraph(graph.Graph{}, true)

	return ExploreModel{
		ctx:     ctx,
		runner:  runner,
		source:  src,
		opts:    opts,
		window:  win,
		surface: surface,
		frame:   surface.Snapshot(),
		Height:  15,
		loading: true,
	}
}

// Frame returns the last snapshot of the surface.
func (m ExploreModel) Frame() canvas.Frame { return m.frame }

func (m ExploreModel) Init() tea.Cmd {
	return m.fetch()
}

func (m ExploreModel) fetch() tea.Cmd {
	return func() tea.Msg {
		t, offline, err := m.runner.Fetch(m.ctx, m.source, m.opts)
		return topologyMsg{topology: t, offline: offline, err: err}
	}
}

func (m ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case topologyMsg:
		m.loading = false
		if msg.err != nil {
			// Keep showing what was there before.
			m.err = msg.err
			m.surface.LoadGraph(m.graph, false)
		} else {
			m.err = nil
			m.offline = msg.offline
			m.graph = graph.Transform(msg.topology)
			m.surface.LoadGraph(m.graph, false)
			m.focus = ""
		}
		m.frame = m.surface.Snapshot()
		m.moveCursor(0)

	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-12, 5)
		m.window.Resize(float64(msg.Width)*cellWidth, float64(msg.Height)*cellHeight)

	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			m.surface.Destroy()
			return m, tea.Quit
		case "up", "k":
			m.moveCursor(-1)
		case "down", "j":
			m.moveCursor(1)
		case "enter", " ":
			if n, ok := m.current(); ok && m.surface.NodeClick(n.ID) {
				m.focus = n.ID
			}
		case "esc":
			m.surface.CanvasClick()
			m.focus = ""
		case "1", "2", "3", "4", "5":
			m.surface.SetLayout(layout.Modes[key[0]-'1'])
		case "tab":
			m.surface.SetLayout(nextMode(m.surface.Mode()))
		case "+", "=":
			m.surface.Zoom(zoomStep, m.frame.Width/2, m.frame.Height/2)
		case "-":
			m.surface.Zoom(1/zoomStep, m.frame.Width/2, m.frame.Height/2)
		case "f":
			m.surface.FitView()
		case "r":
			m.loading = true
			m.surface.LoadGraph(graph.Graph{}, true)
			m.frame = m.surface.Snapshot()
			return m, m.fetch()
		}
	}

	m.frame = m.surface.Snapshot()
	return m, nil
}

// moveCursor moves the cursor by delta and moves hover along with it.
func (m *ExploreModel) moveCursor(delta int) {
	if prev, ok := m.current(); ok {
		m.surface.NodeLeave(prev.ID)
	}
	n := len(m.frame.Nodes)
	if n == 0 {
		m.Cursor, m.Offset = 0, 0
		return
	}
	m.Cursor = min(max(m.Cursor+delta, 0), n-1)
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
	if cur, ok := m.current(); ok {
		m.surface.NodeEnter(cur.ID)
	}
}

func (m ExploreModel) current() (shapes.Node, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.frame.Nodes) {
		return shapes.Node{}, false
	}
	return m.frame.Nodes[m.Cursor], true
}

func nextMode(mode layout.Mode) layout.Mode {
	for i, m := range layout.Modes {
		if m == mode {
			return layout.Modes[(i+1)%len(layout.Modes)]
		}
	}
	return layout.DefaultMode
}

// =============================================================================
// View
// =============================================================================

func (m ExploreModel) View() string {
	var b strings.Builder

	title := "eBPF Topology " + StyleDim.Render("· "+m.frame.Mode.Label())
	if m.offline {
		title += " " + StyleWarning.Render("(offline)")
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ hover  ⏎ select  esc clear  1-5/tab layout  +/- zoom  f fit  r refresh  q quit"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(StyleWarning.Render(fmt.Sprintf("%s %s", iconWarning, errors.UserMessage(m.err))))
		b.WriteString("\n\n")
	}

	switch {
	case m.loading:
		b.WriteString(StyleDim.Render("Loading topology..."))
		b.WriteString("\n")
		return b.String()
	case m.frame.Empty:
		b.WriteString(StyleDim.Render("No topology data"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.nodeTable())
	b.WriteString("\n")
	if details := m.selectionDetails(); details != "" {
		b.WriteString(details)
	}
	b.WriteString("\n")

	footer := fmt.Sprintf("  [%d/%d]  %d edges  zoom %.2fx", m.Cursor+1, len(m.frame.Nodes), len(m.frame.Edges), m.frame.Viewport.Zoom)
	if m.frame.HiddenEdges > 0 {
		footer += fmt.Sprintf("  %d hidden", m.frame.HiddenEdges)
	}
	b.WriteString(listDimStyle.Render(footer))

	return b.String()
}

func (m ExploreModel) nodeTable() string {
	end := min(m.Offset+m.Height, len(m.frame.Nodes))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		n := m.frame.Nodes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := ""
		if n.Selected {
			mark = iconSuccess
		}
		refs := "-"
		if n.Kind == graph.KindMap {
			refs = fmt.Sprintf("%d", n.RefCount)
		}
		p := m.frame.Viewport.Apply(layout.Point{X: n.X, Y: n.Y})
		rows = append(rows, []string{cursor, n.ID, n.Label, string(n.Kind), refs, fmt.Sprintf("%.0f,%.0f", p.X, p.Y), mark})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Name", "Kind", "Refs", "Position", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.frame.Nodes) {
				return lipgloss.NewStyle()
			}
			n := m.frame.Nodes[idx]
			switch {
			case col == 3 && n.Kind == graph.KindMap:
				return styleMap
			case col == 3:
				return styleProgram
			case n.Selected:
				return StyleSuccess.Bold(true)
			case idx == m.Cursor:
				return listSelectedStyle
			case col == 4 || col == 5:
				return StyleNumber
			}
			return lipgloss.NewStyle()
		})

	return t.Render()
}

// selectionDetails lists the edges touching the clicked node.
func (m ExploreModel) selectionDetails() string {
	n, ok := m.frame.Node(m.focus)
	if !ok || !n.Selected {
		return ""
	}
	var b strings.Builder
	b.WriteString(StyleHighlight.Render(n.Label) + " " + StyleDim.Render("("+n.ID+")") + "\n")
	var links int
	for _, e := range m.frame.Edges {
		switch n.ID {
		case e.Source:
			b.WriteString("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(e.Target) + "\n")
			links++
		case e.Target:
			b.WriteString("  " + StyleDim.Render("←") + " " + StyleValue.Render(e.Source) + "\n")
			links++
		}
	}
	if links == 0 {
		b.WriteString("  " + StyleDim.Render("no connections") + "\n")
	}
	return b.String()
}
