package shapes

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/beepf/topoconsole/pkg/graph"
)

// =============================================================================
// Drawable Items
// =============================================================================

// Node is a node ready to draw: world-space center, box size and states.
type Node struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Kind     graph.Kind `json:"kind"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	W        float64    `json:"w"`
	H        float64    `json:"h"`
	Fill     string     `json:"fill"`
	Stroke   string     `json:"stroke"`
	RefCount int        `json:"refCount,omitempty"`
	Hover    bool       `json:"hover,omitempty"`
	Selected bool       `json:"selected,omitempty"`
}

// Edge is an edge ready to draw, clipped to the boxes of its endpoints.
type Edge struct {
	ID       string  `json:"id"`
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	X1       float64 `json:"x1"`
	Y1       float64 `json:"y1"`
	X2       float64 `json:"x2"`
	Y2       float64 `json:"y2"`
	Arrow    bool    `json:"arrow"`
	Hover    bool    `json:"hover,omitempty"`
	Selected bool    `json:"selected,omitempty"`
}

// Class returns the CSS class list for the node's states.
func (n Node) Class() string { return classes("node node-"+string(n.Kind), n.Hover, n.Selected) }

// Class returns the CSS class list for the edge's states.
func (e Edge) Class() string { return classes("edge", e.Hover, e.Selected) }

func classes(base string, hover, selected bool) string {
	if hover {
		base += " hover"
	}
	if selected {
		base += " selected"
	}
	return base
}

// =============================================================================
// Palette
// =============================================================================

const (
	ProgramGlyphColor = "#1890ff"
	MapGlyphColor     = "#7cb305"
	BadgeColor        = "#fa8c16"
	EdgeColor         = "#91d5ff"
	SelectedColor     = "#1890ff"
	HoverShadowColor  = "#ccc"

	cornerRadius = 4.0
	lineWidth    = 2.0
	activeWidth  = 3.0
	badgeRadius  = 8.0
	fontSize     = 12.0
	glyphSize    = 10.0
	charWidth    = 7.0 // approximate advance at fontSize
)

// Defs writes the shared <defs>: arrow markers and state shadows.
func Defs(buf *bytes.Buffer) {
	buf.WriteString("  <defs>\n")
	fmt.Fprintf(buf, `    <marker id="arrow" viewBox="0 0 10 8" refX="10" refY="4" markerWidth="10" markerHeight="8" orient="auto"><path d="M0,0 L10,4 L0,8 z" fill="%s"/></marker>`+"\n", EdgeColor)
	fmt.Fprintf(buf, `    <marker id="arrow-selected" viewBox="0 0 10 8" refX="10" refY="4" markerWidth="10" markerHeight="8" orient="auto"><path d="M0,0 L10,4 L0,8 z" fill="%s"/></marker>`+"\n", SelectedColor)
	fmt.Fprintf(buf, `    <filter id="shadow-hover" x="-20%%" y="-20%%" width="140%%" height="140%%"><feDropShadow dx="0" dy="0" stdDeviation="5" flood-color="%s"/></filter>`+"\n", HoverShadowColor)
	fmt.Fprintf(buf, `    <filter id="shadow-selected" x="-20%%" y="-20%%" width="140%%" height="140%%"><feDropShadow dx="0" dy="0" stdDeviation="5" flood-color="%s"/></filter>`+"\n", SelectedColor)
	buf.WriteString("  </defs>\n")
}

// =============================================================================
// Node Kinds
// =============================================================================

// DrawProgram draws a blue rounded box with a "P" glyph.
func DrawProgram(buf *bytes.Buffer, n Node) {
	openNode(buf, n)
	drawBox(buf, n)
	drawGlyph(buf, n, "P", ProgramGlyphColor)
	drawLabel(buf, n)
	buf.WriteString("  </g>\n")
}

// DrawMap draws a green rounded box with an "M" glyph and, when the map is
// referenced, an orange badge with its reference count.
func DrawMap(buf *bytes.Buffer, n Node) {
	openNode(buf, n)
	drawBox(buf, n)
	drawGlyph(buf, n, "M", MapGlyphColor)
	drawLabel(buf, n)
	if n.RefCount > 0 {
		bx, by := n.W/2-10, -n.H/2+10
		fmt.Fprintf(buf, `    <circle class="badge" cx="%.1f" cy="%.1f" r="%.0f" fill="%s" stroke="#fff" stroke-width="1"/>`+"\n",
			bx, by, badgeRadius, BadgeColor)
		fmt.Fprintf(buf, `    <text class="badge-text" x="%.1f" y="%.1f" font-size="%.0f" font-weight="bold" fill="#fff" text-anchor="middle" dominant-baseline="central">%d</text>`+"\n",
			bx, by, glyphSize, n.RefCount)
	}
	buf.WriteString("  </g>\n")
}

// DrawPlain draws a bare box for kinds without a registered shape.
func DrawPlain(buf *bytes.Buffer, n Node) {
	openNode(buf, n)
	drawBox(buf, n)
	drawLabel(buf, n)
	buf.WriteString("  </g>\n")
}

// DrawEdge draws a straight edge with an optional end arrow.
func DrawEdge(buf *bytes.Buffer, e Edge) {
	stroke, width, marker := EdgeColor, lineWidth, "arrow"
	if e.Hover {
		width = activeWidth
	}
	if e.Selected {
		stroke, width, marker = SelectedColor, activeWidth, "arrow-selected"
	}
	end := ""
	if e.Arrow {
		end = fmt.Sprintf(` marker-end="url(#%s)"`, marker)
	}
	fmt.Fprintf(buf, `  <line class="%s" data-id="%s" data-source="%s" data-target="%s" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="%.0f"%s/>`+"\n",
		e.Class(), esc(e.ID), esc(e.Source), esc(e.Target), e.X1, e.Y1, e.X2, e.Y2, stroke, width, end)
}

func openNode(buf *bytes.Buffer, n Node) {
	fmt.Fprintf(buf, `  <g class="%s" data-id="%s" transform="translate(%.1f,%.1f)">`+"\n",
		n.Class(), esc(n.ID), n.X, n.Y)
}

func drawBox(buf *bytes.Buffer, n Node) {
	stroke, width, filter := n.Stroke, lineWidth, ""
	if n.Hover {
		width, filter = activeWidth, ` filter="url(#shadow-hover)"`
	}
	if n.Selected {
		width, filter = activeWidth, ` filter="url(#shadow-selected)"`
	}
	fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.0f" fill="%s" stroke="%s" stroke-width="%.0f"%s/>`+"\n",
		-n.W/2, -n.H/2, n.W, n.H, cornerRadius, n.Fill, stroke, width, filter)
}

func drawGlyph(buf *bytes.Buffer, n Node, glyph, color string) {
	fmt.Fprintf(buf, `    <text class="glyph" x="%.1f" y="%.1f" font-size="%.0f" font-weight="bold" fill="%s">%s</text>`+"\n",
		-n.W/2+6, -n.H/2+14, glyphSize, color, glyph)
}

func drawLabel(buf *bytes.Buffer, n Node) {
	fmt.Fprintf(buf, `    <text class="label" x="0" y="0" font-size="%.0f" fill="#000" text-anchor="middle" dominant-baseline="central">%s</text>`+"\n",
		fontSize, esc(Truncate(n.Label, n.W-24)))
}

// Truncate shortens label so it fits in width pixels, marking the cut with
// an ellipsis.
func Truncate(label string, width float64) string {
	maxChars := int(width / charWidth)
	r := []rune(label)
	if maxChars < 2 || len(r) <= maxChars {
		return label
	}
	return strings.TrimSpace(string(r[:maxChars-1])) + "…"
}

// Clip returns the point where the segment from (fx, fy) to the center of a
// w×h box at (cx, cy) crosses the box border.
func Clip(cx, cy, w, h, fx, fy float64) (float64, float64) {
	dx, dy := fx-cx, fy-cy
	if dx == 0 && dy == 0 {
		return cx, cy
	}
	sx, sy := math.Inf(1), math.Inf(1)
	if dx != 0 {
		sx = (w / 2) / math.Abs(dx)
	}
	if dy != 0 {
		sy = (h / 2) / math.Abs(dy)
	}
	s := min(sx, sy, 1)
	return cx + dx*s, cy + dy*s
}

func esc(s string) string { return html.EscapeString(s) }
