package canvas

import (
	"github.com/beepf/topoconsole/pkg/graph"
	"github.com/beepf/topoconsole/pkg/layout"
)

// NodeEnter marks node id and its incident edges as hovered.
// It reports whether the event applied to a node on a ready surface.
func (s *Surface) NodeEnter(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasNode(id) {
		return false
	}
	s.hover[id] = true
	for _, ei := range s.idx.Incident(id) {
		s.hover[s.g.Edges[ei].ID] = true
	}
	return true
}

// NodeLeave removes the hover mark from node id and from those incident
// edges whose other end is not hovered.
func (s *Surface) NodeLeave(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasNode(id) {
		return false
	}
	delete(s.hover, id)
	for _, ei := range s.idx.Incident(id) {
		e := s.g.Edges[ei]
		if !s.hover[graph.Other(e, id)] {
			delete(s.hover, e.ID)
		}
	}
	return true
}

// NodeClick clears every selection, then selects node id, its incident
// edges and the nodes at their other ends. Hover marks are untouched.
func (s *Surface) NodeClick(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasNode(id) {
		return false
	}
	clear(s.selected)
	s.selected[id] = true
	for _, ei := range s.idx.Incident(id) {
		e := s.g.Edges[ei]
		s.selected[e.ID] = true
		s.selected[graph.Other(e, id)] = true
	}
	return true
}

// CanvasClick clears every selection.
func (s *Surface) CanvasClick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return false
	}
	clear(s.selected)
	return true
}

// Pan moves the view by (dx, dy) screen pixels. Requires drag-canvas.
func (s *Surface) Pan(dx, dy float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.can(BehaviorDragCanvas) {
		return false
	}
	s.view.X += dx
	s.view.Y += dy
	return true
}

// Zoom scales the view by factor around the screen point (cx, cy), keeping
// that point fixed. The zoom level is clamped to [MinZoom, MaxZoom].
// Requires zoom-canvas.
func (s *Surface) Zoom(factor, cx, cy float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.can(BehaviorZoomCanvas) || factor <= 0 {
		return false
	}
	anchor := s.view.Invert(layout.Point{X: cx, Y: cy})
	s.view.Zoom = clampZoom(s.view.Zoom * factor)
	s.view.X = cx - anchor.X*s.view.Zoom
	s.view.Y = cy - anchor.Y*s.view.Zoom
	return true
}

// DragNode moves node id by (dx, dy) screen pixels. Requires drag-node.
func (s *Surface) DragNode(id string, dx, dy float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.can(BehaviorDragNode) || !s.hasNode(id) {
		return false
	}
	p := s.pos[id]
	s.pos[id] = layout.Point{X: p.X + dx/s.view.Zoom, Y: p.Y + dy/s.view.Zoom}
	return true
}

func (s *Surface) hasNode(id string) bool {
	if s.state != StateReady {
		return false
	}
	_, ok := s.idx.Lookup(id)
	return ok
}

func (s *Surface) can(b Behavior) bool {
	return s.state == StateReady && s.bound[b]
}
