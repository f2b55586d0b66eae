// Package canvas owns the drawing surface of a topology view.
//
// # Lifecycle
//
// A [Surface] moves through three states:
//
//	uninitialized ──Load──▶ ready ──Destroy──▶ destroyed
//	                          │ ▲
//	                          └─┘ Load (teardown + rebuild, new instance ID)
//
// Loading with loading=true only records the flag; the surface keeps its
// current instance and [Surface.Snapshot] reports a loading frame.
// Each build registers the default node kinds (idempotent), sizes itself
// from its [Container], binds its behaviors, subscribes to container
// resizes, lays the graph out and fits the view. Teardown drops the resize
// subscription so repeated mounts do not leak callbacks.
//
// # Interaction
//
// Hover and selection are independent states:
//
//   - NodeEnter / NodeLeave toggle hover on a node and its incident edges.
//   - NodeClick replaces the selection with the node, its incident edges
//     and their other endpoints.
//   - CanvasClick clears the selection.
//
// Pan, Zoom and DragNode act only when the matching [Behavior] is bound.
// [Surface.SetLayout] recomputes positions on the live instance without a
// rebuild.
//
// # Frames
//
// [Surface.Snapshot] returns a [Frame]: nodes with world coordinates and box
// sizes, edges clipped to node borders, and the [Viewport] that maps world
// to screen. Edges with a missing endpoint are not drawn; they are counted
// in Frame.HiddenEdges.
package canvas
