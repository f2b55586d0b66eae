package server

// Message types sent by the console page.
const (
	msgResize      = "resize"
	msgLayout      = "layout"
	msgRefresh     = "refresh"
	msgNodeEnter   = "node:mouseenter"
	msgNodeLeave   = "node:mouseleave"
	msgNodeClick   = "node:click"
	msgCanvasClick = "canvas:click"
	msgPan         = "pan"
	msgZoom        = "zoom"
	msgDrag        = "drag"
	msgFit         = "fit"
)

// Message types sent to the console page.
const (
	msgFrame  = "frame"
	msgNotice = "notice"
)

// clientMessage is any message from the page; only the fields of its type
// are set.
type clientMessage struct {
	Type   string  `json:"type"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Mode   string  `json:"mode,omitempty"`
	ID     string  `json:"id,omitempty"`
	DX     float64 `json:"dx,omitempty"`
	DY     float64 `json:"dy,omitempty"`
	Factor float64 `json:"factor,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
}

// frameMessage carries one rendered frame.
type frameMessage struct {
	Type       string `json:"type"`
	InstanceID string `json:"instanceId,omitempty"`
	Mode       string `json:"mode"`
	Loading    bool   `json:"loading"`
	Nodes      int    `json:"nodes"`
	Edges      int    `json:"edges"`
	SVG        string `json:"svg"`
}

// noticeMessage reports a failure to the user.
type noticeMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
