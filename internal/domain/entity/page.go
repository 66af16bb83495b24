package entity

// PageContent is an observation of a tab's main frame at a point in time.
// Tools compare it against the live page before acting.
type PageContent struct {
	Tab        TabHandle   `json:"tab"`
	URL        string      `json:"url"`
	Title      string      `json:"title"`
	DocumentID string      `json:"document_id"`
	Nodes      []UIElement `json:"nodes,omitempty"`
	Text       string      `json:"text,omitempty"`
	Screenshot *Screenshot `json:"screenshot,omitempty"`
}

// FindNode reports whether the snapshot contains the node.
func (p *PageContent) FindNode(nodeID int32) (UIElement, bool) {
	for _, n := range p.Nodes {
		if n.NodeID == nodeID {
			return n, true
		}
	}
	return UIElement{}, false
}

type UIElement struct {
	NodeID    int32  `json:"node_id"`
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	AriaLabel string `json:"aria_label,omitempty"`
	Role      string `json:"role,omitempty"`
	Bounds    Rect   `json:"bounds"`
}

type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

type Screenshot struct {
	Data   []byte `json:"data"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type ObserveOptions struct {
	Screenshot bool
	MaxText    int
}
