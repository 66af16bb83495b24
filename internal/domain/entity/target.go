package entity

import "fmt"

// RootElementDOMNodeID addresses the viewport of a document rather than a
// specific element.
const RootElementDOMNodeID int32 = 0

type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%g,%g)", p.X, p.Y)
}

// DOMNode identifies an element inside a specific document snapshot.
type DOMNode struct {
	DocumentID string `json:"document_id"`
	NodeID     int32  `json:"node_id"`
}

// Target is either a viewport coordinate or a node. Exactly one is set.
type Target struct {
	Coordinate *Point   `json:"coordinate,omitempty"`
	Node       *DOMNode `json:"node,omitempty"`
}

func NewCoordinateTarget(p Point) Target {
	return Target{Coordinate: &p}
}

func NewNodeTarget(documentID string, nodeID int32) Target {
	return Target{Node: &DOMNode{DocumentID: documentID, NodeID: nodeID}}
}

func (t Target) IsCoordinate() bool {
	return t.Coordinate != nil
}

func (t Target) IsRoot() bool {
	return t.Node != nil && t.Node.NodeID == RootElementDOMNodeID
}

func (t Target) String() string {
	switch {
	case t.Coordinate != nil:
		return "point" + t.Coordinate.String()
	case t.Node != nil:
		return fmt.Sprintf("node(doc=%s,id=%d)", t.Node.DocumentID, t.Node.NodeID)
	default:
		return "target(empty)"
	}
}

type ClickType string

const (
	ClickLeft  ClickType = "left"
	ClickRight ClickType = "right"
)

type ClickCount int

const (
	ClickSingle ClickCount = 1
	ClickDouble ClickCount = 2
)

func (c ClickCount) String() string {
	if c == ClickDouble {
		return "double"
	}
	return "single"
}

type TypeMode string

const (
	TypeDeleteExisting TypeMode = "delete_existing"
	TypePrepend        TypeMode = "prepend"
	TypeAppend         TypeMode = "append"
)

type ScrollDirection string

const (
	ScrollLeft  ScrollDirection = "left"
	ScrollRight ScrollDirection = "right"
	ScrollUp    ScrollDirection = "up"
	ScrollDown  ScrollDirection = "down"
)

// Offset converts a direction and distance into a scroll delta.
func (d ScrollDirection) Offset(distance float64) (dx, dy float64) {
	switch d {
	case ScrollLeft:
		return -distance, 0
	case ScrollRight:
		return distance, 0
	case ScrollUp:
		return 0, -distance
	default:
		return 0, distance
	}
}

type HistoryDirection string

const (
	HistoryBack    HistoryDirection = "back"
	HistoryForward HistoryDirection = "forward"
)
