// Package action holds the wire form of actor actions and converts them
// into tool requests.
package action

import (
	"math"
	"time"

	"browser-actor/internal/domain/entity"
)

// Action is a one-of: exactly one field is set.
type Action struct {
	Click          *ClickAction          `json:"click,omitempty" yaml:"click,omitempty"`
	Type           *TypeAction           `json:"type,omitempty" yaml:"type,omitempty"`
	Scroll         *ScrollAction         `json:"scroll,omitempty" yaml:"scroll,omitempty"`
	MoveMouse      *MoveMouseAction      `json:"move_mouse,omitempty" yaml:"move_mouse,omitempty"`
	DragAndRelease *DragAndReleaseAction `json:"drag_and_release,omitempty" yaml:"drag_and_release,omitempty"`
	Select         *SelectAction         `json:"select,omitempty" yaml:"select,omitempty"`
	Navigate       *NavigateAction       `json:"navigate,omitempty" yaml:"navigate,omitempty"`
	Back           *HistoryAction        `json:"back,omitempty" yaml:"back,omitempty"`
	Forward        *HistoryAction        `json:"forward,omitempty" yaml:"forward,omitempty"`
	Wait           *WaitAction           `json:"wait,omitempty" yaml:"wait,omitempty"`
	CreateTab      *CreateTabAction      `json:"create_tab,omitempty" yaml:"create_tab,omitempty"`
	CloseTab       *TabAction            `json:"close_tab,omitempty" yaml:"close_tab,omitempty"`
	ActivateTab    *TabAction            `json:"activate_tab,omitempty" yaml:"activate_tab,omitempty"`
	CreateWindow   *WindowAction         `json:"create_window,omitempty" yaml:"create_window,omitempty"`
	CloseWindow    *WindowAction         `json:"close_window,omitempty" yaml:"close_window,omitempty"`
	ActivateWindow *WindowAction         `json:"activate_window,omitempty" yaml:"activate_window,omitempty"`
	YieldToUser    *YieldToUserAction    `json:"yield_to_user,omitempty" yaml:"yield_to_user,omitempty"`
}

// Target names a viewport coordinate, or a node by document identifier and
// content node id.
type Target struct {
	Coordinate         *entity.Point `json:"coordinate,omitempty" yaml:"coordinate,omitempty"`
	DocumentIdentifier string        `json:"document_identifier,omitempty" yaml:"document_identifier,omitempty"`
	ContentNodeID      *int32        `json:"content_node_id,omitempty" yaml:"content_node_id,omitempty"`
}

type ClickAction struct {
	TabID      *entity.TabHandle `json:"tab_id,omitempty" yaml:"tab_id,omitempty"`
	Target     *Target           `json:"target,omitempty" yaml:"target,omitempty"`
	ClickType  string            `json:"click_type,omitempty" yaml:"click_type,omitempty"`
	ClickCount string            `json:"click_count,omitempty" yaml:"click_count,omitempty"`
}

type TypeAction struct {
	TabID         *entity.TabHandle `json:"tab_id,omitempty" yaml:"tab_id,omitempty"`
	Target        *Target           `json:"target,omitempty" yaml:"target,omitempty"`
	Text          string            `json:"text" yaml:"text"`
	Mode          string            `json:"mode,omitempty" yaml:"mode,omitempty"`
	FollowByEnter bool              `json:"follow_by_enter,omitempty" yaml:"follow_by_enter,omitempty"`
}

type ScrollAction struct {
	TabID     *entity.TabHandle `json:"tab_id,omitempty" yaml:"tab_id,omitempty"`
	Target    *Target           `json:"target,omitempty" yaml:"target,omitempty"`
	Direction string            `json:"direction,omitempty" yaml:"direction,omitempty"`
	Distance  float64           `json:"distance" yaml:"distance"`
}

type MoveMouseAction struct {
	TabID  *entity.TabHandle `json:"tab_id,omitempty" yaml:"tab_id,omitempty"`
	Target *Target           `json:"target,omitempty" yaml:"target,omitempty"`
}

type DragAndReleaseAction struct {
	TabID *entity.TabHandle `json:"tab_id,omitempty" yaml:"tab_id,omitempty"`
	From  *Target           `json:"from,omitempty" yaml:"from,omitempty"`
	To    *Target           `json:"to,omitempty" yaml:"to,omitempty"`
}

type SelectAction struct {
	TabID  *entity.TabHandle `json:"tab_id,omitempty" yaml:"tab_id,omitempty"`
	Target *Target           `json:"target,omitempty" yaml:"target,omitempty"`
	Value  string            `json:"value" yaml:"value"`
}

type NavigateAction struct {
	TabID *entity.TabHandle `json:"tab_id,omitempty" yaml:"tab_id,omitempty"`
	URL   string            `json:"url" yaml:"url"`
}

type HistoryAction struct {
	TabID *entity.TabHandle `json:"tab_id,omitempty" yaml:"tab_id,omitempty"`
}

type WaitAction struct {
	DurationMs *int64 `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
}

func (w *WaitAction) duration() (time.Duration, bool) {
	if w.DurationMs == nil {
		return 0, false
	}
	// Saturate instead of wrapping so the sign survives the conversion.
	ms := *w.DurationMs
	switch {
	case ms > math.MaxInt64/int64(time.Millisecond):
		return time.Duration(math.MaxInt64), true
	case ms < math.MinInt64/int64(time.Millisecond):
		return time.Duration(math.MinInt64), true
	}
	return time.Duration(ms) * time.Millisecond, true
}

type CreateTabAction struct {
	WindowID   entity.WindowID `json:"window_id" yaml:"window_id"`
	Foreground *bool           `json:"foreground,omitempty" yaml:"foreground,omitempty"`
}

type TabAction struct {
	TabID *entity.TabHandle `json:"tab_id,omitempty" yaml:"tab_id,omitempty"`
}

type WindowAction struct {
	WindowID entity.WindowID `json:"window_id,omitempty" yaml:"window_id,omitempty"`
}

// YieldToUserAction hands control to a person. Only interactive drivers
// can honor it; the tool pipeline rejects it.
type YieldToUserAction struct {
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Kind names the populated variant. It is empty when no variant or more
// than one is set.
func (a *Action) Kind() string {
	if a == nil {
		return ""
	}
	kind := ""
	set := 0
	mark := func(populated bool, name string) {
		if populated {
			set++
			kind = name
		}
	}
	mark(a.Click != nil, "click")
	mark(a.Type != nil, "type")
	mark(a.Scroll != nil, "scroll")
	mark(a.MoveMouse != nil, "move_mouse")
	mark(a.DragAndRelease != nil, "drag_and_release")
	mark(a.Select != nil, "select")
	mark(a.Navigate != nil, "navigate")
	mark(a.Back != nil, "back")
	mark(a.Forward != nil, "forward")
	mark(a.Wait != nil, "wait")
	mark(a.CreateTab != nil, "create_tab")
	mark(a.CloseTab != nil, "close_tab")
	mark(a.ActivateTab != nil, "activate_tab")
	mark(a.CreateWindow != nil, "create_window")
	mark(a.CloseWindow != nil, "close_window")
	mark(a.ActivateWindow != nil, "activate_window")
	mark(a.YieldToUser != nil, "yield_to_user")
	if set != 1 {
		return ""
	}
	return kind
}
