package action

import (
	"context"

	"browser-actor/internal/actor/tools"
	"browser-actor/internal/application/port/output"
	"browser-actor/internal/domain/entity"
)

// CreateToolRequest converts an action into a tool request. It returns nil
// when the action is malformed: no variant or several set, a required
// field missing, no tab to act on, or a variant with no tool behind it.
// The fallback tab is used when the action names none. tabs is consulted
// only to scope a target-less scroll to the current document.
func CreateToolRequest(ctx context.Context, a *Action, fallback entity.TabHandle, tabs output.TabRegistry) tools.ToolRequest {
	switch a.Kind() {
	case "click":
		c := a.Click
		tab, target, ok := tabAndTarget(c.TabID, c.Target, fallback)
		if !ok {
			return nil
		}
		return tools.NewClickToolRequest(tab, target, toClickType(c.ClickType), toClickCount(c.ClickCount))
	case "type":
		t := a.Type
		tab, target, ok := tabAndTarget(t.TabID, t.Target, fallback)
		if !ok {
			return nil
		}
		return tools.NewTypeToolRequest(tab, target, t.Text, toTypeMode(t.Mode), t.FollowByEnter)
	case "scroll":
		s := a.Scroll
		tab, ok := resolveTab(s.TabID, fallback)
		if !ok {
			return nil
		}
		var target entity.Target
		if s.Target == nil {
			target = entity.NewNodeTarget(currentDocument(ctx, tabs, tab), entity.RootElementDOMNodeID)
		} else if target, ok = toTarget(s.Target); !ok {
			return nil
		}
		return tools.NewScrollToolRequest(tab, target, toScrollDirection(s.Direction), s.Distance)
	case "move_mouse":
		m := a.MoveMouse
		tab, target, ok := tabAndTarget(m.TabID, m.Target, fallback)
		if !ok {
			return nil
		}
		return tools.NewMoveMouseToolRequest(tab, target)
	case "drag_and_release":
		d := a.DragAndRelease
		tab, from, ok := tabAndTarget(d.TabID, d.From, fallback)
		if !ok {
			return nil
		}
		to, ok := toTarget(d.To)
		if !ok {
			return nil
		}
		return tools.NewDragAndReleaseToolRequest(tab, from, to)
	case "select":
		s := a.Select
		tab, target, ok := tabAndTarget(s.TabID, s.Target, fallback)
		if !ok {
			return nil
		}
		return tools.NewSelectToolRequest(tab, target, s.Value)
	case "navigate":
		tab, ok := resolveTab(a.Navigate.TabID, fallback)
		if !ok {
			return nil
		}
		return tools.NewNavigateToolRequest(tab, a.Navigate.URL)
	case "back":
		tab, ok := resolveTab(a.Back.TabID, fallback)
		if !ok {
			return nil
		}
		return tools.NewHistoryToolRequest(tab, entity.HistoryBack)
	case "forward":
		tab, ok := resolveTab(a.Forward.TabID, fallback)
		if !ok {
			return nil
		}
		return tools.NewHistoryToolRequest(tab, entity.HistoryForward)
	case "wait":
		if d, ok := a.Wait.duration(); ok {
			return tools.NewWaitToolRequestFor(d)
		}
		return tools.NewWaitToolRequest()
	case "create_tab":
		foreground := true
		if a.CreateTab.Foreground != nil {
			foreground = *a.CreateTab.Foreground
		}
		return tools.NewCreateTabToolRequest(a.CreateTab.WindowID, foreground)
	case "close_tab":
		tab, ok := resolveTab(a.CloseTab.TabID, fallback)
		if !ok {
			return nil
		}
		return tools.NewCloseTabToolRequest(tab)
	case "activate_tab":
		tab, ok := resolveTab(a.ActivateTab.TabID, fallback)
		if !ok {
			return nil
		}
		return tools.NewActivateTabToolRequest(tab)
	default:
		// create_window, close_window, activate_window and yield_to_user
		// have no tool.
		return nil
	}
}

func resolveTab(explicit *entity.TabHandle, fallback entity.TabHandle) (entity.TabHandle, bool) {
	if explicit != nil && !explicit.IsNull() {
		return *explicit, true
	}
	if !fallback.IsNull() {
		return fallback, true
	}
	return entity.NullTabHandle, false
}

func tabAndTarget(explicit *entity.TabHandle, t *Target, fallback entity.TabHandle) (entity.TabHandle, entity.Target, bool) {
	tab, ok := resolveTab(explicit, fallback)
	if !ok {
		return entity.NullTabHandle, entity.Target{}, false
	}
	target, ok := toTarget(t)
	if !ok {
		return entity.NullTabHandle, entity.Target{}, false
	}
	return tab, target, true
}

func toTarget(t *Target) (entity.Target, bool) {
	switch {
	case t == nil:
		return entity.Target{}, false
	case t.Coordinate != nil:
		return entity.NewCoordinateTarget(*t.Coordinate), true
	case t.DocumentIdentifier != "" && t.ContentNodeID != nil:
		return entity.NewNodeTarget(t.DocumentIdentifier, *t.ContentNodeID), true
	default:
		return entity.Target{}, false
	}
}

// currentDocument returns the tab's main-frame document, or "" when the tab
// cannot be read. An empty document never matches a live one, so the tool
// reports the failure when it runs.
func currentDocument(ctx context.Context, tabs output.TabRegistry, handle entity.TabHandle) string {
	if tabs == nil {
		return ""
	}
	tab, ok := tabs.Lookup(handle)
	if !ok {
		return ""
	}
	doc, err := tab.MainFrameDocumentID(ctx)
	if err != nil {
		return ""
	}
	return doc
}

// TODO: unknown values for the enums below fall back to a default instead
// of rejecting the action; reject them once callers send validated values.

func toClickType(s string) entity.ClickType {
	switch entity.ClickType(s) {
	case entity.ClickRight:
		return entity.ClickRight
	default:
		return entity.ClickLeft
	}
}

func toClickCount(s string) entity.ClickCount {
	switch s {
	case "double":
		return entity.ClickDouble
	default:
		return entity.ClickSingle
	}
}

func toTypeMode(s string) entity.TypeMode {
	switch entity.TypeMode(s) {
	case entity.TypePrepend:
		return entity.TypePrepend
	case entity.TypeAppend:
		return entity.TypeAppend
	default:
		return entity.TypeDeleteExisting
	}
}

func toScrollDirection(s string) entity.ScrollDirection {
	switch entity.ScrollDirection(s) {
	case entity.ScrollLeft, entity.ScrollRight, entity.ScrollUp:
		return entity.ScrollDirection(s)
	default:
		return entity.ScrollDown
	}
}
