package tools

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"browser-actor/internal/application/port/output"
	"browser-actor/internal/domain/entity"
)

var allowedSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"file":  true,
	"about": true,
}

// ValidateNavigationURL accepts absolute http, https, file and about URLs.
func ValidateNavigationURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty url", entity.ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrInvalidURL, err)
	}
	if !allowedSchemes[u.Scheme] {
		return fmt.Errorf("%w: scheme %q is not allowed", entity.ErrInvalidURL, u.Scheme)
	}
	if (u.Scheme == "http" || u.Scheme == "https") && u.Host == "" {
		return fmt.Errorf("%w: missing host", entity.ErrInvalidURL)
	}
	return nil
}

type NavigateTool struct {
	tabTool
	noTimeOfUseCheck
	target string
}

var _ Tool = (*NavigateTool)(nil)

func (t *NavigateTool) Name() entity.ToolName { return entity.ToolNavigate }

func (t *NavigateTool) Validate(ctx context.Context, done ResultCallback) {
	if err := ValidateNavigationURL(t.target); err != nil {
		t.post(done, resultFromError(err))
		return
	}
	if _, res := t.resolveTab(); !res.IsOk() {
		t.post(done, res)
		return
	}
	t.post(done, entity.OkResult())
}

func (t *NavigateTool) Invoke(ctx context.Context, done ResultCallback) {
	t.log("NavigateTool", "navigating to "+t.target)
	t.invokeOnTab(ctx, done, func(ctx context.Context, tab output.Tab) error {
		if err := tab.Navigate(ctx, t.target); err != nil {
			return fmt.Errorf("navigate to %s: %w", t.target, err)
		}
		return nil
	})
}

func (t *NavigateTool) ObservationDelayer() ObservationDelayer { return t.stabilityDelayer() }

func (t *NavigateTool) DebugString() string {
	return fmt.Sprintf("NavigateTool[%s %s]", t.tab, t.target)
}

type HistoryTool struct {
	tabTool
	noTimeOfUseCheck
	direction entity.HistoryDirection
}

var _ Tool = (*HistoryTool)(nil)

func (t *HistoryTool) Name() entity.ToolName { return entity.ToolHistory }

func (t *HistoryTool) Validate(ctx context.Context, done ResultCallback) {
	_, res := t.resolveTab()
	t.post(done, res)
}

func (t *HistoryTool) Invoke(ctx context.Context, done ResultCallback) {
	t.invokeOnTab(ctx, done, func(ctx context.Context, tab output.Tab) error {
		if t.direction == entity.HistoryForward {
			return tab.GoForward(ctx)
		}
		return tab.GoBack(ctx)
	})
}

func (t *HistoryTool) ObservationDelayer() ObservationDelayer { return t.stabilityDelayer() }

func (t *HistoryTool) DebugString() string {
	return fmt.Sprintf("HistoryTool[%s %s]", t.tab, t.direction)
}

type TabAction string

const (
	TabActionCreate   TabAction = "create"
	TabActionActivate TabAction = "activate"
	TabActionClose    TabAction = "close"
)

// TabManagementTool creates, activates or closes a tab. Only the create
// mode is not bound to an existing tab.
type TabManagementTool struct {
	toolBase
	noTimeOfUseCheck
	tabs       output.TabRegistry
	action     TabAction
	tab        entity.TabHandle
	window     entity.WindowID
	foreground bool
}

var _ Tool = (*TabManagementTool)(nil)

func (t *TabManagementTool) Name() entity.ToolName { return entity.ToolTabManagement }

func (t *TabManagementTool) Action() TabAction { return t.action }

func (t *TabManagementTool) Tab() entity.TabHandle { return t.tab }

func (t *TabManagementTool) Validate(ctx context.Context, done ResultCallback) {
	if t.action == TabActionCreate {
		if !t.tabs.HasWindow(t.window) {
			t.post(done, entity.NewActionResult(entity.ResultWindowWentAway, fmt.Sprintf("window %d does not exist", t.window)))
			return
		}
		t.post(done, entity.OkResult())
		return
	}
	if _, ok := t.tabs.Lookup(t.tab); !ok {
		t.post(done, entity.NewActionResult(entity.ResultTabWentAway, fmt.Sprintf("%s no longer exists", t.tab)))
		return
	}
	t.post(done, entity.OkResult())
}

func (t *TabManagementTool) Invoke(ctx context.Context, done ResultCallback) {
	if t.action == TabActionCreate {
		t.async(ctx, done, func(ctx context.Context) entity.ActionResult {
			tab, err := t.tabs.CreateTab(ctx, t.window, t.foreground)
			if err != nil {
				return resultFromError(err)
			}
			t.log("TabManagementTool", "created "+tab.Handle().String())
			return entity.OkResult()
		})
		return
	}

	tab, ok := t.tabs.Lookup(t.tab)
	if !ok {
		t.post(done, entity.NewActionResult(entity.ResultTabWentAway, fmt.Sprintf("%s no longer exists", t.tab)))
		return
	}
	t.async(ctx, done, func(ctx context.Context) entity.ActionResult {
		if t.action == TabActionClose {
			return resultFromError(tab.Close(ctx))
		}
		return resultFromError(tab.Activate(ctx))
	})
}

func (t *TabManagementTool) ObservationDelayer() ObservationDelayer { return nil }

func (t *TabManagementTool) DebugString() string {
	if t.action == TabActionCreate {
		return fmt.Sprintf("TabManagementTool[create window=%d foreground=%t]", t.window, t.foreground)
	}
	return fmt.Sprintf("TabManagementTool[%s %s]", t.action, t.tab)
}

// WaitTool reports success after a delay and does nothing else.
type WaitTool struct {
	toolBase
	noTimeOfUseCheck
	delay time.Duration
}

var _ Tool = (*WaitTool)(nil)

func (t *WaitTool) Name() entity.ToolName { return entity.ToolWait }

func (t *WaitTool) Delay() time.Duration { return t.delay }

func (t *WaitTool) Validate(ctx context.Context, done ResultCallback) {
	if t.delay < 0 {
		t.post(done, entity.NewActionResult(entity.ResultArgumentsInvalid, "wait duration is negative"))
		return
	}
	t.post(done, entity.OkResult())
}

func (t *WaitTool) Invoke(ctx context.Context, done ResultCallback) {
	t.runner.PostDelayedTask(func() { done(entity.OkResult()) }, t.delay)
}

func (t *WaitTool) ObservationDelayer() ObservationDelayer { return nil }

func (t *WaitTool) DebugString() string {
	return fmt.Sprintf("WaitTool[%s]", t.delay)
}
