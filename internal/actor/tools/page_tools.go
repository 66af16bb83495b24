package tools

import (
	"context"
	"fmt"
	"time"

	"browser-actor/internal/application/port/output"
	"browser-actor/internal/domain/entity"
)

const timeOfUseTimeout = 2 * time.Second

// tabTool is the common part of tools bound to one tab. The handle is
// looked up again at every step; a failed lookup is TabWentAway.
type tabTool struct {
	toolBase
	tabs          output.TabRegistry
	tab           entity.TabHandle
	settleTimeout time.Duration
}

func (t *tabTool) resolveTab() (output.Tab, entity.ActionResult) {
	tab, ok := t.tabs.Lookup(t.tab)
	if !ok {
		return nil, entity.NewActionResult(entity.ResultTabWentAway, fmt.Sprintf("%s no longer exists", t.tab))
	}
	return tab, entity.OkResult()
}

func (t *tabTool) stabilityDelayer() ObservationDelayer {
	return NewPageStabilityDelayer(t.tabs, t.tab, t.runner, t.settleTimeout)
}

// validateTargets checks coordinates synchronously and resolves node
// targets against the live page off-sequence.
func (t *tabTool) validateTargets(ctx context.Context, done ResultCallback, targets ...entity.Target) {
	tab, res := t.resolveTab()
	if !res.IsOk() {
		t.post(done, res)
		return
	}

	var nodes []entity.Target
	for _, target := range targets {
		switch {
		case target.Coordinate != nil:
			if target.Coordinate.X < 0 || target.Coordinate.Y < 0 {
				t.post(done, entity.NewActionResult(entity.ResultArgumentsInvalid,
					fmt.Sprintf("coordinate %s is outside the viewport", target.Coordinate)))
				return
			}
		case target.Node != nil:
			nodes = append(nodes, target)
		default:
			t.post(done, entity.NewActionResult(entity.ResultArgumentsInvalid, "target is empty"))
			return
		}
	}
	if len(nodes) == 0 {
		t.post(done, entity.OkResult())
		return
	}

	t.async(ctx, done, func(ctx context.Context) entity.ActionResult {
		live, err := tab.MainFrameDocumentID(ctx)
		if err != nil {
			return resultFromError(err)
		}
		for _, target := range nodes {
			if target.Node.DocumentID != live {
				return entity.NewActionResult(entity.ResultFrameWentAway,
					fmt.Sprintf("document %s is no longer loaded", target.Node.DocumentID))
			}
			if target.IsRoot() {
				continue
			}
			if _, err := tab.ResolveTarget(ctx, target); err != nil {
				return resultFromError(err)
			}
		}
		return entity.OkResult()
	})
}

// checkTimeOfUse compares the targets against the live main frame and the
// caller's last observation of this tab. The main-frame read is synchronous
// and holds the sequence for up to timeOfUseTimeout.
func (t *tabTool) checkTimeOfUse(last *entity.PageContent, targets ...entity.Target) entity.ActionResult {
	tab, res := t.resolveTab()
	if !res.IsOk() {
		return res
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeOfUseTimeout)
	defer cancel()
	live, err := tab.MainFrameDocumentID(ctx)
	if err != nil {
		return resultFromError(err)
	}

	observed := last != nil && last.Tab == t.tab && last.DocumentID != ""
	for _, target := range targets {
		if target.Node == nil {
			if observed && last.DocumentID != live {
				return entity.NewActionResult(entity.ResultObservedPageChanged,
					"page navigated since it was last observed")
			}
			continue
		}

		if target.Node.DocumentID != live {
			return entity.NewActionResult(entity.ResultFrameWentAway,
				fmt.Sprintf("document %s is no longer loaded", target.Node.DocumentID))
		}
		if !observed {
			continue
		}
		if last.DocumentID != target.Node.DocumentID {
			return entity.NewActionResult(entity.ResultObservedPageChanged,
				"target document differs from the last observation")
		}
		if target.IsRoot() {
			continue
		}
		if _, ok := last.FindNode(target.Node.NodeID); !ok {
			return entity.NewActionResult(entity.ResultObservedTargetElementChanged,
				fmt.Sprintf("node %d was not in the last observation", target.Node.NodeID))
		}
	}
	return entity.OkResult()
}

// invokeOnTab resolves the tab on the sequence and runs fn against it
// off-sequence.
func (t *tabTool) invokeOnTab(ctx context.Context, done ResultCallback, fn func(ctx context.Context, tab output.Tab) error) {
	tab, res := t.resolveTab()
	if !res.IsOk() {
		t.post(done, res)
		return
	}
	t.async(ctx, done, func(ctx context.Context) entity.ActionResult {
		return resultFromError(fn(ctx, tab))
	})
}

type ClickTool struct {
	tabTool
	target     entity.Target
	clickType  entity.ClickType
	clickCount entity.ClickCount
}

var _ Tool = (*ClickTool)(nil)

func (t *ClickTool) Name() entity.ToolName { return entity.ToolClick }

func (t *ClickTool) Validate(ctx context.Context, done ResultCallback) {
	t.validateTargets(ctx, done, t.target)
}

func (t *ClickTool) TimeOfUseValidation(last *entity.PageContent) entity.ActionResult {
	return t.checkTimeOfUse(last, t.target)
}

func (t *ClickTool) Invoke(ctx context.Context, done ResultCallback) {
	t.invokeOnTab(ctx, done, func(ctx context.Context, tab output.Tab) error {
		return tab.Click(ctx, t.target, t.clickType, t.clickCount)
	})
}

func (t *ClickTool) ObservationDelayer() ObservationDelayer { return t.stabilityDelayer() }

func (t *ClickTool) DebugString() string {
	return fmt.Sprintf("ClickTool[%s %s %s %s]", t.tab, t.target, t.clickType, t.clickCount)
}

type TypeTool struct {
	tabTool
	target        entity.Target
	text          string
	mode          entity.TypeMode
	followByEnter bool
}

var _ Tool = (*TypeTool)(nil)

func (t *TypeTool) Name() entity.ToolName { return entity.ToolType }

func (t *TypeTool) Validate(ctx context.Context, done ResultCallback) {
	t.validateTargets(ctx, done, t.target)
}

func (t *TypeTool) TimeOfUseValidation(last *entity.PageContent) entity.ActionResult {
	return t.checkTimeOfUse(last, t.target)
}

func (t *TypeTool) Invoke(ctx context.Context, done ResultCallback) {
	t.invokeOnTab(ctx, done, func(ctx context.Context, tab output.Tab) error {
		return tab.Type(ctx, t.target, t.text, t.mode, t.followByEnter)
	})
}

func (t *TypeTool) ObservationDelayer() ObservationDelayer { return t.stabilityDelayer() }

func (t *TypeTool) DebugString() string {
	return fmt.Sprintf("TypeTool[%s %s mode=%s len=%d enter=%t]", t.tab, t.target, t.mode, len(t.text), t.followByEnter)
}

type ScrollTool struct {
	tabTool
	target    entity.Target
	direction entity.ScrollDirection
	distance  float64
}

var _ Tool = (*ScrollTool)(nil)

func (t *ScrollTool) Name() entity.ToolName { return entity.ToolScroll }

func (t *ScrollTool) Validate(ctx context.Context, done ResultCallback) {
	if t.distance <= 0 {
		t.post(done, entity.NewActionResult(entity.ResultArgumentsInvalid, "scroll distance must be positive"))
		return
	}
	t.validateTargets(ctx, done, t.target)
}

func (t *ScrollTool) TimeOfUseValidation(last *entity.PageContent) entity.ActionResult {
	return t.checkTimeOfUse(last, t.target)
}

func (t *ScrollTool) Invoke(ctx context.Context, done ResultCallback) {
	dx, dy := t.direction.Offset(t.distance)
	t.invokeOnTab(ctx, done, func(ctx context.Context, tab output.Tab) error {
		return tab.Scroll(ctx, t.target, dx, dy)
	})
}

func (t *ScrollTool) ObservationDelayer() ObservationDelayer { return nil }

func (t *ScrollTool) DebugString() string {
	return fmt.Sprintf("ScrollTool[%s %s %s %g]", t.tab, t.target, t.direction, t.distance)
}

type MoveMouseTool struct {
	tabTool
	target entity.Target
}

var _ Tool = (*MoveMouseTool)(nil)

func (t *MoveMouseTool) Name() entity.ToolName { return entity.ToolMoveMouse }

func (t *MoveMouseTool) Validate(ctx context.Context, done ResultCallback) {
	t.validateTargets(ctx, done, t.target)
}

func (t *MoveMouseTool) TimeOfUseValidation(last *entity.PageContent) entity.ActionResult {
	return t.checkTimeOfUse(last, t.target)
}

func (t *MoveMouseTool) Invoke(ctx context.Context, done ResultCallback) {
	t.invokeOnTab(ctx, done, func(ctx context.Context, tab output.Tab) error {
		return tab.MoveMouse(ctx, t.target)
	})
}

func (t *MoveMouseTool) ObservationDelayer() ObservationDelayer { return nil }

func (t *MoveMouseTool) DebugString() string {
	return fmt.Sprintf("MoveMouseTool[%s %s]", t.tab, t.target)
}

type DragAndReleaseTool struct {
	tabTool
	from entity.Target
	to   entity.Target
}

var _ Tool = (*DragAndReleaseTool)(nil)

func (t *DragAndReleaseTool) Name() entity.ToolName { return entity.ToolDragAndRelease }

func (t *DragAndReleaseTool) Validate(ctx context.Context, done ResultCallback) {
	t.validateTargets(ctx, done, t.from, t.to)
}

func (t *DragAndReleaseTool) TimeOfUseValidation(last *entity.PageContent) entity.ActionResult {
	return t.checkTimeOfUse(last, t.from, t.to)
}

func (t *DragAndReleaseTool) Invoke(ctx context.Context, done ResultCallback) {
	t.invokeOnTab(ctx, done, func(ctx context.Context, tab output.Tab) error {
		return tab.DragAndRelease(ctx, t.from, t.to)
	})
}

func (t *DragAndReleaseTool) ObservationDelayer() ObservationDelayer { return t.stabilityDelayer() }

func (t *DragAndReleaseTool) DebugString() string {
	return fmt.Sprintf("DragAndReleaseTool[%s %s -> %s]", t.tab, t.from, t.to)
}

type SelectTool struct {
	tabTool
	target entity.Target
	value  string
}

var _ Tool = (*SelectTool)(nil)

func (t *SelectTool) Name() entity.ToolName { return entity.ToolSelect }

func (t *SelectTool) Validate(ctx context.Context, done ResultCallback) {
	t.validateTargets(ctx, done, t.target)
}

func (t *SelectTool) TimeOfUseValidation(last *entity.PageContent) entity.ActionResult {
	return t.checkTimeOfUse(last, t.target)
}

func (t *SelectTool) Invoke(ctx context.Context, done ResultCallback) {
	t.invokeOnTab(ctx, done, func(ctx context.Context, tab output.Tab) error {
		return tab.Select(ctx, t.target, t.value)
	})
}

func (t *SelectTool) ObservationDelayer() ObservationDelayer { return t.stabilityDelayer() }

func (t *SelectTool) DebugString() string {
	return fmt.Sprintf("SelectTool[%s %s value=%q]", t.tab, t.target, t.value)
}
