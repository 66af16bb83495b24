package tools

import (
	"fmt"
	"time"

	"browser-actor/internal/application/port/output"
	"browser-actor/internal/domain/entity"
)

type Config struct {
	// WaitDelay is used by wait requests that carry no duration.
	WaitDelay time.Duration
	// ObservationTimeout bounds how long a delayer waits for the page to
	// settle.
	ObservationTimeout time.Duration
	// ToolTimeout bounds every browser call made by Validate and Invoke.
	ToolTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		WaitDelay:          3 * time.Second,
		ObservationTimeout: 10 * time.Second,
		ToolTimeout:        30 * time.Second,
	}
}

// Factory turns requests into tools bound to live browser objects.
type Factory struct {
	tabs   output.TabRegistry
	runner output.TaskRunner
	config Config
}

func NewFactory(tabs output.TabRegistry, runner output.TaskRunner, config Config) *Factory {
	return &Factory{tabs: tabs, runner: runner, config: config}
}

// CreateTool resolves the objects a request refers to and returns the tool
// that will execute it. It never touches browser state. A tab request whose
// handle no longer resolves yields TabWentAway and a nil tool.
func (f *Factory) CreateTool(taskID entity.TaskID, journal output.JournalPort, req ToolRequest) (Tool, entity.ActionResult) {
	base := toolBase{
		taskID:  taskID,
		journal: journal,
		runner:  f.runner,
		timeout: f.config.ToolTimeout,
		event:   req.JournalEvent(),
	}

	switch r := req.(type) {
	case *ClickToolRequest:
		tt, res := f.tabTool(base, r.Tab())
		if !res.IsOk() {
			return nil, res
		}
		return &ClickTool{tabTool: tt, target: r.Target(), clickType: r.ClickType, clickCount: r.ClickCount}, res
	case *TypeToolRequest:
		tt, res := f.tabTool(base, r.Tab())
		if !res.IsOk() {
			return nil, res
		}
		return &TypeTool{tabTool: tt, target: r.Target(), text: r.Text, mode: r.Mode, followByEnter: r.FollowByEnter}, res
	case *ScrollToolRequest:
		tt, res := f.tabTool(base, r.Tab())
		if !res.IsOk() {
			return nil, res
		}
		return &ScrollTool{tabTool: tt, target: r.Target(), direction: r.Direction, distance: r.Distance}, res
	case *MoveMouseToolRequest:
		tt, res := f.tabTool(base, r.Tab())
		if !res.IsOk() {
			return nil, res
		}
		return &MoveMouseTool{tabTool: tt, target: r.Target()}, res
	case *DragAndReleaseToolRequest:
		tt, res := f.tabTool(base, r.Tab())
		if !res.IsOk() {
			return nil, res
		}
		return &DragAndReleaseTool{tabTool: tt, from: r.From, to: r.To}, res
	case *SelectToolRequest:
		tt, res := f.tabTool(base, r.Tab())
		if !res.IsOk() {
			return nil, res
		}
		return &SelectTool{tabTool: tt, target: r.Target(), value: r.Value}, res
	case *NavigateToolRequest:
		tt, res := f.tabTool(base, r.Tab())
		if !res.IsOk() {
			return nil, res
		}
		return &NavigateTool{tabTool: tt, target: r.URL}, res
	case *HistoryToolRequest:
		tt, res := f.tabTool(base, r.Tab())
		if !res.IsOk() {
			return nil, res
		}
		return &HistoryTool{tabTool: tt, direction: r.Direction}, res
	case *CreateTabToolRequest:
		if !f.tabs.HasWindow(r.Window) {
			return nil, entity.NewActionResult(entity.ResultWindowWentAway, fmt.Sprintf("window %d does not exist", r.Window))
		}
		return &TabManagementTool{toolBase: base, tabs: f.tabs, action: TabActionCreate, window: r.Window, foreground: r.Foreground}, entity.OkResult()
	case *ActivateTabToolRequest:
		return f.tabManagement(base, TabActionActivate, r.Tab())
	case *CloseTabToolRequest:
		return f.tabManagement(base, TabActionClose, r.Tab())
	case *WaitToolRequest:
		delay, ok := r.Duration()
		if !ok {
			delay = f.config.WaitDelay
		}
		return &WaitTool{toolBase: base, delay: delay}, entity.OkResult()
	default:
		panic(fmt.Sprintf("tools: unhandled request type %T", req))
	}
}

func (f *Factory) tabTool(base toolBase, handle entity.TabHandle) (tabTool, entity.ActionResult) {
	tab, ok := f.tabs.Lookup(handle)
	if !ok {
		return tabTool{}, entity.NewActionResult(entity.ResultTabWentAway, fmt.Sprintf("%s no longer exists", handle))
	}
	base.url = tab.Info().URL
	return tabTool{
		toolBase:      base,
		tabs:          f.tabs,
		tab:           handle,
		settleTimeout: f.config.ObservationTimeout,
	}, entity.OkResult()
}

func (f *Factory) tabManagement(base toolBase, action TabAction, handle entity.TabHandle) (Tool, entity.ActionResult) {
	tab, ok := f.tabs.Lookup(handle)
	if !ok {
		return nil, entity.NewActionResult(entity.ResultTabWentAway, fmt.Sprintf("%s no longer exists", handle))
	}
	base.url = tab.Info().URL
	return &TabManagementTool{toolBase: base, tabs: f.tabs, action: action, tab: handle}, entity.OkResult()
}
