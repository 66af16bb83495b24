package rod

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"browser-actor/internal/application/port/output"
	"browser-actor/internal/domain/entity"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

var _ output.TabRegistry = (*Registry)(nil)

type Config struct {
	Headless   bool
	SlowMotion time.Duration
	Timeout    time.Duration
	NoSandbox  bool
	DevTools   bool
	// ControlURL attaches to an already running browser instead of
	// launching one.
	ControlURL string
}

func DefaultConfig() Config {
	return Config{
		Headless:   false,
		SlowMotion: 0,
		Timeout:    10 * time.Second,
		NoSandbox:  true,
		DevTools:   false,
	}
}

// Registry tracks the page targets of one browser and hands out
// generational handles for them. Slots of closed tabs are reused with a
// bumped generation so stale handles never resolve to a new tab.
type Registry struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      Config
	logger   output.LoggerPort
	cancel   context.CancelFunc

	mu       sync.Mutex
	byTarget map[proto.TargetTargetID]*Tab
	slots    []slot
	free     []uint32
	active   entity.TabHandle
}

type slot struct {
	generation uint32
	tab        *Tab
}

func NewRegistry(ctx context.Context, cfg Config, logger output.LoggerPort) (*Registry, error) {
	controlURL := cfg.ControlURL
	var l *launcher.Launcher
	if controlURL == "" {
		l = launcher.New().
			Headless(cfg.Headless).
			Devtools(cfg.DevTools).
			NoSandbox(cfg.NoSandbox).
			Delete("use-mock-keychain").
			Set("disable-setuid-sandbox")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().
		ControlURL(controlURL).
		SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		if l != nil {
			l.Kill()
		}
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	eventsCtx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		browser:  browser,
		launcher: l,
		cfg:      cfg,
		logger:   logger.WithField("component", "browser"),
		cancel:   cancel,
		byTarget: make(map[proto.TargetTargetID]*Tab),
		slots:    []slot{{}}, // id 0 is the null handle
	}

	if err := (proto.TargetSetDiscoverTargets{Discover: true}).Call(browser); err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to enable target discovery: %w", err)
	}

	wait := browser.Context(eventsCtx).EachEvent(
		func(e *proto.TargetTargetCreated) {
			if e.TargetInfo.Type == proto.TargetTargetInfoTypePage {
				r.register(eventsCtx, e.TargetInfo)
			}
		},
		func(e *proto.TargetTargetInfoChanged) {
			r.update(e.TargetInfo)
		},
		func(e *proto.TargetTargetDestroyed) {
			r.drop(e.TargetID)
		},
	)
	go wait()

	targets, err := proto.TargetGetTargets{}.Call(browser)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	for _, info := range targets.TargetInfos {
		if info.Type == proto.TargetTargetInfoTypePage {
			r.register(ctx, info)
		}
	}

	return r, nil
}

// register is idempotent per target; the creation event and CreateTab
// race to register the same page.
func (r *Registry) register(ctx context.Context, info *proto.TargetTargetInfo) *Tab {
	r.mu.Lock()
	if tab, ok := r.byTarget[info.TargetID]; ok {
		r.mu.Unlock()
		return tab
	}
	r.mu.Unlock()

	var window entity.WindowID
	res, err := proto.BrowserGetWindowForTarget{TargetID: info.TargetID}.Call(r.browser.Context(ctx))
	if err == nil {
		window = entity.WindowID(res.WindowID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if tab, ok := r.byTarget[info.TargetID]; ok {
		return tab
	}

	var id uint32
	if n := len(r.free); n > 0 {
		id = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		id = uint32(len(r.slots))
		r.slots = append(r.slots, slot{})
	}
	s := &r.slots[id]
	s.generation++

	tab := &Tab{
		registry: r,
		handle:   entity.TabHandle{ID: id, Generation: s.generation},
		targetID: info.TargetID,
		info: entity.TabInfo{
			Window: window,
			URL:    info.URL,
			Title:  info.Title,
		},
	}
	tab.info.Handle = tab.handle
	s.tab = tab
	r.byTarget[info.TargetID] = tab
	if r.active.IsNull() {
		r.active = tab.handle
	}

	r.logger.Debug("tab registered", "tab", tab.handle.String(), "window", int32(window), "url", info.URL)
	return tab
}

func (r *Registry) update(info *proto.TargetTargetInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tab, ok := r.byTarget[info.TargetID]; ok {
		tab.info.URL = info.URL
		tab.info.Title = info.Title
	}
}

func (r *Registry) drop(target proto.TargetTargetID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tab, ok := r.byTarget[target]
	if !ok {
		return
	}
	delete(r.byTarget, target)
	tab.closed = true
	r.slots[tab.handle.ID].tab = nil
	r.free = append(r.free, tab.handle.ID)

	if r.active == tab.handle {
		r.active = entity.NullTabHandle
		for _, s := range r.slots {
			if s.tab != nil {
				r.active = s.tab.handle
				break
			}
		}
	}

	r.logger.Debug("tab dropped", "tab", tab.handle.String())
}

func (r *Registry) setActive(handle entity.TabHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = handle
}

func (r *Registry) isClosed(tab *Tab) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return tab.closed
}

func (r *Registry) Lookup(handle entity.TabHandle) (output.Tab, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if handle.IsNull() || int(handle.ID) >= len(r.slots) {
		return nil, false
	}
	s := r.slots[handle.ID]
	if s.tab == nil || s.generation != handle.Generation {
		return nil, false
	}
	return s.tab, true
}

func (r *Registry) ActiveTab() (output.Tab, bool) {
	r.mu.Lock()
	active := r.active
	r.mu.Unlock()
	return r.Lookup(active)
}

func (r *Registry) Tabs() []entity.TabInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	infos := make([]entity.TabInfo, 0, len(r.byTarget))
	for _, tab := range r.byTarget {
		info := tab.info
		info.Active = tab.handle == r.active
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Handle.ID < infos[j].Handle.ID })
	return infos
}

func (r *Registry) HasWindow(window entity.WindowID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tab := range r.byTarget {
		if tab.info.Window == window {
			return true
		}
	}
	return false
}

// CreateTab opens about:blank. The DevTools protocol cannot place a new
// target into an existing window, so the tab lands in the browser's
// current window; window only has to exist.
func (r *Registry) CreateTab(ctx context.Context, window entity.WindowID, foreground bool) (output.Tab, error) {
	if !r.HasWindow(window) {
		return nil, fmt.Errorf("window %d: %w", window, entity.ErrWindowNotFound)
	}

	res, err := proto.TargetCreateTarget{
		URL:        "about:blank",
		Background: !foreground,
	}.Call(r.browser.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to create tab: %w", err)
	}

	info, err := proto.TargetGetTargetInfo{TargetID: res.TargetID}.Call(r.browser.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to read new tab: %w", err)
	}
	tab := r.register(ctx, info.TargetInfo)
	if foreground {
		r.setActive(tab.handle)
	}
	return tab, nil
}

func (r *Registry) Close() {
	r.cancel()
	if r.browser != nil {
		_ = r.browser.Close()
	}
	if r.launcher != nil {
		r.launcher.Kill()
		r.launcher.Cleanup()
	}
}
