// Package fake provides an in-memory browser for exercising the actor
// without launching Chrome.
package fake

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"browser-actor/internal/application/port/output"
	"browser-actor/internal/domain/entity"
)

const DefaultWindow entity.WindowID = 1

// Browser is a TabRegistry over in-memory tabs. It is safe for concurrent
// use.
type Browser struct {
	mu      sync.Mutex
	nextID  uint32
	nextDoc int
	tabs    map[uint32]*Tab
	windows map[entity.WindowID]bool
	active  entity.TabHandle
}

var _ output.TabRegistry = (*Browser)(nil)

func NewBrowser() *Browser {
	return &Browser{
		tabs:    make(map[uint32]*Tab),
		windows: map[entity.WindowID]bool{DefaultWindow: true},
	}
}

func (b *Browser) AddWindow(id entity.WindowID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.windows[id] = true
}

func (b *Browser) RemoveWindow(id entity.WindowID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.windows, id)
}

// OpenTab adds a tab showing url to the default window and focuses it.
func (b *Browser) OpenTab(url string) *Tab {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.openLocked(DefaultWindow, url, true)
}

func (b *Browser) openLocked(window entity.WindowID, url string, foreground bool) *Tab {
	b.nextID++
	tab := &Tab{
		browser: b,
		handle:  entity.TabHandle{ID: b.nextID, Generation: 1},
		window:  window,
		nodes:   make(map[int32]entity.UIElement),
		options: make(map[int32][]string),
		values:  make(map[int32]string),
	}
	tab.loadLocked(url, b.newDocLocked())
	tab.history = []string{url}
	b.tabs[tab.handle.ID] = tab
	if foreground || b.active.IsNull() {
		b.active = tab.handle
	}
	return tab
}

func (b *Browser) newDocLocked() string {
	b.nextDoc++
	return fmt.Sprintf("doc-%d", b.nextDoc)
}

// CloseTab removes the tab; its handle stops resolving.
func (b *Browser) CloseTab(handle entity.TabHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeLocked(handle)
}

func (b *Browser) closeLocked(handle entity.TabHandle) {
	tab, ok := b.tabs[handle.ID]
	if !ok || tab.handle != handle {
		return
	}
	tab.closed = true
	delete(b.tabs, handle.ID)
	if b.active == handle {
		b.active = entity.NullTabHandle
		for _, other := range b.tabs {
			b.active = other.handle
			break
		}
	}
}

func (b *Browser) Lookup(handle entity.TabHandle) (output.Tab, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tab, ok := b.tabs[handle.ID]
	if !ok || tab.handle != handle {
		return nil, false
	}
	return tab, true
}

// Tab returns the concrete fake for assertions.
func (b *Browser) Tab(handle entity.TabHandle) *Tab {
	b.mu.Lock()
	defer b.mu.Unlock()
	tab, ok := b.tabs[handle.ID]
	if !ok || tab.handle != handle {
		return nil
	}
	return tab
}

func (b *Browser) ActiveTab() (output.Tab, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tab, ok := b.tabs[b.active.ID]
	if !ok {
		return nil, false
	}
	return tab, true
}

func (b *Browser) Tabs() []entity.TabInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	infos := make([]entity.TabInfo, 0, len(b.tabs))
	for _, tab := range b.tabs {
		infos = append(infos, tab.infoLocked())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Handle.ID < infos[j].Handle.ID })
	return infos
}

func (b *Browser) HasWindow(window entity.WindowID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.windows[window]
}

func (b *Browser) CreateTab(ctx context.Context, window entity.WindowID, foreground bool) (output.Tab, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.windows[window] {
		return nil, fmt.Errorf("create tab in window %d: %w", window, entity.ErrWindowNotFound)
	}
	return b.openLocked(window, "about:blank", foreground), nil
}

// Tab is an in-memory page. Every action is recorded as a call string.
// All state is guarded by the owning Browser's mutex.
type Tab struct {
	browser *Browser
	handle  entity.TabHandle
	window  entity.WindowID
	closed  bool

	url     string
	title   string
	docID   string
	nodes   map[int32]entity.UIElement
	options map[int32][]string
	values  map[int32]string
	history []string
	histIdx int

	calls     []string
	failures  map[string]error
	gate      chan struct{}
	stableErr error
}

var _ output.Tab = (*Tab)(nil)

func (t *Tab) loadLocked(url, docID string) {
	t.url = url
	t.title = url
	t.docID = docID
	t.nodes = make(map[int32]entity.UIElement)
	t.options = make(map[int32][]string)
	t.values = make(map[int32]string)
}

// AddNode places an element in the current document.
func (t *Tab) AddNode(el entity.UIElement) {
	t.browser.mu.Lock()
	defer t.browser.mu.Unlock()
	t.nodes[el.NodeID] = el
}

func (t *Tab) RemoveNode(nodeID int32) {
	t.browser.mu.Lock()
	defer t.browser.mu.Unlock()
	delete(t.nodes, nodeID)
}

// SetOptions makes nodeID a select element with the given option values.
func (t *Tab) SetOptions(nodeID int32, values ...string) {
	t.browser.mu.Lock()
	defer t.browser.mu.Unlock()
	t.options[nodeID] = values
}

// Value returns the text typed into or selected in a node.
func (t *Tab) Value(nodeID int32) string {
	t.browser.mu.Lock()
	defer t.browser.mu.Unlock()
	return t.values[nodeID]
}

// Reload swaps the document as a same-URL navigation would.
func (t *Tab) Reload() string {
	t.browser.mu.Lock()
	defer t.browser.mu.Unlock()
	t.loadLocked(t.url, t.browser.newDocLocked())
	return t.docID
}

func (t *Tab) DocumentID() string {
	t.browser.mu.Lock()
	defer t.browser.mu.Unlock()
	return t.docID
}

func (t *Tab) URL() string {
	t.browser.mu.Lock()
	defer t.browser.mu.Unlock()
	return t.url
}

// FailWith makes the named method return err until cleared with nil.
func (t *Tab) FailWith(method string, err error) {
	t.browser.mu.Lock()
	defer t.browser.mu.Unlock()
	if t.failures == nil {
		t.failures = make(map[string]error)
	}
	if err == nil {
		delete(t.failures, method)
		return
	}
	t.failures[method] = err
}

func (t *Tab) SetStableError(err error) {
	t.browser.mu.Lock()
	defer t.browser.mu.Unlock()
	t.stableErr = err
}

// Hold blocks every mutating call until the returned release func is
// called.
func (t *Tab) Hold() (release func()) {
	gate := make(chan struct{})
	t.browser.mu.Lock()
	t.gate = gate
	t.browser.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (t *Tab) Calls() []string {
	t.browser.mu.Lock()
	defer t.browser.mu.Unlock()
	return append([]string(nil), t.calls...)
}

// begin records a call and returns with the browser lock held. The caller
// must unlock.
func (t *Tab) begin(ctx context.Context, method, call string) error {
	t.browser.mu.Lock()
	gate := t.gate
	t.browser.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			t.browser.mu.Lock()
			return ctx.Err()
		}
	}

	t.browser.mu.Lock()
	if t.closed {
		return fmt.Errorf("%s: %w", t.handle, entity.ErrTabClosed)
	}
	t.calls = append(t.calls, call)
	if err := t.failures[method]; err != nil {
		return err
	}
	return nil
}

func (t *Tab) Handle() entity.TabHandle {
	return t.handle
}

func (t *Tab) Info() entity.TabInfo {
	t.browser.mu.Lock()
	defer t.browser.mu.Unlock()
	return t.infoLocked()
}

func (t *Tab) infoLocked() entity.TabInfo {
	return entity.TabInfo{
		Handle: t.handle,
		Window: t.window,
		URL:    t.url,
		Title:  t.title,
		Active: t.browser.active == t.handle,
	}
}

func (t *Tab) MainFrameDocumentID(ctx context.Context) (string, error) {
	t.browser.mu.Lock()
	defer t.browser.mu.Unlock()
	if t.closed {
		return "", fmt.Errorf("%s: %w", t.handle, entity.ErrTabClosed)
	}
	return t.docID, nil
}

func (t *Tab) ResolveTarget(ctx context.Context, target entity.Target) (entity.Point, error) {
	t.browser.mu.Lock()
	defer t.browser.mu.Unlock()
	if t.closed {
		return entity.Point{}, fmt.Errorf("%s: %w", t.handle, entity.ErrTabClosed)
	}
	return t.resolveLocked(target)
}

func (t *Tab) resolveLocked(target entity.Target) (entity.Point, error) {
	switch {
	case target.Coordinate != nil:
		return *target.Coordinate, nil
	case target.Node != nil:
		if target.Node.DocumentID != t.docID {
			return entity.Point{}, fmt.Errorf("document %s: %w", target.Node.DocumentID, entity.ErrDocumentChanged)
		}
		if target.IsRoot() {
			return entity.Point{}, nil
		}
		el, ok := t.nodes[target.Node.NodeID]
		if !ok {
			return entity.Point{}, fmt.Errorf("node %d: %w", target.Node.NodeID, entity.ErrNodeNotFound)
		}
		return el.Bounds.Center(), nil
	default:
		return entity.Point{}, fmt.Errorf("empty target: %w", entity.ErrNodeNotFound)
	}
}

func (t *Tab) Click(ctx context.Context, target entity.Target, button entity.ClickType, count entity.ClickCount) error {
	err := t.begin(ctx, "Click", fmt.Sprintf("click %s %s %s", target, button, count))
	defer t.browser.mu.Unlock()
	if err != nil {
		return err
	}
	_, err = t.resolveLocked(target)
	return err
}

func (t *Tab) MoveMouse(ctx context.Context, target entity.Target) error {
	err := t.begin(ctx, "MoveMouse", fmt.Sprintf("move %s", target))
	defer t.browser.mu.Unlock()
	if err != nil {
		return err
	}
	_, err = t.resolveLocked(target)
	return err
}

func (t *Tab) DragAndRelease(ctx context.Context, from, to entity.Target) error {
	err := t.begin(ctx, "DragAndRelease", fmt.Sprintf("drag %s -> %s", from, to))
	defer t.browser.mu.Unlock()
	if err != nil {
		return err
	}
	if _, err := t.resolveLocked(from); err != nil {
		return err
	}
	_, err = t.resolveLocked(to)
	return err
}

func (t *Tab) Type(ctx context.Context, target entity.Target, text string, mode entity.TypeMode, followByEnter bool) error {
	err := t.begin(ctx, "Type", fmt.Sprintf("type %s %q %s enter=%t", target, text, mode, followByEnter))
	defer t.browser.mu.Unlock()
	if err != nil {
		return err
	}
	if _, err := t.resolveLocked(target); err != nil {
		return err
	}
	if target.Node == nil {
		return nil
	}
	id := target.Node.NodeID
	switch mode {
	case entity.TypePrepend:
		t.values[id] = text + t.values[id]
	case entity.TypeAppend:
		t.values[id] += text
	default:
		t.values[id] = text
	}
	return nil
}

func (t *Tab) Scroll(ctx context.Context, target entity.Target, dx, dy float64) error {
	err := t.begin(ctx, "Scroll", fmt.Sprintf("scroll %s %g,%g", target, dx, dy))
	defer t.browser.mu.Unlock()
	if err != nil {
		return err
	}
	_, err = t.resolveLocked(target)
	return err
}

func (t *Tab) Select(ctx context.Context, target entity.Target, value string) error {
	err := t.begin(ctx, "Select", fmt.Sprintf("select %s %q", target, value))
	defer t.browser.mu.Unlock()
	if err != nil {
		return err
	}
	if _, err := t.resolveLocked(target); err != nil {
		return err
	}
	if target.Node == nil {
		return fmt.Errorf("select needs a node target: %w", entity.ErrNodeNotFound)
	}
	for _, option := range t.options[target.Node.NodeID] {
		if option == value {
			t.values[target.Node.NodeID] = value
			return nil
		}
	}
	return fmt.Errorf("option %q: %w", value, entity.ErrNoSuchOption)
}

func (t *Tab) Navigate(ctx context.Context, url string) error {
	err := t.begin(ctx, "Navigate", "navigate "+url)
	defer t.browser.mu.Unlock()
	if err != nil {
		return err
	}
	t.history = append(t.history[:t.histIdx+1], url)
	t.histIdx = len(t.history) - 1
	t.loadLocked(url, t.browser.newDocLocked())
	return nil
}

func (t *Tab) GoBack(ctx context.Context) error {
	err := t.begin(ctx, "GoBack", "back")
	defer t.browser.mu.Unlock()
	if err != nil {
		return err
	}
	if t.histIdx == 0 {
		return fmt.Errorf("go back: %w", entity.ErrNoHistoryEntry)
	}
	t.histIdx--
	t.loadLocked(t.history[t.histIdx], t.browser.newDocLocked())
	return nil
}

func (t *Tab) GoForward(ctx context.Context) error {
	err := t.begin(ctx, "GoForward", "forward")
	defer t.browser.mu.Unlock()
	if err != nil {
		return err
	}
	if t.histIdx >= len(t.history)-1 {
		return fmt.Errorf("go forward: %w", entity.ErrNoHistoryEntry)
	}
	t.histIdx++
	t.loadLocked(t.history[t.histIdx], t.browser.newDocLocked())
	return nil
}

func (t *Tab) WaitStable(ctx context.Context, timeout time.Duration) error {
	t.browser.mu.Lock()
	defer t.browser.mu.Unlock()
	t.calls = append(t.calls, "wait-stable")
	return t.stableErr
}

func (t *Tab) Activate(ctx context.Context) error {
	err := t.begin(ctx, "Activate", "activate")
	defer t.browser.mu.Unlock()
	if err != nil {
		return err
	}
	t.browser.active = t.handle
	return nil
}

func (t *Tab) Close(ctx context.Context) error {
	err := t.begin(ctx, "Close", "close")
	defer t.browser.mu.Unlock()
	if err != nil {
		return err
	}
	t.browser.closeLocked(t.handle)
	return nil
}

func (t *Tab) Observe(ctx context.Context, opts entity.ObserveOptions) (*entity.PageContent, error) {
	t.browser.mu.Lock()
	defer t.browser.mu.Unlock()
	if t.closed {
		return nil, fmt.Errorf("%s: %w", t.handle, entity.ErrTabClosed)
	}
	page := &entity.PageContent{
		Tab:        t.handle,
		URL:        t.url,
		Title:      t.title,
		DocumentID: t.docID,
	}
	for _, el := range t.nodes {
		page.Nodes = append(page.Nodes, el)
	}
	sort.Slice(page.Nodes, func(i, j int) bool { return page.Nodes[i].NodeID < page.Nodes[j].NodeID })
	return page, nil
}
