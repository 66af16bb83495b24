package rod

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"browser-actor/internal/application/port/output"
	"browser-actor/internal/domain/entity"
	"browser-actor/internal/infrastructure/logger"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}
	if _, ok := launcher.LookPath(); !ok {
		t.Skip("no browser available")
	}

	cfg := DefaultConfig()
	cfg.Headless = true

	r, err := NewRegistry(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func serve(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func openPage(t *testing.T, r *Registry, url string) output.Tab {
	t.Helper()
	ctx := context.Background()
	tab, ok := r.ActiveTab()
	require.True(t, ok)
	require.NoError(t, tab.Navigate(ctx, url))
	require.NoError(t, tab.WaitStable(ctx, 5*time.Second))
	return tab
}

func findNode(t *testing.T, page *entity.PageContent, text string) entity.UIElement {
	t.Helper()
	for _, n := range page.Nodes {
		if n.Text == text || n.AriaLabel == text {
			return n
		}
	}
	require.Failf(t, "node not found", "no node labelled %q in %+v", text, page.Nodes)
	return entity.UIElement{}
}

func evalString(t *testing.T, tab output.Tab, js string) string {
	t.Helper()
	p, err := tab.(*Tab).attach()
	require.NoError(t, err)
	res, err := p.Eval(js)
	require.NoError(t, err)
	return res.Value.String()
}

func TestRegistry_InitialTab(t *testing.T) {
	r := newTestRegistry(t)

	tab, ok := r.ActiveTab()
	require.True(t, ok)
	assert.False(t, tab.Handle().IsNull())

	infos := r.Tabs()
	require.NotEmpty(t, infos)
	assert.True(t, r.HasWindow(tab.Info().Window))
	assert.False(t, r.HasWindow(-1))

	found, ok := r.Lookup(tab.Handle())
	require.True(t, ok)
	assert.Equal(t, tab.Handle(), found.Handle())

	stale := tab.Handle()
	stale.Generation++
	_, ok = r.Lookup(stale)
	assert.False(t, ok)
}

func TestTab_NavigateAndObserve(t *testing.T) {
	r := newTestRegistry(t)
	server := serve(t, map[string]string{"/": BasicHTML, "/rich": RichUIHTML})
	ctx := context.Background()

	tab := openPage(t, r, server.URL)

	page, err := tab.Observe(ctx, entity.ObserveOptions{Screenshot: true})
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/", page.URL)
	assert.Equal(t, "Test Page", page.Title)
	assert.Equal(t, tab.Handle(), page.Tab)
	assert.NotEmpty(t, page.DocumentID)
	assert.Contains(t, page.Text, "Hello World")
	require.NotNil(t, page.Screenshot)
	assert.Equal(t, "jpeg", page.Screenshot.Format)
	assert.LessOrEqual(t, page.Screenshot.Width, 1024)

	require.NoError(t, tab.Navigate(ctx, server.URL+"/rich"))
	require.NoError(t, tab.WaitStable(ctx, 5*time.Second))

	rich, err := tab.Observe(ctx, entity.ObserveOptions{})
	require.NoError(t, err)
	assert.NotEqual(t, page.DocumentID, rich.DocumentID)
	assert.Nil(t, rich.Screenshot)

	first := findNode(t, rich, "First Button")
	assert.Equal(t, "button", first.Type)
	assert.Greater(t, first.Bounds.Width, 0.0)
	findNode(t, rich, "Link 1")
	for _, n := range rich.Nodes {
		assert.NotEqual(t, "Hidden", n.Text)
	}

	docID, err := tab.MainFrameDocumentID(ctx)
	require.NoError(t, err)
	assert.Equal(t, rich.DocumentID, docID)
}

func TestTab_ClickNode(t *testing.T) {
	r := newTestRegistry(t)
	server := serve(t, map[string]string{"/": InteractiveHTML})
	ctx := context.Background()

	tab := openPage(t, r, server.URL)
	page, err := tab.Observe(ctx, entity.ObserveOptions{})
	require.NoError(t, err)
	btn := findNode(t, page, "Click Me")

	target := entity.NewNodeTarget(page.DocumentID, btn.NodeID)
	pt, err := tab.ResolveTarget(ctx, target)
	require.NoError(t, err)
	assert.InDelta(t, 60, pt.X, 1)
	assert.InDelta(t, 30, pt.Y, 1)

	require.NoError(t, tab.Click(ctx, target, entity.ClickLeft, entity.ClickSingle))
	assert.Equal(t, "Clicked!", evalString(t, tab, `() => document.getElementById('result').textContent`))
}

func TestTab_TargetErrors(t *testing.T) {
	r := newTestRegistry(t)
	server := serve(t, map[string]string{"/": InteractiveHTML, "/other": BasicHTML})
	ctx := context.Background()

	tab := openPage(t, r, server.URL)
	page, err := tab.Observe(ctx, entity.ObserveOptions{})
	require.NoError(t, err)
	btn := findNode(t, page, "Click Me")

	err = tab.Click(ctx, entity.NewNodeTarget(page.DocumentID, 987654), entity.ClickLeft, entity.ClickSingle)
	assert.ErrorIs(t, err, entity.ErrNodeNotFound)

	require.NoError(t, tab.Navigate(ctx, server.URL+"/other"))
	require.NoError(t, tab.WaitStable(ctx, 5*time.Second))

	err = tab.Click(ctx, entity.NewNodeTarget(page.DocumentID, btn.NodeID), entity.ClickLeft, entity.ClickSingle)
	assert.ErrorIs(t, err, entity.ErrDocumentChanged)
}

func TestTab_TypeAndSelect(t *testing.T) {
	r := newTestRegistry(t)
	server := serve(t, map[string]string{"/": FormHTML})
	ctx := context.Background()

	tab := openPage(t, r, server.URL)
	page, err := tab.Observe(ctx, entity.ObserveOptions{})
	require.NoError(t, err)

	var input, sel entity.UIElement
	for _, n := range page.Nodes {
		switch n.Type {
		case "input":
			input = n
		case "select":
			sel = n
		}
	}
	require.NotZero(t, input.NodeID)
	require.NotZero(t, sel.NodeID)

	field := entity.NewNodeTarget(page.DocumentID, input.NodeID)
	value := `() => document.getElementById('username').value`

	require.NoError(t, tab.Type(ctx, field, "-x", entity.TypeAppend, false))
	assert.Equal(t, "bob-x", evalString(t, tab, value))

	require.NoError(t, tab.Type(ctx, field, ">", entity.TypePrepend, false))
	assert.Equal(t, ">bob-x", evalString(t, tab, value))

	require.NoError(t, tab.Type(ctx, field, "alice", entity.TypeDeleteExisting, false))
	assert.Equal(t, "alice", evalString(t, tab, value))

	menu := entity.NewNodeTarget(page.DocumentID, sel.NodeID)
	require.NoError(t, tab.Select(ctx, menu, "Green"))
	assert.Equal(t, "g", evalString(t, tab, `() => document.getElementById('color').value`))

	err = tab.Select(ctx, menu, "Blue")
	assert.ErrorIs(t, err, entity.ErrNoSuchOption)
}

func TestTab_ScrollRoot(t *testing.T) {
	r := newTestRegistry(t)
	server := serve(t, map[string]string{"/": ScrollableHTML})
	ctx := context.Background()

	tab := openPage(t, r, server.URL)
	docID, err := tab.MainFrameDocumentID(ctx)
	require.NoError(t, err)

	root := entity.NewNodeTarget(docID, entity.RootElementDOMNodeID)
	require.NoError(t, tab.Scroll(ctx, root, 0, 1000))

	assert.Eventually(t, func() bool {
		return evalString(t, tab, `() => String(window.scrollY)`) != "0"
	}, 3*time.Second, 50*time.Millisecond)
}

func TestTab_History(t *testing.T) {
	r := newTestRegistry(t)
	server := serve(t, map[string]string{"/a": BasicHTML, "/b": InteractiveHTML})
	ctx := context.Background()

	tab, err := r.CreateTab(ctx, mustActiveWindow(t, r), true)
	require.NoError(t, err)
	assert.ErrorIs(t, tab.GoForward(ctx), entity.ErrNoHistoryEntry)

	require.NoError(t, tab.Navigate(ctx, server.URL+"/a"))
	require.NoError(t, tab.WaitStable(ctx, 5*time.Second))
	require.NoError(t, tab.Navigate(ctx, server.URL+"/b"))
	require.NoError(t, tab.WaitStable(ctx, 5*time.Second))

	require.NoError(t, tab.GoBack(ctx))
	assert.Eventually(t, func() bool {
		return strings.HasSuffix(tab.Info().URL, "/a")
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, tab.GoForward(ctx))
	assert.Eventually(t, func() bool {
		return strings.HasSuffix(tab.Info().URL, "/b")
	}, 5*time.Second, 50*time.Millisecond)
	assert.ErrorIs(t, tab.GoForward(ctx), entity.ErrNoHistoryEntry)
}

func mustActiveWindow(t *testing.T, r *Registry) entity.WindowID {
	t.Helper()
	tab, ok := r.ActiveTab()
	require.True(t, ok)
	return tab.Info().Window
}

func TestRegistry_CreateActivateClose(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	window := mustActiveWindow(t, r)
	first, _ := r.ActiveTab()

	_, err := r.CreateTab(ctx, -1, true)
	assert.ErrorIs(t, err, entity.ErrWindowNotFound)

	tab, err := r.CreateTab(ctx, window, false)
	require.NoError(t, err)
	assert.NotEqual(t, first.Handle(), tab.Handle())
	active, _ := r.ActiveTab()
	assert.Equal(t, first.Handle(), active.Handle())

	require.NoError(t, tab.Activate(ctx))
	active, _ = r.ActiveTab()
	assert.Equal(t, tab.Handle(), active.Handle())
	assert.True(t, tab.Info().Active)

	closed := tab.Handle()
	require.NoError(t, tab.Close(ctx))
	_, ok := r.Lookup(closed)
	assert.False(t, ok)
	assert.ErrorIs(t, tab.Navigate(ctx, "about:blank"), entity.ErrTabClosed)
	_, err = tab.Observe(ctx, entity.ObserveOptions{})
	assert.ErrorIs(t, err, entity.ErrTabClosed)

	reopened, err := r.CreateTab(ctx, window, true)
	require.NoError(t, err)
	assert.NotEqual(t, closed, reopened.Handle())
	if reopened.Handle().ID == closed.ID {
		assert.Greater(t, reopened.Handle().Generation, closed.Generation)
	}
	_, ok = r.Lookup(closed)
	assert.False(t, ok)
}
