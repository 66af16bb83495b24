package output

import (
	"context"
	"time"

	"browser-actor/internal/domain/entity"
)

// TabRegistry resolves weak tab handles. Lookup must be safe for concurrent
// use; a handle that fails to resolve is gone for good.
type TabRegistry interface {
	Lookup(handle entity.TabHandle) (Tab, bool)
	ActiveTab() (Tab, bool)
	Tabs() []entity.TabInfo
	HasWindow(window entity.WindowID) bool
	CreateTab(ctx context.Context, window entity.WindowID, foreground bool) (Tab, error)
}

// Tab is a live browser tab. Methods return entity.ErrTabClosed once the
// tab is gone.
type Tab interface {
	Handle() entity.TabHandle
	Info() entity.TabInfo

	// MainFrameDocumentID identifies the document currently loaded in the
	// main frame. It changes on every navigation.
	MainFrameDocumentID(ctx context.Context) (string, error)
	// ResolveTarget returns the viewport point a target refers to.
	ResolveTarget(ctx context.Context, target entity.Target) (entity.Point, error)

	Click(ctx context.Context, target entity.Target, button entity.ClickType, count entity.ClickCount) error
	MoveMouse(ctx context.Context, target entity.Target) error
	DragAndRelease(ctx context.Context, from, to entity.Target) error
	Type(ctx context.Context, target entity.Target, text string, mode entity.TypeMode, followByEnter bool) error
	Scroll(ctx context.Context, target entity.Target, dx, dy float64) error
	Select(ctx context.Context, target entity.Target, value string) error

	Navigate(ctx context.Context, url string) error
	GoBack(ctx context.Context) error
	GoForward(ctx context.Context) error
	WaitStable(ctx context.Context, timeout time.Duration) error

	Activate(ctx context.Context) error
	Close(ctx context.Context) error

	Observe(ctx context.Context, opts entity.ObserveOptions) (*entity.PageContent, error)
}
