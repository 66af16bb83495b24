package rod

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"browser-actor/internal/application/port/output"
	"browser-actor/internal/domain/entity"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

var _ output.Tab = (*Tab)(nil)

type Tab struct {
	registry *Registry
	handle   entity.TabHandle
	targetID proto.TargetTargetID

	// guarded by registry.mu
	info   entity.TabInfo
	closed bool

	attachMu sync.Mutex
	page     *rod.Page
}

func (t *Tab) Handle() entity.TabHandle {
	return t.handle
}

func (t *Tab) Info() entity.TabInfo {
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()
	info := t.info
	info.Active = t.registry.active == t.handle
	return info
}

func (t *Tab) attach() (*rod.Page, error) {
	if t.registry.isClosed(t) {
		return nil, fmt.Errorf("%s: %w", t.handle, entity.ErrTabClosed)
	}
	t.attachMu.Lock()
	defer t.attachMu.Unlock()
	if t.page == nil {
		p, err := t.registry.browser.PageFromTarget(t.targetID)
		if err != nil {
			return nil, t.translate(fmt.Errorf("attach %s: %w", t.handle, err))
		}
		t.page = p
	}
	return t.page, nil
}

// do runs fn against the page bound to ctx and the configured timeout.
func (t *Tab) do(ctx context.Context, fn func(p *rod.Page) error) error {
	p, err := t.attach()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, t.registry.cfg.Timeout)
	defer cancel()
	if err := fn(p.Context(ctx)); err != nil {
		return t.translate(err)
	}
	return nil
}

func (t *Tab) translate(err error) error {
	if errors.Is(err, entity.ErrTabClosed) {
		return err
	}
	if t.registry.isClosed(t) {
		return fmt.Errorf("%s: %v: %w", t.handle, err, entity.ErrTabClosed)
	}
	return err
}

func (t *Tab) MainFrameDocumentID(ctx context.Context) (string, error) {
	var id string
	err := t.do(ctx, func(p *rod.Page) error {
		var err error
		id, err = documentID(p)
		return err
	})
	return id, err
}

func documentID(p *rod.Page) (string, error) {
	tree, err := proto.PageGetFrameTree{}.Call(p)
	if err != nil {
		return "", fmt.Errorf("frame tree: %w", err)
	}
	return string(tree.FrameTree.Frame.LoaderID), nil
}

func (t *Tab) ResolveTarget(ctx context.Context, target entity.Target) (entity.Point, error) {
	var pt entity.Point
	err := t.do(ctx, func(p *rod.Page) error {
		var err error
		pt, err = resolvePoint(p, target)
		return err
	})
	return pt, err
}

// resolveElement finds the element behind a node target, checking that the
// page still shows the document the node was observed in.
func resolveElement(p *rod.Page, node *entity.DOMNode) (*rod.Element, error) {
	current, err := documentID(p)
	if err != nil {
		return nil, err
	}
	if current != node.DocumentID {
		return nil, fmt.Errorf("document %s: %w", node.DocumentID, entity.ErrDocumentChanged)
	}
	el, err := p.ElementFromNode(&proto.DOMNode{BackendNodeID: proto.DOMBackendNodeID(node.NodeID)})
	if err != nil {
		return nil, fmt.Errorf("node %d: %v: %w", node.NodeID, err, entity.ErrNodeNotFound)
	}
	return el, nil
}

func resolvePoint(p *rod.Page, target entity.Target) (entity.Point, error) {
	switch {
	case target.Coordinate != nil:
		return *target.Coordinate, nil
	case target.Node == nil:
		return entity.Point{}, fmt.Errorf("empty target: %w", entity.ErrNodeNotFound)
	case target.IsRoot():
		current, err := documentID(p)
		if err != nil {
			return entity.Point{}, err
		}
		if current != target.Node.DocumentID {
			return entity.Point{}, fmt.Errorf("document %s: %w", target.Node.DocumentID, entity.ErrDocumentChanged)
		}
		return viewportCenter(p)
	}

	el, err := resolveElement(p, target.Node)
	if err != nil {
		return entity.Point{}, err
	}
	if err := el.ScrollIntoView(); err != nil {
		return entity.Point{}, fmt.Errorf("scroll node %d into view: %w", target.Node.NodeID, err)
	}
	shape, err := el.Shape()
	if err != nil {
		return entity.Point{}, fmt.Errorf("node %d has no box: %v: %w", target.Node.NodeID, err, entity.ErrNodeNotFound)
	}
	box := shape.Box()
	return entity.Point{X: box.X + box.Width/2, Y: box.Y + box.Height/2}, nil
}

func viewportCenter(p *rod.Page) (entity.Point, error) {
	res, err := p.Eval(`() => ({w: window.innerWidth, h: window.innerHeight})`)
	if err != nil {
		return entity.Point{}, fmt.Errorf("viewport size: %w", err)
	}
	return entity.Point{X: res.Value.Get("w").Num() / 2, Y: res.Value.Get("h").Num() / 2}, nil
}

func mouseButton(button entity.ClickType) proto.InputMouseButton {
	if button == entity.ClickRight {
		return proto.InputMouseButtonRight
	}
	return proto.InputMouseButtonLeft
}

func (t *Tab) Click(ctx context.Context, target entity.Target, button entity.ClickType, count entity.ClickCount) error {
	return t.do(ctx, func(p *rod.Page) error {
		pt, err := resolvePoint(p, target)
		if err != nil {
			return err
		}
		if err := p.Mouse.MoveTo(proto.Point{X: pt.X, Y: pt.Y}); err != nil {
			return fmt.Errorf("move to %s: %w", pt, err)
		}
		if err := p.Mouse.Click(mouseButton(button), int(count)); err != nil {
			return fmt.Errorf("click at %s: %w", pt, err)
		}
		return nil
	})
}

func (t *Tab) MoveMouse(ctx context.Context, target entity.Target) error {
	return t.do(ctx, func(p *rod.Page) error {
		pt, err := resolvePoint(p, target)
		if err != nil {
			return err
		}
		return p.Mouse.MoveTo(proto.Point{X: pt.X, Y: pt.Y})
	})
}

func (t *Tab) DragAndRelease(ctx context.Context, from, to entity.Target) error {
	return t.do(ctx, func(p *rod.Page) error {
		start, err := resolvePoint(p, from)
		if err != nil {
			return err
		}
		end, err := resolvePoint(p, to)
		if err != nil {
			return err
		}
		if err := p.Mouse.MoveTo(proto.Point{X: start.X, Y: start.Y}); err != nil {
			return err
		}
		if err := p.Mouse.Down(proto.InputMouseButtonLeft, 1); err != nil {
			return err
		}
		if err := p.Mouse.MoveLinear(proto.Point{X: end.X, Y: end.Y}, 10); err != nil {
			return err
		}
		return p.Mouse.Up(proto.InputMouseButtonLeft, 1)
	})
}

const caretScript = `(atStart) => {
	this.focus();
	if (typeof this.setSelectionRange !== 'function') return;
	const at = atStart ? 0 : (this.value || '').length;
	this.setSelectionRange(at, at);
}`

func (t *Tab) Type(ctx context.Context, target entity.Target, text string, mode entity.TypeMode, followByEnter bool) error {
	return t.do(ctx, func(p *rod.Page) error {
		if target.Node != nil && !target.IsRoot() {
			el, err := resolveElement(p, target.Node)
			if err != nil {
				return err
			}
			switch mode {
			case entity.TypePrepend, entity.TypeAppend:
				if _, err := el.Eval(caretScript, mode == entity.TypePrepend); err != nil {
					return fmt.Errorf("place caret: %w", err)
				}
			default:
				if err := el.SelectAllText(); err != nil {
					return fmt.Errorf("select existing text: %w", err)
				}
			}
		} else {
			pt, err := resolvePoint(p, target)
			if err != nil {
				return err
			}
			if err := p.Mouse.MoveTo(proto.Point{X: pt.X, Y: pt.Y}); err != nil {
				return err
			}
			if err := p.Mouse.Click(proto.InputMouseButtonLeft, 1); err != nil {
				return err
			}
		}

		if err := p.InsertText(text); err != nil {
			return fmt.Errorf("insert text: %w", err)
		}
		if followByEnter {
			if err := p.Keyboard.Type(input.Enter); err != nil {
				return fmt.Errorf("press enter: %w", err)
			}
		}
		return nil
	})
}

func (t *Tab) Scroll(ctx context.Context, target entity.Target, dx, dy float64) error {
	return t.do(ctx, func(p *rod.Page) error {
		pt, err := resolvePoint(p, target)
		if err != nil {
			return err
		}
		if err := p.Mouse.MoveTo(proto.Point{X: pt.X, Y: pt.Y}); err != nil {
			return err
		}
		return p.Mouse.Scroll(dx, dy, 1)
	})
}

const selectScript = `(value) => {
	const options = Array.from(this.options || []);
	const match = options.find(o => o.value === value || o.text.trim() === value);
	if (!match) return false;
	this.value = match.value;
	this.dispatchEvent(new Event('input', {bubbles: true}));
	this.dispatchEvent(new Event('change', {bubbles: true}));
	return true;
}`

func (t *Tab) Select(ctx context.Context, target entity.Target, value string) error {
	if target.Node == nil {
		return fmt.Errorf("select needs a node target: %w", entity.ErrNodeNotFound)
	}
	return t.do(ctx, func(p *rod.Page) error {
		el, err := resolveElement(p, target.Node)
		if err != nil {
			return err
		}
		res, err := el.Eval(selectScript, value)
		if err != nil {
			return fmt.Errorf("select %q: %w", value, err)
		}
		if !res.Value.Bool() {
			return fmt.Errorf("option %q: %w", value, entity.ErrNoSuchOption)
		}
		return nil
	})
}

func (t *Tab) Navigate(ctx context.Context, url string) error {
	return t.do(ctx, func(p *rod.Page) error {
		if err := p.Navigate(url); err != nil {
			return fmt.Errorf("navigation failed: %w", err)
		}
		return nil
	})
}

func (t *Tab) GoBack(ctx context.Context) error {
	return t.do(ctx, func(p *rod.Page) error {
		history, err := proto.PageGetNavigationHistory{}.Call(p)
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}
		if history.CurrentIndex <= 0 {
			return fmt.Errorf("go back: %w", entity.ErrNoHistoryEntry)
		}
		return p.NavigateBack()
	})
}

func (t *Tab) GoForward(ctx context.Context) error {
	return t.do(ctx, func(p *rod.Page) error {
		history, err := proto.PageGetNavigationHistory{}.Call(p)
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}
		if history.CurrentIndex >= len(history.Entries)-1 {
			return fmt.Errorf("go forward: %w", entity.ErrNoHistoryEntry)
		}
		return p.NavigateForward()
	})
}

// WaitStable waits for the load event and then for the page to go idle,
// bounded by timeout rather than the tab's default.
func (t *Tab) WaitStable(ctx context.Context, timeout time.Duration) error {
	page, err := t.attach()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	p := page.Context(ctx)
	if err := p.WaitLoad(); err != nil {
		return t.translate(fmt.Errorf("wait load: %w", err))
	}
	if err := p.WaitIdle(timeout); err != nil {
		return t.translate(fmt.Errorf("wait idle: %w", err))
	}
	return nil
}

func (t *Tab) Activate(ctx context.Context) error {
	err := t.do(ctx, func(p *rod.Page) error {
		_, err := p.Activate()
		return err
	})
	if err != nil {
		return err
	}
	t.registry.setActive(t.handle)
	return nil
}

func (t *Tab) Close(ctx context.Context) error {
	err := t.do(ctx, func(p *rod.Page) error {
		return p.Close()
	})
	if err != nil {
		return err
	}
	t.registry.drop(t.targetID)
	return nil
}
