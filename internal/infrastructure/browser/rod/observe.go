package rod

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"

	"browser-actor/internal/domain/entity"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

const maxElements = 500

// interactiveSelectors are queried in order; an element matched by an
// earlier group keeps that group's type.
var interactiveSelectors = []struct {
	selector string
	typ      string
}{
	{"button, [role='button'], [data-tooltip], [aria-label]:not([aria-label=''])", "button"},
	{"input, textarea", "input"},
	{"select", "select"},
	{"a", "link"},
}

func (t *Tab) Observe(ctx context.Context, opts entity.ObserveOptions) (*entity.PageContent, error) {
	var content *entity.PageContent
	err := t.do(ctx, func(p *rod.Page) error {
		info, err := p.Info()
		if err != nil {
			return fmt.Errorf("page info: %w", err)
		}
		docID, err := documentID(p)
		if err != nil {
			return err
		}
		content = &entity.PageContent{
			Tab:        t.handle,
			URL:        info.URL,
			Title:      info.Title,
			DocumentID: docID,
		}

		content.Nodes, err = uiElements(p)
		if err != nil {
			return err
		}

		if raw, err := p.HTML(); err == nil {
			content.Text = ExtractText(raw, &TextConfig{
				TagsToSkip: DefaultTextConfig.TagsToSkip,
				MaxLength:  opts.MaxText,
			})
		}

		if opts.Screenshot {
			content.Screenshot, err = screenshot(p)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return content, nil
}

// uiElements lists visible interactive elements keyed by backend node id,
// which stays valid for as long as the document does.
func uiElements(p *rod.Page) ([]entity.UIElement, error) {
	var result []entity.UIElement
	seen := make(map[proto.DOMBackendNodeID]bool)

	add := func(el *rod.Element, typ string) {
		if len(result) >= maxElements {
			return
		}
		visible, err := el.Visible()
		if err != nil || !visible {
			return
		}
		node, err := el.Describe(0, false)
		if err != nil || seen[node.BackendNodeID] {
			return
		}
		seen[node.BackendNodeID] = true

		shape, err := el.Shape()
		if err != nil {
			return
		}
		box := shape.Box()

		text, _ := el.Text()
		aria, _ := el.Attribute("aria-label")
		role, _ := el.Attribute("role")

		result = append(result, entity.UIElement{
			NodeID:    int32(node.BackendNodeID),
			Type:      typ,
			Text:      truncate(strings.Join(strings.Fields(text), " "), 200),
			AriaLabel: ptrToString(aria),
			Role:      ptrToString(role),
			Bounds:    entity.Rect{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height},
		})
	}

	for _, group := range interactiveSelectors {
		elements, err := p.Elements(group.selector)
		if err != nil {
			if p.GetContext().Err() != nil {
				return nil, fmt.Errorf("query %s: %w", group.typ, err)
			}
			continue
		}
		for _, el := range elements {
			add(el, group.typ)
		}
	}
	return result, nil
}

func screenshot(p *rod.Page) (*entity.Screenshot, error) {
	imgBytes, err := p.Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > 1024 {
		img = imaging.Resize(img, 1024, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func ptrToString(s *string) string {
	if s != nil {
		return *s
	}
	return ""
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
