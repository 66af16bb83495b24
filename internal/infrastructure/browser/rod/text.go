package rod

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
)

type TextConfig struct {
	TagsToSkip []string
	// MaxLength caps the output in bytes; zero means unlimited.
	MaxLength int
}

var DefaultTextConfig = TextConfig{
	TagsToSkip: []string{
		"script", "style", "noscript", "svg", "iframe",
		"link", "meta", "head", "title", "template",
	},
	MaxLength: 20000,
}

var blockTags = []string{
	"p", "div", "section", "article", "header", "footer", "nav", "main", "aside",
	"h1", "h2", "h3", "h4", "h5", "h6", "li", "ul", "ol", "tr", "table",
	"form", "br", "hr", "blockquote", "pre", "label", "option",
}

// ExtractText renders the visible text of a page body, one block element
// per line. Unparseable input is returned as is.
func ExtractText(rawHTML string, cfg *TextConfig) string {
	if cfg == nil {
		cfg = &DefaultTextConfig
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return truncateText(rawHTML, cfg.MaxLength)
	}

	root := findBodyNode(doc)
	if root == nil {
		root = doc
	}

	var lines []string
	var line strings.Builder
	flush := func() {
		if s := strings.Join(strings.Fields(line.String()), " "); s != "" {
			lines = append(lines, s)
		}
		line.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.CommentNode:
			return
		case html.TextNode:
			line.WriteString(n.Data)
			line.WriteByte(' ')
			return
		case html.ElementNode:
			if slices.Contains(cfg.TagsToSkip, n.Data) {
				return
			}
			if n.Data == "input" || n.Data == "textarea" {
				if ph := attr(n, "placeholder"); ph != "" {
					line.WriteString("[" + ph + "] ")
				}
			}
		}

		block := n.Type == html.ElementNode && slices.Contains(blockTags, n.Data)
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
	}
	walk(root)
	flush()

	return truncateText(strings.Join(lines, "\n"), cfg.MaxLength)
}

func findBodyNode(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBodyNode(c); b != nil {
			return b
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func truncateText(s string, maxSize int) string {
	if maxSize > 0 && len(s) > maxSize {
		return s[:maxSize] + "\n[text truncated]"
	}
	return s
}
