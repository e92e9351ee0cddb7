package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// DOMContext is a condensed view of a page built for selector suggestion
// prompts: only elements that can plausibly be targeted by a locator, with
// the attributes that make stable selectors, one element per line.
type DOMContext struct {
	Title     string
	Elements  string
	Truncated bool
}

// interactiveTags are element types a locator would plausibly target.
var interactiveTags = map[string]bool{
	"a":        true,
	"button":   true,
	"input":    true,
	"select":   true,
	"textarea": true,
	"label":    true,
	"nav":      true,
	"form":     true,
	"h1":       true,
	"h2":       true,
	"img":      true,
}

// targetingAttrs are attributes worth keeping in suggestion prompts because
// selectors built on them survive DOM drift.
var targetingAttrs = map[string]bool{
	"id":         true,
	"class":      true,
	"role":       true,
	"aria-label": true,
	"name":       true,
	"type":       true,
	"href":       true,
	"alt":        true,
	"placeholder": true,
}

// CondenseHTML reduces raw page HTML to a targeting-relevant element listing
// capped at maxLength bytes. Scripts, styles and non-interactive structure
// are dropped entirely.
func CondenseHTML(rawHTML string, maxLength int) (*DOMContext, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	result := &DOMContext{Title: documentTitle(doc)}

	var builder strings.Builder
	result.Truncated = collectTargets(doc, &builder, maxLength)
	result.Elements = builder.String()
	return result, nil
}

// collectTargets walks the tree appending one line per targetable element.
// Returns true if output was cut short by maxLength.
func collectTargets(n *html.Node, builder *strings.Builder, maxLength int) bool {
	if builder.Len() >= maxLength {
		return true
	}

	if n.Type == html.ElementNode {
		tag := strings.ToLower(n.Data)
		if tag == "script" || tag == "style" || tag == "noscript" || tag == "svg" {
			return false
		}
		if interactiveTags[tag] || hasTargetingAttr(n) {
			line := describeElement(n, tag)
			if builder.Len()+len(line)+1 > maxLength {
				return true
			}
			builder.WriteString(line)
			builder.WriteString("\n")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if collectTargets(c, builder, maxLength) {
			return true
		}
	}
	return false
}

// describeElement renders a single element as a compact pseudo-HTML line.
func describeElement(n *html.Node, tag string) string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(tag)
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if targetingAttrs[key] || strings.HasPrefix(key, "data-") {
			fmt.Fprintf(&b, ` %s="%s"`, key, html.EscapeString(attr.Val))
		}
	}
	b.WriteString(">")
	if text := immediateText(n); text != "" {
		b.WriteString(truncateText(text, 60))
	}
	b.WriteString("</" + tag + ">")
	return b.String()
}

// immediateText returns the trimmed text directly inside the node, without
// descending into nested interactive elements.
func immediateText(n *html.Node) string {
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if t := strings.TrimSpace(c.Data); t != "" {
				parts = append(parts, t)
			}
		case html.ElementNode:
			tag := strings.ToLower(c.Data)
			if tag == "span" || tag == "b" || tag == "i" || tag == "strong" || tag == "em" {
				if t := immediateText(c); t != "" {
					parts = append(parts, t)
				}
			}
		}
	}
	return strings.Join(parts, " ")
}

func hasTargetingAttr(n *html.Node) bool {
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if key == "role" || key == "aria-label" || strings.HasPrefix(key, "data-test") {
			return true
		}
	}
	return false
}

func documentTitle(doc *html.Node) string {
	var title string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
			if title != "" {
				return
			}
		}
	}
	traverse(doc)
	return title
}

func truncateText(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
