// Package dom holds the helpers that treat a golang.org/x/net/html tree as a
// live render tree: inner markup access, classes, inline styles and queries.
package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ByLCY/splittext/selector"
)

var (
	// ErrNotElement is returned when an element-only operation gets another node type.
	ErrNotElement = errors.New("dom: node is not an element")
	// ErrCycle is returned when appending a node under itself.
	ErrCycle = errors.New("dom: node cannot be appended to its own subtree")
)

// Parse reads a full HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// ParseString is Parse for in-memory markup.
func ParseString(s string) (*html.Node, error) {
	return Parse(strings.NewReader(s))
}

// Render serializes n (and its subtree) to w.
func Render(w io.Writer, n *html.Node) error {
	return html.Render(w, n)
}

// NewElement creates a detached element with a consistent DataAtom.
func NewElement(tag string) *html.Node {
	tag = strings.ToLower(tag)
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

// NewText creates a detached text node.
func NewText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// Append moves child under parent as its last child.
func Append(parent, child *html.Node) error {
	if parent == nil || child == nil {
		return fmt.Errorf("dom: append with nil node")
	}
	if parent.Type != html.ElementNode && parent.Type != html.DocumentNode {
		return fmt.Errorf("append to <%s>: %w", parent.Data, ErrNotElement)
	}
	for p := parent; p != nil; p = p.Parent {
		if p == child {
			return ErrCycle
		}
	}
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	parent.AppendChild(child)
	return nil
}

// Clear detaches every child of n.
func Clear(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

// Children returns a snapshot of n's children.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// InnerHTML serializes the children of n.
func InnerHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("render inner html: %w", err)
		}
	}
	return buf.String(), nil
}

// SetInnerHTML replaces the children of n with the parsed markup, using n as
// the fragment context the way a browser does for innerHTML assignments.
func SetInnerHTML(n *html.Node, markup string) error {
	if n.Type != html.ElementNode {
		return fmt.Errorf("set inner html on %q: %w", n.Data, ErrNotElement)
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), n)
	if err != nil {
		return fmt.Errorf("parse fragment: %w", err)
	}
	Clear(n)
	for _, c := range nodes {
		if c.Parent != nil {
			c.Parent.RemoveChild(c)
		}
		n.AppendChild(c)
	}
	return nil
}

// TextContent concatenates all descendant text.
func TextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// SetText replaces n's content with a single text node.
func SetText(n *html.Node, text string) error {
	switch n.Type {
	case html.TextNode:
		n.Data = text
		return nil
	case html.ElementNode:
		Clear(n)
		n.AppendChild(NewText(text))
		return nil
	}
	return fmt.Errorf("set text on %q: %w", n.Data, ErrNotElement)
}

// Attr returns the value of an unnamespaced attribute.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces an attribute.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// Classes returns the class list of n.
func Classes(n *html.Node) []string {
	v, _ := Attr(n, "class")
	return strings.Fields(v)
}

// HasClass reports whether n carries class.
func HasClass(n *html.Node, class string) bool {
	return slices.Contains(Classes(n), class)
}

// AddClass appends class to n unless already present.
func AddClass(n *html.Node, class string) {
	classes := Classes(n)
	if slices.Contains(classes, class) {
		return
	}
	SetAttr(n, "class", strings.Join(append(classes, class), " "))
}

// compiled 缓存编译后的选择器（string -> *selector.Group）。
var compiled sync.Map

// QueryAll returns descendants of root matching sel in document order.
// Compiled selectors are cached process-wide.
func QueryAll(root *html.Node, sel string) ([]*html.Node, error) {
	if g, ok := compiled.Load(sel); ok {
		return g.(*selector.Group).QueryAll(root), nil
	}
	g, err := selector.Compile(sel)
	if err != nil {
		return nil, err
	}
	compiled.Store(sel, g)
	return g.QueryAll(root), nil
}

// Body returns the <body> element of a parsed document, or doc itself.
func Body(doc *html.Node) *html.Node {
	var find func(*html.Node) *html.Node
	find = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if b := find(c); b != nil {
				return b
			}
		}
		return nil
	}
	if b := find(doc); b != nil {
		return b
	}
	return doc
}
