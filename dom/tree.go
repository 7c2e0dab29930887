package dom

import (
	"fmt"

	"golang.org/x/net/html"
)

// Measurer reports the rendered content-box height of an element.
type Measurer interface {
	MeasureHeight(n *html.Node) (float64, error)
}

// MeasurerFunc adapts a function to Measurer.
type MeasurerFunc func(n *html.Node) (float64, error)

// MeasureHeight implements Measurer.
func (f MeasurerFunc) MeasureHeight(n *html.Node) (float64, error) { return f(n) }

// Tree exposes the mutation, query and measurement primitives the splitter
// needs, over an html.Node tree and an injected layout measurer.
type Tree struct {
	measurer Measurer
}

// NewTree creates a Tree measuring through m.
func NewTree(m Measurer) *Tree {
	return &Tree{measurer: m}
}

// CreateElement creates a detached element.
func (t *Tree) CreateElement(tag string) *html.Node { return NewElement(tag) }

// SetText replaces the content of n with text.
func (t *Tree) SetText(n *html.Node, text string) error { return SetText(n, text) }

// AppendChild moves child under parent.
func (t *Tree) AppendChild(parent, child *html.Node) error { return Append(parent, child) }

// AppendText appends a raw text node to parent.
func (t *Tree) AppendText(parent *html.Node, text string) error {
	return Append(parent, NewText(text))
}

// Clear removes all children of n.
func (t *Tree) Clear(n *html.Node) error {
	if n.Type != html.ElementNode {
		return fmt.Errorf("clear %q: %w", n.Data, ErrNotElement)
	}
	Clear(n)
	return nil
}

// InnerHTML serializes n's children.
func (t *Tree) InnerHTML(n *html.Node) (string, error) { return InnerHTML(n) }

// SetInnerHTML replaces n's children with parsed markup.
func (t *Tree) SetInnerHTML(n *html.Node, markup string) error { return SetInnerHTML(n, markup) }

// AddClass adds class to n.
func (t *Tree) AddClass(n *html.Node, class string) error {
	if n.Type != html.ElementNode {
		return fmt.Errorf("add class to %q: %w", n.Data, ErrNotElement)
	}
	AddClass(n, class)
	return nil
}

// SetStyle sets one inline style property on n.
func (t *Tree) SetStyle(n *html.Node, prop, value string) error {
	if n.Type != html.ElementNode {
		return fmt.Errorf("set style on %q: %w", n.Data, ErrNotElement)
	}
	SetStyle(n, prop, value)
	return nil
}

// MeasureHeight delegates to the layout measurer.
func (t *Tree) MeasureHeight(n *html.Node) (float64, error) {
	if t.measurer == nil {
		return 0, fmt.Errorf("dom: tree has no measurer")
	}
	return t.measurer.MeasureHeight(n)
}

// QueryAll implements split.Host with the package-level QueryAll.
func (t *Tree) QueryAll(root *html.Node, sel string) ([]*html.Node, error) {
	return QueryAll(root, sel)
}
