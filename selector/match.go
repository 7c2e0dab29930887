package selector

import (
	"strings"

	"golang.org/x/net/html"
)

// Match reports whether n matches any selector of the group.
func (g *Group) Match(n *html.Node) bool {
	if g == nil || n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, c := range g.Selectors {
		if c.match(n) {
			return true
		}
	}
	return false
}

// QueryAll returns the descendants of root matching g, in document order.
// root itself is never part of the result.
func (g *Group) QueryAll(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if g.Match(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// String renders the group back to selector syntax.
func (g *Group) String() string {
	parts := make([]string, 0, len(g.Selectors))
	for _, c := range g.Selectors {
		var b strings.Builder
		c.Head.write(&b)
		for _, step := range c.Tail {
			if step.Combinator == Descendant {
				b.WriteByte(' ')
			} else {
				b.WriteString(" " + string(step.Combinator) + " ")
			}
			step.Target.write(&b)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, ", ")
}

// match walks the chain right to left.
func (c *Complex) match(n *html.Node) bool {
	compounds := make([]*Compound, 0, len(c.Tail)+1)
	combinators := make([]Combinator, 0, len(c.Tail))
	compounds = append(compounds, c.Head)
	for _, step := range c.Tail {
		compounds = append(compounds, step.Target)
		combinators = append(combinators, step.Combinator)
	}
	return matchAt(compounds, combinators, len(compounds)-1, n)
}

func matchAt(compounds []*Compound, combinators []Combinator, i int, n *html.Node) bool {
	if !compounds[i].match(n) {
		return false
	}
	if i == 0 {
		return true
	}
	switch combinators[i-1] {
	case Child:
		p := n.Parent
		return p != nil && p.Type == html.ElementNode && matchAt(compounds, combinators, i-1, p)
	case NextSibling:
		prev := previousElement(n)
		return prev != nil && matchAt(compounds, combinators, i-1, prev)
	case SubsequentSibling:
		for prev := previousElement(n); prev != nil; prev = previousElement(prev) {
			if matchAt(compounds, combinators, i-1, prev) {
				return true
			}
		}
		return false
	default:
		for p := n.Parent; p != nil && p.Type == html.ElementNode; p = p.Parent {
			if matchAt(compounds, combinators, i-1, p) {
				return true
			}
		}
		return false
	}
}

func (c *Compound) match(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if c.Tag != "" && c.Tag != "*" && !strings.EqualFold(c.Tag, n.Data) {
		return false
	}
	for _, f := range c.Filters {
		if !f.match(n) {
			return false
		}
	}
	return true
}

func (f *Filter) match(n *html.Node) bool {
	switch {
	case f.ID != nil:
		v, ok := attr(n, "id")
		return ok && v == *f.ID
	case f.Class != nil:
		v, _ := attr(n, "class")
		for _, cls := range strings.Fields(v) {
			if cls == *f.Class {
				return true
			}
		}
		return false
	case f.Attr != nil:
		return f.Attr.match(n)
	}
	return false
}

func (a *AttrFilter) match(n *html.Node) bool {
	v, ok := attr(n, a.Name)
	if !ok {
		return false
	}
	want := string(a.Value)
	switch a.Op {
	case "":
		return true
	case "=":
		return v == want
	case "~=":
		for _, field := range strings.Fields(v) {
			if field == want {
				return true
			}
		}
		return false
	case "^=":
		return want != "" && strings.HasPrefix(v, want)
	case "$=":
		return want != "" && strings.HasSuffix(v, want)
	case "*=":
		return want != "" && strings.Contains(v, want)
	case "|=":
		return v == want || strings.HasPrefix(v, want+"-")
	}
	return false
}

func (c *Compound) write(b *strings.Builder) {
	b.WriteString(c.Tag)
	for _, f := range c.Filters {
		switch {
		case f.ID != nil:
			b.WriteString("#" + *f.ID)
		case f.Class != nil:
			b.WriteString("." + *f.Class)
		case f.Attr != nil:
			b.WriteString("[" + f.Attr.Name)
			if f.Attr.Op != "" {
				b.WriteString(f.Attr.Op + `"` + string(f.Attr.Value) + `"`)
			}
			b.WriteString("]")
		}
	}
}

func previousElement(n *html.Node) *html.Node {
	for p := n.PrevSibling; p != nil; p = p.PrevSibling {
		if p.Type == html.ElementNode {
			return p
		}
	}
	return nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}
