package selector

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	selectorLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Comma", Pattern: `\s*,\s*`},
		{Name: "AttrOp", Pattern: `[~^$*|]?=`},
		{Name: "Combinator", Pattern: `\s*[>+~]\s*`},
		{Name: "Descendant", Pattern: `\s+`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"|'(?:\\.|[^'])*'`},
		{Name: "Number", Pattern: `\d+(?:\.\d+)?`},
		{Name: "Ident", Pattern: `-?[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Punct", Pattern: `[#.*\[\]]`},
	})

	groupParser = participle.MustBuild[Group](
		participle.Lexer(selectorLexer),
	)
)

// Group is a comma separated selector list, the root of a parsed selector.
type Group struct {
	Selectors []*Complex `parser:"@@ ( Comma @@ )*"`
}

// Complex is a chain of compound selectors joined by combinators.
type Complex struct {
	Head *Compound `parser:"@@"`
	Tail []*Step   `parser:"@@*"`
}

// Step pairs a combinator with the compound selector on its right.
type Step struct {
	Combinator Combinator `parser:"@( Combinator | Descendant )"`
	Target     *Compound  `parser:"@@"`
}

// Compound is a type selector followed by any number of filters (eg: div.note#intro).
type Compound struct {
	Tag     string    `parser:"( @Ident | @'*' )?"`
	Filters []*Filter `parser:"@@*"`
}

// Filter is a single #id, .class or [attr] condition.
type Filter struct {
	ID    *string     `parser:"  '#' @Ident"`
	Class *string     `parser:"| '.' @Ident"`
	Attr  *AttrFilter `parser:"| '[' @@ ']'"`
}

// AttrFilter matches an attribute by presence or by value.
type AttrFilter struct {
	Name  string     `parser:"@Ident"`
	Op    string     `parser:"( @AttrOp"`
	Value AttrString `parser:"  @( Ident | String | Number ) )?"`
}

// Combinator captures the relation between two compound selectors.
type Combinator string

const (
	Descendant        Combinator = " "
	Child             Combinator = ">"
	NextSibling       Combinator = "+"
	SubsequentSibling Combinator = "~"
)

// Capture implements participle.Capture, collapsing the surrounding whitespace.
func (c *Combinator) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("combinator capture requires value")
	}
	v := strings.TrimSpace(values[0])
	if v == "" {
		*c = Descendant
		return nil
	}
	*c = Combinator(v)
	return nil
}

// AttrString unquotes attribute values on capture.
type AttrString string

// Capture implements participle.Capture.
func (s *AttrString) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("attribute value capture requires value")
	}
	v := values[0]
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		v = unescape(v[1 : len(v)-1])
	}
	*s = AttrString(v)
	return nil
}

// Compile parses a selector list.
func Compile(input string) (*Group, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, fmt.Errorf("selector is empty")
	}
	g, err := groupParser.ParseString("", trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse selector %q: %w", input, err)
	}
	for _, c := range g.Selectors {
		if c.Head.empty() {
			return nil, fmt.Errorf("parse selector %q: missing compound before combinator", input)
		}
		for _, step := range c.Tail {
			if step.Target.empty() {
				return nil, fmt.Errorf("parse selector %q: missing compound after %q", input, step.Combinator)
			}
		}
	}
	return g, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(input string) *Group {
	g, err := Compile(input)
	if err != nil {
		panic(err)
	}
	return g
}

func (c *Compound) empty() bool {
	return c == nil || (c.Tag == "" && len(c.Filters) == 0)
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
