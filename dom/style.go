package dom

import (
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"golang.org/x/net/html"
)

// Declaration is one property of an inline style attribute.
type Declaration struct {
	Property string
	Value    string
}

// ParseStyle parses the body of a style attribute ("a: b; c: d").
// Unparseable declarations are skipped, like a browser does.
func ParseStyle(s string) []Declaration {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	p := css.NewParser(parse.NewInputString(s), true)
	var out []Declaration
	for {
		gt, _, data := p.Next()
		if gt == css.ErrorGrammar {
			break
		}
		if gt != css.DeclarationGrammar {
			continue
		}
		value := joinValues(p.Values())
		value = strings.TrimSuffix(strings.TrimSuffix(value, "!important"), "! important")
		value = strings.TrimSpace(value)
		out = append(out, Declaration{
			Property: strings.ToLower(string(data)),
			Value:    value,
		})
	}
	return out
}

// joinValues rebuilds a value from tokens; the parser drops whitespace, so a
// single space is reinserted between tokens outside of function arguments.
func joinValues(tokens []css.Token) string {
	var b strings.Builder
	prev := css.ErrorToken
	for i, tok := range tokens {
		if i > 0 && prev != css.FunctionToken && prev != css.LeftParenthesisToken &&
			tok.TokenType != css.CommaToken && tok.TokenType != css.RightParenthesisToken {
			b.WriteByte(' ')
		}
		b.Write(tok.Data)
		prev = tok.TokenType
	}
	return strings.TrimSpace(b.String())
}

// FormatStyle renders declarations back to attribute form.
func FormatStyle(decls []Declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.Property+": "+d.Value)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "; ") + ";"
}

// Style returns the inline declarations of n.
func Style(n *html.Node) []Declaration {
	v, _ := Attr(n, "style")
	return ParseStyle(v)
}

// StyleValue returns the last inline value of prop on n.
func StyleValue(n *html.Node, prop string) (string, bool) {
	decls := Style(n)
	for i := len(decls) - 1; i >= 0; i-- {
		if decls[i].Property == prop {
			return decls[i].Value, true
		}
	}
	return "", false
}

// SetStyle sets one inline property, keeping the others in order.
func SetStyle(n *html.Node, prop, value string) {
	prop = strings.ToLower(strings.TrimSpace(prop))
	decls := Style(n)
	replaced := false
	for i := range decls {
		if decls[i].Property == prop {
			decls[i].Value = value
			replaced = true
		}
	}
	if !replaced {
		decls = append(decls, Declaration{Property: prop, Value: value})
	}
	SetAttr(n, "style", FormatStyle(decls))
}
