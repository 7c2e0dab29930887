package layout

import (
	"strconv"
	"strings"

	"github.com/mazznoer/csscolorparser"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ByLCY/splittext/dom"
)

// ComputedStyle 是某个元素在继承与内联样式叠加之后的结果，长度单位均为 mm。
type ComputedStyle struct {
	Display    string  `json:"display"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height,omitempty"` // 显式高度，0 表示 auto
	FontSize   float64 `json:"fontSize"`
	LineHeight float64 `json:"lineHeight"`
	Font       string  `json:"font"`
	FontStyle  string  `json:"fontStyle,omitempty"`
	Color      Color   `json:"color"`
	Wrap       string  `json:"wrap,omitempty"`
	Align      string  `json:"align,omitempty"`

	lineHeightSpec LineHeightSpec
	raw            RawUnits
}

var blockTags = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Body: true, atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Fieldset: true, atom.Figcaption: true, atom.Figure: true, atom.Footer: true,
	atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Header: true, atom.Hr: true, atom.Html: true,
	atom.Li: true, atom.Main: true, atom.Nav: true, atom.Ol: true, atom.P: true,
	atom.Pre: true, atom.Section: true, atom.Table: true, atom.Tr: true, atom.Ul: true,
}

var hiddenTags = map[atom.Atom]bool{
	atom.Head: true, atom.Script: true, atom.Style: true, atom.Title: true,
	atom.Template: true, atom.Meta: true, atom.Link: true,
}

// rootStyle 返回根容器的样式（来自 Options）。
func (e *Engine) rootStyle() ComputedStyle {
	o := e.opts
	return ComputedStyle{
		Display:        "block",
		Width:          o.Width,
		FontSize:       o.FontSize,
		LineHeight:     o.LineHeight.Resolve(Length{Value: o.FontSize, Unit: UnitMM}, UnitMM),
		Font:           o.Font,
		Color:          o.Color,
		Wrap:           "anywhere",
		lineHeightSpec: o.LineHeight,
	}
}

// ComputedStyle 从文档根开始逐级叠加，得到 n 的最终样式。
func (e *Engine) ComputedStyle(n *html.Node) ComputedStyle {
	var chain []*html.Node
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			chain = append(chain, p)
		}
	}
	st := e.rootStyle()
	for i := len(chain) - 1; i >= 0; i-- {
		st = e.resolve(chain[i], st)
	}
	return st
}

// resolve 计算子元素样式：字体相关属性继承，其余属性取默认值后被内联样式覆盖。
func (e *Engine) resolve(n *html.Node, parent ComputedStyle) ComputedStyle {
	st := ComputedStyle{
		Display:        defaultDisplay(n),
		Width:          parent.Width,
		FontSize:       parent.FontSize,
		LineHeight:     parent.LineHeight,
		Font:           parent.Font,
		FontStyle:      parent.FontStyle,
		Color:          parent.Color,
		Wrap:           parent.Wrap,
		Align:          parent.Align,
		lineHeightSpec: parent.lineHeightSpec,
	}
	switch n.DataAtom {
	case atom.B, atom.Strong, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		st.FontStyle = mergeFontStyle(st.FontStyle, "bold", "")
	case atom.I, atom.Em:
		st.FontStyle = mergeFontStyle(st.FontStyle, "", "italic")
	}

	decls := dom.Style(n)
	// font-size 先处理，em 与行高都依赖它
	for _, d := range decls {
		if d.Property != "font-size" {
			continue
		}
		if l, ok := ParseLength(d.Value); ok && l.Value > 0 {
			if l.Unit == UnitNone {
				l.Unit = UnitPX
			}
			st.FontSize = l.Resolve(parent.FontSize, parent.FontSize)
			st.raw.FontSize = &RawLengthJSON{Value: l.Value, Unit: l.Unit.String()}
		}
	}
	lineHeightSet := false
	for _, d := range decls {
		switch d.Property {
		case "display":
			switch v := strings.ToLower(d.Value); v {
			case "block", "inline", "inline-block", "none":
				st.Display = v
			case "flex", "grid", "list-item", "table":
				st.Display = "block"
			}
		case "width":
			if l, ok := ParseLength(d.Value); ok && l.Value > 0 {
				st.Width = l.Resolve(st.FontSize, parent.Width)
			}
		case "max-width":
			if l, ok := ParseLength(d.Value); ok && l.Value > 0 {
				if w := l.Resolve(st.FontSize, parent.Width); w < st.Width {
					st.Width = w
				}
			}
		case "height":
			if l, ok := ParseLength(d.Value); ok && l.Value > 0 && l.Unit != UnitPercent {
				st.Height = l.Resolve(st.FontSize, 0)
			}
		case "line-height":
			if spec, ok := ParseLineHeight(d.Value); ok {
				st.lineHeightSpec = spec
				lineHeightSet = true
				st.raw.LineHeight = rawLineHeight(spec)
			}
		case "font-family":
			if name := e.fontFamily(d.Value); name != "" {
				st.Font = name
			}
		case "font-weight":
			v := strings.ToLower(d.Value)
			if w, err := strconv.Atoi(v); (err == nil && w >= 600) || v == "bold" || v == "bolder" {
				st.FontStyle = mergeFontStyle(st.FontStyle, "bold", "")
			} else if v == "normal" || (err == nil && w < 600) {
				st.FontStyle = mergeFontStyle(strings.ReplaceAll(st.FontStyle, "bold", ""), "", "")
			}
		case "font-style":
			switch strings.ToLower(d.Value) {
			case "italic", "oblique":
				st.FontStyle = mergeFontStyle(st.FontStyle, "", "italic")
			case "normal":
				st.FontStyle = mergeFontStyle(strings.ReplaceAll(st.FontStyle, "italic", ""), "", "")
			}
		case "color":
			if c, err := csscolorparser.Parse(d.Value); err == nil {
				r, g, b, _ := c.RGBA255()
				st.Color = Color{R: int(r), G: int(g), B: int(b)}
			}
		case "white-space":
			switch strings.ToLower(d.Value) {
			case "nowrap", "pre":
				st.Wrap = "nowrap"
			case "normal", "pre-wrap", "pre-line":
				st.Wrap = "anywhere"
			}
		case "word-break", "overflow-wrap", "word-wrap":
			switch strings.ToLower(d.Value) {
			case "break-all", "anywhere":
				st.Wrap = "break-word"
			case "normal":
				st.Wrap = "anywhere"
			}
		case "text-align":
			switch v := strings.ToLower(d.Value); v {
			case "left", "start":
				st.Align = "left"
			case "right", "end":
				st.Align = "right"
			case "center":
				st.Align = "center"
			}
		}
	}
	// 倍数行高随字号重新计算；绝对行高在字号变化时保持不变
	if lineHeightSet || st.lineHeightSpec.Kind == LineHeightFactor {
		st.LineHeight = st.lineHeightSpec.Resolve(Length{Value: st.FontSize, Unit: UnitMM}, UnitMM)
	}
	if st.LineHeight <= 0 {
		st.LineHeight = st.FontSize * 1.4
	}
	return st
}

// Font 返回样式对应的字体资源；未知字体名回退到默认字体。
func (e *Engine) Font(st ComputedStyle) FontResource {
	font, ok := e.opts.Fonts[st.Font]
	if !ok {
		font = e.opts.Fonts[e.opts.Font]
	}
	if font.Name == "" {
		font.Name = st.Font
	}
	if st.FontStyle != "" {
		font.Style = st.FontStyle
	}
	return font
}

func (e *Engine) fontFamily(value string) string {
	for _, part := range strings.Split(value, ",") {
		name := strings.Trim(strings.TrimSpace(part), `"'`)
		if _, ok := e.opts.Fonts[name]; ok {
			return name
		}
	}
	return ""
}

func defaultDisplay(n *html.Node) string {
	switch {
	case hiddenTags[n.DataAtom]:
		return "none"
	case blockTags[n.DataAtom]:
		return "block"
	default:
		return "inline"
	}
}

func mergeFontStyle(current, weight, slant string) string {
	bold := strings.Contains(current, "bold") || weight == "bold"
	italic := strings.Contains(current, "italic") || slant == "italic"
	switch {
	case bold && italic:
		return "bold italic"
	case bold:
		return "bold"
	case italic:
		return "italic"
	default:
		return ""
	}
}

func rawLineHeight(spec LineHeightSpec) *RawLineHeightJSON {
	if spec.Kind == LineHeightFactor {
		return &RawLineHeightJSON{Kind: "factor", Factor: spec.Factor}
	}
	return &RawLineHeightJSON{Kind: "absolute", Value: spec.Len.Value, Unit: spec.Len.Unit.String()}
}
