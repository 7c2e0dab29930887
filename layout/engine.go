package layout

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ByLCY/splittext/dom"
)

var outlineColor = Color{R: 15, G: 98, B: 254}

const (
	blockSpacing = 3.0
	outlineWidth = 0.2
	// forcedBreak 在收集行内文本时代表 <br>，折叠空白后再换成 '\n'
	forcedBreak = '\u2028'
)

// Engine 是一个只做块级堆叠与行内贪心折行的最小布局引擎。
// 它对外只提供“内容盒高度”，折行本身交给 Typesetter。
type Engine struct {
	ts   Typesetter
	opts Options
}

// NewEngine 创建布局引擎，Typesetter 不能为空。
func NewEngine(opts Options) (*Engine, error) {
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("layout: 缺少排版后端 Typesetter")
	}
	return &Engine{ts: opts.Typesetter, opts: opts.withDefaults()}, nil
}

// MeasureHeight 返回元素内容盒的渲染高度（mm）。
func (e *Engine) MeasureHeight(n *html.Node) (float64, error) {
	if n == nil || n.Type != html.ElementNode {
		return 0, fmt.Errorf("layout: 只能测量元素节点")
	}
	f := &flow{e: e}
	if err := f.block(n, e.ComputedStyle(n), 0); err != nil {
		return 0, err
	}
	return f.y, nil
}

// flow 记录布局游标；pages 为空时只做测量。
type flow struct {
	e         *Engine
	y         float64
	pages     *pageCollector
	highlight []string
	debug     DebugOptions
}

func (f *flow) block(n *html.Node, st ComputedStyle, x float64) error {
	start := f.y
	startPage := f.pageCount()

	var inline strings.Builder
	flush := func() error {
		content := collapseWhitespace(inline.String())
		inline.Reset()
		if strings.TrimSpace(content) == "" {
			return nil
		}
		return f.text(n, content, st, x)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			inline.WriteString(c.Data)
		case html.ElementNode:
			cs := f.e.resolve(c, st)
			switch cs.Display {
			case "none":
			case "block":
				if err := flush(); err != nil {
					return err
				}
				if err := f.block(c, cs, x); err != nil {
					return err
				}
			default:
				f.e.inlineText(c, st, &inline)
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	if st.Height > 0 && f.pageCount() == startPage {
		f.y = start + st.Height
	}
	f.outline(n, st, x, start, startPage)
	return nil
}

// text 对一段行内内容折行，累加高度；分页模式下同时生成 TextBox。
func (f *flow) text(n *html.Node, content string, st ComputedStyle, x float64) error {
	font := f.e.Font(st)
	lines, err := layoutLines(content, st.Width, font, st.FontSize, st.LineHeight, f.e.ts, st.Wrap)
	if err != nil {
		return err
	}
	height := 0.0
	defaultLeading := math.Max(st.LineHeight-st.FontSize, 0)
	for i := range lines {
		if lines[i].Height <= 0 {
			lines[i].Height = st.FontSize
		}
		if i == 0 {
			lines[i].GapBefore = 0
		} else if lines[i].GapBefore <= 0 {
			lines[i].GapBefore = defaultLeading
		}
		height += lines[i].GapBefore + lines[i].Height
	}
	if f.pages == nil {
		f.y += height
		return nil
	}

	f.ensureSpace(height)
	tb := TextBox{
		Content:    content,
		X:          x,
		Y:          f.y,
		Width:      st.Width,
		LineHeight: st.LineHeight,
		Font:       font.Name,
		FontSize:   st.FontSize,
		FontStyle:  st.FontStyle,
		Color:      st.Color,
		Lines:      lines,
		Height:     height,
		Align:      st.Align,
		Wrap:       st.Wrap,
		Classes:    dom.Classes(n),
	}
	if f.debug.RawUnits && (st.raw.FontSize != nil || st.raw.LineHeight != nil) {
		raw := st.raw
		tb.Debug = &TextBoxDebug{RawUnits: &raw}
	}
	f.pages.curr().Texts = append(f.pages.curr().Texts, tb)
	f.y += height
	return nil
}

// outline 为带有高亮 class 的块画出边框，跨页的块不描边。
func (f *flow) outline(n *html.Node, st ComputedStyle, x, start float64, startPage int) {
	if f.pages == nil || f.pageCount() != startPage || f.y <= start {
		return
	}
	i := slices.IndexFunc(f.highlight, func(c string) bool { return dom.HasClass(n, c) })
	if i < 0 {
		return
	}
	page := f.pages.curr()
	page.Outlines = append(page.Outlines, Outline{
		X:           x,
		Y:           start,
		Width:       st.Width,
		Height:      f.y - start,
		Class:       f.highlight[i],
		Color:       outlineColor,
		StrokeWidth: outlineWidth,
	})
}

func (f *flow) pageCount() int {
	if f.pages == nil {
		return 0
	}
	return len(f.pages.all)
}

func (f *flow) ensureSpace(height float64) {
	if f.pages == nil {
		return
	}
	if f.y+height > f.pages.contentBottom() && f.y > f.pages.contentTop() {
		f.pages.newPage()
		f.y = f.pages.contentTop()
	}
}

// inlineText 收集行内元素（含 inline-block 包装元素）的文本。
func (e *Engine) inlineText(n *html.Node, parent ComputedStyle, b *strings.Builder) {
	if n.DataAtom == atom.Br {
		b.WriteRune(forcedBreak)
		return
	}
	st := e.resolve(n, parent)
	if st.Display == "none" {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			b.WriteString(c.Data)
		case html.ElementNode:
			e.inlineText(c, st, b)
		}
	}
}

// collapseWhitespace 按 CSS white-space: normal 折叠空白，<br> 变为显式换行。
func collapseWhitespace(s string) string {
	parts := strings.Split(s, string(forcedBreak))
	for i, p := range parts {
		parts[i] = strings.Join(strings.Fields(p), " ")
	}
	return strings.Join(parts, "\n")
}

func layoutLines(content string, width float64, font FontResource, fontSize, lineHeight float64, ts Typesetter, wrap string) ([]TextLine, error) {
	lines, err := ts.LayoutLines(content, width, font, fontSize, lineHeight, wrap)
	if err != nil {
		return nil, fmt.Errorf("排版失败: %w", err)
	}
	if len(lines) == 0 {
		height := fontSize
		if height <= 0 {
			height = lineHeight
		}
		lines = []TextLine{{Content: "", Width: width, Height: height}}
	}
	lines[0].GapBefore = 0
	return lines, nil
}
