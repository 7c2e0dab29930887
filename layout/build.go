package layout

import (
	"fmt"

	"golang.org/x/net/html"
)

// Build 把拆分后的目标元素依次排到页面上，用于预览渲染与调试 JSON。
// 每个块级元素的行内内容生成一个 TextBox，带有 Highlight class 的块会被描边。
func Build(targets []*html.Node, opts BuildOptions) (*Result, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("没有可布局的目标元素")
	}
	width := opts.PageWidth
	height := opts.PageHeight
	if width <= 0 || height <= 0 {
		width, height = a4Width, a4Height
	}
	margin := opts.Margin
	if margin == (Margin{}) {
		margin = Margin{Top: defaultMargin, Right: defaultMargin, Bottom: defaultMargin, Left: defaultMargin}
	}
	if opts.Width <= 0 {
		opts.Width = width - margin.Left - margin.Right
	}

	e, err := NewEngine(opts.Options)
	if err != nil {
		return nil, err
	}
	pc := newPageCollector(width, height, margin)
	f := &flow{
		e:         e,
		y:         pc.contentTop(),
		pages:     pc,
		highlight: opts.Highlight,
		debug:     opts.Debug,
	}
	for i, target := range targets {
		if target == nil || target.Type != html.ElementNode {
			return nil, fmt.Errorf("第 %d 个目标不是元素节点", i)
		}
		if i > 0 {
			f.y += blockSpacing
		}
		if err := f.block(target, e.ComputedStyle(target), margin.Left); err != nil {
			return nil, fmt.Errorf("布局第 %d 个目标失败: %w", i, err)
		}
	}

	return &Result{
		Pages:     pc.pages(),
		Resources: ResourceSet{Fonts: e.opts.Fonts},
		Meta:      opts.Meta,
	}, nil
}

type pageCollector struct {
	width  float64
	height float64
	margin Margin
	all    []*Page
}

func newPageCollector(width, height float64, margin Margin) *pageCollector {
	pc := &pageCollector{width: width, height: height, margin: margin}
	pc.newPage()
	return pc
}

func (pc *pageCollector) newPage() *Page {
	p := &Page{Width: pc.width, Height: pc.height, Margin: pc.margin}
	pc.all = append(pc.all, p)
	return p
}

func (pc *pageCollector) curr() *Page {
	return pc.all[len(pc.all)-1]
}

func (pc *pageCollector) contentTop() float64 {
	return pc.margin.Top
}

func (pc *pageCollector) contentBottom() float64 {
	return pc.height - pc.margin.Bottom
}

func (pc *pageCollector) pages() []Page {
	out := make([]Page, 0, len(pc.all))
	for _, p := range pc.all {
		out = append(out, *p)
	}
	return out
}
