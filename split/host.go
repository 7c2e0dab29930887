package split

import "golang.org/x/net/html"

// Host 是拆分器对渲染树的全部依赖：创建与插入节点、查询后代、设置样式，
// 以及在一次修改之后读取内容盒高度。dom.Tree 是基于 x/net/html 的实现。
type Host interface {
	CreateElement(tag string) *html.Node
	SetText(n *html.Node, text string) error
	AppendChild(parent, child *html.Node) error
	AppendText(parent *html.Node, text string) error
	Clear(n *html.Node) error
	InnerHTML(n *html.Node) (string, error)
	SetInnerHTML(n *html.Node, markup string) error
	AddClass(n *html.Node, class string) error
	SetStyle(n *html.Node, prop, value string) error
	MeasureHeight(n *html.Node) (float64, error)
	QueryAll(root *html.Node, sel string) ([]*html.Node, error)
}
