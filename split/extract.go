package split

import (
	"strings"

	"golang.org/x/net/html"
)

// TextRuns 按深度优先、从左到右的顺序返回 n 所有后代文本节点的内容。
// 元素本身不会出现在结果中，只展开其后代；纯空白的文本节点被丢弃。
// 返回的是原始文本，不补间隔空格；单词与字符阶段用的是 gappedRuns。
func TextRuns(n *html.Node) []string { return collectRuns(n, false) }

// gappedRuns 在 TextRuns 的基础上，若两个非空文本之间只隔着空白节点，
// 会在后一个文本前补一个空格，避免 "<b>a</b> <i>b</i>" 拆分后粘连。
func gappedRuns(n *html.Node) []string { return collectRuns(n, true) }

func collectRuns(n *html.Node, gapped bool) []string {
	var runs []string
	gap := false
	walkRuns(n, func(text string, blank bool) {
		if blank {
			gap = gapped && len(runs) > 0
			return
		}
		if gap && !endsWithSpace(runs[len(runs)-1]) && !startsWithSpace(text) {
			text = " " + text
		}
		gap = false
		runs = append(runs, text)
	})
	return runs
}

// walkRuns 遍历所有文本节点，blank 标记纯空白的节点。
func walkRuns(n *html.Node, fn func(text string, blank bool)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			fn(c.Data, strings.TrimSpace(c.Data) == "")
		case html.ElementNode:
			walkRuns(c, fn)
		}
	}
}

func endsWithSpace(s string) bool   { return s != "" && isSpace(s[len(s)-1]) }
func startsWithSpace(s string) bool { return s != "" && isSpace(s[0]) }

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' }
