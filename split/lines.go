package split

import (
	"strings"

	"golang.org/x/net/html"
)

// DetectSplitPoints 把 inner 按空格逐词写回容器，每次写入后通过 render 读取高度；
// 高度变大说明当前词换到了新的一行，记录该词之前的偏移量。
// render("") 的结果作为基准高度。返回的偏移量单调不减，最后一个等于重建内容的长度。
func DetectSplitPoints(inner string, render func(markup string) (float64, error)) ([]int, error) {
	height, err := render("")
	if err != nil {
		return nil, err
	}
	var (
		acc    strings.Builder
		points []int
	)
	for _, tok := range strings.Split(inner, " ") {
		acc.WriteString(tok)
		acc.WriteByte(' ')
		h, err := render(acc.String())
		if err != nil {
			return nil, err
		}
		if h > height {
			height = h
			points = append(points, acc.Len()-(len(tok)+1))
		}
	}
	return append(points, acc.Len()), nil
}

// SliceLines 以 0 为起点，把相邻的两个偏移量作为一行的 [start, end)，
// 超出 inner 的部分被截断，空切片被跳过。
func SliceLines(inner string, points []int) []string {
	var lines []string
	start := 0
	for _, end := range points {
		s, e := min(start, len(inner)), min(end, len(inner))
		if e > s {
			lines = append(lines, inner[s:e])
		}
		start = end
	}
	return lines
}

// splitLines 检测 target 的行边界，并用行包装元素重建其内容。
func (s *SplitText) splitLines(target *html.Node) ([]*html.Node, error) {
	h := s.host
	inner, err := h.InnerHTML(target)
	if err != nil {
		return nil, err
	}
	points, err := DetectSplitPoints(inner, func(markup string) (float64, error) {
		if err := h.SetInnerHTML(target, markup); err != nil {
			return 0, err
		}
		return h.MeasureHeight(target)
	})
	if err != nil {
		return nil, err
	}
	if err := h.Clear(target); err != nil {
		return nil, err
	}

	var out []*html.Node
	for _, line := range SliceLines(inner, points) {
		// 首个可见词之前只有空白时会切出一段纯空白
		if strings.TrimSpace(line) == "" {
			continue
		}
		div, err := s.wrapper(s.opts.LineClass, "display", "block")
		if err != nil {
			return out, err
		}
		if err := h.SetInnerHTML(div, line); err != nil {
			return out, err
		}
		if err := h.AppendChild(target, div); err != nil {
			return out, err
		}
		out = append(out, div)
	}
	return out, nil
}

// wrapper 创建带 class 与内联样式的 div，styles 为 属性, 值 交替排列。
func (s *SplitText) wrapper(class string, styles ...string) (*html.Node, error) {
	div := s.host.CreateElement("div")
	if err := s.host.AddClass(div, class); err != nil {
		return nil, err
	}
	for i := 0; i+1 < len(styles); i += 2 {
		if err := s.host.SetStyle(div, styles[i], styles[i+1]); err != nil {
			return nil, err
		}
	}
	return div, nil
}
