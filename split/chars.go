package split

import (
	"unicode/utf8"

	"golang.org/x/net/html"
)

// splitChars 把 target 中的每个字符（码点）放进单独的包装元素，空白字符写回为空格文本节点。
func (s *SplitText) splitChars(target *html.Node) ([]*html.Node, error) {
	h := s.host
	runs := gappedRuns(target)
	if err := h.Clear(target); err != nil {
		return nil, err
	}
	var out []*html.Node
	for _, run := range runs {
		// 每段文本先建好全部包装元素，再按顺序写回
		buf := make([]*html.Node, 0, utf8.RuneCountInString(run))
		for _, r := range run {
			if isSpaceRune(r) {
				buf = append(buf, nil)
				continue
			}
			div, err := s.wrapper(s.opts.CharClass, "position", "relative", "display", "inline-block")
			if err != nil {
				return out, err
			}
			if err := h.SetText(div, string(r)); err != nil {
				return out, err
			}
			buf = append(buf, div)
		}
		for _, div := range buf {
			if div == nil {
				if err := h.AppendText(target, " "); err != nil {
					return out, err
				}
				continue
			}
			if err := h.AppendChild(target, div); err != nil {
				return out, err
			}
			out = append(out, div)
		}
	}
	return out, nil
}

func isSpaceRune(r rune) bool { return r < utf8.RuneSelf && isSpace(byte(r)) }
