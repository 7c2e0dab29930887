package split

import (
	"strings"

	"golang.org/x/net/html"
)

// Piece 是单词阶段的中间结果：一个单词，或一个空格标记。
type Piece struct {
	Text  string
	Space bool
}

// WordPieces 把若干文本按空格切成单词与空格标记。每个文本中，除最后一个以外的
// 词后面都跟着一个空格标记；空白字符先统一成空格，连续空格会产生空单词。
func WordPieces(runs []string) []Piece {
	var out []Piece
	for _, run := range runs {
		toks := strings.Split(normalizeSpace(run), " ")
		for i, tok := range toks {
			out = append(out, Piece{Text: strings.TrimSpace(tok)})
			if i < len(toks)-1 {
				out = append(out, Piece{Space: true})
			}
		}
	}
	return out
}

func normalizeSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if isSpaceRune(r) {
			return ' '
		}
		return r
	}, s)
}

// splitWords 用单词包装元素与空格文本节点重建 target 的内容。
func (s *SplitText) splitWords(target *html.Node) ([]*html.Node, error) {
	h := s.host
	pieces := WordPieces(gappedRuns(target))
	if err := h.Clear(target); err != nil {
		return nil, err
	}
	var out []*html.Node
	for _, p := range pieces {
		switch {
		case p.Space:
			if err := h.AppendText(target, " "); err != nil {
				return out, err
			}
		case p.Text == "":
		default:
			div, err := s.wrapper(s.opts.WordClass, "position", "relative", "display", "inline-block")
			if err != nil {
				return out, err
			}
			if err := h.SetText(div, p.Text); err != nil {
				return out, err
			}
			if err := h.AppendChild(target, div); err != nil {
				return out, err
			}
			out = append(out, div)
		}
	}
	return out, nil
}
