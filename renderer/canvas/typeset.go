package canvasrenderer

import (
	"math"
	"strings"
	"unicode"

	"github.com/ByLCY/splittext/layout"
)

// LayoutLines 实现 layout.Typesetter。宽度、字号与行高都是 mm。
// 每行高度取字体度量的行高，行距 = max(lineHeight - 字体行高, 0)。
func (r *Renderer) LayoutLines(content string, width float64, font layout.FontResource, fontSize, lineHeight float64, wrap string) ([]layout.TextLine, error) {
	face, err := r.fonts.face(font, fontSize, layout.Color{})
	if err != nil {
		return nil, err
	}
	lines := wrapText(content, width, face.TextWidth, wrap)

	textHeight := face.Metrics().LineHeight
	if textHeight <= 0 {
		textHeight = lineHeight
	}
	gap := math.Max(lineHeight-textHeight, 0)
	if len(lines) == 0 {
		lines = append(lines, layout.TextLine{})
	}
	for i := range lines {
		lines[i].Height = textHeight
		lines[i].GapBefore = gap
	}
	lines[0].GapBefore = 0
	return lines, nil
}

type tokenKind int

const (
	wordToken tokenKind = iota
	spaceToken
	breakToken // 显式换行
)

type token struct {
	text string
	kind tokenKind
}

// tokenize 把内容切成单词、空白与显式换行，'\r' 被丢弃。
func tokenize(s string) []token {
	var (
		out   []token
		start = -1
		kind  tokenKind
	)
	s = strings.ReplaceAll(s, "\r", "")
	for i, r := range s {
		var k tokenKind
		switch {
		case r == '\n':
			k = breakToken
		case unicode.IsSpace(r):
			k = spaceToken
		default:
			k = wordToken
		}
		if start >= 0 && (k != kind || k == breakToken) {
			out = append(out, token{text: s[start:i], kind: kind})
			start = -1
		}
		if start < 0 {
			start, kind = i, k
		}
	}
	if start >= 0 {
		out = append(out, token{text: s[start:], kind: kind})
	}
	return out
}

// lineBuilder 累积当前行，超宽时换行。
type lineBuilder struct {
	limit float64
	width func(string) float64
	lines []layout.TextLine
	buf   strings.Builder
	w     float64
}

// end 结束当前行；blank 为 true 时空行也会输出。
func (b *lineBuilder) end(blank bool) {
	if b.buf.Len() == 0 && !blank {
		return
	}
	text := b.buf.String()
	if trimmed := strings.TrimRightFunc(text, unicode.IsSpace); trimmed != text && trimmed != "" {
		text = trimmed
		b.w = b.width(text)
	}
	b.lines = append(b.lines, layout.TextLine{Content: text, Width: b.w})
	b.buf.Reset()
	b.w = 0
}

func (b *lineBuilder) add(text string, w float64) {
	if b.w > 0 && b.w+w > b.limit {
		b.end(false)
	}
	b.buf.WriteString(text)
	b.w += w
	if b.w > b.limit {
		b.end(false)
	}
}

// wrapText 贪心折行。mode 为 nowrap 时只在显式换行处断开；break-word 时逐字符断开；
// 其余情况优先在空白处断开，过长的单词再按宽度切开。
func wrapText(content string, limit float64, width func(string) float64, mode string) []layout.TextLine {
	if limit <= 0 {
		limit = math.MaxFloat64
	}
	if mode == "nowrap" {
		var lines []layout.TextLine
		for _, p := range strings.Split(strings.ReplaceAll(content, "\r", ""), "\n") {
			lines = append(lines, layout.TextLine{Content: p, Width: width(p)})
		}
		return lines
	}

	b := &lineBuilder{limit: limit, width: width}
	for _, tok := range tokenize(content) {
		switch {
		case tok.kind == breakToken:
			b.end(true)
		case tok.kind == spaceToken:
			// 行首与折行处的空白不占位
			w := width(tok.text)
			if b.buf.Len() == 0 {
				continue
			}
			if b.w+w > b.limit {
				b.end(false)
				continue
			}
			b.add(tok.text, w)
		case mode == "break-word":
			for _, r := range tok.text {
				s := string(r)
				b.add(s, width(s))
			}
		default:
			if w := width(tok.text); w <= limit {
				b.add(tok.text, w)
				continue
			}
			for _, piece := range breakWord(tok.text, limit, width) {
				b.add(piece, width(piece))
			}
		}
	}
	b.end(true)
	return b.lines
}

// breakWord 把超过 limit 的单词切成若干段，每段至少一个字符。
func breakWord(word string, limit float64, width func(string) float64) []string {
	runes := []rune(word)
	var parts []string
	start := 0
	for end := 1; end <= len(runes); end++ {
		if end-start > 1 && width(string(runes[start:end])) > limit {
			parts = append(parts, string(runes[start:end-1]))
			start = end - 1
		}
	}
	return append(parts, string(runes[start:]))
}
