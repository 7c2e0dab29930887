package canvasrenderer

import (
	"math"
	"reflect"
	"testing"
	"unicode/utf8"

	"github.com/ByLCY/splittext/layout"
)

// runeWidth 每个字符 1mm，用于不依赖字体的折行测试。
func runeWidth(s string) float64 { return float64(utf8.RuneCountInString(s)) }

func contents(lines []layout.TextLine) []string {
	out := make([]string, len(lines))
	for i, ln := range lines {
		out[i] = ln.Content
	}
	return out
}

func TestWrapText(t *testing.T) {
	cases := []struct {
		name    string
		content string
		limit   float64
		mode    string
		want    []string
	}{
		{"fits", "hello world", 20, "", []string{"hello world"}},
		{"wraps at spaces", "The quick fox", 10, "", []string{"The quick", "fox"}},
		{"drops space at break", "aaaa bbbb", 4, "", []string{"aaaa", "bbbb"}},
		{"leading space", "  hi", 10, "", []string{"hi"}},
		{"blank line kept", "foo\n\nbar", 100, "", []string{"foo", "", "bar"}},
		{"equal width then newline", "SAMPLE-A\nSAMPLE-B", 8, "", []string{"SAMPLE-A", "SAMPLE-B"}},
		{"long word broken", "abcdefgh", 3, "", []string{"abc", "def", "gh"}},
		{"break-word", "ab cd", 3, "break-word", []string{"ab", "cd"}},
		{"nowrap", "a long line\r\nnext", 2, "nowrap", []string{"a long line", "next"}},
		{"no limit", "a b c", 0, "", []string{"a b c"}},
	}
	for _, tc := range cases {
		got := contents(wrapText(tc.content, tc.limit, runeWidth, tc.mode))
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestWrapTextWidths(t *testing.T) {
	lines := wrapText("aaaa bbbb cc", 6, runeWidth, "")
	want := []float64{4, 4, 2}
	if len(lines) != len(want) {
		t.Fatalf("unexpected lines %q", contents(lines))
	}
	for i, ln := range lines {
		if ln.Width != want[i] {
			t.Fatalf("line %d width: got %g want %g", i, ln.Width, want[i])
		}
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("a  b\n\nc\r")
	want := []token{
		{"a", wordToken}, {"  ", spaceToken}, {"b", wordToken},
		{"\n", breakToken}, {"\n", breakToken}, {"c", wordToken},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestBreakWord(t *testing.T) {
	got := breakWord("añbcd", 2, runeWidth)
	if !reflect.DeepEqual(got, []string{"añ", "bc", "d"}) {
		t.Fatalf("unexpected pieces %q", got)
	}
	if got := breakWord("x", 0.5, runeWidth); !reflect.DeepEqual(got, []string{"x"}) {
		t.Fatalf("single rune must stay whole, got %q", got)
	}
}

// 用真实字体测量：恰好等宽的一行后跟显式换行，不应多出空行。
func TestLayoutLinesEqualWidthThenNewline(t *testing.T) {
	r := NewRenderer(".")
	font := layout.FontResource{Src: layout.DefaultFontSrc}
	size := 12 * layout.PtToMm

	measured, err := r.LayoutLines("SAMPLE-A", 1e6, font, size, size*1.2, "")
	if err != nil || len(measured) != 1 || measured[0].Width <= 0 {
		t.Fatalf("measure failed: %+v %v", measured, err)
	}
	lines, err := r.LayoutLines("SAMPLE-A\nSAMPLE-B", measured[0].Width, font, size, size*1.2, "")
	if err != nil {
		t.Fatalf("LayoutLines error: %v", err)
	}
	if got := contents(lines); !reflect.DeepEqual(got, []string{"SAMPLE-A", "SAMPLE-B"}) {
		t.Fatalf("unexpected lines %q", got)
	}
}

func TestLayoutLinesLeading(t *testing.T) {
	r := NewRenderer(".")
	font := layout.FontResource{Name: "Body", Src: layout.DefaultFontSrc}
	size := 12 * layout.PtToMm
	lineHeight := size * 1.3

	lines, err := r.LayoutLines("longlonglong longlonglong longlonglong longlonglong", 40, font, size, lineHeight, "")
	if err != nil {
		t.Fatalf("LayoutLines error: %v", err)
	}
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %d lines", len(lines))
	}
	textHeight := lines[0].Height
	if textHeight <= 0 || lines[0].GapBefore != 0 {
		t.Fatalf("bad first line %+v", lines[0])
	}
	gap := math.Max(lineHeight-textHeight, 0)
	for i, ln := range lines[1:] {
		if math.Abs(ln.GapBefore-gap) > 1e-6 || math.Abs(ln.Height-textHeight) > 1e-6 {
			t.Fatalf("line %d: gap=%g height=%g want gap=%g height=%g", i+1, ln.GapBefore, ln.Height, gap, textHeight)
		}
		if ln.Width > 40+1e-6 {
			t.Fatalf("line %d exceeds width: %g", i+1, ln.Width)
		}
	}
}
