package split

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/ByLCY/splittext/dom"
	"github.com/ByLCY/splittext/layout"
)

// monoTypesetter 每个字符 1mm，按空格贪心折行，行高等于字号。
type monoTypesetter struct{}

func (monoTypesetter) LayoutLines(content string, width float64, _ layout.FontResource, fontSize, _ float64, _ string) ([]layout.TextLine, error) {
	var lines []layout.TextLine
	for _, para := range strings.Split(content, "\n") {
		var cur []string
		w := 0.0
		for _, word := range strings.Fields(para) {
			ww := float64(utf8.RuneCountInString(word))
			if len(cur) > 0 && w+1+ww > width {
				lines = append(lines, layout.TextLine{Content: strings.Join(cur, " "), Width: w, Height: fontSize})
				cur, w = nil, 0
			}
			if len(cur) > 0 {
				w++
			}
			cur = append(cur, word)
			w += ww
		}
		lines = append(lines, layout.TextLine{Content: strings.Join(cur, " "), Width: w, Height: fontSize})
	}
	return lines, nil
}

func newTree(t *testing.T) *dom.Tree {
	t.Helper()
	engine, err := layout.NewEngine(layout.Options{Typesetter: monoTypesetter{}})
	require.NoError(t, err)
	return dom.NewTree(engine)
}

func parse(t *testing.T, markup string) *html.Node {
	t.Helper()
	doc, err := dom.ParseString(markup)
	require.NoError(t, err)
	return doc
}

const narrow = `style="width: 10mm; font-size: 1mm; line-height: 1"`

func texts(nodes []*html.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = dom.TextContent(n)
	}
	return out
}

func normalize(s string) string { return strings.Join(strings.Fields(s), " ") }

func TestScenarioLinesBreakAfterQuick(t *testing.T) {
	doc := parse(t, `<div id="t" `+narrow+`>The quick fox</div>`)
	s, err := Split(context.Background(), newTree(t), doc, "#t", Options{Types: []Type{Lines}})
	require.NoError(t, err)

	assert.Equal(t, []string{"The quick ", "fox"}, texts(s.Lines()))
	assert.Empty(t, s.Words())
	assert.Empty(t, s.Chars())

	target := s.Targets()[0]
	children := dom.Children(target)
	require.Len(t, children, 2)
	for _, c := range children {
		assert.True(t, dom.HasClass(c, DefaultLineClass))
		v, ok := dom.StyleValue(c, "display")
		assert.True(t, ok)
		assert.Equal(t, "block", v)
	}
}

func TestDetectSplitPointsScenario(t *testing.T) {
	tree := newTree(t)
	doc := parse(t, `<div id="t" `+narrow+`></div>`)
	target, err := tree.QueryAll(doc, "#t")
	require.NoError(t, err)

	inner := "The quick fox"
	points, err := DetectSplitPoints(inner, func(markup string) (float64, error) {
		if err := tree.SetInnerHTML(target[0], markup); err != nil {
			return 0, err
		}
		return tree.MeasureHeight(target[0])
	})
	require.NoError(t, err)
	// 第一个词让空容器长高，得到偏移 0；"fox" 换行得到 10；最后是重建内容的长度
	assert.Equal(t, []int{0, 10, 14}, points)
	assert.Equal(t, []string{"The quick ", "fox"}, SliceLines(inner, points))
}

func TestScenarioWords(t *testing.T) {
	doc := parse(t, `<div id="t">Hi there</div>`)
	s, err := Split(context.Background(), newTree(t), doc, "#t", Options{Types: []Type{Words}})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hi", "there"}, texts(s.Words()))
	children := dom.Children(s.Targets()[0])
	require.Len(t, children, 3)
	assert.Equal(t, html.ElementNode, children[0].Type)
	assert.Equal(t, html.TextNode, children[1].Type)
	assert.Equal(t, " ", children[1].Data)
	assert.Equal(t, html.ElementNode, children[2].Type)

	v, _ := dom.Attr(children[0], "style")
	assert.Equal(t, "position: relative; display: inline-block;", v)
	assert.True(t, dom.HasClass(children[2], DefaultWordClass))
}

func TestScenarioCharsOfWord(t *testing.T) {
	doc := parse(t, `<div id="t">Hi</div>`)
	s, err := Split(context.Background(), newTree(t), doc, "#t", Options{Types: []Type{Words, Chars}})
	require.NoError(t, err)

	words := s.Words()
	require.Len(t, words, 1)
	assert.Equal(t, []string{"H", "i"}, texts(s.Chars()))
	children := dom.Children(words[0])
	require.Len(t, children, 2)
	for _, c := range children {
		assert.Equal(t, html.ElementNode, c.Type, "no space node expected")
		assert.True(t, dom.HasClass(c, DefaultCharClass))
	}
}

func TestScenarioTargetNotFound(t *testing.T) {
	doc := parse(t, `<div id="t">Hi</div>`)
	_, err := New(newTree(t), doc, ".missing", DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTargetNotFound)
	assert.Contains(t, err.Error(), "Target not found")
	assert.Contains(t, err.Error(), ".missing")
}

func TestScenarioTextRunsSkipIntoWrappers(t *testing.T) {
	doc := parse(t, `<div id="t"><span class="hella-word">Hi</span> <em>there</em> now</div>`)
	targets, err := dom.QueryAll(doc, "#t")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hi", "there", " now"}, TextRuns(targets[0]))
}

func TestTextRunsDropsWhitespaceOnly(t *testing.T) {
	doc := parse(t, "<div id=\"t\">\n  <p>one</p>\n  <p> </p>\n</div>")
	targets, _ := dom.QueryAll(doc, "#t")
	assert.Equal(t, []string{"one"}, TextRuns(targets[0]))
}

func TestGappedRunsBuildOnTextRuns(t *testing.T) {
	doc := parse(t, `<div id="t"><b>a</b> <i>b</i><u> c</u></div>`)
	targets, _ := dom.QueryAll(doc, "#t")
	assert.Equal(t, []string{"a", "b", " c"}, TextRuns(targets[0]))
	assert.Equal(t, []string{"a", " b", " c"}, gappedRuns(targets[0]))
}

func TestWordPieces(t *testing.T) {
	got := WordPieces([]string{" Hi  there", "again"})
	want := []Piece{
		{Text: ""}, {Space: true},
		{Text: "Hi"}, {Space: true},
		{Text: ""}, {Space: true},
		{Text: "there"},
		{Text: "again"},
	}
	assert.Equal(t, want, got)
}

func TestWordsKeepSpaceBetweenInlineElements(t *testing.T) {
	doc := parse(t, `<div id="t"><b>Hello</b> <i>world</i></div>`)
	s, err := Split(context.Background(), newTree(t), doc, "#t", Options{Types: []Type{Words}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", "world"}, texts(s.Words()))
	assert.Equal(t, "Hello world", dom.TextContent(s.Targets()[0]))
}

func TestAllTypesComposition(t *testing.T) {
	doc := parse(t, `<div id="t" `+narrow+`>The quick fox</div>`)
	s, err := Split(context.Background(), newTree(t), doc, "#t", DefaultOptions())
	require.NoError(t, err)

	lines := s.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"The", "quick", "fox"}, texts(s.Words()))
	assert.Equal(t, strings.Split("Thequickfox", ""), texts(s.Chars()))

	// 单词位于行内，字符位于单词内
	for _, w := range s.Words() {
		assert.True(t, dom.HasClass(w.Parent, DefaultLineClass))
	}
	for _, c := range s.Chars() {
		assert.True(t, dom.HasClass(c.Parent, DefaultWordClass))
	}
	assert.Equal(t, "The quick fox", normalize(dom.TextContent(s.Targets()[0])))
}

func TestCharsOnLinesWithoutWords(t *testing.T) {
	doc := parse(t, `<div id="t" `+narrow+`>The quick fox</div>`)
	s, err := Split(context.Background(), newTree(t), doc, "#t", Options{Types: []Type{Chars, Lines}})
	require.NoError(t, err)

	require.Len(t, s.Lines(), 2)
	assert.Len(t, s.Chars(), 11)
	for _, c := range s.Chars() {
		assert.True(t, dom.HasClass(c.Parent, DefaultLineClass))
	}
	// 第一行的尾随空格写回为文本节点
	first := dom.Children(s.Lines()[0])
	last := first[len(first)-1]
	assert.Equal(t, html.TextNode, last.Type)
	assert.Equal(t, " ", last.Data)
}

func TestCharsOnTarget(t *testing.T) {
	doc := parse(t, `<div id="t">añ b</div>`)
	s, err := Split(context.Background(), newTree(t), doc, "#t", Options{Types: []Type{Chars}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "ñ", "b"}, texts(s.Chars()))
	children := dom.Children(s.Targets()[0])
	require.Len(t, children, 4)
	assert.Equal(t, " ", children[2].Data)
}

func TestInvariants(t *testing.T) {
	inputs := []string{
		"The quick brown fox jumps over the lazy dog",
		"  leading and   multiple   spaces ",
		"line\nbreaks\tand tabs",
		"héllo wörld ünïcode",
		"<b>bold</b> and <i>italic words</i> mixed",
		"single",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			doc := parse(t, `<div id="t" style="width: 12mm; font-size: 1mm; line-height: 1">`+in+`</div>`)
			target, _ := dom.QueryAll(doc, "#t")
			visible := normalize(dom.TextContent(target[0]))

			s, err := Split(context.Background(), newTree(t), doc, "#t", DefaultOptions())
			require.NoError(t, err)

			// 行是块级元素，行与行之间视觉上天然分隔
			var lines []string
			for _, l := range s.Lines() {
				lines = append(lines, normalize(dom.TextContent(l)))
			}
			assert.Equal(t, visible, normalize(strings.Join(lines, " ")), "visible text")
			assert.Len(t, s.Words(), len(strings.Fields(visible)), "word count")
			assert.Equal(t, strings.Fields(visible), texts(s.Words()))

			total := 0
			for _, w := range s.Words() {
				var chars []string
				for _, c := range dom.Children(w) {
					if c.Type == html.ElementNode {
						chars = append(chars, dom.TextContent(c))
					}
				}
				assert.Equal(t, utf8.RuneCountInString(dom.TextContent(w)), len(chars))
				assert.Equal(t, dom.TextContent(w), strings.Join(chars, ""))
				total += len(chars)
			}
			assert.Len(t, s.Chars(), total)
			for _, c := range s.Chars() {
				assert.NotEqual(t, "", strings.TrimSpace(dom.TextContent(c)), "whitespace wrapped")
			}
		})
	}
}

func TestSplitPointsProperties(t *testing.T) {
	render := func(markup string) (float64, error) {
		// 每 7 字节算一行
		n := len(strings.TrimSpace(markup))
		return float64((n + 6) / 7), nil
	}
	for _, inner := range []string{"", "a", "aaaaaaaaaaaa b", "one two  three four", "héllo wörld ünï"} {
		points, err := DetectSplitPoints(inner, render)
		require.NoError(t, err)
		require.NotEmpty(t, points)
		for i := 1; i < len(points); i++ {
			assert.LessOrEqual(t, points[i-1], points[i], "non-decreasing")
		}
		assert.Equal(t, len(inner)+1, points[len(points)-1], "final point")

		lines := SliceLines(inner, points)
		assert.Equal(t, inner, strings.Join(lines, ""))
		for _, l := range lines {
			assert.NotEmpty(t, l)
			assert.True(t, utf8.ValidString(l))
		}
	}
}

func TestLeadingWhitespaceDoesNotMakeALine(t *testing.T) {
	doc := parse(t, `<div id="t" `+narrow+`>  The quick fox</div>`)
	s, err := Split(context.Background(), newTree(t), doc, "#t", Options{Types: []Type{Lines}})
	require.NoError(t, err)
	assert.Equal(t, []string{"The quick ", "fox"}, texts(s.Lines()))
}

func TestSingleLineWhenNothingOverflows(t *testing.T) {
	doc := parse(t, `<div id="t" style="width: 100mm; font-size: 1mm; line-height: 1">no overflow here</div>`)
	s, err := Split(context.Background(), newTree(t), doc, "#t", Options{Types: []Type{Lines}})
	require.NoError(t, err)
	assert.Equal(t, []string{"no overflow here"}, texts(s.Lines()))
}

func TestMultipleTargetsInOrder(t *testing.T) {
	doc := parse(t, `<p class="t">one two</p><p class="t">three</p>`)
	s, err := Split(context.Background(), newTree(t), doc, ".t", Options{Types: []Type{Words, Chars}})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, texts(s.Words()))
	assert.Equal(t, strings.Split("onetwothree", ""), texts(s.Chars()))
}

func TestCustomClasses(t *testing.T) {
	doc := parse(t, `<div id="t" `+narrow+`>The quick fox</div>`)
	opts := Options{LineClass: "ln", WordClass: "wd", CharClass: "ch"}
	s, err := Split(context.Background(), newTree(t), doc, "#t", opts)
	require.NoError(t, err)
	assert.Len(t, s.Lines(), 2)
	for _, w := range s.Words() {
		assert.True(t, dom.HasClass(w, "wd"))
		assert.True(t, dom.HasClass(w.Parent, "ln"))
	}
	for _, c := range s.Chars() {
		assert.True(t, dom.HasClass(c, "ch"))
	}
}

func TestWordsReuseExistingLineWrappers(t *testing.T) {
	doc := parse(t, `<div id="t"><div class="hella-line">a b</div><div class="hella-line">c</div></div>`)
	s, err := Split(context.Background(), newTree(t), doc, "#t", Options{Types: []Type{Words}})
	require.NoError(t, err)
	require.Len(t, s.Words(), 3)
	for _, w := range s.Words() {
		assert.True(t, dom.HasClass(w.Parent, DefaultLineClass))
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	doc := parse(t, `<div id="t">a b</div>`)
	s, err := Split(context.Background(), newTree(t), doc, "#t", Options{Types: []Type{Words}})
	require.NoError(t, err)
	w := s.Words()
	w[0] = nil
	assert.NotNil(t, s.Words()[0])
}

// failingTree 让高度测量失败，用来验证阶段错误。
type failingTree struct {
	*dom.Tree
	err error
}

func (f failingTree) MeasureHeight(*html.Node) (float64, error) { return 0, f.err }

func TestStageError(t *testing.T) {
	doc := parse(t, `<p class="t">one</p><p class="t">two</p>`)
	boom := errors.New("node detached")
	s, err := Split(context.Background(), failingTree{Tree: newTree(t), err: boom}, doc, ".t", DefaultOptions())
	require.Error(t, err)
	require.NotNil(t, s)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, Lines, se.Stage)
	assert.Equal(t, 0, se.Target)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "node detached")
	// 每个目标各自失败，两者都被报告
	assert.Contains(t, err.Error(), "target 1")
}

// queryFailTree 在第 after 次之后的 QueryAll 调用上失败。
type queryFailTree struct {
	*dom.Tree
	after int
	calls int
	err   error
}

func (q *queryFailTree) QueryAll(root *html.Node, sel string) ([]*html.Node, error) {
	q.calls++
	if q.calls > q.after {
		return nil, q.err
	}
	return q.Tree.QueryAll(root, sel)
}

func TestStageErrorKeepsEarlierWrappers(t *testing.T) {
	doc := parse(t, `<div id="t" `+narrow+`>The quick fox</div>`)
	boom := errors.New("query failed")
	// 第一次调用用于定位目标，第二次是单词阶段查找行包装元素
	host := &queryFailTree{Tree: newTree(t), after: 1, err: boom}
	s, err := Split(context.Background(), host, doc, "#t", DefaultOptions())
	require.Error(t, err)
	require.NotNil(t, s)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, Words, se.Stage)
	assert.ErrorIs(t, err, boom)

	target := s.Targets()[0]
	lines := s.Lines()
	require.Len(t, lines, 2)
	for _, ln := range lines {
		assert.Same(t, target, ln.Parent)
		assert.True(t, dom.HasClass(ln, DefaultLineClass))
	}
	assert.Empty(t, s.Words())
	assert.Empty(t, s.Chars())
	assert.Equal(t, "The quick fox", normalize(dom.TextContent(target)))
}

func TestRunCancelled(t *testing.T) {
	doc := parse(t, `<div id="t">Hi there</div>`)
	s, err := New(newTree(t), doc, "#t", DefaultOptions())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, s.Lines())
	assert.Equal(t, "Hi there", dom.TextContent(s.Targets()[0]))
}

func TestNewRejectsInvalidInput(t *testing.T) {
	doc := parse(t, `<div id="t">x</div>`)
	_, err := New(nil, doc, "#t", DefaultOptions())
	assert.Error(t, err)

	_, err = New(newTree(t), doc, "#t", Options{Types: []Type{"paragraphs"}})
	assert.Error(t, err)

	_, err = New(newTree(t), doc, "div >", DefaultOptions())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTargetNotFound)

	for _, opts := range []Options{{LineClass: "1ln"}, {WordClass: "a b"}, {CharClass: "c["}} {
		_, err = New(newTree(t), doc, "#t", opts)
		assert.Error(t, err, "%+v", opts)
	}
	// 拒绝发生在改动文档之前
	_, err = Split(context.Background(), newTree(t), doc, "#t", Options{LineClass: "1ln"})
	require.Error(t, err)
	var se *StageError
	assert.False(t, errors.As(err, &se))
	target, _ := dom.QueryAll(doc, "#t")
	inner, _ := dom.InnerHTML(target[0])
	assert.Equal(t, "x", inner)
}

func TestParseTypes(t *testing.T) {
	got, err := ParseTypes("chars, Words,chars")
	require.NoError(t, err)
	assert.Equal(t, []Type{Chars, Words}, got)

	got, err = ParseTypes("")
	require.NoError(t, err)
	assert.Equal(t, AllTypes(), got)

	_, err = ParseTypes("lines,sentences")
	assert.Error(t, err)
}

func TestPlan(t *testing.T) {
	cases := []struct {
		types        []Type
		lines, words int
		want         []Step
	}{
		{[]Type{Lines}, 0, 0, []Step{{Lines, OnTarget}}},
		{[]Type{Words}, 0, 0, []Step{{Words, OnTarget}}},
		{[]Type{Words}, 2, 0, []Step{{Words, OnLines}}},
		{[]Type{Chars}, 0, 0, []Step{{Chars, OnTarget}}},
		{[]Type{Chars, Lines}, 3, 0, []Step{{Lines, OnTarget}, {Chars, OnLines}}},
		{[]Type{Chars, Words, Lines}, 2, 5, []Step{{Lines, OnTarget}, {Words, OnLines}, {Chars, OnWords}}},
		{[]Type{Words, Chars}, 0, 4, []Step{{Words, OnTarget}, {Chars, OnWords}}},
		{[]Type{Words, Chars}, 0, 0, []Step{{Words, OnTarget}, {Chars, OnTarget}}},
		{nil, 0, 0, nil},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.types, tc.lines, tc.words), func(t *testing.T) {
			assert.Equal(t, tc.want, Plan(tc.types, tc.lines, tc.words))
		})
	}
}
