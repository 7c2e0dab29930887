package pipeline

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/splittext/dom"
	"github.com/ByLCY/splittext/layout"
	"github.com/ByLCY/splittext/split"
)

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

const markup = `<div id="t" style="width: 10mm; font-size: 1mm; line-height: 1">The ${animal} fox</div>`

func TestRunBindsAndSplits(t *testing.T) {
	doc, err := dom.ParseString(markup)
	require.NoError(t, err)

	s, err := Run(context.Background(), Job{
		Root:     doc,
		Selector: "#t",
		Data:     map[string]any{"animal": "quick"},
		Split:    split.DefaultOptions(),
		Layout:   layout.Options{Typesetter: monoTypesetter{}},
	})
	require.NoError(t, err)
	assert.Len(t, s.Lines(), 2)
	assert.Equal(t, []string{"The", "quick", "fox"}, Texts(s.Words()))
	assert.Len(t, s.Chars(), 11)
}

func TestRunErrors(t *testing.T) {
	_, err := Run(context.Background(), Job{Selector: "#t"})
	require.Error(t, err)

	doc, err := dom.ParseString(markup)
	require.NoError(t, err)
	_, err = Run(context.Background(), Job{Root: doc, Selector: "#t"})
	require.Error(t, err, "missing typesetter")

	_, err = Run(context.Background(), Job{
		Root:     doc,
		Selector: ".missing",
		Layout:   layout.Options{Typesetter: monoTypesetter{}},
	})
	require.ErrorIs(t, err, split.ErrTargetNotFound)
}

func TestPreviewOutlinesLines(t *testing.T) {
	doc, err := dom.ParseString(markup)
	require.NoError(t, err)
	lo := layout.Options{Typesetter: monoTypesetter{}}
	s, err := Run(context.Background(), Job{
		Root:     doc,
		Selector: "#t",
		Data:     map[string]any{"animal": "quick"},
		Split:    split.Options{Types: []split.Type{split.Lines}},
		Layout:   lo,
	})
	require.NoError(t, err)

	res, err := Preview(s, lo, "", layout.DocumentMeta{Title: "demo"})
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	assert.Len(t, res.Pages[0].Outlines, 2)
	assert.Equal(t, "demo", res.Meta.Title)

	_, err = Preview(nil, lo, "", layout.DocumentMeta{})
	assert.Error(t, err)
}
