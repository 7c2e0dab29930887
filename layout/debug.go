package layout

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// debugDoc 在布局结果之外附带每页的计数，方便比对拆分前后的行数。
type debugDoc struct {
	*Result
	Summary []pageSummary `json:"summary"`
}

type pageSummary struct {
	Texts    int `json:"texts"`
	Lines    int `json:"lines"` // 所有文本块折行后的总行数
	Outlines int `json:"outlines"`
}

// EncodeDebug 以缩进 JSON 写出布局结果。
func EncodeDebug(w io.Writer, res *Result) error {
	if res == nil {
		return fmt.Errorf("layout: 没有可输出的布局结果")
	}
	doc := debugDoc{Result: res, Summary: make([]pageSummary, len(res.Pages))}
	for i, p := range res.Pages {
		s := pageSummary{Texts: len(p.Texts), Outlines: len(p.Outlines)}
		for _, tb := range p.Texts {
			s.Lines += len(tb.Lines)
		}
		doc.Summary[i] = s
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteDebugJSON 把 EncodeDebug 的输出写到 path。
func WriteDebugJSON(res *Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeDebug(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
