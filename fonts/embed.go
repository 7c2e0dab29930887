package fonts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-fonts/latin-modern/lmmono10regular"
	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10bolditalic"
	"github.com/go-fonts/latin-modern/lmroman10italic"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/go-fonts/latin-modern/lmsans10regular"
)

// 内置字体表，键为 "embed:" 之后的名字。
var builtin = map[string][]byte{
	"lmroman10-regular":    lmroman10regular.TTF,
	"lmroman10-bold":       lmroman10bold.TTF,
	"lmroman10-italic":     lmroman10italic.TTF,
	"lmroman10-bolditalic": lmroman10bolditalic.TTF,
	"lmsans10-regular":     lmsans10regular.TTF,
	"lmmono10-regular":     lmmono10regular.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:lmroman10-regular" 或 "lmroman10-regular"。
func Load(name string) ([]byte, error) {
	key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "embed:")))
	key = strings.TrimSuffix(key, ".ttf")
	data, ok := builtin[key]
	if !ok {
		return nil, fmt.Errorf("未知的内置字体 %s（可用: %s）", name, strings.Join(Names(), ", "))
	}
	return data, nil
}

// Names 列出所有内置字体名。
func Names() []string {
	names := make([]string, 0, len(builtin))
	for k := range builtin {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Variant 根据粗细与斜体返回同一字族的内置字体名，找不到时返回原名。
func Variant(name, style string) string {
	key := strings.TrimPrefix(name, "embed:")
	family, _, ok := strings.Cut(key, "-")
	if !ok {
		return name
	}
	suffix := "regular"
	bold := strings.Contains(style, "bold")
	italic := strings.Contains(style, "italic")
	switch {
	case bold && italic:
		suffix = "bolditalic"
	case bold:
		suffix = "bold"
	case italic:
		suffix = "italic"
	}
	if _, ok := builtin[family+"-"+suffix]; !ok {
		return name
	}
	if strings.HasPrefix(name, "embed:") {
		return "embed:" + family + "-" + suffix
	}
	return family + "-" + suffix
}
