package split

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/ByLCY/splittext/selector"
)

// Type 是一种拆分粒度。
type Type string

const (
	Lines Type = "lines"
	Words Type = "words"
	Chars Type = "chars"
)

// 包装元素默认的 class 名。
const (
	DefaultLineClass = "hella-line"
	DefaultWordClass = "hella-word"
	DefaultCharClass = "hella-char"
)

// AllTypes 返回全部三种粒度，按执行顺序排列。
func AllTypes() []Type { return []Type{Lines, Words, Chars} }

// ParseTypes 解析以逗号或空白分隔的粒度列表，例如 "lines,words"。
// 顺序无关、重复项被忽略；空串返回全部粒度。
func ParseTypes(s string) ([]Type, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) == 0 {
		return AllTypes(), nil
	}
	seen := map[Type]bool{}
	var out []Type
	for _, f := range fields {
		t := Type(strings.ToLower(f))
		if !t.valid() {
			return nil, fmt.Errorf("unknown split type %q (want lines, words or chars)", f)
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out, nil
}

func (t Type) valid() bool { return t == Lines || t == Words || t == Chars }

// Options 控制拆分粒度与包装元素的 class。
type Options struct {
	Types     []Type // 为空表示全部
	LineClass string
	WordClass string
	CharClass string
	Logger    *slog.Logger
}

// DefaultOptions 返回三种粒度全开、class 为默认值的配置。
func DefaultOptions() Options {
	return Options{
		Types:     AllTypes(),
		LineClass: DefaultLineClass,
		WordClass: DefaultWordClass,
		CharClass: DefaultCharClass,
	}
}

func (o Options) withDefaults() (Options, error) {
	if len(o.Types) == 0 {
		o.Types = AllTypes()
	}
	for _, t := range o.Types {
		if !t.valid() {
			return o, fmt.Errorf("unknown split type %q", t)
		}
	}
	if o.LineClass == "" {
		o.LineClass = DefaultLineClass
	}
	if o.WordClass == "" {
		o.WordClass = DefaultWordClass
	}
	if o.CharClass == "" {
		o.CharClass = DefaultCharClass
	}
	// 各阶段以 "."+class 查询包装元素，class 必须能编译成选择器
	for _, class := range []string{o.LineClass, o.WordClass, o.CharClass} {
		if strings.ContainsFunc(class, unicode.IsSpace) {
			return o, fmt.Errorf("invalid class name %q", class)
		}
		if _, err := selector.Compile("." + class); err != nil {
			return o, fmt.Errorf("invalid class name %q: %w", class, err)
		}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o, nil
}

func has(types []Type, t Type) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}
