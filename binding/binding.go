// Package binding fills ${path} placeholders in a parsed document from JSON data
// before the document is split.
package binding

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var placeholder = regexp.MustCompile(`\$\{\s*([^}]*?)\s*\}`)

// skipped 中的元素内容不做替换。
var skipped = map[string]bool{"script": true, "style": true}

// Apply 替换 root 下文本节点与属性值中的占位符，返回被修改的节点数。
func Apply(root *html.Node, data any) int {
	if root == nil || data == nil {
		return 0
	}
	return apply(root, data)
}

func apply(n *html.Node, data any) int {
	changed := 0
	switch n.Type {
	case html.TextNode:
		if s := Interpolate(n.Data, data); s != n.Data {
			n.Data = s
			return 1
		}
		return 0
	case html.ElementNode:
		if skipped[n.Data] {
			return 0
		}
		hit := false
		for i := range n.Attr {
			if s := Interpolate(n.Attr[i].Val, data); s != n.Attr[i].Val {
				n.Attr[i].Val = s
				hit = true
			}
		}
		if hit {
			changed++
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		changed += apply(c, data)
	}
	return changed
}

// LoadJSON 读取绑定数据文件。
func LoadJSON(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取数据文件失败: %w", err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("解析数据文件 %s 失败: %w", path, err)
	}
	return data, nil
}

// Interpolate 将 ${a.b[0]} 替换为 data 中对应的值；路径为空或取不到值时保留原文。
func Interpolate(text string, data any) string {
	if data == nil || !strings.Contains(text, "${") {
		return text
	}
	return placeholder.ReplaceAllStringFunc(text, func(m string) string {
		expr := placeholder.FindStringSubmatch(m)[1]
		if expr == "" {
			return m
		}
		v, ok := lookup(data, expr)
		if !ok {
			return m
		}
		return format(v)
	})
}

// step 是路径中的一级：对象键或数组下标。
type step struct {
	key   string
	index int
	isIdx bool
}

// parsePath 把 "a.b[1][2]" 拆成 a, b, [1], [2]。
func parsePath(expr string) ([]step, bool) {
	var steps []step
	for _, part := range strings.Split(expr, ".") {
		key, rest, _ := strings.Cut(part, "[")
		if key != "" {
			steps = append(steps, step{key: key})
		}
		if rest == "" {
			continue
		}
		for _, idx := range strings.Split(strings.TrimSuffix(rest, "]"), "][") {
			i, err := strconv.Atoi(idx)
			if err != nil {
				return nil, false
			}
			steps = append(steps, step{index: i, isIdx: true})
		}
	}
	return steps, len(steps) > 0
}

func lookup(data any, expr string) (any, bool) {
	steps, ok := parsePath(expr)
	if !ok {
		return nil, false
	}
	cur := data
	for _, s := range steps {
		if s.isIdx {
			arr, ok := cur.([]any)
			if !ok || s.index < 0 || s.index >= len(arr) {
				return nil, false
			}
			cur = arr[s.index]
			continue
		}
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[s.key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// format 输出 JSON 数值时去掉多余的小数位，例如 3 而不是 3e+00。
func format(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
