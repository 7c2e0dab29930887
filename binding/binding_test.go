package binding

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func TestInterpolate(t *testing.T) {
	data := map[string]any{
		"user":  map[string]any{"name": "Ada", "tags": []any{"x", "y"}},
		"count": float64(3),
		"ratio": 0.5,
		"grid":  []any{[]any{"p", "q"}},
	}
	cases := map[string]string{
		"Hi ${user.name}!":        "Hi Ada!",
		"${user.tags[1]}":         "y",
		"${count} items":          "3 items",
		"${ratio}":                "0.5",
		"${missing.path}":         "${missing.path}",
		"${user.tags[9]}":         "${user.tags[9]}",
		"${grid[0][1]}":           "q",
		"${user.tags[x]}":         "${user.tags[x]}",
		"no placeholders":         "no placeholders",
		"${ user.name } and ${ }": "Ada and ${ }",
	}
	for in, want := range cases {
		if got := Interpolate(in, data); got != want {
			t.Fatalf("Interpolate(%q) = %q, want %q", in, got, want)
		}
	}
	if got := Interpolate("${a}", nil); got != "${a}" {
		t.Fatalf("nil data should keep placeholder, got %q", got)
	}
}

func TestApply(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<div class="${cls}"><p>Hello ${name}</p><script>var x = "${name}"</script><p>plain</p></div>`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	n := Apply(doc, map[string]any{"name": "world", "cls": "hero"})
	if n != 2 {
		t.Fatalf("expected 2 changed nodes, got %d", n)
	}
	var b strings.Builder
	if err := html.Render(&b, doc); err != nil {
		t.Fatalf("render error: %v", err)
	}
	out := b.String()
	for _, want := range []string{`class="hero"`, "Hello world", `"${name}"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %s", want, out)
		}
	}
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(`{"title": "Report", "n": 2}`), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON error: %v", err)
	}
	if got := Interpolate("${title} #${n}", data); got != "Report #2" {
		t.Fatalf("unexpected interpolation %q", got)
	}
	if _, err := LoadJSON(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
