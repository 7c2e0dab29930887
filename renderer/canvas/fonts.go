package canvasrenderer

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/splittext/fonts"
	"github.com/ByLCY/splittext/layout"
)

// fontStore 按 (name, src, style) 缓存加载好的字族。加载失败的字体退回到内置 Latin Modern。
type fontStore struct {
	baseDir string
	blobs   map[string][]byte // "built-in:<name>" 注入的字体数据

	mu       sync.Mutex
	families map[string]loadedFamily
	fallback *canvas.FontFamily
}

type loadedFamily struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

func newFontStore(opts Options) *fontStore {
	s := &fontStore{
		baseDir:  opts.BaseDir,
		blobs:    map[string][]byte{},
		families: map[string]loadedFamily{},
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		switch {
		case len(res.Bytes) > 0:
			s.blobs[name] = res.Bytes
		case res.Path != "":
			// 读不到时不报错，真正用到该字体时再走回退
			if data, err := os.ReadFile(res.Path); err == nil && len(data) > 0 {
				s.blobs[name] = data
			}
		}
	}
	return s
}

// face 返回指定字号（mm）与颜色的字形。
func (s *fontStore) face(font layout.FontResource, sizeMM float64, c layout.Color) (*canvas.FontFace, error) {
	lf, err := s.load(font)
	if err != nil {
		return nil, err
	}
	return lf.family.Face(sizeMM*layout.MmToPt, rgb(c), lf.style, canvas.FontNormal), nil
}

func (s *fontStore) load(font layout.FontResource) (loadedFamily, error) {
	key := font.Name + "|" + font.Src + "|" + font.Style
	s.mu.Lock()
	defer s.mu.Unlock()
	if lf, ok := s.families[key]; ok {
		return lf, nil
	}

	lf := loadedFamily{family: canvas.NewFontFamily(familyName(font)), style: canvasStyle(font.Style)}
	data, err := s.read(font)
	if err == nil {
		err = lf.family.LoadFont(data, 0, lf.style)
	}
	if err != nil {
		fb, fbErr := s.fallbackFamily()
		if fbErr != nil {
			return loadedFamily{}, fmt.Errorf("加载字体 %s 失败: %w", font.Name, err)
		}
		lf = loadedFamily{family: fb, style: canvas.FontRegular}
	}
	s.families[key] = lf
	return lf, nil
}

// read 解析 Src：built-in 取注入数据，embed 取内置字体（按样式选字重），其余当作文件路径。
func (s *fontStore) read(font layout.FontResource) ([]byte, error) {
	src := font.Src
	if src == "" {
		return nil, fmt.Errorf("字体 %s 缺少 src", font.Name)
	}
	for _, prefix := range []string{"built-in:", "builtin:"} {
		if name, ok := strings.CutPrefix(src, prefix); ok {
			if blob, ok := s.blobs[name]; ok {
				return blob, nil
			}
			return nil, fmt.Errorf("找不到内置字体资源 %s", src)
		}
	}
	if strings.HasPrefix(src, "embed:") {
		return fonts.Load(fonts.Variant(src, font.Style))
	}
	if filepath.IsAbs(src) {
		return os.ReadFile(src)
	}
	if s.baseDir == "" {
		return nil, fmt.Errorf("未指定资源目录，不能使用相对字体路径 %s", src)
	}
	return os.ReadFile(filepath.Join(s.baseDir, src))
}

// 调用方持有 s.mu
func (s *fontStore) fallbackFamily() (*canvas.FontFamily, error) {
	if s.fallback != nil {
		return s.fallback, nil
	}
	data, err := fonts.Load(layout.DefaultFontSrc)
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily("splittext-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, err
	}
	s.fallback = family
	return family, nil
}

func familyName(font layout.FontResource) string {
	switch {
	case font.Family != "":
		return font.Family
	case font.Name != "":
		return font.Name
	default:
		return layout.DefaultFontName
	}
}

// pickFont 按名字取字体，找不到时依次退回 Body 与内置默认字体。
func pickFont(name string, table map[string]layout.FontResource) layout.FontResource {
	if f, ok := table[name]; ok {
		return f
	}
	if f, ok := table[layout.DefaultFontName]; ok {
		return f
	}
	return layout.FontResource{Name: layout.DefaultFontName, Src: layout.DefaultFontSrc}
}

var weights = []struct {
	keys  []string
	style canvas.FontStyle
}{
	{[]string{"black", "heavy"}, canvas.FontBlack},
	{[]string{"extrabold"}, canvas.FontExtraBold},
	{[]string{"semibold", "demibold"}, canvas.FontSemiBold},
	{[]string{"bold"}, canvas.FontBold},
	{[]string{"medium"}, canvas.FontMedium},
	{[]string{"light"}, canvas.FontLight},
}

// canvasStyle 把 "bold italic" 一类的描述转成 canvas 的字重与斜体标记。
func canvasStyle(desc string) canvas.FontStyle {
	desc = strings.ToLower(desc)
	style := canvas.FontRegular
weight:
	for _, w := range weights {
		for _, k := range w.keys {
			if strings.Contains(desc, k) {
				style = w.style
				break weight
			}
		}
	}
	if strings.Contains(desc, "italic") || strings.Contains(desc, "oblique") {
		style |= canvas.FontItalic
	}
	return style
}

func rgb(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, 1)
}
