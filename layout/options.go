package layout

// Options 配置布局引擎所需的依赖与根元素默认样式，例如排版后端。
type Options struct {
	Typesetter Typesetter
	Debug      DebugOptions

	Width      float64                 // 根容器内容宽度（mm），<=0 时取 DefaultWidth
	FontSize   float64                 // 根字号（mm），<=0 时取 12pt
	LineHeight LineHeightSpec          // 根行高，零值表示 1.4 倍
	Font       string                  // 默认字体名，需在 Fonts 中定义
	Fonts      map[string]FontResource // font-family → 字体资源
	Color      Color
}

// DebugOptions 控制调试相关输出。
type DebugOptions struct {
	RawUnits bool // 在调试 JSON 中输出 debug.rawUnits 影子字段
}

// BuildOptions 在 Options 之上补充预览分页所需的页面参数。
type BuildOptions struct {
	Options

	PageWidth  float64 // mm，<=0 时为 A4
	PageHeight float64
	Margin     Margin
	Highlight  []string // 带有这些 class 的块级元素会被描边
	Meta       DocumentMeta
}

// Typesetter 负责根据字体与宽度约束将文本拆成可绘制的行。
type Typesetter interface {
	LayoutLines(content string, width float64, font FontResource, fontSize float64, lineHeight float64, wrap string) ([]TextLine, error)
}

const (
	DefaultWidth    = 170.0
	DefaultFontName = "Body"
	DefaultFontSrc  = "embed:lmroman10-regular"
	a4Width         = 210.0
	a4Height        = 297.0
	defaultMargin   = 20.0
)

// DefaultFonts 返回只包含内置 Body 字体的字体表。
func DefaultFonts() map[string]FontResource {
	return map[string]FontResource{
		DefaultFontName: {Name: DefaultFontName, Src: DefaultFontSrc, IsBuiltin: true},
	}
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.FontSize <= 0 {
		o.FontSize = 12 * PtToMm
	}
	if o.LineHeight.Kind == LineHeightFactor && o.LineHeight.Factor <= 0 {
		o.LineHeight = LineHeightSpec{Kind: LineHeightFactor, Factor: 1.4}
	}
	if len(o.Fonts) == 0 {
		o.Fonts = DefaultFonts()
	}
	if o.Font == "" {
		o.Font = DefaultFontName
	}
	if o.Color == (Color{}) {
		o.Color = Color{R: 30, G: 30, B: 30}
	}
	return o
}
