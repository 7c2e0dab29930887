package layout

// Result 是预览布局的输出：按页排好坐标的文本块与描边，单位均为 mm。
type Result struct {
	Pages     []Page       `json:"pages"`
	Resources ResourceSet  `json:"resources"`
	Meta      DocumentMeta `json:"meta"`
}

type ResourceSet struct {
	Fonts map[string]FontResource `json:"fonts"`
}

// FontResource 描述一个字体。Src 可以是相对/绝对路径、"embed:<name>" 或 "built-in:<name>"。
type FontResource struct {
	Name      string `json:"name"`
	Src       string `json:"src"`
	Style     string `json:"style,omitempty"`  // 例如 "bold italic"
	Family    string `json:"family,omitempty"` // 渲染器内部的字族名，空时取 Name
	IsBuiltin bool   `json:"isBuiltin,omitempty"`
}

// Color 为 0-255 的 RGB。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

type Page struct {
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Margin   Margin    `json:"margin"`
	Texts    []TextBox `json:"texts"`
	Outlines []Outline `json:"outlines,omitempty"`
}

type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// TextBox 是一个块级元素的行内内容折行后的结果。
type TextBox struct {
	Content    string     `json:"content"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	LineHeight float64    `json:"lineHeight"`
	Font       string     `json:"font"`
	FontSize   float64    `json:"fontSize"`
	FontStyle  string     `json:"fontStyle,omitempty"`
	Color      Color      `json:"color"`
	Align      string     `json:"align,omitempty"` // left/center/right
	Wrap       string     `json:"wrap,omitempty"`  // anywhere/break-word/nowrap
	Classes    []string   `json:"classes,omitempty"`
	Lines      []TextLine `json:"lines"`

	Debug *TextBoxDebug `json:"debug,omitempty"`
}

// TextLine 是 Typesetter 返回的一行。GapBefore 为与上一行之间的行距，首行为 0。
type TextLine struct {
	Content   string  `json:"content"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	GapBefore float64 `json:"gapBefore,omitempty"`
}

// Outline 是围绕某个高亮元素（通常是行包装元素）的描边框。
type Outline struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Class       string  `json:"class"` // 触发描边的 class
	Color       Color   `json:"color"`
	StrokeWidth float64 `json:"strokeWidth"`
}

type TextBoxDebug struct {
	RawUnits *RawUnits `json:"rawUnits,omitempty"`
}

// RawUnits 保留作者在 style 中写下的原始单位。
type RawUnits struct {
	FontSize   *RawLengthJSON     `json:"fontSize,omitempty"`
	LineHeight *RawLineHeightJSON `json:"lineHeight,omitempty"`
}

type RawLengthJSON struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type RawLineHeightJSON struct {
	Kind   string  `json:"kind"` // factor | absolute
	Factor float64 `json:"factor,omitempty"`
	Value  float64 `json:"value,omitempty"`
	Unit   string  `json:"unit,omitempty"`
}

// DocumentMeta 写入 PDF 的文档信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author,omitempty"`
	Subject  string   `json:"subject,omitempty"`
	Creator  string   `json:"creator,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}
