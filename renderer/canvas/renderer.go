// Package canvasrenderer measures and draws text with github.com/tdewolff/canvas.
// One Renderer serves as the layout engine's Typesetter and as the PDF preview writer.
package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/splittext/layout"
	"github.com/ByLCY/splittext/renderer"
)

type Renderer struct {
	fonts *fontStore
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	BaseDir string              // 相对字体路径的根目录
	Fonts   map[string]Resource // 通过 "built-in:<name>" 引用
}

// Resource is font data given either inline or as a file path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a renderer that resolves relative font paths against baseDir.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

func NewRendererWithOptions(opts Options) *Renderer {
	return &Renderer{fonts: newFontStore(opts)}
}

// Render 把预览布局写成 PDF，每个 Page 一页。
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	first := result.Pages[0]
	doc := pdf.New(&buf, first.Width, first.Height, nil)
	meta := result.Meta
	doc.SetInfo(meta.Title, meta.Subject, strings.Join(meta.Keywords, ", "), meta.Author, meta.Creator)

	for i, page := range result.Pages {
		if i > 0 {
			doc.NewPage(page.Width, page.Height)
		}
		c, err := r.paint(page, result.Resources.Fonts)
		if err != nil {
			return nil, fmt.Errorf("第 %d 页: %w", i+1, err)
		}
		c.RenderTo(doc)
	}
	if err := doc.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// paint 在一张画布上先画描边再画文字，坐标系原点在左上角。
func (r *Renderer) paint(page layout.Page, table map[string]layout.FontResource) (*canvas.Canvas, error) {
	c := canvas.New(page.Width, page.Height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV)

	ctx.SetFillColor(color.RGBA{})
	for _, o := range page.Outlines {
		sw := o.StrokeWidth
		if sw <= 0 {
			sw = 0.2
		}
		ctx.SetStrokeColor(rgb(o.Color))
		ctx.SetStrokeWidth(sw)
		ctx.DrawPath(o.X, o.Y, canvas.Rectangle(o.Width, o.Height))
	}

	for _, tb := range page.Texts {
		font := pickFont(tb.Font, table)
		font.Style = tb.FontStyle
		if err := r.drawText(ctx, tb, font); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (r *Renderer) drawText(ctx *canvas.Context, tb layout.TextBox, font layout.FontResource) error {
	face, err := r.fonts.face(font, tb.FontSize, tb.Color)
	if err != nil {
		return err
	}
	align, x := canvas.Left, tb.X
	switch strings.ToLower(tb.Align) {
	case "center":
		align, x = canvas.Center, tb.X+tb.Width/2
	case "right", "end":
		align, x = canvas.Right, tb.X+tb.Width
	}

	lines := tb.Lines
	if len(lines) == 0 {
		lines = []layout.TextLine{{Content: tb.Content, Height: tb.LineHeight}}
	}
	ascent := face.Metrics().Ascent
	y := tb.Y
	for _, ln := range lines {
		y += ln.GapBefore
		ctx.DrawText(x, y+ascent, canvas.NewTextLine(face, ln.Content, align))
		if ln.Height > 0 {
			y += ln.Height
		} else {
			y += tb.FontSize
		}
	}
	return nil
}
