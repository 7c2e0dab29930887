// Package renderer defines the output side of the split preview.
package renderer

import "github.com/ByLCY/splittext/layout"

// Renderer 把预览布局（带行描边）编码为文件字节，目前只有 PDF 实现。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}
