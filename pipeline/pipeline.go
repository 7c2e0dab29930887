// Package pipeline 把数据绑定、布局测量与拆分串成一次完整处理，CLI 与 HTTP 服务共用。
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/net/html"

	"github.com/ByLCY/splittext/binding"
	"github.com/ByLCY/splittext/dom"
	"github.com/ByLCY/splittext/layout"
	"github.com/ByLCY/splittext/split"
)

// Job 描述对一棵文档树的一次拆分。
type Job struct {
	Root     *html.Node
	Selector string
	Data     any // 非 nil 时先对文本与属性做 ${path} 插值
	Split    split.Options
	Layout   layout.Options
	Log      *slog.Logger
}

// Run 在 job.Root 上执行拆分。拆分阶段失败时仍返回部分结果。
func Run(ctx context.Context, job Job) (*split.SplitText, error) {
	if job.Root == nil {
		return nil, fmt.Errorf("pipeline: 文档为空")
	}
	log := job.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if job.Data != nil {
		n := binding.Apply(job.Root, job.Data)
		log.Debug("binding applied", "replacements", n)
	}
	engine, err := layout.NewEngine(job.Layout)
	if err != nil {
		return nil, err
	}
	opts := job.Split
	if opts.Logger == nil {
		opts.Logger = log
	}
	return split.Split(ctx, dom.NewTree(engine), job.Root, job.Selector, opts)
}

// Preview 把拆分后的目标排到页面上，行包装元素带描边。
func Preview(s *split.SplitText, opts layout.Options, lineClass string, meta layout.DocumentMeta) (*layout.Result, error) {
	if s == nil {
		return nil, fmt.Errorf("pipeline: 没有拆分结果")
	}
	if lineClass == "" {
		lineClass = split.DefaultLineClass
	}
	res, err := layout.Build(s.Targets(), layout.BuildOptions{
		Options:   opts,
		Highlight: []string{lineClass},
		Meta:      meta,
	})
	if err != nil {
		return nil, fmt.Errorf("预览布局失败: %w", err)
	}
	return res, nil
}

// Texts 返回每个节点的文本内容。
func Texts(nodes []*html.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = dom.TextContent(n)
	}
	return out
}
