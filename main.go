package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ByLCY/splittext/binding"
	"github.com/ByLCY/splittext/config"
	"github.com/ByLCY/splittext/dom"
	"github.com/ByLCY/splittext/layout"
	"github.com/ByLCY/splittext/pipeline"
	"github.com/ByLCY/splittext/renderer"
	canvasrenderer "github.com/ByLCY/splittext/renderer/canvas"
	"github.com/ByLCY/splittext/server"
	"github.com/ByLCY/splittext/source"
	"github.com/ByLCY/splittext/split"
)

// cliOptions 汇总命令行参数。
type cliOptions struct {
	inputs        []string
	outDir        string
	pdfPath       string
	debugPath     string
	debugRawUnits bool
	data          any
}

func main() {
	input := flag.String("in", "", "输入文件（.html/.md/.txt），支持 ** glob，多个用逗号分隔")
	cfgPath := flag.String("config", "", "配置文件（YAML 或带注释的 JSON）")
	selector := flag.String("selector", "", "目标元素选择器，覆盖配置")
	types := flag.String("types", "", "拆分类型，例如 lines,words,chars")
	lineClass := flag.String("line-class", "", "行包装元素的 class")
	wordClass := flag.String("word-class", "", "单词包装元素的 class")
	charClass := flag.String("char-class", "", "字符包装元素的 class")
	width := flag.String("width", "", "根容器宽度，例如 120mm")
	output := flag.String("out", "output", "拆分后 HTML 的输出目录")
	pdfPath := flag.String("pdf", "", "第一个输入的 PDF 预览输出路径")
	debug := flag.String("debug", "", "预览布局调试 JSON 输出路径")
	debugRawUnits := flag.Bool("debug-raw-units", false, "在调试 JSON 中输出 debug.rawUnits 影子字段")
	dataArg := flag.String("data", "", "绑定数据：JSON 字符串或 JSON 文件路径")
	serve := flag.Bool("serve", false, "启动 HTTP 服务")
	logJSON := flag.Bool("log-json", false, "以 JSON 格式输出日志")
	verbose := flag.Bool("v", false, "输出调试日志")
	flag.Parse()

	log := newLogger(*logJSON, *verbose)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatal(log, "加载配置失败", err)
	}
	if *types != "" {
		cfg.Types = strings.Split(*types, ",")
	}
	overrides := map[*string]string{
		&cfg.Selector:     *selector,
		&cfg.Classes.Line: *lineClass,
		&cfg.Classes.Word: *wordClass,
		&cfg.Classes.Char: *charClass,
		&cfg.Layout.Width: *width,
	}
	for field, v := range overrides {
		if v != "" {
			*field = v
		}
	}
	if err := cfg.Validate(); err != nil {
		fatal(log, "配置无效", err)
	}

	baseDir := "."
	if *cfgPath != "" {
		baseDir = filepath.Dir(*cfgPath)
	}
	var r renderer.Renderer = canvasrenderer.NewRenderer(baseDir)

	if *serve {
		if err := runServer(cfg, r, log); err != nil {
			fatal(log, "服务异常退出", err)
		}
		return
	}

	data, err := loadData(*dataArg)
	if err != nil {
		fatal(log, "解析绑定数据失败", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := cliOptions{
		inputs:        splitList(*input),
		outDir:        *output,
		pdfPath:       *pdfPath,
		debugPath:     *debug,
		debugRawUnits: *debugRawUnits,
		data:          data,
	}
	if err := run(ctx, cfg, opts, r, log); err != nil {
		fatal(log, "拆分失败", err)
	}
}

// run 依次处理每个输入：加载、绑定、拆分并写出 HTML；第一个输入可额外生成预览。
// 单个文件失败不影响其余文件，错误合并返回。
func run(ctx context.Context, cfg config.Config, opts cliOptions, r renderer.Renderer, log *slog.Logger) error {
	if r == nil {
		return fmt.Errorf("renderer 不能为空")
	}
	ts, ok := r.(layout.Typesetter)
	if !ok {
		return fmt.Errorf("renderer 未实现排版接口")
	}
	if cfg.Selector == "" {
		return fmt.Errorf("缺少目标选择器（-selector 或配置中的 selector）")
	}
	paths, err := source.Expand(opts.inputs)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("没有可处理的输入文件")
	}
	splitOpts, err := cfg.SplitOptions()
	if err != nil {
		return err
	}
	splitOpts.Logger = log
	layoutOpts, err := cfg.LayoutOptions(ts)
	if err != nil {
		return err
	}
	layoutOpts.Debug = layout.DebugOptions{RawUnits: opts.debugRawUnits}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	var errs []error
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		doc, err := source.Load(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		st, err := pipeline.Run(ctx, pipeline.Job{
			Root:     doc.Root,
			Selector: cfg.Selector,
			Data:     opts.data,
			Split:    splitOpts,
			Layout:   layoutOpts,
			Log:      log,
		})
		if err != nil {
			if errors.Is(err, split.ErrTargetNotFound) {
				log.Warn("no targets", "file", path, "selector", cfg.Selector)
			}
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			if st == nil {
				continue
			}
		}
		outPath := filepath.Join(opts.outDir, strings.TrimSuffix(doc.Name, filepath.Ext(doc.Name))+".html")
		if err := writeHTML(outPath, doc); err != nil {
			errs = append(errs, err)
			continue
		}
		log.Info("split",
			"file", path,
			"out", outPath,
			"targets", len(st.Targets()),
			"lines", len(st.Lines()),
			"words", len(st.Words()),
			"chars", len(st.Chars()))

		if i == 0 && (opts.pdfPath != "" || opts.debugPath != "") {
			if err := preview(st, doc, opts, layoutOpts, cfg.Classes.Line, r); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// preview 排版拆分结果，按需写出调试 JSON 与 PDF。
func preview(st *split.SplitText, doc *source.Document, opts cliOptions, lo layout.Options, lineClass string, r renderer.Renderer) error {
	result, err := pipeline.Preview(st, lo, lineClass, layout.DocumentMeta{
		Title:   doc.Title,
		Creator: "splittext",
	})
	if err != nil {
		return err
	}
	if opts.debugPath != "" {
		if err := writeDebug(result, opts.debugPath); err != nil {
			return err
		}
	}
	if opts.pdfPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(opts.pdfPath), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	pdfBytes, err := r.Render(result)
	if err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := os.WriteFile(opts.pdfPath, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	return nil
}

func runServer(cfg config.Config, r renderer.Renderer, log *slog.Logger) error {
	ts, ok := r.(layout.Typesetter)
	if !ok {
		return fmt.Errorf("renderer 未实现排版接口")
	}
	srv := server.NewServer(ts, r, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting splittext", "port", cfg.Server.Port, "auth", cfg.Server.APIKey != "")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func writeHTML(path string, doc *source.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %w", err)
	}
	if err := dom.Render(f, doc.Root); err != nil {
		f.Close()
		return fmt.Errorf("写入 HTML 失败: %w", err)
	}
	return f.Close()
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

// loadData 接受内联 JSON 或 JSON 文件路径。
func loadData(arg string) (any, error) {
	arg = strings.TrimSpace(arg)
	switch {
	case arg == "":
		return nil, nil
	case strings.HasPrefix(arg, "{"), strings.HasPrefix(arg, "["):
		var data any
		if err := json.Unmarshal([]byte(arg), &data); err != nil {
			return nil, err
		}
		return data, nil
	default:
		return binding.LoadJSON(arg)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func newLogger(jsonOut, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if jsonOut {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
