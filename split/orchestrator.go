package split

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/net/html"
)

// Operand 指明某个阶段作用于哪些节点。
type Operand int

const (
	OnTarget Operand = iota // 目标元素本身
	OnLines                 // 目标内的行包装元素
	OnWords                 // 本次拆分为该目标创建的单词包装元素
)

func (o Operand) String() string {
	switch o {
	case OnLines:
		return "lines"
	case OnWords:
		return "words"
	default:
		return "target"
	}
}

// Step 是某个目标拆分流程中的一步。
type Step struct {
	Stage   Type
	Operand Operand
}

// OperandFor 决定某个阶段的操作对象：
// 单词阶段有行就逐行拆，否则拆目标；字符阶段依次优先单词、行、目标。
func OperandFor(stage Type, lineCount, wordCount int) Operand {
	switch stage {
	case Words:
		if lineCount > 0 {
			return OnLines
		}
	case Chars:
		if wordCount > 0 {
			return OnWords
		}
		if lineCount > 0 {
			return OnLines
		}
	}
	return OnTarget
}

// Plan 按 lines → words → chars 的固定顺序列出请求的阶段及其操作对象。
// types 的顺序与重复无关。第 i 步只依赖前面各步产生的行数与单词数。
func Plan(types []Type, lineCount, wordCount int) []Step {
	var steps []Step
	for _, stage := range AllTypes() {
		if has(types, stage) {
			steps = append(steps, Step{Stage: stage, Operand: OperandFor(stage, lineCount, wordCount)})
		}
	}
	return steps
}

// SplitText 对选择器匹配到的每个目标执行行、单词、字符拆分，并收集创建出的包装元素。
type SplitText struct {
	host    Host
	targets []*html.Node
	opts    Options
	log     *slog.Logger

	lines []*html.Node
	words []*html.Node
	chars []*html.Node
}

// New 在 root 下解析 selector 得到目标元素。没有任何匹配时返回 ErrTargetNotFound。
func New(host Host, root *html.Node, selector string, opts Options) (*SplitText, error) {
	if host == nil {
		return nil, errors.New("split: nil host")
	}
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	targets, err := host.QueryAll(root, selector)
	if err != nil {
		return nil, fmt.Errorf("resolve targets %q: %w", selector, err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, selector)
	}
	return &SplitText{host: host, targets: targets, opts: opts, log: opts.Logger}, nil
}

// Split 是 New 加 Run 的简写；Run 失败时仍返回已收集的部分结果。
func Split(ctx context.Context, host Host, root *html.Node, selector string, opts Options) (*SplitText, error) {
	s, err := New(host, root, selector, opts)
	if err != nil {
		return nil, err
	}
	return s, s.Run(ctx)
}

func (s *SplitText) Targets() []*html.Node { return slices.Clone(s.targets) }
func (s *SplitText) Types() []Type         { return slices.Clone(s.opts.Types) }
func (s *SplitText) Lines() []*html.Node   { return slices.Clone(s.lines) }
func (s *SplitText) Words() []*html.Node   { return slices.Clone(s.words) }
func (s *SplitText) Chars() []*html.Node   { return slices.Clone(s.chars) }

type targetResult struct {
	lines, words, chars []*html.Node
}

// Run 依次处理每个目标，全部结束后才返回。某个目标失败只会中止它自己剩余的阶段，
// 各目标的错误合并返回；ctx 取消时立即停止。结果集合在每次 Run 开始时清空。
func (s *SplitText) Run(ctx context.Context) error {
	s.lines, s.words, s.chars = nil, nil, nil

	type task struct {
		index  int
		target *html.Node
	}
	tasks := make([]task, len(s.targets))
	for i, t := range s.targets {
		tasks[i] = task{index: i, target: t}
	}

	var errs []error
	for _, t := range tasks {
		res, err := s.runTarget(ctx, t.index, t.target)
		s.lines = append(s.lines, res.lines...)
		s.words = append(s.words, res.words...)
		s.chars = append(s.chars, res.chars...)
		if err != nil {
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}
	}
	s.log.Debug("split done",
		slog.Int("targets", len(tasks)),
		slog.Int("lines", len(s.lines)),
		slog.Int("words", len(s.words)),
		slog.Int("chars", len(s.chars)),
		slog.Int("failed", len(errs)))
	return errors.Join(errs...)
}

func (s *SplitText) runTarget(ctx context.Context, index int, target *html.Node) (targetResult, error) {
	var (
		res   targetResult
		lines []*html.Node
	)
	order := Plan(s.opts.Types, 0, 0)
	for i := range order {
		stage := order[i].Stage
		if stage == Words {
			found, err := s.host.QueryAll(target, "."+s.opts.LineClass)
			if err != nil {
				return res, &StageError{Stage: stage, Target: index, Err: err}
			}
			lines = found
		}
		step := Plan(s.opts.Types, len(lines), len(res.words))[i]

		operands := []*html.Node{target}
		switch step.Operand {
		case OnLines:
			operands = lines
		case OnWords:
			operands = slices.Clone(res.words)
		}
		created := 0
		for _, op := range operands {
			if err := ctx.Err(); err != nil {
				return res, fmt.Errorf("split target %d: %w", index, err)
			}
			out, err := s.stage(step.Stage, op)
			created += len(out)
			switch step.Stage {
			case Lines:
				res.lines = append(res.lines, out...)
			case Words:
				res.words = append(res.words, out...)
			case Chars:
				res.chars = append(res.chars, out...)
			}
			if err != nil {
				return res, &StageError{Stage: step.Stage, Target: index, Err: err}
			}
		}
		if step.Stage == Lines {
			lines = res.lines
		}
		s.log.Debug("split stage",
			slog.Int("target", index),
			slog.String("stage", string(step.Stage)),
			slog.String("operand", step.Operand.String()),
			slog.Int("operands", len(operands)),
			slog.Int("created", created))
	}
	return res, nil
}

func (s *SplitText) stage(t Type, n *html.Node) ([]*html.Node, error) {
	switch t {
	case Lines:
		return s.splitLines(n)
	case Words:
		return s.splitWords(n)
	default:
		return s.splitChars(n)
	}
}
