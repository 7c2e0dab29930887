package split

import (
	"errors"
	"fmt"
)

// ErrTargetNotFound 表示选择器没有匹配到任何目标元素。
var ErrTargetNotFound = errors.New("Target not found")

// StageError 记录某个目标在某个拆分阶段失败的原因。
// 失败之前已经插入的包装元素保留在树中。
type StageError struct {
	Stage  Type
	Target int // 目标在匹配结果中的下标
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("split %s (target %d): %v", e.Stage, e.Target, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
