package run

import (
	"time"

	"github.com/simplynarx/JPEGSort/internal/config"
	"github.com/simplynarx/JPEGSort/internal/domain"
)

// Observer 把运行进度从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出
// - 事件全部来自调用 Execute 的 goroutine，按顺序到达
type Observer interface {
	// OnStart 在 Execute 开始时调用。
	OnStart(eff config.EffectiveConfig)
	// OnPhaseDone 在阶段结束时调用；目前只有 "scan"（fields: files）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnItemDone 在每个文件处理完成后调用，无论成功与否；idx 从 1 开始。
	OnItemDone(idx, total int, res domain.FileResult, dur time.Duration)
}
