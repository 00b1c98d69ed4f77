package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/simplynarx/JPEGSort/internal/app/run"
	"github.com/simplynarx/JPEGSort/internal/config"
	"github.com/simplynarx/JPEGSort/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

const progressDescription = "Sorting and copying files..."

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// progressUI 在交互终端上原地刷新一行：spinner + 描述 + "done / total"。
//
// 事件来自 run 层（同一 goroutine 顺序到达）；spinner 由独立 ticker 驱动，
// 两者共享 mu，保证写入不交错。
type progressUI struct {
	w io.Writer

	mu        sync.Mutex
	startedAt time.Time

	total  int
	done   int
	failed int
	frame  int

	tickerInterval time.Duration

	stopCh        chan struct{}
	tickerStarted bool
	finished      bool
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:              w,
		tickerInterval: 100 * time.Millisecond,
	}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.startedAt.IsZero() {
		p.startedAt = now
	}
	fmt.Fprintf(p.w, "[%s] photosort\n", now.Format("15:04:05"))
	fmt.Fprintf(p.w, "  source: %s\n", eff.Source)
	fmt.Fprintf(p.w, "  output: %s\n", eff.Output)
	if len(eff.ExcludeDirs) > 0 {
		fmt.Fprintf(p.w, "  exclude_dirs: %s\n", strings.Join(eff.ExcludeDirs, ", "))
	}
	if eff.FailureLog != "" {
		fmt.Fprintf(p.w, "  failure_log: %s\n", eff.FailureLog)
	}
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "scan":
		p.total = intField(fields, "files")
		fmt.Fprintf(p.w, "扫描: files=%d (%s)\n", p.total, formatShortDuration(dur))
		p.drawLocked()
		if p.total == 0 {
			p.finishLocked()
			return
		}
		if !p.tickerStarted {
			p.startTickerLocked()
		}
	default:
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (p *progressUI) OnItemDone(idx, total int, res domain.FileResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finished {
		return
	}
	p.done = idx
	p.total = total
	if res.Status == domain.FileStatusFailed {
		p.failed++
	}
	p.drawLocked()

	if p.done >= p.total {
		p.finishLocked()
	}
}

func (p *progressUI) drawLocked() {
	fmt.Fprintf(p.w, "\r%s %s %d / %d", spinnerFrames[p.frame%len(spinnerFrames)], progressDescription, p.done, p.total)
}

// finishLocked 停止 ticker 并结束进度行；之后不再重绘。
func (p *progressUI) finishLocked() {
	if p.tickerStarted {
		close(p.stopCh)
		p.tickerStarted = false
	}
	p.finished = true

	line := fmt.Sprintf(" (%s)", formatElapsed(time.Since(p.startedAt)))
	if p.failed > 0 {
		line = fmt.Sprintf(" failed=%d%s", p.failed, line)
	}
	fmt.Fprintln(p.w, line)
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	stop := p.stopCh

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if p.finished {
					p.mu.Unlock()
					return
				}
				p.frame++
				p.drawLocked()
				p.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	switch x := fields[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	default:
		return 0
	}
}
