// Package logx 组装运行期使用的 logrus Logger。
//
// 输出路由（Logger 自身输出丢弃，全部经由 writer hook）：
// - 控制台：默认只输出 error 及以上；Verbose 时输出全部级别
// - 失败日志文件（可选）：warn 及以上，即每个被吞掉的单文件失败
package logx

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/writer"
)

type Options struct {
	Console    io.Writer // nil 时使用 os.Stderr
	Verbose    bool
	FailureLog string // 为空表示不写失败日志
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New 返回配置好的 Logger 与需要在退出前关闭的资源。
func New(opts Options) (*logrus.Logger, io.Closer, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	consoleLevel := logrus.ErrorLevel
	if opts.Verbose {
		consoleLevel = logrus.DebugLevel
	}
	l.AddHook(&writer.Hook{Writer: console, LogLevels: levelsUpTo(consoleLevel)})

	// Logger 的级别取两路输出中更宽的那个，否则 hook 收不到 entry。
	level := consoleLevel
	var closer io.Closer = nopCloser{}
	if opts.FailureLog != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FailureLog), 0o755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(opts.FailureLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		l.AddHook(&writer.Hook{Writer: f, LogLevels: levelsUpTo(logrus.WarnLevel)})
		closer = f
		if level < logrus.WarnLevel {
			level = logrus.WarnLevel
		}
	}
	l.SetLevel(level)
	return l, closer, nil
}

// Discard 返回一个什么都不输出的 Logger（测试与库调用使用）。
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func levelsUpTo(max logrus.Level) []logrus.Level {
	out := make([]logrus.Level, 0, len(logrus.AllLevels))
	for _, lv := range logrus.AllLevels {
		if lv <= max {
			out = append(out, lv)
		}
	}
	return out
}
