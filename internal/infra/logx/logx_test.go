package logx

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew_DefaultConsoleOnlyErrors(t *testing.T) {
	var console bytes.Buffer
	l, c, err := New(Options{Console: &console})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	defer c.Close()

	l.WithField("src", "a.jpg").Warn("复制失败")
	l.Info("开始")
	l.Error("源目录不存在")

	out := console.String()
	if strings.Contains(out, "复制失败") || strings.Contains(out, "开始") {
		t.Fatalf("默认不应输出 warn/info：%q", out)
	}
	if !strings.Contains(out, "源目录不存在") {
		t.Fatalf("应输出 error：%q", out)
	}
}

func TestNew_VerboseConsoleAllLevels(t *testing.T) {
	var console bytes.Buffer
	l, c, err := New(Options{Console: &console, Verbose: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	defer c.Close()

	l.Debug("扫描完成")
	l.WithField("src", "a.jpg").Warn("复制失败")

	out := console.String()
	if !strings.Contains(out, "扫描完成") || !strings.Contains(out, "src=a.jpg") {
		t.Fatalf("verbose 应输出全部级别与字段：%q", out)
	}
}

func TestNew_FailureLogReceivesWarnings(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "failures.log")

	l, c, err := New(Options{Console: &console, FailureLog: path})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if l.GetLevel() != logrus.WarnLevel {
		t.Fatalf("期望级别 warn，实际 %v", l.GetLevel())
	}

	l.WithFields(logrus.Fields{"src": "b/broken.jpg", "stage": "copy"}).Warn("单文件失败")
	l.Info("不应写入")
	if err := c.Close(); err != nil {
		t.Fatalf("关闭失败日志失败：%v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取失败日志失败：%v", err)
	}
	got := string(b)
	if !strings.Contains(got, "单文件失败") || !strings.Contains(got, "stage=copy") {
		t.Fatalf("失败日志缺少条目：%q", got)
	}
	if strings.Contains(got, "不应写入") {
		t.Fatalf("失败日志不应包含 info：%q", got)
	}
	if console.Len() != 0 {
		t.Fatalf("默认控制台不应输出 warn：%q", console.String())
	}
}
