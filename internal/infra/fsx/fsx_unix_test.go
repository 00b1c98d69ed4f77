//go:build unix

package fsx

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestCopyFile_FIFOSourceRejectedWithoutBlocking(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "pipe.jpg")
	if err := syscall.Mkfifo(src, 0o644); err != nil {
		t.Skipf("无法创建 FIFO：%v", err)
	}
	dst := filepath.Join(dir, "out.jpg")

	done := make(chan error, 1)
	go func() { done <- CopyFile(afero.NewOsFs(), src, dst) }()

	select {
	case err := <-done:
		if !IsPathTypeConflict(err) {
			t.Fatalf("期望 PathTypeConflictError，实际：%T %v", err, err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("CopyFile 在 FIFO 上阻塞")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("不应创建目标文件，Stat err=%v", err)
	}
}
