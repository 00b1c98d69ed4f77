//go:build unix

package run

import (
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/simplynarx/JPEGSort/internal/domain"
)

func TestExecute_FIFOInSourceDoesNotStall(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes.txt"), []byte("hello"))
	if err := syscall.Mkfifo(filepath.Join(root, "pipe.txt"), 0o644); err != nil {
		t.Skipf("无法创建 FIFO：%v", err)
	}

	eff := effFor(root)
	type result struct {
		rr  domain.RunReport
		err error
	}
	done := make(chan result, 1)
	go func() {
		rr, err := Execute(afero.NewOsFs(), eff, nil, nil)
		done <- result{rr, err}
	}()

	var got result
	select {
	case got = <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("源目录中的 FIFO 使运行阻塞")
	}
	if got.err != nil {
		t.Fatalf("不期望错误：%v", got.err)
	}
	if got.rr.Summary.Total != 1 || got.rr.Items[0].Src != "notes.txt" {
		t.Fatalf("只应处理普通文件：%+v", got.rr.Items)
	}
	mustExist(t, filepath.Join(eff.Output, "Unsorted", "notes.txt"))
}
