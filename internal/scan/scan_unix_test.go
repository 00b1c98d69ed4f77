//go:build unix

package scan

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/spf13/afero"
)

func TestFiles_SkipsFIFOAndLinksToIt(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "notes.txt"))

	fifo := filepath.Join(root, "pipe.txt")
	if err := syscall.Mkfifo(fifo, 0o644); err != nil {
		t.Skipf("无法创建 FIFO：%v", err)
	}
	if err := os.Symlink(fifo, filepath.Join(root, "pipelink.jpg")); err != nil {
		t.Fatalf("创建链接失败：%v", err)
	}

	got, err := Files(afero.NewOsFs(), root, nil, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 1 || got[0].RelPath != "notes.txt" {
		t.Fatalf("特殊文件不应被收录：%+v", got)
	}
}
