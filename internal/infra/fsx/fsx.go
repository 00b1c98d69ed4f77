package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// 通过可替换的函数指针，让测试能稳定模拟"复制到一半失败"等错误。
var copyFunc = io.Copy

// PathTypeConflictError 表示目标路径类型冲突（例如期望目录但实际是文件）。
// 上层可把它映射为 error_code=mkdir_failed。
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("目标路径类型冲突：%q（期望 %s，实际 %s）", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// EnsureDir 确保 dir 存在（含缺失的父目录）；已存在时不报错。
// 若路径已被非目录占用，返回 PathTypeConflictError。
func EnsureDir(fsys afero.Fs, dir string) error {
	fi, err := fsys.Stat(dir)
	if err == nil {
		if fi.IsDir() {
			return nil
		}
		return &PathTypeConflictError{Path: dir, Want: "dir", Got: "file"}
	}
	if !os.IsNotExist(err) {
		return err
	}
	return fsys.MkdirAll(dir, 0o755)
}

// CopyFile 把 src 的内容复制到 dst。
//
// 语义：
// - dst 以 O_EXCL 创建：永不覆盖已存在的文件（返回的错误满足 os.IsExist）
// - 权限位与修改时间尽量保留（失败不视为复制失败）
// - 只复制普通文件：目录与 FIFO/设备等特殊文件返回 PathTypeConflictError，且从不打开
// - 任何失败都会清理已创建的半成品 dst
func CopyFile(fsys afero.Fs, src, dst string) (err error) {
	// 打开之前先 stat：对 FIFO 调用 Open 会一直阻塞到有写端。
	fi, err := fsys.Stat(src)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return &PathTypeConflictError{Path: src, Want: "file", Got: "dir"}
	}
	if !fi.Mode().IsRegular() {
		return &PathTypeConflictError{Path: src, Want: "file", Got: fi.Mode().Type().String()}
	}

	in, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fsys.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fi.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = fsys.Remove(dst)
		}
	}()

	if _, err = copyFunc(out, in); err != nil {
		return err
	}
	if err = out.Sync(); err != nil {
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}

	// 元数据：best-effort（umask 会影响 OpenFile 的权限位，这里显式补齐）。
	_ = fsys.Chmod(dst, fi.Mode().Perm())
	_ = fsys.Chtimes(dst, fi.ModTime(), fi.ModTime())
	return nil
}

// WriteFileAtomicReplace 在 dir 下原子写入 name（临时文件 + rename），若目标已存在则覆盖。
func WriteFileAtomicReplace(fsys afero.Fs, dir, name string, data []byte) error {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dst := filepath.Join(dir, name)

	// 创建同目录临时文件（前缀带 '.'），保证 rename 在同一文件系统内。
	tmp, err := afero.TempFile(fsys, dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = fsys.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := fsys.Chmod(tmpName, 0o644); err != nil {
		return err
	}

	return fsys.Rename(tmpName, dst)
}
