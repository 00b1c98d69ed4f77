// Package naming 为目标目录分配不冲突的文件名。
package naming

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Resolve 返回 dir 下与现有文件不冲突的文件名。
//
// 顺序固定：name.ext, name_1.ext, name_2.ext, ...（原名总是最先尝试）。
// 判断依据是调用时刻文件系统上的状态（stat；悬空链接视为不存在）。
//
// 注意：这是 check-then-use，单线程顺序执行时安全；并发写入同一目录时，
// 调用方必须配合独占创建（fsx.CopyFile 使用 O_EXCL）。
func Resolve(fsys afero.Fs, dir, name string) (string, error) {
	ok, err := free(fsys, dir, name)
	if err != nil {
		return "", err
	}
	if ok {
		return name, nil
	}

	base, ext := SplitExt(name)
	for n := 1; ; n++ {
		cand := Candidate(base, ext, n)
		ok, err := free(fsys, dir, cand)
		if err != nil {
			return "", err
		}
		if ok {
			return cand, nil
		}
	}
}

// SplitExt 把文件名拆成主干与扩展名。
// 与 filepath.Ext 的区别：前导的点不算扩展名分隔符（".hidden" 没有扩展名）。
func SplitExt(name string) (base, ext string) {
	ext = filepath.Ext(name)
	base = strings.TrimSuffix(name, ext)
	if strings.Trim(base, ".") == "" {
		return name, ""
	}
	return base, ext
}

// Candidate 生成第 n 个候选名（n>=1）。
func Candidate(base, ext string, n int) string {
	return fmt.Sprintf("%s_%d%s", base, n, ext)
}

func free(fsys afero.Fs, dir, name string) (bool, error) {
	exists, err := afero.Exists(fsys, filepath.Join(dir, name))
	if err != nil {
		return false, err
	}
	return !exists, nil
}
