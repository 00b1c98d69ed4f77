package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/simplynarx/JPEGSort/internal/domain"
)

// RootError 表示扫描根目录本身不可用（不存在/不是目录/无法读取）。
// 这是结构性失败：整个运行都没有意义，必须上抛给调用方。
type RootError struct {
	Code string
	Root string
	Err  error
}

func (e *RootError) Error() string {
	switch e.Code {
	case domain.ErrCodeSourceNotFound:
		return fmt.Sprintf("%s：源目录不存在 %q", e.Code, e.Root)
	case domain.ErrCodeSourceNotDir:
		return fmt.Sprintf("%s：源路径不是目录 %q", e.Code, e.Root)
	default:
		return fmt.Sprintf("%s：无法读取源目录 %q：%v", e.Code, e.Root, e.Err)
	}
}

func (e *RootError) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *RootError 则返回空串。
func Code(err error) string {
	var e *RootError
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Files 递归列出 root 下所有普通文件（含 root 自身层级），并应用目录排除规则。
//
// 规则：
// - 普通文件：收录
// - FIFO、socket、设备等特殊文件：跳过并记 debug 日志
// - 符号链接：不跟随目录链接；指向文件或悬空的链接照常收录（复制失败由上层吞掉）
// - root 下无法读取的子目录：跳过并记 debug 日志，不影响其他文件
// - excludeDirs：均视为相对 root 的路径（若是绝对路径，则按绝对路径处理）
//
// 注意：扫描阶段只做 stat，不读文件内容。
func Files(fsys afero.Fs, root string, excludeDirs []string, log logrus.FieldLogger) ([]domain.SourceFile, error) {
	root = filepath.Clean(root)
	if err := checkRoot(fsys, root); err != nil {
		return nil, err
	}
	excluded := buildExcluded(root, excludeDirs)

	// root 本身是符号链接时（例如 macOS 的 /tmp），Walk 基于 Lstat 会把它当作文件；
	// 追加分隔符让底层 stat 跟随链接。
	walkRoot := root
	if lst, ok := fsys.(afero.Lstater); ok {
		if fi, _, err := lst.LstatIfPossible(root); err == nil && fi.Mode()&os.ModeSymlink != 0 {
			walkRoot = root + string(filepath.Separator)
		}
	}

	files := make([]domain.SourceFile, 0, 128)
	err := afero.Walk(fsys, walkRoot, func(path string, info fs.FileInfo, walkErr error) error {
		if walkErr != nil {
			if path == walkRoot {
				return &RootError{Code: domain.ErrCodeSourceUnreadable, Root: root, Err: walkErr}
			}
			if log != nil {
				log.WithFields(logrus.Fields{"path": path, "error": walkErr}).Debug("跳过无法读取的条目")
			}
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if isExcluded(path, excluded) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 {
			// 指向目录的链接不展开：与"不跟随目录链接"的遍历语义保持一致。
			if target, err := fsys.Stat(path); err == nil {
				if target.IsDir() {
					return nil
				}
				info = target
			}
		}

		// FIFO/socket/设备：打开时可能永久阻塞，不进入复制流程。
		// 悬空链接保留 lstat 信息，照常收录（复制失败由上层吞掉）。
		if !info.Mode().IsRegular() && info.Mode()&os.ModeSymlink == 0 {
			if log != nil {
				log.WithFields(logrus.Fields{"path": path, "mode": info.Mode().Type().String()}).Debug("跳过非普通文件")
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		name := filepath.Base(path)
		files = append(files, domain.SourceFile{
			AbsPath: path,
			RelPath: rel,
			Name:    name,
			Ext:     strings.ToLower(filepath.Ext(name)),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 强制稳定输出：重名文件的 _N 后缀分配依赖这里的顺序。
	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

func checkRoot(fsys afero.Fs, root string) error {
	fi, err := fsys.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return &RootError{Code: domain.ErrCodeSourceNotFound, Root: root, Err: err}
		}
		return &RootError{Code: domain.ErrCodeSourceUnreadable, Root: root, Err: err}
	}
	if !fi.IsDir() {
		return &RootError{Code: domain.ErrCodeSourceNotDir, Root: root}
	}
	return nil
}

func buildExcluded(root string, excludeDirs []string) []string {
	excluded := make([]string, 0, len(excludeDirs))
	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			excluded = append(excluded, filepath.Clean(x))
			continue
		}
		// x 是相对路径：相对 root。
		excluded = append(excluded, filepath.Clean(filepath.Join(root, x)))
	}

	sort.Strings(excluded)
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if isUnder(path, base) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}
