// Package classify 决定一个源文件落入哪个输出桶：EXIF 年份或 Unsorted。
package classify

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/spf13/afero"

	"github.com/simplynarx/JPEGSort/internal/domain"
	"github.com/simplynarx/JPEGSort/internal/infra/imgx"
)

// dateTimeTag 是唯一读取的 EXIF 字段（0x0132，修改/拍摄时间）。
const dateTimeTag = exif.DateTime

// yearLen 是年份标签截取的字符数。
const yearLen = 4

var (
	// ErrNoDateTime 表示 EXIF 中没有 DateTime 字段，或字段为空。
	ErrNoDateTime = errors.New("classify: 缺少 DateTime")
	// ErrNoExif 表示 JPEG 中没有 "Exif\0\0" APP1 段。
	ErrNoExif = errors.New("classify: 没有 EXIF 数据")
	// ErrNotRegular 表示路径不是普通文件（FIFO、设备、socket 等）。
	ErrNotRegular = errors.New("classify: 不是普通文件")
	// ErrUnsafeLabel 表示截取出的标签无法作为单层目录名使用。
	ErrUnsafeLabel = errors.New("classify: 标签不能作为目录名")
)

// IsSortable 判断文件名是否带有可排序的图片扩展名（.jpg/.jpeg，大小写不敏感）。
func IsSortable(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return true
	default:
		return false
	}
}

// Classify 返回 path 的归类结果。任何读取/解码失败都会折叠为 Unsorted（文件不会被丢弃）。
func Classify(fsys afero.Fs, path string) domain.Classification {
	if !IsSortable(path) {
		return domain.UnsortedClass()
	}
	label, err := YearLabel(fsys, path)
	if err != nil {
		return domain.UnsortedClass()
	}
	return domain.Year(label)
}

// YearLabel 读取 JPEG 的 EXIF DateTime，并返回其前 4 个字符。
//
// 约束：
// - 不校验结果是否为数字（"abcd" 之类的值原样返回）
// - 值不足 4 个字符时返回全部
// - 结果含路径分隔符或为 "."/".." 时返回 ErrUnsafeLabel
// - Exif 段可以出现在 XMP 等其他 APP1 段之后
func YearLabel(fsys afero.Fs, path string) (string, error) {
	// 先 stat：FIFO 之类的特殊文件在 Open 时可能永久阻塞。
	fi, err := fsys.Stat(path)
	if err != nil {
		return "", err
	}
	if !fi.Mode().IsRegular() {
		return "", fmt.Errorf("%w：%s", ErrNotRegular, fi.Mode().Type())
	}

	f, err := fsys.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := imgx.Inspect(f)
	if err != nil {
		return "", fmt.Errorf("classify: 不是有效的 JPEG：%w", err)
	}
	if info.Exif == nil {
		return "", ErrNoExif
	}

	v, err := readDateTime(bytes.NewReader(info.Exif))
	if err != nil {
		return "", err
	}

	label := firstChars(v, yearLen)
	if !safeDirName(label) {
		return "", fmt.Errorf("%w：%q", ErrUnsafeLabel, label)
	}
	return label, nil
}

// readDateTime 从 Exif 段中的 TIFF 数据读取 DateTime。
func readDateTime(r io.Reader) (v string, err error) {
	// goexif 对畸形数据可能 panic；损坏文件只应导致 Unsorted。
	defer func() {
		if p := recover(); p != nil {
			v, err = "", fmt.Errorf("classify: 解析 EXIF 失败：%v", p)
		}
	}()

	x, err := exif.Decode(r)
	if x == nil {
		if err == nil {
			err = ErrNoExif
		}
		return "", err
	}
	// 子 IFD 的非致命错误不影响 IFD0 中的 DateTime。

	tag, err := x.Get(dateTimeTag)
	if err != nil {
		return "", ErrNoDateTime
	}
	s, err := tag.StringVal()
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", ErrNoDateTime
	}
	return s, nil
}

func firstChars(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func safeDirName(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, "/\\\x00")
}
