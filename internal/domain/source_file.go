package domain

import "time"

// SourceFile 描述一次扫描得到的源文件（只做 stat，不读内容）。
//
// 不变量（实现必须遵守）：
// - AbsPath 必须是 clean + absolute
// - 扫描完成后不可变；复制阶段只读引用
type SourceFile struct {
	AbsPath string
	RelPath string
	Name    string // 含扩展名的文件名
	Ext     string // 小写，例如 ".jpg"
	Size    int64
	ModTime time.Time
}
