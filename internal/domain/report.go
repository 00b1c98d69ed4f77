package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	FileStatusCopied = "copied"
	FileStatusFailed = "failed"
)

const (
	ErrCodeMkdirFailed      = "mkdir_failed"
	ErrCodeNameFailed       = "name_failed"
	ErrCodeCopyFailed       = "copy_failed"
	ErrCodeSourceNotFound   = "source_not_found"
	ErrCodeSourceNotDir     = "source_not_dir"
	ErrCodeSourceUnreadable = "source_unreadable"
)

// RunReport 是一次排序运行的完整记录（report.json / report.html 的数据源）。
type RunReport struct {
	Source string `json:"source"`
	Output string `json:"output"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Items   []FileResult  `json:"items"`
}

type ReportSummary struct {
	Total    int `json:"total"`
	Sorted   int `json:"sorted"`
	Unsorted int `json:"unsorted"`
	Failed   int `json:"failed"`
}

// FileResult 记录单个源文件的处理结果。
// Src 为相对源目录的路径；Dst 为相对输出目录的路径（失败时可能为空）。
type FileResult struct {
	Src    string `json:"src"`
	Dst    string `json:"dst"`
	Label  string `json:"label"`
	Status string `json:"status"`

	ErrorCode string `json:"error_code,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) items 稳定排序：按 src 字典序
// 3) summary 由 items 计算得出
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Items, func(i, j int) bool { return r.Items[i].Src < r.Items[j].Src })

	s := ReportSummary{Total: len(r.Items)}
	for _, it := range r.Items {
		switch {
		case it.Status == FileStatusFailed:
			s.Failed++
		case it.Label == UnsortedDir:
			s.Unsorted++
		default:
			s.Sorted++
		}
	}
	r.Summary = s
}

// MarshalJSON 保证 items 永远输出为数组（而不是 null）。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	if r.Items == nil {
		r.Items = []FileResult{}
	}
	return json.Marshal(Alias(r))
}

// ReportDirName 是输出目录下存放运行报告的子目录；扫描时始终排除。
const ReportDirName = ".photosort"
