package report

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/afero"

	"github.com/simplynarx/JPEGSort/internal/domain"
)

func sampleReport() domain.RunReport {
	rr := domain.RunReport{
		Source:     "/src",
		Output:     "/out",
		StartedAt:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		FinishedAt: time.Date(2024, 1, 2, 3, 4, 6, 0, time.UTC),
		Items: []domain.FileResult{
			{Src: "b/notes.txt", Dst: filepath.Join("Unsorted", "notes.txt"), Label: domain.UnsortedDir, Status: domain.FileStatusCopied},
			{Src: "a/photo.jpg", Dst: filepath.Join("2019", "photo.jpg"), Label: "2019", Status: domain.FileStatusCopied},
			{Src: "c/<bad>.jpg", Label: "2020", Status: domain.FileStatusFailed, ErrorCode: domain.ErrCodeCopyFailed, ErrorMsg: "磁盘已满"},
		},
	}
	rr.Finalize()
	return rr
}

func TestRenderHTML_RowsAndSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, sampleReport()); err != nil {
		t.Fatalf("渲染失败：%v", err)
	}

	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatalf("解析 HTML 失败：%v", err)
	}

	rows := doc.Find("#items tbody tr")
	if rows.Length() != 3 {
		t.Fatalf("期望 3 行，实际 %d", rows.Length())
	}
	if got := rows.First().Find("td.src").Text(); got != "a/photo.jpg" {
		t.Fatalf("行应按 src 排序，首行为 %q", got)
	}

	failed := doc.Find("#items tr.failed")
	if failed.Length() != 1 {
		t.Fatalf("期望 1 个失败行，实际 %d", failed.Length())
	}
	// 文件名中的特殊字符必须被转义，而不是变成标签。
	if got := failed.Find("td.src").Text(); got != "c/<bad>.jpg" {
		t.Fatalf("src 未正确转义：%q", got)
	}
	if got := failed.Find("td.error").Text(); !strings.Contains(got, domain.ErrCodeCopyFailed) {
		t.Fatalf("失败行缺少错误码：%q", got)
	}

	for sel, want := range map[string]string{
		"#summary td.total":    "3",
		"#summary td.sorted":   "1",
		"#summary td.unsorted": "1",
		"#summary td.failed":   "1",
	} {
		if got := strings.TrimSpace(doc.Find(sel).Text()); got != want {
			t.Fatalf("%s 期望 %s，实际 %q", sel, want, got)
		}
	}
	if got := doc.Find("#meta dd.source").Text(); got != "/src" {
		t.Fatalf("source 不正确：%q", got)
	}
}

func TestWrite_JSONAndHTML(t *testing.T) {
	fsys := afero.NewMemMapFs()
	rr := sampleReport()

	written, err := Write(fsys, rr)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !written {
		t.Fatalf("有复制成功的文件时应写入报告")
	}

	b, err := afero.ReadFile(fsys, filepath.Join(Dir("/out"), JSONName))
	if err != nil {
		t.Fatalf("读取 report.json 失败：%v", err)
	}
	var got domain.RunReport
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("report.json 不是合法 JSON：%v", err)
	}
	if got.Summary != rr.Summary || len(got.Items) != 3 {
		t.Fatalf("report.json 内容不正确：%+v", got)
	}

	if ok, _ := afero.Exists(fsys, filepath.Join(Dir("/out"), HTMLName)); !ok {
		t.Fatalf("report.html 未写入")
	}
}

func TestWrite_SkipWhenNothingWritten(t *testing.T) {
	fsys := afero.NewMemMapFs()
	rr := domain.RunReport{Source: "/nope", Output: "/nope/Output"}
	rr.Finalize()

	written, err := Write(fsys, rr)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if written {
		t.Fatalf("没有输出时不应写报告")
	}
	if ok, _ := afero.Exists(fsys, "/nope/Output"); ok {
		t.Fatalf("不应创建输出目录")
	}
}

func TestWrite_ExistingOutputWithOnlyFailures(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := fsys.MkdirAll("/out", 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	rr := domain.RunReport{
		Source: "/src",
		Output: "/out",
		Items:  []domain.FileResult{{Src: "a.txt", Label: domain.UnsortedDir, Status: domain.FileStatusFailed, ErrorCode: domain.ErrCodeMkdirFailed}},
	}
	rr.Finalize()

	written, err := Write(fsys, rr)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !written {
		t.Fatalf("输出目录已存在时应写报告")
	}
}
