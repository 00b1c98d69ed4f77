// Package report 把 RunReport 落盘为 report.json 与 report.html。
package report

import (
	"bytes"
	"encoding/json"
	"html/template"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/simplynarx/JPEGSort/internal/domain"
	"github.com/simplynarx/JPEGSort/internal/infra/fsx"
)

const (
	JSONName = "report.json"
	HTMLName = "report.html"
)

// Dir 返回报告目录：<output>/.photosort。
func Dir(output string) string {
	return filepath.Join(output, domain.ReportDirName)
}

// Write 写入 report.json 与 report.html（均为原子替换）。
//
// 运行没有写出任何文件且输出目录不存在时跳过（例如源目录不存在），返回 written=false。
func Write(fsys afero.Fs, rr domain.RunReport) (written bool, err error) {
	if !hasCopies(rr) {
		ok, err := afero.DirExists(fsys, rr.Output)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	dir := Dir(rr.Output)
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return false, err
	}
	b = append(b, '\n')
	if err := fsx.WriteFileAtomicReplace(fsys, dir, JSONName, b); err != nil {
		return false, err
	}

	var buf bytes.Buffer
	if err := RenderHTML(&buf, rr); err != nil {
		return false, err
	}
	if err := fsx.WriteFileAtomicReplace(fsys, dir, HTMLName, buf.Bytes()); err != nil {
		return false, err
	}
	return true, nil
}

// RenderHTML 把报告渲染为单页 HTML：摘要 + 每个文件一行。
func RenderHTML(w io.Writer, rr domain.RunReport) error {
	return pageTmpl.Execute(w, rr)
}

func hasCopies(rr domain.RunReport) bool {
	for _, it := range rr.Items {
		if it.Status == domain.FileStatusCopied {
			return true
		}
	}
	return false
}

var pageTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"ts": func(t time.Time) string { return t.Format("2006-01-02 15:04:05Z07:00") },
}).Parse(`<!DOCTYPE html>
<html lang="zh">
<head>
<meta charset="utf-8">
<title>photosort 报告</title>
<style>
body{font-family:sans-serif;margin:2em}
table{border-collapse:collapse}
td,th{border:1px solid #ccc;padding:4px 8px;text-align:left}
tr.failed{background:#fdd}
</style>
</head>
<body>
<h1>photosort 报告</h1>
<dl id="meta">
<dt>源目录</dt><dd class="source">{{.Source}}</dd>
<dt>输出目录</dt><dd class="output">{{.Output}}</dd>
<dt>开始</dt><dd>{{ts .StartedAt}}</dd>
<dt>结束</dt><dd>{{ts .FinishedAt}}</dd>
</dl>
<table id="summary">
<tr><th>total</th><th>sorted</th><th>unsorted</th><th>failed</th></tr>
<tr><td class="total">{{.Summary.Total}}</td><td class="sorted">{{.Summary.Sorted}}</td><td class="unsorted">{{.Summary.Unsorted}}</td><td class="failed">{{.Summary.Failed}}</td></tr>
</table>
<table id="items">
<thead><tr><th>src</th><th>dst</th><th>label</th><th>status</th><th>error</th></tr></thead>
<tbody>
{{- range .Items}}
<tr class="{{.Status}}"><td class="src">{{.Src}}</td><td class="dst">{{.Dst}}</td><td class="label">{{.Label}}</td><td class="status">{{.Status}}</td><td class="error">{{if .ErrorCode}}{{.ErrorCode}}: {{.ErrorMsg}}{{end}}</td></tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))
