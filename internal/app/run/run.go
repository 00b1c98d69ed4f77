package run

import (
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/simplynarx/JPEGSort/internal/classify"
	"github.com/simplynarx/JPEGSort/internal/config"
	"github.com/simplynarx/JPEGSort/internal/domain"
	"github.com/simplynarx/JPEGSort/internal/infra/fsx"
	"github.com/simplynarx/JPEGSort/internal/infra/logx"
	"github.com/simplynarx/JPEGSort/internal/naming"
	"github.com/simplynarx/JPEGSort/internal/scan"
)

// Execute 把 eff.Source 下的所有文件复制到 eff.Output/<年份|Unsorted>/。
//
// 单个文件的失败（建目录/取名/复制）只记录到 item 上并打 warn 日志，不中断运行。
// 只有源目录本身不可用时返回 error（*scan.RootError），此时不会创建任何输出目录。
// obs 与 log 均可为 nil。
func Execute(fsys afero.Fs, eff config.EffectiveConfig, log logrus.FieldLogger, obs Observer) (domain.RunReport, error) {
	if log == nil {
		log = logx.Discard()
	}
	started := time.Now().UTC()

	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.RunReport{
		Source:    eff.Source,
		Output:    eff.Output,
		StartedAt: started,
		Items:     make([]domain.FileResult, 0, 128),
	}

	excludes := append([]string(nil), eff.ExcludeDirs...)
	excludes = append(excludes, filepath.Join(eff.Output, domain.ReportDirName))

	scanStarted := time.Now()
	files, err := scan.Files(fsys, eff.Source, excludes, log)
	if err != nil {
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr, err
	}
	if len(files) == 0 {
		log.WithField("source", eff.Source).Info("源目录为空")
	}
	log.WithFields(logrus.Fields{"files": len(files), "dur": time.Since(scanStarted)}).Debug("扫描完成")

	if obs != nil {
		obs.OnPhaseDone("scan", map[string]any{"files": len(files)}, time.Since(scanStarted))
	}

	// 严格串行：取名检查与复制之间没有其他写入者。
	total := len(files)
	for i, f := range files {
		oneStarted := time.Now()
		res := sortOne(fsys, eff.Output, f, log)
		rr.Items = append(rr.Items, res)
		if obs != nil {
			obs.OnItemDone(i+1, total, res, time.Since(oneStarted))
		}
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()

	log.WithFields(logrus.Fields{
		"total":    rr.Summary.Total,
		"sorted":   rr.Summary.Sorted,
		"unsorted": rr.Summary.Unsorted,
		"failed":   rr.Summary.Failed,
	}).Info("排序完成")
	return rr, nil
}

func sortOne(fsys afero.Fs, output string, f domain.SourceFile, log logrus.FieldLogger) domain.FileResult {
	class := classifyFile(fsys, f, log)
	res := domain.FileResult{
		Src:   f.RelPath,
		Label: class.Dir(),
	}

	fail := func(stage, code string, err error) domain.FileResult {
		log.WithFields(logrus.Fields{
			"src":   f.RelPath,
			"stage": stage,
			"error": err,
		}).Warn("处理失败，已跳过")
		res.Status = domain.FileStatusFailed
		res.ErrorCode = code
		res.ErrorMsg = err.Error()
		return res
	}

	dir := filepath.Join(output, class.Dir())
	if err := fsx.EnsureDir(fsys, dir); err != nil {
		return fail("mkdir", domain.ErrCodeMkdirFailed, err)
	}

	name, err := naming.Resolve(fsys, dir, f.Name)
	if err != nil {
		return fail("name", domain.ErrCodeNameFailed, err)
	}

	if err := fsx.CopyFile(fsys, f.AbsPath, filepath.Join(dir, name)); err != nil {
		return fail("copy", domain.ErrCodeCopyFailed, err)
	}

	// Dst 只记录真正写出的文件。
	res.Dst = filepath.Join(class.Dir(), name)
	res.Status = domain.FileStatusCopied
	log.WithFields(logrus.Fields{"src": f.RelPath, "dst": res.Dst}).Debug("已复制")
	return res
}

// classifyFile 与 classify.Classify 结果一致，额外把落入 Unsorted 的原因记为 debug 日志。
func classifyFile(fsys afero.Fs, f domain.SourceFile, log logrus.FieldLogger) domain.Classification {
	if !classify.IsSortable(f.Name) {
		return domain.UnsortedClass()
	}
	label, err := classify.YearLabel(fsys, f.AbsPath)
	if err != nil {
		log.WithFields(logrus.Fields{"src": f.RelPath, "error": err}).Debug("无法读取年份，归入 Unsorted")
		return domain.UnsortedClass()
	}
	return domain.Year(label)
}
