package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/simplynarx/JPEGSort/internal/app/run"
	"github.com/simplynarx/JPEGSort/internal/config"
	"github.com/simplynarx/JPEGSort/internal/domain"
	"github.com/simplynarx/JPEGSort/internal/infra/logx"
	"github.com/simplynarx/JPEGSort/internal/report"
	"github.com/simplynarx/JPEGSort/internal/scan"
)

func main() {
	os.Exit(runCmd(os.Args[1:], os.Stdout, os.Stderr))
}

func runCmd(args []string, stdout, stderr *os.File) int {
	for _, a := range args {
		if isHelp(a) {
			printUsage(stdout)
			return 0
		}
	}

	ra, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "参数错误：%v\n\n", err)
		printUsage(stderr)
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "读取当前目录失败：%v\n", err)
		return 1
	}

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		Source:     ra.Source,
		Output:     ra.Output,
		Verbose:    ra.Verbose,
		VerboseSet: ra.VerboseSet,
		FailureLog: ra.FailureLog,
		Report:     ra.Report,
		ReportSet:  ra.ReportSet,
	})
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	log, closer, err := logx.New(logx.Options{
		Console:    stderr,
		Verbose:    eff.Verbose,
		FailureLog: eff.FailureLog,
	})
	if err != nil {
		fmt.Fprintf(stderr, "打开失败日志失败：%v\n", err)
		return 1
	}
	defer closer.Close()

	// verbose 时日志逐行输出到 stderr，会打断单行刷新的进度条，因此只保留日志。
	progressW, interactive := pickProgressWriter(stdout, stderr)
	var obs run.Observer
	if interactive && !eff.Verbose {
		obs = newProgressUI(progressW)
	}

	fsys := afero.NewOsFs()
	rr, err := run.Execute(fsys, eff, log, obs)
	if err != nil {
		log.WithField("error_code", scan.Code(err)).Error(err.Error())
		emitReport(stdout, stderr, rr)
		return 1
	}

	if eff.Report {
		written, err := report.Write(fsys, rr)
		if err != nil {
			log.WithError(err).Error("写入报告失败")
			emitReport(stdout, stderr, rr)
			return 1
		}
		if written && interactive {
			fmt.Fprintf(progressW, "report: %s\n", filepath.Join(report.Dir(eff.Output), report.HTMLName))
		}
	}

	emitReport(stdout, stderr, rr)
	if interactive {
		fmt.Fprintf(progressW, "out: %s\n", eff.Output)
	}
	// 单文件失败只记录，不影响退出码。
	return 0
}

type cliArgs struct {
	Source string
	Output string

	Verbose    bool
	VerboseSet bool

	FailureLog string

	Report    bool
	ReportSet bool
}

func parseArgs(args []string) (cliArgs, error) {
	ca := cliArgs{}
	positional := make([]string, 0, 2)

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--verbose":
			ca.Verbose, ca.VerboseSet = true, true
		case strings.HasPrefix(a, "--verbose="):
			v, err := parseBool("--verbose", strings.TrimPrefix(a, "--verbose="))
			if err != nil {
				return cliArgs{}, err
			}
			ca.Verbose, ca.VerboseSet = v, true
		case a == "--report":
			ca.Report, ca.ReportSet = true, true
		case strings.HasPrefix(a, "--report="):
			v, err := parseBool("--report", strings.TrimPrefix(a, "--report="))
			if err != nil {
				return cliArgs{}, err
			}
			ca.Report, ca.ReportSet = v, true
		case a == "--failure-log":
			if i+1 >= len(args) {
				return cliArgs{}, fmt.Errorf("--failure-log 需要一个值")
			}
			i++
			ca.FailureLog = args[i]
		case strings.HasPrefix(a, "--failure-log="):
			ca.FailureLog = strings.TrimPrefix(a, "--failure-log=")
			if ca.FailureLog == "" {
				return cliArgs{}, fmt.Errorf("--failure-log 不能为空")
			}
		case strings.HasPrefix(a, "-") && a != "-":
			return cliArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			positional = append(positional, a)
		}
	}

	switch len(positional) {
	case 0:
	case 1:
		ca.Source = positional[0]
	case 2:
		ca.Source, ca.Output = positional[0], positional[1]
	default:
		return cliArgs{}, fmt.Errorf("最多两个位置参数（源目录、输出目录），实际 %d 个", len(positional))
	}
	return ca, nil
}

func parseBool(flag, v string) (bool, error) {
	switch v {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("%s 只能是 true 或 false，实际是 %q", flag, v)
	}
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `用法：
  photosort [source] [output] [--verbose] [--failure-log=PATH] [--report]

把 source 下的所有文件复制到 output/<年份>/ 或 output/Unsorted/（不移动、不覆盖）。

参数：
  source         源目录（默认 "."）
  output         输出目录（默认 <source>/Output）
  --verbose      输出全部日志（含每个文件的归类与失败原因）
  --failure-log  把单文件失败追加写入指定文件
  --report       在 <output>/.photosort/ 下写入 report.json 与 report.html
  -h, --help     显示帮助

可选配置文件：<source>/photosort.json（CLI 参数优先）
`)
}

func emitReport(stdout, stderr *os.File, rr domain.RunReport) {
	if !isTTY(stdout) {
		// stdout 非 TTY：stdout 只输出一个 RunReport JSON（日志/摘要走 stderr）。
		enc := json.NewEncoder(stdout)
		_ = enc.Encode(rr)
	} else if rr.Summary.Failed > 0 {
		for _, it := range rr.Items {
			if it.Status != domain.FileStatusFailed {
				continue
			}
			fmt.Fprintf(stderr, "%s %s: %s\n", it.Src, it.ErrorCode, it.ErrorMsg)
		}
	}
	fmt.Fprintf(stderr, "完成：total=%d sorted=%d unsorted=%d failed=%d\n",
		rr.Summary.Total, rr.Summary.Sorted, rr.Summary.Unsorted, rr.Summary.Failed,
	)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter(stdout, stderr *os.File) (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(stderr) {
		return stderr, true
	}
	if isTTY(stdout) {
		return stdout, true
	}
	return nil, false
}
