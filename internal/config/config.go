package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// FileName 是源目录下可选配置文件的固定文件名。
	FileName = "photosort.json"
	// DefaultOutputName 是输出目录未指定时，在源目录下使用的子目录名。
	DefaultOutputName = "Output"
	// DefaultSource 是未指定源目录时使用的路径（相对 cwd）。
	DefaultSource = "."
)

// CLIArgs 保留"是否显式指定"的信息，保证 --verbose=false 能覆盖配置文件中的 true。
// Source/Output/FailureLog 为空串即视为未指定。
type CLIArgs struct {
	Source string
	Output string

	Verbose    bool
	VerboseSet bool

	FailureLog string

	Report    bool
	ReportSet bool
}

// FileConfig 对应 photosort.json 的解析结构。
type FileConfig struct {
	Output      string   `json:"output"`
	Verbose     *bool    `json:"verbose"`
	FailureLog  string   `json:"failure_log"`
	Report      *bool    `json:"report"`
	ExcludeDirs []string `json:"exclude_dirs"`
}

// EffectiveConfig 是合并并规范化后的最终配置，路径均为 clean + absolute。
type EffectiveConfig struct {
	Source string
	Output string

	Verbose    bool
	FailureLog string
	Report     bool

	ExcludeDirs []string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
	}
	return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 读取 <source>/photosort.json（可选），并与 CLI 参数合并为最终配置。
//
// 覆盖优先级（固定）：
// - output：CLI > config > <source>/Output
// - verbose/report：CLI 显式指定 > config > 默认 false
// - failure_log：CLI > config > 不写
// - exclude_dirs：仅由 config 控制
//
// CLI 中的相对路径基于 cwd；配置文件中的相对路径基于 source。
// 源目录是否存在不在这里检查：那是扫描阶段的结构性错误。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	src := cli.Source
	if strings.TrimSpace(src) == "" {
		src = DefaultSource
	}
	source := absCleanFrom(cwdAbs, src)

	cfgPath := filepath.Join(source, FileName)
	var fc FileConfig
	// 源目录不存在/不是目录时跳过配置文件，让扫描阶段报告结构性错误。
	if fi, err := os.Stat(source); err == nil && fi.IsDir() {
		fc, _, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
	}
	return merge(cwdAbs, source, cli, fc, cfgPath)
}

func merge(cwdAbs, source string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	output := filepath.Join(source, DefaultOutputName)
	switch {
	case strings.TrimSpace(cli.Output) != "":
		output = absCleanFrom(cwdAbs, cli.Output)
	case strings.TrimSpace(fc.Output) != "":
		output = absCleanFrom(source, fc.Output)
	}
	if output == source {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("输出目录不能与源目录相同：%q", output)}
	}

	verbose := false
	if cli.VerboseSet {
		verbose = cli.Verbose
	} else if fc.Verbose != nil {
		verbose = *fc.Verbose
	}

	report := false
	if cli.ReportSet {
		report = cli.Report
	} else if fc.Report != nil {
		report = *fc.Report
	}

	failureLog := ""
	switch {
	case strings.TrimSpace(cli.FailureLog) != "":
		failureLog = absCleanFrom(cwdAbs, cli.FailureLog)
	case strings.TrimSpace(fc.FailureLog) != "":
		failureLog = absCleanFrom(source, fc.FailureLog)
	}

	excludes := make([]string, 0, len(fc.ExcludeDirs))
	for _, x := range fc.ExcludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			excludes = append(excludes, filepath.Clean(x))
			continue
		}
		if c := filepath.Clean(x); c == ".." || strings.HasPrefix(c, ".."+string(filepath.Separator)) {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("exclude_dirs 不能指向源目录之外：%q", x)}
		}
		excludes = append(excludes, filepath.Clean(x))
	}

	return EffectiveConfig{
		Source:      source,
		Output:      output,
		Verbose:     verbose,
		FailureLog:  failureLog,
		Report:      report,
		ExcludeDirs: excludes,
	}, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
