package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultExcludeDirs = ".git"
	defaultModel       = "gpt-4o"
	defaultGroupBy     = "ext"
	defaultFormat      = "table"
)

// Config is the resolved configuration for one run, merged from defaults,
// config file, TOKSCAN_* environment variables and flags.
type Config struct {
	// Source is the argument as given; Root is the directory actually scanned,
	// which differs when Source is a cloned Git URL.
	Source  string
	Root    string
	Workers int
	Verbose bool

	Filter FilterConfig
	// ExcludeNothing is set when the directory exclusion list was explicitly emptied.
	ExcludeNothing bool

	Model         string
	TokenizerType string
	TokenizerFile string
	Offline       bool

	Breakdown     bool
	GroupBy       string
	LanguagesFile string

	Format    string
	OutFile   string
	Clipboard bool
	PDFFile   string
}

// setDefaults registers the values used when neither flags, environment nor
// config file set a key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("exclude_dirs", defaultExcludeDirs)
	v.SetDefault("model", defaultModel)
	v.SetDefault("tokenizer", "tiktoken")
	v.SetDefault("breakdown", true)
	v.SetDefault("group_by", defaultGroupBy)
	v.SetDefault("format", defaultFormat)
	v.SetDefault("max_size", 0)
}

// buildConfig reads the merged viper state into a Config.
func buildConfig(v *viper.Viper, root string) (Config, error) {
	cfg := Config{
		Source:        root,
		Root:          root,
		Workers:       v.GetInt("workers"),
		Verbose:       v.GetBool("verbose"),
		Model:         strings.TrimSpace(v.GetString("model")),
		TokenizerType: strings.ToLower(v.GetString("tokenizer")),
		TokenizerFile: v.GetString("tokenizer_file"),
		Offline:       v.GetBool("offline"),
		Breakdown:     v.GetBool("breakdown"),
		GroupBy:       strings.ToLower(v.GetString("group_by")),
		LanguagesFile: v.GetString("languages"),
		Format:        strings.ToLower(v.GetString("format")),
		OutFile:       v.GetString("file"),
		Clipboard:     v.GetBool("clipboard"),
		PDFFile:       v.GetString("pdf"),
	}

	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}

	excludeDirs := v.GetString("exclude_dirs")
	cfg.ExcludeNothing = strings.TrimSpace(excludeDirs) == ""
	cfg.Filter = FilterConfig{
		ExcludeDirs:      parseDirList(excludeDirs),
		IncludeExts:      parseExtList(v.GetString("include_ext")),
		ExcludeExts:      parseExtList(v.GetString("exclude_ext")),
		RespectGitignore: v.GetBool("gitignore"),
		MaxSizeBytes:     v.GetInt64("max_size"),
	}
	if cfg.Filter.MaxSizeBytes < 0 {
		return Config{}, fmt.Errorf("invalid max size %d: must not be negative", cfg.Filter.MaxSizeBytes)
	}

	switch cfg.GroupBy {
	case "ext", "language":
	default:
		return Config{}, fmt.Errorf("unsupported group-by %q: use 'ext' or 'language'", cfg.GroupBy)
	}
	switch cfg.Format {
	case "table", "json", "yaml":
	default:
		return Config{}, fmt.Errorf("unsupported format %q: use 'table', 'json' or 'yaml'", cfg.Format)
	}
	return cfg, nil
}

// parseDirList splits a comma-separated list of directory names, dropping blanks.
func parseDirList(csv string) map[string]struct{} {
	dirs := make(map[string]struct{})
	for _, d := range strings.Split(csv, ",") {
		if d = strings.TrimSpace(d); d != "" {
			dirs[d] = struct{}{}
		}
	}
	return dirs
}

// parseExtList splits a comma-separated list of extensions, prepending a dot where missing.
// An empty list yields nil, which disables the filter.
func parseExtList(csv string) []string {
	var exts []string
	for _, e := range strings.Split(csv, ",") {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return exts
}
