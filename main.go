package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	errNotDirectory = errors.New("not a directory")
	errInterrupted  = errors.New("process interrupted by user")
)

var cfgFile string

// version is the application version, set via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "tokscan DIRECTORY",
	Short: "Count LLM tokens in a codebase.",
	Long: `tokscan walks a directory tree, picks out the text files, and counts
how many tokens they take up for a given model, optionally broken down
per file extension or language.

A remote Git URL can be given instead of a directory; it is cloned into
a temporary directory first.`,
	Version:       version,
	Args:          validateRootArg,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := buildConfig(viper.GetViper(), args[0])
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		logger := newLogger(cfg.Verbose)
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if isGitURL(cfg.Source) {
			tempDir, err := cloneGitRepo(ctx, cfg.Source, os.Stderr)
			if err != nil {
				return interruptedOr(ctx, err)
			}
			defer func() {
				if ctx.Err() != nil {
					logger.Info("run interrupted, removing cloned repository", zap.String("path", tempDir))
				} else {
					logger.Debug("cleaning up temporary directory", zap.String("path", tempDir))
				}
				_ = os.RemoveAll(tempDir)
			}()
			cfg.Root = tempDir
		}

		tokenizer, err := getTokenizer(cfg, os.Stderr)
		if err != nil {
			return fmt.Errorf("error initializing tokenizer: %w", err)
		}
		defer tokenizer.Close()

		err = runScan(ctx, cfg, afero.NewOsFs(), tokenizer, logger, os.Stdout, os.Stderr)
		return interruptedOr(ctx, err)
	},
}

// interruptedOr maps a cancelled run to errInterrupted and passes other errors through.
func interruptedOr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", errInterrupted, err)
	}
	return err
}

// validateRootArg accepts exactly one existing directory or remote Git URL.
func validateRootArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	if isGitURL(args[0]) {
		return nil
	}
	info, err := os.Stat(args[0])
	if err != nil {
		return fmt.Errorf("directory %s does not exist: %w", args[0], err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", args[0], errNotDirectory)
	}
	return nil
}

// runScan is the pipeline: traverse, distribute, aggregate, report.
func runScan(ctx context.Context, cfg Config, fsys afero.Fs, tokenizer Tokenizer, logger *zap.Logger, stdout, stderr io.Writer) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ExcludeNothing {
		fmt.Fprintln(stderr, "No directories are being excluded. Including all directories, including .git.")
	}

	labeler, groupBy := selectLabeler(cfg, logger)

	fmt.Fprintf(stderr, "Scanning directory: %s\n", cfg.Source)
	files, err := NewWalker(fsys, cfg.Filter, logger).Enumerate(ctx, cfg.Root)
	if err != nil {
		return err
	}
	fmt.Fprintf(stderr, "Found %d text file(s) to process.\n", len(files))
	if len(files) == 0 {
		fmt.Fprintln(stderr, "No text files found. Exiting.")
		return nil
	}

	adapter := NewTokenAdapter(fsys, tokenizer, labeler, logger).WithContext(ctx)
	stream := NewDistributor(cfg.Workers, logger).Distribute(ctx, files, adapter.Tokenize)

	var onProgress func(Progress)
	if cfg.Verbose {
		onProgress = func(p Progress) {
			logger.Info(fmt.Sprintf("Processed %s/%s files. Current token count: %s",
				formatNumber(p.Processed), formatNumber(p.Total), formatNumber(p.Tokens)))
		}
	}

	report, err := NewAggregator(cfg.Breakdown, onProgress).Consume(ctx, stream, len(files))
	if err != nil {
		return fmt.Errorf("token counting failed: %w", err)
	}
	report.Root = cfg.Source
	report.Model = cfg.Model
	report.Encoding = tokenizer.Name()
	if report.Breakdown {
		report.GroupBy = groupBy
	}

	return writeReport(report, cfg, stdout, stderr)
}

// selectLabeler picks the breakdown labeler. Language grouping falls back to
// extensions when no languages.yml can be loaded.
func selectLabeler(cfg Config, logger *zap.Logger) (Labeler, string) {
	if !cfg.Breakdown {
		return nil, ""
	}
	if cfg.GroupBy == "language" {
		langData, err := loadLanguageData(cfg.LanguagesFile)
		if err == nil {
			return languageLabeler(langData), "language"
		}
		logger.Warn("could not load language definitions, grouping by extension", zap.Error(err))
	}
	return extensionLabel, "ext"
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/tokscan/config.toml)")

	// Processing
	rootCmd.Flags().IntP("workers", "w", runtime.NumCPU(), "Number of parallel workers (default: number of CPU cores)")
	viper.BindPFlag("workers", rootCmd.Flags().Lookup("workers"))
	rootCmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")
	viper.BindPFlag("verbose", rootCmd.Flags().Lookup("verbose"))

	// Filtering
	rootCmd.Flags().StringP("exclude-dirs", "e", defaultExcludeDirs, "Comma-separated list of directories to exclude. Use empty string to include all directories")
	viper.BindPFlag("exclude_dirs", rootCmd.Flags().Lookup("exclude-dirs"))
	rootCmd.Flags().StringP("include-ext", "i", "", "Comma-separated list of file extensions to include (e.g., .py,.go)")
	viper.BindPFlag("include_ext", rootCmd.Flags().Lookup("include-ext"))
	rootCmd.Flags().StringP("exclude-ext", "x", "", "Comma-separated list of file extensions to exclude (e.g., .md,.txt)")
	viper.BindPFlag("exclude_ext", rootCmd.Flags().Lookup("exclude-ext"))
	rootCmd.Flags().Bool("gitignore", false, "Respect the .gitignore file at the root of the directory")
	viper.BindPFlag("gitignore", rootCmd.Flags().Lookup("gitignore"))
	rootCmd.Flags().Int64P("max-size", "s", 0, "Skip files larger than this many bytes (0 for no limit)")
	viper.BindPFlag("max_size", rootCmd.Flags().Lookup("max-size"))

	// Tokenizer
	rootCmd.Flags().StringP("model", "m", defaultModel, "Model to use for tokenization (e.g., gpt-3.5-turbo, gpt-4, gpt-4o)")
	viper.BindPFlag("model", rootCmd.Flags().Lookup("model"))
	rootCmd.Flags().String("tokenizer", "tiktoken", "Tokenizer to use: tiktoken or huggingface")
	viper.BindPFlag("tokenizer", rootCmd.Flags().Lookup("tokenizer"))
	rootCmd.Flags().String("tokenizer-file", "", "Path to a local HuggingFace tokenizer.json")
	viper.BindPFlag("tokenizer_file", rootCmd.Flags().Lookup("tokenizer-file"))
	rootCmd.Flags().Bool("offline", false, "Use the embedded tiktoken encodings instead of downloading them (gpt-4o and other o200k_base models are not embedded)")
	viper.BindPFlag("offline", rootCmd.Flags().Lookup("offline"))

	// Report
	rootCmd.Flags().Bool("breakdown", true, "Break token counts down per extension (--breakdown=false prints totals only)")
	viper.BindPFlag("breakdown", rootCmd.Flags().Lookup("breakdown"))
	rootCmd.Flags().String("group-by", defaultGroupBy, "Breakdown key: ext or language")
	viper.BindPFlag("group_by", rootCmd.Flags().Lookup("group-by"))
	rootCmd.Flags().String("languages", "", "Path to languages.yml used by --group-by language")
	viper.BindPFlag("languages", rootCmd.Flags().Lookup("languages"))
	rootCmd.Flags().String("format", defaultFormat, "Output format: table, json, or yaml")
	viper.BindPFlag("format", rootCmd.Flags().Lookup("format"))

	// Output destination
	rootCmd.Flags().StringP("file", "f", "", "Save output to specified file")
	viper.BindPFlag("file", rootCmd.Flags().Lookup("file"))
	rootCmd.Flags().BoolP("clipboard", "c", false, "Copy output to clipboard")
	viper.BindPFlag("clipboard", rootCmd.Flags().Lookup("clipboard"))
	rootCmd.Flags().String("pdf", "", "Save the report as PDF")
	viper.BindPFlag("pdf", rootCmd.Flags().Lookup("pdf"))

	setDefaults(viper.GetViper())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "tokscan"))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("TOKSCAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv() // read in environment variables that match TOKSCAN_*

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errInterrupted) {
			fmt.Fprintln(os.Stderr, "Process interrupted by user. Terminating...")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
