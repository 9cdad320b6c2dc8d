package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/csheth/paperchunk/internal/config"
	"github.com/csheth/paperchunk/internal/ledger"
	"github.com/csheth/paperchunk/internal/llm"
	"github.com/csheth/paperchunk/internal/logging"
	"github.com/csheth/paperchunk/internal/output"
	"github.com/csheth/paperchunk/internal/pdftext"
	"github.com/csheth/paperchunk/internal/pipeline"
	"github.com/csheth/paperchunk/internal/source"
	"github.com/csheth/paperchunk/internal/tui"
)

type flags struct {
	configPath  string
	folder      string
	list        string
	interactive bool
	noAltScreen bool
	noLedger    bool
	logFile     string

	output        string
	mode          string
	workers       int
	pattern       string
	targetChars   int
	maxTokens     int
	charsPerToken int
	only          []string
	httpTimeout   time.Duration
	cacheDir      string
	noArxivMeta   bool
	literal       bool
	summarize     string
	llmProvider   string
	llmModel      string
	llmEndpoint   string
	logLevel      string
	logJSON       bool
}

// failure carries an error that has already been reported to the user.
type failure struct{ err error }

func (f failure) Error() string { return f.err.Error() }
func (f failure) Unwrap() error { return f.err }

func execute(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		var reported failure
		if !errors.As(err, &reported) {
			printFailure(stderr, err)
		}
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "paperchunk [url | arxiv-id | path]",
		Short: "Split research papers into prompt-sized chunks for LLMs",
		Long: `paperchunk downloads or reads a research paper PDF, extracts and cleans its
text, splits it into chunks that fit an LLM context window and writes one
prompt file per chunk and prompt template, plus an index.

Examples:
  paperchunk https://arxiv.org/abs/1706.03762
  paperchunk 1706.03762 --mode auto
  paperchunk ./papers/attention.pdf --output ./prompts
  paperchunk --folder ./papers --pattern "**/*.pdf" --workers 8
  paperchunk --list reading-list.txt
  paperchunk --interactive`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f, args, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "config file (default ~/.paperchunk/config.yaml or $PAPERCHUNK_CONFIG)")
	pf.StringVarP(&f.output, "output", "o", "", "root directory for output folders and the run ledger")

	fl := cmd.Flags()
	fl.StringVar(&f.folder, "folder", "", "process every PDF in this folder")
	fl.StringVar(&f.list, "list", "", "process every source listed in this file, one per line")
	fl.BoolVarP(&f.interactive, "interactive", "i", false, "prompt for a source in the terminal")
	fl.BoolVar(&f.noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer in interactive mode")
	fl.BoolVar(&f.noLedger, "no-ledger", false, "do not record the run in "+ledger.FileName)
	fl.StringVar(&f.logFile, "log-file", "", "append logs to this file instead of stderr")

	fl.StringVarP(&f.mode, "mode", "m", "", "chunked, combined or auto (default chunked for one paper, auto for batches)")
	fl.IntVarP(&f.workers, "workers", "w", 0, "papers processed in parallel in batch mode")
	fl.StringVar(&f.pattern, "pattern", "", "glob used with --folder, ** recurses (default *.pdf)")
	fl.IntVar(&f.targetChars, "target-chars", 0, "target chunk size in characters")
	fl.IntVar(&f.maxTokens, "max-tokens", 0, "model context budget in tokens")
	fl.IntVar(&f.charsPerToken, "chars-per-token", 0, "characters per token estimate")
	fl.StringSliceVar(&f.only, "only", nil, "only emit these template keys")
	fl.DurationVar(&f.httpTimeout, "timeout", 0, "HTTP timeout per download")
	fl.StringVar(&f.cacheDir, "cache-dir", "", "download cache directory")
	fl.BoolVar(&f.noArxivMeta, "no-arxiv-metadata", false, "skip the arXiv API title lookup")
	fl.BoolVar(&f.literal, "literal-normalize", false, "collapse all whitespace before detecting paragraphs")
	fl.StringVar(&f.summarize, "summarize", "", "send this template with every chunk to an LLM and save the replies")
	fl.StringVar(&f.llmProvider, "llm-provider", "", "ollama or openai")
	fl.StringVar(&f.llmModel, "llm-model", "", "LLM model name")
	fl.StringVar(&f.llmEndpoint, "llm-endpoint", "", "LLM endpoint, eg. http://localhost:11434")
	fl.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fl.BoolVar(&f.logJSON, "log-json", false, "log as JSON")

	cmd.MarkFlagsMutuallyExclusive("folder", "list", "interactive")
	cmd.AddCommand(newRunsCmd(f, stdout))
	return cmd
}

// loadConfig layers explicitly set flags over the file and environment.
func loadConfig(cmd *cobra.Command, f *flags) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}
	fl := cmd.Flags()
	if fl.Changed("output") {
		cfg.OutputDir = f.output
	}
	if fl.Changed("mode") {
		cfg.Mode = config.Mode(strings.ToLower(f.mode))
	}
	if fl.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fl.Changed("pattern") {
		cfg.Pattern = f.pattern
	}
	if fl.Changed("target-chars") {
		cfg.TargetChars = f.targetChars
	}
	if fl.Changed("max-tokens") {
		cfg.MaxTokens = f.maxTokens
	}
	if fl.Changed("chars-per-token") {
		cfg.CharsPerToken = f.charsPerToken
	}
	if fl.Changed("only") {
		cfg.Only = f.only
	}
	if fl.Changed("timeout") {
		cfg.HTTPTimeout = f.httpTimeout
	}
	if fl.Changed("cache-dir") {
		cfg.CacheDir = f.cacheDir
	}
	if fl.Changed("no-arxiv-metadata") {
		cfg.ArxivMetadata = !f.noArxivMeta
	}
	if fl.Changed("literal-normalize") {
		cfg.LiteralNormalize = f.literal
	}
	if fl.Changed("summarize") {
		cfg.LLM.Summarize = f.summarize
	}
	if fl.Changed("llm-provider") {
		cfg.LLM.Provider = f.llmProvider
	}
	if fl.Changed("llm-model") {
		cfg.LLM.Model = f.llmModel
	}
	if fl.Changed("llm-endpoint") {
		cfg.LLM.Endpoint = f.llmEndpoint
	}
	if fl.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if fl.Changed("log-json") {
		cfg.Log.JSON = f.logJSON
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config, f *flags, interactive bool, stderr io.Writer) (logging.Logger, func(), error) {
	out := stderr
	closeFn := func() {}
	switch {
	case f.logFile != "":
		file, err := os.OpenFile(f.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, closeFn, fmt.Errorf("open log file: %w", err)
		}
		out = file
		closeFn = func() { _ = file.Close() }
	case interactive:
		// Anything on stderr would tear the TUI frames.
		out = io.Discard
	}
	return logging.New(logging.Config{Level: logging.Level(cfg.Log.Level), JSON: cfg.Log.JSON, Output: out}), closeFn, nil
}

func newProcessor(cfg config.Config, log logging.Logger) (*pipeline.Processor, error) {
	fetcher, err := source.New(source.Options{
		CacheDir:  cfg.CacheDir,
		Timeout:   cfg.HTTPTimeout,
		UserAgent: cfg.UserAgent,
		Metadata:  cfg.ArxivMetadata,
	})
	if err != nil {
		return nil, err
	}
	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	proc := pipeline.New(fetcher, pdftext.New(), output.NewWriter(cfg.OutputDir), opts, log)
	if strings.TrimSpace(cfg.LLM.Summarize) != "" {
		client, err := llm.NewFromEnv(llm.Config{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			Endpoint: cfg.LLM.Endpoint,
		})
		if err != nil {
			log.Warn("LLM disabled", "err", err)
		} else {
			proc.WithLLM(client)
		}
	}
	return proc, nil
}

func run(cmd *cobra.Command, f *flags, args []string, stdout, stderr io.Writer) error {
	interactive := f.interactive || (len(args) == 0 && f.folder == "" && f.list == "")
	if len(args) > 0 && (f.folder != "" || f.list != "" || f.interactive) {
		return fmt.Errorf("%w: pass either a source or one of --folder, --list, --interactive", config.ErrInvalid)
	}

	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cfg, f, interactive, stderr)
	if err != nil {
		return err
	}
	defer closeLog()
	if cfg.Path != "" {
		log.Debug("loaded config", "path", cfg.Path)
	}

	proc, err := newProcessor(cfg, log)
	if err != nil {
		return err
	}
	ctx := logging.WithContext(cmd.Context(), log)

	switch {
	case interactive:
		return runInteractive(ctx, cfg, f, proc, log)
	case f.folder != "" || f.list != "":
		return runBatch(ctx, cfg, f, proc, stdout, stderr)
	default:
		return runSingle(ctx, cfg, f, proc, args[0], stdout, stderr)
	}
}

func runSingle(ctx context.Context, cfg config.Config, f *flags, proc *pipeline.Processor, src string, stdout, stderr io.Writer) error {
	rp := recordingProcessor{proc: proc, cfg: cfg, flags: f}
	out, err := rp.Process(ctx, src, cfg.ResolvedMode(config.ModeChunked))
	if err != nil {
		printFailure(stderr, err)
		return failure{err: err}
	}
	printOutcome(stdout, out)
	return nil
}

func runBatch(ctx context.Context, cfg config.Config, f *flags, proc *pipeline.Processor, stdout, stderr io.Writer) error {
	var (
		run  ledger.Run
		err  error
		mode = cfg.ResolvedMode(config.ModeAuto)
	)
	if f.folder != "" {
		run, err = proc.ProcessFolder(ctx, f.folder, mode)
	} else {
		var sources []string
		sources, err = pipeline.ReadList(f.list)
		if err == nil {
			run, err = proc.ProcessBatch(ctx, sources, mode)
		}
	}
	if len(run.Papers) > 0 {
		recordRun(ctx, cfg, f, run)
		printRun(stdout, run)
	}
	if err != nil {
		printFailure(stderr, err)
		return failure{err: err}
	}
	return nil
}

func runInteractive(ctx context.Context, cfg config.Config, f *flags, proc *pipeline.Processor, log logging.Logger) error {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if !f.noAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(tui.New(tui.Config{
		Processor: recordingProcessor{proc: proc, cfg: cfg, flags: f},
		Mode:      cfg.ResolvedMode(config.ModeChunked),
		Logger:    log,
	}), opts...)
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

// recordingProcessor appends every single-paper run to the ledger.
type recordingProcessor struct {
	proc  *pipeline.Processor
	cfg   config.Config
	flags *flags
}

func (r recordingProcessor) Process(ctx context.Context, src string, mode config.Mode) (pipeline.Outcome, error) {
	run := ledger.NewRun(time.Now())
	out, err := r.proc.Process(ctx, src, mode)
	if err != nil {
		run.Papers = []ledger.Paper{{Source: src, Status: ledger.ErrorStatus(err)}}
	} else {
		rec := out.Record()
		rec.Source = src
		run.Papers = []ledger.Paper{rec}
	}
	run.FinishedAt = time.Now()
	recordRun(ctx, r.cfg, r.flags, run)
	return out, err
}

func recordRun(ctx context.Context, cfg config.Config, f *flags, run ledger.Run) {
	if f.noLedger {
		return
	}
	path := ledger.Path(cfg.OutputDir)
	if err := ledger.Append(path, run); err != nil {
		logging.FromContext(ctx).Warn("could not update run ledger", "path", path, "err", err)
	}
}
