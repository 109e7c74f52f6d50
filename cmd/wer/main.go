package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chaz8081/gostt-wer/internal/batch"
	"github.com/chaz8081/gostt-wer/internal/config"
	"github.com/chaz8081/gostt-wer/internal/metrics"
	"github.com/chaz8081/gostt-wer/internal/transcript"
	"github.com/chaz8081/gostt-wer/internal/watch"
	"github.com/chaz8081/gostt-wer/internal/wer"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

const emptyMessage = "Error: one or both of the transcription files are empty"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// options are the parsed command-line flags.
type options struct {
	configPath string
	initConfig bool
	raw        bool
	strip      bool
	precision  int
	detail     bool
	batchPath  string
	format     string
	workers    int
	metrics    string
	watch      bool
	args       []string
	set        map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("wer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: wer [flags] [reference hypothesis]")
		fmt.Fprintln(stderr, "  Word error rate of a hypothesis transcript against a reference.")
		fmt.Fprintln(stderr, "  With no arguments the two file paths are read from stdin.")
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}

	o := &options{}
	fs.StringVar(&o.configPath, "config", "", "path to config file (default: ~/.config/gostt-wer/config.yaml)")
	fs.BoolVar(&o.initConfig, "init-config", false, "write the default config file and exit")
	fs.BoolVar(&o.raw, "raw", false, "compare raw whitespace-separated words (no lowercasing or punctuation stripping)")
	fs.BoolVar(&o.strip, "strip-timestamps", false, "ignore \"[start - end]\" line prefixes written by srt2txt (normalized mode only)")
	fs.IntVar(&o.precision, "precision", 0, "significant digits for WER output (default from config)")
	fs.BoolVar(&o.detail, "detail", false, "print substitutions, insertions and deletions")
	fs.StringVar(&o.batchPath, "batch", "", "score every pair in a TSV manifest (id, reference, hypothesis[, audio.wav])")
	fs.StringVar(&o.format, "format", batch.FormatText, "batch report format: text, json or yaml")
	fs.IntVar(&o.workers, "workers", 0, "parallel workers for -batch (default from config)")
	fs.StringVar(&o.metrics, "metrics-textfile", "", "write Prometheus metrics to this file after scoring")
	fs.BoolVar(&o.watch, "watch", false, "re-score whenever either transcript changes")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.args = fs.Args()
	o.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if opts.initConfig {
		path, err := config.WriteDefault()
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFail
		}
		if path == "" {
			fmt.Fprintf(stdout, "Config already exists at %s\n", config.DefaultConfigPath())
		} else {
			fmt.Fprintf(stdout, "Wrote default config to %s\n", path)
		}
		return exitOK
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: config: %v\n", err)
		return exitFail
	}
	applyFlags(cfg, opts)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: config validation: %v\n", err)
		return exitFail
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	})))

	var exporter *metrics.Exporter
	if cfg.Metrics.Textfile != "" {
		exporter = metrics.New()
	}

	if opts.batchPath != "" {
		return runBatch(ctx, cfg, opts, exporter, stdout, stderr)
	}

	var refPath, hypPath string
	switch len(opts.args) {
	case 0:
		refPath, hypPath, err = prompt(stdin, stdout)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFail
		}
	case 2:
		refPath, hypPath = opts.args[0], opts.args[1]
	default:
		fmt.Fprintln(stderr, "Error: expected a reference and a hypothesis path")
		return exitUsage
	}

	code := comparePair(cfg, opts.detail, exporter, refPath, hypPath, stdout, stderr)
	if !opts.watch {
		return code
	}

	slog.Info("watching transcripts", "reference", refPath, "hypothesis", hypPath)
	err = watch.Run(ctx, []string{refPath, hypPath}, watch.DefaultDebounce, func() {
		comparePair(cfg, opts.detail, exporter, refPath, hypPath, stdout, stderr)
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFail
	}
	return exitOK
}

// applyFlags lets explicitly set flags override config file values.
func applyFlags(cfg *config.Config, o *options) {
	if o.raw {
		cfg.Normalize = false
	}
	if o.strip {
		cfg.StripTimestamps = true
	}
	if o.set["precision"] {
		cfg.Precision = o.precision
	}
	if o.set["workers"] {
		cfg.Batch.Workers = o.workers
	}
	if o.set["metrics-textfile"] {
		cfg.Metrics.Textfile = o.metrics
	}
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		return cfg, nil
	}

	return config.Default(), nil
}

// prompt asks for the two transcript paths on stdin.
func prompt(stdin io.Reader, stdout io.Writer) (string, string, error) {
	r := bufio.NewReader(stdin)
	ask := func(q string) (string, error) {
		fmt.Fprint(stdout, q)
		line, err := r.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" {
			if err == nil || errors.Is(err, io.EOF) {
				return "", errors.New("no file path given")
			}
			return "", fmt.Errorf("reading file path: %w", err)
		}
		return line, nil
	}

	ref, err := ask("Enter the path to the original transcription file: ")
	if err != nil {
		return "", "", err
	}
	hyp, err := ask("Enter the path to the target transcription file: ")
	if err != nil {
		return "", "", err
	}
	return ref, hyp, nil
}

// comparePair scores one reference/hypothesis pair and prints the result.
// Every outcome, failures included, is reflected in the metrics textfile.
func comparePair(cfg *config.Config, detail bool, exporter *metrics.Exporter, refPath, hypPath string, stdout, stderr io.Writer) int {
	id := filepath.Base(hypPath)
	res, err := scoreFiles(cfg, refPath, hypPath)
	if err != nil {
		if errors.Is(err, wer.ErrEmptyTokens) {
			fmt.Fprintln(stderr, emptyMessage)
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		if exporter != nil {
			exporter.ObserveFailure(id)
			exportMetrics(exporter, cfg.Metrics.Textfile)
		}
		return exitFail
	}

	fmt.Fprintln(stdout, wer.Sentence(res.WER, cfg.Precision))
	if detail {
		fmt.Fprintf(stdout, "  Substitutions: %d\n", res.Substitutions)
		fmt.Fprintf(stdout, "  Insertions:    %d\n", res.Insertions)
		fmt.Fprintf(stdout, "  Deletions:     %d\n", res.Deletions)
		fmt.Fprintf(stdout, "  Reference:     %d words\n", res.RefWords)
		fmt.Fprintf(stdout, "  Hypothesis:    %d words\n", res.HypWords)
	}

	if exporter != nil {
		exporter.ObservePair(id, res)
		exportMetrics(exporter, cfg.Metrics.Textfile)
	}
	return exitOK
}

func scoreFiles(cfg *config.Config, refPath, hypPath string) (wer.Result, error) {
	mode := cfg.Mode()

	ref, err := transcript.ReadTokens(refPath, mode, cfg.StripTimestamps)
	if err != nil {
		return wer.Result{}, err
	}
	hyp, err := transcript.ReadTokens(hypPath, mode, cfg.StripTimestamps)
	if err != nil {
		return wer.Result{}, err
	}
	switch {
	case len(ref) == 0:
		return wer.Result{}, &wer.EmptyInputError{Side: "reference"}
	case len(hyp) == 0:
		return wer.Result{}, &wer.EmptyInputError{Side: "hypothesis"}
	}

	res, err := wer.Compute(ref, hyp)
	if err != nil {
		return wer.Result{}, err
	}
	slog.Debug("scored", "mode", mode.String(), "distance", res.Distance, "ref_words", res.RefWords, "hyp_words", res.HypWords)
	return res, nil
}

func exportMetrics(exporter *metrics.Exporter, path string) {
	if err := exporter.WriteTextfile(path); err != nil {
		slog.Error("metrics export failed", "path", path, "error", err)
	}
}

func runBatch(ctx context.Context, cfg *config.Config, o *options, exporter *metrics.Exporter, stdout, stderr io.Writer) int {
	if len(o.args) != 0 {
		fmt.Fprintln(stderr, "Error: -batch takes no positional arguments")
		return exitUsage
	}

	switch o.format {
	case batch.FormatText, batch.FormatJSON, batch.FormatYAML:
	default:
		fmt.Fprintf(stderr, "Error: -format must be text, json or yaml, got %q\n", o.format)
		return exitUsage
	}

	pairs, err := batch.LoadManifest(o.batchPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFail
	}
	slog.Info("scoring manifest", "manifest", o.batchPath, "pairs", len(pairs), "workers", cfg.Batch.Workers)

	report, err := batch.Score(ctx, pairs, batch.Options{
		Workers:         cfg.Batch.Workers,
		Mode:            cfg.Mode(),
		StripTimestamps: cfg.StripTimestamps,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFail
	}

	if err := batch.Write(stdout, report, o.format, cfg.Precision); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFail
	}

	if exporter != nil {
		exporter.ObserveReport(report)
		exportMetrics(exporter, cfg.Metrics.Textfile)
	}

	slog.Info("batch complete", "run", report.RunID, "corpus_wer", report.CorpusWER, "failed", report.Failed, "elapsed", report.Elapsed)
	if report.Failed > 0 {
		return exitFail
	}
	return exitOK
}
