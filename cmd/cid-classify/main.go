// Command cid-classify classifies the Quadro III records of one or more
// health declaration PDFs and prints a summary table per file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-smartcid/internal/catalog"
	"github.com/a3tai/mcp-smartcid/internal/config"
	"github.com/a3tai/mcp-smartcid/internal/export"
	"github.com/a3tai/mcp-smartcid/internal/logging"
	"github.com/a3tai/mcp-smartcid/internal/pdf"
	"github.com/a3tai/mcp-smartcid/internal/pipeline"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

type options struct {
	catalogPath string
	xlsxDir     string
	format      string
	workers     int
	logLevel    string
	maxFileSize int64
	files       []string
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := pflag.NewFlagSet("cid-classify", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: cid-classify [options] file.pdf...\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nEnvironment variables use the %s_ prefix, e.g. %s_CATALOG.\n",
			config.EnvPrefix, config.EnvPrefix)
	}

	fs.String("catalog", "", "YAML catalog file (uses the embedded catalog if empty)")
	fs.String("xlsx", "", "Directory to write one spreadsheet per file")
	fs.String("format", formatText, "Output format (text, json)")
	fs.Int("workers", runtime.NumCPU(), "Number of files processed at once")
	fs.String("loglevel", "warn", "Log level (debug, info, warn, error)")
	fs.Int64("maxfilesize", config.DefaultMaxFileSize, "Maximum PDF file size in bytes")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	opts := &options{
		catalogPath: v.GetString("catalog"),
		xlsxDir:     v.GetString("xlsx"),
		format:      v.GetString("format"),
		workers:     v.GetInt("workers"),
		logLevel:    v.GetString("loglevel"),
		maxFileSize: v.GetInt64("maxfilesize"),
		files:       fs.Args(),
	}

	if len(opts.files) == 0 {
		fs.Usage()
		return nil, fmt.Errorf("no input files")
	}
	if opts.format != formatText && opts.format != formatJSON {
		return nil, fmt.Errorf("invalid format: %s (must be one of: text, json)", opts.format)
	}
	if opts.workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", opts.workers)
	}

	return opts, nil
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	logger := logging.NewOrNop(opts.logLevel, true)
	defer logger.Sync() //nolint:errcheck

	cat, err := loadCatalog(opts.catalogPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to load catalog: %v\n", err)
		return exitFailed
	}

	service := pipeline.New(
		pdf.NewExtractor(opts.maxFileSize, logger),
		cat,
		pipeline.WithLogger(logger),
		pipeline.WithWorkers(opts.workers),
	)

	results := classify(ctx, service, pdf.NewValidator(opts.maxFileSize), opts.files)

	if err := write(stdout, opts.format, results); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}

	if opts.xlsxDir != "" {
		if err := saveAll(opts.xlsxDir, results, stderr, logger); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFailed
		}
	}

	for _, res := range results {
		if res.Status == pipeline.StatusFailed {
			return exitFailed
		}
	}
	return exitOK
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

// classify reads every file and runs the readable ones as one batch.
// Results keep the order of files.
func classify(ctx context.Context, service *pipeline.Service, validator *pdf.Validator, files []string) []*pipeline.Result {
	results := make([]*pipeline.Result, len(files))

	var inputs []pipeline.Input
	var slots []int
	for i, file := range files {
		data, err := validator.ReadFile(file)
		if err != nil {
			results[i] = pipeline.FailedResult(filepath.Base(file), err)
			continue
		}
		inputs = append(inputs, pipeline.Input{Filename: filepath.Base(file), Data: data})
		slots = append(slots, i)
	}

	for j, res := range service.ProcessBatch(ctx, inputs) {
		results[slots[j]] = res
	}
	return results
}

func write(w io.Writer, format string, results []*pipeline.Result) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
		return nil
	}

	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if res.Status == pipeline.StatusFailed {
			fmt.Fprintf(w, "%s: ", res.Filename)
		}
		if _, err := io.WriteString(w, export.RenderText(res)); err != nil {
			return err
		}
	}
	return nil
}

// saveAll writes a spreadsheet for every result with records.
func saveAll(dir string, results []*pipeline.Result, stderr io.Writer, logger *zap.Logger) error {
	if err := os.MkdirAll(dir, config.DefaultDirPerm); err != nil {
		return fmt.Errorf("cannot create output directory: %w", err)
	}

	for _, res := range results {
		if !res.HasData() {
			continue
		}
		path, err := export.SaveXLSX(dir, res)
		if err != nil {
			return err
		}
		logger.Debug("spreadsheet exported", zap.String("path", path))
		fmt.Fprintf(stderr, "Planilha gerada: %s\n", path)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
