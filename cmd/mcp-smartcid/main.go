package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"go.uber.org/zap"

	"github.com/a3tai/mcp-smartcid/internal/catalog"
	"github.com/a3tai/mcp-smartcid/internal/config"
	"github.com/a3tai/mcp-smartcid/internal/logging"
	"github.com/a3tai/mcp-smartcid/internal/mcp"
	"github.com/a3tai/mcp-smartcid/internal/pdf"
	"github.com/a3tai/mcp-smartcid/internal/pipeline"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// loadCatalog reads the catalog at path, or the embedded one when path is empty.
func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

// newService wires the extractor, catalog and worker pool for cfg.
func newService(cfg *config.Config, logger *zap.Logger) (*pipeline.Service, error) {
	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	return pipeline.New(
		pdf.NewExtractor(cfg.MaxFileSize, logger),
		cat,
		pipeline.WithLogger(logger),
		pipeline.WithWorkers(cfg.Workers),
	), nil
}

// run serves until ctx is cancelled or the transport closes.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	service, err := newService(cfg, logger)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(cfg, service, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	logger.Info("starting server",
		zap.String("mode", cfg.Mode),
		zap.String("pdf_dir", cfg.PDFDirectory),
		zap.Int("catalog_size", service.Catalog().Len()))

	return server.Run(ctx)
}

func main() {
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion(os.Stdout)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsStdioMode())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Debug("configuration loaded", zap.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		stop()
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "SmartCID MCP Server\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
