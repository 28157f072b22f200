// Package logging builds the zap loggers shared by the server and the CLI.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing to stderr at level: JSON for the HTTP server,
// console lines for stdio and the CLI. stdout carries the MCP protocol in
// stdio mode, so stdio runs at info only report warnings and errors.
func New(level string, stdio bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if stdio && lvl == zapcore.InfoLevel {
		lvl = zapcore.WarnLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Sampling = nil
	cfg.Development = lvl == zapcore.DebugLevel
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if stdio {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build()
}

// NewOrNop is New that falls back to a no-op logger when the level is invalid.
func NewOrNop(level string, stdio bool) *zap.Logger {
	logger, err := New(level, stdio)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
