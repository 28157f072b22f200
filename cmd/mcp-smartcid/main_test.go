package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/a3tai/mcp-smartcid/internal/config"
)

const (
	testVersion = "1.2.3"
	devVersion  = "dev"
)

func TestPrintVersion(t *testing.T) {
	oldVersion := version
	oldBuildTime := buildTime
	oldGitCommit := gitCommit
	defer func() {
		version = oldVersion
		buildTime = oldBuildTime
		gitCommit = oldGitCommit
	}()

	version = testVersion
	buildTime = "2023-12-01_10:30:00"
	gitCommit = "abc123"

	var buf bytes.Buffer
	printVersion(&buf)
	output := buf.String()

	expectedStrings := []string{
		"SmartCID MCP Server",
		"Version: 1.2.3",
		"Build Time: 2023-12-01_10:30:00",
		"Git Commit: abc123",
		"Built with: " + runtime.Version(),
	}
	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("printVersion() output missing expected string: %s\nActual output:\n%s", expected, output)
		}
	}
}

func TestPrintVersionWithDefaults(t *testing.T) {
	if version != devVersion {
		t.Skip("version set by build flags")
	}

	var buf bytes.Buffer
	printVersion(&buf)

	for _, expected := range []string{"Version: dev", "Build Time: unknown", "Git Commit: unknown"} {
		if !strings.Contains(buf.String(), expected) {
			t.Errorf("printVersion() output missing expected string: %s", expected)
		}
	}
}

func TestLoadCatalog(t *testing.T) {
	cat, err := loadCatalog("")
	if err != nil {
		t.Fatalf("loadCatalog(\"\") error = %v", err)
	}
	if cat.Len() == 0 {
		t.Error("embedded catalog is empty")
	}

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := "- codigo: J45\n  descricao: asma\n  classificacao: Aprovado\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cat, err = loadCatalog(path)
	if err != nil {
		t.Fatalf("loadCatalog(%q) error = %v", path, err)
	}
	if cat.Len() != 1 {
		t.Errorf("loadCatalog() Len = %d, want 1", cat.Len())
	}

	if _, err := loadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("loadCatalog() expected error for a missing file")
	}
}

func TestNewService(t *testing.T) {
	cfg := &config.Config{
		PDFDirectory: t.TempDir(),
		Workers:      2,
		MaxFileSize:  1024,
	}

	service, err := newService(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("newService() error = %v", err)
	}
	if service.Catalog().Len() == 0 {
		t.Error("newService() catalog is empty")
	}

	cfg.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := newService(cfg, zap.NewNop()); err == nil {
		t.Error("newService() expected error for a missing catalog")
	}
}

func TestRun(t *testing.T) {
	cfg := &config.Config{
		Mode:         config.ModeStdio,
		PDFDirectory: t.TempDir(),
		Version:      testVersion,
		ServerName:   "test-server",
		Workers:      1,
		MaxFileSize:  1024,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run(ctx, cfg, zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "context") {
		t.Errorf("run() with cancelled context error = %v", err)
	}

	cfg.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
	if err := run(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Error("run() expected error for a missing catalog")
	}
}
