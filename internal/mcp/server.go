package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-smartcid/internal/catalog"
	"github.com/a3tai/mcp-smartcid/internal/config"
	"github.com/a3tai/mcp-smartcid/internal/declaration"
	"github.com/a3tai/mcp-smartcid/internal/descriptions"
	"github.com/a3tai/mcp-smartcid/internal/export"
	"github.com/a3tai/mcp-smartcid/internal/matcher"
	"github.com/a3tai/mcp-smartcid/internal/pdf"
	"github.com/a3tai/mcp-smartcid/internal/pdf/security"
	"github.com/a3tai/mcp-smartcid/internal/pipeline"
)

// Tool names.
const (
	ToolClassifyFile  = "cid_classify_file"
	ToolExportFile    = "cid_export_file"
	ToolMatchText     = "cid_match_text"
	ToolCatalogLookup = "cid_catalog_lookup"
	ToolServerInfo    = "cid_server_info"
)

const shutdownTimeout = 5 * time.Second

// maxListedFiles caps the directory listing in cid_server_info.
const maxListedFiles = 10

// ToolInfo describes a registered tool for cid_server_info.
type ToolInfo struct {
	Name        string
	Description string
	Parameters  string
}

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *pipeline.Service
	validator *pdf.Validator
	inputs    *security.PathValidator
	outputs   *security.PathValidator
	mcpServer *server.MCPServer
	tools     []ToolInfo
	logger    *zap.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *pipeline.Service, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("pipeline service cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	inputs, err := security.NewPathValidator(cfg.PDFDirectory)
	if err != nil {
		return nil, fmt.Errorf("PDF directory: %w", err)
	}

	outputDir := cfg.OutputDirectory
	if outputDir == "" {
		outputDir = cfg.PDFDirectory
	}
	outputs, err := security.NewPathValidator(outputDir)
	if err != nil {
		return nil, fmt.Errorf("output directory: %w", err)
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		service:   service,
		validator: pdf.NewValidator(cfg.MaxFileSize),
		inputs:    inputs,
		outputs:   outputs,
		mcpServer: mcpServer,
		logger:    logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.addTool(mcp.NewTool(
		ToolClassifyFile,
		mcp.WithDescription(descriptions.ClassifyFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PDF path, absolute or relative to the configured directory"),
		),
	), "path", s.handleClassifyFile)

	s.addTool(mcp.NewTool(
		ToolExportFile,
		mcp.WithDescription(descriptions.ExportFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PDF path, absolute or relative to the configured directory"),
		),
		mcp.WithString("output_dir",
			mcp.Description("Directory for the spreadsheet, relative to the output directory (uses default if empty)"),
		),
	), "path, output_dir (optional)", s.handleExportFile)

	s.addTool(mcp.NewTool(
		ToolMatchText,
		mcp.WithDescription(descriptions.MatchTextDescription),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Diagnosis description, e.g. 'pressão alta'"),
		),
	), "text", s.handleMatchText)

	s.addTool(mcp.NewTool(
		ToolCatalogLookup,
		mcp.WithDescription(descriptions.CatalogLookupDescription),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("CID code, e.g. I10"),
		),
	), "code", s.handleCatalogLookup)

	s.addTool(mcp.NewTool(
		ToolServerInfo,
		mcp.WithDescription(descriptions.ServerInfoDescription),
	), "none", s.handleServerInfo)
}

func (s *Server) addTool(tool mcp.Tool, params string, handler server.ToolHandlerFunc) {
	s.mcpServer.AddTool(tool, handler)
	s.tools = append(s.tools, ToolInfo{
		Name:        tool.Name,
		Description: tool.Description,
		Parameters:  params,
	})
}

// Tools lists the registered tools in registration order.
func (s *Server) Tools() []ToolInfo {
	out := make([]ToolInfo, len(s.tools))
	copy(out, s.tools)
	return out
}

// Handler functions
func (s *Server) handleClassifyFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, errResult := s.process(ctx, request)
	if errResult != nil {
		return errResult, nil
	}

	return mcp.NewToolResultText(export.RenderText(res)), nil
}

func (s *Server) handleExportFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := s.outputs.Root()
	if outputDir, ok := request.GetArguments()["output_dir"].(string); ok && strings.TrimSpace(outputDir) != "" {
		resolved, err := s.outputs.ResolveDir(outputDir)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dir = resolved
	}

	res, errResult := s.process(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	if !res.HasData() {
		return mcp.NewToolResultText(export.RenderText(res)), nil
	}

	if err := os.MkdirAll(dir, config.DefaultDirPerm); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot create output directory: %v", err)), nil
	}
	path, err := export.SaveXLSX(dir, res)
	if err != nil {
		s.logger.Error("spreadsheet export failed", zap.String("filename", res.Filename), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.logger.Info("spreadsheet exported", zap.String("path", path), zap.Int("records", len(res.Records)))

	text := fmt.Sprintf("Planilha gerada: %s\n\n", path)
	text += export.RenderText(res)
	return mcp.NewToolResultText(text), nil
}

// process resolves, reads and classifies the PDF named by the "path"
// argument. A failure comes back as a tool error result.
func (s *Server) process(ctx context.Context, request mcp.CallToolRequest) (*pipeline.Result, *mcp.CallToolResult) {
	path, err := request.RequireString("path")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}

	resolved, err := s.inputs.Resolve(path)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}

	data, err := s.validator.ReadFile(resolved)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}

	res, err := s.service.Process(ctx, data, filepath.Base(resolved))
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return res, nil
}

func (s *Server) handleMatchText(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	normalized := declaration.NormalizeText(text)
	if normalized == "" {
		return mcp.NewToolResultError("text cannot be empty"), nil
	}

	match := s.service.Matcher().Match(normalized)
	if !match.Found {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Nenhum CID encontrado para %q (melhor pontuação %.1f, mínimo %.0f)\nCID: %s\n",
			normalized, match.Score, matcher.Cutoff, declaration.NotFound)), nil
	}

	responseText := fmt.Sprintf("Descrição: %s\n", normalized)
	responseText += fmt.Sprintf("CID: %s\n", match.Code)
	responseText += fmt.Sprintf("Descrição CID: %s\n", match.Description)
	responseText += fmt.Sprintf("Pontuação: %.1f\n", match.Score)
	if entry, ok := s.service.Catalog().Lookup(match.Code); ok {
		responseText += formatClassification(entry)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleCatalogLookup(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entry, ok := s.service.Catalog().Lookup(code)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("CID não encontrado no catálogo: %s", catalog.NormalizeCode(code))), nil
	}

	responseText := fmt.Sprintf("CID: %s\n", entry.Code)
	responseText += fmt.Sprintf("Descrição: %s\n", entry.Description)
	responseText += formatClassification(entry)

	return mcp.NewToolResultText(responseText), nil
}

func formatClassification(entry catalog.Entry) string {
	if !entry.Classified() {
		return "Classificação: não classificado na base\n"
	}
	text := fmt.Sprintf("Classificação: %s\n", entry.Classification)
	if entry.Justification != "" {
		text += fmt.Sprintf("Justificativa: %s\n", entry.Justification)
	}
	return text
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatServerInfo()), nil
}

func (s *Server) formatServerInfo() string {
	cat := s.service.Catalog()

	text := fmt.Sprintf("📋 %s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("📁 PDF Directory: %s\n", s.inputs.Root())
	text += fmt.Sprintf("💾 Output Directory: %s\n", s.outputs.Root())
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("📚 Catalog: %d CID codes\n", cat.Len())
	if labels := cat.Classifications(); len(labels) > 0 {
		text += fmt.Sprintf("🏷️  Classifications: %s\n", strings.Join(labels, ", "))
	}
	text += "\n"

	files := s.listPDFs()
	if len(files) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d PDF files found):\n", len(files))
		for i, name := range files {
			if i >= maxListedFiles {
				text += fmt.Sprintf("   ... and %d more files\n", len(files)-maxListedFiles)
				break
			}
			text += fmt.Sprintf("   %d. %s\n", i+1, name)
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No PDF files found in the PDF directory\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, tool := range s.tools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Description: %s\n", tool.Description)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	return text
}

// listPDFs returns the PDF file names directly under the PDF directory, sorted.
func (s *Server) listPDFs() []string {
	entries, err := os.ReadDir(s.inputs.Root())
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && pdf.IsPDFName(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("server not started: %w", err)
	}

	switch s.config.Mode {
	case config.ModeServer:
		return s.runServerMode(ctx)
	case config.ModeStdio:
		return s.runStdioMode(ctx)
	default:
		return fmt.Errorf("unsupported mode: %s", s.config.Mode)
	}
}

// runStdioMode serves MCP over stdin/stdout until ctx is done or stdin closes.
func (s *Server) runStdioMode(ctx context.Context) error {
	s.logger.Debug("starting stdio server",
		zap.String("pdf_dir", s.inputs.Root()),
		zap.Int("catalog_size", s.service.Catalog().Len()))

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))

	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over SSE on host:port until ctx is done.
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- sse.Start(addr)
	}()
	s.logger.Info("SSE server listening", zap.String("addr", addr), zap.String("pdf_dir", s.inputs.Root()))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve SSE: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sse.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down SSE server: %w", err)
	}
	s.logger.Info("SSE server stopped")
	return nil
}
