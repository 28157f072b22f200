package pdf

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidator_ValidateFileInfo(t *testing.T) {
	validator := NewValidator(1024 * 1024) // 1MB limit

	tempDir := t.TempDir()

	validPDFPath := filepath.Join(tempDir, "declaracao.pdf")
	upperPDFPath := filepath.Join(tempDir, "DECLARACAO.PDF")
	largePDFPath := filepath.Join(tempDir, "large.pdf")
	emptyPDFPath := filepath.Join(tempDir, "empty.pdf")
	nonPDFPath := filepath.Join(tempDir, "document.txt")

	files := map[string]int{
		validPDFPath: 1024,
		upperPDFPath: 16,
		largePDFPath: 2 * 1024 * 1024,
		emptyPDFPath: 0,
		nonPDFPath:   9,
	}
	for path, size := range files {
		if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
			t.Fatalf("failed to create %s: %v", path, err)
		}
	}

	tests := []struct {
		name     string
		filePath string
		errorMsg string
	}{
		{name: "valid PDF file", filePath: validPDFPath},
		{name: "upper case extension", filePath: upperPDFPath},
		{name: "large PDF file", filePath: largePDFPath, errorMsg: "file too large"},
		{name: "empty PDF file", filePath: emptyPDFPath, errorMsg: "file is empty"},
		{name: "non-PDF file", filePath: nonPDFPath, errorMsg: "file is not a PDF"},
		{name: "directory instead of file", filePath: tempDir, errorMsg: "path is a directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fileInfo, err := os.Stat(tt.filePath)
			if err != nil {
				t.Fatalf("failed to stat file: %v", err)
			}

			err = validator.ValidateFileInfo(tt.filePath, fileInfo)

			if tt.errorMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q but got none", tt.errorMsg)
			}
			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("expected error containing %q, got %q", tt.errorMsg, err.Error())
			}
		})
	}
}

func TestValidator_ReadFile(t *testing.T) {
	tempDir := t.TempDir()
	content := []byte("%PDF-1.4\n%%EOF\n")
	path := filepath.Join(tempDir, "declaracao.pdf")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	validator := NewValidator(0)

	data, err := validator.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Errorf("content mismatch: got %q", data)
	}

	for _, bad := range []string{"", filepath.Join(tempDir, "missing.pdf")} {
		if _, err := validator.ReadFile(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}

	limited := NewValidator(4)
	if _, err := limited.ReadFile(path); err == nil || !strings.Contains(err.Error(), "file too large") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestIsPDFName(t *testing.T) {
	tests := map[string]bool{
		"a.pdf":          true,
		"A.PDF":          true,
		"dir/x.Pdf":      true,
		"a.pdf.txt":      false,
		"pdf":            false,
		"declaracao.xls": false,
	}
	for name, want := range tests {
		if got := IsPDFName(name); got != want {
			t.Errorf("IsPDFName(%q) = %v, want %v", name, got, want)
		}
	}
}
