// Package export renders pipeline results as tables: a markdown table for
// the shell and an .xlsx workbook for download.
package export

import (
	"path/filepath"
	"strings"

	"github.com/a3tai/mcp-smartcid/internal/pipeline"
)

// Column headers.
const (
	ColFile           = "Arquivo"
	ColRole           = "Segurado"
	ColDate           = "Data"
	ColDescription    = "Descrição"
	ColCode           = "CID"
	ColClassification = "Classificação"
	ColJustification  = "Justificativa"
)

// Columns returns the spreadsheet header. The classification columns are
// left out when enrichment did not happen.
func Columns(enriched bool) []string {
	cols := []string{ColFile, ColRole, ColDate, ColDescription, ColCode}
	if enriched {
		cols = append(cols, ColClassification, ColJustification)
	}
	return cols
}

// DisplayColumns is Columns without the file name, for on-screen tables.
func DisplayColumns(enriched bool) []string {
	return Columns(enriched)[1:]
}

// Rows returns one row per record, matching Columns(result.Enriched).
func Rows(result *pipeline.Result) [][]string {
	return rows(result, result != nil && result.Enriched)
}

func rows(result *pipeline.Result, enriched bool) [][]string {
	if result == nil {
		return nil
	}

	out := make([][]string, 0, len(result.Records))
	for _, rec := range result.Records {
		file := rec.SourceFilename
		if file == "" {
			file = result.Filename
		}
		row := []string{file, rec.Role, rec.Date, rec.FreeText, rec.Code}
		if enriched {
			row = append(row, rec.Classification, rec.Justification)
		}
		out = append(out, row)
	}
	return out
}

// FileName names the workbook exported for a source file: the base name up
// to its first dot, prefixed with Resumo_QuadroIII_.
func FileName(source string) string {
	base := filepath.Base(source)
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	return "Resumo_QuadroIII_" + base + ".xlsx"
}
