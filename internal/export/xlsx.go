package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/a3tai/mcp-smartcid/internal/pipeline"
)

// SheetName is the single worksheet of an exported workbook.
const SheetName = "Resumo"

// Classification labels with a highlight color.
const (
	LabelApproved  = "Aprovado"
	LabelWaiting   = "Carência"
	LabelInterview = "Entrevista com um médico"
)

// ClassificationColors maps classification labels to cell fill colors.
var ClassificationColors = map[string]string{
	LabelApproved:  "#28a745",
	LabelWaiting:   "#fd7e14",
	LabelInterview: "#dc3545",
}

var columnWidths = map[string]float64{
	ColFile:           28,
	ColRole:           12,
	ColDate:           12,
	ColDescription:    60,
	ColCode:           8,
	ColClassification: 26,
	ColJustification:  60,
}

// WriteXLSX writes the records of all results, in order, to one sheet.
// Classification columns are included when any result was enriched.
func WriteXLSX(w io.Writer, results ...*pipeline.Result) error {
	f, err := build(results)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the workbook for result into dir, named after the source
// file, and returns the written path.
func SaveXLSX(dir string, result *pipeline.Result) (string, error) {
	path := filepath.Join(dir, FileName(result.Filename))

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	if err := WriteXLSX(out, result); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}

	return path, nil
}

func build(results []*pipeline.Result) (*excelize.File, error) {
	enriched := false
	for _, r := range results {
		if r != nil && r.Enriched {
			enriched = true
			break
		}
	}
	cols := Columns(enriched)

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeHeader(f, cols); err != nil {
		f.Close()
		return nil, err
	}

	styles, err := classificationStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	line := 2
	for _, result := range results {
		for _, row := range rows(result, enriched) {
			if err := writeRow(f, line, row, styles); err != nil {
				f.Close()
				return nil, err
			}
			line++
		}
	}

	return f, nil
}

func writeHeader(f *excelize.File, cols []string) error {
	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, c := range cols {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, name, name, columnWidths[c]); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}

	return f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// classificationStyles registers one fill style per highlighted label.
func classificationStyles(f *excelize.File) (map[string]int, error) {
	styles := make(map[string]int, len(ClassificationColors))
	for label, color := range ClassificationColors {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Font: &excelize.Font{Color: "#FFFFFF"},
		})
		if err != nil {
			return nil, fmt.Errorf("style for %s: %w", label, err)
		}
		styles[label] = id
	}
	return styles, nil
}

func writeRow(f *excelize.File, line int, row []string, styles map[string]int) error {
	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v
	}

	start, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, start, &values); err != nil {
		return fmt.Errorf("write row %d: %w", line, err)
	}

	// Classification is the sixth column when present.
	if len(row) < 6 {
		return nil
	}
	id, ok := styles[row[5]]
	if !ok {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(6, line)
	if err != nil {
		return err
	}
	return f.SetCellStyle(SheetName, cell, cell, id)
}
