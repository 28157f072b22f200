package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/a3tai/mcp-smartcid/internal/pipeline"
)

// RenderText formats a result for the shell: warnings, then a markdown table
// of the records, the codes without classification and the count per label.
func RenderText(result *pipeline.Result) string {
	if result == nil {
		return ""
	}

	var b strings.Builder

	if result.Status == pipeline.StatusFailed {
		b.WriteString(result.Error)
		b.WriteString("\n")
		return b.String()
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(&b, "⚠️ %s\n", w)
	}
	if !result.HasData() {
		return b.String()
	}
	if len(result.Warnings) > 0 {
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Quadro resumo: CID-10 (%s)\n\n", result.Filename)

	cols := DisplayColumns(result.Enriched)
	writeMarkdownRow(&b, cols)
	sep := make([]string, len(cols))
	for i := range sep {
		sep[i] = "---"
	}
	writeMarkdownRow(&b, sep)
	for _, row := range Rows(result) {
		writeMarkdownRow(&b, row[1:])
	}

	if len(result.Unclassified) > 0 {
		fmt.Fprintf(&b, "\nCIDs não classificados na base: %s\n", strings.Join(result.Unclassified, ", "))
	}

	if len(result.Summary) > 0 {
		labels := make([]string, 0, len(result.Summary))
		for label := range result.Summary {
			labels = append(labels, label)
		}
		sort.Strings(labels)

		b.WriteString("\n")
		for _, label := range labels {
			fmt.Fprintf(&b, "- %s: %d\n", label, result.Summary[label])
		}
	}

	return b.String()
}

func writeMarkdownRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(escapeCell(c))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
