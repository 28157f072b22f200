// Package enrich attaches catalog classifications to resolved records.
package enrich

import (
	"errors"
	"fmt"

	"github.com/a3tai/mcp-smartcid/internal/catalog"
	"github.com/a3tai/mcp-smartcid/internal/declaration"
)

// ErrCatalogUnavailable is returned when the catalog cannot serve lookups.
var ErrCatalogUnavailable = errors.New("classification catalog unavailable")

// Join widens each record with the classification and justification of the
// catalog entry whose code equals the record's code. Codes are compared
// trimmed and upper-cased. Records without an entry keep both fields empty.
func Join(records []declaration.ResolvedRecord, cat *catalog.Catalog) ([]declaration.EnrichedRecord, error) {
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	out := make([]declaration.EnrichedRecord, len(records))
	for i, rec := range records {
		rec.Code = catalog.NormalizeCode(rec.Code)
		row := declaration.EnrichedRecord{ResolvedRecord: rec}
		if entry, ok := cat.Lookup(rec.Code); ok {
			row.Classification = entry.Classification
			row.Justification = entry.Justification
		}
		out[i] = row
	}
	return out, nil
}

// Plain widens records without classification, for runs where Join failed.
func Plain(records []declaration.ResolvedRecord) []declaration.EnrichedRecord {
	out := make([]declaration.EnrichedRecord, len(records))
	for i, rec := range records {
		out[i] = declaration.EnrichedRecord{ResolvedRecord: rec}
	}
	return out
}

// Unclassified lists, in order of first appearance, the distinct codes of
// rows that have no classification. NotFound is listed only when
// includeNotFound is set.
func Unclassified(records []declaration.EnrichedRecord, includeNotFound bool) []string {
	seen := make(map[string]bool)
	var codes []string
	for _, rec := range records {
		if rec.Classified() || seen[rec.Code] {
			continue
		}
		if rec.Code == declaration.NotFound && !includeNotFound {
			continue
		}
		seen[rec.Code] = true
		codes = append(codes, rec.Code)
	}
	return codes
}

// Summary counts rows per classification label. Unclassified rows are not counted.
func Summary(records []declaration.EnrichedRecord) map[string]int {
	counts := make(map[string]int)
	for _, rec := range records {
		if rec.Classified() {
			counts[rec.Classification]++
		}
	}
	return counts
}
