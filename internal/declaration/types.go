// Package declaration models the Quadro III records of a health declaration
// and recovers them from extracted page text.
package declaration

import "sort"

// DatePlaceholder is stored when a record has no date.
const DatePlaceholder = "-"

// NotFound is the code of a record no catalog description matched.
const NotFound = "N/A"

// RawRecord is a single role/date/free-text triple. Role is canonical:
// TITULAR, CONJUGE or DEP followed by the dependent number.
type RawRecord struct {
	Role     string `json:"segurado"`
	Date     string `json:"data"`
	FreeText string `json:"descricao"`
}

// ResolvedRecord is a RawRecord with the code chosen by the matcher.
type ResolvedRecord struct {
	RawRecord
	Code string `json:"cid"`
}

// Matched reports whether a catalog code was resolved.
func (r ResolvedRecord) Matched() bool {
	return r.Code != "" && r.Code != NotFound
}

// EnrichedRecord is the terminal row handed to the presentation layer.
// Classification and Justification are empty when the code has no catalog entry.
type EnrichedRecord struct {
	ResolvedRecord
	Classification string `json:"classificacao,omitempty"`
	Justification  string `json:"justificativa,omitempty"`
	SourceFilename string `json:"arquivo"`
}

// Classified reports whether the row received a classification.
func (r EnrichedRecord) Classified() bool {
	return r.Classification != ""
}

// SortEnriched orders rows by role, then by date string.
// Dates compare as strings, not calendar dates.
func SortEnriched(records []EnrichedRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Role != records[j].Role {
			return records[i].Role < records[j].Role
		}
		return records[i].Date < records[j].Date
	})
}
