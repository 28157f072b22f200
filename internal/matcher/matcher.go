// Package matcher resolves free-text diagnosis descriptions to catalog codes
// by fuzzy string similarity.
package matcher

import (
	"strings"

	"github.com/a3tai/mcp-smartcid/internal/catalog"
	"github.com/a3tai/mcp-smartcid/internal/declaration"
)

// Cutoff is the minimum score, inclusive, for a description to resolve to a code.
const Cutoff = 60.0

// Match is the outcome of resolving one description.
type Match struct {
	Code        string  `json:"code"`
	Description string  `json:"description,omitempty"`
	Score       float64 `json:"score"`
	Found       bool    `json:"found"`
}

// Matcher scores free text against every catalog description.
// It holds no mutable state and is safe for concurrent use.
type Matcher struct {
	entries []catalog.Entry
	keys    []string
	scorer  Scorer
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithScorer replaces the default WeightedRatio scorer.
func WithScorer(s Scorer) Option {
	return func(m *Matcher) {
		if s != nil {
			m.scorer = s
		}
	}
}

// New builds a matcher over the catalog descriptions. A nil catalog
// behaves as an empty one.
func New(cat *catalog.Catalog, opts ...Option) *Matcher {
	entries := cat.Entries()
	m := &Matcher{
		entries: entries,
		keys:    make([]string, len(entries)),
		scorer:  WeightedRatio,
	}
	for i, e := range entries {
		m.keys[i] = strings.ToLower(e.Description)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match returns the best scoring catalog entry for text. Ties go to the
// entry that comes first in the catalog. Found is false when the catalog is
// empty or the best score is below Cutoff; Code is then NotFound.
func (m *Matcher) Match(text string) Match {
	query := strings.ToLower(text)

	best := -1
	bestScore := 0.0
	for i, key := range m.keys {
		score := m.scorer.Score(query, key)
		if best < 0 || score > bestScore {
			best, bestScore = i, score
		}
	}

	if best < 0 || bestScore < Cutoff {
		return Match{Code: declaration.NotFound, Score: max(bestScore, 0)}
	}

	return Match{
		Code:        m.entries[best].Code,
		Description: m.entries[best].Description,
		Score:       bestScore,
		Found:       true,
	}
}

// Resolve returns the matching code for text, or NotFound.
func (m *Matcher) Resolve(text string) string {
	return m.Match(text).Code
}

// ResolveAll resolves every record, keeping order.
func (m *Matcher) ResolveAll(records []declaration.RawRecord) []declaration.ResolvedRecord {
	resolved := make([]declaration.ResolvedRecord, len(records))
	for i, rec := range records {
		resolved[i] = declaration.ResolvedRecord{
			RawRecord: rec,
			Code:      m.Resolve(rec.FreeText),
		}
	}
	return resolved
}

// Len returns the number of candidate descriptions.
func (m *Matcher) Len() int {
	return len(m.entries)
}
