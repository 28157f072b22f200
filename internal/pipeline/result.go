package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/a3tai/mcp-smartcid/internal/declaration"
)

// Stage is the position of a run in the pipeline.
type Stage string

const (
	StageReceived   Stage = "received"
	StageExtracting Stage = "extracting"
	StageSegmenting Stage = "segmenting"
	StageMatching   Stage = "matching"
	StageEnriching  Stage = "enriching"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// Status summarizes how a run ended.
type Status string

const (
	// StatusOK means at least one record was produced.
	StatusOK Status = "ok"
	// StatusNoData covers documents without text and text without records.
	StatusNoData Status = "no_data"
	// StatusFailed means the document could not be read.
	StatusFailed Status = "failed"
)

// User-facing messages.
const (
	MsgNoData           = "Nenhum dado encontrado no PDF. Verifique se o Quadro III está legível."
	MsgExtractionFailed = "Erro ao processar PDF"
	MsgEnrichmentFailed = "Erro ao aplicar classificação"
)

// Result is the outcome of processing one declaration.
type Result struct {
	RunID    uuid.UUID `json:"run_id"`
	Filename string    `json:"filename"`
	Stage    Stage     `json:"stage"`
	Status   Status    `json:"status"`
	Pages    int       `json:"pages"`

	// Records is sorted by role, then date. It is empty, never nil, when
	// nothing was found or the run failed.
	Records []declaration.EnrichedRecord `json:"records"`
	// Enriched is false when classification could not be applied; the
	// records then carry no classification or justification.
	Enriched bool `json:"enriched"`

	Warnings     []string       `json:"warnings,omitempty"`
	Unclassified []string       `json:"unclassified,omitempty"`
	Summary      map[string]int `json:"summary,omitempty"`

	// Error is the fatal error message of a failed run.
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// HasData reports whether the run produced records to show.
func (r *Result) HasData() bool {
	return r != nil && len(r.Records) > 0
}

// Input is one document of a batch.
type Input struct {
	Filename string
	Data     []byte
}

// FailedResult records a document that never reached the pipeline, such as
// a file that could not be read.
func FailedResult(filename string, err error) *Result {
	return &Result{
		RunID:    uuid.New(),
		Filename: filename,
		Stage:    StageFailed,
		Status:   StatusFailed,
		Records:  []declaration.EnrichedRecord{},
		Error:    err.Error(),
	}
}
