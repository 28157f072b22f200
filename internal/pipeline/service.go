// Package pipeline runs a declaration PDF through extraction, segmentation,
// code matching and classification.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/mcp-smartcid/internal/catalog"
	"github.com/a3tai/mcp-smartcid/internal/declaration"
	"github.com/a3tai/mcp-smartcid/internal/enrich"
	"github.com/a3tai/mcp-smartcid/internal/matcher"
	"github.com/a3tai/mcp-smartcid/internal/pdf"
	pdferrors "github.com/a3tai/mcp-smartcid/internal/pdf/errors"
)

// TextExtractor turns document bytes into text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (*pdf.Document, error)
}

// Service processes declarations against one catalog. It is safe for concurrent use.
type Service struct {
	extractor TextExtractor
	catalog   *catalog.Catalog
	matcher   *matcher.Matcher
	workers   int
	logger    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWorkers bounds how many documents ProcessBatch handles at once.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithMatcher replaces the matcher built from the catalog.
func WithMatcher(m *matcher.Matcher) Option {
	return func(s *Service) {
		if m != nil {
			s.matcher = m
		}
	}
}

// New creates a service. The catalog is shared read-only by every run.
func New(extractor TextExtractor, cat *catalog.Catalog, opts ...Option) *Service {
	s := &Service{
		extractor: extractor,
		catalog:   cat,
		workers:   runtime.NumCPU(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.matcher == nil {
		s.matcher = matcher.New(cat)
	}
	return s
}

// Catalog returns the catalog the service classifies against.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Matcher returns the matcher used to resolve descriptions.
func (s *Service) Matcher() *matcher.Matcher {
	return s.matcher
}

// Process runs one document through the pipeline. Only extraction failures
// and cancellation return an error; the returned result is never nil and
// then has StatusFailed with no records. An empty document or one without
// records yields StatusNoData. A classification failure keeps the records
// unclassified, sets Enriched to false and adds a warning.
func (s *Service) Process(ctx context.Context, data []byte, filename string) (*Result, error) {
	start := time.Now()
	res := &Result{
		RunID:    uuid.New(),
		Filename: filename,
		Stage:    StageReceived,
		Records:  []declaration.EnrichedRecord{},
	}
	log := s.logger.With(zap.String("run_id", res.RunID.String()), zap.String("filename", filename))
	defer func() {
		res.Duration = time.Since(start)
	}()

	res.Stage = StageExtracting
	log.Debug("stage", zap.String("stage", string(res.Stage)), zap.Int("bytes", len(data)))

	doc, err := s.extractor.Extract(ctx, data)
	if err != nil {
		if extractionErr, ok := pdferrors.AsExtraction(err); ok {
			extractionErr.WithFile(filename)
		}
		res.Stage = StageFailed
		res.Status = StatusFailed
		err = fmt.Errorf("%s: %w", MsgExtractionFailed, err)
		res.Error = err.Error()
		log.Warn("extraction failed", zap.Error(err))
		return res, err
	}
	res.Pages = doc.Pages

	if strings.TrimSpace(doc.Text) == "" {
		log.Warn("document has no text", zap.Int("pages", doc.Pages))
		return s.noData(res), nil
	}

	if err := s.advance(ctx, res, StageSegmenting); err != nil {
		return res, err
	}
	raw := declaration.Segment(doc.Text)
	log.Debug("stage", zap.String("stage", string(res.Stage)), zap.Int("records", len(raw)))
	if len(raw) == 0 {
		log.Warn("no records found", zap.Int("chars", len(doc.Text)))
		return s.noData(res), nil
	}

	if err := s.advance(ctx, res, StageMatching); err != nil {
		return res, err
	}
	resolved := s.matcher.ResolveAll(raw)
	log.Debug("stage", zap.String("stage", string(res.Stage)), zap.Int("matched", countMatched(resolved)))

	if err := s.advance(ctx, res, StageEnriching); err != nil {
		return res, err
	}
	records, err := enrich.Join(resolved, s.catalog)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", MsgEnrichmentFailed, err))
		log.Warn("classification skipped", zap.Error(err))
		records = enrich.Plain(resolved)
	} else {
		res.Enriched = true
	}

	for i := range records {
		records[i].SourceFilename = filename
	}
	declaration.SortEnriched(records)

	res.Records = records
	if res.Enriched {
		res.Unclassified = enrich.Unclassified(records, true)
		res.Summary = enrich.Summary(records)
	}
	res.Stage = StageDone
	res.Status = StatusOK

	log.Info("declaration processed",
		zap.Int("records", len(records)),
		zap.Bool("enriched", res.Enriched),
		zap.Int("unclassified", len(res.Unclassified)))

	return res, nil
}

// ProcessBatch processes every input independently, at most the configured
// number of workers at a time. Results keep the order of inputs; a failure
// in one document is recorded in its result and does not stop the others.
func (s *Service) ProcessBatch(ctx context.Context, inputs []Input) []*Result {
	results := make([]*Result, len(inputs))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, in := range inputs {
		g.Go(func() error {
			res, err := s.Process(ctx, in.Data, in.Filename)
			if err != nil && res.Error == "" {
				res.Error = err.Error()
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *Service) advance(ctx context.Context, res *Result, stage Stage) error {
	if err := ctx.Err(); err != nil {
		res.Stage = StageFailed
		res.Status = StatusFailed
		res.Error = err.Error()
		return err
	}
	res.Stage = stage
	return nil
}

func (s *Service) noData(res *Result) *Result {
	res.Stage = StageDone
	res.Status = StatusNoData
	res.Warnings = append(res.Warnings, MsgNoData)
	return res
}

func countMatched(records []declaration.ResolvedRecord) int {
	n := 0
	for _, r := range records {
		if r.Matched() {
			n++
		}
	}
	return n
}
