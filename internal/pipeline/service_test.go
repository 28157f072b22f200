package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/a3tai/mcp-smartcid/internal/catalog"
	"github.com/a3tai/mcp-smartcid/internal/declaration"
	"github.com/a3tai/mcp-smartcid/internal/matcher"
	"github.com/a3tai/mcp-smartcid/internal/pdf"
	pdferrors "github.com/a3tai/mcp-smartcid/internal/pdf/errors"
	"github.com/a3tai/mcp-smartcid/internal/pdf/pdftest"
)

const scenarioText = "1 TITULAR 01/02/2020 Hipertensão arterial\n2 CONJUGE - Diabetes mellitus tipo 2\n"

// extractFunc treats the input bytes as the document text unless it says otherwise.
type extractFunc func(ctx context.Context, data []byte) (*pdf.Document, error)

func (f extractFunc) Extract(ctx context.Context, data []byte) (*pdf.Document, error) {
	return f(ctx, data)
}

func textExtractor() TextExtractor {
	return extractFunc(func(_ context.Context, data []byte) (*pdf.Document, error) {
		if string(data) == "corrupt" {
			return nil, pdferrors.NewExtractionError(pdferrors.ErrorTypeCorruptedData, "broken xref")
		}
		return &pdf.Document{Text: string(data), Pages: 1, TextPages: 1}, nil
	})
}

func scenarioCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]catalog.Entry{
		{Code: "I10", Description: "hipertensão arterial", Classification: "Aprovado", Justification: "Controlada"},
		{Code: "E11", Description: "diabetes mellitus tipo 2", Classification: "Carência", Justification: "Requer acompanhamento"},
	})
	require.NoError(t, err)
	return cat
}

func TestProcess_Scenario(t *testing.T) {
	svc := New(textExtractor(), scenarioCatalog(t))

	res, err := svc.Process(context.Background(), []byte(scenarioText), "declaracao.pdf")
	require.NoError(t, err)

	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, StageDone, res.Stage)
	assert.True(t, res.Enriched)
	assert.Empty(t, res.Warnings)
	assert.NotEqual(t, uuid.Nil, res.RunID)
	assert.Equal(t, 1, res.Pages)

	// Sorted by role: CONJUGE before TITULAR.
	want := []declaration.EnrichedRecord{
		{
			ResolvedRecord: declaration.ResolvedRecord{
				RawRecord: declaration.RawRecord{Role: "CONJUGE", Date: "-", FreeText: "Diabetes mellitus tipo 2"},
				Code:      "E11",
			},
			Classification: "Carência",
			Justification:  "Requer acompanhamento",
			SourceFilename: "declaracao.pdf",
		},
		{
			ResolvedRecord: declaration.ResolvedRecord{
				RawRecord: declaration.RawRecord{Role: "TITULAR", Date: "01/02/2020", FreeText: "Hipertensão arterial"},
				Code:      "I10",
			},
			Classification: "Aprovado",
			Justification:  "Controlada",
			SourceFilename: "declaracao.pdf",
		},
	}
	assert.Equal(t, want, res.Records)
	assert.Empty(t, res.Unclassified)
	assert.Equal(t, map[string]int{"Aprovado": 1, "Carência": 1}, res.Summary)
}

func TestProcess_NoData(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty text", text: ""},
		{name: "whitespace only", text: " \n\n\t"},
		{name: "text without records", text: "DECLARAÇÃO DE SAÚDE\nNada a declarar\n"},
	}

	svc := New(textExtractor(), scenarioCatalog(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Process(context.Background(), []byte(tt.text), "vazio.pdf")
			require.NoError(t, err)

			assert.Equal(t, StatusNoData, res.Status)
			assert.Equal(t, StageDone, res.Stage)
			assert.NotNil(t, res.Records)
			assert.Empty(t, res.Records)
			assert.False(t, res.HasData())
			assert.Equal(t, []string{MsgNoData}, res.Warnings)
		})
	}
}

func TestProcess_NoMatch(t *testing.T) {
	svc := New(textExtractor(), scenarioCatalog(t))

	res, err := svc.Process(context.Background(), []byte("DEP1 - fratura exposta do fêmur\n"), "dep.pdf")
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	rec := res.Records[0]
	assert.Equal(t, declaration.NotFound, rec.Code)
	assert.Empty(t, rec.Classification)
	assert.Empty(t, rec.Justification)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, []string{declaration.NotFound}, res.Unclassified)
	assert.Empty(t, res.Summary)
}

func TestProcess_ExtractionFailure(t *testing.T) {
	svc := New(textExtractor(), scenarioCatalog(t))

	res, err := svc.Process(context.Background(), []byte("corrupt"), "quebrado.pdf")
	require.Error(t, err)
	assert.True(t, pdferrors.IsExtraction(err))
	assert.Contains(t, err.Error(), MsgExtractionFailed)

	require.NotNil(t, res)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, StageFailed, res.Stage)
	assert.Empty(t, res.Records)
	assert.Equal(t, err.Error(), res.Error)

	extractionErr, ok := pdferrors.AsExtraction(err)
	require.True(t, ok)
	assert.Equal(t, "quebrado.pdf", extractionErr.Filename)
	assert.Contains(t, res.Error, "(quebrado.pdf)")
}

func TestProcess_ExtractionFailureIsLoggedAsWarning(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	svc := New(textExtractor(), scenarioCatalog(t), WithLogger(zap.New(core)))

	_, err := svc.Process(context.Background(), []byte("corrupt"), "quebrado.pdf")
	require.Error(t, err)

	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	entries := logs.FilterMessage("extraction failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestProcess_PDFWithRecordsOnOnePage(t *testing.T) {
	data := pdftest.Build([][]string{{
		"DECLARACAO PESSOAL DE SAUDE",
		"QUADRO III",
		"1 TITULAR 01/02/2020 hipertensao arterial",
		"2 CONJUGE - diabetes mellitus tipo 2",
	}})
	svc := New(pdf.NewExtractor(0, nil), scenarioCatalog(t))

	res, err := svc.Process(context.Background(), data, "declaracao.pdf")
	require.NoError(t, err)
	require.Equal(t, StatusOK, res.Status)
	require.Len(t, res.Records, 2)

	assert.Equal(t, "CONJUGE", res.Records[0].Role)
	assert.Equal(t, "-", res.Records[0].Date)
	assert.Equal(t, "diabetes mellitus tipo 2", res.Records[0].FreeText)
	assert.Equal(t, "E11", res.Records[0].Code)

	assert.Equal(t, "TITULAR", res.Records[1].Role)
	assert.Equal(t, "01/02/2020", res.Records[1].Date)
	assert.Equal(t, "hipertensao arterial", res.Records[1].FreeText)
	assert.Equal(t, "I10", res.Records[1].Code)
}

func TestProcess_PDFWithMalformedPage(t *testing.T) {
	data := pdftest.BuildStreams([]string{
		pdftest.Stream("1 TITULAR 01/02/2020 hipertensao arterial"),
		"BT Tf Td Tj ET\n",
	})
	svc := New(pdf.NewExtractor(0, nil), scenarioCatalog(t))

	res, err := svc.Process(context.Background(), data, "declaracao.pdf")
	require.Error(t, err)

	extractionErr, ok := pdferrors.AsExtraction(err)
	require.True(t, ok)
	assert.Equal(t, pdferrors.ErrorTypeMalformedPage, extractionErr.Type)
	assert.Equal(t, 2, extractionErr.PageNumber)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Empty(t, res.Records)
}

func TestProcess_EnrichmentFailureIsDowngraded(t *testing.T) {
	// Matching still works, but there is no catalog to classify against.
	svc := New(textExtractor(), nil, WithMatcher(matcher.New(scenarioCatalog(t))))

	res, err := svc.Process(context.Background(), []byte(scenarioText), "declaracao.pdf")
	require.NoError(t, err)

	assert.Equal(t, StatusOK, res.Status)
	assert.False(t, res.Enriched)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], MsgEnrichmentFailed)

	require.Len(t, res.Records, 2)
	for _, rec := range res.Records {
		assert.True(t, rec.Matched())
		assert.Empty(t, rec.Classification)
		assert.Empty(t, rec.Justification)
		assert.Equal(t, "declaracao.pdf", rec.SourceFilename)
	}
	assert.Nil(t, res.Unclassified)
}

func TestProcess_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := New(textExtractor(), scenarioCatalog(t))
	res, err := svc.Process(ctx, []byte(scenarioText), "declaracao.pdf")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Empty(t, res.Records)
}

func TestProcess_UniqueRunIDs(t *testing.T) {
	svc := New(textExtractor(), scenarioCatalog(t))

	a, err := svc.Process(context.Background(), []byte(scenarioText), "a.pdf")
	require.NoError(t, err)
	b, err := svc.Process(context.Background(), []byte(scenarioText), "a.pdf")
	require.NoError(t, err)

	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, a.Records, b.Records)
}

func TestProcessBatch(t *testing.T) {
	svc := New(textExtractor(), scenarioCatalog(t), WithWorkers(2))

	inputs := []Input{
		{Filename: "a.pdf", Data: []byte(scenarioText)},
		{Filename: "b.pdf", Data: []byte("corrupt")},
		{Filename: "c.pdf", Data: []byte("")},
		{Filename: "d.pdf", Data: []byte("TITULAR - asma\n")},
	}

	results := svc.ProcessBatch(context.Background(), inputs)
	require.Len(t, results, len(inputs))

	for i, res := range results {
		require.NotNil(t, res, inputs[i].Filename)
		assert.Equal(t, inputs[i].Filename, res.Filename)
	}

	assert.Equal(t, StatusOK, results[0].Status)
	assert.Len(t, results[0].Records, 2)

	assert.Equal(t, StatusFailed, results[1].Status)
	assert.Contains(t, results[1].Error, MsgExtractionFailed)

	assert.Equal(t, StatusNoData, results[2].Status)

	assert.Equal(t, StatusOK, results[3].Status)
	require.Len(t, results[3].Records, 1)
	assert.Equal(t, "d.pdf", results[3].Records[0].SourceFilename)
}

func TestProcessBatch_Empty(t *testing.T) {
	svc := New(textExtractor(), scenarioCatalog(t))
	assert.Empty(t, svc.ProcessBatch(context.Background(), nil))
}

func TestProcess_ErrorWrapping(t *testing.T) {
	sentinel := errors.New("disk on fire")
	svc := New(extractFunc(func(context.Context, []byte) (*pdf.Document, error) {
		return nil, sentinel
	}), scenarioCatalog(t))

	_, err := svc.Process(context.Background(), []byte("x"), "x.pdf")
	assert.ErrorIs(t, err, sentinel)
}

func TestFailedResult(t *testing.T) {
	res := FailedResult("ausente.pdf", errors.New("file does not exist: ausente.pdf"))

	assert.NotEqual(t, uuid.Nil, res.RunID)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, StageFailed, res.Stage)
	assert.NotNil(t, res.Records)
	assert.False(t, res.HasData())
	assert.Equal(t, "file does not exist: ausente.pdf", res.Error)
}
