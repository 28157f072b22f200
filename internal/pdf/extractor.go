package pdf

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	pdferrors "github.com/a3tai/mcp-smartcid/internal/pdf/errors"
)

// headerWindow is how far into the input the "%PDF-" marker may appear.
const headerWindow = 1024

// rowTolerance is the baseline distance, in points, within which glyphs share a row.
const rowTolerance = 2.0

// spaceGap is the horizontal gap, as a fraction of the font size, that
// separates two glyph runs on the same row with a space.
const spaceGap = 0.2

var disableConfigOnce sync.Once

// Document is the text extracted from a PDF.
type Document struct {
	// Text holds every non-empty page, each followed by a newline.
	Text string
	// Pages is the page count reported by the document.
	Pages int
	// TextPages is the number of pages that produced text.
	TextPages int
}

// Extractor turns PDF bytes into plain text.
type Extractor struct {
	maxFileSize int64
	logger      *zap.Logger
}

// NewExtractor creates an extractor. A maxFileSize of zero disables the size check.
func NewExtractor(maxFileSize int64, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	// pdfcpu otherwise creates its configuration directory under the user's home.
	disableConfigOnce.Do(api.DisableConfigDir)

	return &Extractor{
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// Extract reads every page of the document in order and concatenates its text.
// Pages without text are skipped. A page that cannot be read fails the whole
// document. Any failure, including a panic inside the PDF libraries, is
// reported as *errors.ExtractionError.
func (e *Extractor) Extract(ctx context.Context, data []byte) (doc *Document, err error) {
	if err := e.precheck(data); err != nil {
		return nil, err
	}

	page := 0
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("pdf library panic", zap.Any("panic", r), zap.Int("page", page))
			doc = nil
			err = pdferrors.Wrap(pdferrors.ErrorTypeLibraryPanic, "PDF parser failed", fmt.Errorf("%v", r)).
				WithPage(page)
		}
	}()

	declared, err := inspect(data)
	if err != nil {
		return nil, pdferrors.Wrap(pdferrors.ErrorTypeCorruptedData, "PDF structure is invalid", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, pdferrors.Wrap(pdferrors.ErrorTypeCorruptedData, "failed to open PDF", err)
	}

	doc = &Document{Pages: reader.NumPage()}
	if doc.Pages == 0 {
		doc.Pages = declared
	}

	var b strings.Builder
	for page = 1; page <= reader.NumPage(); page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := reader.Page(page)
		if p.V.IsNull() {
			continue
		}

		text, err := pageText(p)
		if err != nil {
			e.logger.Warn("unreadable page", zap.Int("page", page), zap.Error(err))
			return nil, pdferrors.Wrap(pdferrors.ErrorTypeMalformedPage, "failed to read page", err).WithPage(page)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		b.WriteString(text)
		b.WriteString("\n")
		doc.TextPages++
	}

	doc.Text = b.String()
	e.logger.Debug("pdf text extracted",
		zap.Int("pages", doc.Pages),
		zap.Int("text_pages", doc.TextPages),
		zap.Int("chars", len(doc.Text)))

	return doc, nil
}

func (e *Extractor) precheck(data []byte) error {
	if len(data) == 0 {
		return pdferrors.NewExtractionError(pdferrors.ErrorTypeEmptyInput, "PDF content is empty")
	}

	if e.maxFileSize > 0 && int64(len(data)) > e.maxFileSize {
		return pdferrors.NewExtractionError(pdferrors.ErrorTypeTooLarge,
			fmt.Sprintf("PDF too large: %d bytes (max: %d bytes)", len(data), e.maxFileSize))
	}

	window := data
	if len(window) > headerWindow {
		window = window[:headerWindow]
	}
	if !bytes.Contains(window, []byte("%PDF-")) {
		return pdferrors.NewExtractionError(pdferrors.ErrorTypeInvalidHeader, "missing %PDF- header")
	}

	return nil
}

// inspect runs pdfcpu over the raw bytes to reject structurally broken files
// and returns the page count from the page tree.
func inspect(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return 0, err
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, err
	}

	return ctx.PageCount, nil
}

// pageText rebuilds the lines of a page from its positioned glyphs: glyphs
// whose baselines lie within rowTolerance form one row, rows run top to
// bottom and are joined with newlines. A malformed content stream makes the
// PDF library panic; it is returned as an error.
func pageText(p pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("content stream: %v", r)
		}
	}()

	rows := groupRows(p.Content().Text)
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		line := joinRow(row)
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n"), nil
}

type rowBucket struct {
	yMin, yMax float64
	texts      []pdf.Text
}

// groupRows buckets glyphs by baseline and orders the buckets top first
// (PDF y grows upwards). Glyphs keep their content order inside a bucket.
func groupRows(texts []pdf.Text) [][]pdf.Text {
	var buckets []rowBucket
	for _, t := range texts {
		if t.S == "" || t.S == "\n" {
			continue
		}

		found := false
		for i := range buckets {
			if t.Y >= buckets[i].yMin-rowTolerance && t.Y <= buckets[i].yMax+rowTolerance {
				buckets[i].texts = append(buckets[i].texts, t)
				buckets[i].yMin = min(buckets[i].yMin, t.Y)
				buckets[i].yMax = max(buckets[i].yMax, t.Y)
				found = true
				break
			}
		}
		if !found {
			buckets = append(buckets, rowBucket{yMin: t.Y, yMax: t.Y, texts: []pdf.Text{t}})
		}
	}

	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].yMax > buckets[j].yMax })

	rows := make([][]pdf.Text, len(buckets))
	for i, b := range buckets {
		rows[i] = b.texts
	}
	return rows
}

// joinRow concatenates the glyph runs of one row left to right, inserting a
// space where the gap between two runs is wider than a fraction of the font size.
func joinRow(texts []pdf.Text) string {
	if len(texts) == 0 {
		return ""
	}

	runs := make([]pdf.Text, len(texts))
	copy(runs, texts)
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].X < runs[j].X })

	var b strings.Builder
	for i, t := range runs {
		if i > 0 {
			prev := runs[i-1]
			size := prev.FontSize
			if size <= 0 {
				size = 1
			}
			gap := t.X - (prev.X + prev.W)
			if gap > spaceGap*size && !strings.HasSuffix(b.String(), " ") && !strings.HasPrefix(t.S, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
	}

	return b.String()
}
