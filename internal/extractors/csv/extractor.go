// Package csv extracts delimited tabular data as row-per-line text and
// surfaces numeric scores that sit next to known entity names.
package csv

import (
	"context"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/extractors/tabular"
	"github.com/custodia-labs/docrag/internal/extractors/textenc"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles delimited tabular files.
type Extractor struct {
	entities *EntityMatcher
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithEntities sets the entity names to scan for and the label used in
// synthetic score lines. Empty values keep the defaults.
func WithEntities(label string, names []string) Option {
	return func(e *Extractor) {
		e.entities = NewEntityMatcher(label, names)
	}
}

// New creates a CSV extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		entities: NewEntityMatcher("", nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FileTypes returns the formats this extractor handles.
func (e *Extractor) FileTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypeCSV}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract renders a header summary, one line per data row and a synthetic
// line for every entity with nearby scores.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) domain.ExtractionResult {
	if raw == nil || len(raw.Content) == 0 {
		return domain.FailedExtraction("", "file is empty")
	}

	text, latin1 := textenc.Decode(raw.Content)
	delimiter := SniffDelimiter(text)

	if latin1 {
		return e.extractUnstructured(raw.Filename, text, delimiter)
	}

	reader := newReader(text, delimiter)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return domain.FailedExtraction(raw.Filename, "no rows")
	}
	if err != nil {
		return domain.FailedExtraction(raw.Filename, "unreadable header: %v", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	lines := []string{"CSV Data with columns: " + strings.Join(header, ", "), ""}
	var warnings []domain.Warning
	rows := 0

	for i := 1; ; i++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			warnings = append(warnings, domain.NewWarning(raw.Filename, domain.StageExtract,
				"stopped at row %d: %v", i, err))
			break
		}
		rows++

		var rendered string
		if len(record) == len(header) {
			rendered = tabular.RenderRow(header, record)
		} else {
			rendered = tabular.JoinCells(record)
		}
		if rendered != "" {
			lines = append(lines, fmt.Sprintf("Row %d: %s", i, rendered))
		}

		lines = append(lines, e.entities.ScoreLines(record)...)

		if tabular.IsSeparatorRow(i) {
			lines = append(lines, "")
		}
	}

	result := domain.NewExtractionResult(strings.Join(lines, "\n"), warnings)
	result.Metadata = map[string]any{
		"delimiter": string(delimiter),
		"columns":   len(header),
		"rows":      rows,
	}
	return result
}

// extractUnstructured joins the cells of every row without header labels.
// It is used when the file had to be decoded as Latin-1.
func (e *Extractor) extractUnstructured(filename, text string, delimiter rune) domain.ExtractionResult {
	warnings := []domain.Warning{domain.NewWarning(filename, domain.StageExtract,
		"not valid UTF-8, decoded as Latin-1 without column labels")}

	reader := newReader(text, delimiter)
	var lines []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			warnings = append(warnings, domain.NewWarning(filename, domain.StageExtract,
				"stopped after %d rows: %v", len(lines), err))
			break
		}
		if row := tabular.JoinCells(record); row != "" {
			lines = append(lines, row)
		}
	}

	result := domain.NewExtractionResult(strings.Join(lines, "\n"), warnings)
	result.Metadata = map[string]any{
		"delimiter": string(delimiter),
		"encoding":  "latin-1",
	}
	return result
}

func newReader(text string, delimiter rune) *stdcsv.Reader {
	r := stdcsv.NewReader(strings.NewReader(text))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r
}
