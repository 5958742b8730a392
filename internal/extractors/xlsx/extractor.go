// Package xlsx extracts spreadsheet workbooks sheet by sheet.
package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/extractors/tabular"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles XLSX workbooks.
type Extractor struct{}

// New creates a new XLSX extractor.
func New() *Extractor {
	return &Extractor{}
}

// FileTypes returns the formats this extractor handles.
func (e *Extractor) FileTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypeXLSX}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract renders every sheet under its own marker. A sheet that cannot be
// read is skipped with a warning.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawDocument) domain.ExtractionResult {
	if raw == nil || len(raw.Content) == 0 {
		return domain.FailedExtraction("", "file is empty")
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw.Content))
	if err != nil {
		return domain.FailedExtraction(raw.Filename, "unreadable workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	var lines []string
	var warnings []domain.Warning

	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			warnings = append(warnings, domain.NewWarning(raw.Filename, domain.StageExtract,
				"stopped at sheet %q: %v", sheet, err))
			break
		}

		lines = append(lines, fmt.Sprintf("\n=== Sheet: %s ===\n", sheet))

		rows, err := f.GetRows(sheet)
		if err != nil {
			warnings = append(warnings, domain.NewWarning(raw.Filename, domain.StageExtract,
				"sheet %q skipped: %v", sheet, err))
			continue
		}

		lines = append(lines, renderSheet(rows)...)
		lines = append(lines, "")
	}

	result := domain.NewExtractionResult(strings.Join(lines, "\n"), warnings)
	result.Metadata = map[string]any{"sheets": len(sheets)}
	return result
}

// renderSheet renders the header row and data rows of one sheet.
func renderSheet(rows [][]string) []string {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if len(rows) == 0 || width == 0 {
		return []string{"(Empty sheet)"}
	}

	headers := make([]string, width)
	for i := range headers {
		headers[i] = tabular.ColumnName(rows[0], i)
	}

	lines := []string{"Columns: " + strings.Join(headers, ", "), ""}
	for n, row := range rows[1:] {
		rowNum := n + 1
		if rendered := tabular.RenderRow(headers, row); rendered != "" {
			lines = append(lines, fmt.Sprintf("Row %d: %s", rowNum, rendered))
		}
		if tabular.IsSeparatorRow(rowNum) {
			lines = append(lines, "")
		}
	}
	return lines
}
