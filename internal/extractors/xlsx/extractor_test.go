package xlsx

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func buildWorkbook(t *testing.T, build func(f *excelize.File)) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	build(f)
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func set(t *testing.T, f *excelize.File, sheet, cell string, v any) {
	t.Helper()
	require.NoError(t, f.SetCellValue(sheet, cell, v))
}

func TestExtractor_FileTypes(t *testing.T) {
	assert.Equal(t, []domain.FileType{domain.FileTypeXLSX}, New().FileTypes())
}

func TestExtractor_Sheets(t *testing.T) {
	content := buildWorkbook(t, func(f *excelize.File) {
		set(t, f, "Sheet1", "A1", "Capability")
		set(t, f, "Sheet1", "B1", "Maturity")
		set(t, f, "Sheet1", "A2", "Change Control")
		set(t, f, "Sheet1", "B2", 3)
		set(t, f, "Sheet1", "A4", "BOM PIM")

		_, err := f.NewSheet("Empty")
		require.NoError(t, err)

		_, err = f.NewSheet("Impacts")
		require.NoError(t, err)
		set(t, f, "Impacts", "A1", "Project")
		set(t, f, "Impacts", "C1", "Score")
		set(t, f, "Impacts", "A2", "Digital Twin")
		set(t, f, "Impacts", "B2", "n/a")
		set(t, f, "Impacts", "C2", "2")
	})

	r := New().Extract(context.Background(), &domain.RawDocument{Filename: "m.xlsx", Content: content})

	require.Equal(t, domain.ExtractionSuccess, r.Status, "warnings: %v", r.Warnings)
	assert.Equal(t, 3, r.Metadata["sheets"])

	text := r.Text
	assert.Contains(t, text, "=== Sheet: Sheet1 ===")
	assert.Contains(t, text, "Columns: Capability, Maturity")
	assert.Contains(t, text, "Row 1: Capability: Change Control, Maturity: 3")
	assert.Contains(t, text, "Row 3: Capability: BOM PIM")
	assert.NotContains(t, text, "Row 2:")

	assert.Contains(t, text, "=== Sheet: Empty ===\n\n(Empty sheet)")

	assert.Contains(t, text, "Columns: Project, Column2, Score")
	assert.Contains(t, text, "Row 1: Project: Digital Twin, Column2: n/a, Score: 2")

	assert.Less(t, strings.Index(text, "Sheet1"), strings.Index(text, "Empty"))
	assert.Less(t, strings.Index(text, "Empty"), strings.Index(text, "Impacts"))
}

func TestExtractor_SeparatorEveryTenRows(t *testing.T) {
	content := buildWorkbook(t, func(f *excelize.File) {
		set(t, f, "Sheet1", "A1", "N")
		for i := 1; i <= 12; i++ {
			set(t, f, "Sheet1", fmt.Sprintf("A%d", i+1), fmt.Sprintf("v%d", i))
		}
	})

	r := New().Extract(context.Background(), &domain.RawDocument{Filename: "n.xlsx", Content: content})

	assert.Contains(t, r.Text, "Row 10: N: v10\n\nRow 11: N: v11")
	assert.Contains(t, r.Text, "Row 9: N: v9\nRow 10: N: v10")
}

func TestExtractor_CorruptWorkbook(t *testing.T) {
	r := New().Extract(context.Background(), &domain.RawDocument{Filename: "bad.xlsx", Content: []byte("PK not really")})

	assert.Equal(t, domain.ExtractionFailure, r.Status)
	assert.Empty(t, r.Text)
	require.NotEmpty(t, r.Warnings)
	assert.Contains(t, r.Warnings[0].Message, "unreadable workbook")
}

func TestRenderSheet(t *testing.T) {
	assert.Equal(t, []string{"(Empty sheet)"}, renderSheet(nil))
	assert.Equal(t, []string{"(Empty sheet)"}, renderSheet([][]string{{}, {}}))

	lines := renderSheet([][]string{{"A", ""}, {"1", "2"}})
	assert.Equal(t, []string{"Columns: A, Column2", "", "Row 1: A: 1, Column2: 2"}, lines)
}

func TestRenderSheet_SeparatorAfterBlankTenthRow(t *testing.T) {
	rows := [][]string{{"N"}}
	for i := 1; i <= 11; i++ {
		if i == 10 {
			rows = append(rows, []string{""})
			continue
		}
		rows = append(rows, []string{fmt.Sprintf("v%d", i)})
	}

	text := strings.Join(renderSheet(rows), "\n")

	assert.NotContains(t, text, "Row 10:")
	assert.Contains(t, text, "Row 9: N: v9\n\nRow 11: N: v11")
}
