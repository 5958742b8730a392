// Package tabular renders rows of tabular data as retrievable text.
package tabular

import (
	"fmt"
	"strings"
)

// ColumnName returns headers[i], or a positional name when the header is
// missing or blank.
func ColumnName(headers []string, i int) string {
	if i < len(headers) {
		if h := strings.TrimSpace(headers[i]); h != "" {
			return h
		}
	}
	return fmt.Sprintf("Column%d", i+1)
}

// RenderRow renders the non-empty cells of a row as "header: value" pairs
// joined by ", ". It returns "" when every cell is empty.
func RenderRow(headers, cells []string) string {
	parts := make([]string, 0, len(cells))
	for i, cell := range cells {
		v := strings.TrimSpace(cell)
		if v == "" {
			continue
		}
		parts = append(parts, ColumnName(headers, i)+": "+v)
	}
	return strings.Join(parts, ", ")
}

// JoinCells joins the non-empty cells of a row with ", ".
func JoinCells(cells []string) string {
	parts := make([]string, 0, len(cells))
	for _, cell := range cells {
		if v := strings.TrimSpace(cell); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

// IsSeparatorRow reports whether a blank separator line follows the n-th
// data row (1-based).
func IsSeparatorRow(n int) bool {
	return n > 0 && n%10 == 0
}
