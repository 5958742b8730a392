// Package docx extracts text from Office Open XML word-processing documents,
// keeping headings, list items and tables recognisable in the output.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// maxHeadingLevel caps the number of '#' markers for a heading.
const maxHeadingLevel = 6

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// FileTypes returns the formats this extractor handles.
func (e *Extractor) FileTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypeDOCX}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract renders body paragraphs followed by tables.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) domain.ExtractionResult {
	if raw == nil || len(raw.Content) == 0 {
		return domain.FailedExtraction("", "file is empty")
	}

	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return domain.FailedExtraction(raw.Filename, "not a DOCX archive: %v", err)
	}

	var warnings []domain.Warning

	styles, err := readStyles(reader)
	if err != nil {
		warnings = append(warnings, domain.NewWarning(raw.Filename, domain.StageExtract,
			"styles unreadable, headings and lists rendered as text: %v", err))
	}

	content, err := readPart(reader, "word/document.xml")
	if err != nil {
		return domain.FailedExtraction(raw.Filename, "document body unreadable: %v", err)
	}

	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		// Unmarshal keeps the elements decoded before the error.
		warnings = append(warnings, domain.NewWarning(raw.Filename, domain.StageExtract,
			"document body truncated: %v", err))
	}

	parts := make([]string, 0, len(doc.Body.Paragraphs)+len(doc.Body.Tables))
	for _, p := range doc.Body.Paragraphs {
		if line := renderParagraph(p, styles); line != "" {
			parts = append(parts, line)
		}
	}
	for _, tbl := range doc.Body.Tables {
		if block := renderTable(tbl); block != "" {
			parts = append(parts, block)
		}
	}

	result := domain.NewExtractionResult(strings.Join(parts, "\n"), warnings)
	result.Metadata = map[string]any{
		"paragraphs": len(doc.Body.Paragraphs),
		"tables":     len(doc.Body.Tables),
	}
	if title := readTitle(reader); title != "" {
		result.Metadata["title"] = title
	}
	return result
}

// renderParagraph applies heading and list markers.
func renderParagraph(p paragraph, styles styleNames) string {
	text := strings.TrimSpace(p.text)
	if text == "" {
		return ""
	}

	name := styles.name(p.style)
	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(lower, "heading"):
		return "\n" + strings.Repeat("#", headingLevel(name)) + " " + text + "\n"
	case strings.Contains(lower, "list") || p.numbered:
		return "• " + text
	default:
		return text
	}
}

// headingLevel reads the level from a style name such as "Heading 3".
// Names without a level render as level 2.
func headingLevel(name string) int {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, name)

	level := 0
	for _, d := range digits {
		level = level*10 + int(d-'0')
		if level > maxHeadingLevel {
			return maxHeadingLevel
		}
	}
	if level == 0 {
		return 2
	}
	return level
}

// renderTable renders each non-empty row as " | "-joined cells between
// explicit table markers.
func renderTable(tbl table) string {
	rows := make([]string, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		cells := make([]string, len(row.Cells))
		nonEmpty := false
		for i, cell := range row.Cells {
			cells[i] = cell.text()
			if cells[i] != "" {
				nonEmpty = true
			}
		}
		if nonEmpty {
			rows = append(rows, strings.Join(cells, " | "))
		}
	}
	if len(rows) == 0 {
		return ""
	}
	return "\n--- Table ---\n" + strings.Join(rows, "\n") + "\n--- End Table ---\n"
}

// readPart returns the bytes of a named archive member.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s: %w", name, domain.ErrNotFound)
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

// readTitle returns the document title from docProps/core.xml, if any.
func readTitle(reader *zip.Reader) string {
	content, err := readPart(reader, "docProps/core.xml")
	if err != nil {
		return ""
	}
	var core coreXML
	if err := xml.Unmarshal(content, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
