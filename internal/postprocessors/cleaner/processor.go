// Package cleaner repairs whitespace and punctuation left behind by text
// extraction.
package cleaner

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

var (
	gluedPunctuation = regexp.MustCompile(`([.,])([a-zA-Z])`)
	blankLineRuns    = regexp.MustCompile(`\n\s*\n`)
	spaceRuns        = regexp.MustCompile(` +`)
	lineEndings      = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// Clean normalises extracted text:
//  1. a space is inserted after a period or comma glued to a letter
//  2. runs of blank lines collapse to one paragraph break
//  3. runs of spaces collapse to one
//  4. every line is trimmed and blank lines are dropped
//
// Clean is idempotent.
func Clean(text string) string {
	text = lineEndings.Replace(text)
	text = gluedPunctuation.ReplaceAllString(text, "$1 $2")
	text = blankLineRuns.ReplaceAllString(text, "\n\n")
	text = spaceRuns.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// Processor applies Clean to a document's content.
// It implements the PostProcessor interface.
type Processor struct{}

// New creates a new cleaner processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "cleaner"
}

// Process rewrites doc.Content from doc.RawText, or cleans the existing
// content when no raw text is set. Chunks pass through unchanged.
func (p *Processor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	source := doc.RawText
	if source == "" {
		source = doc.Content
	}
	doc.Content = Clean(source)
	return chunks, nil
}
