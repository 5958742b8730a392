package domain

import (
	"fmt"
	"strings"
)

// ExtractionStatus reports how much of a file an extractor could read.
type ExtractionStatus string

// Extraction outcomes.
const (
	// ExtractionSuccess means the whole file was read.
	ExtractionSuccess ExtractionStatus = "success"

	// ExtractionPartial means some units (pages, rows, sheets) were skipped
	// or a fallback decoding was used.
	ExtractionPartial ExtractionStatus = "partial"

	// ExtractionFailure means nothing could be salvaged.
	ExtractionFailure ExtractionStatus = "failure"
)

// WarningStage names the pipeline stage that produced a warning.
type WarningStage string

// Pipeline stages.
const (
	StageRead    WarningStage = "read"
	StageExtract WarningStage = "extract"
	StageChunk   WarningStage = "chunk"
	StageEmbed   WarningStage = "embed"
	StageIndex   WarningStage = "index"
	StageSearch  WarningStage = "search"
	StageRerank  WarningStage = "rerank"
)

// Warning is a recovered, non-fatal problem reported to the caller.
type Warning struct {
	// Filename is the affected file, empty for query-time warnings.
	Filename string `json:"filename,omitempty"`

	// Stage is where the problem occurred.
	Stage WarningStage `json:"stage"`

	// Message describes the problem.
	Message string `json:"message"`
}

// NewWarning builds a warning with a formatted message.
func NewWarning(filename string, stage WarningStage, format string, args ...any) Warning {
	return Warning{
		Filename: filename,
		Stage:    stage,
		Message:  fmt.Sprintf(format, args...),
	}
}

// String renders the warning for logs and CLI output.
func (w Warning) String() string {
	if w.Filename == "" {
		return fmt.Sprintf("[%s] %s", w.Stage, w.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", w.Stage, w.Filename, w.Message)
}

// ExtractionResult is the output of a text extractor.
type ExtractionResult struct {
	// Text is the best-effort plain text.
	Text string

	// Status summarises the outcome.
	Status ExtractionStatus

	// Warnings lists every unit that could not be read.
	Warnings []Warning

	// Metadata holds format details such as page or sheet counts.
	Metadata map[string]any
}

// NewExtractionResult derives the status from the text and warnings:
// blank text is a failure, any warning makes it partial.
func NewExtractionResult(text string, warnings []Warning) ExtractionResult {
	status := ExtractionSuccess
	switch {
	case strings.TrimSpace(text) == "":
		status = ExtractionFailure
		text = ""
	case len(warnings) > 0:
		status = ExtractionPartial
	}
	return ExtractionResult{Text: text, Status: status, Warnings: warnings}
}

// FailedExtraction returns a failure result carrying one warning.
func FailedExtraction(filename, format string, args ...any) ExtractionResult {
	return ExtractionResult{
		Status:   ExtractionFailure,
		Warnings: []Warning{NewWarning(filename, StageExtract, format, args...)},
	}
}

// HasText returns true if any text was extracted.
func (r ExtractionResult) HasText() bool {
	return r.Status != ExtractionFailure && r.Text != ""
}
