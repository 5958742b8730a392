package domain

import "fmt"

// IndexReport summarises one ingestion batch.
type IndexReport struct {
	// Collection is the target collection.
	Collection string `json:"collection"`

	// Success is false when the batch contributed nothing it should have,
	// or when embedding or insertion failed.
	Success bool `json:"success"`

	// Requested is the number of files in the batch.
	Requested int `json:"requested"`

	// SkippedExisting counts files already present in the collection.
	SkippedExisting int `json:"skipped_existing"`

	// SkippedDuplicate counts repeated filenames within the batch.
	SkippedDuplicate int `json:"skipped_duplicate"`

	// Indexed counts files whose chunks were inserted.
	Indexed int `json:"indexed"`

	// Failed counts files that could not be read, extracted or chunked.
	Failed int `json:"failed"`

	// ChunksAdded is the number of records inserted.
	ChunksAdded int `json:"chunks_added"`

	// Files lists the filenames that were indexed.
	Files []string `json:"files,omitempty"`

	// Warnings lists every recovered problem.
	Warnings []Warning `json:"warnings,omitempty"`
}

// AddWarning records a problem without failing the batch.
func (r *IndexReport) AddWarning(w Warning) {
	r.Warnings = append(r.Warnings, w)
}

// Summary renders a one-line, user-visible description of the batch.
func (r *IndexReport) Summary() string {
	status := "ok"
	if !r.Success {
		status = "failed"
	}
	return fmt.Sprintf("%s: %d/%d files indexed, %d chunks added, %d already indexed, %d failed",
		status, r.Indexed, r.Requested, r.ChunksAdded, r.SkippedExisting+r.SkippedDuplicate, r.Failed)
}
