// Package vector holds the distance and validation helpers shared by the
// vector storage backends. Backends live in subpackages:
//
//   - memory: in-process maps, lost on exit
//   - sqlite: modernc.org/sqlite file with float32 blobs
//   - pgvector: PostgreSQL with the pgvector extension
package vector

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// CosineDistance returns 1 - cos(a, b). Zero vectors are at distance 1
// from everything.
func CosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// ValidateName rejects empty collection names.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: collection name is empty", domain.ErrInvalidInput)
	}
	return nil
}

// ValidateRecords checks a batch before insertion: ids must be non-empty
// and unique within the batch, and every embedding must have dims
// dimensions. dims of zero adopts the first record's size.
// It returns the batch dimension.
func ValidateRecords(records []domain.VectorRecord, dims int) (int, error) {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.ID == "" {
			return 0, fmt.Errorf("%w: record id is empty", domain.ErrInvalidInput)
		}
		if _, dup := seen[r.ID]; dup {
			return 0, fmt.Errorf("%w: %s repeated in batch", domain.ErrDuplicateID, r.ID)
		}
		seen[r.ID] = struct{}{}

		if len(r.Embedding) == 0 {
			return 0, fmt.Errorf("%w: record %s has no embedding", domain.ErrInvalidInput, r.ID)
		}
		if dims == 0 {
			dims = len(r.Embedding)
		}
		if len(r.Embedding) != dims {
			return 0, fmt.Errorf("%w: record %s has %d dimensions, want %d",
				domain.ErrInvalidInput, r.ID, len(r.Embedding), dims)
		}
	}
	return dims, nil
}

// Candidate pairs a stored record with its distance to a query.
type Candidate struct {
	Record   domain.VectorRecord
	Distance float64
}

// Nearest ranks candidates by ascending distance and keeps at most k.
func Nearest(cands []Candidate, k int) []domain.VectorHit {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Distance < cands[j].Distance
	})
	if len(cands) > k {
		cands = cands[:k]
	}

	hits := make([]domain.VectorHit, len(cands))
	for i, c := range cands {
		hits[i] = domain.VectorHit{
			ID:       c.Record.ID,
			Content:  c.Record.Content,
			Metadata: c.Record.Metadata,
			Distance: c.Distance,
		}
	}
	return hits
}

// SortedFilenames returns the distinct non-empty filenames, sorted.
func SortedFilenames(names map[string]struct{}) []string {
	out := make([]string, 0, len(names))
	for n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
