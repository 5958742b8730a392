// Package lexical provides a local cross-encoder that scores candidates by
// BM25 over the query terms, using the candidate set as the corpus.
package lexical

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure Scorer implements the interface.
var _ driven.CrossEncoder = (*Scorer)(nil)

// ModelName identifies this scorer.
const ModelName = "lexical-bm25"

// BM25 parameters.
const (
	k1 = 1.2
	b  = 0.75
)

var termPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Scorer ranks documents by query-term overlap.
type Scorer struct{}

// New creates a lexical scorer.
func New() *Scorer {
	return &Scorer{}
}

// Score returns one BM25 score per document. Documents sharing no terms
// with the query score zero.
func (s *Scorer) Score(ctx context.Context, query string, documents []string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scores := make([]float64, len(documents))
	qterms := unique(terms(query))
	if len(qterms) == 0 || len(documents) == 0 {
		return scores, nil
	}

	tfs := make([]map[string]int, len(documents))
	lengths := make([]int, len(documents))
	df := make(map[string]int)
	total := 0
	for i, doc := range documents {
		toks := terms(doc)
		lengths[i] = len(toks)
		total += len(toks)

		tf := make(map[string]int)
		for _, t := range toks {
			tf[t]++
		}
		tfs[i] = tf
		for _, q := range qterms {
			if tf[q] > 0 {
				df[q]++
			}
		}
	}

	avg := float64(total) / float64(len(documents))
	if avg == 0 {
		return scores, nil
	}
	n := float64(len(documents))

	for i := range documents {
		norm := k1 * (1 - b + b*float64(lengths[i])/avg)
		for _, q := range qterms {
			f := float64(tfs[i][q])
			if f == 0 {
				continue
			}
			idf := math.Log(1 + (n-float64(df[q])+0.5)/(float64(df[q])+0.5))
			scores[i] += idf * f * (k1 + 1) / (f + norm)
		}
	}
	return scores, nil
}

// ModelName returns "lexical-bm25".
func (s *Scorer) ModelName() string {
	return ModelName
}

// Ping always succeeds.
func (s *Scorer) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *Scorer) Close() error {
	return nil
}

func terms(text string) []string {
	return termPattern.FindAllString(strings.ToLower(text), -1)
}

func unique(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, t := range in {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
