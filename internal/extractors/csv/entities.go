package csv

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

const (
	// neighbourhood is how many cells either side of a match are scanned.
	neighbourhood = 2

	// maxScoreLen bounds the length of a cell treated as a score.
	maxScoreLen = 10
)

// EntityMatcher finds known entity names in row cells and collects the
// short numeric cells around them.
type EntityMatcher struct {
	label string
	names []string
	lower []string
}

// NewEntityMatcher creates a matcher. An empty label defaults to "PROJECT"
// and nil names default to domain.DefaultEntityNames.
func NewEntityMatcher(label string, names []string) *EntityMatcher {
	if strings.TrimSpace(label) == "" {
		label = "PROJECT"
	}
	if names == nil {
		names = domain.DefaultEntityNames()
	}

	m := &EntityMatcher{label: label}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		m.names = append(m.names, n)
		m.lower = append(m.lower, strings.ToLower(n))
	}
	return m
}

// ScoreLines returns one "{label}: {entity} has impact scores: ..." line
// per entity match that has at least one score nearby.
func (m *EntityMatcher) ScoreLines(record []string) []string {
	var lines []string
	for j, cell := range record {
		lowerCell := strings.ToLower(cell)
		for k, name := range m.lower {
			if !strings.Contains(lowerCell, name) {
				continue
			}
			scores := nearbyScores(record, j)
			if len(scores) == 0 {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s: %s has impact scores: %s",
				m.label, m.names[k], strings.Join(scores, ", ")))
		}
	}
	return lines
}

// nearbyScores collects score-like cells within the neighbourhood of j.
func nearbyScores(record []string, j int) []string {
	var scores []string
	for offset := -neighbourhood; offset <= neighbourhood; offset++ {
		i := j + offset
		if offset == 0 || i < 0 || i >= len(record) {
			continue
		}
		if v := strings.TrimSpace(record[i]); isScore(v) {
			scores = append(scores, v)
		}
	}
	return scores
}

// isScore reports whether v is a short token containing a digit or '%'.
func isScore(v string) bool {
	if v == "" || len(v) >= maxScoreLen {
		return false
	}
	return strings.IndexFunc(v, func(r rune) bool {
		return unicode.IsDigit(r) || r == '%'
	}) >= 0
}
