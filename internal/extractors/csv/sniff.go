package csv

import "strings"

// sniffSampleSize is how much of the file is inspected for a delimiter.
const sniffSampleSize = 1024

// candidates are tried in order; earlier entries win ties.
var candidates = []rune{',', ';', '\t', '|'}

// SniffDelimiter picks the candidate delimiter that appears the same
// non-zero number of times on the most lines of the sample. It returns
// a comma when no candidate appears at all.
func SniffDelimiter(text string) rune {
	sample := text
	if len(sample) > sniffSampleSize {
		sample = sample[:sniffSampleSize]
		// Drop the partial last line.
		if idx := strings.LastIndexByte(sample, '\n'); idx > 0 {
			sample = sample[:idx]
		}
	}

	var lines []string
	for _, line := range strings.Split(sample, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	best, bestScore := ',', 0
	for _, d := range candidates {
		if score := consistency(lines, d); score > bestScore {
			best, bestScore = d, score
		}
	}
	return best
}

// consistency returns how many lines share the most common non-zero
// count of d.
func consistency(lines []string, d rune) int {
	freq := make(map[int]int)
	for _, line := range lines {
		if n := strings.Count(line, string(d)); n > 0 {
			freq[n]++
		}
	}

	best := 0
	for _, lines := range freq {
		if lines > best {
			best = lines
		}
	}
	return best
}
