package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SplitSentences splits content at sentence terminators followed by
// whitespace, and at line breaks. Terminators inside tokens such as
// "3.5" do not split.
func SplitSentences(content string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	for i, r := range content {
		current.WriteRune(r)
		switch r {
		case '\n':
			flush()
		case '.', '!', '?':
			next, _ := utf8.DecodeRuneInString(content[i+utf8.RuneLen(r):])
			if next == utf8.RuneError || unicode.IsSpace(next) {
				flush()
			}
		}
	}
	flush()

	return sentences
}

// sentenceWindows packs whole sentences into chunks of at most chunkSize
// tokens. When a chunk closes, the next one is seeded with trailing
// sentences of the closed chunk totalling at most overlap tokens. A
// sentence longer than chunkSize is split into token windows on its own.
func (p *Processor) sentenceWindows(text string) ([]piece, error) {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return p.tokenWindows(text)
	}

	counts := make([]int, len(sentences))
	for i, s := range sentences {
		tokens, err := p.encode(s)
		if err != nil {
			return nil, err
		}
		counts[i] = len(tokens)
	}

	var (
		pieces    []piece
		current   []int
		curTokens int
	)

	emit := func() error {
		if len(current) == 0 {
			return nil
		}
		parts := make([]string, len(current))
		for i, idx := range current {
			parts[i] = sentences[idx]
		}
		joined := strings.Join(parts, " ")
		tokens, err := p.encode(joined)
		if err != nil {
			return err
		}
		pieces = append(pieces, piece{text: joined, tokens: len(tokens)})
		return nil
	}

	for i, n := range counts {
		if n > p.chunkSize {
			if err := emit(); err != nil {
				return nil, err
			}
			current, curTokens = nil, 0

			windows, err := p.tokenWindows(sentences[i])
			if err != nil {
				return nil, err
			}
			pieces = append(pieces, windows...)
			continue
		}

		if curTokens+n > p.chunkSize && len(current) > 0 {
			if err := emit(); err != nil {
				return nil, err
			}
			current, curTokens = p.seed(current, counts)

			// The seed must leave room for the sentence that overflowed.
			for len(current) > 0 && curTokens+n > p.chunkSize {
				curTokens -= counts[current[0]]
				current = current[1:]
			}
		}

		current = append(current, i)
		curTokens += n
	}

	if err := emit(); err != nil {
		return nil, err
	}
	return pieces, nil
}

// seed walks backward over the closed chunk's sentences, keeping those
// whose combined count fits the overlap budget.
func (p *Processor) seed(closed []int, counts []int) ([]int, int) {
	start, total := len(closed), 0
	for j := len(closed) - 1; j >= 0; j-- {
		if total+counts[closed[j]] > p.overlap {
			break
		}
		total += counts[closed[j]]
		start = j
	}

	seeded := make([]int, len(closed)-start)
	copy(seeded, closed[start:])
	return seeded, total
}
