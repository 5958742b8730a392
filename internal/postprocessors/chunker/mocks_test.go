package chunker

import (
	"errors"
	"strings"
)

// wordTokenizer treats each whitespace-separated word as one token.
type wordTokenizer struct {
	vocab []string
	ids   map[string]int
}

func newWordTokenizer() *wordTokenizer {
	return &wordTokenizer{ids: make(map[string]int)}
}

func (w *wordTokenizer) Encode(text string) ([]int, error) {
	words := strings.Fields(text)
	out := make([]int, len(words))
	for i, word := range words {
		id, ok := w.ids[word]
		if !ok {
			id = len(w.vocab)
			w.vocab = append(w.vocab, word)
			w.ids[word] = id
		}
		out[i] = id
	}
	return out, nil
}

func (w *wordTokenizer) Decode(tokens []int) (string, error) {
	words := make([]string, len(tokens))
	for i, id := range tokens {
		words[i] = w.vocab[id]
	}
	return strings.Join(words, " "), nil
}

func (w *wordTokenizer) Name() string { return "words" }

// brokenTokenizer fails every call.
type brokenTokenizer struct{}

var errBroken = errors.New("vocabulary unavailable")

func (brokenTokenizer) Encode(string) ([]int, error) { return nil, errBroken }
func (brokenTokenizer) Decode([]int) (string, error) { return "", errBroken }
func (brokenTokenizer) Name() string                 { return "broken" }
