// Package tiktoken provides a BPE tokenizer adapter backed by tiktoken-go.
// Vocabularies are loaded from the embedded offline loader, so no network
// access is needed.
package tiktoken

import (
	"fmt"
	"sync"

	tiktokengo "github.com/pkoukk/tiktoken-go"
	tiktokenloader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure Tokenizer implements the interface.
var _ driven.Tokenizer = (*Tokenizer)(nil)

// DefaultEncoding is the vocabulary used when none is configured.
const DefaultEncoding = "cl100k_base"

var loaderOnce sync.Once

// Tokenizer encodes text with a named BPE vocabulary.
// The vocabulary is loaded on first use.
type Tokenizer struct {
	name string

	mu  sync.Mutex
	enc *tiktokengo.Tiktoken
	err error
}

// New creates a tokenizer for the named encoding.
func New(encoding string) *Tokenizer {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &Tokenizer{name: encoding}
}

// Name returns the vocabulary name.
func (t *Tokenizer) Name() string {
	return t.name
}

// Encode returns the token ids of text.
func (t *Tokenizer) Encode(text string) ([]int, error) {
	enc, err := t.load()
	if err != nil {
		return nil, err
	}
	return enc.Encode(text, nil, nil), nil
}

// Decode returns the text for a token id sequence.
func (t *Tokenizer) Decode(tokens []int) (string, error) {
	enc, err := t.load()
	if err != nil {
		return "", err
	}
	return enc.Decode(tokens), nil
}

// load resolves the encoding once. A failed load is remembered.
func (t *Tokenizer) load() (*tiktokengo.Tiktoken, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.enc != nil || t.err != nil {
		return t.enc, t.err
	}

	loaderOnce.Do(func() {
		tiktokengo.SetBpeLoader(tiktokenloader.NewOfflineLoader())
	})

	enc, err := tiktokengo.GetEncoding(t.name)
	if err != nil {
		t.err = fmt.Errorf("%w: encoding %q: %v", domain.ErrTokenizerUnavailable, t.name, err)
		logger.Warn("tokenizer: %v", t.err)
		return nil, t.err
	}

	logger.Debug("tokenizer: loaded %s", t.name)
	t.enc = enc
	return enc, nil
}
