// Package chunker splits document content into overlapping token windows,
// optionally packing whole sentences.
package chunker

import (
	"context"
	"errors"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// DefaultChunkSize is the default number of tokens per chunk.
const DefaultChunkSize = 800

// DefaultChunkOverlap is the default number of overlapping tokens.
const DefaultChunkOverlap = 100

// Processor splits document content into token-bounded chunks.
// It implements the PostProcessor interface.
type Processor struct {
	tokenizer driven.Tokenizer
	chunkSize int
	overlap   int
	sentences bool
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in tokens. Non-positive sizes are ignored.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in tokens.
// Negative values mean no overlap.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap < 0 {
			overlap = 0
		}
		p.overlap = overlap
	}
}

// WithSentences enables sentence-aware packing.
func WithSentences(enabled bool) Option {
	return func(p *Processor) {
		p.sentences = enabled
	}
}

// WithTokenizer sets the tokenizer. Without one, every document becomes
// a single chunk.
func WithTokenizer(t driven.Tokenizer) Option {
	return func(p *Processor) {
		p.tokenizer = t
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Overlap must leave a positive stride.
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the effective chunk size in tokens.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the effective overlap in tokens, after clamping.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	pieces := p.split(doc.Content)
	if len(pieces) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, pc := range pieces {
		chunks = append(chunks, domain.Chunk{
			Index:      i,
			Filename:   doc.Filename,
			Content:    pc.text,
			TokenCount: pc.tokens,
		})
	}

	logger.Debug("chunker: %s -> %d chunks (size=%d overlap=%d sentences=%v)",
		doc.Filename, len(chunks), p.chunkSize, p.overlap, p.sentences)
	return chunks, nil
}

// Chunk splits text and returns the chunk texts in order.
// It never fails: if the tokenizer is unusable, the whole text is returned
// as a single chunk.
func (p *Processor) Chunk(text string) []string {
	pieces := p.split(text)
	out := make([]string, len(pieces))
	for i, pc := range pieces {
		out[i] = pc.text
	}
	return out
}

// piece is a chunk text with its token count.
type piece struct {
	text   string
	tokens int
}

func (p *Processor) split(text string) []piece {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var (
		pieces []piece
		err    error
	)
	if p.sentences {
		pieces, err = p.sentenceWindows(text)
		if err != nil {
			logger.Debug("chunker: sentence packing failed, using token windows: %v", err)
			pieces, err = p.tokenWindows(text)
		}
	} else {
		pieces, err = p.tokenWindows(text)
	}

	if err != nil || len(pieces) == 0 {
		if err != nil {
			logger.Debug("chunker: tokenizer failed, keeping text whole: %v", err)
		}
		return []piece{{text: text}}
	}
	return pieces
}

var errNoTokenizer = errors.New("no tokenizer configured")

func (p *Processor) encode(text string) ([]int, error) {
	if p.tokenizer == nil {
		return nil, errNoTokenizer
	}
	return p.tokenizer.Encode(text)
}

// tokenWindows slides a chunkSize window across the token sequence with
// stride chunkSize-overlap. Windows that decode to whitespace are dropped.
// The scan stops at the window that reaches the end of the sequence.
func (p *Processor) tokenWindows(text string) ([]piece, error) {
	tokens, err := p.encode(text)
	if err != nil {
		return nil, err
	}

	stride := p.chunkSize - p.overlap
	pieces := make([]piece, 0, len(tokens)/stride+1)

	for start := 0; start < len(tokens); start += stride {
		end := min(start+p.chunkSize, len(tokens))

		decoded, err := p.tokenizer.Decode(tokens[start:end])
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(decoded) != "" {
			pieces = append(pieces, piece{text: decoded, tokens: end - start})
		}

		if end == len(tokens) {
			break
		}
	}

	return pieces, nil
}
