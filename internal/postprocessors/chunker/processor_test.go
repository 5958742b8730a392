package chunker

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestNew_Defaults(t *testing.T) {
	p := New()
	assert.Equal(t, DefaultChunkSize, p.ChunkSize())
	assert.Equal(t, DefaultChunkOverlap, p.Overlap())
	assert.Equal(t, "chunker", p.Name())
}

func TestNew_OverlapClamp(t *testing.T) {
	tests := []struct {
		name        string
		size        int
		overlap     int
		wantSize    int
		wantOverlap int
	}{
		{"overlap equals size", 100, 100, 100, 25},
		{"overlap exceeds size", 100, 500, 100, 25},
		{"negative overlap", 100, -5, 100, 0},
		{"non-positive size keeps default", 0, 10, DefaultChunkSize, 10},
		{"valid values", 50, 10, 50, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(WithChunkSize(tt.size), WithOverlap(tt.overlap))
			assert.Equal(t, tt.wantSize, p.ChunkSize())
			assert.Equal(t, tt.wantOverlap, p.Overlap())
		})
	}
}

func TestChunk_Empty(t *testing.T) {
	p := New(WithTokenizer(newWordTokenizer()))
	assert.Empty(t, p.Chunk(""))
	assert.Empty(t, p.Chunk("   \n\t "))
}

func TestChunk_ShortTextSingleChunk(t *testing.T) {
	p := New(WithChunkSize(10), WithOverlap(2), WithTokenizer(newWordTokenizer()))
	assert.Equal(t, []string{"alpha beta gamma"}, p.Chunk("alpha beta gamma"))
}

func TestChunk_TokenWindows(t *testing.T) {
	// 30 tokens, size 10, overlap 3: windows start at 0, 7, 14, 21.
	p := New(WithChunkSize(10), WithOverlap(3), WithTokenizer(newWordTokenizer()))
	chunks := p.Chunk(words(30))

	require.Len(t, chunks, 4)
	assert.Equal(t, words(10), chunks[0])
	assert.True(t, strings.HasPrefix(chunks[1], "w7 w8 w9 w10"))
	assert.True(t, strings.HasPrefix(chunks[3], "w21 "))
	assert.True(t, strings.HasSuffix(chunks[3], " w29"))
	assert.Len(t, strings.Fields(chunks[3]), 9)
}

func TestChunk_OverlapSharesTokens(t *testing.T) {
	p := New(WithChunkSize(10), WithOverlap(3), WithTokenizer(newWordTokenizer()))
	chunks := p.Chunk(words(30))

	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		cur := strings.Fields(chunks[i])
		assert.Equal(t, prev[len(prev)-3:], cur[:3], "chunk %d overlap", i)
	}
}

func TestChunk_NoWindowContainedInPredecessor(t *testing.T) {
	// 12 tokens, size 10, overlap 3: the second window covers the tail.
	p := New(WithChunkSize(10), WithOverlap(3), WithTokenizer(newWordTokenizer()))
	chunks := p.Chunk(words(12))

	require.Len(t, chunks, 2)
	assert.Equal(t, "w7 w8 w9 w10 w11", chunks[1])
}

func TestChunk_RoundTripWithoutOverlap(t *testing.T) {
	text := words(47)
	p := New(WithChunkSize(10), WithOverlap(0), WithTokenizer(newWordTokenizer()))
	chunks := p.Chunk(text)

	require.Len(t, chunks, 5)
	assert.Equal(t, text, strings.Join(chunks, " "))
}

func TestChunk_TokenizerFailureKeepsTextWhole(t *testing.T) {
	text := words(50)

	p := New(WithChunkSize(10), WithTokenizer(brokenTokenizer{}))
	assert.Equal(t, []string{text}, p.Chunk(text))

	p = New(WithChunkSize(10))
	assert.Equal(t, []string{text}, p.Chunk(text))
}

func TestProcess_BuildsChunks(t *testing.T) {
	p := New(WithChunkSize(10), WithOverlap(3), WithTokenizer(newWordTokenizer()))
	doc := &domain.Document{Filename: "notes.md", Content: words(30)}

	chunks, err := p.Process(context.Background(), doc, []domain.Chunk{{Content: "ignored"}})
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, "notes.md", c.Filename)
		assert.Equal(t, len(strings.Fields(c.Content)), c.TokenCount)
	}
	assert.Equal(t, 10, chunks[0].TokenCount)
}

func TestProcess_EmptyContent(t *testing.T) {
	p := New(WithTokenizer(newWordTokenizer()))
	chunks, err := p.Process(context.Background(), &domain.Document{Filename: "x"}, nil)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
