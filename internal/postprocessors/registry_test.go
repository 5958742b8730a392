package postprocessors

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/postprocessors/chunker"
)

// fieldsTokenizer treats each whitespace-separated word as one token.
type fieldsTokenizer struct {
	vocab []string
	ids   map[string]int
}

func (f *fieldsTokenizer) Encode(text string) ([]int, error) {
	if f.ids == nil {
		f.ids = make(map[string]int)
	}
	words := strings.Fields(text)
	out := make([]int, len(words))
	for i, w := range words {
		id, ok := f.ids[w]
		if !ok {
			id = len(f.vocab)
			f.vocab = append(f.vocab, w)
			f.ids[w] = id
		}
		out[i] = id
	}
	return out, nil
}

func (f *fieldsTokenizer) Decode(tokens []int) (string, error) {
	words := make([]string, len(tokens))
	for i, id := range tokens {
		words[i] = f.vocab[id]
	}
	return strings.Join(words, " "), nil
}

func (f *fieldsTokenizer) Name() string { return "fields" }

func TestRegistry_RegisterAndBuild(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Has("test"))

	r.Register("test", func(cfg map[string]any) (driven.PostProcessor, error) {
		name := "default"
		if n, ok := cfg["name"].(string); ok {
			name = n
		}
		return &mockProcessor{name: name}, nil
	})

	assert.True(t, r.Has("test"))
	proc, err := r.Build("test", map[string]any{"name": "custom"})
	require.NoError(t, err)
	assert.Equal(t, "custom", proc.Name())
}

func TestRegistry_Build_Unknown(t *testing.T) {
	_, err := NewRegistry().Build("missing", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistry_Names_Sorted(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)
	assert.Equal(t, []string{"chunker", "cleaner"}, r.Names())
}

func TestRegistry_BuildPipeline_UnknownStage(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	_, err := r.BuildPipeline(Stage{Name: "cleaner"}, Stage{Name: "nope"})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "build nope")
}

func TestBuildChunker_Config(t *testing.T) {
	proc, err := buildChunker(map[string]any{
		"chunk_size": int64(50),
		"overlap":    float64(10),
		"semantic":   true,
		"tokenizer":  &fieldsTokenizer{},
	})
	require.NoError(t, err)

	c, ok := proc.(*chunker.Processor)
	require.True(t, ok)
	assert.Equal(t, 50, c.ChunkSize())
	assert.Equal(t, 10, c.Overlap())
}

func TestBuildChunker_Defaults(t *testing.T) {
	proc, err := buildChunker(nil)
	require.NoError(t, err)

	c := proc.(*chunker.Processor)
	assert.Equal(t, chunker.DefaultChunkSize, c.ChunkSize())
	assert.Equal(t, chunker.DefaultChunkOverlap, c.Overlap())
}

func TestBuildChunker_BadTokenizer(t *testing.T) {
	_, err := buildChunker(map[string]any{"tokenizer": "cl100k_base"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetIntFromConfig(t *testing.T) {
	cfg := map[string]any{"a": 1, "b": int64(2), "c": float64(3), "d": "4"}
	assert.Equal(t, 1, getIntFromConfig(cfg, "a"))
	assert.Equal(t, 2, getIntFromConfig(cfg, "b"))
	assert.Equal(t, 3, getIntFromConfig(cfg, "c"))
	assert.Equal(t, 0, getIntFromConfig(cfg, "d"))
	assert.Equal(t, 0, getIntFromConfig(cfg, "missing"))
}

func TestNewDefaultPipeline_CleansThenChunks(t *testing.T) {
	settings := domain.ChunkingSettings{Size: 4, Overlap: 1, Semantic: false}
	p, err := NewDefaultPipeline(settings, &fieldsTokenizer{})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())

	doc := &domain.Document{
		Filename: "a.txt",
		RawText:  "one two\r\n\r\n\r\nthree   four five six",
	}
	chunks, err := p.Process(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, "one two\nthree four five six", doc.Content)
	require.Len(t, chunks, 2)
	assert.Equal(t, "one two three four", chunks[0].Content)
	assert.Equal(t, "four five six", chunks[1].Content)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, "a.txt", c.Filename)
	}
}
