package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/postprocessors/chunker"
	"github.com/custodia-labs/docrag/internal/postprocessors/cleaner"
)

// RegisterDefaults registers all built-in processors with the registry.
func RegisterDefaults(r *Registry) {
	r.Register("cleaner", buildCleaner)
	r.Register("chunker", buildChunker)
}

// DefaultStages returns the standard clean-then-chunk stages for the
// given chunking settings and tokenizer.
func DefaultStages(cfg domain.ChunkingSettings, tokenizer driven.Tokenizer) []Stage {
	return []Stage{
		{Name: "cleaner"},
		{Name: "chunker", Config: map[string]any{
			"chunk_size": cfg.Size,
			"overlap":    cfg.Overlap,
			"semantic":   cfg.Semantic,
			"tokenizer":  tokenizer,
		}},
	}
}

// NewDefaultPipeline builds the clean-then-chunk pipeline.
func NewDefaultPipeline(cfg domain.ChunkingSettings, tokenizer driven.Tokenizer) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.BuildPipeline(DefaultStages(cfg, tokenizer)...)
}

func buildCleaner(_ map[string]any) (driven.PostProcessor, error) {
	return cleaner.New(), nil
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): tokens per chunk (default: 800)
//   - overlap (int): overlapping tokens between chunks (default: 100)
//   - semantic (bool): pack whole sentences
//   - tokenizer (driven.Tokenizer): required for token windows
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if cfg != nil {
		if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
			opts = append(opts, chunker.WithChunkSize(size))
		}
		if _, ok := cfg["overlap"]; ok {
			opts = append(opts, chunker.WithOverlap(getIntFromConfig(cfg, "overlap")))
		}
		if semantic, ok := cfg["semantic"].(bool); ok {
			opts = append(opts, chunker.WithSentences(semantic))
		}
		if raw, ok := cfg["tokenizer"]; ok && raw != nil {
			tok, ok := raw.(driven.Tokenizer)
			if !ok {
				return nil, fmt.Errorf("%w: tokenizer has type %T", domain.ErrInvalidInput, raw)
			}
			opts = append(opts, chunker.WithTokenizer(tok))
		}
	}

	return chunker.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
