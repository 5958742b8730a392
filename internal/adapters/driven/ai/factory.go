// Package ai provides factory functions for creating the retrieval
// pipeline's driven adapters from settings.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docrag/internal/adapters/driven/embedding/cached"
	"github.com/custodia-labs/docrag/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/docrag/internal/adapters/driven/embedding/lazy"
	ollamaembed "github.com/custodia-labs/docrag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docrag/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/docrag/internal/adapters/driven/rerank/lexical"
	"github.com/custodia-labs/docrag/internal/adapters/driven/rerank/tei"
	"github.com/custodia-labs/docrag/internal/adapters/driven/tokenizer/tiktoken"
	"github.com/custodia-labs/docrag/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/docrag/internal/adapters/driven/vector/pgvector"
	"github.com/custodia-labs/docrag/internal/adapters/driven/vector/sqlite"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
	"github.com/custodia-labs/docrag/internal/postprocessors"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Components holds the driven adapters a retrieval service runs on.
type Components struct {
	Embedding    driven.EmbeddingService
	CrossEncoder driven.CrossEncoder
	Backend      driven.VectorStorageBackend
	Tokenizer    driven.Tokenizer
	Pipeline     *postprocessors.Pipeline
}

// Close releases all resources held by the components.
func (c *Components) Close() error {
	var errs []error
	if c.Embedding != nil {
		errs = append(errs, c.Embedding.Close())
	}
	if c.CrossEncoder != nil {
		errs = append(errs, c.CrossEncoder.Close())
	}
	if c.Backend != nil {
		errs = append(errs, c.Backend.Close())
	}
	return errors.Join(errs...)
}

// Create builds every component from settings. Embedding and rerank
// models load lazily, so only the vector backend touches external state.
func Create(ctx context.Context, settings *domain.RetrievalSettings) (*Components, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: settings are required", domain.ErrInvalidInput)
	}

	encoder, err := CreateCrossEncoder(settings.Rerank)
	if err != nil {
		return nil, err
	}

	tok := CreateTokenizer(settings.Chunking)
	pipeline, err := postprocessors.NewDefaultPipeline(settings.Chunking, tok)
	if err != nil {
		return nil, fmt.Errorf("building pipeline: %w", err)
	}

	backend, err := CreateVectorBackend(ctx, settings.Storage)
	if err != nil {
		return nil, err
	}

	return &Components{
		Embedding:    CreateEmbeddingService(settings.Embedding),
		CrossEncoder: encoder,
		Backend:      backend,
		Tokenizer:    tok,
		Pipeline:     pipeline,
	}, nil
}

// Open creates the components and loads the embedding model, falling
// back if configured. A model that cannot be loaded fails here rather
// than on the first index or search.
func Open(ctx context.Context, settings *domain.RetrievalSettings) (*Components, error) {
	c, err := Create(ctx, settings)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.Embedding.Ping(pingCtx); err != nil {
		if closeErr := c.Close(); closeErr != nil {
			logger.Warn("closing components: %v", closeErr)
		}
		if errors.Is(err, domain.ErrEmbeddingUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrEmbeddingUnavailable, settings.Embedding.Model, err)
	}
	return c, nil
}

// CreateEmbeddingService returns a lazily loaded, cached embedding service.
// Nothing is contacted until the first embedding is requested.
func CreateEmbeddingService(settings domain.EmbeddingSettings) driven.EmbeddingService {
	svc := lazy.New(NewEmbeddingLoader(settings), settings.Model, settings.FallbackModel)
	return cached.Wrap(svc, settings.CacheSize, cached.DefaultTTL)
}

// NewEmbeddingLoader resolves model names to concrete services.
// "hashing-N" models are served locally whatever the provider, so a
// hashing fallback always loads.
func NewEmbeddingLoader(settings domain.EmbeddingSettings) lazy.Loader {
	return func(_ context.Context, model string) (driven.EmbeddingService, error) {
		if hashing.IsModel(model) {
			return hashing.NewFromModel(model)
		}

		switch settings.Provider {
		case domain.AIProviderOllama:
			return createOllamaEmbedding(settings, model), nil

		case domain.AIProviderOpenAI:
			return createOpenAIEmbedding(settings, model)

		case domain.AIProviderLocal:
			return nil, fmt.Errorf("%w: local provider only serves hashing-N models, got %q",
				domain.ErrInvalidInput, model)

		default:
			return nil, fmt.Errorf("%w: unsupported embedding provider: %s",
				domain.ErrInvalidInput, settings.Provider)
		}
	}
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings domain.EmbeddingSettings, model string) driven.EmbeddingService {
	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:           settings.BaseURL,
		Model:             model,
		RequestsPerSecond: settings.RequestsPerSecond,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings domain.EmbeddingSettings, model string) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:            settings.APIKey,
		BaseURL:           settings.BaseURL,
		Model:             model,
		RequestsPerSecond: settings.RequestsPerSecond,
	})
}

// CreateCrossEncoder returns the configured reranking model, or nil when
// reranking is disabled.
func CreateCrossEncoder(settings domain.RerankSettings) (driven.CrossEncoder, error) {
	if !settings.Enabled {
		return nil, nil
	}

	switch settings.Provider {
	case domain.RerankProviderLexical, "":
		return lexical.New(), nil

	case domain.RerankProviderTEI:
		model := settings.Model
		if model == lexical.ModelName {
			model = ""
		}
		return tei.New(tei.Config{
			BaseURL: settings.BaseURL,
			Model:   model,
		}), nil

	default:
		return nil, fmt.Errorf("%w: unsupported rerank provider: %s", domain.ErrInvalidInput, settings.Provider)
	}
}

// CreateTokenizer returns the BPE tokenizer for the configured encoding.
func CreateTokenizer(settings domain.ChunkingSettings) driven.Tokenizer {
	return tiktoken.New(settings.Encoding)
}

// CreateVectorBackend opens the storage backend for the configured mode.
func CreateVectorBackend(ctx context.Context, settings domain.StorageSettings) (driven.VectorStorageBackend, error) {
	switch settings.Mode {
	case domain.StorageEphemeral:
		logger.Debug("storage: in-memory")
		return memory.NewBackend(), nil

	case domain.StoragePersistent, "":
		store, err := sqlite.NewStore(settings.Path)
		if err != nil {
			return nil, fmt.Errorf("opening vector store: %w", err)
		}
		logger.Debug("storage: %s", store.Path())
		return store, nil

	case domain.StoragePostgres:
		store, err := pgvector.NewStore(ctx, settings.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres vector store: %w", err)
		}
		logger.Debug("storage: postgres")
		return store, nil

	default:
		return nil, fmt.Errorf("%w: unknown storage mode %q", domain.ErrInvalidInput, settings.Mode)
	}
}

// ValidateEmbeddingConfig loads the configured model, without fallback,
// and pings it.
func ValidateEmbeddingConfig(ctx context.Context, settings domain.EmbeddingSettings) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	svc, err := NewEmbeddingLoader(settings)(ctx, settings.Model)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s unreachable: %w", domain.ErrEmbeddingUnavailable, settings.Model, err)
	}
	return nil
}

// ValidateRerankConfig pings the configured cross-encoder. A disabled
// reranker is valid.
func ValidateRerankConfig(ctx context.Context, settings domain.RerankSettings) error {
	encoder, err := CreateCrossEncoder(settings)
	if err != nil || encoder == nil {
		return err
	}
	defer encoder.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := encoder.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s unreachable: %w", domain.ErrRerankerUnavailable, encoder.ModelName(), err)
	}
	return nil
}
