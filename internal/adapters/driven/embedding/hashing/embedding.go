// Package hashing provides a deterministic local embedding model that maps
// words and word pairs into a fixed number of buckets. It needs no network
// or model files, which makes it the offline default.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// ModelPrefix names hashing models, as in "hashing-384".
const ModelPrefix = "hashing-"

// DefaultDimensions is used when a model name carries no size.
const DefaultDimensions = 384

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// EmbeddingService embeds text by signed feature hashing.
type EmbeddingService struct {
	dimensions int
}

// New creates a hashing model with the given number of dimensions.
func New(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: dimensions}
}

// IsModel reports whether model names a hashing model.
func IsModel(model string) bool {
	return strings.HasPrefix(model, ModelPrefix)
}

// NewFromModel parses a "hashing-{dims}" model name.
func NewFromModel(model string) (*EmbeddingService, error) {
	if !IsModel(model) {
		return nil, fmt.Errorf("%w: %q is not a hashing model", domain.ErrInvalidInput, model)
	}
	dims, err := strconv.Atoi(strings.TrimPrefix(model, ModelPrefix))
	if err != nil || dims <= 0 {
		return nil, fmt.Errorf("%w: bad dimensions in %q", domain.ErrInvalidInput, model)
	}
	return New(dims), nil
}

// Embed generates an L2-normalised vector. Text with no words yields the
// zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, s.dimensions)
	tokens := tokenize(text)
	for i, tok := range tokens {
		s.add(vec, tok, 1)
		if i > 0 {
			s.add(vec, tokens[i-1]+" "+tok, 0.5)
		}
	}

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, s.dimensions)
	if norm == 0 {
		return out, nil
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

// EmbedBatch embeds each text in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := s.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns "hashing-{dims}".
func (s *EmbeddingService) ModelName() string {
	return ModelPrefix + strconv.Itoa(s.dimensions)
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

// add hashes a feature into a bucket. A second hash bit picks the sign so
// collisions tend to cancel.
func (s *EmbeddingService) add(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := int(sum % uint64(s.dimensions))
	if (sum>>63)&1 == 1 {
		weight = -weight
	}
	vec[bucket] += weight
}

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}
