package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/custodia-labs/docrag/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/docrag/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/extractors"
	"github.com/custodia-labs/docrag/internal/postprocessors"
)

// wordTokenizer treats each whitespace-separated word as one token.
type wordTokenizer struct {
	mu    sync.Mutex
	vocab map[string]int
	words []string
}

func newWordTokenizer() *wordTokenizer {
	return &wordTokenizer{vocab: make(map[string]int)}
}

func (t *wordTokenizer) Encode(text string) ([]int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fields := strings.Fields(text)
	ids := make([]int, len(fields))
	for i, f := range fields {
		id, ok := t.vocab[f]
		if !ok {
			id = len(t.words)
			t.vocab[f] = id
			t.words = append(t.words, f)
		}
		ids[i] = id
	}
	return ids, nil
}

func (t *wordTokenizer) Decode(tokens []int) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	words := make([]string, len(tokens))
	for i, id := range tokens {
		words[i] = t.words[id]
	}
	return strings.Join(words, " "), nil
}

func (t *wordTokenizer) Name() string { return "words" }

// passageEncoder scores a document by the number following "passage ".
type passageEncoder struct {
	pingErr  error
	scoreErr error
	pings    int
	calls    int
	short    bool
}

func (e *passageEncoder) Score(_ context.Context, _ string, documents []string) ([]float64, error) {
	e.calls++
	if e.scoreErr != nil {
		return nil, e.scoreErr
	}
	scores := make([]float64, len(documents))
	for i, d := range documents {
		scores[i] = passageNumber(d)
	}
	if e.short {
		return scores[:len(scores)-1], nil
	}
	return scores, nil
}

func (e *passageEncoder) ModelName() string { return "passage-encoder" }

func (e *passageEncoder) Ping(_ context.Context) error {
	e.pings++
	return e.pingErr
}

func (e *passageEncoder) Close() error { return nil }

func passageNumber(text string) float64 {
	i := strings.Index(text, "passage ")
	if i < 0 {
		return 0
	}
	fields := strings.Fields(text[i+len("passage "):])
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.Atoi(strings.Trim(fields[0], ".,"))
	if err != nil {
		return 0
	}
	return float64(n)
}

// failingEmbedder always returns err.
type failingEmbedder struct {
	err error
}

func (f *failingEmbedder) Embed(context.Context, string) ([]float32, error) { return nil, f.err }
func (f *failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, f.err
}
func (f *failingEmbedder) Dimensions() int   { return 0 }
func (f *failingEmbedder) ModelName() string { return "failing" }
func (f *failingEmbedder) Ping(context.Context) error {
	return f.err
}
func (f *failingEmbedder) Close() error { return nil }

var errBackendDown = errors.New("backend down")

// brokenBackend fails every call.
type brokenBackend struct{}

func (brokenBackend) GetOrCreate(context.Context, string) (driven.Collection, error) {
	return nil, errBackendDown
}
func (brokenBackend) Delete(context.Context, string) error   { return errBackendDown }
func (brokenBackend) List(context.Context) ([]string, error) { return nil, errBackendDown }
func (brokenBackend) Mode() domain.StorageMode               { return domain.StorageEphemeral }
func (brokenBackend) Close() error                           { return nil }

// memoryConfigStore is a map-backed driven.ConfigStore.
type memoryConfigStore struct {
	values map[string]any
	setErr error
}

func newMemoryConfigStore() *memoryConfigStore {
	return &memoryConfigStore{values: make(map[string]any)}
}

func (s *memoryConfigStore) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *memoryConfigStore) GetString(key string) string {
	v, _ := s.values[key].(string)
	return v
}

func (s *memoryConfigStore) GetInt(key string) int {
	switch v := s.values[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func (s *memoryConfigStore) GetFloat(key string) float64 {
	switch v := s.values[key].(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	}
	return 0
}

func (s *memoryConfigStore) GetBool(key string) bool {
	v, _ := s.values[key].(bool)
	return v
}

func (s *memoryConfigStore) GetStringSlice(key string) []string {
	switch v := s.values[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func (s *memoryConfigStore) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

func (s *memoryConfigStore) Set(key string, value any) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = value
	return nil
}

func (s *memoryConfigStore) Save() error { return nil }
func (s *memoryConfigStore) Load() error { return nil }
func (s *memoryConfigStore) Path() string {
	return ":memory:"
}

// mapEnv is a driven.Environment over a fixed map.
type mapEnv map[string]string

func (e mapEnv) Lookup(key string) (string, bool) {
	v, ok := e[key]
	return v, ok
}

// testSettings returns settings sized for small test documents.
func testSettings() domain.RetrievalSettings {
	s := domain.DefaultRetrievalSettings()
	s.Chunking.Size = 50
	s.Chunking.Overlap = 5
	s.Chunking.Semantic = false
	s.Rerank.Enabled = false
	return s
}

// newTestService wires a retrieval service over an in-memory backend.
func newTestService(settings domain.RetrievalSettings, encoder driven.CrossEncoder) (*RetrievalService, *memory.Backend) {
	backend := memory.NewBackend()
	pipeline, err := postprocessors.NewDefaultPipeline(settings.Chunking, newWordTokenizer())
	if err != nil {
		panic(err)
	}
	var reranker *Reranker
	if encoder != nil {
		reranker = NewReranker(encoder)
	}
	svc := NewRetrievalService(
		backend,
		extractors.NewDefaultRegistry(settings.Entities),
		pipeline,
		hashing.New(64),
		reranker,
		settings,
	)
	return svc, backend
}

func textDoc(name, content string) domain.RawDocument {
	return domain.RawDocument{Filename: name, Content: []byte(content)}
}
