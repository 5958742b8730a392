// Package tei provides a cross-encoder adapter for servers exposing the
// text-embeddings-inference /rerank API.
package tei

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/docrag/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure Encoder implements the interface.
var _ driven.CrossEncoder = (*Encoder)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultModel   = "cross-encoder/ms-marco-MiniLM-L-6-v2"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the TEI cross-encoder.
type Config struct {
	// BaseURL is the server base URL (default: http://localhost:8080).
	BaseURL string

	// Model is reported by ModelName; the server decides what it serves.
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond limits rerank calls. Zero disables limiting.
	RequestsPerSecond float64
}

// Encoder scores query-document pairs through a remote /rerank endpoint.
type Encoder struct {
	client  *http.Client
	limiter *ratelimit.Limiter
	baseURL string
	model   string
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	RawScores bool     `json:"raw_scores"`
}

type rerankItem struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// New creates a TEI cross-encoder.
func New(cfg Config) *Encoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Encoder{
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: ratelimit.New(cfg.RequestsPerSecond),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
}

// Score returns one relevance score per document, in input order.
func (e *Encoder) Score(ctx context.Context, query string, documents []string) ([]float64, error) {
	if len(documents) == 0 {
		return nil, nil
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(rerankRequest{Query: query, Texts: documents, RawScores: false})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	e.limiter.Observe(resp)
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("rerank error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var items []rerankItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// The server returns items sorted by score; map back to input order.
	scores := make([]float64, len(documents))
	seen := make([]bool, len(documents))
	for _, it := range items {
		if it.Index < 0 || it.Index >= len(documents) {
			return nil, fmt.Errorf("rerank response index %d out of range", it.Index)
		}
		scores[it.Index] = it.Score
		seen[it.Index] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("rerank response missing index %d", i)
		}
	}
	return scores, nil
}

// ModelName returns the configured model identifier.
func (e *Encoder) ModelName() string {
	return e.model
}

// Ping checks the server's /health endpoint.
func (e *Encoder) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("tei: failed to create ping request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("tei: ping failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tei: health returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (e *Encoder) Close() error {
	return nil
}
