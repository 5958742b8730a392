package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// defaultCandidateCap bounds over-fetching when no cap is configured.
const defaultCandidateCap = 20

// RetrievalService indexes documents into collections and searches them.
type RetrievalService struct {
	backend    driven.VectorStorageBackend
	extractors driven.ExtractorRegistry
	pipeline   driven.PostProcessorPipeline
	embedder   driven.EmbeddingService
	reranker   *Reranker
	settings   domain.RetrievalSettings
}

// NewRetrievalService creates a retrieval service.
// The reranker parameter is optional (can be nil).
func NewRetrievalService(
	backend driven.VectorStorageBackend,
	extractors driven.ExtractorRegistry,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	reranker *Reranker,
	settings domain.RetrievalSettings,
) *RetrievalService {
	return &RetrievalService{
		backend:    backend,
		extractors: extractors,
		pipeline:   pipeline,
		embedder:   embedder,
		reranker:   reranker,
		settings:   settings,
	}
}

// pendingFile is a document that produced chunks and awaits embedding.
type pendingFile struct {
	filename string
	chunks   []domain.Chunk
}

// IndexFiles reads the files at paths and indexes them.
// Unreadable or oversized files are reported as failures in the report.
func (s *RetrievalService) IndexFiles(ctx context.Context, collection string, paths []string) (*domain.IndexReport, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}

	report := &domain.IndexReport{Collection: collection, Requested: len(paths)}
	limit := s.settings.Ingest.MaxFileSizeBytes()

	docs := make([]domain.RawDocument, 0, len(paths))
	for _, path := range paths {
		name := filepath.Base(path)

		info, err := os.Stat(path)
		if err != nil {
			report.Failed++
			report.AddWarning(domain.NewWarning(name, domain.StageRead, "cannot read file: %v", err))
			continue
		}
		if info.IsDir() {
			report.Failed++
			report.AddWarning(domain.NewWarning(name, domain.StageRead, "is a directory"))
			continue
		}
		if limit > 0 && info.Size() > limit {
			report.Failed++
			report.AddWarning(domain.NewWarning(name, domain.StageRead, "%v: %d bytes exceeds %d MB",
				domain.ErrFileTooLarge, info.Size(), s.settings.Ingest.MaxFileSizeMB))
			continue
		}

		content, err := os.ReadFile(path)
		if err != nil {
			report.Failed++
			report.AddWarning(domain.NewWarning(name, domain.StageRead, "cannot read file: %v", err))
			continue
		}
		docs = append(docs, domain.RawDocument{Filename: name, Path: path, Content: content})
	}

	return s.index(ctx, collection, docs, report)
}

// IndexDocuments indexes documents already held in memory.
func (s *RetrievalService) IndexDocuments(ctx context.Context, collection string, docs []domain.RawDocument) (*domain.IndexReport, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	report := &domain.IndexReport{Collection: collection, Requested: len(docs)}
	return s.index(ctx, collection, docs, report)
}

func (s *RetrievalService) index(
	ctx context.Context,
	collection string,
	docs []domain.RawDocument,
	report *domain.IndexReport,
) (*domain.IndexReport, error) {
	logger.Section("Indexing into " + collection)

	coll, err := s.backend.GetOrCreate(ctx, collection)
	if err != nil {
		return s.failBatch(report, docs, domain.StageIndex, "cannot open collection: %v", err), nil
	}

	existing, err := coll.Filenames(ctx)
	if err != nil {
		return s.failBatch(report, docs, domain.StageIndex, "cannot list indexed files: %v", err), nil
	}
	indexed := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		indexed[name] = struct{}{}
	}

	offset, err := coll.Count(ctx)
	if err != nil {
		return s.failBatch(report, docs, domain.StageIndex, "cannot count records: %v", err), nil
	}

	var pending []pendingFile
	seen := make(map[string]struct{}, len(docs))
	limit := s.settings.Ingest.MaxFileSizeBytes()

	for i := range docs {
		raw := &docs[i]

		if err := ctx.Err(); err != nil {
			remaining := len(docs) - i
			report.Failed += remaining
			report.AddWarning(domain.NewWarning("", domain.StageIndex, "cancelled with %d files left: %v", remaining, err))
			report.Success = false
			return report, nil
		}

		if _, ok := indexed[raw.Filename]; ok {
			logger.Debug("index: %s already in %s, skipping", raw.Filename, collection)
			report.SkippedExisting++
			continue
		}
		if _, ok := seen[raw.Filename]; ok {
			logger.Debug("index: %s repeated in batch, skipping", raw.Filename)
			report.SkippedDuplicate++
			continue
		}
		seen[raw.Filename] = struct{}{}

		chunks, ok := s.prepare(ctx, raw, limit, report)
		if !ok {
			report.Failed++
			continue
		}
		pending = append(pending, pendingFile{filename: raw.Filename, chunks: chunks})
	}

	if len(pending) == 0 {
		report.Success = report.Failed == 0
		logger.Debug("index: %s", report.Summary())
		return report, nil
	}

	var texts []string
	for _, p := range pending {
		for _, c := range p.chunks {
			texts = append(texts, c.Content)
		}
	}

	logger.Debug("index: embedding %d chunks from %d files", len(texts), len(pending))
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		report.Failed += len(pending)
		report.Success = false
		report.AddWarning(domain.NewWarning("", domain.StageEmbed, "embedding failed: %v", err))
		if errors.Is(err, domain.ErrEmbeddingUnavailable) {
			return report, err
		}
		return report, nil
	}
	if len(vectors) != len(texts) {
		report.Failed += len(pending)
		report.Success = false
		report.AddWarning(domain.NewWarning("", domain.StageEmbed,
			"embedding returned %d vectors for %d chunks", len(vectors), len(texts)))
		return report, nil
	}

	records := make([]domain.VectorRecord, 0, len(texts))
	v := 0
	for fileIndex, p := range pending {
		for _, c := range p.chunks {
			records = append(records, domain.VectorRecord{
				ID:        domain.RecordID(offset+fileIndex, c.Index),
				Embedding: vectors[v],
				Content:   c.Content,
				Metadata:  domain.RecordMetadata{Filename: p.filename, ChunkIndex: c.Index},
			})
			v++
		}
	}

	if err := coll.Insert(ctx, records); err != nil {
		report.Failed += len(pending)
		report.Success = false
		report.AddWarning(domain.NewWarning("", domain.StageIndex, "insert failed: %v", err))
		return report, nil
	}

	for _, p := range pending {
		report.Files = append(report.Files, p.filename)
	}
	report.Indexed = len(pending)
	report.ChunksAdded = len(records)
	report.Success = true

	logger.Debug("index: %s", report.Summary())
	return report, nil
}

// prepare detects, extracts, cleans and chunks one document. Problems are
// added to the report; ok is false when the file yields no chunks.
func (s *RetrievalService) prepare(
	ctx context.Context,
	raw *domain.RawDocument,
	limit int64,
	report *domain.IndexReport,
) (chunks []domain.Chunk, ok bool) {
	if raw.Type == "" {
		ft, err := domain.DetectFileType(raw.Filename)
		if err != nil {
			report.AddWarning(domain.NewWarning(raw.Filename, domain.StageExtract, "%v", err))
			return nil, false
		}
		raw.Type = ft
	}

	if limit > 0 && int64(len(raw.Content)) > limit {
		report.AddWarning(domain.NewWarning(raw.Filename, domain.StageRead, "%v: %d bytes exceeds %d MB",
			domain.ErrFileTooLarge, len(raw.Content), s.settings.Ingest.MaxFileSizeMB))
		return nil, false
	}

	result, err := s.extractors.Extract(ctx, raw)
	if err != nil {
		report.AddWarning(domain.NewWarning(raw.Filename, domain.StageExtract, "%v", err))
		return nil, false
	}
	for _, w := range result.Warnings {
		report.AddWarning(w)
	}
	if !result.HasText() {
		if len(result.Warnings) == 0 {
			report.AddWarning(domain.NewWarning(raw.Filename, domain.StageExtract, "no text extracted"))
		}
		return nil, false
	}

	doc := &domain.Document{
		ID:       uuid.NewString(),
		Filename: raw.Filename,
		Type:     raw.Type,
		RawText:  result.Text,
		Metadata: result.Metadata,
	}

	chunks, err = s.pipeline.Process(ctx, doc)
	if err != nil {
		report.AddWarning(domain.NewWarning(raw.Filename, domain.StageChunk, "processing failed: %v", err))
		return nil, false
	}
	if len(chunks) == 0 {
		report.AddWarning(domain.NewWarning(raw.Filename, domain.StageChunk, "no chunks produced"))
		return nil, false
	}

	logger.Debug("index: %s (%s) -> %d chars, %d chunks", raw.Filename, raw.Type, len(doc.Content), len(chunks))
	return chunks, true
}

// failBatch marks every document failed with one batch-level warning.
func (s *RetrievalService) failBatch(
	report *domain.IndexReport,
	docs []domain.RawDocument,
	stage domain.WarningStage,
	format string,
	args ...any,
) *domain.IndexReport {
	report.Failed += len(docs)
	report.Success = false
	report.AddWarning(domain.NewWarning("", stage, format, args...))
	logger.Warn("index: %s", fmt.Sprintf(format, args...))
	return report
}

// Search returns the passages most relevant to query.
// Backend and embedding failures produce an empty response with warnings.
func (s *RetrievalService) Search(ctx context.Context, collection, query string, k int) (*domain.SearchResponse, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = s.settings.Search.MaxResults
	}

	resp := &domain.SearchResponse{Results: []domain.SearchResult{}}
	if strings.TrimSpace(query) == "" {
		return resp, nil
	}

	warn := func(stage domain.WarningStage, format string, args ...any) (*domain.SearchResponse, error) {
		w := domain.NewWarning("", stage, format, args...)
		logger.Warn("search: %s", w.Message)
		resp.Warnings = append(resp.Warnings, w)
		return resp, nil
	}

	logger.Section("Search " + collection)

	coll, err := s.backend.GetOrCreate(ctx, collection)
	if err != nil {
		return warn(domain.StageSearch, "cannot open collection: %v", err)
	}
	count, err := coll.Count(ctx)
	if err != nil {
		return warn(domain.StageSearch, "cannot count records: %v", err)
	}
	if count == 0 {
		logger.Debug("search: collection %s is empty", collection)
		return resp, nil
	}

	useRerank := s.settings.Rerank.Enabled && s.reranker.Available(ctx)
	fetch := s.candidateCount(k, useRerank)

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return warn(domain.StageEmbed, "cannot embed query: %v", err)
	}

	hits, err := coll.Query(ctx, embedding, fetch)
	if err != nil {
		return warn(domain.StageSearch, "query failed: %v", err)
	}

	candidates := SortHits(hits)
	resp.Candidates = len(candidates)
	logger.Debug("search: %d candidates (fetch=%d, rerank=%v)", len(candidates), fetch, useRerank)

	if useRerank {
		results, reranked, w := s.reranker.Rerank(ctx, query, candidates, k)
		resp.Results = results
		resp.Reranked = reranked
		if w != nil {
			resp.Warnings = append(resp.Warnings, *w)
		}
		return resp, nil
	}

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	resp.Results = candidates
	return resp, nil
}

// candidateCount is min(k*multiplier, cap) when reranking and
// min(k*2, cap) otherwise.
func (s *RetrievalService) candidateCount(k int, rerank bool) int {
	limit := s.settings.Search.CandidateCap
	if limit <= 0 {
		limit = defaultCandidateCap
	}
	mult := 2
	if rerank {
		mult = s.settings.Rerank.Multiplier
		if mult <= 0 {
			mult = domain.DefaultRetrievalSettings().Rerank.Multiplier
		}
	}
	if k >= limit {
		return limit
	}
	return min(k*mult, limit)
}

// SortHits orders hits by distance rounded to six decimals, then filename,
// then content length, then record id.
func SortHits(hits []domain.VectorHit) []domain.SearchResult {
	sorted := make([]domain.VectorHit, len(hits))
	copy(sorted, hits)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if da, db := round6(a.Distance), round6(b.Distance); da != db {
			return da < db
		}
		if a.Metadata.Filename != b.Metadata.Filename {
			return a.Metadata.Filename < b.Metadata.Filename
		}
		if len(a.Content) != len(b.Content) {
			return len(a.Content) < len(b.Content)
		}
		return a.ID < b.ID
	})

	results := make([]domain.SearchResult, len(sorted))
	for i, h := range sorted {
		results[i] = domain.HitToResult(h)
	}
	return results
}

func round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}

// ListCollections returns all collection names, sorted.
func (s *RetrievalService) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.backend.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// DeleteCollection removes a collection irreversibly.
func (s *RetrievalService) DeleteCollection(ctx context.Context, collection string) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	if err := s.backend.Delete(ctx, collection); err != nil {
		return fmt.Errorf("deleting %s: %w", collection, err)
	}
	logger.Info("deleted collection %s", collection)
	return nil
}

// ResetCollection deletes a collection, if present, and recreates it empty.
func (s *RetrievalService) ResetCollection(ctx context.Context, collection string) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	if err := s.backend.Delete(ctx, collection); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("resetting %s: %w", collection, err)
	}
	if _, err := s.backend.GetOrCreate(ctx, collection); err != nil {
		return fmt.Errorf("recreating %s: %w", collection, err)
	}
	return nil
}

// CollectionStats returns the record count and indexed filenames.
// Returns domain.ErrNotFound for a collection that does not exist.
func (s *RetrievalService) CollectionStats(ctx context.Context, collection string) (*domain.CollectionStats, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}

	names, err := s.backend.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	if !slices.Contains(names, collection) {
		return nil, fmt.Errorf("collection %s: %w", collection, domain.ErrNotFound)
	}

	coll, err := s.backend.GetOrCreate(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", collection, err)
	}
	count, err := coll.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting %s: %w", collection, err)
	}
	files, err := coll.Filenames(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing files in %s: %w", collection, err)
	}
	if files == nil {
		files = []string{}
	}

	return &domain.CollectionStats{Name: collection, Count: count, Filenames: files}, nil
}

func validateCollection(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: collection name is empty", domain.ErrInvalidInput)
	}
	return nil
}
