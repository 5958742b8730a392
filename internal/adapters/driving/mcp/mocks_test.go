package mcp

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	response    *domain.SearchResponse
	report      *domain.IndexReport
	collections []string
	stats       *domain.CollectionStats
	err         error

	lastCollection string
	lastQuery      string
	lastK          int
	lastPaths      []string
}

func (m *mockRetrievalService) IndexFiles(
	_ context.Context,
	collection string,
	paths []string,
) (*domain.IndexReport, error) {
	m.lastCollection = collection
	m.lastPaths = paths
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

func (m *mockRetrievalService) IndexDocuments(
	_ context.Context,
	collection string,
	_ []domain.RawDocument,
) (*domain.IndexReport, error) {
	m.lastCollection = collection
	return m.report, m.err
}

func (m *mockRetrievalService) Search(
	_ context.Context,
	collection, query string,
	k int,
) (*domain.SearchResponse, error) {
	m.lastCollection = collection
	m.lastQuery = query
	m.lastK = k
	if m.err != nil {
		return nil, m.err
	}
	if m.response == nil {
		return &domain.SearchResponse{Results: []domain.SearchResult{}}, nil
	}
	return m.response, nil
}

func (m *mockRetrievalService) ListCollections(_ context.Context) ([]string, error) {
	return m.collections, m.err
}

func (m *mockRetrievalService) DeleteCollection(_ context.Context, _ string) error {
	return m.err
}

func (m *mockRetrievalService) ResetCollection(_ context.Context, _ string) error {
	return m.err
}

func (m *mockRetrievalService) CollectionStats(
	_ context.Context,
	collection string,
) (*domain.CollectionStats, error) {
	m.lastCollection = collection
	if m.err != nil {
		return nil, m.err
	}
	if m.stats == nil {
		return nil, domain.ErrNotFound
	}
	return m.stats, nil
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings domain.RetrievalSettings
	entries  []domain.SettingEntry
	err      error
}

func (m *mockSettingsService) Get() (*domain.RetrievalSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Entries() ([]domain.SettingEntry, error) {
	return m.entries, m.err
}

func (m *mockSettingsService) Set(_, _ string) error {
	return m.err
}

func (m *mockSettingsService) Keys() []string {
	return nil
}

func (m *mockSettingsService) GetDefaults() domain.RetrievalSettings {
	return domain.DefaultRetrievalSettings()
}
