package driving

import "github.com/custodia-labs/docrag/internal/core/domain"

// SettingsService manages retrieval settings.
type SettingsService interface {
	// Get returns the effective settings: defaults, then the config file,
	// then environment overrides.
	Get() (*domain.RetrievalSettings, error)

	// Entries returns every effective setting with its source, sorted by
	// key. Secrets are masked.
	Entries() ([]domain.SettingEntry, error)

	// Set validates and persists a single setting by key (e.g., "chunking.size").
	Set(key, value string) error

	// Keys returns every settable key, sorted.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.RetrievalSettings
}
