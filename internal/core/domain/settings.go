package domain

import (
	"fmt"
	"strings"
)

const unknownDescription = "Unknown"

// StorageMode selects the vector storage backend.
type StorageMode string

// Available storage modes.
const (
	// StorageEphemeral keeps collections in memory for the process lifetime.
	StorageEphemeral StorageMode = "ephemeral"

	// StoragePersistent keeps collections in an on-disk SQLite database.
	StoragePersistent StorageMode = "persistent"

	// StoragePostgres keeps collections in PostgreSQL with pgvector.
	StoragePostgres StorageMode = "postgres"
)

// IsValid returns true if the storage mode is recognised.
func (m StorageMode) IsValid() bool {
	switch m {
	case StorageEphemeral, StoragePersistent, StoragePostgres:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m StorageMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m StorageMode) Description() string {
	switch m {
	case StorageEphemeral:
		return "Ephemeral (in-memory, lost on exit)"
	case StoragePersistent:
		return "Persistent (SQLite on disk)"
	case StoragePostgres:
		return "PostgreSQL (pgvector)"
	default:
		return unknownDescription
	}
}

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available embedding providers.
const (
	// AIProviderLocal is the built-in feature-hashing model.
	AIProviderLocal AIProvider = "local"

	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI API or a compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderLocal, AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderLocal:
		return "Local (feature hashing)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// RerankProvider identifies a cross-encoder implementation.
type RerankProvider string

// Available rerank providers.
const (
	// RerankProviderLexical scores query-term overlap locally.
	RerankProviderLexical RerankProvider = "lexical"

	// RerankProviderTEI calls a text-embeddings-inference style /rerank endpoint.
	RerankProviderTEI RerankProvider = "tei"
)

// IsValid returns true if the rerank provider is recognised.
func (p RerankProvider) IsValid() bool {
	return p == RerankProviderLexical || p == RerankProviderTEI
}

// String returns the string representation.
func (p RerankProvider) String() string {
	return string(p)
}

// ChunkingSettings controls how documents are split.
type ChunkingSettings struct {
	// Size is the maximum tokens per chunk.
	Size int

	// Overlap is the number of tokens shared by consecutive chunks.
	Overlap int

	// Semantic enables sentence-aware packing.
	Semantic bool

	// Encoding is the tokenizer vocabulary.
	Encoding string
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the preferred embedding model.
	Model string

	// FallbackModel is tried once if Model fails to load.
	FallbackModel string

	// BaseURL is the API endpoint (Ollama, OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (OpenAI).
	APIKey string

	// RequestsPerSecond limits calls to remote providers. Zero disables limiting.
	RequestsPerSecond float64

	// CacheSize is the number of query embeddings kept in memory. Zero disables caching.
	CacheSize int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Model == "" {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// RerankSettings holds cross-encoder configuration.
type RerankSettings struct {
	// Enabled turns second-stage reranking on.
	Enabled bool

	// Provider is the cross-encoder implementation.
	Provider RerankProvider

	// Model is the cross-encoder model identifier.
	Model string

	// BaseURL is the rerank endpoint (TEI).
	BaseURL string

	// Multiplier sets the over-fetch factor when reranking.
	Multiplier int
}

// SearchSettings holds query-time limits.
type SearchSettings struct {
	// MaxResults is the default number of passages returned.
	MaxResults int

	// CandidateCap bounds how many candidates are fetched from the index.
	CandidateCap int
}

// IngestSettings holds ingestion limits.
type IngestSettings struct {
	// MaxFileSizeMB is the per-file size ceiling.
	MaxFileSizeMB int
}

// MaxFileSizeBytes returns the ceiling in bytes.
func (s IngestSettings) MaxFileSizeBytes() int64 {
	return int64(s.MaxFileSizeMB) * 1024 * 1024
}

// StorageSettings selects and locates the vector backend.
type StorageSettings struct {
	// Mode selects the backend.
	Mode StorageMode

	// Path is the data directory for persistent mode.
	Path string

	// DSN is the connection string for postgres mode.
	DSN string
}

// EntitySettings configures the tabular entity-score scan.
type EntitySettings struct {
	// Label prefixes synthetic entity lines.
	Label string

	// Names are the known entity names matched against cells.
	Names []string

	// File optionally names a YAML file with additional entity names.
	File string
}

// RetrievalSettings is the complete externally supplied configuration.
type RetrievalSettings struct {
	Collection string
	Chunking   ChunkingSettings
	Embedding  EmbeddingSettings
	Rerank     RerankSettings
	Search     SearchSettings
	Ingest     IngestSettings
	Storage    StorageSettings
	Entities   EntitySettings
}

// DefaultEntityNames are matched when no entity list is configured.
func DefaultEntityNames() []string {
	return []string{
		"Digital Twin Implementation",
		"Advanced Analytics Platform",
		"Customer Experience Platform",
		"AI-Powered Predictive Maintenance",
		"Smart Manufacturing Systems",
		"Quality Management System",
		"Green Operations Initiative",
		"Blockchain Integration",
	}
}

// DefaultRetrievalSettings returns sensible defaults.
// Storage.Path is left empty and resolved by the settings service.
func DefaultRetrievalSettings() RetrievalSettings {
	return RetrievalSettings{
		Collection: "knowledge",
		Chunking: ChunkingSettings{
			Size:     800,
			Overlap:  100,
			Semantic: true,
			Encoding: "cl100k_base",
		},
		Embedding: EmbeddingSettings{
			Provider:          AIProviderLocal,
			Model:             "hashing-384",
			FallbackModel:     "hashing-256",
			RequestsPerSecond: 10,
			CacheSize:         256,
		},
		Rerank: RerankSettings{
			Enabled:    true,
			Provider:   RerankProviderLexical,
			Model:      "lexical-bm25",
			Multiplier: 3,
		},
		Search: SearchSettings{
			MaxResults:   5,
			CandidateCap: 20,
		},
		Ingest: IngestSettings{
			MaxFileSizeMB: 10,
		},
		Storage: StorageSettings{
			Mode: StoragePersistent,
		},
		Entities: EntitySettings{
			Label: "PROJECT",
			Names: DefaultEntityNames(),
		},
	}
}

// Validate checks the settings for values no component can work with.
func (s RetrievalSettings) Validate() error {
	var problems []string
	if strings.TrimSpace(s.Collection) == "" {
		problems = append(problems, "collection name is empty")
	}
	if s.Chunking.Size <= 0 {
		problems = append(problems, "chunk size must be positive")
	}
	if s.Chunking.Overlap < 0 {
		problems = append(problems, "chunk overlap must not be negative")
	}
	if !s.Embedding.Provider.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown embedding provider %q", s.Embedding.Provider))
	}
	if s.Rerank.Enabled && !s.Rerank.Provider.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown rerank provider %q", s.Rerank.Provider))
	}
	if s.Search.MaxResults <= 0 || s.Search.CandidateCap <= 0 {
		problems = append(problems, "search limits must be positive")
	}
	if !s.Storage.Mode.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown storage mode %q", s.Storage.Mode))
	}
	if s.Storage.Mode == StoragePostgres && s.Storage.DSN == "" {
		problems = append(problems, "postgres storage requires a DSN")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// SettingSource tells where an effective setting value came from.
type SettingSource string

// Setting sources, in increasing precedence.
const (
	SourceDefault SettingSource = "default"
	SourceConfig  SettingSource = "config"
	SourceEnv     SettingSource = "env"
)

// SettingEntry is one effective setting for display.
type SettingEntry struct {
	Key    string        `json:"key"`
	Value  string        `json:"value"`
	Source SettingSource `json:"source"`
}
