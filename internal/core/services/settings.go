package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyCollection       = "collection"
	keyChunkSize        = "chunking.size"
	keyChunkOverlap     = "chunking.overlap"
	keyChunkSemantic    = "chunking.semantic"
	keyChunkEncoding    = "chunking.encoding"
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedFallback    = "embedding.fallback_model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedRPS         = "embedding.requests_per_second"
	keyEmbedCacheSize   = "embedding.cache_size"
	keyRerankEnabled    = "rerank.enabled"
	keyRerankProvider   = "rerank.provider"
	keyRerankModel      = "rerank.model"
	keyRerankBaseURL    = "rerank.base_url"
	keyRerankMultiplier = "rerank.multiplier"
	keyMaxResults       = "search.max_results"
	keyCandidateCap     = "search.candidate_cap"
	keyMaxFileSizeMB    = "ingest.max_file_size_mb"
	keyStorageMode      = "storage.mode"
	keyStoragePath      = "storage.path"
	keyStorageDSN       = "storage.dsn"
	keyEntityLabel      = "entities.label"
	keyEntityNames      = "entities.names"
	keyEntityFile       = "entities.file"
)

// DefaultDataDir is where persistent indexes live when storage.path is unset.
const DefaultDataDir = ".docrag/data"

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
	kindList
)

// settingDef binds one config key to a field of domain.RetrievalSettings.
type settingDef struct {
	key    string
	env    string
	kind   settingKind
	secret bool
	get    func(s *domain.RetrievalSettings) any
	set    func(s *domain.RetrievalSettings, v any)
}

var settingDefs = []settingDef{
	{key: keyCollection, env: "DOCRAG_COLLECTION", kind: kindString,
		get: func(s *domain.RetrievalSettings) any { return s.Collection },
		set: func(s *domain.RetrievalSettings, v any) { s.Collection = v.(string) }},
	{key: keyChunkSize, env: "DOCRAG_CHUNK_SIZE", kind: kindInt,
		get: func(s *domain.RetrievalSettings) any { return s.Chunking.Size },
		set: func(s *domain.RetrievalSettings, v any) { s.Chunking.Size = v.(int) }},
	{key: keyChunkOverlap, env: "DOCRAG_CHUNK_OVERLAP", kind: kindInt,
		get: func(s *domain.RetrievalSettings) any { return s.Chunking.Overlap },
		set: func(s *domain.RetrievalSettings, v any) { s.Chunking.Overlap = v.(int) }},
	{key: keyChunkSemantic, env: "DOCRAG_USE_SEMANTIC_CHUNKING", kind: kindBool,
		get: func(s *domain.RetrievalSettings) any { return s.Chunking.Semantic },
		set: func(s *domain.RetrievalSettings, v any) { s.Chunking.Semantic = v.(bool) }},
	{key: keyChunkEncoding, kind: kindString,
		get: func(s *domain.RetrievalSettings) any { return s.Chunking.Encoding },
		set: func(s *domain.RetrievalSettings, v any) { s.Chunking.Encoding = v.(string) }},
	{key: keyEmbedProvider, env: "DOCRAG_EMBEDDING_PROVIDER", kind: kindString,
		get: func(s *domain.RetrievalSettings) any { return s.Embedding.Provider.String() },
		set: func(s *domain.RetrievalSettings, v any) { s.Embedding.Provider = domain.AIProvider(v.(string)) }},
	{key: keyEmbedModel, env: "DOCRAG_EMBEDDING_MODEL", kind: kindString,
		get: func(s *domain.RetrievalSettings) any { return s.Embedding.Model },
		set: func(s *domain.RetrievalSettings, v any) { s.Embedding.Model = v.(string) }},
	{key: keyEmbedFallback, kind: kindString,
		get: func(s *domain.RetrievalSettings) any { return s.Embedding.FallbackModel },
		set: func(s *domain.RetrievalSettings, v any) { s.Embedding.FallbackModel = v.(string) }},
	{key: keyEmbedBaseURL, kind: kindString,
		get: func(s *domain.RetrievalSettings) any { return s.Embedding.BaseURL },
		set: func(s *domain.RetrievalSettings, v any) { s.Embedding.BaseURL = v.(string) }},
	{key: keyEmbedAPIKey, env: "DOCRAG_EMBEDDING_API_KEY", kind: kindString, secret: true,
		get: func(s *domain.RetrievalSettings) any { return s.Embedding.APIKey },
		set: func(s *domain.RetrievalSettings, v any) { s.Embedding.APIKey = v.(string) }},
	{key: keyEmbedRPS, kind: kindFloat,
		get: func(s *domain.RetrievalSettings) any { return s.Embedding.RequestsPerSecond },
		set: func(s *domain.RetrievalSettings, v any) { s.Embedding.RequestsPerSecond = v.(float64) }},
	{key: keyEmbedCacheSize, kind: kindInt,
		get: func(s *domain.RetrievalSettings) any { return s.Embedding.CacheSize },
		set: func(s *domain.RetrievalSettings, v any) { s.Embedding.CacheSize = v.(int) }},
	{key: keyRerankEnabled, env: "DOCRAG_USE_RERANKING", kind: kindBool,
		get: func(s *domain.RetrievalSettings) any { return s.Rerank.Enabled },
		set: func(s *domain.RetrievalSettings, v any) { s.Rerank.Enabled = v.(bool) }},
	{key: keyRerankProvider, kind: kindString,
		get: func(s *domain.RetrievalSettings) any { return s.Rerank.Provider.String() },
		set: func(s *domain.RetrievalSettings, v any) { s.Rerank.Provider = domain.RerankProvider(v.(string)) }},
	{key: keyRerankModel, env: "DOCRAG_RERANKER_MODEL", kind: kindString,
		get: func(s *domain.RetrievalSettings) any { return s.Rerank.Model },
		set: func(s *domain.RetrievalSettings, v any) { s.Rerank.Model = v.(string) }},
	{key: keyRerankBaseURL, kind: kindString,
		get: func(s *domain.RetrievalSettings) any { return s.Rerank.BaseURL },
		set: func(s *domain.RetrievalSettings, v any) { s.Rerank.BaseURL = v.(string) }},
	{key: keyRerankMultiplier, kind: kindInt,
		get: func(s *domain.RetrievalSettings) any { return s.Rerank.Multiplier },
		set: func(s *domain.RetrievalSettings, v any) { s.Rerank.Multiplier = v.(int) }},
	{key: keyMaxResults, env: "DOCRAG_MAX_SEARCH_RESULTS", kind: kindInt,
		get: func(s *domain.RetrievalSettings) any { return s.Search.MaxResults },
		set: func(s *domain.RetrievalSettings, v any) { s.Search.MaxResults = v.(int) }},
	{key: keyCandidateCap, kind: kindInt,
		get: func(s *domain.RetrievalSettings) any { return s.Search.CandidateCap },
		set: func(s *domain.RetrievalSettings, v any) { s.Search.CandidateCap = v.(int) }},
	{key: keyMaxFileSizeMB, env: "DOCRAG_MAX_FILE_SIZE_MB", kind: kindInt,
		get: func(s *domain.RetrievalSettings) any { return s.Ingest.MaxFileSizeMB },
		set: func(s *domain.RetrievalSettings, v any) { s.Ingest.MaxFileSizeMB = v.(int) }},
	{key: keyStorageMode, env: "DOCRAG_STORAGE_MODE", kind: kindString,
		get: func(s *domain.RetrievalSettings) any { return s.Storage.Mode.String() },
		set: func(s *domain.RetrievalSettings, v any) { s.Storage.Mode = domain.StorageMode(v.(string)) }},
	{key: keyStoragePath, env: "DOCRAG_DB_PATH", kind: kindString,
		get: func(s *domain.RetrievalSettings) any { return s.Storage.Path },
		set: func(s *domain.RetrievalSettings, v any) { s.Storage.Path = v.(string) }},
	{key: keyStorageDSN, env: "DOCRAG_PG_DSN", kind: kindString, secret: true,
		get: func(s *domain.RetrievalSettings) any { return s.Storage.DSN },
		set: func(s *domain.RetrievalSettings, v any) { s.Storage.DSN = v.(string) }},
	{key: keyEntityLabel, kind: kindString,
		get: func(s *domain.RetrievalSettings) any { return s.Entities.Label },
		set: func(s *domain.RetrievalSettings, v any) { s.Entities.Label = v.(string) }},
	{key: keyEntityNames, kind: kindList,
		get: func(s *domain.RetrievalSettings) any { return s.Entities.Names },
		set: func(s *domain.RetrievalSettings, v any) { s.Entities.Names = v.([]string) }},
	{key: keyEntityFile, kind: kindString,
		get: func(s *domain.RetrievalSettings) any { return s.Entities.File },
		set: func(s *domain.RetrievalSettings, v any) { s.Entities.File = v.(string) }},
}

// SettingsService resolves settings from defaults, the config file and
// the environment, in increasing order of precedence.
type SettingsService struct {
	configStore driven.ConfigStore
	env         driven.Environment
}

// NewSettingsService creates a new settings service.
// env may be nil, in which case environment overrides are ignored.
func NewSettingsService(configStore driven.ConfigStore, env driven.Environment) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		env:         env,
	}
}

// Get retrieves current settings.
func (s *SettingsService) Get() (*domain.RetrievalSettings, error) {
	settings, _, err := s.resolve()
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// Entries lists every setting with its effective value and origin.
// Secret values are masked.
func (s *SettingsService) Entries() ([]domain.SettingEntry, error) {
	settings, sources, err := s.resolve()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.SettingEntry, 0, len(settingDefs))
	for _, def := range settingDefs {
		value := formatValue(def.get(settings))
		if def.secret && value != "" {
			value = maskSecret(value)
		}
		entries = append(entries, domain.SettingEntry{
			Key:    def.key,
			Value:  value,
			Source: sources[def.key],
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Set parses value for key, validates the result and persists it.
func (s *SettingsService) Set(key, value string) error {
	def, ok := lookupDef(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	parsed, err := parseValue(def.kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}

	current, _, err := s.resolve()
	if err != nil {
		return err
	}
	def.set(current, parsed)
	if err := current.Validate(); err != nil {
		return err
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

// Keys returns every settable key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingDefs))
	for _, def := range settingDefs {
		keys = append(keys, def.key)
	}
	sort.Strings(keys)
	return keys
}

// GetDefaults returns the built-in settings.
func (s *SettingsService) GetDefaults() domain.RetrievalSettings {
	return domain.DefaultRetrievalSettings()
}

// resolve layers config and environment values over the defaults and
// records where each value came from.
func (s *SettingsService) resolve() (*domain.RetrievalSettings, map[string]domain.SettingSource, error) {
	settings := domain.DefaultRetrievalSettings()
	sources := make(map[string]domain.SettingSource, len(settingDefs))

	for _, def := range settingDefs {
		sources[def.key] = domain.SourceDefault

		if v, ok := s.fromConfig(def); ok {
			def.set(&settings, v)
			sources[def.key] = domain.SourceConfig
		}

		if s.env == nil || def.env == "" {
			continue
		}
		raw, ok := s.env.Lookup(def.env)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		v, err := parseValue(def.kind, raw)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s=%q: %v", domain.ErrInvalidInput, def.env, raw, err)
		}
		def.set(&settings, v)
		sources[def.key] = domain.SourceEnv
	}

	if settings.Storage.Path == "" {
		settings.Storage.Path = defaultDataDir()
	}
	return &settings, sources, nil
}

// fromConfig reads def from the config store, ignoring values of the
// wrong type.
func (s *SettingsService) fromConfig(def settingDef) (any, bool) {
	if s.configStore == nil {
		return nil, false
	}
	raw, ok := s.configStore.Get(def.key)
	if !ok {
		return nil, false
	}

	switch def.kind {
	case kindString:
		return s.getString(def.key, raw)
	case kindInt:
		return s.getInt(def.key, raw)
	case kindFloat:
		return s.getFloat(def.key, raw)
	case kindBool:
		return s.getBool(raw)
	case kindList:
		return s.getList(def.key, raw)
	default:
		return nil, false
	}
}

func (s *SettingsService) getString(key string, raw any) (any, bool) {
	if _, ok := raw.(string); !ok {
		return nil, false
	}
	return s.configStore.GetString(key), true
}

func (s *SettingsService) getInt(key string, raw any) (any, bool) {
	switch raw.(type) {
	case int, int64, float64:
		return s.configStore.GetInt(key), true
	case string:
		v, err := strconv.Atoi(strings.TrimSpace(raw.(string)))
		return v, err == nil
	default:
		return nil, false
	}
}

func (s *SettingsService) getFloat(key string, raw any) (any, bool) {
	switch raw.(type) {
	case int, int64, float64:
		return s.configStore.GetFloat(key), true
	default:
		return nil, false
	}
}

func (s *SettingsService) getBool(raw any) (any, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(v)
		return b, err == nil
	default:
		return nil, false
	}
}

func (s *SettingsService) getList(key string, raw any) (any, bool) {
	if str, ok := raw.(string); ok {
		return splitList(str), true
	}
	list := s.configStore.GetStringSlice(key)
	if list == nil {
		return nil, false
	}
	return list, true
}

func lookupDef(key string) (settingDef, bool) {
	for _, def := range settingDefs {
		if def.key == key {
			return def, true
		}
	}
	return settingDef{}, false
}

func parseValue(kind settingKind, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case kindInt:
		return strconv.Atoi(raw)
	case kindFloat:
		return strconv.ParseFloat(raw, 64)
	case kindBool:
		return strconv.ParseBool(raw)
	case kindList:
		return splitList(raw), nil
	default:
		return raw, nil
	}
}

func formatValue(v any) string {
	switch val := v.(type) {
	case []string:
		return strings.Join(val, ", ")
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func maskSecret(v string) string {
	if len(v) <= 8 {
		return "****"
	}
	return v[:4] + "****" + v[len(v)-4:]
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}
