package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

func TestSettingsShow(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	testSettings.values["chunking.size"] = "400"

	for _, args := range [][]string{{"settings"}, {"settings", "show"}} {
		out, err := execute(args...)
		require.NoError(t, err)
		assert.Contains(t, out, "KEY")
		assert.Contains(t, out, "SOURCE")
		assert.Regexp(t, `collection\s+knowledge\s+default`, out)
		assert.Regexp(t, `embedding\.api_key\s+-\s+default`, out)
		assert.Regexp(t, `chunking\.size\s+400\s+config`, out)
	}
}

func TestSettingsShow_Error(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	testSettings.err = errors.New("bad toml")
	_, err := execute("settings", "show")
	assert.ErrorContains(t, err, "bad toml")
}

func TestSettingsShow_DoesNotOpenRetrieval(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	SetServices(Services{
		Settings: testSettings,
		Retrieval: func(context.Context) (driving.RetrievalService, error) {
			t.Fatal("retrieval must not be opened")
			return nil, nil
		},
	})

	_, err := execute("settings", "show")
	require.NoError(t, err)
}

func TestSettingsSet(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings", "set", "chunking.size", "400")
	require.NoError(t, err)
	assert.Contains(t, out, "Set chunking.size = 400")
	assert.Equal(t, "400", testSettings.values["chunking.size"])

	_, err = execute("settings", "set", "bogus", "1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = execute("settings", "set", "chunking.size")
	assert.Error(t, err)
}

func TestSettingsCheck(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	t.Run("all available", func(t *testing.T) {
		checkModels = func(_ context.Context, s *domain.RetrievalSettings) []CheckResult {
			return []CheckResult{
				{Component: "embedding", Model: s.Embedding.Model},
				{Component: "reranker", Model: "lexical"},
			}
		}

		out, err := execute("settings", "check")
		require.NoError(t, err)
		assert.Contains(t, out, "✓ embedding")
		assert.Contains(t, out, "✓ reranker (lexical)")
	})

	t.Run("failure is reported", func(t *testing.T) {
		checkModels = func(context.Context, *domain.RetrievalSettings) []CheckResult {
			return []CheckResult{
				{Component: "embedding", Model: "nomic-embed-text", Err: domain.ErrEmbeddingUnavailable},
			}
		}

		out, err := execute("settings", "check")
		assert.ErrorContains(t, err, "unavailable: embedding")
		assert.Contains(t, out, "✗ embedding (nomic-embed-text)")
	})

	t.Run("not configured", func(t *testing.T) {
		checkModels = nil
		_, err := execute("settings", "check")
		assert.ErrorContains(t, err, "model check not configured")
	})
}

func TestSettingsCmd_NotConfigured(t *testing.T) {
	SetServices(Services{})
	resetFlags()

	_, err := execute("settings", "show")
	assert.ErrorContains(t, err, "settings service not configured")
	_, err = execute("settings", "set", "a", "b")
	assert.ErrorContains(t, err, "settings service not configured")
}

func TestCompleteSettingKeys(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	keys, directive := completeSettingKeys(settingsSetCmd, nil, "")
	assert.Equal(t, []string{"chunking.size", "collection"}, keys)
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)

	keys, _ = completeSettingKeys(settingsSetCmd, []string{"collection"}, "")
	assert.Nil(t, keys)
}
