package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_ReadsFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "a.env", "DOCRAG_CHUNK_SIZE=300\nDOCRAG_COLLECTION=first\n")
	second := writeFile(t, dir, "b.env", "# override\nDOCRAG_COLLECTION=\"second\"\n")

	e, err := Load(first, second)

	require.NoError(t, err)
	v, ok := e.Lookup("DOCRAG_CHUNK_SIZE")
	assert.True(t, ok)
	assert.Equal(t, "300", v)
	v, _ = e.Lookup("DOCRAG_COLLECTION")
	assert.Equal(t, "second", v)
}

func TestLoad_ProcessEnvWins(t *testing.T) {
	path := writeFile(t, t.TempDir(), ".env", "DOCRAG_TEST_ENV_KEY=file\n")
	t.Setenv("DOCRAG_TEST_ENV_KEY", "process")

	e, err := Load(path)

	require.NoError(t, err)
	v, ok := e.Lookup("DOCRAG_TEST_ENV_KEY")
	assert.True(t, ok)
	assert.Equal(t, "process", v)
}

func TestLoad_DoesNotModifyProcessEnv(t *testing.T) {
	path := writeFile(t, t.TempDir(), ".env", "DOCRAG_TEST_ONLY_IN_FILE=1\n")

	_, err := Load(path)

	require.NoError(t, err)
	_, ok := os.LookupEnv("DOCRAG_TEST_ONLY_IN_FILE")
	assert.False(t, ok)
}

func TestLoad_MissingFileSkipped(t *testing.T) {
	e, err := Load(filepath.Join(t.TempDir(), "absent.env"))

	require.NoError(t, err)
	_, ok := e.Lookup("DOCRAG_NOT_SET_ANYWHERE")
	assert.False(t, ok)
}

func TestLoad_Malformed(t *testing.T) {
	path := writeFile(t, t.TempDir(), ".env", "DOCRAG_X='unterminated\n")

	_, err := Load(path)

	assert.Error(t, err)
}

func TestFromMap(t *testing.T) {
	values := map[string]string{"DOCRAG_STORAGE_MODE": "ephemeral"}
	e := FromMap(values)
	values["DOCRAG_STORAGE_MODE"] = "changed"

	v, ok := e.Lookup("DOCRAG_STORAGE_MODE")
	assert.True(t, ok)
	assert.Equal(t, "ephemeral", v)

	_, ok = e.Lookup("PATH")
	assert.False(t, ok)
}
