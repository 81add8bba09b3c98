package cli

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/casesync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/casesync/internal/core/domain"
)

// configDir points the config commands at a fresh data directory.
func configDir(t *testing.T) string {
	t.Helper()
	SetRuntime(nil)
	t.Setenv(file.EnvAPIKey, "")
	return t.TempDir()
}

func reopen(t *testing.T, dir string) *file.ConfigStore {
	t.Helper()
	store, err := file.NewConfigStore(dir)
	require.NoError(t, err)
	return store
}

func TestConfigCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range configCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"show", "set", "unset", "validate", "path"} {
		assert.True(t, names[want], want)
	}
}

func TestConfigShowCmd_Defaults(t *testing.T) {
	dir := configDir(t)

	out, _, err := execute(t, "--data-dir", dir, "config", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "[indexing]")
	assert.Contains(t, out, "chunk_size_words = 400 (default)")
	assert.Contains(t, out, "chunk_overlap_words = 50 (default)")
	assert.Contains(t, out, "top_k = 5 (default)")
	assert.Contains(t, out, "[reconciler]")
	assert.Contains(t, out, "interval_seconds = 300 (default)")
	assert.Contains(t, out, "[embedding]")
	assert.Contains(t, out, "provider = ollama (default)")
	assert.Contains(t, out, "api_key = (not set) (default)")
	assert.Contains(t, out, "status = configured")
}

func TestConfigSetCmd_PersistsTypedValue(t *testing.T) {
	dir := configDir(t)

	out, _, err := execute(t, "--data-dir", dir, "config", "set", "indexing.top_k", "8")

	require.NoError(t, err)
	assert.Contains(t, out, "indexing.top_k = 8")
	assert.Equal(t, 8, reopen(t, dir).GetInt(file.KeyTopK))

	out, _, err = execute(t, "--data-dir", dir, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "top_k = 8\n")
}

func TestConfigSetCmd_StringKeysStayStrings(t *testing.T) {
	dir := configDir(t)

	_, _, err := execute(t, "--data-dir", dir, "config", "set", "embedding.model", "1234")

	require.NoError(t, err)
	assert.Equal(t, "1234", reopen(t, dir).GetString(file.KeyEmbeddingModel))
}

func TestConfigSetCmd_MasksAPIKey(t *testing.T) {
	dir := configDir(t)

	out, _, err := execute(t, "--data-dir", dir, "config", "set", "embedding.api_key", "sk-abcdefghijkl")

	require.NoError(t, err)
	assert.Contains(t, out, "embedding.api_key = ****ijkl")
	assert.NotContains(t, out, "sk-abcdefghijkl")
	assert.Equal(t, "sk-abcdefghijkl", reopen(t, dir).GetString(file.KeyEmbeddingAPIKey))
}

func TestConfigSetCmd_UnknownKey(t *testing.T) {
	dir := configDir(t)

	_, _, err := execute(t, "--data-dir", dir, "config", "set", "search.mode", "hybrid")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfigSetCmd_RollsBackInvalidValue(t *testing.T) {
	dir := configDir(t)

	_, _, err := execute(t, "--data-dir", dir, "config", "set", "indexing.chunk_overlap_words", "900")

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	_, ok := reopen(t, dir).Get(file.KeyChunkOverlapWords)
	assert.False(t, ok)
}

func TestConfigSetCmd_RollsBackToPrevious(t *testing.T) {
	dir := configDir(t)
	require.NoError(t, reopen(t, dir).Set(file.KeyEmbeddingProvider, "openai"))

	_, _, err := execute(t, "--data-dir", dir, "config", "set", "embedding.provider", "cohere")

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Equal(t, "openai", reopen(t, dir).GetString(file.KeyEmbeddingProvider))
}

func TestConfigUnsetCmd(t *testing.T) {
	dir := configDir(t)
	require.NoError(t, reopen(t, dir).Set(file.KeyTopK, int64(9)))

	out, _, err := execute(t, "--data-dir", dir, "config", "unset", "indexing.top_k")

	require.NoError(t, err)
	assert.Contains(t, out, "indexing.top_k restored to default")
	_, ok := reopen(t, dir).Get(file.KeyTopK)
	assert.False(t, ok)
}

func TestConfigPathCmd(t *testing.T) {
	dir := configDir(t)

	out, _, err := execute(t, "--data-dir", dir, "config", "path")

	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "config.toml"))
}

func TestConfigValidateCmd_NotConfigured(t *testing.T) {
	dir := configDir(t)
	require.NoError(t, reopen(t, dir).Set(file.KeyEmbeddingProvider, "openai"))

	out, _, err := execute(t, "--data-dir", dir, "config", "validate")

	require.NoError(t, err)
	assert.Contains(t, out, "Settings are valid.")
	assert.Contains(t, out, "not configured")
}

func TestConfigValidateCmd_Reachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	dir := configDir(t)
	require.NoError(t, reopen(t, dir).Set(file.KeyEmbeddingBaseURL, server.URL))

	out, _, err := execute(t, "--data-dir", dir, "config", "validate")

	require.NoError(t, err)
	assert.Contains(t, out, "Embedding provider reachable: ollama (nomic-embed-text)")
}

func TestConfigValidateCmd_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	dir := configDir(t)
	require.NoError(t, reopen(t, dir).Set(file.KeyEmbeddingBaseURL, server.URL))

	_, _, err := execute(t, "--data-dir", dir, "config", "validate")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, int64(12), parseValue("12"))
	assert.Equal(t, 0.25, parseValue("0.25"))
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, "nomic", parseValue("nomic"))
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "(not set)", maskAPIKey(""))
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "****6789", maskAPIKey("sk-0123456789"))
}
