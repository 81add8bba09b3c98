package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestConfigStore_Persistence_NestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("indexing.chunk_size_words", 300))
	require.NoError(t, store.Set("indexing.min_similarity", 0.4))
	require.NoError(t, store.Set("embedding.model", "all-minilm"))
	require.NoError(t, store.Set("reconciler.enabled", false))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[indexing]")
	assert.Contains(t, string(raw), "[embedding]")

	reopened, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 300, reopened.GetInt("indexing.chunk_size_words"))
	assert.InDelta(t, 0.4, reopened.GetFloat("indexing.min_similarity"), 1e-9)
	assert.Equal(t, "all-minilm", reopened.GetString("embedding.model"))
	v, ok := reopened.Get("reconciler.enabled")
	assert.True(t, ok)
	assert.Equal(t, false, v)
}

func TestConfigStore_Unset(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("a.b", "x"))
	require.NoError(t, store.Unset("a.b"))

	reopened, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	_, ok := reopened.Get("a.b")
	assert.False(t, ok)
	assert.Empty(t, reopened.Keys())
}

func TestConfigStore_Load_NonExistent(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Load())
	assert.Empty(t, store.Keys())
}

func TestConfigStore_Load_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not = [valid"), 0600))

	_, err := NewConfigStore(tmpDir)
	assert.Error(t, err)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save())

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("indexing.top_k", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("indexing.top_k")
		}()
	}
	wg.Wait()

	_, ok := store.Get("indexing.top_k")
	assert.True(t, ok)
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"a.b":   1,
		"a.c.d": "x",
		"e":     true,
		"a.b.z": "shadowed",
	})

	a, ok := nested["a"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, a["b"])
	c, ok := a["c"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "x", c["d"])
	assert.Equal(t, true, nested["e"])

	assert.Equal(t, map[string]any{"a.b": 1, "a.c.d": "x", "e": true}, flattenMap(nested, ""))
}
