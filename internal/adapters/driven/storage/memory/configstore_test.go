package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("embedding.model", "nomic-embed-text"))
	require.NoError(t, store.Set("indexing.top_k", int64(7)))
	require.NoError(t, store.Set("indexing.min_similarity", 0.5))
	require.NoError(t, store.Set("reconciler.enabled", true))

	assert.Equal(t, "nomic-embed-text", store.GetString("embedding.model"))
	assert.Equal(t, 7, store.GetInt("indexing.top_k"))
	assert.InDelta(t, 0.5, store.GetFloat("indexing.min_similarity"), 1e-9)
	assert.InDelta(t, 7.0, store.GetFloat("indexing.top_k"), 1e-9)
	assert.True(t, store.GetBool("reconciler.enabled"))
}

func TestConfigStore_MissingAndWrongType(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("k", "text"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 0, store.GetInt("k"))
	assert.Equal(t, 0.0, store.GetFloat("k"))
	assert.False(t, store.GetBool("k"))
	assert.Equal(t, "", store.GetString("missing"))
}

func TestConfigStore_KeysAndUnset(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("b", 1))
	require.NoError(t, store.Set("a", 2))

	assert.Equal(t, []string{"a", "b"}, store.Keys())

	require.NoError(t, store.Unset("a"))
	require.NoError(t, store.Unset("never-set"))
	assert.Equal(t, []string{"b"}, store.Keys())
}

func TestConfigStore_NoOpPersistence(t *testing.T) {
	store := NewConfigStore()
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("counter", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("counter")
		}()
	}
	wg.Wait()

	_, ok := store.Get("counter")
	assert.True(t, ok)
}
