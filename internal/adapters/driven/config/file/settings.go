package file

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/custodia-labs/casesync/internal/core/domain"
	"github.com/custodia-labs/casesync/internal/core/ports/driven"
)

// Configuration keys.
const (
	KeyChunkSizeWords    = "indexing.chunk_size_words"
	KeyChunkOverlapWords = "indexing.chunk_overlap_words"
	KeyMaxRetries        = "indexing.max_retries"
	KeyRetryDelaySeconds = "indexing.retry_delay_seconds"
	KeyMinSimilarity     = "indexing.min_similarity"
	KeyTopK              = "indexing.top_k"
	KeyRequestsPerSecond = "indexing.requests_per_second"

	KeyReconcilerEnabled  = "reconciler.enabled"
	KeyReconcilerInterval = "reconciler.interval_seconds"

	KeyEmbeddingProvider   = "embedding.provider"
	KeyEmbeddingModel      = "embedding.model"
	KeyEmbeddingBaseURL    = "embedding.base_url"
	KeyEmbeddingAPIKey     = "embedding.api_key"
	KeyEmbeddingDimensions = "embedding.dimensions"

	// EnvAPIKey overrides the stored embedding API key.
	EnvAPIKey = "CASESYNC_EMBEDDING_API_KEY"
)

// KnownKeys lists every key LoadSettings reads, in display order.
var KnownKeys = []string{
	KeyChunkSizeWords,
	KeyChunkOverlapWords,
	KeyMaxRetries,
	KeyRetryDelaySeconds,
	KeyMinSimilarity,
	KeyTopK,
	KeyRequestsPerSecond,
	KeyReconcilerEnabled,
	KeyReconcilerInterval,
	KeyEmbeddingProvider,
	KeyEmbeddingModel,
	KeyEmbeddingBaseURL,
	KeyEmbeddingAPIKey,
	KeyEmbeddingDimensions,
}

// LoadSettings overlays stored values on domain.DefaultSettings and
// validates the result. A nil store yields the defaults.
func LoadSettings(store driven.ConfigStore) (domain.Settings, error) {
	s := domain.DefaultSettings()

	if store != nil {
		if has(store, KeyChunkSizeWords) {
			s.Indexing.ChunkSizeWords = store.GetInt(KeyChunkSizeWords)
		}
		if has(store, KeyChunkOverlapWords) {
			s.Indexing.ChunkOverlapWords = store.GetInt(KeyChunkOverlapWords)
		}
		if has(store, KeyMaxRetries) {
			s.Indexing.MaxRetries = store.GetInt(KeyMaxRetries)
		}
		if has(store, KeyRetryDelaySeconds) {
			s.Indexing.RetryDelay = seconds(store.GetFloat(KeyRetryDelaySeconds))
		}
		if has(store, KeyMinSimilarity) {
			s.Indexing.MinSimilarity = store.GetFloat(KeyMinSimilarity)
		}
		if has(store, KeyTopK) {
			s.Indexing.TopK = store.GetInt(KeyTopK)
		}
		if has(store, KeyRequestsPerSecond) {
			s.Indexing.RequestsPerSecond = store.GetFloat(KeyRequestsPerSecond)
		}

		if has(store, KeyReconcilerEnabled) {
			s.Reconciler.Enabled = store.GetBool(KeyReconcilerEnabled)
		}
		if has(store, KeyReconcilerInterval) {
			s.Reconciler.Interval = seconds(store.GetFloat(KeyReconcilerInterval))
		}

		if v := store.GetString(KeyEmbeddingProvider); v != "" {
			s.Embedding.Provider = domain.AIProvider(strings.ToLower(v))
		}
		if v := store.GetString(KeyEmbeddingModel); v != "" {
			s.Embedding.Model = v
		}
		if v := store.GetString(KeyEmbeddingBaseURL); v != "" {
			s.Embedding.BaseURL = v
		}
		if v := store.GetString(KeyEmbeddingAPIKey); v != "" {
			s.Embedding.APIKey = v
		}
		if has(store, KeyEmbeddingDimensions) {
			s.Embedding.Dimensions = store.GetInt(KeyEmbeddingDimensions)
		}
	}

	if v := os.Getenv(EnvAPIKey); v != "" {
		s.Embedding.APIKey = v
	}

	if !s.Embedding.Provider.IsValid() {
		return s, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidConfig, s.Embedding.Provider)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func has(store driven.ConfigStore, key string) bool {
	_, ok := store.Get(key)
	return ok
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
