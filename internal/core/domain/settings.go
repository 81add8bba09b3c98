package domain

import (
	"fmt"
	"time"
)

// Defaults for indexing, search and reconciliation.
const (
	DefaultChunkSizeWords    = 400
	DefaultChunkOverlapWords = 50
	DefaultMaxRetries        = 3
	DefaultRetryDelay        = 2 * time.Second
	DefaultMinSimilarity     = 0.35
	DefaultTopK              = 5
	DefaultReconcileInterval = 5 * time.Minute

	// MinReconcileInterval is the floor applied to any configured interval.
	MinReconcileInterval = 60 * time.Second
)

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
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

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions overrides the model's default vector size when non-zero.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// IndexingSettings configures chunking, embedding retry and search.
type IndexingSettings struct {
	ChunkSizeWords    int
	ChunkOverlapWords int

	// MaxRetries is the number of embedding attempts per chunk.
	MaxRetries int

	// RetryDelay is the fixed wait between attempts.
	RetryDelay time.Duration

	MinSimilarity float64
	TopK          int

	// RequestsPerSecond limits embedding calls. Zero means unlimited.
	RequestsPerSecond float64
}

// ReconcilerSettings configures the background reconciliation loop.
type ReconcilerSettings struct {
	Enabled  bool
	Interval time.Duration
}

// EffectiveInterval returns the configured interval clamped to
// MinReconcileInterval.
func (r ReconcilerSettings) EffectiveInterval() time.Duration {
	if r.Interval < MinReconcileInterval {
		return MinReconcileInterval
	}
	return r.Interval
}

// Settings aggregates all configuration consumed by the engine.
type Settings struct {
	Indexing   IndexingSettings
	Reconciler ReconcilerSettings
	Embedding  EmbeddingSettings
}

// DefaultSettings returns sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		Indexing: IndexingSettings{
			ChunkSizeWords:    DefaultChunkSizeWords,
			ChunkOverlapWords: DefaultChunkOverlapWords,
			MaxRetries:        DefaultMaxRetries,
			RetryDelay:        DefaultRetryDelay,
			MinSimilarity:     DefaultMinSimilarity,
			TopK:              DefaultTopK,
		},
		Reconciler: ReconcilerSettings{
			Enabled:  true,
			Interval: DefaultReconcileInterval,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    "nomic-embed-text",
		},
	}
}

// Validate reports configuration that must fail fast at construction time.
func (s Settings) Validate() error {
	ix := s.Indexing
	if ix.ChunkSizeWords <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, ix.ChunkSizeWords)
	}
	if ix.ChunkOverlapWords < 0 || ix.ChunkOverlapWords >= ix.ChunkSizeWords {
		return fmt.Errorf("%w: chunk overlap %d must be in [0, %d)",
			ErrInvalidConfig, ix.ChunkOverlapWords, ix.ChunkSizeWords)
	}
	if ix.MaxRetries < 1 {
		return fmt.Errorf("%w: max retries must be at least 1, got %d", ErrInvalidConfig, ix.MaxRetries)
	}
	if ix.RetryDelay < 0 {
		return fmt.Errorf("%w: retry delay must not be negative", ErrInvalidConfig)
	}
	if ix.TopK <= 0 {
		return fmt.Errorf("%w: top k must be positive, got %d", ErrInvalidConfig, ix.TopK)
	}
	if ix.MinSimilarity < -1 || ix.MinSimilarity > 1 {
		return fmt.Errorf("%w: min similarity %.2f outside [-1, 1]", ErrInvalidConfig, ix.MinSimilarity)
	}
	if ix.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: requests per second must not be negative", ErrInvalidConfig)
	}
	return nil
}
