// Package ai builds embedding providers from settings.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/casesync/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/casesync/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/casesync/internal/core/domain"
	"github.com/custodia-labs/casesync/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingProvider creates the embedding provider named by settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingProvider(settings *domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.New(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		provider, err := openaiembed.New(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		return provider, nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateAndValidateEmbeddingProvider creates an embedding provider and checks
// that it is reachable. A nil provider with a nil error means embeddings are
// not configured.
func CreateAndValidateEmbeddingProvider(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	provider, err := CreateEmbeddingProvider(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'casesync config set embedding.provider' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}
	if provider == nil {
		return nil, nil
	}

	if err := ping(ctx, provider); err != nil {
		_ = provider.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}
	return provider, nil
}

// ValidateEmbeddingConfig creates a provider from settings, pings it and
// releases it again. Unconfigured settings validate trivially.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	provider, err := CreateEmbeddingProvider(settings)
	if err != nil {
		return err
	}
	if provider == nil {
		return nil
	}
	defer provider.Close()
	return ping(ctx, provider)
}

func ping(ctx context.Context, provider driven.EmbeddingProvider) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return provider.Ping(ctx)
}
