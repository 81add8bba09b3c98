package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/casesync/internal/core/domain"
	"github.com/custodia-labs/casesync/internal/core/ports/driven"
	"github.com/custodia-labs/casesync/internal/logger"
)

// EmbeddingClient wraps an EmbeddingProvider with a fixed-delay retry policy
// and an optional request rate limit. It holds no cache and no per-call state.
type EmbeddingClient struct {
	provider   driven.EmbeddingProvider
	maxRetries int
	retryDelay time.Duration
	limiter    *rate.Limiter
}

// NewEmbeddingClient creates an embedding client from indexing settings.
// A nil provider is allowed; every call then fails with
// domain.ErrEmbeddingUnavailable.
func NewEmbeddingClient(provider driven.EmbeddingProvider, settings domain.IndexingSettings) *EmbeddingClient {
	maxRetries := settings.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	c := &EmbeddingClient{
		provider:   provider,
		maxRetries: maxRetries,
		retryDelay: settings.RetryDelay,
	}
	if settings.RequestsPerSecond > 0 {
		burst := int(settings.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(settings.RequestsPerSecond), burst)
	}
	return c
}

// Available reports whether a provider is configured.
func (c *EmbeddingClient) Available() bool {
	return c.provider != nil
}

// ModelName returns the provider's model name, or "" without a provider.
func (c *EmbeddingClient) ModelName() string {
	if c.provider == nil {
		return ""
	}
	return c.provider.ModelName()
}

// Dimensions returns the provider's vector size, or 0 without a provider.
func (c *EmbeddingClient) Dimensions() int {
	if c.provider == nil {
		return 0
	}
	return c.provider.Dimensions()
}

// Embed makes a single provider call.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := c.attempt(ctx, text)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingUnavailable) {
			return nil, err
		}
		return nil, &domain.EmbeddingError{Attempts: 1, Cause: err}
	}
	return vec, nil
}

// EmbedWithRetry calls the provider up to MaxRetries times, waiting
// RetryDelay between attempts. Cancelling ctx aborts the in-flight call
// and any pending wait.
func (c *EmbeddingClient) EmbedWithRetry(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	attempts := 0

	for attempts < c.maxRetries {
		if err := ctx.Err(); err != nil {
			return nil, &domain.EmbeddingError{Attempts: attempts, Cause: err}
		}

		attempts++
		vec, err := c.attempt(ctx, text)
		if err == nil {
			return vec, nil
		}
		if errors.Is(err, domain.ErrEmbeddingUnavailable) {
			return nil, err
		}
		lastErr = err

		if attempts >= c.maxRetries {
			break
		}
		logger.Debug("embedding attempt %d/%d failed: %v", attempts, c.maxRetries, err)

		if c.retryDelay > 0 {
			timer := time.NewTimer(c.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, &domain.EmbeddingError{Attempts: attempts, Cause: ctx.Err()}
			case <-timer.C:
			}
		}
	}

	return nil, &domain.EmbeddingError{Attempts: attempts, Cause: lastErr}
}

func (c *EmbeddingClient) attempt(ctx context.Context, text string) ([]float32, error) {
	if c.provider == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	vec, err := c.provider.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("provider %s returned an empty vector", c.provider.ModelName())
	}
	return vec, nil
}
