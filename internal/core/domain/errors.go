package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates a configuration that cannot be used,
	// such as a chunk overlap that is not smaller than the chunk size.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyContent indicates an index request with no text.
	ErrEmptyContent = errors.New("empty content")

	// ErrEmbeddingUnavailable indicates the embedding provider is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrQueueClosed indicates the index queue no longer accepts jobs.
	ErrQueueClosed = errors.New("index queue closed")

	// ErrQueueFull indicates a fire-and-forget job was rejected because the
	// index queue buffer is full.
	ErrQueueFull = errors.New("index queue full")
)

// EmbeddingError is returned when the embedding provider fails.
// During indexing it is logged and the chunk is skipped.
type EmbeddingError struct {
	// Attempts is how many provider calls were made.
	Attempts int
	Cause    error
}

func (e *EmbeddingError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("embedding failed after %d attempts: %v", e.Attempts, e.Cause)
	}
	return fmt.Sprintf("embedding failed: %v", e.Cause)
}

func (e *EmbeddingError) Unwrap() error { return e.Cause }

// ExtractionError is returned when the content extractor fails on a file.
// The reconciler skips the file and retries on the next tick.
type ExtractionError struct {
	Path  string
	Cause error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Cause)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

// StoreError is returned when persistence fails.
type StoreError struct {
	// Op names the store operation, e.g. "create chunk".
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error { return e.Cause }

// ScanError is returned when a linked directory is missing or unreadable.
// It never triggers document deletion on its own.
type ScanError struct {
	Path  string
	Cause error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Path, e.Cause)
}

func (e *ScanError) Unwrap() error { return e.Cause }

// IsEmbeddingError reports whether err is or wraps an EmbeddingError.
func IsEmbeddingError(err error) bool {
	var target *EmbeddingError
	return errors.As(err, &target)
}
