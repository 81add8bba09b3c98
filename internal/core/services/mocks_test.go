package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/casesync/internal/core/domain"
)

// --- Shared mock implementations ---

// testKeywords are the axes of the mock embedding space.
var testKeywords = []string{"contract", "invoice", "email", "witness"}

// mockEmbeddingProvider implements driven.EmbeddingProvider. Each text maps
// to keyword counts plus a small constant, so similarity is predictable.
type mockEmbeddingProvider struct {
	mu        sync.Mutex
	calls     int
	failFirst int
	failAll   error
	failOn    string
}

func (m *mockEmbeddingProvider) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()

	if m.failAll != nil {
		return nil, m.failAll
	}
	if call <= m.failFirst {
		return nil, errors.New("provider temporarily unavailable")
	}
	if m.failOn != "" && strings.Contains(text, m.failOn) {
		return nil, errors.New("provider rejected text")
	}
	return keywordVector(text), nil
}

func (m *mockEmbeddingProvider) Dimensions() int { return len(testKeywords) + 1 }

func (m *mockEmbeddingProvider) ModelName() string { return "mock-embed" }

func (m *mockEmbeddingProvider) Ping(context.Context) error { return nil }

func (m *mockEmbeddingProvider) Close() error { return nil }

func (m *mockEmbeddingProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockEmbeddingProvider) heal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll = nil
}

func keywordVector(text string) []float32 {
	vec := make([]float32, len(testKeywords)+1)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		for i, kw := range testKeywords {
			if strings.Contains(word, kw) {
				vec[i]++
			}
		}
	}
	vec[len(testKeywords)] = 0.01
	return vec
}

// mockExtractor implements driven.ContentExtractor over plain files.
// .bin files yield a placeholder and names containing "broken" fail.
type mockExtractor struct {
	mu    sync.Mutex
	calls int
}

func (m *mockExtractor) Extract(_ context.Context, path string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if strings.Contains(filepath.Base(path), "broken") {
		return "", errors.New("corrupt file")
	}
	if filepath.Ext(path) == ".bin" {
		return domain.PlaceholderText("binary", filepath.Base(path)), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (m *mockExtractor) Supports(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".bin":
		return true
	default:
		return false
	}
}

// recordingIndexer implements driving.Indexer, recording every request and
// optionally delegating to a real pipeline.
type recordingIndexer struct {
	mu       sync.Mutex
	next     *IndexingService
	requests []domain.IndexRequest
	deleted  []domain.DocumentID
	indexErr error
}

func (r *recordingIndexer) IndexDocument(ctx context.Context, req domain.IndexRequest) (*domain.IndexResult, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()

	if r.indexErr != nil {
		return nil, r.indexErr
	}
	if r.next != nil {
		return r.next.IndexDocument(ctx, req)
	}
	return &domain.IndexResult{ChunksCreated: 1, TotalChunks: 1}, nil
}

func (r *recordingIndexer) DeleteDocumentIndex(ctx context.Context, documentID domain.DocumentID) error {
	r.mu.Lock()
	r.deleted = append(r.deleted, documentID)
	r.mu.Unlock()

	if r.next != nil {
		return r.next.DeleteDocumentIndex(ctx, documentID)
	}
	return nil
}

func (r *recordingIndexer) Requests() []domain.IndexRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.IndexRequest(nil), r.requests...)
}

func (r *recordingIndexer) Deleted() []domain.DocumentID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.DocumentID(nil), r.deleted...)
}

func (r *recordingIndexer) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = nil
	r.deleted = nil
}

// testIndexingSettings uses tiny chunks so short texts split.
func testIndexingSettings() domain.IndexingSettings {
	return domain.IndexingSettings{
		ChunkSizeWords:    4,
		ChunkOverlapWords: 1,
		MaxRetries:        2,
		MinSimilarity:     0.35,
		TopK:              5,
	}
}
