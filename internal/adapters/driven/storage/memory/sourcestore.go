package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/casesync/internal/core/domain"
	"github.com/custodia-labs/casesync/internal/core/ports/driven"
)

// Ensure LinkedSourceStore implements the interface.
var _ driven.LinkedSourceStore = (*LinkedSourceStore)(nil)

// LinkedSourceStore is an in-memory implementation of driven.LinkedSourceStore.
type LinkedSourceStore struct {
	mu      sync.RWMutex
	sources map[domain.LinkID]domain.LinkedSource
}

// NewLinkedSourceStore creates a new in-memory linked source store.
func NewLinkedSourceStore() *LinkedSourceStore {
	return &LinkedSourceStore{
		sources: make(map[domain.LinkID]domain.LinkedSource),
	}
}

// Save stores or updates a linked source.
func (s *LinkedSourceStore) Save(_ context.Context, source domain.LinkedSource) error {
	if source.LinkID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[source.LinkID] = source
	return nil
}

// Get retrieves a linked source by link id.
func (s *LinkedSourceStore) Get(_ context.Context, linkID domain.LinkID) (*domain.LinkedSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	source, ok := s.sources[linkID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &source, nil
}

// List returns all linked sources ordered by creation time.
func (s *LinkedSourceStore) List(_ context.Context) ([]domain.LinkedSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.LinkedSource, 0, len(s.sources))
	for _, source := range s.sources {
		result = append(result, source)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].LinkID < result[j].LinkID
	})
	return result, nil
}

// TouchSync updates LastSyncAt.
func (s *LinkedSourceStore) TouchSync(_ context.Context, linkID domain.LinkID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	source, ok := s.sources[linkID]
	if !ok {
		return domain.ErrNotFound
	}
	source.LastSyncAt = at
	s.sources[linkID] = source
	return nil
}

// Delete removes a linked source.
func (s *LinkedSourceStore) Delete(_ context.Context, linkID domain.LinkID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sources, linkID)
	return nil
}
