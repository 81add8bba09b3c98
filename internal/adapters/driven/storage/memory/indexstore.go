package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/casesync/internal/core/domain"
	"github.com/custodia-labs/casesync/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore is an in-memory implementation of driven.IndexStore. Chunks are
// kept in insertion order, which is also the tie-break order for searches.
type IndexStore struct {
	mu     sync.RWMutex
	chunks []domain.Chunk
}

// NewIndexStore creates a new in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{}
}

func cloneChunk(c domain.Chunk) domain.Chunk {
	if c.Embedding != nil {
		c.Embedding = append([]float32(nil), c.Embedding...)
	}
	return c
}

// CreateChunk stores a chunk, replacing one with the same (DocumentID, Index).
// A replaced chunk moves to the end of the insertion order.
func (s *IndexStore) CreateChunk(_ context.Context, chunk *domain.Chunk) error {
	if chunk == nil || chunk.DocumentID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.chunks {
		if s.chunks[i].DocumentID == chunk.DocumentID && s.chunks[i].Index == chunk.Index {
			s.chunks = append(s.chunks[:i], s.chunks[i+1:]...)
			break
		}
	}
	s.chunks = append(s.chunks, cloneChunk(*chunk))
	return nil
}

// DeleteChunksForDocument removes all chunks of a document.
func (s *IndexStore) DeleteChunksForDocument(_ context.Context, documentID domain.DocumentID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0]
	removed := 0
	for _, c := range s.chunks {
		if c.DocumentID == documentID {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	s.chunks = kept
	return removed, nil
}

// CountChunks returns the number of chunks for a document.
func (s *IndexStore) CountChunks(_ context.Context, documentID domain.DocumentID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.chunks {
		if c.DocumentID == documentID {
			n++
		}
	}
	return n, nil
}

// QueryChunksByCase returns the chunks of a case in insertion order.
func (s *IndexStore) QueryChunksByCase(_ context.Context, caseID domain.CaseID) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Chunk, 0)
	for _, c := range s.chunks {
		if c.CaseID == caseID {
			result = append(result, cloneChunk(c))
		}
	}
	return result, nil
}

// ChunksForDocument returns a document's chunks ordered by index.
func (s *IndexStore) ChunksForDocument(documentID domain.DocumentID) []domain.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Chunk, 0)
	for _, c := range s.chunks {
		if c.DocumentID == documentID {
			result = append(result, cloneChunk(c))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Index < result[j].Index })
	return result
}

// SimilaritySearch scans every candidate chunk and ranks by cosine similarity.
func (s *IndexStore) SimilaritySearch(
	_ context.Context,
	query []float32,
	caseID *domain.CaseID,
	topK int,
	minSimilarity float64,
) ([]domain.ScoredChunk, error) {
	s.mu.RLock()
	scored := make([]domain.ScoredChunk, 0)
	for _, c := range s.chunks {
		if caseID != nil && c.CaseID != *caseID {
			continue
		}
		sim := domain.CosineSimilarity(query, c.Embedding)
		if sim < minSimilarity {
			continue
		}
		scored = append(scored, domain.ScoredChunk{Chunk: cloneChunk(c), Similarity: sim})
	}
	s.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// Stats aggregates chunk counts. Model and dimensions come from the most
// recently written chunk in scope.
func (s *IndexStore) Stats(_ context.Context, caseID *domain.CaseID) (domain.IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.IndexStats{CaseID: caseID}
	for _, c := range s.chunks {
		if caseID != nil && c.CaseID != *caseID {
			continue
		}
		stats.TotalChunks++
		stats.EmbeddingModel = c.EmbeddingModel
		stats.EmbeddingDimensions = c.EmbeddingDimensions
	}
	return stats, nil
}
