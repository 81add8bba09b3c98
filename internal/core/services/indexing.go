package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/casesync/internal/core/domain"
	"github.com/custodia-labs/casesync/internal/core/ports/driven"
	"github.com/custodia-labs/casesync/internal/core/ports/driving"
	"github.com/custodia-labs/casesync/internal/logger"
	"github.com/custodia-labs/casesync/internal/postprocessors/chunker"
)

// Verify interface compliance.
var _ driving.IndexingPipeline = (*IndexingService)(nil)

// IndexingService chunks document text, embeds each chunk and persists the
// results. It also serves similarity search over the stored chunks.
//
// There is no per-document lock. A forced reindex deletes the old chunks
// before writing new ones, so a concurrent search may briefly see a partial
// document. Callers that need ordering route requests through an IndexQueue.
type IndexingService struct {
	index    driven.IndexStore
	docs     driven.DocumentStore
	embedder *EmbeddingClient
	chunker  *chunker.Processor

	topK          int
	minSimilarity float64
}

// NewIndexingService creates the indexing pipeline. docs may be nil, in which
// case the Indexed flag on documents is not maintained. Invalid chunking
// settings fail here rather than at first use.
func NewIndexingService(
	index driven.IndexStore,
	docs driven.DocumentStore,
	embedder *EmbeddingClient,
	settings domain.IndexingSettings,
) (*IndexingService, error) {
	if index == nil {
		return nil, fmt.Errorf("%w: index store is required", domain.ErrInvalidConfig)
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedding client is required", domain.ErrInvalidConfig)
	}

	c, err := chunker.New(
		chunker.WithChunkSize(settings.ChunkSizeWords),
		chunker.WithOverlap(settings.ChunkOverlapWords),
	)
	if err != nil {
		return nil, err
	}

	topK := settings.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	return &IndexingService{
		index:         index,
		docs:          docs,
		embedder:      embedder,
		chunker:       c,
		topK:          topK,
		minSimilarity: settings.MinSimilarity,
	}, nil
}

// IndexDocument chunks, embeds and stores req.Text.
//
// Chunks whose embedding fails after all retries are skipped, so
// ChunksCreated may be lower than TotalChunks. A cancelled context stops the
// run and leaves already written chunks in place.
func (s *IndexingService) IndexDocument(ctx context.Context, req domain.IndexRequest) (*domain.IndexResult, error) {
	if req.DocumentID == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("index %s: %w", req.DocumentID, domain.ErrEmptyContent)
	}

	existing, err := s.index.CountChunks(ctx, req.DocumentID)
	if err != nil {
		return nil, &domain.StoreError{Op: "count chunks", Cause: err}
	}

	if existing > 0 && !req.ForceReindex {
		logger.Debug("document %s already indexed (%d chunks)", req.DocumentID, existing)
		s.markIndexed(ctx, req.DocumentID, true)
		return &domain.IndexResult{
			TotalChunks:    existing,
			EmbeddingModel: s.embedder.ModelName(),
			AlreadyIndexed: true,
		}, nil
	}

	if !s.embedder.Available() {
		return nil, domain.ErrEmbeddingUnavailable
	}

	if existing > 0 {
		if _, err := s.index.DeleteChunksForDocument(ctx, req.DocumentID); err != nil {
			return nil, &domain.StoreError{Op: "delete chunks", Cause: err}
		}
	}

	chunks := s.chunker.Chunks(req.DocumentID, req.CaseID, req.Text)
	result := &domain.IndexResult{
		TotalChunks:    len(chunks),
		EmbeddingModel: s.embedder.ModelName(),
	}

	for i := range chunks {
		chunk := &chunks[i]

		vec, err := s.embedder.EmbedWithRetry(ctx, chunk.Text)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			logger.Warn("document %s: skipping chunk %d: %v", req.DocumentID, chunk.Index, err)
			continue
		}

		chunk.Embedding = vec
		chunk.EmbeddingModel = s.embedder.ModelName()
		chunk.EmbeddingDimensions = len(vec)
		chunk.CreatedAt = time.Now().UTC()

		if err := s.index.CreateChunk(ctx, chunk); err != nil {
			return result, &domain.StoreError{Op: "create chunk", Cause: err}
		}
		result.ChunksCreated++
	}

	s.markIndexed(ctx, req.DocumentID, result.ChunksCreated > 0)

	if result.Partial() {
		logger.Warn("document %s: indexed %d of %d chunks", req.DocumentID, result.ChunksCreated, result.TotalChunks)
	} else {
		logger.Debug("document %s: indexed %d chunks", req.DocumentID, result.ChunksCreated)
	}

	return result, nil
}

// markIndexed keeps the document flag in line with the chunk rows. Documents
// unknown to the store (direct callers indexing ad hoc text) are ignored.
func (s *IndexingService) markIndexed(ctx context.Context, id domain.DocumentID, indexed bool) {
	if s.docs == nil {
		return
	}
	if err := s.docs.SetIndexed(ctx, id, indexed); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("document %s: failed to set indexed=%t: %v", id, indexed, err)
	}
}

// DeleteDocumentIndex removes every chunk of a document.
func (s *IndexingService) DeleteDocumentIndex(ctx context.Context, documentID domain.DocumentID) error {
	n, err := s.index.DeleteChunksForDocument(ctx, documentID)
	if err != nil {
		return &domain.StoreError{Op: "delete chunks", Cause: err}
	}
	if n > 0 {
		logger.Debug("document %s: deleted %d chunks", documentID, n)
	}
	return nil
}

// SearchSimilar embeds query and returns the closest chunks.
//
// The score threshold and topK limit are applied here after the store query,
// so every IndexStore gives the same results. Equal scores keep the store's
// insertion order.
func (s *IndexingService) SearchSimilar(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search: %w", domain.ErrEmptyContent)
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = s.topK
	}
	minSimilarity := s.minSimilarity
	if opts.MinSimilarity != nil {
		minSimilarity = *opts.MinSimilarity
	}

	vec, err := s.embedder.EmbedWithRetry(ctx, query)
	if err != nil {
		return nil, err
	}

	scored, err := s.index.SimilaritySearch(ctx, vec, opts.CaseID, topK, minSimilarity)
	if err != nil {
		return nil, &domain.StoreError{Op: "similarity search", Cause: err}
	}

	hits := make([]domain.SearchHit, 0, len(scored))
	for _, sc := range scored {
		if sc.Similarity < minSimilarity {
			continue
		}
		if opts.CaseID != nil && sc.CaseID != *opts.CaseID {
			continue
		}
		hits = append(hits, domain.SearchHit{
			DocumentID:      sc.DocumentID,
			ChunkIndex:      sc.Index,
			ChunkText:       sc.Text,
			SimilarityScore: sc.Similarity,
			WordCount:       sc.WordCount,
		})
		if len(hits) == topK {
			break
		}
	}

	return hits, nil
}

// GetIndexStats aggregates chunk counts, optionally for one case.
func (s *IndexingService) GetIndexStats(ctx context.Context, caseID *domain.CaseID) (domain.IndexStats, error) {
	stats, err := s.index.Stats(ctx, caseID)
	if err != nil {
		return domain.IndexStats{CaseID: caseID}, &domain.StoreError{Op: "stats", Cause: err}
	}
	stats.CaseID = caseID
	return stats, nil
}
