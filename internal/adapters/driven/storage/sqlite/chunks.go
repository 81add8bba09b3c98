package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/casesync/internal/core/domain"
	"github.com/custodia-labs/casesync/internal/core/ports/driven"
)

// ==================== Index Store ====================

// indexStore implements driven.IndexStore.
type indexStore struct {
	store *Store
}

var _ driven.IndexStore = (*indexStore)(nil)

const chunkColumns = `document_id, case_id, chunk_index, text, embedding,
	embedding_model, embedding_dimensions, word_count, created_at`

// CreateChunk stores one chunk. INSERT OR REPLACE gives a replaced chunk a
// new row id, so it moves to the end of the insertion order.
func (s *indexStore) CreateChunk(ctx context.Context, chunk *domain.Chunk) error {
	if chunk == nil || chunk.DocumentID == "" {
		return domain.ErrInvalidInput
	}
	createdAt := chunk.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO chunks (`+chunkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, string(chunk.DocumentID), string(chunk.CaseID), chunk.Index, chunk.Text,
		float32SliceToBytes(chunk.Embedding), chunk.EmbeddingModel, chunk.EmbeddingDimensions,
		chunk.WordCount, formatTime(createdAt))
	if err != nil {
		return fmt.Errorf("creating chunk: %w", err)
	}
	return nil
}

// DeleteChunksForDocument removes all chunks of a document.
func (s *indexStore) DeleteChunksForDocument(ctx context.Context, documentID domain.DocumentID) (int, error) {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", string(documentID))
	if err != nil {
		return 0, fmt.Errorf("deleting chunks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking affected rows: %w", err)
	}
	return int(n), nil
}

// CountChunks returns the number of chunks for a document.
func (s *indexStore) CountChunks(ctx context.Context, documentID domain.DocumentID) (int, error) {
	var n int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE document_id = ?", string(documentID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// QueryChunksByCase returns the chunks of a case in insertion order.
func (s *indexStore) QueryChunksByCase(ctx context.Context, caseID domain.CaseID) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE case_id = ? ORDER BY id", string(caseID))
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	chunks := make([]domain.Chunk, 0)
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// SimilaritySearch ranks chunks with the cosine_similarity SQL function.
// A non-positive topK returns every row above the threshold.
func (s *indexStore) SimilaritySearch(
	ctx context.Context,
	query []float32,
	caseID *domain.CaseID,
	topK int,
	minSimilarity float64,
) ([]domain.ScoredChunk, error) {
	var scope any
	if caseID != nil {
		scope = string(*caseID)
	}
	limit := topK
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+chunkColumns+`, similarity FROM (
			SELECT id, `+chunkColumns+`, cosine_similarity(embedding, ?) AS similarity
			FROM chunks
			WHERE ? IS NULL OR case_id = ?
		)
		WHERE similarity >= ?
		ORDER BY similarity DESC, id ASC
		LIMIT ?
	`, float32SliceToBytes(query), scope, scope, minSimilarity, limit)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	results := make([]domain.ScoredChunk, 0)
	for rows.Next() {
		var sc domain.ScoredChunk
		c, err := scanChunk(rows, &sc.Similarity)
		if err != nil {
			return nil, err
		}
		sc.Chunk = *c
		results = append(results, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return results, nil
}

// Stats aggregates chunk counts. Model and dimensions come from the most
// recently written chunk in scope.
func (s *indexStore) Stats(ctx context.Context, caseID *domain.CaseID) (domain.IndexStats, error) {
	stats := domain.IndexStats{CaseID: caseID}

	var scope any
	if caseID != nil {
		scope = string(*caseID)
	}

	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE ? IS NULL OR case_id = ?", scope, scope).
		Scan(&stats.TotalChunks)
	if err != nil {
		return stats, fmt.Errorf("counting chunks: %w", err)
	}
	if stats.TotalChunks == 0 {
		return stats, nil
	}

	err = s.store.db.QueryRowContext(ctx, `
		SELECT embedding_model, embedding_dimensions FROM chunks
		WHERE ? IS NULL OR case_id = ?
		ORDER BY id DESC LIMIT 1
	`, scope, scope).Scan(&stats.EmbeddingModel, &stats.EmbeddingDimensions)
	if err != nil {
		return stats, fmt.Errorf("reading embedding model: %w", err)
	}
	return stats, nil
}

// scanChunk scans one chunk row. extra receives any trailing columns.
func scanChunk(row rowScanner, extra ...any) (*domain.Chunk, error) {
	var c domain.Chunk
	var documentID, caseID, createdAt string
	var embedding []byte

	dest := []any{&documentID, &caseID, &c.Index, &c.Text, &embedding,
		&c.EmbeddingModel, &c.EmbeddingDimensions, &c.WordCount, &createdAt}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	c.DocumentID = domain.DocumentID(documentID)
	c.CaseID = domain.CaseID(caseID)
	c.Embedding = bytesToFloat32Slice(embedding)
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}
