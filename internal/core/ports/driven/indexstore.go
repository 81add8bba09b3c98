package driven

import (
	"context"

	"github.com/custodia-labs/casesync/internal/core/domain"
)

// IndexStore exclusively owns chunk rows and serves similarity queries.
//
// Implementations must tolerate concurrent create, delete and query calls.
// No call spans a transaction over multiple chunk writes.
type IndexStore interface {
	// CreateChunk persists one chunk row. A row with the same
	// (DocumentID, Index) is replaced.
	CreateChunk(ctx context.Context, chunk *domain.Chunk) error

	// DeleteChunksForDocument removes every chunk of a document and returns
	// how many were removed. Deleting from an unindexed document succeeds.
	DeleteChunksForDocument(ctx context.Context, documentID domain.DocumentID) (int, error)

	// CountChunks returns the number of chunks stored for a document.
	CountChunks(ctx context.Context, documentID domain.DocumentID) (int, error)

	// QueryChunksByCase returns the chunks of a case in insertion order.
	QueryChunksByCase(ctx context.Context, caseID domain.CaseID) ([]domain.Chunk, error)

	// SimilaritySearch ranks candidate chunks by cosine similarity to query,
	// descending. Ties keep insertion order. Rows scoring below minSimilarity
	// are dropped and at most topK rows are returned. A nil caseID searches
	// every case.
	SimilaritySearch(
		ctx context.Context,
		query []float32,
		caseID *domain.CaseID,
		topK int,
		minSimilarity float64,
	) ([]domain.ScoredChunk, error)

	// Stats aggregates chunk counts, optionally scoped to one case.
	Stats(ctx context.Context, caseID *domain.CaseID) (domain.IndexStats, error)
}
