package driving

import (
	"context"

	"github.com/custodia-labs/casesync/internal/core/domain"
)

// IndexingPipeline chunks, embeds and stores document text and serves
// similarity search over the stored chunks.
type IndexingPipeline interface {
	// IndexDocument indexes one document's text. Fails with
	// domain.ErrEmptyContent for blank text. Without ForceReindex an already
	// indexed document is left alone and AlreadyIndexed is set.
	IndexDocument(ctx context.Context, req domain.IndexRequest) (*domain.IndexResult, error)

	// DeleteDocumentIndex removes all chunks of a document. Idempotent.
	DeleteDocumentIndex(ctx context.Context, documentID domain.DocumentID) error

	// SearchSimilar embeds the query and returns ranked hits. An empty slice
	// means nothing relevant; an error means the search itself failed.
	SearchSimilar(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchHit, error)

	// GetIndexStats aggregates chunk counts. A nil caseID covers all cases.
	GetIndexStats(ctx context.Context, caseID *domain.CaseID) (domain.IndexStats, error)
}

// Indexer is the narrow view of the pipeline used by producers of index work.
// Both IndexingPipeline and the index queue satisfy it.
type Indexer interface {
	IndexDocument(ctx context.Context, req domain.IndexRequest) (*domain.IndexResult, error)
	DeleteDocumentIndex(ctx context.Context, documentID domain.DocumentID) error
}
