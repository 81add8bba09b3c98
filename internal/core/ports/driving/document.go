package driving

import (
	"context"

	"github.com/custodia-labs/casesync/internal/core/domain"
)

// DocumentService manages uploaded documents and exposes read access to all
// documents.
type DocumentService interface {
	// Upload extracts the file, records it as an uploaded document and
	// indexes its text.
	Upload(ctx context.Context, caseID domain.CaseID, path string) (*domain.Document, *domain.IndexResult, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, id domain.DocumentID) (*domain.Document, error)

	// ListByCase returns the documents of a case.
	ListByCase(ctx context.Context, caseID domain.CaseID) ([]domain.Document, error)

	// Reindex forces a fresh index of a document's stored text.
	Reindex(ctx context.Context, id domain.DocumentID) (*domain.IndexResult, error)

	// Delete removes a document's index and then the document.
	Delete(ctx context.Context, id domain.DocumentID) error
}
