package driven

import (
	"context"

	"github.com/custodia-labs/casesync/internal/core/domain"
)

// DocumentStore persists document records.
// Backed by SQLite for metadata storage.
type DocumentStore interface {
	// Create stores a new document. Returns domain.ErrAlreadyExists when the
	// id is taken.
	Create(ctx context.Context, doc *domain.Document) error

	// Merge applies the non-nil fields of update to an existing document.
	// Returns domain.ErrNotFound when the document does not exist.
	Merge(ctx context.Context, id domain.DocumentID, update domain.DocumentUpdate) error

	// SetIndexed updates the indexed flag.
	SetIndexed(ctx context.Context, id domain.DocumentID, indexed bool) error

	// Get retrieves a document by ID.
	Get(ctx context.Context, id domain.DocumentID) (*domain.Document, error)

	// Delete removes a document. Deleting a missing document succeeds.
	Delete(ctx context.Context, id domain.DocumentID) error

	// ListLinked returns every document with SourceType linked.
	ListLinked(ctx context.Context) ([]domain.Document, error)

	// ListByCase returns all documents owned by a case.
	ListByCase(ctx context.Context, caseID domain.CaseID) ([]domain.Document, error)

	// ListByLink returns the linked documents sharing one link id.
	ListByLink(ctx context.Context, linkID domain.LinkID) ([]domain.Document, error)
}
