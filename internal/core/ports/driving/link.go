package driving

import (
	"context"

	"github.com/custodia-labs/casesync/internal/core/domain"
)

// LinkService binds directories to cases.
type LinkService interface {
	// Link registers dir under caseID and runs the first scan.
	Link(ctx context.Context, caseID domain.CaseID, dir string) (*domain.LinkedSource, domain.ReconcileStats, error)

	// Unlink removes the binding with its documents and their chunks.
	Unlink(ctx context.Context, linkID domain.LinkID) error

	// List returns all bindings.
	List(ctx context.Context) ([]domain.LinkedSource, error)
}
