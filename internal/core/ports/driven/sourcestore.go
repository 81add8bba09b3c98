package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/casesync/internal/core/domain"
)

// LinkedSourceStore persists linked directory bindings.
type LinkedSourceStore interface {
	// Save stores or updates a linked source.
	Save(ctx context.Context, source domain.LinkedSource) error

	// Get retrieves a linked source by link id.
	Get(ctx context.Context, linkID domain.LinkID) (*domain.LinkedSource, error)

	// List returns all linked sources.
	List(ctx context.Context) ([]domain.LinkedSource, error)

	// TouchSync records a completed scan. Only LastSyncAt changes.
	TouchSync(ctx context.Context, linkID domain.LinkID, at time.Time) error

	// Delete removes a linked source.
	Delete(ctx context.Context, linkID domain.LinkID) error
}
