package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/casesync/internal/core/domain"
	"github.com/custodia-labs/casesync/internal/core/ports/driven"
	"github.com/custodia-labs/casesync/internal/core/ports/driving"
	"github.com/custodia-labs/casesync/internal/logger"
)

// Ensure LinkService implements the interface.
var _ driving.LinkService = (*LinkService)(nil)

// LinkService binds directories to cases and removes those bindings.
type LinkService struct {
	sources    driven.LinkedSourceStore
	docs       driven.DocumentStore
	indexer    driving.Indexer
	reconciler driving.Reconciler
}

// NewLinkService creates a new link service.
func NewLinkService(
	sources driven.LinkedSourceStore,
	docs driven.DocumentStore,
	indexer driving.Indexer,
	reconciler driving.Reconciler,
) *LinkService {
	return &LinkService{
		sources:    sources,
		docs:       docs,
		indexer:    indexer,
		reconciler: reconciler,
	}
}

// Link registers dir under caseID and runs the first scan right away. The
// binding is kept even if the first scan reports errors.
func (s *LinkService) Link(
	ctx context.Context,
	caseID domain.CaseID,
	dir string,
) (*domain.LinkedSource, domain.ReconcileStats, error) {
	var stats domain.ReconcileStats

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, stats, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, stats, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if !info.IsDir() {
		return nil, stats, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, abs)
	}

	existing, err := s.sources.List(ctx)
	if err != nil {
		return nil, stats, &domain.StoreError{Op: "list linked sources", Cause: err}
	}
	for _, src := range existing {
		if src.CaseID == caseID && filepath.Clean(src.BasePath) == abs {
			return nil, stats, fmt.Errorf("%s already linked to case %s: %w", abs, caseID, domain.ErrAlreadyExists)
		}
	}

	source := domain.LinkedSource{
		LinkID:    domain.NewLinkID(),
		CaseID:    caseID,
		BasePath:  abs,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sources.Save(ctx, source); err != nil {
		return nil, stats, &domain.StoreError{Op: "save linked source", Cause: err}
	}
	logger.Info("linked %s to case %s as %s", abs, caseID, source.LinkID)

	stats, err = s.reconciler.ReconcileSource(ctx, source.LinkID)
	if err != nil {
		return &source, stats, err
	}

	if fresh, err := s.sources.Get(ctx, source.LinkID); err == nil {
		source = *fresh
	}
	return &source, stats, nil
}

// Unlink removes every document of the binding, their chunks and the binding
// itself. Returns domain.ErrNotFound when nothing is known about linkID.
func (s *LinkService) Unlink(ctx context.Context, linkID domain.LinkID) error {
	_, srcErr := s.sources.Get(ctx, linkID)
	if srcErr != nil && !errors.Is(srcErr, domain.ErrNotFound) {
		return &domain.StoreError{Op: "get linked source", Cause: srcErr}
	}

	docs, err := s.docs.ListByLink(ctx, linkID)
	if err != nil {
		return &domain.StoreError{Op: "list linked documents", Cause: err}
	}
	if srcErr != nil && len(docs) == 0 {
		return fmt.Errorf("link %s: %w", linkID, domain.ErrNotFound)
	}

	for _, doc := range docs {
		if err := s.indexer.DeleteDocumentIndex(ctx, doc.ID); err != nil {
			return err
		}
		if err := s.docs.Delete(ctx, doc.ID); err != nil {
			return &domain.StoreError{Op: "delete document", Cause: err}
		}
	}

	if srcErr == nil {
		if err := s.sources.Delete(ctx, linkID); err != nil {
			return &domain.StoreError{Op: "delete linked source", Cause: err}
		}
	}

	logger.Info("unlinked %s (%d documents removed)", linkID, len(docs))
	return nil
}

// List returns all bindings.
func (s *LinkService) List(ctx context.Context) ([]domain.LinkedSource, error) {
	return s.sources.List(ctx)
}
