package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/casesync/internal/core/domain"
	"github.com/custodia-labs/casesync/internal/core/ports/driven"
	"github.com/custodia-labs/casesync/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService handles uploaded documents.
type DocumentService struct {
	docStore  driven.DocumentStore
	extractor driven.ContentExtractor
	indexer   driving.Indexer
}

// NewDocumentService creates a new document service. indexer is either the
// pipeline itself or an IndexQueue in front of it.
func NewDocumentService(
	docStore driven.DocumentStore,
	extractor driven.ContentExtractor,
	indexer driving.Indexer,
) *DocumentService {
	return &DocumentService{
		docStore:  docStore,
		extractor: extractor,
		indexer:   indexer,
	}
}

// Upload extracts a file, records it under caseID and indexes its text.
// Files without usable content are recorded but not indexed; the returned
// IndexResult is nil in that case.
func (s *DocumentService) Upload(
	ctx context.Context,
	caseID domain.CaseID,
	path string,
) (*domain.Document, *domain.IndexResult, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if !info.Mode().IsRegular() {
		return nil, nil, fmt.Errorf("%w: %s is not a regular file", domain.ErrInvalidInput, abs)
	}

	text, err := s.extractor.Extract(ctx, abs)
	if err != nil {
		return nil, nil, &domain.ExtractionError{Path: abs, Cause: err}
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:            domain.NewDocumentID(),
		CaseID:        caseID,
		Filename:      filepath.Base(abs),
		FilePath:      abs,
		SourceType:    domain.SourceUpload,
		ExtractedText: &text,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.docStore.Create(ctx, doc); err != nil {
		return nil, nil, &domain.StoreError{Op: "create document", Cause: err}
	}

	if domain.IsPlaceholder(text) {
		return doc, nil, nil
	}

	result, err := s.indexer.IndexDocument(ctx, domain.IndexRequest{
		DocumentID: doc.ID,
		CaseID:     caseID,
		Text:       text,
	})
	if err != nil {
		return doc, result, err
	}

	if fresh, err := s.docStore.Get(ctx, doc.ID); err == nil {
		doc = fresh
	}
	return doc, result, nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, id domain.DocumentID) (*domain.Document, error) {
	return s.docStore.Get(ctx, id)
}

// ListByCase returns the documents of a case.
func (s *DocumentService) ListByCase(ctx context.Context, caseID domain.CaseID) ([]domain.Document, error) {
	return s.docStore.ListByCase(ctx, caseID)
}

// Reindex discards a document's chunks and indexes its stored text again.
func (s *DocumentService) Reindex(ctx context.Context, id domain.DocumentID) (*domain.IndexResult, error) {
	doc, err := s.docStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if domain.IsPlaceholder(doc.Text()) {
		return nil, fmt.Errorf("reindex %s: %w", id, domain.ErrEmptyContent)
	}

	return s.indexer.IndexDocument(ctx, domain.IndexRequest{
		DocumentID:   doc.ID,
		CaseID:       doc.CaseID,
		Text:         doc.Text(),
		ForceReindex: true,
	})
}

// Delete removes the document's chunks and then the document.
func (s *DocumentService) Delete(ctx context.Context, id domain.DocumentID) error {
	if err := s.indexer.DeleteDocumentIndex(ctx, id); err != nil {
		return err
	}
	if err := s.docStore.Delete(ctx, id); err != nil {
		return &domain.StoreError{Op: "delete document", Cause: err}
	}
	return nil
}
