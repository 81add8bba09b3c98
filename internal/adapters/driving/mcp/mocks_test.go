package mcp

import (
	"context"

	"github.com/custodia-labs/casesync/internal/core/domain"
	"github.com/custodia-labs/casesync/internal/core/ports/driving"
)

// mockIndexing is a mock implementation of driving.IndexingPipeline.
type mockIndexing struct {
	hits      []domain.SearchHit
	stats     domain.IndexStats
	err       error
	lastQuery string
	lastOpts  domain.SearchOptions
	lastCase  *domain.CaseID
}

func (m *mockIndexing) IndexDocument(_ context.Context, _ domain.IndexRequest) (*domain.IndexResult, error) {
	return &domain.IndexResult{}, m.err
}

func (m *mockIndexing) DeleteDocumentIndex(_ context.Context, _ domain.DocumentID) error {
	return m.err
}

func (m *mockIndexing) SearchSimilar(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.SearchHit, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.hits, m.err
}

func (m *mockIndexing) GetIndexStats(_ context.Context, caseID *domain.CaseID) (domain.IndexStats, error) {
	m.lastCase = caseID
	return m.stats, m.err
}

// mockReconciler is a mock implementation of driving.Reconciler.
type mockReconciler struct {
	stats      domain.ReconcileStats
	err        error
	allCalls   int
	sourceArgs []domain.LinkID
}

func (m *mockReconciler) ReconcileAll(_ context.Context) (domain.ReconcileStats, error) {
	m.allCalls++
	return m.stats, m.err
}

func (m *mockReconciler) ReconcileSource(_ context.Context, linkID domain.LinkID) (domain.ReconcileStats, error) {
	m.sourceArgs = append(m.sourceArgs, linkID)
	return m.stats, m.err
}

func (m *mockReconciler) Status() driving.ReconcileStatus {
	return driving.ReconcileStatus{LastStats: m.stats}
}

// mockLinks is a mock implementation of driving.LinkService.
type mockLinks struct {
	sources []domain.LinkedSource
	err     error
}

func (m *mockLinks) Link(
	_ context.Context,
	_ domain.CaseID,
	_ string,
) (*domain.LinkedSource, domain.ReconcileStats, error) {
	return nil, domain.ReconcileStats{}, m.err
}

func (m *mockLinks) Unlink(_ context.Context, _ domain.LinkID) error {
	return m.err
}

func (m *mockLinks) List(_ context.Context) ([]domain.LinkedSource, error) {
	return m.sources, m.err
}

// mockDocuments is a mock implementation of driving.DocumentService.
type mockDocuments struct {
	documents []domain.Document
	document  *domain.Document
	err       error
	listedFor domain.CaseID
	fetched   domain.DocumentID
}

func (m *mockDocuments) Upload(
	_ context.Context,
	_ domain.CaseID,
	_ string,
) (*domain.Document, *domain.IndexResult, error) {
	return m.document, nil, m.err
}

func (m *mockDocuments) Get(_ context.Context, id domain.DocumentID) (*domain.Document, error) {
	m.fetched = id
	return m.document, m.err
}

func (m *mockDocuments) ListByCase(_ context.Context, caseID domain.CaseID) ([]domain.Document, error) {
	m.listedFor = caseID
	return m.documents, m.err
}

func (m *mockDocuments) Reindex(_ context.Context, _ domain.DocumentID) (*domain.IndexResult, error) {
	return nil, m.err
}

func (m *mockDocuments) Delete(_ context.Context, _ domain.DocumentID) error {
	return m.err
}

var (
	_ driving.IndexingPipeline = (*mockIndexing)(nil)
	_ driving.Reconciler       = (*mockReconciler)(nil)
	_ driving.LinkService      = (*mockLinks)(nil)
	_ driving.DocumentService  = (*mockDocuments)(nil)
)
