package cli

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/casesync/internal/core/domain"
	"github.com/custodia-labs/casesync/internal/core/ports/driving"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// --- Mock implementations for command testing ---

type mockIndexing struct {
	hits     []domain.SearchHit
	stats    domain.IndexStats
	err      error
	query    string
	opts     domain.SearchOptions
	statCase *domain.CaseID
}

func (m *mockIndexing) IndexDocument(_ context.Context, _ domain.IndexRequest) (*domain.IndexResult, error) {
	return &domain.IndexResult{}, m.err
}

func (m *mockIndexing) DeleteDocumentIndex(_ context.Context, _ domain.DocumentID) error {
	return m.err
}

func (m *mockIndexing) SearchSimilar(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchHit, error) {
	m.query = query
	m.opts = opts
	return m.hits, m.err
}

func (m *mockIndexing) GetIndexStats(_ context.Context, caseID *domain.CaseID) (domain.IndexStats, error) {
	m.statCase = caseID
	return m.stats, m.err
}

type mockReconciler struct {
	stats    domain.ReconcileStats
	status   driving.ReconcileStatus
	err      error
	allCalls int
	linkIDs  []domain.LinkID
}

func (m *mockReconciler) ReconcileAll(_ context.Context) (domain.ReconcileStats, error) {
	m.allCalls++
	return m.stats, m.err
}

func (m *mockReconciler) ReconcileSource(_ context.Context, linkID domain.LinkID) (domain.ReconcileStats, error) {
	m.linkIDs = append(m.linkIDs, linkID)
	return m.stats, m.err
}

func (m *mockReconciler) Status() driving.ReconcileStatus {
	return m.status
}

type mockLinks struct {
	sources  []domain.LinkedSource
	stats    domain.ReconcileStats
	err      error
	linked   []string
	unlinked []domain.LinkID
}

func (m *mockLinks) Link(_ context.Context, caseID domain.CaseID, dir string) (*domain.LinkedSource, domain.ReconcileStats, error) {
	if m.err != nil {
		return nil, domain.ReconcileStats{}, m.err
	}
	m.linked = append(m.linked, caseID.String()+"="+dir)
	return &domain.LinkedSource{LinkID: "l-1", CaseID: caseID, BasePath: dir}, m.stats, nil
}

func (m *mockLinks) Unlink(_ context.Context, linkID domain.LinkID) error {
	m.unlinked = append(m.unlinked, linkID)
	return m.err
}

func (m *mockLinks) List(_ context.Context) ([]domain.LinkedSource, error) {
	return m.sources, m.err
}

// uploadOutcome scripts the result of one Upload call.
type uploadOutcome struct {
	doc    *domain.Document
	result *domain.IndexResult
	err    error
}

type mockDocuments struct {
	uploads   map[string]uploadOutcome
	documents []domain.Document
	document  *domain.Document
	reindex   *domain.IndexResult
	err       error
	deleted   []domain.DocumentID
}

func (m *mockDocuments) Upload(_ context.Context, _ domain.CaseID, path string) (*domain.Document, *domain.IndexResult, error) {
	o := m.uploads[path]
	return o.doc, o.result, o.err
}

func (m *mockDocuments) Get(_ context.Context, _ domain.DocumentID) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocuments) ListByCase(_ context.Context, _ domain.CaseID) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocuments) Reindex(_ context.Context, _ domain.DocumentID) (*domain.IndexResult, error) {
	return m.reindex, m.err
}

func (m *mockDocuments) Delete(_ context.Context, id domain.DocumentID) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

// setupTestRuntime installs r for the duration of the test.
func setupTestRuntime(t *testing.T, r *Runtime) {
	t.Helper()
	SetRuntime(r)
	t.Cleanup(func() { SetRuntime(nil) })
}

// resetFlags restores every flag of c and its children to its default so
// tests do not leak flag values into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() {
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
	})

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}
