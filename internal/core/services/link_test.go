package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/casesync/internal/core/domain"
)

func newLinkFixture(t *testing.T) (*LinkService, *reconcilerFixture) {
	t.Helper()
	f := newReconcilerFixture(t)
	return NewLinkService(f.sources, f.docs, f.indexer, f.reconciler), f
}

func TestLinkService_LinkRunsFirstScan(t *testing.T) {
	svc, f := newLinkFixture(t)
	writeFile(t, filepath.Join(f.dir, "a.txt"), "contract signed")
	writeFile(t, filepath.Join(f.dir, "b.txt"), "invoice paid")

	source, stats, err := svc.Link(context.Background(), "c1", f.dir)
	require.NoError(t, err)
	require.NotNil(t, source)
	assert.NotEmpty(t, source.LinkID)
	assert.Equal(t, domain.CaseID("c1"), source.CaseID)
	assert.Equal(t, f.dir, source.BasePath)
	assert.False(t, source.LastSyncAt.IsZero())
	assert.Equal(t, domain.ReconcileStats{Added: 2}, stats)

	docs, err := f.docs.ListByLink(context.Background(), source.LinkID)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, source.LinkID, list[0].LinkID)
}

func TestLinkService_LinkDuplicate(t *testing.T) {
	svc, f := newLinkFixture(t)

	_, _, err := svc.Link(context.Background(), "c1", f.dir)
	require.NoError(t, err)

	_, _, err = svc.Link(context.Background(), "c1", f.dir+string(filepath.Separator))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	// The same directory may back another case.
	_, _, err = svc.Link(context.Background(), "c2", f.dir)
	assert.NoError(t, err)
}

func TestLinkService_LinkInvalidPath(t *testing.T) {
	svc, f := newLinkFixture(t)

	_, _, err := svc.Link(context.Background(), "c1", filepath.Join(f.dir, "missing"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	file := filepath.Join(f.dir, "a.txt")
	writeFile(t, file, "contract")
	_, _, err = svc.Link(context.Background(), "c1", file)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestLinkService_Unlink(t *testing.T) {
	svc, f := newLinkFixture(t)
	ctx := context.Background()
	writeFile(t, filepath.Join(f.dir, "a.txt"), "contract signed")

	source, _, err := svc.Link(ctx, "c1", f.dir)
	require.NoError(t, err)
	doc := f.docByName(t, "a.txt")
	require.NotNil(t, doc)
	require.NotEmpty(t, f.index.ChunksForDocument(doc.ID))

	require.NoError(t, svc.Unlink(ctx, source.LinkID))

	_, err = f.docs.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.index.ChunksForDocument(doc.ID))
	_, err = f.sources.Get(ctx, source.LinkID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Later ticks leave the directory alone.
	stats, err := f.reconciler.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.True(t, stats.IsZero())
}

func TestLinkService_UnlinkUnknown(t *testing.T) {
	svc, _ := newLinkFixture(t)

	err := svc.Unlink(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLinkService_UnlinkDocumentsWithoutSource(t *testing.T) {
	svc, f := newLinkFixture(t)
	ctx := context.Background()
	path := filepath.Join(f.dir, "a.txt")
	writeFile(t, path, "contract")

	require.NoError(t, f.docs.Create(ctx, &domain.Document{
		ID:         "d1",
		CaseID:     "c1",
		Filename:   "a.txt",
		FilePath:   path,
		SourceType: domain.SourceLinked,
		Linked:     &domain.LinkedFile{AbsolutePath: path, LinkID: "orphan"},
	}))

	require.NoError(t, svc.Unlink(ctx, "orphan"))
	_, err := f.docs.Get(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
