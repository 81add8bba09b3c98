package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/casesync/internal/core/domain"
)

func sampleDocuments() []domain.Document {
	return []domain.Document{
		{
			ID:         "d-1",
			CaseID:     "c1",
			Filename:   "lease.txt",
			FilePath:   "/srv/acme/lease.txt",
			SourceType: domain.SourceLinked,
			Linked:     &domain.LinkedFile{LinkID: "l-1", RelativePath: "lease.txt", SourceHash: "abc123"},
			Indexed:    true,
		},
		{
			ID:         "d-2",
			CaseID:     "c1",
			Filename:   "memo.txt",
			FilePath:   "/tmp/memo.txt",
			SourceType: domain.SourceUpload,
		},
	}
}

func TestDocsCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range docsCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["list"])
	assert.True(t, names["show"])
	assert.True(t, names["reindex"])
	assert.True(t, names["rm"])
}

func TestDocsListCmd_Lists(t *testing.T) {
	setupTestRuntime(t, &Runtime{Documents: &mockDocuments{documents: sampleDocuments()}})

	out, _, err := execute(t, "docs", "list", "c1")

	require.NoError(t, err)
	assert.Contains(t, out, "Documents for case c1:")
	assert.Contains(t, out, "d-1  lease.txt [linked, indexed]")
	assert.Contains(t, out, "d-2  memo.txt [upload, not indexed]")
}

func TestDocsListCmd_Empty(t *testing.T) {
	setupTestRuntime(t, &Runtime{Documents: &mockDocuments{}})

	out, _, err := execute(t, "docs", "list", "c1")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents for case c1.")
}

func TestDocsListCmd_JSON(t *testing.T) {
	setupTestRuntime(t, &Runtime{Documents: &mockDocuments{documents: sampleDocuments()}})

	out, _, err := execute(t, "docs", "list", "--json", "c1")

	require.NoError(t, err)
	var got []documentJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "l-1", got[0].LinkID)
	assert.True(t, got[0].Indexed)
	assert.Empty(t, got[1].LinkID)
	assert.Equal(t, "upload", got[1].SourceType)
}

func TestDocsShowCmd_Shows(t *testing.T) {
	text := "the tenant shall pay rent"
	doc := sampleDocuments()[0]
	doc.ExtractedText = &text
	setupTestRuntime(t, &Runtime{Documents: &mockDocuments{document: &doc}})

	out, _, err := execute(t, "docs", "show", "document:d-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Document: d-1")
	assert.Contains(t, out, "Link:     l-1")
	assert.Contains(t, out, "Hash:     abc123")
	assert.Contains(t, out, "Indexed:  true")
	assert.NotContains(t, out, text)
}

func TestDocsShowCmd_Text(t *testing.T) {
	text := "the tenant shall pay rent"
	doc := sampleDocuments()[1]
	doc.ExtractedText = &text
	setupTestRuntime(t, &Runtime{Documents: &mockDocuments{document: &doc}})

	out, _, err := execute(t, "docs", "show", "--text", "d-2")

	require.NoError(t, err)
	assert.Contains(t, out, text)
	assert.NotContains(t, out, "Link:")
}

func TestDocsShowCmd_Placeholder(t *testing.T) {
	text := domain.PlaceholderText("unsupported", "scan.bin")
	doc := sampleDocuments()[1]
	doc.ExtractedText = &text
	setupTestRuntime(t, &Runtime{Documents: &mockDocuments{document: &doc}})

	out, _, err := execute(t, "docs", "show", "d-2")

	require.NoError(t, err)
	assert.Contains(t, out, "Content:  "+text)
}

func TestDocsShowCmd_NotFound(t *testing.T) {
	setupTestRuntime(t, &Runtime{Documents: &mockDocuments{err: domain.ErrNotFound}})

	_, _, err := execute(t, "docs", "show", "d-9")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocsReindexCmd(t *testing.T) {
	t.Run("reindexed", func(t *testing.T) {
		setupTestRuntime(t, &Runtime{Documents: &mockDocuments{reindex: &domain.IndexResult{ChunksCreated: 4}}})

		out, _, err := execute(t, "docs", "reindex", "d-1")

		require.NoError(t, err)
		assert.Contains(t, out, "Document d-1 reindexed: 4 chunks")
	})

	t.Run("nothing stored", func(t *testing.T) {
		setupTestRuntime(t, &Runtime{Documents: &mockDocuments{reindex: &domain.IndexResult{}}})

		out, _, err := execute(t, "docs", "reindex", "d-1")

		require.NoError(t, err)
		assert.Contains(t, out, "was not indexed")
	})

	t.Run("empty content", func(t *testing.T) {
		setupTestRuntime(t, &Runtime{Documents: &mockDocuments{err: domain.ErrEmptyContent}})

		_, _, err := execute(t, "docs", "reindex", "d-1")

		assert.ErrorIs(t, err, domain.ErrEmptyContent)
	})
}

func TestDocsRemoveCmd(t *testing.T) {
	docs := &mockDocuments{}
	setupTestRuntime(t, &Runtime{Documents: docs})

	out, _, err := execute(t, "docs", "rm", "d-1")

	require.NoError(t, err)
	assert.Equal(t, []domain.DocumentID{"d-1"}, docs.deleted)
	assert.Contains(t, out, "Document d-1 removed.")
}

func TestDocsCmd_NotConfigured(t *testing.T) {
	setupTestRuntime(t, &Runtime{})

	_, _, err := execute(t, "docs", "list", "c1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "document service not configured")
}
