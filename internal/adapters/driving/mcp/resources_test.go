package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/casesync/internal/core/domain"
)

func TestExtractCaseID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid case documents URI",
			uri:      "casesync://cases/c-123/documents",
			expected: "c-123",
		},
		{
			name:     "invalid prefix",
			uri:      "file://cases/c-123/documents",
			expected: "",
		},
		{
			name:     "missing documents suffix",
			uri:      "casesync://cases/c-123",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractCaseID(tt.uri))
		})
	}
}

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid document URI",
			uri:      "casesync://documents/doc-456",
			expected: "doc-456",
		},
		{
			name:     "invalid prefix",
			uri:      "file:///documents/doc-456",
			expected: "",
		},
		{
			name:     "no id",
			uri:      "casesync://documents/",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractDocumentID(tt.uri))
		})
	}
}

func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleSourcesResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil link service returns empty list", func(t *testing.T) {
		server := newTestServer(t, &Ports{Indexing: &mockIndexing{}})

		result, err := server.handleSourcesResource(ctx, makeReadResourceRequest("casesync://sources"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns linked directories", func(t *testing.T) {
		links := &mockLinks{sources: []domain.LinkedSource{
			{
				LinkID:     "l-1",
				CaseID:     "c-1",
				BasePath:   "/srv/cases/acme",
				LastSyncAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			},
			{LinkID: "l-2", CaseID: "c-2", BasePath: "/srv/cases/globex"},
		}}
		server := newTestServer(t, &Ports{Indexing: &mockIndexing{}, Links: links})

		result, err := server.handleSourcesResource(ctx, makeReadResourceRequest("casesync://sources"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		text := result.Contents[0].Text
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, text, `"link_id": "l-1"`)
		assert.Contains(t, text, `"name": "acme"`)
		assert.Contains(t, text, `"base_path": "/srv/cases/acme"`)
		assert.Contains(t, text, `"last_sync_at": "2026-03-01T12:00:00Z"`)
		assert.Contains(t, text, `"case_id": "c-2"`)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		links := &mockLinks{err: errors.New("database error")}
		server := newTestServer(t, &Ports{Indexing: &mockIndexing{}, Links: links})

		_, err := server.handleSourcesResource(ctx, makeReadResourceRequest("casesync://sources"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing sources")
	})
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil document service is not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Indexing: &mockIndexing{}})

		_, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("casesync://cases/c-1/documents"))

		require.Error(t, err)
	})

	t.Run("malformed URI is not found", func(t *testing.T) {
		docs := &mockDocuments{}
		server := newTestServer(t, &Ports{Indexing: &mockIndexing{}, Documents: docs})

		_, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("casesync://cases/c-1"))

		require.Error(t, err)
		assert.Empty(t, docs.listedFor)
	})

	t.Run("lists documents of a case", func(t *testing.T) {
		docs := &mockDocuments{documents: []domain.Document{
			{ID: "d-1", CaseID: "c-1", Filename: "lease.pdf", FilePath: "/srv/lease.pdf", SourceType: domain.SourceLinked, Indexed: true},
			{ID: "d-2", CaseID: "c-1", Filename: "memo.txt", FilePath: "/tmp/memo.txt", SourceType: domain.SourceUpload},
		}}
		server := newTestServer(t, &Ports{Indexing: &mockIndexing{}, Documents: docs})

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("casesync://cases/c-1/documents"))

		require.NoError(t, err)
		assert.Equal(t, domain.CaseID("c-1"), docs.listedFor)
		require.Len(t, result.Contents, 1)
		text := result.Contents[0].Text
		assert.Contains(t, text, `"id": "d-1"`)
		assert.Contains(t, text, `"source_type": "linked"`)
		assert.Contains(t, text, `"indexed": true`)
		assert.Contains(t, text, `"filename": "memo.txt"`)
		assert.Contains(t, text, `"source_type": "upload"`)
	})

	t.Run("case prefix is stripped", func(t *testing.T) {
		docs := &mockDocuments{}
		server := newTestServer(t, &Ports{Indexing: &mockIndexing{}, Documents: docs})

		_, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("casesync://cases/case:c-1/documents"))

		require.NoError(t, err)
		assert.Equal(t, domain.CaseID("c-1"), docs.listedFor)
	})

	t.Run("bare case prefix is not found", func(t *testing.T) {
		docs := &mockDocuments{}
		server := newTestServer(t, &Ports{Indexing: &mockIndexing{}, Documents: docs})

		_, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("casesync://cases/case:/documents"))

		require.Error(t, err)
		assert.Empty(t, docs.listedFor)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		docs := &mockDocuments{err: errors.New("database error")}
		server := newTestServer(t, &Ports{Indexing: &mockIndexing{}, Documents: docs})

		_, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("casesync://cases/c-1/documents"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing documents")
	})
}

func TestServer_handleDocumentContentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns extracted text", func(t *testing.T) {
		text := "The tenant shall pay rent monthly."
		docs := &mockDocuments{document: &domain.Document{ID: "d-1", ExtractedText: &text}}
		server := newTestServer(t, &Ports{Indexing: &mockIndexing{}, Documents: docs})

		result, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("casesync://documents/d-1"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, text, result.Contents[0].Text)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
		assert.Equal(t, "casesync://documents/d-1", result.Contents[0].URI)
	})

	t.Run("document prefix is stripped", func(t *testing.T) {
		docs := &mockDocuments{document: &domain.Document{ID: "d-1"}}
		server := newTestServer(t, &Ports{Indexing: &mockIndexing{}, Documents: docs})

		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("casesync://documents/document:d-1"))

		require.NoError(t, err)
		assert.Equal(t, domain.DocumentID("d-1"), docs.fetched)
	})

	t.Run("document without text is empty", func(t *testing.T) {
		docs := &mockDocuments{document: &domain.Document{ID: "d-1"}}
		server := newTestServer(t, &Ports{Indexing: &mockIndexing{}, Documents: docs})

		result, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("casesync://documents/d-1"))

		require.NoError(t, err)
		assert.Empty(t, result.Contents[0].Text)
	})

	t.Run("returns error when document is missing", func(t *testing.T) {
		docs := &mockDocuments{err: domain.ErrNotFound}
		server := newTestServer(t, &Ports{Indexing: &mockIndexing{}, Documents: docs})

		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("casesync://documents/d-9"))

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("empty id is not found", func(t *testing.T) {
		docs := &mockDocuments{}
		server := newTestServer(t, &Ports{Indexing: &mockIndexing{}, Documents: docs})

		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("casesync://documents/"))

		require.Error(t, err)
	})
}
