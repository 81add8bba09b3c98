package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/casesync/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for casesync resources.
	uriScheme = "casesync://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sources",
		Name:        "sources",
		Description: "Directories linked to cases",
		MIMEType:    "application/json",
	}, s.handleSourcesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "cases/{caseId}/documents",
		Name:        "case-documents",
		Description: "Documents that belong to a case",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document-content",
		Description: "Extracted text of a document",
		MIMEType:    "text/plain",
	}, s.handleDocumentContentResource)
}

// handleSourcesResource returns all linked directories.
func (s *Server) handleSourcesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Links == nil {
		return jsonResult(req.Params.URI, []struct{}{})
	}

	sources, err := s.ports.Links.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}

	type sourceInfo struct {
		LinkID     string `json:"link_id"`
		CaseID     string `json:"case_id"`
		Name       string `json:"name"`
		BasePath   string `json:"base_path"`
		LastSyncAt string `json:"last_sync_at,omitempty"`
	}

	infos := make([]sourceInfo, len(sources))
	for i := range sources {
		infos[i] = sourceInfo{
			LinkID:   sources[i].LinkID.String(),
			CaseID:   sources[i].CaseID.String(),
			Name:     sources[i].DisplayName(),
			BasePath: sources[i].BasePath,
		}
		if !sources[i].LastSyncAt.IsZero() {
			infos[i].LastSyncAt = sources[i].LastSyncAt.Format(time.RFC3339)
		}
	}
	return jsonResult(req.Params.URI, infos)
}

// handleDocumentsResource returns the documents of one case.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Documents == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	caseID, err := domain.ParseCaseID(extractCaseID(req.Params.URI))
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docs, err := s.ports.Documents.ListByCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	type docInfo struct {
		ID         string `json:"id"`
		Filename   string `json:"filename"`
		Path       string `json:"path"`
		SourceType string `json:"source_type"`
		Indexed    bool   `json:"indexed"`
	}

	infos := make([]docInfo, len(docs))
	for i := range docs {
		infos[i] = docInfo{
			ID:         docs[i].ID.String(),
			Filename:   docs[i].Filename,
			Path:       docs[i].FilePath,
			SourceType: string(docs[i].SourceType),
			Indexed:    docs[i].Indexed,
		}
	}
	return jsonResult(req.Params.URI, infos)
}

// handleDocumentContentResource returns the extracted text of a document.
func (s *Server) handleDocumentContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Documents == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docID, err := domain.ParseDocumentID(extractDocumentID(req.Params.URI))
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Documents.Get(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     doc.Text(),
		}},
	}, nil
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractCaseID extracts the case ID from a URI like casesync://cases/{caseId}/documents.
func extractCaseID(uri string) string {
	const prefix = uriScheme + "cases/"
	const suffix = "/documents"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}

// extractDocumentID extracts the document ID from a URI like casesync://documents/{documentId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
