package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/casesync/internal/core/domain"
)

// SearchInput is the input schema for the search_similar tool.
type SearchInput struct {
	Query         string   `json:"query" jsonschema:"the text to find similar passages for"`
	CaseID        string   `json:"case_id,omitempty" jsonschema:"restrict results to one case"`
	TopK          int      `json:"top_k,omitempty" jsonschema:"maximum number of results (default from settings)"`
	MinSimilarity *float64 `json:"min_similarity,omitempty" jsonschema:"cosine similarity threshold between -1 and 1"`
}

// SearchOutput is the output schema for the search_similar tool.
type SearchOutput struct {
	Results []SearchHitOutput `json:"results"`
	Count   int               `json:"count"`
}

// SearchHitOutput represents a single ranked passage.
type SearchHitOutput struct {
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
	WordCount  int     `json:"word_count"`
}

// StatsInput is the input schema for the index_stats tool.
type StatsInput struct {
	CaseID string `json:"case_id,omitempty" jsonschema:"restrict stats to one case"`
}

// StatsOutput is the output schema for the index_stats tool.
type StatsOutput struct {
	CaseID              string `json:"case_id,omitempty"`
	TotalChunks         int    `json:"total_chunks"`
	EmbeddingModel      string `json:"embedding_model"`
	EmbeddingDimensions int    `json:"embedding_dimensions"`
}

// ReconcileInput is the input schema for the reconcile tool.
type ReconcileInput struct {
	LinkID string `json:"link_id,omitempty" jsonschema:"reconcile only this linked directory"`
}

// ReconcileOutput is the output schema for the reconcile tool.
type ReconcileOutput struct {
	Added      int    `json:"added"`
	Updated    int    `json:"updated"`
	Removed    int    `json:"removed"`
	Unchanged  int    `json:"unchanged"`
	Errors     int    `json:"errors"`
	DurationMs int64  `json:"duration_ms"`
	LinkID     string `json:"link_id,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_similar",
		Description: "Find passages in case documents that are semantically similar to a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_stats",
		Description: "Report how many chunks are indexed and which embedding model produced them",
	}, s.handleStats)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reconcile",
		Description: "Rescan linked directories now and mirror added, changed and removed files",
	}, s.handleReconcile)
}

// handleSearch handles the search_similar tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{
		TopK:          input.TopK,
		MinSimilarity: input.MinSimilarity,
	}
	if input.CaseID != "" {
		caseID, err := domain.ParseCaseID(input.CaseID)
		if err != nil {
			return nil, SearchOutput{}, err
		}
		opts.CaseID = &caseID
	}

	hits, err := s.ports.Indexing.SearchSimilar(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchHitOutput, len(hits)),
		Count:   len(hits),
	}
	for i := range hits {
		output.Results[i] = SearchHitOutput{
			DocumentID: hits[i].DocumentID.String(),
			ChunkIndex: hits[i].ChunkIndex,
			Text:       hits[i].ChunkText,
			Similarity: hits[i].SimilarityScore,
			WordCount:  hits[i].WordCount,
		}
	}
	return nil, output, nil
}

// handleStats handles the index_stats tool invocation.
func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	var caseID *domain.CaseID
	if input.CaseID != "" {
		id, err := domain.ParseCaseID(input.CaseID)
		if err != nil {
			return nil, StatsOutput{}, err
		}
		caseID = &id
	}

	stats, err := s.ports.Indexing.GetIndexStats(ctx, caseID)
	if err != nil {
		return nil, StatsOutput{}, err
	}

	output := StatsOutput{
		TotalChunks:         stats.TotalChunks,
		EmbeddingModel:      stats.EmbeddingModel,
		EmbeddingDimensions: stats.EmbeddingDimensions,
	}
	if stats.CaseID != nil {
		output.CaseID = stats.CaseID.String()
	}
	return nil, output, nil
}

// handleReconcile handles the reconcile tool invocation.
func (s *Server) handleReconcile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReconcileInput,
) (*mcp.CallToolResult, ReconcileOutput, error) {
	if s.ports.Reconciler == nil {
		return nil, ReconcileOutput{}, ErrReconcilerUnavailable
	}

	start := time.Now()
	var (
		stats domain.ReconcileStats
		err   error
	)
	if input.LinkID != "" {
		linkID, perr := domain.ParseLinkID(input.LinkID)
		if perr != nil {
			return nil, ReconcileOutput{}, perr
		}
		stats, err = s.ports.Reconciler.ReconcileSource(ctx, linkID)
	} else {
		stats, err = s.ports.Reconciler.ReconcileAll(ctx)
	}
	if err != nil {
		return nil, ReconcileOutput{}, fmt.Errorf("reconcile: %w", err)
	}

	return nil, ReconcileOutput{
		Added:      stats.Added,
		Updated:    stats.Updated,
		Removed:    stats.Removed,
		Unchanged:  stats.Unchanged,
		Errors:     stats.Errors,
		DurationMs: time.Since(start).Milliseconds(),
		LinkID:     input.LinkID,
	}, nil
}
