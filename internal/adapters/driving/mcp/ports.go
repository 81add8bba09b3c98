package mcp

import (
	"github.com/custodia-labs/casesync/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces used by the MCP server.
type Ports struct {
	// Indexing serves similarity search and index stats. Required.
	Indexing driving.IndexingPipeline

	// Reconciler backs the reconcile tool.
	Reconciler driving.Reconciler

	// Links lists linked directories.
	Links driving.LinkService

	// Documents lists and reads case documents.
	Documents driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Indexing == nil {
		return ErrMissingIndexing
	}
	return nil
}
