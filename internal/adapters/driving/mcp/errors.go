// Package mcp provides an MCP (Model Context Protocol) server adapter for
// casesync. It lets AI assistants run similarity search over case documents,
// inspect the index and trigger a reconciliation pass.
package mcp

import "errors"

// ErrMissingIndexing is returned when the indexing pipeline is not provided.
var ErrMissingIndexing = errors.New("mcp: indexing pipeline is required")

// ErrReconcilerUnavailable is returned by the reconcile tool when no
// reconciler is wired.
var ErrReconcilerUnavailable = errors.New("mcp: reconciler is not configured")
