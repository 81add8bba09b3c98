// Package domain defines the core business entities for casesync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded or linked file mirrored into the store
//   - Chunk: An embedded word window of a document's text
//   - LinkedSource: A directory bound to a case and scanned periodically
//   - IndexStats / ReconcileStats: Derived counters reported to callers
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
