// Package sqlite provides a unified SQLite-based implementation of the
// casesync storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. One database connection backs:
//
//   - DocumentStore: uploaded and linked document records
//   - IndexStore: chunk rows with float32 embeddings stored as BLOBs
//   - LinkedSourceStore: linked directory bindings
//   - SchedulerStore: reconciliation task state and history
//
// # Similarity
//
// Cosine similarity runs inside SQLite through the cosine_similarity scalar
// function registered with the driver. Equal scores are ordered by chunk row
// id, which is insertion order.
//
// # Schema
//
// The schema is managed through versioned migrations in migrations/. Each
// migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.casesync/data/casesync.db
//
// # Thread Safety
//
// All operations are thread-safe. The store relies on SQLite's own locking in
// WAL mode and issues no transactions spanning multiple chunk writes.
package sqlite
