// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentStore: Document record persistence (create/merge/delete/query)
//   - IndexStore: Chunk rows and cosine similarity queries
//   - LinkedSourceStore: Linked directory bindings
//   - ContentExtractor: File path to plain text
//   - EmbeddingProvider: Text to vector
//
// # Optional Interfaces
//
//   - SchedulerStore: Task state and run history. Without it the scheduler
//     keeps state in memory only.
//   - ConfigStore: Persisted configuration. Without it defaults are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
