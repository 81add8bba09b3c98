// Package services implements the driving port interfaces.
// Services contain the core business logic: the indexing pipeline, the
// linked directory reconciler and the scheduler that drives it. They only
// talk to storage, extraction and embedding through driven ports.
package services
