package driven

import "context"

// ContentExtractor turns a file on disk into plain text.
//
// Extract must be idempotent and free of side effects. A result for which
// domain.IsPlaceholder returns true means "no usable content"; callers skip
// indexing for it. An error means extraction failed and may be retried later.
type ContentExtractor interface {
	// Extract returns the text content of the file at path.
	Extract(ctx context.Context, path string) (string, error)

	// Supports reports whether the extractor handles the file's type.
	// The reconciler only tracks supported files.
	Supports(path string) bool
}
