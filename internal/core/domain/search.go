package domain

// SearchOptions configures a similarity search.
type SearchOptions struct {
	// CaseID restricts results to one case when set.
	CaseID *CaseID

	// TopK is the maximum number of results. Zero means the configured default.
	TopK int

	// MinSimilarity discards results scoring below it. Nil means the
	// configured default.
	MinSimilarity *float64
}

// IndexRequest asks the indexing pipeline to index one document's text.
type IndexRequest struct {
	DocumentID   DocumentID
	CaseID       CaseID
	Text         string
	ForceReindex bool
}

// IndexResult reports the outcome of an index request.
type IndexResult struct {
	// ChunksCreated is how many chunks were persisted by this call.
	ChunksCreated int

	// TotalChunks is how many chunks the chunker produced, or the existing
	// count when AlreadyIndexed is true.
	TotalChunks int

	EmbeddingModel string

	// AlreadyIndexed is true when the call was a no-op because chunks
	// already existed and ForceReindex was false.
	AlreadyIndexed bool
}

// Partial reports whether some chunks were skipped.
func (r *IndexResult) Partial() bool {
	return !r.AlreadyIndexed && r.ChunksCreated < r.TotalChunks
}
