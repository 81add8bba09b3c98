package domain

import (
	"strings"
	"time"
)

// SourceType records how a document entered the system.
type SourceType string

const (
	// SourceUpload is a file the user uploaded. The upload flow owns it.
	SourceUpload SourceType = "upload"

	// SourceLinked is a file observed in a linked directory. The reconciler
	// owns its lifecycle.
	SourceLinked SourceType = "linked"
)

// IsValid returns true if the source type is recognised.
func (t SourceType) IsValid() bool {
	return t == SourceUpload || t == SourceLinked
}

// PlaceholderPrefix marks extractor output that carries no usable content.
const PlaceholderPrefix = "[no-content:"

// PlaceholderText builds a placeholder string for a file that could not be
// turned into text.
func PlaceholderText(reason, filename string) string {
	return PlaceholderPrefix + reason + "] " + filename
}

// IsPlaceholder reports whether extracted text is empty or a placeholder.
func IsPlaceholder(text string) bool {
	trimmed := strings.TrimSpace(text)
	return trimmed == "" || strings.HasPrefix(trimmed, PlaceholderPrefix)
}

// LinkedFile is the linked-source metadata stored on a linked Document.
type LinkedFile struct {
	// AbsolutePath is the file location on disk. Unique within LinkID.
	AbsolutePath string

	// RelativePath is AbsolutePath relative to BasePath.
	RelativePath string

	// BasePath is the root of the linked directory.
	BasePath string

	// LinkID groups documents from one bind operation.
	LinkID LinkID

	// SourceHash is the hex SHA-256 of the file content at last sync.
	SourceHash string

	// SourceMtime is the file modification time at last sync.
	SourceMtime time.Time

	// LastSync is when the reconciler last wrote this record.
	LastSync time.Time
}

// Document is one unit of content, either uploaded or linked.
type Document struct {
	// ID is the unique identifier for the document.
	ID DocumentID

	// CaseID is the owning scope.
	CaseID CaseID

	// Filename is the base name shown to users.
	Filename string

	// FilePath is the absolute path on disk.
	FilePath string

	// SourceType is upload or linked.
	SourceType SourceType

	// Linked is set only when SourceType is SourceLinked.
	Linked *LinkedFile

	// ExtractedText is the text produced by the content extractor, if any.
	ExtractedText *string

	// Indexed is true once at least one chunk has been stored.
	Indexed bool

	// CreatedAt is when the record was created.
	CreatedAt time.Time

	// UpdatedAt is when the record was last modified.
	UpdatedAt time.Time
}

// IsLinked returns true for documents owned by the reconciler.
func (d *Document) IsLinked() bool {
	return d.SourceType == SourceLinked && d.Linked != nil
}

// Text returns the extracted text or an empty string.
func (d *Document) Text() string {
	if d.ExtractedText == nil {
		return ""
	}
	return *d.ExtractedText
}

// DocumentUpdate carries the fields the reconciler merges into an existing
// document after a content change. Nil fields are left untouched.
type DocumentUpdate struct {
	Linked        *LinkedFile
	ExtractedText *string
	Indexed       *bool
}

// Chunk is the atomic indexed unit. (DocumentID, Index) is unique.
type Chunk struct {
	// DocumentID links to the parent Document.
	DocumentID DocumentID

	// CaseID is copied from the document so searches can be scoped.
	CaseID CaseID

	// Index is the 0-based position in the chunker output.
	Index int

	// Text is the chunk content.
	Text string

	// Embedding is the vector for Text.
	Embedding []float32

	// EmbeddingModel names the model that produced Embedding.
	EmbeddingModel string

	// EmbeddingDimensions is len(Embedding) as reported by the provider.
	EmbeddingDimensions int

	// WordCount is the number of words in Text.
	WordCount int

	// CreatedAt is when the chunk row was written.
	CreatedAt time.Time
}

// ScoredChunk is a chunk returned by a similarity query.
type ScoredChunk struct {
	Chunk
	Similarity float64
}

// SearchHit is one ranked result of a similarity search.
type SearchHit struct {
	DocumentID      DocumentID
	ChunkIndex      int
	ChunkText       string
	SimilarityScore float64
	WordCount       int
}

// IndexStats is derived, never persisted.
type IndexStats struct {
	// CaseID is set when the stats were scoped to one case.
	CaseID *CaseID

	TotalChunks         int
	EmbeddingModel      string
	EmbeddingDimensions int
}
