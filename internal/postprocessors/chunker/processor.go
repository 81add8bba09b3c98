// Package chunker splits document text into overlapping word windows.
package chunker

import (
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/casesync/internal/core/domain"
)

// DefaultChunkSize is the default number of words per chunk.
const DefaultChunkSize = domain.DefaultChunkSizeWords

// DefaultChunkOverlap is the default number of words shared by consecutive chunks.
const DefaultChunkOverlap = domain.DefaultChunkOverlapWords

// Processor splits text into windows of chunkSize words, each window starting
// chunkSize-overlap words after the previous one. It holds no state beyond its
// configuration and is safe for concurrent use.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in words.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in words.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a new chunker processor with the given options.
// It fails with domain.ErrInvalidConfig unless 0 <= overlap < chunkSize.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfig, p.chunkSize)
	}
	if p.overlap < 0 || p.overlap >= p.chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", domain.ErrInvalidConfig, p.overlap, p.chunkSize)
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured window size in words.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the configured overlap in words.
func (p *Processor) Overlap() int { return p.overlap }

// Split returns the chunk texts for text. Words are separated by any run of
// whitespace and rejoined with single spaces. Empty input yields no chunks.
// The last window may be shorter than the chunk size.
func (p *Processor) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := p.chunkSize - p.overlap
	chunks := make([]string, 0, len(words)/step+1)

	for start := 0; ; start += step {
		end := start + p.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}

	return chunks
}

// Chunks builds chunk rows for a document. Embedding fields are left empty;
// Index follows the Split order.
func (p *Processor) Chunks(documentID domain.DocumentID, caseID domain.CaseID, text string) []domain.Chunk {
	texts := p.Split(text)
	chunks := make([]domain.Chunk, 0, len(texts))
	now := time.Now().UTC()

	for i, t := range texts {
		chunks = append(chunks, domain.Chunk{
			DocumentID: documentID,
			CaseID:     caseID,
			Index:      i,
			Text:       t,
			WordCount:  CountWords(t),
			CreatedAt:  now,
		})
	}

	return chunks
}

// CountWords returns the number of whitespace-separated words in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
