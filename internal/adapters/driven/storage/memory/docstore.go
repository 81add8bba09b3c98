package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/casesync/internal/core/domain"
	"github.com/custodia-labs/casesync/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Documents are copied in and out so callers never share state with the store.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[domain.DocumentID]domain.Document
	seq       map[domain.DocumentID]int
	next      int
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[domain.DocumentID]domain.Document),
		seq:       make(map[domain.DocumentID]int),
	}
}

func cloneDocument(doc domain.Document) domain.Document {
	if doc.Linked != nil {
		linked := *doc.Linked
		doc.Linked = &linked
	}
	if doc.ExtractedText != nil {
		text := *doc.ExtractedText
		doc.ExtractedText = &text
	}
	return doc
}

// Create stores a new document.
func (s *DocumentStore) Create(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[doc.ID]; exists {
		return domain.ErrAlreadyExists
	}
	s.documents[doc.ID] = cloneDocument(*doc)
	s.seq[doc.ID] = s.next
	s.next++
	return nil
}

// Merge applies the non-nil fields of update.
func (s *DocumentStore) Merge(_ context.Context, id domain.DocumentID, update domain.DocumentUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	if update.Linked != nil {
		linked := *update.Linked
		doc.Linked = &linked
		doc.FilePath = linked.AbsolutePath
	}
	if update.ExtractedText != nil {
		text := *update.ExtractedText
		doc.ExtractedText = &text
	}
	if update.Indexed != nil {
		doc.Indexed = *update.Indexed
	}
	doc.UpdatedAt = time.Now().UTC()
	s.documents[id] = doc
	return nil
}

// SetIndexed updates the indexed flag.
func (s *DocumentStore) SetIndexed(_ context.Context, id domain.DocumentID, indexed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Indexed = indexed
	s.documents[id] = doc
	return nil
}

// Get retrieves a document by ID.
func (s *DocumentStore) Get(_ context.Context, id domain.DocumentID) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneDocument(doc)
	return &out, nil
}

// Delete removes a document.
func (s *DocumentStore) Delete(_ context.Context, id domain.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	delete(s.seq, id)
	return nil
}

// ListLinked returns all linked documents in creation order.
func (s *DocumentStore) ListLinked(_ context.Context) ([]domain.Document, error) {
	return s.list(func(d domain.Document) bool { return d.SourceType == domain.SourceLinked }), nil
}

// ListByCase returns the documents of a case in creation order.
func (s *DocumentStore) ListByCase(_ context.Context, caseID domain.CaseID) ([]domain.Document, error) {
	return s.list(func(d domain.Document) bool { return d.CaseID == caseID }), nil
}

// ListByLink returns the linked documents sharing linkID.
func (s *DocumentStore) ListByLink(_ context.Context, linkID domain.LinkID) ([]domain.Document, error) {
	return s.list(func(d domain.Document) bool {
		return d.Linked != nil && d.Linked.LinkID == linkID
	}), nil
}

func (s *DocumentStore) list(keep func(domain.Document) bool) []domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Document, 0)
	for _, doc := range s.documents {
		if keep(doc) {
			result = append(result, cloneDocument(doc))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return s.seq[result[i].ID] < s.seq[result[j].ID]
	})
	return result
}

// Count returns the number of stored documents.
func (s *DocumentStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}
