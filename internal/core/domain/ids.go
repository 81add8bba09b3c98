package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DocumentID identifies a Document. It is constructed once at the boundary
// and passed through unchanged.
type DocumentID string

// CaseID identifies the case (scope) that owns documents and chunks.
type CaseID string

// LinkID groups every document discovered under one linked directory.
type LinkID string

// Record prefixes some storage drivers put in front of ids ("document:abc").
const (
	documentPrefix = "document:"
	casePrefix     = "case:"
	linkPrefix     = "link:"
)

// ParseDocumentID normalises a raw document id. A single table prefix is
// stripped; empty ids are rejected.
func ParseDocumentID(raw string) (DocumentID, error) {
	id, err := parseID(raw, documentPrefix)
	if err != nil {
		return "", fmt.Errorf("document id: %w", err)
	}
	return DocumentID(id), nil
}

// ParseCaseID normalises a raw case id.
func ParseCaseID(raw string) (CaseID, error) {
	id, err := parseID(raw, casePrefix)
	if err != nil {
		return "", fmt.Errorf("case id: %w", err)
	}
	return CaseID(id), nil
}

// ParseLinkID normalises a raw link id.
func ParseLinkID(raw string) (LinkID, error) {
	id, err := parseID(raw, linkPrefix)
	if err != nil {
		return "", fmt.Errorf("link id: %w", err)
	}
	return LinkID(id), nil
}

func parseID(raw, prefix string) (string, error) {
	id := strings.TrimSpace(raw)
	id = strings.TrimPrefix(id, prefix)
	if id == "" {
		return "", ErrInvalidInput
	}
	return id, nil
}

// String returns the id as a plain string.
func (id DocumentID) String() string { return string(id) }

// String returns the id as a plain string.
func (id CaseID) String() string { return string(id) }

// String returns the id as a plain string.
func (id LinkID) String() string { return string(id) }

// NewDocumentID mints a fresh document id.
func NewDocumentID() DocumentID { return DocumentID(uuid.New().String()) }

// NewLinkID mints a fresh link id for a directory binding.
func NewLinkID() LinkID { return LinkID(uuid.New().String()) }
