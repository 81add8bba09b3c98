package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/casesync/internal/core/domain"
	"github.com/custodia-labs/casesync/internal/core/ports/driven"
)

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, case_id, filename, file_path, source_type,
	link_id, absolute_path, relative_path, base_path, source_hash, source_mtime, last_sync,
	extracted_text, indexed, created_at, updated_at`

// Create stores a new document.
func (s *documentStore) Create(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = now
	}

	var linkID, absPath, relPath, basePath, hash, mtime, lastSync any
	if l := doc.Linked; l != nil {
		linkID = string(l.LinkID)
		absPath = l.AbsolutePath
		relPath = l.RelativePath
		basePath = l.BasePath
		hash = nullString(l.SourceHash)
		mtime = formatNullableTime(l.SourceMtime)
		lastSync = formatNullableTime(l.LastSync)
	}

	var text any
	if doc.ExtractedText != nil {
		text = *doc.ExtractedText
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, string(doc.ID), string(doc.CaseID), doc.Filename, doc.FilePath, string(doc.SourceType),
		linkID, absPath, relPath, basePath, hash, mtime, lastSync,
		text, boolToInt(doc.Indexed), formatTime(doc.CreatedAt), formatTime(doc.UpdatedAt))

	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("creating document: %w", err)
	}
	return nil
}

// Merge applies the non-nil fields of update.
func (s *documentStore) Merge(ctx context.Context, id domain.DocumentID, update domain.DocumentUpdate) error {
	sets := "updated_at = ?"
	args := []any{formatTime(time.Now())}

	if l := update.Linked; l != nil {
		sets += `, link_id = ?, absolute_path = ?, relative_path = ?, base_path = ?,
			source_hash = ?, source_mtime = ?, last_sync = ?, file_path = ?`
		args = append(args, string(l.LinkID), l.AbsolutePath, l.RelativePath, l.BasePath,
			nullString(l.SourceHash), formatNullableTime(l.SourceMtime), formatNullableTime(l.LastSync),
			l.AbsolutePath)
	}
	if update.ExtractedText != nil {
		sets += ", extracted_text = ?"
		args = append(args, *update.ExtractedText)
	}
	if update.Indexed != nil {
		sets += ", indexed = ?"
		args = append(args, boolToInt(*update.Indexed))
	}
	args = append(args, string(id))

	res, err := s.store.db.ExecContext(ctx, "UPDATE documents SET "+sets+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("merging document: %w", err)
	}
	return requireAffected(res)
}

// SetIndexed updates the indexed flag.
func (s *documentStore) SetIndexed(ctx context.Context, id domain.DocumentID, indexed bool) error {
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE documents SET indexed = ? WHERE id = ?", boolToInt(indexed), string(id))
	if err != nil {
		return fmt.Errorf("setting indexed: %w", err)
	}
	return requireAffected(res)
}

// Get retrieves a document by ID.
func (s *documentStore) Get(ctx context.Context, id domain.DocumentID) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", string(id))
	return scanDocument(row)
}

// Delete removes a document.
func (s *documentStore) Delete(ctx context.Context, id domain.DocumentID) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", string(id))
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ListLinked returns every linked document in creation order.
func (s *documentStore) ListLinked(ctx context.Context) ([]domain.Document, error) {
	return s.query(ctx, "WHERE source_type = ?", string(domain.SourceLinked))
}

// ListByCase returns the documents of a case in creation order.
func (s *documentStore) ListByCase(ctx context.Context, caseID domain.CaseID) ([]domain.Document, error) {
	return s.query(ctx, "WHERE case_id = ?", string(caseID))
}

// ListByLink returns the linked documents sharing linkID.
func (s *documentStore) ListByLink(ctx context.Context, linkID domain.LinkID) ([]domain.Document, error) {
	return s.query(ctx, "WHERE link_id = ?", string(linkID))
}

func (s *documentStore) query(ctx context.Context, where string, args ...any) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents "+where+" ORDER BY rowid", args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// scanDocument scans one document row.
func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var id, caseID, sourceType string
	var linkID, absPath, relPath, basePath, hash, mtime, lastSync, text sql.NullString
	var indexed int
	var createdAt, updatedAt string

	if err := row.Scan(&id, &caseID, &doc.Filename, &doc.FilePath, &sourceType,
		&linkID, &absPath, &relPath, &basePath, &hash, &mtime, &lastSync,
		&text, &indexed, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.ID = domain.DocumentID(id)
	doc.CaseID = domain.CaseID(caseID)
	doc.SourceType = domain.SourceType(sourceType)
	doc.Indexed = indexed == 1
	doc.CreatedAt = parseTime(createdAt)
	doc.UpdatedAt = parseTime(updatedAt)

	if text.Valid {
		t := text.String
		doc.ExtractedText = &t
	}

	if linkID.Valid {
		doc.Linked = &domain.LinkedFile{
			AbsolutePath: absPath.String,
			RelativePath: relPath.String,
			BasePath:     basePath.String,
			LinkID:       domain.LinkID(linkID.String),
			SourceHash:   hash.String,
			SourceMtime:  parseNullableTime(mtime),
			LastSync:     parseNullableTime(lastSync),
		}
	}

	return &doc, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
