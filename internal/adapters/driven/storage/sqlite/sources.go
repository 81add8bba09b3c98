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

// ==================== Linked Source Store ====================

// linkedSourceStore implements driven.LinkedSourceStore.
type linkedSourceStore struct {
	store *Store
}

var _ driven.LinkedSourceStore = (*linkedSourceStore)(nil)

// Save stores or updates a linked source.
func (s *linkedSourceStore) Save(ctx context.Context, source domain.LinkedSource) error {
	if source.LinkID == "" {
		return domain.ErrInvalidInput
	}
	if source.CreatedAt.IsZero() {
		source.CreatedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO linked_sources (link_id, case_id, base_path, last_sync_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(link_id) DO UPDATE SET
			case_id = excluded.case_id,
			base_path = excluded.base_path,
			last_sync_at = excluded.last_sync_at
	`, string(source.LinkID), string(source.CaseID), source.BasePath,
		formatNullableTime(source.LastSyncAt), formatTime(source.CreatedAt))
	if err != nil {
		return fmt.Errorf("saving linked source: %w", err)
	}
	return nil
}

// Get retrieves a linked source by link id.
func (s *linkedSourceStore) Get(ctx context.Context, linkID domain.LinkID) (*domain.LinkedSource, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT link_id, case_id, base_path, last_sync_at, created_at
		FROM linked_sources WHERE link_id = ?
	`, string(linkID))
	return scanLinkedSource(row)
}

// List returns all linked sources ordered by creation time.
func (s *linkedSourceStore) List(ctx context.Context) ([]domain.LinkedSource, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT link_id, case_id, base_path, last_sync_at, created_at
		FROM linked_sources ORDER BY created_at, link_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying linked sources: %w", err)
	}
	defer rows.Close()

	sources := make([]domain.LinkedSource, 0)
	for rows.Next() {
		src, err := scanLinkedSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, *src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating linked sources: %w", err)
	}
	return sources, nil
}

// TouchSync updates LastSyncAt.
func (s *linkedSourceStore) TouchSync(ctx context.Context, linkID domain.LinkID, at time.Time) error {
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE linked_sources SET last_sync_at = ? WHERE link_id = ?", formatTime(at), string(linkID))
	if err != nil {
		return fmt.Errorf("touching linked source: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a linked source.
func (s *linkedSourceStore) Delete(ctx context.Context, linkID domain.LinkID) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM linked_sources WHERE link_id = ?", string(linkID))
	if err != nil {
		return fmt.Errorf("deleting linked source: %w", err)
	}
	return nil
}

func scanLinkedSource(row rowScanner) (*domain.LinkedSource, error) {
	var src domain.LinkedSource
	var linkID, caseID, createdAt string
	var lastSync sql.NullString

	if err := row.Scan(&linkID, &caseID, &src.BasePath, &lastSync, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning linked source: %w", err)
	}

	src.LinkID = domain.LinkID(linkID)
	src.CaseID = domain.CaseID(caseID)
	src.LastSyncAt = parseNullableTime(lastSync)
	src.CreatedAt = parseTime(createdAt)
	return &src, nil
}
