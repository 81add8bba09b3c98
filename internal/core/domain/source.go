package domain

import (
	"path/filepath"
	"time"
)

// LinkedSource is a directory bound to a case. Documents scanned from it
// share its LinkID.
type LinkedSource struct {
	// LinkID is the opaque id shared by every document from this binding.
	LinkID LinkID

	// CaseID is the case the directory was bound to.
	CaseID CaseID

	// BasePath is the root directory on disk.
	BasePath string

	// LastSyncAt is when the reconciler last finished this directory.
	// Zero until the first successful scan.
	LastSyncAt time.Time

	// CreatedAt is when the directory was bound.
	CreatedAt time.Time
}

// DisplayName returns the directory name for listings.
func (s *LinkedSource) DisplayName() string {
	return filepath.Base(s.BasePath)
}

// ReconcileStats holds the counters produced by a reconciliation tick.
type ReconcileStats struct {
	Added     int
	Updated   int
	Removed   int
	Unchanged int
	Errors    int
}

// Add sums other into s.
func (s *ReconcileStats) Add(other ReconcileStats) {
	s.Added += other.Added
	s.Updated += other.Updated
	s.Removed += other.Removed
	s.Unchanged += other.Unchanged
	s.Errors += other.Errors
}

// Changed reports whether anything other than Unchanged is non-zero.
func (s ReconcileStats) Changed() bool {
	return s.Added+s.Updated+s.Removed+s.Errors > 0
}

// IsZero reports whether every counter is zero.
func (s ReconcileStats) IsZero() bool {
	return !s.Changed() && s.Unchanged == 0
}
