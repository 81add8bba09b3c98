package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/casesync/internal/core/domain"
)

// Reconciler mirrors linked directories into document records.
type Reconciler interface {
	// ReconcileAll runs one tick over every linked directory.
	ReconcileAll(ctx context.Context) (domain.ReconcileStats, error)

	// ReconcileSource runs one tick over a single linked directory.
	ReconcileSource(ctx context.Context, linkID domain.LinkID) (domain.ReconcileStats, error)

	// Status returns the outcome of the most recent tick.
	Status() ReconcileStatus
}

// ReconcileStatus describes the most recent reconciliation tick.
type ReconcileStatus struct {
	// Running indicates a tick is in progress.
	Running bool

	// LastRun is when the last tick finished. Zero if none has run.
	LastRun time.Time

	// LastStats are the counters of the last finished tick.
	LastStats domain.ReconcileStats

	// LastError is the whole-tick error of the last tick, if any.
	LastError string
}
