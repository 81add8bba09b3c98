package driving

import "context"

// Scheduler runs the reconciliation loop in the background.
type Scheduler interface {
	// Start begins running scheduled ticks.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Nudge asks for an early tick. Multiple nudges before the tick starts
	// collapse into one.
	Nudge()

	// Stop gracefully stops the loop, waiting for a running tick to finish.
	Stop() error
}
