package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/casesync/internal/core/domain"
	"github.com/custodia-labs/casesync/internal/core/ports/driven"
	"github.com/custodia-labs/casesync/internal/core/ports/driving"
	"github.com/custodia-labs/casesync/internal/logger"
)

// historyLimit is the number of task results kept per task.
const historyLimit = 100

// Verify interface compliance.
var _ driving.Scheduler = (*Scheduler)(nil)

// TickHook is called after every reconciliation tick.
type TickHook func(ctx context.Context, result domain.TaskResult)

// Scheduler runs the reconciler on a fixed interval in one background loop.
// A tick always finishes before the next one is considered, so ticks never
// overlap. Whole-tick failures are logged and the loop carries on.
type Scheduler struct {
	settings   domain.ReconcilerSettings
	store      driven.SchedulerStore
	reconciler driving.Reconciler
	hooks      []TickHook

	nudgeCh chan struct{}

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler. store may be nil, in which case task
// state and history are not persisted.
func NewScheduler(
	settings domain.ReconcilerSettings,
	store driven.SchedulerStore,
	reconciler driving.Reconciler,
) *Scheduler {
	return &Scheduler{
		settings:   settings,
		store:      store,
		reconciler: reconciler,
		nudgeCh:    make(chan struct{}, 1),
	}
}

// OnTick registers a hook run after each tick. Must be called before Start.
func (s *Scheduler) OnTick(hook TickHook) {
	s.hooks = append(s.hooks, hook)
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	if !s.settings.Enabled {
		s.mu.Unlock()
		logger.Info("scheduler: reconciliation disabled")
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	task, err := s.initialiseTask(ctx)
	if err != nil {
		logger.Warn("scheduler: failed to initialise task: %v", err)
	}

	return s.run(ctx, task)
}

// Stop gracefully shuts down the scheduler, waiting for a running tick.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Nudge requests an early tick. Nudges arriving while one is pending are
// merged.
func (s *Scheduler) Nudge() {
	select {
	case s.nudgeCh <- struct{}{}:
	default:
	}
}

// initialiseTask loads or creates the persisted task state.
func (s *Scheduler) initialiseTask(ctx context.Context) (*domain.ScheduledTask, error) {
	interval := s.settings.EffectiveInterval()
	fresh := &domain.ScheduledTask{
		ID:       domain.TaskIDLinkedSync,
		Name:     "Linked Directory Sync",
		Interval: interval,
		Enabled:  true,
	}
	if s.store == nil {
		return fresh, nil
	}

	task, err := s.store.GetTask(ctx, domain.TaskIDLinkedSync)
	if err != nil {
		return fresh, err
	}
	if task == nil {
		task = fresh
	} else if task.Interval != interval {
		task.Interval = interval
		// Recalculate next run from now
		task.NextRun = time.Time{}
	}
	task.Enabled = true

	return task, s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop. An overdue task runs immediately.
func (s *Scheduler) run(ctx context.Context, task *domain.ScheduledTask) error {
	wait := time.Duration(0)
	if !task.NextRun.IsZero() {
		wait = time.Until(task.NextRun)
		if wait < 0 {
			wait = 0
		}
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-timer.C:
		case <-s.nudgeCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		s.tick(ctx, task)
		timer.Reset(task.Interval)
	}
}

// tick runs one reconciliation and records its outcome.
func (s *Scheduler) tick(ctx context.Context, task *domain.ScheduledTask) {
	result := domain.TaskResult{
		TaskID:    task.ID,
		StartedAt: time.Now(),
	}

	stats, err := s.reconcile(ctx)
	result.EndedAt = time.Now()
	result.Stats = stats

	if err != nil {
		result.Success = false
		result.Error = err.Error()
		task.LastError = err.Error()
		logger.Error("scheduler: reconcile failed: %v", err)
	} else {
		result.Success = true
		task.LastError = ""
		task.LastSuccess = result.EndedAt
	}

	task.LastRun = result.StartedAt
	task.NextRun = result.EndedAt.Add(task.Interval)

	if s.store != nil {
		if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
			logger.Warn("scheduler: failed to save task %s: %v", task.ID, saveErr)
		}
		if recordErr := s.store.RecordResult(ctx, &result); recordErr != nil {
			logger.Warn("scheduler: failed to record result for %s: %v", task.ID, recordErr)
		}
		if pruneErr := s.store.PruneHistory(ctx, historyLimit); pruneErr != nil {
			logger.Warn("scheduler: failed to prune history: %v", pruneErr)
		}
	}

	for _, hook := range s.hooks {
		hook(ctx, result)
	}
}

// reconcile shields the loop from a panicking tick.
func (s *Scheduler) reconcile(ctx context.Context) (stats domain.ReconcileStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reconcile panicked: %v", r)
		}
	}()
	return s.reconciler.ReconcileAll(ctx)
}
