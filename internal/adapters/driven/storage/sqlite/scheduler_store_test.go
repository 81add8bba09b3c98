package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/casesync/internal/core/domain"
)

// ==================== SchedulerStore Tests ====================

func TestSchedulerStore_SaveAndGetTask(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	schedulerStore := store.SchedulerStore()

	now := time.Now().UTC()
	task := &domain.ScheduledTask{
		ID:          domain.TaskIDLinkedSync,
		Name:        "Linked Directory Sync",
		Interval:    5 * time.Minute,
		LastRun:     now.Add(-5 * time.Minute),
		NextRun:     now,
		LastSuccess: now.Add(-5 * time.Minute),
		Enabled:     true,
	}
	require.NoError(t, schedulerStore.SaveTask(ctx, task))

	retrieved, err := schedulerStore.GetTask(ctx, domain.TaskIDLinkedSync)
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	assert.Equal(t, task.Name, retrieved.Name)
	assert.Equal(t, task.Interval, retrieved.Interval)
	assert.True(t, retrieved.Enabled)
	assert.Empty(t, retrieved.LastError)
	assert.True(t, task.NextRun.Equal(retrieved.NextRun))
	assert.True(t, task.LastRun.Equal(retrieved.LastRun))
}

func TestSchedulerStore_GetTask_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	task, err := store.SchedulerStore().GetTask(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, task)
}

func TestSchedulerStore_SaveTask_Update(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	schedulerStore := store.SchedulerStore()

	task := &domain.ScheduledTask{ID: "t", Name: "Task", Interval: time.Minute, Enabled: true}
	require.NoError(t, schedulerStore.SaveTask(ctx, task))

	task.LastError = "scan failed"
	task.Enabled = false
	require.NoError(t, schedulerStore.SaveTask(ctx, task))

	retrieved, err := schedulerStore.GetTask(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, "scan failed", retrieved.LastError)
	assert.False(t, retrieved.Enabled)
	assert.True(t, retrieved.LastRun.IsZero())
}

func TestSchedulerStore_NilInputs(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	assert.ErrorIs(t, store.SchedulerStore().SaveTask(ctx, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.SchedulerStore().RecordResult(ctx, nil), domain.ErrInvalidInput)
}

func TestSchedulerStore_RecordResultAndHistory(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	schedulerStore := store.SchedulerStore()

	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		errMsg := ""
		if i == 1 {
			errMsg = "boom"
		}
		require.NoError(t, schedulerStore.RecordResult(ctx, &domain.TaskResult{
			TaskID:    domain.TaskIDLinkedSync,
			StartedAt: base.Add(time.Duration(i) * 100 * time.Millisecond),
			EndedAt:   base.Add(time.Duration(i)*100*time.Millisecond + 50*time.Millisecond),
			Success:   errMsg == "",
			Error:     errMsg,
			Stats:     domain.ReconcileStats{Added: i, Updated: 1, Removed: 2, Unchanged: 3, Errors: 4},
		}))
	}
	require.NoError(t, schedulerStore.RecordResult(ctx, &domain.TaskResult{
		TaskID: "other", StartedAt: base, EndedAt: base, Success: true,
	}))

	history, err := schedulerStore.GetTaskHistory(ctx, domain.TaskIDLinkedSync, 10)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, 2, history[0].Stats.Added)
	assert.Equal(t, 1, history[1].Stats.Added)
	assert.Equal(t, 0, history[2].Stats.Added)
	assert.False(t, history[1].Success)
	assert.Equal(t, "boom", history[1].Error)
	assert.Equal(t, domain.ReconcileStats{Added: 2, Updated: 1, Removed: 2, Unchanged: 3, Errors: 4}, history[0].Stats)
	assert.Equal(t, 50*time.Millisecond, history[0].Duration())

	limited, err := schedulerStore.GetTaskHistory(ctx, domain.TaskIDLinkedSync, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, 2, limited[0].Stats.Added)
}

func TestSchedulerStore_GetTaskHistory_Empty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	history, err := store.SchedulerStore().GetTaskHistory(context.Background(), "none", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSchedulerStore_PruneHistory(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	schedulerStore := store.SchedulerStore()

	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		for _, taskID := range []string{"a", "b"} {
			require.NoError(t, schedulerStore.RecordResult(ctx, &domain.TaskResult{
				TaskID:    taskID,
				StartedAt: base.Add(time.Duration(i) * time.Minute),
				EndedAt:   base.Add(time.Duration(i) * time.Minute),
				Success:   true,
				Stats:     domain.ReconcileStats{Unchanged: i},
			}))
		}
	}

	require.NoError(t, schedulerStore.PruneHistory(ctx, 2))

	for _, taskID := range []string{"a", "b"} {
		history, err := schedulerStore.GetTaskHistory(ctx, taskID, 10)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, 4, history[0].Stats.Unchanged)
		assert.Equal(t, 3, history[1].Stats.Unchanged)
	}
}
