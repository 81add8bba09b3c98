package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/casesync/internal/adapters/driven/lock"
	"github.com/custodia-labs/casesync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/casesync/internal/core/domain"
	"github.com/custodia-labs/casesync/internal/core/services"
)

func TestServeCmd_Use(t *testing.T) {
	assert.Equal(t, "serve", serveCmd.Use)
	assert.Contains(t, serveCmd.Long, "Model Context Protocol")
}

func TestServeCmd_HasFlags(t *testing.T) {
	port := serveCmd.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "p", port.Shorthand)
	assert.Equal(t, "0", port.DefValue)

	assert.NotNil(t, serveCmd.Flags().Lookup("no-mcp"))
	assert.NotNil(t, serveCmd.Flags().Lookup("no-watch"))

	debounce := serveCmd.Flags().Lookup("debounce")
	require.NotNil(t, debounce)
	assert.Equal(t, "2s", debounce.DefValue)
}

func TestServeCmd_RunsInBackground(t *testing.T) {
	assert.True(t, annotated(serveCmd, annotationBackground))
}

func TestServeCmd_RequiresScheduler(t *testing.T) {
	setupTestRuntime(t, &Runtime{Indexing: &mockIndexing{}})

	_, _, err := execute(t, "serve", "--no-mcp")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler not configured")
}

func TestServeCmd_BackgroundOnly(t *testing.T) {
	reconciler := &mockReconciler{}
	scheduler := services.NewScheduler(domain.ReconcilerSettings{Enabled: false}, nil, reconciler)
	setupTestRuntime(t, &Runtime{
		Ephemeral: true,
		Indexing:  &mockIndexing{},
		Scheduler: scheduler,
	})

	// A disabled scheduler returns at once, so serve does too.
	_, stderr, err := execute(t, "serve", "--no-mcp", "--no-watch")

	require.NoError(t, err)
	assert.Contains(t, stderr, "Background reconciliation running")
	assert.Zero(t, reconciler.allCalls)
}

func TestServeCmd_StopsOnCancel(t *testing.T) {
	reconciler := &mockReconciler{}
	scheduler := services.NewScheduler(domain.ReconcilerSettings{Enabled: true, Interval: time.Hour}, nil, reconciler)
	queue := services.NewIndexQueue(&mockIndexing{}, 4)
	setupTestRuntime(t, &Runtime{
		Ephemeral: true,
		Indexing:  &mockIndexing{},
		Sources:   memory.NewLinkedSourceStore(),
		Scheduler: scheduler,
		Queue:     queue,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(200*time.Millisecond, cancel)
	serveCmd.SetContext(ctx)
	t.Cleanup(func() { serveCmd.SetContext(context.Background()) })

	_, _, err := execute(t, "serve", "--no-mcp")

	require.NoError(t, err)
	assert.GreaterOrEqual(t, reconciler.allCalls, 1)
	assert.ErrorIs(t, queue.Enqueue(domain.IndexRequest{DocumentID: "d1"}), domain.ErrQueueClosed)
}

func TestServeCmd_SecondInstanceLocked(t *testing.T) {
	dir := t.TempDir()
	held, err := lock.Acquire(dir)
	require.NoError(t, err)
	defer held.Release()

	scheduler := services.NewScheduler(domain.ReconcilerSettings{Enabled: false}, nil, &mockReconciler{})
	setupTestRuntime(t, &Runtime{
		DataDir:   dir,
		Indexing:  &mockIndexing{},
		Scheduler: scheduler,
	})

	_, _, err = execute(t, "serve", "--no-mcp", "--no-watch")

	assert.ErrorIs(t, err, lock.ErrLocked)
}
