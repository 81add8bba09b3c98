package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/casesync/internal/core/domain"
	"github.com/custodia-labs/casesync/internal/core/ports/driving"
	"github.com/custodia-labs/casesync/internal/logger"
)

// DefaultQueueCapacity is the job buffer size used when none is given.
const DefaultQueueCapacity = 256

// Verify interface compliance.
var _ driving.Indexer = (*IndexQueue)(nil)

type jobKind int

const (
	jobIndex jobKind = iota
	jobDelete
)

type indexJob struct {
	kind jobKind
	ctx  context.Context
	req  domain.IndexRequest
	done chan indexOutcome
}

type indexOutcome struct {
	result *domain.IndexResult
	err    error
}

// IndexQueue serialises index and delete requests through a single worker.
//
// The reconciler and the upload path both submit here, so jobs for the same
// document run in submission order and never interleave. The queue itself
// implements driving.Indexer and can be passed wherever the pipeline is.
type IndexQueue struct {
	indexer driving.Indexer
	jobs    chan indexJob

	quit     chan struct{}
	stopped  chan struct{}
	quitOnce sync.Once
	runOnce  sync.Once
}

// NewIndexQueue creates a queue in front of indexer. Run must be called to
// start the worker.
func NewIndexQueue(indexer driving.Indexer, capacity int) *IndexQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &IndexQueue{
		indexer: indexer,
		jobs:    make(chan indexJob, capacity),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Run consumes jobs until ctx is cancelled or Close is called. Jobs still
// buffered at that point fail with domain.ErrQueueClosed.
func (q *IndexQueue) Run(ctx context.Context) error {
	started := false
	q.runOnce.Do(func() { started = true })
	if !started {
		return nil
	}
	defer close(q.stopped)
	defer q.Close()

	for {
		// Shutdown wins over buffered work.
		select {
		case <-ctx.Done():
			q.drain()
			return ctx.Err()
		case <-q.quit:
			q.drain()
			return nil
		default:
		}

		select {
		case <-ctx.Done():
			q.drain()
			return ctx.Err()
		case <-q.quit:
			q.drain()
			return nil
		case job := <-q.jobs:
			q.process(ctx, job)
		}
	}
}

func (q *IndexQueue) process(workerCtx context.Context, job indexJob) {
	ctx := job.ctx
	if ctx == nil {
		ctx = workerCtx
	}

	var out indexOutcome
	switch job.kind {
	case jobIndex:
		out.result, out.err = q.indexer.IndexDocument(ctx, job.req)
	case jobDelete:
		out.err = q.indexer.DeleteDocumentIndex(ctx, job.req.DocumentID)
	}

	if job.done != nil {
		job.done <- out
	} else if out.err != nil {
		logger.Warn("index queue: document %s: %v", job.req.DocumentID, out.err)
	}
}

func (q *IndexQueue) drain() {
	for {
		select {
		case job := <-q.jobs:
			if job.done != nil {
				job.done <- indexOutcome{err: domain.ErrQueueClosed}
			}
		default:
			return
		}
	}
}

// Close stops accepting jobs. It does not wait for the worker.
func (q *IndexQueue) Close() {
	q.quitOnce.Do(func() { close(q.quit) })
}

// Pending returns the number of buffered jobs.
func (q *IndexQueue) Pending() int {
	return len(q.jobs)
}

// Submit queues an index request and waits for its result.
func (q *IndexQueue) Submit(ctx context.Context, req domain.IndexRequest) (*domain.IndexResult, error) {
	out, err := q.submitAndWait(ctx, indexJob{kind: jobIndex, ctx: ctx, req: req})
	if err != nil {
		return nil, err
	}
	return out.result, out.err
}

// IndexDocument is Submit under the driving.Indexer name.
func (q *IndexQueue) IndexDocument(ctx context.Context, req domain.IndexRequest) (*domain.IndexResult, error) {
	return q.Submit(ctx, req)
}

// DeleteDocumentIndex queues a chunk deletion and waits for it.
func (q *IndexQueue) DeleteDocumentIndex(ctx context.Context, documentID domain.DocumentID) error {
	out, err := q.submitAndWait(ctx, indexJob{
		kind: jobDelete,
		ctx:  ctx,
		req:  domain.IndexRequest{DocumentID: documentID},
	})
	if err != nil {
		return err
	}
	return out.err
}

// Enqueue queues an index request without waiting. Failures are logged by
// the worker. Returns domain.ErrQueueFull when the buffer is full.
func (q *IndexQueue) Enqueue(req domain.IndexRequest) error {
	select {
	case <-q.quit:
		return domain.ErrQueueClosed
	default:
	}

	select {
	case q.jobs <- indexJob{kind: jobIndex, req: req}:
		return nil
	case <-q.quit:
		return domain.ErrQueueClosed
	default:
		return domain.ErrQueueFull
	}
}

func (q *IndexQueue) submitAndWait(ctx context.Context, job indexJob) (indexOutcome, error) {
	select {
	case <-q.quit:
		return indexOutcome{}, domain.ErrQueueClosed
	default:
	}

	job.done = make(chan indexOutcome, 1)

	select {
	case q.jobs <- job:
	case <-q.quit:
		return indexOutcome{}, domain.ErrQueueClosed
	case <-ctx.Done():
		return indexOutcome{}, ctx.Err()
	}

	select {
	case out := <-job.done:
		return out, nil
	case <-ctx.Done():
		return indexOutcome{}, ctx.Err()
	case <-q.stopped:
		select {
		case out := <-job.done:
			return out, nil
		default:
			return indexOutcome{}, domain.ErrQueueClosed
		}
	}
}
