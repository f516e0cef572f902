package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/xid"
)

var ErrWorkerPoolResultChannelIsClosed = errors.New("worker job is already closed")

type jobResult[T any] struct {
	item T
	err  error
}

func (r *jobResult[T]) IsError() bool {
	return r.err != nil
}

func (r *jobResult[T]) Error() error {
	return r.err
}

func (r *jobResult[T]) Item() T {
	return r.item
}

type job[T any] struct {
	id      string
	results chan JobResult[T]
	closed  atomic.Bool
	process func(ctx context.Context, result JobResultPipe[T]) error
}

// NewJobWithBuffer creates a job whose pipe buffers bufferSize results.
func NewJobWithBuffer[T any](
	process func(ctx context.Context, result JobResultPipe[T]) error,
	bufferSize int,
) Job[T] {
	return &job[T]{
		id:      xid.New().String(),
		results: make(chan JobResult[T], bufferSize),
		process: process,
	}
}

func (j *job[T]) ID() string {
	return j.id
}

func (j *job[T]) F() func(ctx context.Context, result JobResultPipe[T]) error {
	return j.process
}

func (j *job[T]) ReadResult(ctx context.Context) (JobResult[T], bool) {
	select {
	case <-ctx.Done():
		return nil, false
	case result, ok := <-j.results:
		return result, ok
	}
}

func (j *job[T]) WriteError(ctx context.Context, val error) error {
	return j.write(ctx, &jobResult[T]{err: val})
}

func (j *job[T]) WriteResult(ctx context.Context, val T) error {
	return j.write(ctx, &jobResult[T]{item: val})
}

func (j *job[T]) write(ctx context.Context, result JobResult[T]) error {
	if j.closed.Load() {
		return ErrWorkerPoolResultChannelIsClosed
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("context canceled while writing job result: %w", ctx.Err())
	case j.results <- result:
		return nil
	}
}

func (j *job[T]) Close() {
	if j.closed.CompareAndSwap(false, true) {
		close(j.results)
	}
}
