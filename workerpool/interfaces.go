package workerpool

import (
	"context"
)

// JobResult is either a value produced by a job or the error it failed with.
type JobResult[T any] interface {
	IsError() bool
	Error() error
	Item() T
}

// JobResultPipe carries the results of one job to whoever waits on it.
type JobResultPipe[T any] interface {
	WriteError(ctx context.Context, val error) error
	WriteResult(ctx context.Context, val T) error
	ReadResult(ctx context.Context) (JobResult[T], bool)
	Close()
}

// Job is a unit of work run once on the pool, with its own result pipe.
type Job[T any] interface {
	JobResultPipe[T]
	F() func(ctx context.Context, result JobResultPipe[T]) error
	ID() string
}

// Manager owns the pool jobs are submitted to.
type Manager interface {
	GetPool() (WorkerPool, error)
	Shutdown(context.Context) error
}

// WorkerPool hides whether a single ants.Pool or an ants.MultiPool runs the tasks.
type WorkerPool interface {
	Submit(ctx context.Context, task func()) error
	Running() int
	Shutdown()
}
