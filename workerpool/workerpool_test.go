package workerpool_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitabwire/lingo/config"
	"github.com/pitabwire/lingo/workerpool"
)

func newManager(t *testing.T, opts ...workerpool.Option) workerpool.Manager {
	t.Helper()

	cfg := &config.ConfigurationDefault{
		WorkerPoolCPUFactorForWorkerCount: 1,
		WorkerPoolCapacity:                10,
		WorkerPoolCount:                   1,
		WorkerPoolExpiryDuration:          "1s",
	}

	m, err := workerpool.NewManager(t.Context(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = m.Shutdown(context.Background())
	})
	return m
}

func TestSubmitJob(t *testing.T) {
	errBackend := errors.New("backend unavailable")

	testCases := []struct {
		name        string
		fail        bool
		pools       int
		expectedErr error
	}{
		{name: "succeeds", pools: 0},
		{name: "multi pool", pools: 3},
		{name: "failure is reported on the pipe", fail: true, expectedErr: errBackend},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var opts []workerpool.Option
			if tc.pools > 0 {
				opts = append(opts, workerpool.WithPoolCount(tc.pools))
			}
			m := newManager(t, opts...)

			var runs atomic.Int32
			job := workerpool.NewJobWithBuffer(
				func(ctx context.Context, result workerpool.JobResultPipe[string]) error {
					runs.Add(1)
					if tc.fail {
						return errBackend
					}
					return result.WriteResult(ctx, "loaded")
				}, 1)

			require.NoError(t, workerpool.SubmitJob(t.Context(), m, job))

			ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
			defer cancel()

			result, ok := job.ReadResult(ctx)
			require.True(t, ok)
			if tc.expectedErr != nil {
				require.True(t, result.IsError())
				require.ErrorIs(t, result.Error(), tc.expectedErr)
			} else {
				require.False(t, result.IsError())
				assert.Equal(t, "loaded", result.Item())
			}
			assert.Equal(t, int32(1), runs.Load())

			_, ok = job.ReadResult(ctx)
			assert.False(t, ok, "the pipe closes once the job has run")
		})
	}
}

func TestPoolPanicHandler(t *testing.T) {
	recovered := make(chan any, 1)
	m := newManager(t, workerpool.WithPoolPanicHandler(func(p any) {
		recovered <- p
	}))

	pool, err := m.GetPool()
	require.NoError(t, err)
	require.NoError(t, pool.Submit(t.Context(), func() {
		panic("loader exploded")
	}))

	select {
	case p := <-recovered:
		assert.Equal(t, "loader exploded", p)
	case <-time.After(5 * time.Second):
		t.Fatal("panic handler was not invoked")
	}
}

func TestSubmitJobWithoutManager(t *testing.T) {
	job := workerpool.NewJobWithBuffer(
		func(_ context.Context, _ workerpool.JobResultPipe[int]) error { return nil }, 1)

	err := workerpool.SubmitJob(t.Context(), nil, job)
	require.ErrorIs(t, err, workerpool.ErrWorkerPoolNotConfigured)
}

func TestExecuteJobOnCaller(t *testing.T) {
	job := workerpool.NewJobWithBuffer(
		func(ctx context.Context, result workerpool.JobResultPipe[int]) error {
			return result.WriteResult(ctx, 42)
		}, 1)

	workerpool.ExecuteJob(t.Context(), job)

	result, ok := job.ReadResult(t.Context())
	require.True(t, ok)
	assert.Equal(t, 42, result.Item())
	require.ErrorIs(t, job.WriteResult(t.Context(), 1), workerpool.ErrWorkerPoolResultChannelIsClosed)
}

func TestExecuteJobWithoutFunction(t *testing.T) {
	job := workerpool.NewJobWithBuffer[int](nil, 1)

	workerpool.ExecuteJob(t.Context(), job)

	result, ok := job.ReadResult(t.Context())
	require.True(t, ok)
	require.True(t, result.IsError())
}

func TestShutdownRejectsWork(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.Shutdown(t.Context()))

	job := workerpool.NewJobWithBuffer(
		func(_ context.Context, _ workerpool.JobResultPipe[int]) error { return nil }, 1)
	require.Error(t, workerpool.SubmitJob(t.Context(), m, job))
}
