package workerpool

import (
	"context"
	"errors"
	"fmt"

	"github.com/pitabwire/util"

	"github.com/pitabwire/lingo/config"
)

var ErrWorkerPoolNotConfigured = errors.New("worker pool is not configured")

type manager struct {
	pool WorkerPool
}

// NewManager builds an ants backed pool sized from cfg and wraps it in a Manager.
func NewManager(
	ctx context.Context,
	cfg config.ConfigurationWorkerPool,
	opts ...Option,
) (Manager, error) {
	log := util.Log(ctx)

	poolOpts := defaultWorkerPoolOpts(cfg, log)

	for _, opt := range opts {
		opt(poolOpts)
	}

	pool, err := setupWorkerPool(ctx, poolOpts)
	if err != nil {
		return nil, fmt.Errorf("could not create worker pool: %w", err)
	}

	return &manager{pool: pool}, nil
}

func (m *manager) GetPool() (WorkerPool, error) {
	if m.pool == nil {
		return nil, ErrWorkerPoolNotConfigured
	}
	return m.pool, nil
}

func (m *manager) Shutdown(_ context.Context) error {
	if m.pool == nil {
		return nil
	}
	m.pool.Shutdown()
	return nil
}

// SubmitJob hands job to the pool of m. Results arrive on the job's pipe.
func SubmitJob[T any](ctx context.Context, m Manager, job Job[T]) error {
	if m == nil {
		return ErrWorkerPoolNotConfigured
	}

	pool, err := m.GetPool()
	if err != nil {
		return err
	}

	return pool.Submit(ctx, func() {
		ExecuteJob(ctx, job)
	})
}

// ExecuteJob runs the job once on the calling goroutine and closes its pipe.
// Pool workers run it, and callers may use it directly when a pool rejects work.
func ExecuteJob[T any](ctx context.Context, job Job[T]) {
	defer job.Close()

	if job.F() == nil {
		util.Log(ctx).WithField("job", job.ID()).Error("Job function (job.F()) is nil")
		_ = job.WriteError(ctx, errors.New("job function (job.F()) is nil"))
		return
	}

	err := job.F()(ctx, job)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrWorkerPoolResultChannelIsClosed) {
		return
	}

	util.Log(ctx).WithField("job", job.ID()).WithError(err).Debug("job failed")
	_ = job.WriteError(ctx, err)
}
