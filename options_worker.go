package lingo

import (
	"context"

	"github.com/pitabwire/lingo/config"
	"github.com/pitabwire/lingo/workerpool"
)

// WithWorkerPoolOptions builds the worker pool running lazy loads and event dispatch.
// Options accumulate across calls and survive a later WithConfig.
func WithWorkerPoolOptions(options ...workerpool.Option) Option {
	return func(ctx context.Context, s *Service) {
		s.workerPoolOptions = append(s.workerPoolOptions, options...)

		cfg, ok := s.Config().(config.ConfigurationWorkerPool)
		if !ok {
			s.Log(ctx).Error("worker pool configuration is not setup")
			return
		}

		wpm, err := workerpool.NewManager(ctx, cfg, s.workerPoolOptions...)
		if err != nil {
			s.AddStartupError(err)
			return
		}

		if s.workerPoolManager != nil {
			_ = s.workerPoolManager.Shutdown(ctx)
		}
		s.workerPoolManager = wpm
	}
}

func (s *Service) WorkManager() workerpool.Manager {
	return s.workerPoolManager
}

// SubmitJob runs job on the service worker pool.
func SubmitJob[T any](ctx context.Context, s *Service, job workerpool.Job[T]) error {
	return workerpool.SubmitJob(ctx, s.WorkManager(), job)
}
