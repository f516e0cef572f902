package lingo

import (
	"context"

	"github.com/pitabwire/lingo/config"
	"github.com/pitabwire/lingo/telemetry"
	"github.com/pitabwire/lingo/translation"
)

// WithTelemetry installs the OpenTelemetry providers, including the translation engine metric views.
// Options accumulate across calls and survive a later WithConfig.
func WithTelemetry(opts ...telemetry.Option) Option {
	return func(ctx context.Context, s *Service) {
		s.telemetryOptions = append(s.telemetryOptions, opts...)

		cfg, ok := s.Config().(config.ConfigurationTelemetry)
		if !ok {
			s.Log(ctx).Error("configuration object not of type : ConfigurationTelemetry")
			return
		}

		if s.telemetryManager != nil {
			if err := s.telemetryManager.Shutdown(ctx); err != nil {
				s.Log(ctx).WithError(err).Warn("could not shut down replaced telemetry")
			}
		}

		extOpts := []telemetry.Option{
			telemetry.WithServiceName(s.Name()),
			telemetry.WithServiceVersion(s.Version()),
			telemetry.WithServiceEnvironment(s.Environment()),
			telemetry.WithMetricViews(translation.MetricViews()...),
		}
		extOpts = append(extOpts, s.telemetryOptions...)

		manager := telemetry.NewManager(ctx, cfg, extOpts...)
		if err := manager.Init(ctx); err != nil {
			s.AddStartupError(err)
			return
		}
		s.telemetryManager = manager

		// the logger must follow the new log handler
		WithLogger()(ctx, s)
	}
}

func (s *Service) Telemetry() telemetry.Manager {
	return s.telemetryManager
}
