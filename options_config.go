package lingo

import (
	"context"

	"github.com/pitabwire/lingo/config"
)

// WithConfig sets the configuration object of the service and sets up the
// telemetry, logging and worker pool it describes.
func WithConfig(cfg any) Option {
	return func(ctx context.Context, s *Service) {
		s.configuration = cfg

		if serviceCfg, ok := cfg.(config.ConfigurationService); ok {
			if serviceCfg.Name() != "" {
				WithName(serviceCfg.Name())(ctx, s)
			}
			if serviceCfg.Environment() != "" {
				WithEnvironment(serviceCfg.Environment())(ctx, s)
			}
			if serviceCfg.Version() != "" {
				WithVersion(serviceCfg.Version())(ctx, s)
			}
		}

		WithTelemetry()(ctx, s)
		WithLogger()(ctx, s)
		WithWorkerPoolOptions()(ctx, s)
	}
}

func (s *Service) Config() any {
	return s.configuration
}
