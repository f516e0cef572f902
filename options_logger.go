package lingo

import (
	"context"
	"log/slog"

	"github.com/pitabwire/util"

	"github.com/pitabwire/lingo/config"
)

// WithLogger initialises the service logger from the logging configuration,
// forwarding records to the telemetry log handler when one is installed.
// Caller options are kept and applied after the configured ones.
func WithLogger(opts ...util.Option) Option {
	return func(ctx context.Context, s *Service) {
		s.loggerOptions = append(s.loggerOptions, opts...)

		var logOpts []util.Option
		if cfg, ok := s.Config().(config.ConfigurationLogLevel); ok {
			logLevel, err := util.ParseLevel(cfg.LoggingLevel())
			if err == nil {
				logOpts = append(logOpts, util.WithLogLevel(logLevel))
			}
			logOpts = append(logOpts,
				util.WithLogTimeFormat(cfg.LoggingTimeFormat()),
				util.WithLogNoColor(!cfg.LoggingColored()))
			if cfg.LoggingShowStackTrace() {
				logOpts = append(logOpts, util.WithLogStackTrace())
			}
		}

		if s.telemetryManager != nil && s.telemetryManager.LogHandler() != nil {
			logOpts = append(logOpts, util.WithLogHandler(s.telemetryManager.LogHandler()))
		}
		logOpts = append(logOpts, s.loggerOptions...)

		s.logger = util.NewLogger(ctx, logOpts...).WithField("service", s.Name())
	}
}

func (s *Service) Log(ctx context.Context) *util.LogEntry {
	return s.logger.WithContext(ctx)
}

func (s *Service) SLog(ctx context.Context) *slog.Logger {
	return s.Log(ctx).SLog()
}
