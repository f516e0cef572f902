// Package lingo wires the translation engine, its localization runtime and
// the supporting stack (config, logging, telemetry, worker pool, backends,
// cache and events) into a single Service.
package lingo

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"

	"github.com/pitabwire/util"

	"github.com/pitabwire/lingo/cache"
	"github.com/pitabwire/lingo/config"
	"github.com/pitabwire/lingo/events"
	"github.com/pitabwire/lingo/localization"
	"github.com/pitabwire/lingo/telemetry"
	"github.com/pitabwire/lingo/translation"
	"github.com/pitabwire/lingo/workerpool"
)

type contextKey string

func (c contextKey) String() string {
	return "lingo/" + string(c)
}

const ctxKeyService = contextKey("serviceKey")

// Service holds together the translation components of an application.
// It lives for the lifetime of the application and is propagated through contexts.
type Service struct {
	name        string
	version     string
	environment string

	configuration any
	logger        *util.LogEntry
	loggerOptions []util.Option

	telemetryManager  telemetry.Manager
	telemetryOptions  []telemetry.Option
	workerPoolManager workerpool.Manager
	workerPoolOptions []workerpool.Option
	cacheManager      cache.Manager

	localizationOpts []localization.Option
	languages        []string
	defaultLanguage  string
	fallbackRule     *localization.FallbackRule
	translations     string
	backend          localization.Backend
	bundleCache      *bundleCache
	appMessages      []translation.AppMessage

	localizationManager localization.Manager
	engine              *translation.Engine

	publisher     *events.Publisher
	subscriberURL string
	subscriber    *events.Subscriber

	cancelFunc context.CancelFunc

	startupErrMu  sync.Mutex
	startupErrors []error

	stopMutex sync.Mutex
	cleanup   func(ctx context.Context)
	stopOnce  sync.Once
}

type Option func(ctx context.Context, service *Service)

// NewService creates a Service with the name and supplied options on a background context.
func NewService(name string, opts ...Option) (context.Context, *Service) {
	return NewServiceWithContext(context.Background(), name, opts...)
}

// NewServiceWithContext creates a Service, applying opts in order before the
// localization runtime and translation engine are assembled.
func NewServiceWithContext(ctx context.Context, name string, opts ...Option) (context.Context, *Service) {
	ctx, signalCancelFunc := signal.NotifyContext(ctx,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	defaultLogger := util.Log(ctx)
	ctx = util.ContextWithLogger(ctx, defaultLogger)

	service := &Service{
		name:       name,
		logger:     defaultLogger,
		cancelFunc: signalCancelFunc,
	}

	defaultCfg, err := config.FromEnv[config.ConfigurationDefault]()
	if err != nil {
		service.AddStartupError(err)
	}

	// Environment configuration is the base that caller options refine or replace.
	WithConfig(&defaultCfg)(ctx, service)

	service.Init(ctx, opts...)
	service.setupLocalization(ctx)

	ctx = SvcToContext(ctx, service)
	ctx = config.ToContext(ctx, service.Config())
	ctx = util.ContextWithLogger(ctx, service.logger)
	return ctx, service
}

// SvcToContext pushes a service instance into the supplied context for easier propagation.
func SvcToContext(ctx context.Context, service *Service) context.Context {
	return context.WithValue(ctx, ctxKeyService, service)
}

// Svc obtains a service instance being propagated through the context.
func Svc(ctx context.Context) *Service {
	service, ok := ctx.Value(ctxKeyService).(*Service)
	if !ok {
		return nil
	}
	return service
}

// Init evaluates the options provided as arguments and supplies them to the service object.
func (s *Service) Init(ctx context.Context, opts ...Option) {
	for _, opt := range opts {
		if opt != nil {
			opt(ctx, s)
		}
	}
}

func (s *Service) Name() string {
	return s.name
}

// WithName specifies the name the service will utilize.
func WithName(name string) Option {
	return func(_ context.Context, s *Service) {
		s.name = name
	}
}

func (s *Service) Version() string {
	return s.version
}

func WithVersion(version string) Option {
	return func(_ context.Context, s *Service) {
		s.version = version
	}
}

func (s *Service) Environment() string {
	return s.environment
}

func WithEnvironment(environment string) Option {
	return func(_ context.Context, s *Service) {
		s.environment = environment
	}
}

// AddStartupError records a failure met while applying options.
func (s *Service) AddStartupError(err error) {
	if err == nil {
		return
	}
	s.startupErrMu.Lock()
	defer s.startupErrMu.Unlock()
	s.startupErrors = append(s.startupErrors, err)
}

// StartupErrors joins every failure met while building the service, nil when there was none.
func (s *Service) StartupErrors() error {
	s.startupErrMu.Lock()
	defer s.startupErrMu.Unlock()
	return errors.Join(s.startupErrors...)
}

// AddCleanupMethod adds a function run by Stop, the last added runs first.
func (s *Service) AddCleanupMethod(f func(ctx context.Context)) {
	s.stopMutex.Lock()
	defer s.stopMutex.Unlock()

	if s.cleanup == nil {
		s.cleanup = f
		return
	}

	old := s.cleanup
	s.cleanup = func(ctx context.Context) { f(ctx); old(ctx) }
}

// Stop waits for running loads, then releases every component in reverse order of creation.
func (s *Service) Stop(ctx context.Context) {
	s.stopOnce.Do(func() {
		log := s.Log(ctx)

		if s.engine != nil {
			if err := s.engine.Close(ctx); err != nil {
				log.WithError(err).Warn("translation engine did not settle before stop")
			}
		}

		s.stopMutex.Lock()
		cleanup := s.cleanup
		s.stopMutex.Unlock()
		if cleanup != nil {
			cleanup(ctx)
		}

		if s.workerPoolManager != nil {
			if err := s.workerPoolManager.Shutdown(ctx); err != nil {
				log.WithError(err).Warn("could not shut down worker pool")
			}
		}

		if s.telemetryManager != nil {
			if err := s.telemetryManager.Shutdown(ctx); err != nil {
				log.WithError(err).Warn("could not shut down telemetry")
			}
		}

		if s.cancelFunc != nil {
			s.cancelFunc()
		}
		log.Debug("service stopped")
	})
}
