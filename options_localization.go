package lingo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pitabwire/lingo/backend/cached"
	"github.com/pitabwire/lingo/backend/datastore"
	"github.com/pitabwire/lingo/backend/file"
	httpbackend "github.com/pitabwire/lingo/backend/http"
	"github.com/pitabwire/lingo/cache"
	"github.com/pitabwire/lingo/config"
	"github.com/pitabwire/lingo/localization"
	"github.com/pitabwire/lingo/translation"
)

const bundleCacheName = "translations"

// ErrUnsupportedBackendURI is reported for a translations backend URI no backend understands.
var ErrUnsupportedBackendURI = errors.New("unsupported translations backend uri")

// WithBackend sets the source the runtime reloads bundles from.
func WithBackend(backend localization.Backend) Option {
	return func(_ context.Context, s *Service) {
		s.backend = backend
	}
}

// WithTranslations reads bundles from folder when no other backend is set.
func WithTranslations(folder string) Option {
	return func(_ context.Context, s *Service) {
		s.translations = folder
	}
}

// WithDefaultLanguage sets the language active at start up.
func WithDefaultLanguage(lang string) Option {
	return func(_ context.Context, s *Service) {
		s.defaultLanguage = lang
	}
}

// WithLanguages restricts the languages the service can switch to.
func WithLanguages(languages ...string) Option {
	return func(_ context.Context, s *Service) {
		s.languages = languages
	}
}

// WithFallbackRule replaces the fallback rule derived from configuration.
func WithFallbackRule(rule localization.FallbackRule) Option {
	return func(_ context.Context, s *Service) {
		s.fallbackRule = &rule
	}
}

// WithAppMessages registers application overrides applied once the engine is ready.
func WithAppMessages(messages ...translation.AppMessage) Option {
	return func(_ context.Context, s *Service) {
		s.appMessages = append(s.appMessages, messages...)
	}
}

// WithLocalizationOptions passes extra options to the localization runtime.
func WithLocalizationOptions(opts ...localization.Option) Option {
	return func(_ context.Context, s *Service) {
		s.localizationOpts = append(s.localizationOpts, opts...)
	}
}

func (s *Service) setupLocalization(ctx context.Context) {
	log := s.Log(ctx)
	cfg, _ := s.Config().(config.ConfigurationLocalization)

	opts := []localization.Option{}

	defaultLanguage := s.defaultLanguage
	if defaultLanguage == "" && cfg != nil {
		defaultLanguage = cfg.GetDefaultLanguage()
	}
	if defaultLanguage != "" {
		opts = append(opts, localization.WithDefaultLanguage(defaultLanguage))
	}

	languages := s.languages
	if len(languages) == 0 && cfg != nil {
		languages = cfg.GetSupportedLanguages()
	}
	if len(languages) > 0 {
		opts = append(opts, localization.WithLanguages(languages...))
	}

	switch {
	case s.fallbackRule != nil:
		opts = append(opts, localization.WithFallbackRule(*s.fallbackRule))
	case cfg != nil:
		rule, err := localization.ParseFallbackRule(
			cfg.GetFallbackLanguages(), cfg.GetFallbackLanguageMap(), cfg.DecomposeRegion())
		if err != nil {
			s.AddStartupError(err)
		} else {
			opts = append(opts, localization.WithFallbackRule(rule))
		}
	}

	backend, err := s.resolveBackend(ctx, cfg)
	if err != nil {
		s.AddStartupError(err)
	}

	if backend != nil {
		backend = s.wrapWithCache(ctx, backend)
		opts = append(opts, localization.WithBackend(backend))
	}
	s.backend = backend

	opts = append(opts, s.localizationOpts...)
	s.localizationManager = localization.NewManager(opts...)
	s.engine = translation.NewEngine(s.localizationManager, translation.WithWorkerPool(s.workerPoolManager))

	if len(s.appMessages) > 0 {
		if err = s.engine.ApplyAppMessages(ctx, s.appMessages...); err != nil {
			s.AddStartupError(err)
		}
	}

	s.setupEvents(ctx)

	log.WithField("language", s.localizationManager.Language()).
		WithField("backend", s.localizationManager.HasBackend()).
		Debug("localization ready")
}

func (s *Service) resolveBackend(ctx context.Context, cfg config.ConfigurationLocalization) (localization.Backend, error) {
	if s.backend != nil {
		return s.backend, nil
	}

	if cfg != nil && cfg.GetTranslationsBackendURI() != "" {
		return s.backendFromURI(ctx, cfg.GetTranslationsBackendURI())
	}

	if s.translations != "" {
		return file.New(s.translations), nil
	}

	if cfg != nil && cfg.GetTranslationsFolder() != "" {
		info, err := os.Stat(cfg.GetTranslationsFolder())
		if err == nil && info.IsDir() {
			return file.New(cfg.GetTranslationsFolder()), nil
		}
	}

	return nil, nil
}

// backendFromURI picks the backend by scheme: file://, http(s):// load paths or postgres:// databases.
func (s *Service) backendFromURI(ctx context.Context, uri string) (localization.Backend, error) {
	lower := strings.ToLower(uri)

	switch {
	case strings.HasPrefix(lower, "file://"):
		return file.New(uri[len("file://"):]), nil

	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return httpbackend.New(uri)

	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		db, err := datastore.Open(ctx, uri)
		if err != nil {
			return nil, err
		}

		backend := datastore.New(db)
		s.AddCleanupMethod(func(ctx context.Context) {
			if closeErr := backend.Close(); closeErr != nil {
				s.Log(ctx).WithError(closeErr).Warn("could not close translations database")
			}
		})
		return backend, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackendURI, uri)
}

func (s *Service) wrapWithCache(ctx context.Context, backend localization.Backend) localization.Backend {
	bc := s.bundleCache
	if bc == nil {
		cacheCfg, ok := s.Config().(config.ConfigurationCache)
		if !ok || cacheCfg.GetTranslationsCacheURI() == "" {
			return backend
		}

		raw, err := s.cacheFromURI(cacheCfg.GetTranslationsCacheURI(), cacheCfg.GetTranslationsCacheTTL())
		if err != nil {
			s.AddStartupError(err)
			return backend
		}
		bc = &bundleCache{raw: raw, ttl: cacheCfg.GetTranslationsCacheTTL()}
	}

	WithCacheManager()(ctx, s)
	s.cacheManager.AddCache(bundleCacheName, bc.raw)

	return cached.New(backend, bc.raw, cached.WithTTL(bc.ttl), cached.WithKeyPrefix("lingo:"+s.Name()))
}

// Localization returns the localization runtime.
func (s *Service) Localization() localization.Manager {
	return s.localizationManager
}

// Translations returns the translation engine installing references into the runtime.
func (s *Service) Translations() *translation.Engine {
	return s.engine
}

// Backend returns the backend the runtime reloads from, cache included, or nil.
func (s *Service) Backend() localization.Backend {
	return s.backend
}

// UseReference installs the eager bundles of ref and loads its lazy ones for the active language.
func (s *Service) UseReference(ctx context.Context, ref *translation.Reference) <-chan error {
	return s.engine.UseReference(ctx, ref)
}

// ChangeLanguage switches the active language, lazy bundles of known references follow.
func (s *Service) ChangeLanguage(ctx context.Context, lang string) error {
	return s.localizationManager.ChangeLanguage(ctx, lang)
}

// Translate renders key of namespace for the languages carried by request.
func (s *Service) Translate(ctx context.Context, request any, namespace, key string) string {
	return s.localizationManager.Translate(ctx, request, namespace, key)
}

func (s *Service) TranslateWithMap(
	ctx context.Context,
	request any,
	namespace, key string,
	variables map[string]any,
) string {
	return s.localizationManager.TranslateWithMap(ctx, request, namespace, key, variables)
}

func (s *Service) TranslateWithMapAndCount(
	ctx context.Context,
	request any,
	namespace, key string,
	variables map[string]any,
	count int,
) string {
	return s.localizationManager.TranslateWithMapAndCount(ctx, request, namespace, key, variables, count)
}

type bundleCache struct {
	raw cache.RawCache
	ttl time.Duration
}
