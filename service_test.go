package lingo_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/lingo"
	"github.com/pitabwire/lingo/config"
	"github.com/pitabwire/lingo/localization"
	"github.com/pitabwire/lingo/translation"
	"github.com/pitabwire/lingo/workerpool"
)

type ServiceTestSuite struct {
	suite.Suite
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (s *ServiceTestSuite) testConfig() *config.ConfigurationDefault {
	cfg, err := config.FromEnv[config.ConfigurationDefault]()
	s.Require().NoError(err)

	cfg.OpenTelemetryDisable = true
	cfg.LogLevel = "debug"
	cfg.TranslationsFolder = ""
	cfg.TranslationsBackendURI = ""
	cfg.TranslationsCacheURI = ""
	cfg.TranslationsEventsURL = ""
	return &cfg
}

func (s *ServiceTestSuite) newService(name string, opts ...lingo.Option) (context.Context, *lingo.Service) {
	opts = append([]lingo.Option{lingo.WithConfig(s.testConfig())}, opts...)
	ctx, svc := lingo.NewService(name, opts...)
	s.T().Cleanup(func() { svc.Stop(context.Background()) })
	return ctx, svc
}

func (s *ServiceTestSuite) TestServiceFromContext() {
	ctx, svc := s.newService("lingo-context")

	s.Require().NoError(svc.StartupErrors())
	s.Equal(svc, lingo.Svc(ctx))
	s.Nil(lingo.Svc(context.Background()))
	s.Equal("lingo-context", svc.Name())
	s.NotNil(config.FromContext[*config.ConfigurationDefault](ctx))
	s.NotNil(svc.WorkManager())
	s.NotNil(svc.Translations())
	s.Equal("en", svc.Localization().Language())
	s.Nil(svc.Backend())
}

func (s *ServiceTestSuite) TestWorkerPoolOptionsSurviveConfiguration() {
	testCases := []struct {
		name       string
		withConfig bool
	}{
		{name: "environment configuration"},
		{name: "followed by WithConfig", withConfig: true},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			recovered := make(chan any, 1)
			opts := []lingo.Option{
				lingo.WithWorkerPoolOptions(workerpool.WithPoolPanicHandler(func(p any) {
					recovered <- p
				})),
			}
			if tc.withConfig {
				opts = append(opts, lingo.WithConfig(s.testConfig()))
			}

			_, svc := lingo.NewService("lingo-pool", opts...)
			defer svc.Stop(context.Background())

			pool, err := svc.WorkManager().GetPool()
			s.Require().NoError(err)
			s.Require().NoError(pool.Submit(context.Background(), func() {
				panic("job exploded")
			}))

			select {
			case p := <-recovered:
				s.Equal("job exploded", p)
			case <-time.After(5 * time.Second):
				s.Fail("panic handler given to WithWorkerPoolOptions was not installed")
			}
		})
	}
}

func (s *ServiceTestSuite) TestTranslationsFolderBackend() {
	ctx, svc := s.newService("lingo-folder",
		lingo.WithTranslations("testdata/translations"),
		lingo.WithLanguages("en", "fr"),
		lingo.WithInMemoryCache(time.Minute))
	s.Require().NoError(svc.StartupErrors())
	s.NotNil(svc.CacheManager())

	ref := translation.NewReference("app")
	s.Require().NoError(<-svc.UseReference(ctx, ref))

	s.Equal("Catalog", svc.Translate(ctx, "en", "app", "title"))
	s.Equal("3 items", svc.TranslateWithMapAndCount(ctx, "en", "app", "items", map[string]any{"Count": 3}, 3))

	s.Require().NoError(svc.ChangeLanguage(ctx, "fr"))
	s.Require().Eventually(func() bool {
		return svc.Translations().LoadState(ref, "fr") == translation.Succeeded
	}, 2*time.Second, 10*time.Millisecond)

	s.Equal("Bonjour Ada", svc.TranslateWithMap(ctx, nil, "app", "greeting", map[string]any{"Name": "Ada"}))
	s.ErrorIs(svc.ChangeLanguage(ctx, "de"), localization.ErrUnsupportedLanguage)
}

func (s *ServiceTestSuite) TestBackendFromConfiguration() {
	testCases := []struct {
		name      string
		uri       string
		expectErr bool
	}{
		{name: "file uri", uri: "file://testdata/translations"},
		{name: "http load path", uri: "http://localhost:1/locales/{{lng}}/{{ns}}.json"},
		{name: "unknown scheme", uri: "ftp://localhost/translations", expectErr: true},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			cfg := s.testConfig()
			cfg.TranslationsBackendURI = tc.uri

			_, svc := lingo.NewService("lingo-backend", lingo.WithConfig(cfg))
			defer svc.Stop(context.Background())

			if tc.expectErr {
				s.Require().ErrorIs(svc.StartupErrors(), lingo.ErrUnsupportedBackendURI)
				s.False(svc.Localization().HasBackend())
				return
			}
			s.Require().NoError(svc.StartupErrors())
			s.True(svc.Localization().HasBackend())
		})
	}
}

func (s *ServiceTestSuite) TestFallbackFromConfiguration() {
	cfg := s.testConfig()
	cfg.DefaultLanguage = "de-CH"
	cfg.FallbackLanguages = []string{"en"}
	cfg.FallbackLanguageMap = "de-CH=de"

	ctx, svc := lingo.NewService("lingo-fallback", lingo.WithConfig(cfg))
	defer svc.Stop(context.Background())
	s.Require().NoError(svc.StartupErrors())

	manager := svc.Localization()
	s.Equal("de-CH", manager.Language())
	s.Equal([]string{"de"}, manager.ResolveFallbackChain(manager.FallbackRule(), "de-CH"))
	s.Equal([]string{"en"}, manager.ResolveFallbackChain(manager.FallbackRule(), "sw"))

	manager.AddBundle("de", "app", localization.Messages{"title": "Katalog"})
	s.Equal("Katalog", svc.Translate(ctx, nil, "app", "title"))

	cfg = s.testConfig()
	cfg.FallbackLanguageMap = "broken"
	_, broken := lingo.NewService("lingo-fallback-broken", lingo.WithConfig(cfg))
	defer broken.Stop(context.Background())
	s.Require().ErrorIs(broken.StartupErrors(), localization.ErrInvalidFallbackMapping)
}

func (s *ServiceTestSuite) TestAppMessagesOverridePlugin() {
	ref := translation.NewReference("shop",
		translation.WithEagerResource("en", translation.Messages{"buy": "Buy", "sell": "Sell"}))

	ctx, svc := s.newService("lingo-app-messages",
		lingo.WithAppMessages(translation.AppMessage{
			Ref:      ref,
			Messages: map[string]translation.Messages{"en": {"buy": "Purchase"}},
		}))
	s.Require().NoError(svc.StartupErrors())

	s.Require().NoError(<-svc.UseReference(ctx, ref))
	s.Equal("Purchase", svc.Translate(ctx, nil, "shop", "buy"))
}

type memoryBackend struct {
	mu   sync.Mutex
	data map[string]localization.Messages
}

func (m *memoryBackend) set(lang, ns string, messages localization.Messages) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[lang+"/"+ns] = messages
}

func (m *memoryBackend) Read(_ context.Context, lang, ns string) (localization.Messages, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	messages, ok := m.data[lang+"/"+ns]
	if !ok {
		return nil, localization.ErrBundleNotFound
	}
	return messages.Clone(), nil
}

func (s *ServiceTestSuite) TestPeersReloadLoadedBundles() {
	url := "mem://lingo-service-peers"
	shared := &memoryBackend{data: map[string]localization.Messages{}}
	shared.set("en", "news", localization.Messages{"headline": "Old news"})

	ctxA, svcA := s.newService("lingo-peer-a",
		lingo.WithBackend(shared),
		lingo.WithInMemoryCache(time.Hour),
		lingo.WithEventsPublisher(url))
	s.Require().NoError(svcA.StartupErrors())

	ctxB, svcB := s.newService("lingo-peer-b",
		lingo.WithBackend(shared),
		lingo.WithInMemoryCache(time.Hour),
		lingo.WithEventsPublisher(url),
		lingo.WithEventsSubscriber(url))
	s.Require().NoError(svcB.StartupErrors())

	s.Require().NoError(svcB.Localization().ReloadBundles(ctxB, []string{"en"}, []string{"news"}))
	s.Equal("Old news", svcB.Translate(ctxB, nil, "news", "headline"))

	shared.set("en", "news", localization.Messages{"headline": "Fresh news"})
	s.Require().NoError(<-svcA.UseReference(ctxA, translation.NewReference("news")))

	s.Eventually(func() bool {
		return svcB.Translate(ctxB, nil, "news", "headline") == "Fresh news"
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *ServiceTestSuite) TestStopIsIdempotent() {
	ctx, svc := lingo.NewService("lingo-stop", lingo.WithConfig(s.testConfig()))

	stopped := false
	svc.AddCleanupMethod(func(context.Context) { stopped = true })

	svc.Stop(ctx)
	svc.Stop(ctx)
	s.True(stopped)

	errCh := svc.UseReference(context.Background(), translation.NewReference("late"))
	s.ErrorIs(<-errCh, translation.ErrEngineClosed)
}
