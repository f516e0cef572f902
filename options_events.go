package lingo

import (
	"context"

	"github.com/pitabwire/lingo/backend/cached"
	"github.com/pitabwire/lingo/config"
	"github.com/pitabwire/lingo/events"
	"github.com/pitabwire/lingo/localization"
)

// WithEventsPublisher forwards runtime events to the pubsub topic at url.
func WithEventsPublisher(url string, opts ...events.PublisherOption) Option {
	return func(_ context.Context, s *Service) {
		s.publisher = events.NewPublisher(url, opts...)
	}
}

// WithEventsSubscriber listens on url for events of peer instances. Bundles a peer reports
// as loaded are dropped from the cache and reloaded from the backend.
func WithEventsSubscriber(url string) Option {
	return func(_ context.Context, s *Service) {
		s.subscriberURL = url
	}
}

func (s *Service) Publisher() *events.Publisher {
	return s.publisher
}

func (s *Service) setupEvents(ctx context.Context) {
	if s.publisher == nil {
		if cfg, ok := s.Config().(config.ConfigurationEvents); ok && cfg.GetTranslationsEventsURL() != "" {
			s.publisher = events.NewPublisher(cfg.GetTranslationsEventsURL())
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Init(ctx); err != nil {
			s.AddStartupError(err)
			s.publisher = nil
		} else {
			unsubscribe := s.localizationManager.Subscribe(s.publisher.Listener())
			publisher := s.publisher
			s.AddCleanupMethod(func(ctx context.Context) {
				unsubscribe()
				if err := publisher.Stop(ctx); err != nil {
					s.Log(ctx).WithError(err).Warn("could not stop events publisher")
				}
			})
		}
	}

	if s.subscriberURL == "" {
		return
	}

	subOpts := []events.SubscriberOption{events.WithSubscriberWorkerPool(s.workerPoolManager)}
	if s.publisher != nil {
		subOpts = append(subOpts, events.WithIgnoreOrigin(s.publisher.Origin()))
	}

	subscriber := events.NewSubscriber(s.subscriberURL, s.onPeerEvent, subOpts...)
	if err := subscriber.Init(context.WithoutCancel(ctx)); err != nil {
		s.AddStartupError(err)
		return
	}

	s.subscriber = subscriber
	s.AddCleanupMethod(func(ctx context.Context) {
		if err := subscriber.Stop(ctx); err != nil {
			s.Log(ctx).WithError(err).Warn("could not stop events subscriber")
		}
	})
}

func (s *Service) onPeerEvent(ctx context.Context, event localization.Event) {
	// Reloads emit added events, reacting to those would echo between instances.
	if event.Name != localization.EventLoaded {
		return
	}
	if event.Language == "" || event.Namespace == "" || !s.localizationManager.HasBackend() {
		return
	}

	log := s.Log(ctx).WithField("language", event.Language).WithField("namespace", event.Namespace)

	if cb, ok := s.backend.(*cached.Backend); ok {
		if err := cb.Invalidate(ctx, event.Language, event.Namespace); err != nil {
			log.WithError(err).Warn("could not invalidate cached bundle")
		}
	}

	if err := s.localizationManager.ReloadBundles(ctx, []string{event.Language}, []string{event.Namespace}); err != nil {
		log.WithError(err).Warn("could not reload bundle reported by peer")
	}
}
