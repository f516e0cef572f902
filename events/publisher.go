package events

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pitabwire/util"
	"github.com/rs/xid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"gocloud.dev/pubsub"

	"github.com/pitabwire/lingo/localization"
)

// ErrPublisherNotInitialized is returned by Publish before Init succeeded.
var ErrPublisherNotInitialized = errors.New("publisher is not initialized")

const defaultShutdownTimeout = 30 * time.Second

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithEventNames restricts the events Listener forwards, all are forwarded by default.
func WithEventNames(names ...localization.EventName) PublisherOption {
	return func(p *Publisher) {
		p.names = names
	}
}

// Publisher sends runtime events to a topic.
type Publisher struct {
	url    string
	origin string
	names  []localization.EventName

	mu    sync.RWMutex
	topic *pubsub.Topic
}

func NewPublisher(url string, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		url:    url,
		origin: xid.New().String(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Origin identifies this publisher in the metadata of every message it sends.
func (p *Publisher) Origin() string {
	return p.origin
}

func (p *Publisher) URL() string {
	return p.url
}

// Init opens the topic, calling it again is a no-op.
func (p *Publisher) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.topic != nil {
		return nil
	}

	topic, err := pubsub.OpenTopic(ctx, p.url)
	if err != nil {
		return err
	}
	p.topic = topic
	return nil
}

func (p *Publisher) Initiated() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.topic != nil
}

// Publish sends event, trace context and requested languages travel in the metadata.
func (p *Publisher) Publish(ctx context.Context, event localization.Event) error {
	p.mu.RLock()
	topic := p.topic
	p.mu.RUnlock()

	if topic == nil {
		return ErrPublisherNotInitialized
	}

	body, err := encode(event)
	if err != nil {
		return err
	}

	metadata := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, metadata)

	if languages := localization.FromContext(ctx); len(languages) > 0 {
		metadata = localization.ToMap(metadata, languages)
	}
	metadata[EventHeaderName] = string(event.Name)
	metadata[OriginHeaderName] = p.origin

	return topic.Send(ctx, &pubsub.Message{
		Body:     body,
		Metadata: metadata,
	})
}

// Listener adapts the publisher to a runtime subscription, failures are logged.
func (p *Publisher) Listener() localization.Listener {
	return func(ctx context.Context, event localization.Event) {
		if len(p.names) > 0 && !slices.Contains(p.names, event.Name) {
			return
		}

		err := p.Publish(ctx, event)
		if err != nil {
			util.Log(ctx).WithError(err).
				WithField("event", event.Name).
				WithField("url", p.url).
				Warn("could not publish localization event")
		}
	}
}

// Stop shuts the topic down. In process mem:// topics are left open for other users of the URL.
func (p *Publisher) Stop(ctx context.Context) error {
	p.mu.Lock()
	topic := p.topic
	p.topic = nil
	p.mu.Unlock()

	if topic == nil || isMemURL(p.url) {
		return nil
	}

	sctx := ctx
	if ctx.Err() != nil {
		sctx = context.Background()
	}
	sctx, cancel := context.WithTimeout(sctx, defaultShutdownTimeout)
	defer cancel()

	err := topic.Shutdown(sctx)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "topic has been shutdown") {
		return nil
	}
	return err
}
