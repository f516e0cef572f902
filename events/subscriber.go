package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pitabwire/util"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"gocloud.dev/pubsub"

	"github.com/pitabwire/lingo/localization"
	"github.com/pitabwire/lingo/workerpool"
)

const subscriberShutdownTimeout = time.Second

// SubscriberOption configures a Subscriber.
type SubscriberOption func(*Subscriber)

// WithIgnoreOrigin drops messages sent by the publisher with this origin, usually the local one.
func WithIgnoreOrigin(origin string) SubscriberOption {
	return func(s *Subscriber) {
		s.ignoreOrigin = origin
	}
}

// WithSubscriberWorkerPool dispatches messages as jobs on pool.
func WithSubscriberWorkerPool(pool workerpool.Manager) SubscriberOption {
	return func(s *Subscriber) {
		s.workManager = pool
	}
}

// Subscriber receives events from a subscription and hands them to a listener.
type Subscriber struct {
	url          string
	listener     localization.Listener
	ignoreOrigin string
	workManager  workerpool.Manager

	mu           sync.Mutex
	subscription *pubsub.Subscription
	cancel       context.CancelFunc
	stopped      chan struct{}
}

func NewSubscriber(url string, listener localization.Listener, opts ...SubscriberOption) *Subscriber {
	s := &Subscriber{
		url:      url,
		listener: listener,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init opens the subscription and starts receiving until Stop or ctx ends.
func (s *Subscriber) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subscription != nil {
		return nil
	}

	if strings.TrimSpace(s.url) == "" {
		return errors.New("subscriber URL cannot be empty")
	}
	if s.listener == nil {
		return errors.New("subscriber needs a listener")
	}

	subscription, err := pubsub.OpenSubscription(ctx, s.url)
	if err != nil {
		return fmt.Errorf("could not open topic subscription: %w", err)
	}

	listenCtx, cancel := context.WithCancel(ctx)
	s.subscription = subscription
	s.cancel = cancel
	s.stopped = make(chan struct{})

	go s.listen(listenCtx, subscription, s.stopped)
	return nil
}

func (s *Subscriber) Initiated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscription != nil
}

func (s *Subscriber) listen(ctx context.Context, subscription *pubsub.Subscription, stopped chan<- struct{}) {
	defer close(stopped)

	log := util.Log(ctx).WithField("url", s.url)
	log.Debug("listening for localization events")

	for {
		msg, err := subscription.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Debug("stopped listening for localization events")
				return
			}
			log.WithError(err).Error("could not pull message, stopping listener")
			return
		}

		s.dispatch(ctx, msg)
	}
}

func (s *Subscriber) dispatch(ctx context.Context, msg *pubsub.Message) {
	if s.ignoreOrigin != "" && msg.Metadata[OriginHeaderName] == s.ignoreOrigin {
		msg.Ack()
		return
	}

	job := workerpool.NewJobWithBuffer(func(jobCtx context.Context, _ workerpool.JobResultPipe[any]) error {
		return s.handle(jobCtx, msg)
	}, 1)

	err := workerpool.SubmitJob(ctx, s.workManager, job)
	if err != nil {
		workerpool.ExecuteJob(ctx, job)
	}
}

func (s *Subscriber) handle(ctx context.Context, msg *pubsub.Message) (err error) {
	var metadata propagation.MapCarrier = msg.Metadata

	ctx = otel.GetTextMapPropagator().Extract(ctx, metadata)
	if languages := localization.FromMap(metadata); len(languages) > 0 {
		ctx = localization.ToContext(ctx, languages)
	}

	event, err := decode(msg.Body, metadata)
	if err != nil {
		util.Log(ctx).WithError(err).WithField("url", s.url).Warn("dropping undecodable localization event")
		msg.Ack()
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("localization event listener panicked: %v", r)
			util.Log(ctx).WithError(err).WithField("event", event.Name).Error("could not handle event")
			msg.Nack()
		}
	}()

	s.listener(ctx, event)
	msg.Ack()
	return nil
}

// Stop ends the receive loop and shuts the subscription down.
func (s *Subscriber) Stop(ctx context.Context) error {
	s.mu.Lock()
	subscription := s.subscription
	cancel := s.cancel
	stopped := s.stopped
	s.subscription = nil
	s.cancel = nil
	s.mu.Unlock()

	if subscription == nil {
		return nil
	}

	cancel()
	<-stopped

	sctx := ctx
	if ctx.Err() != nil {
		sctx = context.Background()
	}
	sctx, cancelShutdown := context.WithTimeout(sctx, subscriberShutdownTimeout)
	defer cancelShutdown()

	return subscription.Shutdown(sctx)
}
