package events_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/lingo/events"
	"github.com/pitabwire/lingo/lingotests"
	"github.com/pitabwire/lingo/localization"
)

type NatsEventsSuite struct {
	lingotests.BaseTestSuite
}

func TestNatsEventsSuite(t *testing.T) {
	suite.Run(t, &NatsEventsSuite{
		BaseTestSuite: lingotests.BaseTestSuite{
			InitResourceFunc: func(_ context.Context) []lingotests.Resource {
				return []lingotests.Resource{lingotests.NewNats()}
			},
		},
	})
}

func (s *NatsEventsSuite) streamURL(subject string) string {
	u, err := url.Parse(s.Resources()[0].URI())
	s.Require().NoError(err)

	q := u.Query()
	q.Set("jetstream", "true")
	q.Set("subject", subject)
	q.Set("stream_name", subject)
	q.Set("stream_subjects", subject)
	q.Set("consumer_durable_name", "Durable_"+subject)
	q.Set("consumer_filter_subject", subject)
	q.Set("consumer_ack_policy", "explicit")
	q.Set("consumer_deliver_policy", "all")
	q.Set("consumer_replay_policy", "instant")
	q.Set("stream_retention", "workqueue")
	q.Set("stream_storage", "file")
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *NatsEventsSuite) TestLoadedEventsCrossInstances() {
	ctx := s.T().Context()
	streamURL := s.streamURL("lingo_bundles")

	pub := events.NewPublisher(streamURL)
	s.Require().NoError(pub.Init(ctx))

	rec := &recorder{}
	sub := events.NewSubscriber(streamURL, rec.listen)
	s.Require().NoError(sub.Init(ctx))

	defer func() {
		s.NoError(sub.Stop(context.Background()))
		s.NoError(pub.Stop(context.Background()))
	}()

	event := localization.Event{Name: localization.EventLoaded, Language: "sw", Namespace: "catalog"}
	s.Require().NoError(pub.Publish(localization.ToContext(ctx, []string{"sw", "en"}), event))

	s.Eventually(func() bool { return len(rec.snapshot()) == 1 }, 10*time.Second, 50*time.Millisecond)
	s.Equal(event, rec.snapshot()[0])

	rec.mu.Lock()
	s.Equal([]string{"sw", "en"}, rec.languages[0])
	rec.mu.Unlock()
}
