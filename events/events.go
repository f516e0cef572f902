// Package events relays localization runtime events between service instances
// over a gocloud.dev/pubsub topic (mem:// in process, nats:// across processes).
package events

import (
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/pitabwire/natspubsub" // registers the nats:// pubsub driver
	_ "gocloud.dev/pubsub/mempubsub"    // registers the mem:// pubsub driver

	"github.com/pitabwire/lingo/localization"
)

const (
	// EventHeaderName carries the event name in message metadata.
	EventHeaderName = "lingo.event"
	// OriginHeaderName carries the id of the publishing instance.
	OriginHeaderName = "lingo.origin"
)

func encode(event localization.Event) ([]byte, error) {
	return json.Marshal(event)
}

func decode(body []byte, metadata map[string]string) (localization.Event, error) {
	var event localization.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("decode event: %w", err)
	}

	if event.Name == "" {
		event.Name = localization.EventName(metadata[EventHeaderName])
	}
	if event.Name == "" {
		return event, fmt.Errorf("decode event: missing event name")
	}
	return event, nil
}

func isMemURL(url string) bool {
	return strings.HasPrefix(strings.ToLower(url), "mem://")
}
