package translation

import (
	"context"

	"github.com/pitabwire/lingo/localization"
)

// Runtime is the part of the i18n runtime the engine drives. localization.Manager satisfies it.
type Runtime interface {
	// AddBundle merges messages without overwriting keys already present.
	AddBundle(language, namespace string, messages Messages)
	ReloadBundles(ctx context.Context, languages, namespaces []string) error
	Language() string
	FallbackRule() localization.FallbackRule
	ResolveFallbackChain(rule localization.FallbackRule, language string) []string
	HasBackend() bool
	Emit(ctx context.Context, event localization.Event)
}

// Subscriber is implemented by runtimes that announce language changes.
type Subscriber interface {
	Subscribe(listener localization.Listener) func()
}

var _ Runtime = localization.Manager(nil)
