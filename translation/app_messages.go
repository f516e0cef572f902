package translation

import (
	"context"
	"errors"
)

// AppMessage carries application level translations for a reference. They take the place of
// the reference's own bundles for the languages they cover, so apply them before the reference is used.
type AppMessage struct {
	Ref          *Reference
	Messages     map[string]Messages
	LazyMessages map[string]LazyLoader
}

// ApplyAppMessages installs every override, loading lazy overrides for the active language.
// The returned error joins the active language failures of the lazy overrides.
func (e *Engine) ApplyAppMessages(ctx context.Context, messages ...AppMessage) error {
	var errs []error

	for _, msg := range messages {
		if msg.Ref == nil {
			continue
		}

		if len(msg.LazyMessages) > 0 {
			e.registry.override(msg.Ref, msg.LazyMessages)
		}

		if len(msg.Messages) > 0 {
			resources := make(map[string]Messages, len(msg.Messages))
			for lang, bundle := range msg.Messages {
				resources[lang] = bundle.Clone()
			}
			e.installEager(ctx, msg.Ref, resources)
		}

		if len(msg.LazyMessages) > 0 {
			errs = append(errs, e.LoadLazyResources(ctx, msg.Ref))
		}
	}

	return errors.Join(errs...)
}
