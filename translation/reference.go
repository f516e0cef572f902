package translation

import (
	"context"
	"maps"
	"slices"

	"github.com/rs/xid"

	"github.com/pitabwire/lingo/localization"
)

// Messages is a flat bundle of message key to localized string.
type Messages = localization.Messages

// LazyLoader fetches the bundle of one language on demand.
type LazyLoader func(ctx context.Context) (Messages, error)

// Reference is a named bundle of translations a component declares once and registers with an Engine.
// The id doubles as the runtime namespace. References are immutable once built.
type Reference struct {
	id     string
	handle string

	eager map[string]Messages
	lazy  map[string]LazyLoader
}

// ReferenceOption configures a Reference at construction.
type ReferenceOption func(*Reference)

// WithEagerResources adds bundles that are available without any fetch, keyed by language.
func WithEagerResources(resources map[string]Messages) ReferenceOption {
	return func(r *Reference) {
		for lang, messages := range resources {
			WithEagerResource(lang, messages)(r)
		}
	}
}

// WithEagerResource adds the bundle of a single language.
func WithEagerResource(lang string, messages Messages) ReferenceOption {
	return func(r *Reference) {
		if lang == "" {
			return
		}
		if r.eager == nil {
			r.eager = map[string]Messages{}
		}
		r.eager[lang] = messages.Clone()
	}
}

// WithLazyResources adds loaders keyed by language.
func WithLazyResources(loaders map[string]LazyLoader) ReferenceOption {
	return func(r *Reference) {
		for lang, loader := range loaders {
			WithLazyResource(lang, loader)(r)
		}
	}
}

// WithLazyResource adds the loader of a single language.
func WithLazyResource(lang string, loader LazyLoader) ReferenceOption {
	return func(r *Reference) {
		if lang == "" || loader == nil {
			return
		}
		if r.lazy == nil {
			r.lazy = map[string]LazyLoader{}
		}
		r.lazy[lang] = loader
	}
}

// NewReference creates a reference with a fresh handle. Two references sharing an id
// write to the same namespace but keep separate load bookkeeping.
func NewReference(id string, opts ...ReferenceOption) *Reference {
	ref := &Reference{
		id:     id,
		handle: xid.New().String(),
	}

	for _, opt := range opts {
		opt(ref)
	}

	return ref
}

// ID is the namespace the reference's bundles are stored under.
func (r *Reference) ID() string {
	return r.id
}

// Handle is the opaque identity used to key load bookkeeping.
func (r *Reference) Handle() string {
	return r.handle
}

// EagerResources returns a copy of the eagerly available bundles.
func (r *Reference) EagerResources() map[string]Messages {
	out := make(map[string]Messages, len(r.eager))
	for lang, messages := range r.eager {
		out[lang] = messages.Clone()
	}
	return out
}

func (r *Reference) HasEagerResources() bool {
	return len(r.eager) > 0
}

// LazyResources returns a copy of the loader table.
func (r *Reference) LazyResources() map[string]LazyLoader {
	return maps.Clone(r.lazy)
}

func (r *Reference) HasLazyResources() bool {
	return len(r.lazy) > 0
}

// Languages lists every language the reference can supply, sorted.
func (r *Reference) Languages() []string {
	languages := make([]string, 0, len(r.eager)+len(r.lazy))
	for lang := range r.eager {
		languages = append(languages, lang)
	}
	for lang := range r.lazy {
		if _, ok := r.eager[lang]; !ok {
			languages = append(languages, lang)
		}
	}
	slices.Sort(languages)
	return languages
}

func (r *Reference) String() string {
	return r.id + "#" + r.handle
}
