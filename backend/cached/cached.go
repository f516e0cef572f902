// Package cached decorates a translation backend with a cache-aside layer.
package cached

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pitabwire/util"
	"golang.org/x/sync/singleflight"

	"github.com/pitabwire/lingo/cache"
	"github.com/pitabwire/lingo/localization"
)

const (
	defaultTTL       = 10 * time.Minute
	defaultKeyPrefix = "lingo:bundle"
)

type bundleKey struct {
	language  string
	namespace string
}

// Option configures a Backend.
type Option func(*Backend)

// WithTTL sets how long fetched bundles stay cached.
func WithTTL(ttl time.Duration) Option {
	return func(b *Backend) {
		if ttl > 0 {
			b.ttl = ttl
		}
	}
}

// WithKeyPrefix namespaces the cache keys, useful when several services share a store.
func WithKeyPrefix(prefix string) Option {
	return func(b *Backend) {
		if prefix != "" {
			b.prefix = prefix
		}
	}
}

// WithNegativeCaching remembers bundles the source does not hold, as empty entries.
func WithNegativeCaching() Option {
	return func(b *Backend) {
		b.negative = true
	}
}

// Backend serves bundles from cache and fills misses from the wrapped source.
// Concurrent misses of the same bundle share one source read.
type Backend struct {
	source   localization.Backend
	cache    cache.Cache[bundleKey, localization.Messages]
	group    singleflight.Group
	prefix   string
	ttl      time.Duration
	negative bool
}

var _ localization.Backend = (*Backend)(nil)

// New wraps source with raw as the bundle store.
func New(source localization.Backend, raw cache.RawCache, opts ...Option) *Backend {
	b := &Backend{
		source: source,
		prefix: defaultKeyPrefix,
		ttl:    defaultTTL,
	}

	for _, opt := range opts {
		opt(b)
	}

	b.cache = cache.NewGenericCache[bundleKey, localization.Messages](raw, b.key)
	return b
}

func (b *Backend) key(k bundleKey) string {
	return fmt.Sprintf("%s:%s:%s", b.prefix, k.language, k.namespace)
}

func (b *Backend) Read(ctx context.Context, language, namespace string) (localization.Messages, error) {
	k := bundleKey{language: language, namespace: namespace}
	log := util.Log(ctx).WithField("language", language).WithField("namespace", namespace)

	messages, found, err := b.cache.Get(ctx, k)
	if err != nil {
		log.WithError(err).Warn("could not read cached bundle, using source")
	}
	if found {
		if messages == nil {
			return nil, fmt.Errorf("%w: %s/%s", localization.ErrBundleNotFound, language, namespace)
		}
		return messages, nil
	}

	v, err, _ := b.group.Do(b.key(k), func() (any, error) {
		fetched, readErr := b.source.Read(ctx, language, namespace)
		if readErr != nil {
			if b.negative && errors.Is(readErr, localization.ErrBundleNotFound) {
				b.store(ctx, k, nil)
			}
			return nil, readErr
		}

		b.store(ctx, k, fetched)
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}

	//nolint:errcheck // only localization.Messages is returned by the group
	return v.(localization.Messages).Clone(), nil
}

func (b *Backend) store(ctx context.Context, k bundleKey, messages localization.Messages) {
	err := b.cache.Set(ctx, k, messages, b.ttl)
	if err != nil {
		util.Log(ctx).WithError(err).
			WithField("language", k.language).
			WithField("namespace", k.namespace).
			Warn("could not cache bundle")
	}
}

// Invalidate drops the cached bundle so the next Read goes to the source.
func (b *Backend) Invalidate(ctx context.Context, language, namespace string) error {
	return b.cache.Delete(ctx, bundleKey{language: language, namespace: namespace})
}
