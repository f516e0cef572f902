package lingo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pitabwire/lingo/cache"
	"github.com/pitabwire/lingo/cache/redis"
	"github.com/pitabwire/lingo/cache/valkey"
)

// WithCacheManager adds a cache manager to the service, closed on Stop.
func WithCacheManager() Option {
	return func(_ context.Context, s *Service) {
		if s.cacheManager != nil {
			return
		}

		s.cacheManager = cache.NewManager()
		s.AddCleanupMethod(func(ctx context.Context) {
			if err := s.cacheManager.Close(); err != nil {
				s.Log(ctx).WithError(err).Warn("could not close caches")
			}
		})
	}
}

// WithCache stores bundles fetched from the backend in raw for ttl.
func WithCache(raw cache.RawCache, ttl time.Duration) Option {
	return func(_ context.Context, s *Service) {
		s.bundleCache = &bundleCache{raw: raw, ttl: ttl}
	}
}

// WithInMemoryCache caches fetched bundles in process for ttl.
func WithInMemoryCache(ttl time.Duration) Option {
	return WithCache(cache.NewInMemoryCache(), ttl)
}

func (s *Service) CacheManager() cache.Manager {
	return s.cacheManager
}

// cacheFromURI opens the store named by uri: mem://, redis://, rediss:// or valkey://.
func (s *Service) cacheFromURI(uri string, maxAge time.Duration) (cache.RawCache, error) {
	opts := []cache.Option{
		cache.WithURI(uri),
		cache.WithName(s.Name()),
		cache.WithMaxAge(maxAge),
	}

	lower := strings.ToLower(uri)
	switch {
	case strings.HasPrefix(lower, "mem://"):
		return cache.NewInMemoryCache(), nil
	case strings.HasPrefix(lower, "redis://"), strings.HasPrefix(lower, "rediss://"):
		return redis.New(opts...)
	case strings.HasPrefix(lower, "valkey://"):
		return valkey.New(opts...)
	}

	return nil, fmt.Errorf("unsupported translations cache uri: %s", uri)
}
