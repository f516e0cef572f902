package cache

import (
	"errors"
	"sync"
)

type manager struct {
	caches sync.Map // map[string]RawCache
}

// NewManager creates an empty registry of named caches.
func NewManager() Manager {
	return &manager{}
}

func (cm *manager) AddCache(name string, cache RawCache) {
	cm.caches.Store(name, cache)
}

func (cm *manager) GetRawCache(name string) (RawCache, bool) {
	c, ok := cm.caches.Load(name)
	if !ok {
		return nil, false
	}
	rawCache, ok := c.(RawCache)
	return rawCache, ok
}

// GetCache returns a typed view of the named cache.
func GetCache[K comparable, V any](
	manager Manager,
	name string,
	keyFunc func(K) string,
) (Cache[K, V], bool) {
	raw, ok := manager.GetRawCache(name)
	if !ok {
		return nil, false
	}
	return NewGenericCache[K, V](raw, keyFunc), true
}

// RemoveCache removes and closes the named cache.
func (cm *manager) RemoveCache(name string) error {
	c, ok := cm.caches.LoadAndDelete(name)
	if !ok {
		return nil
	}
	rawCache, ok := c.(RawCache)
	if !ok {
		return nil
	}
	return rawCache.Close()
}

// Close closes every managed cache.
func (cm *manager) Close() error {
	var errs []error

	cm.caches.Range(func(name, value any) bool {
		if rawCache, ok := value.(RawCache); ok {
			errs = append(errs, rawCache.Close())
		}
		cm.caches.Delete(name)
		return true
	})

	return errors.Join(errs...)
}
