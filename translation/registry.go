package translation

import (
	"sync"
)

// LoadState is the lazy load progress of one language of one reference.
type LoadState int

const (
	Unattempted LoadState = iota
	Attempting
	Succeeded
	Failed
)

func (s LoadState) String() string {
	switch s {
	case Attempting:
		return "ATTEMPTING"
	case Succeeded:
		return "SUCCEEDED"
	case Failed:
		return "FAILED"
	default:
		return "UNATTEMPTED"
	}
}

// Attempted reports whether a load was ever started.
func (s LoadState) Attempted() bool {
	return s != Unattempted
}

// referenceCache is the bookkeeping kept per reference handle.
type referenceCache struct {
	ref       *Reference
	eager     map[string]struct{}
	lazy      map[string]LoadState
	overrides map[string]LazyLoader
}

// registry maps reference handles to their bookkeeping. Entries live until reset.
type registry struct {
	mu      sync.Mutex
	entries map[string]*referenceCache
	order   []string
}

func newRegistry() *registry {
	return &registry{entries: map[string]*referenceCache{}}
}

// entry returns the cache of ref, creating it on first use. Callers hold mu.
func (r *registry) entry(ref *Reference) *referenceCache {
	cache, ok := r.entries[ref.Handle()]
	if !ok {
		cache = &referenceCache{
			ref:       ref,
			eager:     map[string]struct{}{},
			lazy:      map[string]LoadState{},
			overrides: map[string]LazyLoader{},
		}
		r.entries[ref.Handle()] = cache
		r.order = append(r.order, ref.Handle())
	}
	return cache
}

// markEager records the languages of resources not installed yet and returns them.
func (r *registry) markEager(ref *Reference, languages []string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	cache := r.entry(ref)
	marked := make([]string, 0, len(languages))
	for _, lang := range languages {
		if _, ok := cache.eager[lang]; ok {
			continue
		}
		cache.eager[lang] = struct{}{}
		marked = append(marked, lang)
	}
	return marked
}

// markLazy moves every unattempted candidate to Attempting and returns them.
// Nothing is marked when active is non empty and already attempted.
func (r *registry) markLazy(ref *Reference, active string, candidates []string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	cache := r.entry(ref)
	if active != "" && cache.lazy[active].Attempted() {
		return nil
	}

	marked := make([]string, 0, len(candidates))
	for _, lang := range candidates {
		if cache.lazy[lang].Attempted() {
			continue
		}
		cache.lazy[lang] = Attempting
		marked = append(marked, lang)
	}
	return marked
}

// override registers loaders that take precedence over the reference's own.
func (r *registry) override(ref *Reference, loaders map[string]LazyLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cache := r.entry(ref)
	for lang, loader := range loaders {
		if lang != "" && loader != nil {
			cache.overrides[lang] = loader
		}
	}
}

// loaders returns the effective loader table of ref.
func (r *registry) loaders(ref *Reference) map[string]LazyLoader {
	r.mu.Lock()
	defer r.mu.Unlock()

	loaders := ref.LazyResources()
	if loaders == nil {
		loaders = map[string]LazyLoader{}
	}
	for lang, loader := range r.entry(ref).overrides {
		loaders[lang] = loader
	}
	return loaders
}

func (r *registry) settle(ref *Reference, lang string, state LoadState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entry(ref).lazy[lang] = state
}

func (r *registry) state(ref *Reference, lang string) LoadState {
	r.mu.Lock()
	defer r.mu.Unlock()

	cache, ok := r.entries[ref.Handle()]
	if !ok {
		return Unattempted
	}
	return cache.lazy[lang]
}

func (r *registry) eagerInstalled(ref *Reference, lang string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cache, ok := r.entries[ref.Handle()]
	if !ok {
		return false
	}
	_, installed := cache.eager[lang]
	return installed
}

// references lists registered references in registration order.
func (r *registry) references() []*Reference {
	r.mu.Lock()
	defer r.mu.Unlock()

	refs := make([]*Reference, 0, len(r.order))
	for _, handle := range r.order {
		refs = append(refs, r.entries[handle].ref)
	}
	return refs
}

func (r *registry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = map[string]*referenceCache{}
	r.order = nil
}
