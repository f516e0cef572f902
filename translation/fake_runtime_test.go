package translation_test

import (
	"context"
	"sync"

	"github.com/pitabwire/lingo/localization"
	"github.com/pitabwire/lingo/translation"
)

type addCall struct {
	language  string
	namespace string
}

// fakeRuntime records every interaction and merges bundles without overwriting.
type fakeRuntime struct {
	mu sync.Mutex

	language   string
	rule       localization.FallbackRule
	hasBackend bool
	reloadErr  map[string]error
	remote     map[string]translation.Messages
	onReload   func()

	bundles   map[string]map[string]translation.Messages
	adds      []addCall
	reloads   []addCall
	events    []localization.Event
	listeners []localization.Listener
}

func newFakeRuntime(language string, fallbacks ...string) *fakeRuntime {
	return &fakeRuntime{
		language:  language,
		rule:      localization.FallbackRule{Languages: fallbacks},
		reloadErr: map[string]error{},
		remote:    map[string]translation.Messages{},
		bundles:   map[string]map[string]translation.Messages{},
	}
}

func (f *fakeRuntime) AddBundle(language, namespace string, messages translation.Messages) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.adds = append(f.adds, addCall{language: language, namespace: namespace})
	f.mergeLocked(language, namespace, messages, false)
}

func (f *fakeRuntime) mergeLocked(language, namespace string, messages translation.Messages, overwrite bool) {
	if f.bundles[language] == nil {
		f.bundles[language] = map[string]translation.Messages{}
	}
	bundle := f.bundles[language][namespace]
	if bundle == nil {
		bundle = translation.Messages{}
		f.bundles[language][namespace] = bundle
	}
	for k, v := range messages {
		if _, ok := bundle[k]; ok && !overwrite {
			continue
		}
		bundle[k] = v
	}
}

func (f *fakeRuntime) ReloadBundles(_ context.Context, languages, namespaces []string) error {
	if f.onReload != nil {
		f.onReload()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, lang := range languages {
		for _, ns := range namespaces {
			f.reloads = append(f.reloads, addCall{language: lang, namespace: ns})
			if err := f.reloadErr[lang]; err != nil {
				return err
			}
			if messages, ok := f.remote[lang]; ok {
				f.mergeLocked(lang, ns, messages, true)
			}
		}
	}
	return nil
}

func (f *fakeRuntime) Language() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.language
}

func (f *fakeRuntime) FallbackRule() localization.FallbackRule {
	return f.rule
}

func (f *fakeRuntime) ResolveFallbackChain(rule localization.FallbackRule, language string) []string {
	return localization.ResolveFallbackChain(rule, language)
}

func (f *fakeRuntime) HasBackend() bool {
	return f.hasBackend
}

func (f *fakeRuntime) Emit(ctx context.Context, event localization.Event) {
	f.mu.Lock()
	f.events = append(f.events, event)
	listeners := append([]localization.Listener(nil), f.listeners...)
	f.mu.Unlock()

	for _, listener := range listeners {
		listener(ctx, event)
	}
}

func (f *fakeRuntime) Subscribe(listener localization.Listener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, listener)
	return func() {}
}

func (f *fakeRuntime) setLanguage(ctx context.Context, language string) {
	f.mu.Lock()
	f.language = language
	f.mu.Unlock()
	f.Emit(ctx, localization.Event{Name: localization.EventLanguageChanged, Language: language})
}

func (f *fakeRuntime) bundle(language, namespace string) (translation.Messages, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bundle, ok := f.bundles[language][namespace]
	return bundle.Clone(), ok
}

func (f *fakeRuntime) addCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.adds)
}

func (f *fakeRuntime) reloadCalls() []addCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]addCall(nil), f.reloads...)
}

func (f *fakeRuntime) loadedEvents() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, event := range f.events {
		if event.Name == localization.EventLoaded {
			count++
		}
	}
	return count
}
