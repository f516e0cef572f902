package localization

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pitabwire/util"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
)

const (
	defaultLanguage    = "en"
	namespaceSeparator = ":"
)

// Manager is the live i18n runtime: it owns the merged message bundles,
// the active language, the fallback rule and the optional backend.
type Manager interface {
	AddBundle(language, namespace string, messages Messages)
	ReloadBundles(ctx context.Context, languages, namespaces []string) error

	Language() string
	ChangeLanguage(ctx context.Context, language string) error
	Languages() []string

	FallbackRule() FallbackRule
	ResolveFallbackChain(rule FallbackRule, language string) []string

	HasBackend() bool

	Emit(ctx context.Context, event Event)
	Subscribe(listener Listener) func()

	Bundle(language, namespace string) (Messages, bool)
	Namespaces(language string) []string
	// I18nBundle exposes the underlying go-i18n bundle. It must not be used while bundles are still being added.
	I18nBundle() *i18n.Bundle

	Translate(ctx context.Context, request any, namespace, key string) string
	TranslateWithMap(ctx context.Context, request any, namespace, key string, variables map[string]any) string
	TranslateWithMapAndCount(
		ctx context.Context,
		request any,
		namespace, key string,
		variables map[string]any,
		count int,
	) string
}

type managerImpl struct {
	mu sync.RWMutex

	defaultLanguage string
	languages       []string
	activeLanguage  string
	fallbackRule    FallbackRule
	backend         Backend

	bundles map[string]map[string]Messages
	i18n    *i18n.Bundle

	listeners listeners
}

// Option configures a Manager.
type Option func(*managerImpl)

// WithDefaultLanguage sets the language selected when no other is requested.
func WithDefaultLanguage(lang string) Option {
	return func(m *managerImpl) {
		m.defaultLanguage = lang
	}
}

// WithLanguages restricts the languages ChangeLanguage accepts.
func WithLanguages(languages ...string) Option {
	return func(m *managerImpl) {
		m.languages = dedupe(languages)
	}
}

// WithFallbackRule sets the rule used to expand a language into its fallback chain.
func WithFallbackRule(rule FallbackRule) Option {
	return func(m *managerImpl) {
		m.fallbackRule = rule
	}
}

// WithBackend enables backend driven reloads of bundles.
func WithBackend(backend Backend) Option {
	return func(m *managerImpl) {
		m.backend = backend
	}
}

// WithInitialLanguage sets the active language at construction time.
func WithInitialLanguage(lang string) Option {
	return func(m *managerImpl) {
		m.activeLanguage = lang
	}
}

// NewManager creates an in process runtime backed by a go-i18n bundle.
func NewManager(opts ...Option) Manager {
	m := &managerImpl{
		defaultLanguage: defaultLanguage,
		bundles:         map[string]map[string]Messages{},
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.defaultLanguage == "" {
		m.defaultLanguage = defaultLanguage
	}
	if m.activeLanguage == "" {
		m.activeLanguage = m.initialLanguage()
	}

	m.i18n = i18n.NewBundle(language.Make(m.defaultLanguage))
	return m
}

func (m *managerImpl) initialLanguage() string {
	if slices.Contains(m.languages, m.defaultLanguage) || len(m.languages) == 0 {
		return m.defaultLanguage
	}
	return m.languages[0]
}

// AddBundle merges messages into the bundle without overwriting keys that already exist.
func (m *managerImpl) AddBundle(lang, namespace string, messages Messages) {
	if lang == "" || len(messages) == 0 {
		return
	}

	m.mu.Lock()
	bundle := m.bundleFor(lang, namespace)
	var added []string
	for key, value := range messages {
		if _, ok := bundle[key]; ok {
			continue
		}
		bundle[key] = value
		added = append(added, key)
	}
	err := m.syncI18n(lang, namespace, bundle, added)
	m.mu.Unlock()

	if err != nil {
		util.Log(context.Background()).WithError(err).
			WithField("language", lang).
			WithField("namespace", namespace).
			Warn("could not register messages for rendering")
	}

	if len(added) > 0 {
		m.Emit(context.Background(), Event{Name: EventAdded, Language: lang, Namespace: namespace})
	}
}

// overrideBundle applies backend data, which is authoritative over what is already held.
func (m *managerImpl) overrideBundle(lang, namespace string, messages Messages) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bundle := m.bundleFor(lang, namespace)
	keys := make([]string, 0, len(messages))
	for key, value := range messages {
		bundle[key] = value
		keys = append(keys, key)
	}
	return m.syncI18n(lang, namespace, bundle, keys)
}

func (m *managerImpl) bundleFor(lang, namespace string) Messages {
	byNamespace, ok := m.bundles[lang]
	if !ok {
		byNamespace = map[string]Messages{}
		m.bundles[lang] = byNamespace
	}

	bundle, ok := byNamespace[namespace]
	if !ok {
		bundle = Messages{}
		byNamespace[namespace] = bundle
	}
	return bundle
}

// syncI18n rebuilds the go-i18n messages touched by keys. Callers hold the write lock.
func (m *managerImpl) syncI18n(lang, namespace string, bundle Messages, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	seen := map[string]struct{}{}
	messages := make([]*i18n.Message, 0, len(keys))
	for _, key := range keys {
		if base, _, ok := pluralBase(key); ok {
			key = base
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		messages = append(messages, buildMessage(namespace, key, bundle))
	}

	return m.i18n.AddMessages(language.Make(lang), messages...)
}

func buildMessage(namespace, key string, bundle Messages) *i18n.Message {
	msg := &i18n.Message{ID: messageID(namespace, key)}

	forms := map[string]string{}
	for _, category := range pluralCategories {
		if form, ok := bundle[key+"_"+category]; ok {
			forms[category] = form
		}
	}

	if len(forms) == 0 {
		msg.Other = bundle[key]
		return msg
	}

	other := forms["other"]
	if other == "" {
		other = forms["one"]
	}
	if other == "" {
		other = bundle[key]
	}

	fill := func(category string) string {
		if form, ok := forms[category]; ok {
			return form
		}
		return other
	}

	msg.Zero = fill("zero")
	msg.One = fill("one")
	msg.Two = fill("two")
	msg.Few = fill("few")
	msg.Many = fill("many")
	msg.Other = other
	return msg
}

func messageID(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return namespace + namespaceSeparator + key
}

// ReloadBundles fetches every (language, namespace) pair from the backend concurrently.
// A bundle missing from the backend is not an error; all other failures are joined.
func (m *managerImpl) ReloadBundles(ctx context.Context, languages, namespaces []string) error {
	if m.backend == nil {
		return nil
	}

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)

	for _, lang := range dedupe(languages) {
		for _, namespace := range namespaces {
			g.Go(func() error {
				err := m.reloadBundle(ctx, lang, namespace)
				if err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
				return nil
			})
		}
	}

	_ = g.Wait()
	return errors.Join(errs...)
}

func (m *managerImpl) reloadBundle(ctx context.Context, lang, namespace string) error {
	log := util.Log(ctx).WithField("language", lang).WithField("namespace", namespace)

	messages, err := m.backend.Read(ctx, lang, namespace)
	if err != nil {
		if errors.Is(err, ErrBundleNotFound) {
			log.Debug("backend holds no bundle")
			return nil
		}
		return fmt.Errorf("reload %s/%s: %w", lang, namespace, err)
	}

	if len(messages) == 0 {
		return nil
	}

	err = m.overrideBundle(lang, namespace, messages)
	if err != nil {
		log.WithError(err).Warn("could not register reloaded messages for rendering")
	}

	m.Emit(ctx, Event{Name: EventAdded, Language: lang, Namespace: namespace})
	return nil
}

func (m *managerImpl) Language() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeLanguage
}

// ChangeLanguage switches the active language, an empty value selects the initial language.
func (m *managerImpl) ChangeLanguage(ctx context.Context, lang string) error {
	m.mu.Lock()
	if lang == "" {
		lang = m.initialLanguage()
	}
	if len(m.languages) > 0 && !slices.Contains(m.languages, lang) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}

	changed := m.activeLanguage != lang
	m.activeLanguage = lang
	m.mu.Unlock()

	if changed {
		m.Emit(ctx, Event{Name: EventLanguageChanged, Language: lang})
	}
	return nil
}

// Languages lists the supported languages, or the languages holding bundles when none were configured.
func (m *managerImpl) Languages() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.languages) > 0 {
		return slices.Clone(m.languages)
	}

	languages := make([]string, 0, len(m.bundles))
	for lang := range m.bundles {
		languages = append(languages, lang)
	}
	slices.Sort(languages)
	return languages
}

func (m *managerImpl) FallbackRule() FallbackRule {
	return m.fallbackRule
}

func (m *managerImpl) ResolveFallbackChain(rule FallbackRule, lang string) []string {
	return ResolveFallbackChain(rule, lang)
}

func (m *managerImpl) HasBackend() bool {
	return m.backend != nil
}

func (m *managerImpl) Emit(ctx context.Context, event Event) {
	m.listeners.emit(ctx, event)
}

// Subscribe registers listener for every emitted event and returns a function removing it.
func (m *managerImpl) Subscribe(listener Listener) func() {
	return m.listeners.add(listener)
}

// Bundle returns a copy of the messages held for language and namespace.
func (m *managerImpl) Bundle(lang, namespace string) (Messages, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bundle, ok := m.bundles[lang][namespace]
	if !ok {
		return nil, false
	}
	return bundle.Clone(), true
}

func (m *managerImpl) Namespaces(lang string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	namespaces := make([]string, 0, len(m.bundles[lang]))
	for namespace := range m.bundles[lang] {
		namespaces = append(namespaces, namespace)
	}
	slices.Sort(namespaces)
	return namespaces
}

func (m *managerImpl) I18nBundle() *i18n.Bundle {
	return m.i18n
}
