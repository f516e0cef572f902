package localization

import (
	"context"
	"net/http"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pitabwire/util"
)

// Translate performs a quick translation of key from namespace.
func (m *managerImpl) Translate(ctx context.Context, request any, namespace, key string) string {
	return m.TranslateWithMap(ctx, request, namespace, key, map[string]any{})
}

// TranslateWithMap performs a translation with template variables.
func (m *managerImpl) TranslateWithMap(
	ctx context.Context,
	request any,
	namespace, key string,
	variables map[string]any,
) string {
	return m.translate(ctx, request, namespace, key, variables, nil)
}

// TranslateWithMapAndCount performs a translation with template variables and pluralizes on count.
func (m *managerImpl) TranslateWithMapAndCount(
	ctx context.Context,
	request any,
	namespace, key string,
	variables map[string]any,
	count int,
) string {
	return m.translate(ctx, request, namespace, key, variables, &count)
}

func (m *managerImpl) translate(
	ctx context.Context,
	request any,
	namespace, key string,
	variables map[string]any,
	count *int,
) string {
	requested, ok := m.requestedLanguages(request)
	if !ok {
		util.Log(ctx).WithField("namespace", namespace).WithField("key", key).
			Warn("no valid request object found, use string, []string, context or http.Request")
		return key
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, lang := range m.candidateLanguages(requested) {
		raw, plural, found := m.lookup(lang, namespace, key)
		if !found {
			continue
		}

		cfg := &i18n.LocalizeConfig{
			MessageID:    messageID(namespace, key),
			TemplateData: variables,
		}
		if plural && count != nil {
			cfg.PluralCount = *count
		}

		rendered, err := i18n.NewLocalizer(m.i18n, lang).Localize(cfg)
		if err != nil {
			util.Log(ctx).WithError(err).
				WithField("language", lang).
				WithField("namespace", namespace).
				WithField("key", key).
				Debug("could not render message, using raw value")
			return raw
		}
		return rendered
	}

	return key
}

func (m *managerImpl) requestedLanguages(request any) ([]string, bool) {
	var languages []string

	switch v := request.(type) {
	case nil:
	case *http.Request:
		languages = ExtractLanguageFromHTTPRequest(v)
	case context.Context:
		languages = FromContext(v)
		if len(languages) == 0 {
			languages = ExtractLanguageFromGrpcRequest(v)
		}
	case string:
		if v != "" {
			languages = []string{v}
		}
	case []string:
		languages = v
	default:
		return nil, false
	}

	return languages, true
}

// candidateLanguages expands the requested languages with their fallback chains, then the active language.
// Callers hold the read lock.
func (m *managerImpl) candidateLanguages(requested []string) []string {
	candidates := make([]string, 0, len(requested)*2+2)
	for _, lang := range requested {
		candidates = append(candidates, lang)
		candidates = append(candidates, ResolveFallbackChain(m.fallbackRule, lang)...)
	}

	candidates = append(candidates, m.activeLanguage)
	candidates = append(candidates, ResolveFallbackChain(m.fallbackRule, m.activeLanguage)...)
	return dedupe(candidates)
}

// lookup finds key in a bundle, reporting whether it is a plural group. Callers hold the read lock.
func (m *managerImpl) lookup(lang, namespace, key string) (string, bool, bool) {
	bundle, ok := m.bundles[lang][namespace]
	if !ok {
		return "", false, false
	}

	for _, category := range pluralCategories {
		if form, found := bundle[key+"_"+category]; found {
			if other, hasOther := bundle[key+"_other"]; hasOther {
				form = other
			}
			return form, true, true
		}
	}

	value, ok := bundle[key]
	return value, false, ok
}
