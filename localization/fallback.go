package localization

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// FallbackRule describes how a language resolves to the ordered list of languages tried after it.
type FallbackRule struct {
	// Languages is the default chain used when nothing more specific matches.
	Languages []string
	// ByLanguage maps a language code to its own chain. Lookup tries the exact code,
	// then language-script, then the base language, then Languages.
	ByLanguage map[string][]string
	// Func overrides Languages and ByLanguage when set.
	Func func(language string) []string
	// Decompose prepends the script and base forms of the language (de-CH resolves de first).
	Decompose bool
}

// IsZero reports whether the rule yields no fallbacks at all.
func (r FallbackRule) IsZero() bool {
	return len(r.Languages) == 0 && len(r.ByLanguage) == 0 && r.Func == nil && !r.Decompose
}

// ResolveFallbackChain expands rule for language into an ordered, duplicate free chain.
// The language itself is never part of the chain unless a rule lists it explicitly.
func ResolveFallbackChain(rule FallbackRule, lang string) []string {
	var chain []string

	if rule.Decompose && lang != "" {
		chain = append(chain, parentLanguages(lang)...)
	}

	switch {
	case rule.Func != nil:
		chain = append(chain, rule.Func(lang)...)
	case len(rule.ByLanguage) > 0:
		chain = append(chain, lookupByLanguage(rule, lang)...)
	default:
		chain = append(chain, rule.Languages...)
	}

	return dedupe(chain)
}

func lookupByLanguage(rule FallbackRule, lang string) []string {
	if lang != "" {
		for _, candidate := range lookupCandidates(lang) {
			if chain, ok := rule.ByLanguage[candidate]; ok {
				return chain
			}
		}
	}

	if chain, ok := rule.ByLanguage["default"]; ok {
		return chain
	}

	return rule.Languages
}

// lookupCandidates lists the exact code, its canonical form, language-script and base language.
func lookupCandidates(lang string) []string {
	candidates := []string{lang}

	tag, err := language.Parse(lang)
	if err != nil {
		if base, _, found := strings.Cut(lang, "-"); found {
			candidates = append(candidates, base)
		}
		return dedupe(candidates)
	}

	candidates = append(candidates, tag.String())

	base, baseConfidence := tag.Base()
	script, scriptConfidence := tag.Script()
	if scriptConfidence == language.Exact || scriptConfidence == language.High {
		if strings.Contains(lang, "-"+script.String()) {
			candidates = append(candidates, base.String()+"-"+script.String())
		}
	}
	if baseConfidence != language.No {
		candidates = append(candidates, base.String())
	}

	return dedupe(candidates)
}

// parentLanguages lists the language-script form and the base language of lang,
// most specific first. CLDR parents such as en-001 or es-419 are not used.
func parentLanguages(lang string) []string {
	tag, err := language.Parse(lang)
	if err != nil {
		return nil
	}

	base, script, region := tag.Raw()

	var parents []string
	if script != (language.Script{}) && region != (language.Region{}) {
		parents = append(parents, base.String()+"-"+script.String())
	}
	if b := base.String(); b != tag.String() && b != "und" {
		parents = append(parents, b)
	}
	return parents
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

var ErrInvalidFallbackMapping = errors.New("invalid fallback language mapping")

// ParseFallbackRule builds a rule from configuration values.
// mapping has the form "de-CH=de,fr;pt-BR=pt".
func ParseFallbackRule(defaults []string, mapping string, decompose bool) (FallbackRule, error) {
	rule := FallbackRule{
		Languages: dedupe(defaults),
		Decompose: decompose,
	}

	mapping = strings.TrimSpace(mapping)
	if mapping == "" {
		return rule, nil
	}

	rule.ByLanguage = map[string][]string{}
	for entry := range strings.SplitSeq(mapping, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		lang, chain, found := strings.Cut(entry, "=")
		lang = strings.TrimSpace(lang)
		if !found || lang == "" {
			return FallbackRule{}, fmt.Errorf("%w: %q", ErrInvalidFallbackMapping, entry)
		}

		rule.ByLanguage[lang] = dedupe(strings.Split(chain, ","))
	}

	if _, ok := rule.ByLanguage["default"]; !ok && len(rule.Languages) > 0 {
		rule.ByLanguage["default"] = rule.Languages
	}

	return rule, nil
}
