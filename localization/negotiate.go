package localization

import (
	"golang.org/x/text/language"
)

// Negotiate narrows requested languages to those m supports, ending with the active language.
// When m declares no supported languages the requested ones are kept as is.
func Negotiate(m Manager, requested []string) []string {
	if m == nil {
		return dedupe(requested)
	}

	active := m.Language()
	supported := m.Languages()
	if len(supported) == 0 {
		return dedupe(append(append([]string{}, requested...), active))
	}

	tags := make([]language.Tag, 0, len(supported))
	for _, lang := range supported {
		tags = append(tags, language.Make(lang))
	}
	matcher := language.NewMatcher(tags)

	negotiated := make([]string, 0, len(requested)+1)
	for _, lang := range requested {
		tag, err := language.Parse(lang)
		if err != nil {
			continue
		}
		_, index, confidence := matcher.Match(tag)
		if confidence == language.No {
			continue
		}
		negotiated = append(negotiated, supported[index])
	}

	return dedupe(append(negotiated, active))
}
