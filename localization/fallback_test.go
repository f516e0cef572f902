package localization_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitabwire/lingo/localization"
)

func TestResolveFallbackChain(t *testing.T) {
	testCases := []struct {
		name     string
		rule     localization.FallbackRule
		language string
		expected []string
	}{
		{
			name:     "empty rule yields nothing",
			rule:     localization.FallbackRule{},
			language: "fr",
			expected: []string{},
		},
		{
			name:     "default languages",
			rule:     localization.FallbackRule{Languages: []string{"en", "fr", "en"}},
			language: "sw",
			expected: []string{"en", "fr"},
		},
		{
			name: "exact language mapping",
			rule: localization.FallbackRule{
				ByLanguage: map[string][]string{"de-CH": {"de", "fr"}, "default": {"en"}},
			},
			language: "de-CH",
			expected: []string{"de", "fr"},
		},
		{
			name: "base language mapping",
			rule: localization.FallbackRule{
				ByLanguage: map[string][]string{"de": {"en"}},
			},
			language: "de-AT",
			expected: []string{"en"},
		},
		{
			name: "script mapping",
			rule: localization.FallbackRule{
				ByLanguage: map[string][]string{"zh-Hant": {"zh"}, "zh": {"en"}},
			},
			language: "zh-Hant-TW",
			expected: []string{"zh"},
		},
		{
			name: "default key when nothing matches",
			rule: localization.FallbackRule{
				ByLanguage: map[string][]string{"de": {"en"}, "default": {"fr"}},
			},
			language: "pt",
			expected: []string{"fr"},
		},
		{
			name: "mapping without default uses languages",
			rule: localization.FallbackRule{
				Languages:  []string{"en"},
				ByLanguage: map[string][]string{"de": {"fr"}},
			},
			language: "pt",
			expected: []string{"en"},
		},
		{
			name: "function overrides other settings",
			rule: localization.FallbackRule{
				Languages: []string{"en"},
				Func: func(language string) []string {
					return []string{language + "-x", "sw", "sw"}
				},
			},
			language: "fr",
			expected: []string{"fr-x", "sw"},
		},
		{
			name:     "decomposition prepends parents",
			rule:     localization.FallbackRule{Languages: []string{"en"}, Decompose: true},
			language: "de-CH",
			expected: []string{"de", "en"},
		},
		{
			name:     "decomposition skips the world english parent",
			rule:     localization.FallbackRule{Languages: []string{"en"}, Decompose: true},
			language: "en-GB",
			expected: []string{"en"},
		},
		{
			name:     "decomposition skips the latin american spanish parent",
			rule:     localization.FallbackRule{Languages: []string{"en"}, Decompose: true},
			language: "es-MX",
			expected: []string{"es", "en"},
		},
		{
			name:     "decomposition keeps the script",
			rule:     localization.FallbackRule{Languages: []string{"en"}, Decompose: true},
			language: "zh-Hant-TW",
			expected: []string{"zh-Hant", "zh", "en"},
		},
		{
			name:     "decomposition of a base language adds nothing",
			rule:     localization.FallbackRule{Languages: []string{"en"}, Decompose: true},
			language: "fr",
			expected: []string{"en"},
		},
		{
			name:     "empty language uses defaults",
			rule:     localization.FallbackRule{Languages: []string{"en"}, Decompose: true},
			language: "",
			expected: []string{"en"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			chain := localization.ResolveFallbackChain(tc.rule, tc.language)
			assert.Equal(t, tc.expected, chain)
			assert.Equal(t, chain, localization.ResolveFallbackChain(tc.rule, tc.language))
		})
	}
}

func TestParseFallbackRule(t *testing.T) {
	rule, err := localization.ParseFallbackRule([]string{"en", " "}, "de-CH=de,fr; pt-BR=pt;", true)
	require.NoError(t, err)

	assert.Equal(t, []string{"en"}, rule.Languages)
	assert.True(t, rule.Decompose)
	assert.Equal(t, map[string][]string{
		"de-CH":   {"de", "fr"},
		"pt-BR":   {"pt"},
		"default": {"en"},
	}, rule.ByLanguage)

	assert.Equal(t, []string{"de", "fr"}, localization.ResolveFallbackChain(rule, "de-CH"))
	assert.Equal(t, []string{"en"}, localization.ResolveFallbackChain(rule, "sw"))

	_, err = localization.ParseFallbackRule(nil, "=de", false)
	require.ErrorIs(t, err, localization.ErrInvalidFallbackMapping)

	_, err = localization.ParseFallbackRule(nil, "de-CH", false)
	require.ErrorIs(t, err, localization.ErrInvalidFallbackMapping)

	rule, err = localization.ParseFallbackRule([]string{"en"}, "", false)
	require.NoError(t, err)
	assert.Nil(t, rule.ByLanguage)
	assert.False(t, rule.IsZero())
	assert.True(t, localization.FallbackRule{}.IsZero())
}
