package localization_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pitabwire/lingo/localization"
)

func TestFlatten(t *testing.T) {
	testCases := []struct {
		name     string
		input    map[string]any
		expected localization.Messages
	}{
		{
			name:     "flat strings are kept",
			input:    map[string]any{"title": "Catalog"},
			expected: localization.Messages{"title": "Catalog"},
		},
		{
			name: "nested objects are joined with dots",
			input: map[string]any{
				"page": map[string]any{
					"header": map[string]any{"title": "Catalog"},
				},
			},
			expected: localization.Messages{"page.header.title": "Catalog"},
		},
		{
			name: "plural objects become suffixed keys",
			input: map[string]any{
				"items": map[string]any{
					"description": "number of items",
					"one":         "{{.Count}} item",
					"other":       "{{.Count}} items",
				},
			},
			expected: localization.Messages{
				"items_one":   "{{.Count}} item",
				"items_other": "{{.Count}} items",
			},
		},
		{
			name: "objects with other and unrelated keys stay nested",
			input: map[string]any{
				"menu": map[string]any{"other": "More", "home": "Home"},
			},
			expected: localization.Messages{"menu.other": "More", "menu.home": "Home"},
		},
		{
			name:     "scalars are formatted and nil dropped",
			input:    map[string]any{"limit": 5, "enabled": true, "empty": nil},
			expected: localization.Messages{"limit": "5", "enabled": "true"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, localization.Flatten(tc.input))
		})
	}
}

func TestMessagesClone(t *testing.T) {
	original := localization.Messages{"a": "1"}
	clone := original.Clone()
	clone["a"] = "2"

	assert.Equal(t, "1", original["a"])
	assert.NotNil(t, localization.Messages(nil).Clone())
}
