package localization

import (
	"fmt"
	"maps"
	"strings"
)

// Messages is a flat bundle of message key to localized string for one (namespace, language) pair.
type Messages map[string]string

// Clone returns an independent copy of the bundle.
func (m Messages) Clone() Messages {
	if m == nil {
		return Messages{}
	}
	return maps.Clone(m)
}

const keySeparator = "."

//nolint:gochecknoglobals // CLDR plural categories understood by go-i18n
var pluralCategories = []string{"zero", "one", "two", "few", "many", "other"}

//nolint:gochecknoglobals // metadata keys allowed next to plural forms in go-i18n message files
var pluralMetadata = map[string]struct{}{
	"id":          {},
	"description": {},
	"hash":        {},
	"leftdelim":   {},
	"rightdelim":  {},
}

// Flatten converts decoded nested message documents into a flat bundle.
// Nested objects are joined with "." and go-i18n style plural objects
// ({"one": "...", "other": "..."}) become key_one, key_other entries.
func Flatten(data map[string]any) Messages {
	out := Messages{}
	flattenInto(out, "", data)
	return out
}

func flattenInto(out Messages, prefix string, data map[string]any) {
	for k, v := range data {
		key := k
		if prefix != "" {
			key = prefix + keySeparator + k
		}

		switch val := v.(type) {
		case nil:
		case string:
			out[key] = val
		case map[string]any:
			if isPluralForm(val) {
				for _, category := range pluralCategories {
					if form, ok := val[category].(string); ok && form != "" {
						out[key+"_"+category] = form
					}
				}
				continue
			}
			flattenInto(out, key, val)
		case map[any]any:
			converted := make(map[string]any, len(val))
			for ik, iv := range val {
				converted[fmt.Sprint(ik)] = iv
			}
			flattenInto(out, prefix, map[string]any{k: converted})
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

func isPluralForm(data map[string]any) bool {
	if _, ok := data["other"].(string); !ok {
		return false
	}

	for k := range data {
		lower := strings.ToLower(k)
		if _, ok := pluralMetadata[lower]; ok {
			continue
		}
		if !isPluralCategory(lower) {
			return false
		}
	}
	return true
}

func isPluralCategory(s string) bool {
	for _, category := range pluralCategories {
		if s == category {
			return true
		}
	}
	return false
}

// pluralBase returns the message key without its plural suffix when key is a plural variant.
func pluralBase(key string) (string, string, bool) {
	idx := strings.LastIndex(key, "_")
	if idx <= 0 || idx == len(key)-1 {
		return "", "", false
	}

	category := key[idx+1:]
	if !isPluralCategory(category) {
		return "", "", false
	}
	return key[:idx], category, true
}
