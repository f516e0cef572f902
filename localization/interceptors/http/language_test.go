package http_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pitabwire/lingo/localization"
	lhttp "github.com/pitabwire/lingo/localization/interceptors/http"
)

func TestLanguageHTTPMiddleware(t *testing.T) {
	testCases := []struct {
		name       string
		manager    localization.Manager
		acceptLang string
		expected   string
	}{
		{
			name:       "accept-language header",
			acceptLang: "en-US,en;q=0.9",
			expected:   "en-US,en",
		},
		{
			name:       "negotiated against supported languages",
			manager:    localization.NewManager(localization.WithLanguages("en", "sw")),
			acceptLang: "fr,sw",
			expected:   "sw,en",
		},
		{
			name:     "no header leaves context untouched",
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := lhttp.LanguageHTTPMiddleware(tc.manager, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(strings.Join(localization.FromContext(r.Context()), ",")))
			}))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tc.acceptLang != "" {
				req.Header.Set("Accept-Language", tc.acceptLang)
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tc.expected, w.Body.String())
		})
	}
}
