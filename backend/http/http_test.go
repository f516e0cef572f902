package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lhttp "github.com/pitabwire/lingo/backend/http"
	"github.com/pitabwire/lingo/localization"
)

func newServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /locales/fr/catalog.json", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("X-Api-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title": "Catalogue", "items": {"one": "{{.Count}} article", "other": "{{.Count}} articles"}}`))
	})
	mux.HandleFunc("GET /locales/de/catalog.json", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("GET /locales/es/catalog.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"title": `))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewRequiresPlaceholders(t *testing.T) {
	_, err := lhttp.New("https://example.com/locales/bundle.json")
	require.Error(t, err)

	b, err := lhttp.New("https://example.com/locales/{{lng}}/{{ns}}.json")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/locales/pt-BR/common.json", b.URL("pt-BR", "common"))
}

func TestRead(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)

	b, err := lhttp.New(srv.URL+"/locales/{{lng}}/{{ns}}.json",
		lhttp.WithHeader("X-Api-Key", "secret"))
	require.NoError(t, err)

	ctx := context.Background()

	testCases := []struct {
		name     string
		language string
		expected localization.Messages
		notFound bool
		failure  bool
	}{
		{
			name:     "bundle is flattened",
			language: "fr",
			expected: localization.Messages{
				"title":       "Catalogue",
				"items_one":   "{{.Count}} article",
				"items_other": "{{.Count}} articles",
			},
		},
		{name: "missing bundle", language: "it", notFound: true},
		{name: "server failure", language: "de", failure: true},
		{name: "malformed body", language: "es", failure: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			messages, readErr := b.Read(ctx, tc.language, "catalog")
			switch {
			case tc.notFound:
				require.ErrorIs(t, readErr, localization.ErrBundleNotFound)
			case tc.failure:
				require.Error(t, readErr)
				assert.NotErrorIs(t, readErr, localization.ErrBundleNotFound)
			default:
				require.NoError(t, readErr)
				assert.Equal(t, tc.expected, messages)
			}
		})
	}

	assert.Equal(t, int32(1), hits.Load())
}

func TestReadSizeLimit(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)

	b, err := lhttp.New(srv.URL+"/locales/{{lng}}/{{ns}}.json",
		lhttp.WithClient(srv.Client()),
		lhttp.WithHeader("X-Api-Key", "secret"),
		lhttp.WithMaxResponseSize(8))
	require.NoError(t, err)

	_, err = b.Read(context.Background(), "fr", "catalog")
	require.ErrorIs(t, err, lhttp.ErrResponseTooLarge)
}
