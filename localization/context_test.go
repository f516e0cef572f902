package localization_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/metadata"

	"github.com/pitabwire/lingo/localization"
)

func TestLanguageContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, localization.FromContext(ctx))

	ctx = localization.ToContext(ctx, []string{"sw", "en"})
	assert.Equal(t, []string{"sw", "en"}, localization.FromContext(ctx))
}

func TestLanguageMap(t *testing.T) {
	m := localization.ToMap(map[string]string{"world": "data"}, []string{"en", "sw"})
	assert.Equal(t, "data", m["world"])
	assert.Equal(t, []string{"en", "sw"}, localization.FromMap(m))
	assert.Nil(t, localization.FromMap(map[string]string{}))
}

func TestExtractLanguage(t *testing.T) {
	testCases := []struct {
		name     string
		header   string
		query    string
		expected []string
	}{
		{name: "quality weights are dropped", header: "en-US,en;q=0.9", expected: []string{"en-US", "en"}},
		{name: "wildcard is ignored", header: "sw, *;q=0.1", expected: []string{"sw"}},
		{name: "query comes first", header: "en", query: "sw", expected: []string{"sw", "en"}},
		{name: "nothing supplied", expected: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			target := "/"
			if tc.query != "" {
				target += "?lang=" + tc.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tc.header != "" {
				req.Header.Set("Accept-Language", tc.header)
			}
			assert.Equal(t, tc.expected, localization.ExtractLanguageFromHTTPRequest(req))

			md := metadata.New(map[string]string{"accept-language": tc.header})
			ctx := metadata.NewIncomingContext(context.Background(), md)
			if tc.header == "" {
				assert.Nil(t, localization.ExtractLanguageFromGrpcRequest(ctx))
			} else {
				assert.Equal(t, localization.ExtractLanguageFromHTTPHeader(req.Header), localization.ExtractLanguageFromGrpcRequest(ctx))
			}
		})
	}

	assert.Nil(t, localization.ExtractLanguageFromGrpcRequest(context.Background()))
}
