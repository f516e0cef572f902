// Package http fetches translation bundles from a remote server.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pitabwire/util"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pitabwire/lingo/localization"
)

const (
	languagePlaceholder  = "{{lng}}"
	namespacePlaceholder = "{{ns}}"

	defaultTimeout         = 30 * time.Second
	defaultMaxResponseSize = 10 << 20
)

// ErrResponseTooLarge is returned when a bundle exceeds the configured size limit.
var ErrResponseTooLarge = errors.New("translation response exceeds size limit")

// Option configures a Backend.
type Option func(*Backend)

// WithClient replaces the HTTP client, its transport is used as is.
func WithClient(client *http.Client) Option {
	return func(b *Backend) {
		b.client = client
	}
}

// WithTimeout sets the request timeout of the default client.
func WithTimeout(timeout time.Duration) Option {
	return func(b *Backend) {
		b.client.Timeout = timeout
	}
}

// WithHeader adds a header to every request, e.g. an API key.
func WithHeader(key, value string) Option {
	return func(b *Backend) {
		b.headers.Add(key, value)
	}
}

// WithMaxResponseSize caps the bundle body read from the server.
func WithMaxResponseSize(size int64) Option {
	return func(b *Backend) {
		b.maxResponseSize = size
	}
}

// Backend reads bundles by expanding a load path such as
// https://cdn.example.com/locales/{{lng}}/{{ns}}.json.
type Backend struct {
	loadPath        string
	client          *http.Client
	headers         http.Header
	maxResponseSize int64
}

var _ localization.Backend = (*Backend)(nil)

// New creates a backend for loadPath, the default client is traced through otelhttp.
func New(loadPath string, opts ...Option) (*Backend, error) {
	if !strings.Contains(loadPath, languagePlaceholder) && !strings.Contains(loadPath, namespacePlaceholder) {
		return nil, fmt.Errorf("load path %q has neither %s nor %s", loadPath, languagePlaceholder, namespacePlaceholder)
	}

	b := &Backend{
		loadPath: loadPath,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		},
		headers:         http.Header{},
		maxResponseSize: defaultMaxResponseSize,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

// URL expands the load path for a language and namespace.
func (b *Backend) URL(language, namespace string) string {
	return strings.NewReplacer(
		languagePlaceholder, url.PathEscape(language),
		namespacePlaceholder, url.PathEscape(namespace),
	).Replace(b.loadPath)
}

// Read fetches and flattens the JSON bundle, a 404 reports localization.ErrBundleNotFound.
func (b *Backend) Read(ctx context.Context, language, namespace string) (localization.Messages, error) {
	endpoint := b.URL(language, namespace)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for key, values := range b.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	defer util.CloseAndLogOnError(ctx, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s/%s", localization.ErrBundleNotFound, language, namespace)
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return nil, fmt.Errorf("fetch %s: unexpected status %d", endpoint, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, b.maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", endpoint, err)
	}
	if int64(len(data)) > b.maxResponseSize {
		return nil, ErrResponseTooLarge
	}

	var doc map[string]any
	if err = json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", endpoint, err)
	}

	return localization.Flatten(doc), nil
}
