package localization

import (
	"context"
	"errors"
)

var (
	// ErrBundleNotFound is returned by a Backend that holds nothing for a (language, namespace) pair.
	ErrBundleNotFound = errors.New("translation bundle not found")
	// ErrUnsupportedLanguage is returned when switching to a language outside the supported list.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// Backend fetches message bundles from an external source.
type Backend interface {
	Read(ctx context.Context, language, namespace string) (Messages, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, language, namespace string) (Messages, error)

func (f BackendFunc) Read(ctx context.Context, language, namespace string) (Messages, error) {
	return f(ctx, language, namespace)
}
