package translation

import (
	"errors"
	"fmt"
)

var (
	// ErrLazyLoad matches every *LoadError.
	ErrLazyLoad = errors.New("lazy translation load failed")
	// ErrReload matches every *ReloadError.
	ErrReload = errors.New("translation backend reload failed")
	// ErrEngineClosed is returned once Close has run.
	ErrEngineClosed = errors.New("translation engine is closed")
)

// LoadError reports a failed lazy loader for one language of a namespace.
type LoadError struct {
	Namespace string
	Language  string
	Err       error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s/%s: %v", e.Namespace, e.Language, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrLazyLoad, e.Err}
}

// ReloadError reports a backend reload failure for a language that had no local loader.
type ReloadError struct {
	Namespace string
	Language  string
	Err       error
}

func (e *ReloadError) Error() string {
	return fmt.Sprintf("reload %s/%s: %v", e.Namespace, e.Language, e.Err)
}

func (e *ReloadError) Unwrap() []error {
	return []error{ErrReload, e.Err}
}
