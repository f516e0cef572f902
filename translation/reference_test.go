package translation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitabwire/lingo/translation"
)

func TestReferenceIsImmutable(t *testing.T) {
	source := translation.Messages{"title": "Catalog"}
	ref := translation.NewReference("catalog",
		translation.WithEagerResources(map[string]translation.Messages{"en": source, "": {"x": "y"}}),
		translation.WithLazyResource("de", staticLoader(translation.Messages{"title": "Katalog"}, nil)),
		translation.WithLazyResource("fr", nil),
	)

	source["title"] = "mutated"
	eager := ref.EagerResources()
	assert.Equal(t, translation.Messages{"title": "Catalog"}, eager["en"])

	eager["en"]["title"] = "mutated again"
	delete(eager, "en")
	assert.Equal(t, "Catalog", ref.EagerResources()["en"]["title"])

	lazy := ref.LazyResources()
	delete(lazy, "de")
	assert.Len(t, ref.LazyResources(), 1)

	assert.Equal(t, "catalog", ref.ID())
	assert.NotEmpty(t, ref.Handle())
	assert.True(t, ref.HasEagerResources())
	assert.True(t, ref.HasLazyResources())
	assert.Equal(t, []string{"de", "en"}, ref.Languages())
	assert.Equal(t, "catalog#"+ref.Handle(), ref.String())
}

func TestReferenceWithoutResources(t *testing.T) {
	ref := translation.NewReference("empty")

	assert.False(t, ref.HasEagerResources())
	assert.False(t, ref.HasLazyResources())
	assert.Empty(t, ref.EagerResources())
	assert.Empty(t, ref.LazyResources())
	assert.NotEqual(t, ref.Handle(), translation.NewReference("empty").Handle())
}

func TestLoadStates(t *testing.T) {
	testCases := []struct {
		state     translation.LoadState
		name      string
		attempted bool
	}{
		{state: translation.Unattempted, name: "UNATTEMPTED"},
		{state: translation.Attempting, name: "ATTEMPTING", attempted: true},
		{state: translation.Succeeded, name: "SUCCEEDED", attempted: true},
		{state: translation.Failed, name: "FAILED", attempted: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.name, tc.state.String())
			assert.Equal(t, tc.attempted, tc.state.Attempted())
		})
	}
}

func TestErrors(t *testing.T) {
	cause := errors.New("offline")

	loadErr := error(&translation.LoadError{Namespace: "catalog", Language: "de", Err: cause})
	require.ErrorIs(t, loadErr, translation.ErrLazyLoad)
	require.ErrorIs(t, loadErr, cause)
	assert.NotErrorIs(t, loadErr, translation.ErrReload)
	assert.Equal(t, "load catalog/de: offline", loadErr.Error())

	reloadErr := error(&translation.ReloadError{Namespace: "catalog", Language: "fr", Err: cause})
	require.ErrorIs(t, reloadErr, translation.ErrReload)
	require.ErrorIs(t, reloadErr, cause)
	assert.Equal(t, "reload catalog/fr: offline", reloadErr.Error())
}
