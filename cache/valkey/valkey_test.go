package valkey //nolint:testpackage // tests access package internals

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/lingo/cache"
	"github.com/pitabwire/lingo/lingotests"
)

type ValkeySuite struct {
	lingotests.BaseTestSuite
	uri string
}

func TestValkeySuite(t *testing.T) {
	suite.Run(t, new(ValkeySuite))
}

func (s *ValkeySuite) SetupSuite() {
	s.InitResourceFunc = func(_ context.Context) []lingotests.Resource {
		return []lingotests.Resource{lingotests.NewValkey()}
	}
	s.BaseTestSuite.SetupSuite()

	s.uri = s.Resources()[0].URI()
	s.Require().NotEmpty(s.uri)
}

func (s *ValkeySuite) TestNewAndOperationsTable() {
	ctx := context.Background()

	_, err := New(cache.WithURI("://bad-uri"))
	s.Require().Error(err)

	raw, err := New(cache.WithURI(s.uri), cache.WithName("lingo-test"), cache.WithMaxAge(2*time.Second))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = raw.Close() })

	testCases := []struct {
		name string
		run  func() error
	}{
		{
			name: "set get exists delete",
			run: func() error {
				if err = raw.Set(ctx, "valkey:key:1", []byte("value"), 0); err != nil {
					return err
				}
				val, found, getErr := raw.Get(ctx, "valkey:key:1")
				s.True(found)
				s.Equal([]byte("value"), val)
				if getErr != nil {
					return getErr
				}
				exists, existsErr := raw.Exists(ctx, "valkey:key:1")
				s.True(exists)
				if existsErr != nil {
					return existsErr
				}
				return raw.Delete(ctx, "valkey:key:1")
			},
		},
		{
			name: "missing key",
			run: func() error {
				val, found, getErr := raw.Get(ctx, "valkey:missing")
				s.False(found)
				s.Nil(val)
				return getErr
			},
		},
		{
			name: "expire",
			run: func() error {
				if err = raw.Set(ctx, "valkey:key:2", []byte("value"), time.Second); err != nil {
					return err
				}
				time.Sleep(1500 * time.Millisecond)
				_, found, getErr := raw.Get(ctx, "valkey:key:2")
				s.False(found)
				return getErr
			},
		},
		{
			name: "flush",
			run: func() error {
				if err = raw.Set(ctx, "valkey:flush", []byte("x"), 0); err != nil {
					return err
				}
				if err = raw.Flush(ctx); err != nil {
					return err
				}
				exists, existsErr := raw.Exists(ctx, "valkey:flush")
				s.False(exists)
				return existsErr
			},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Require().NoError(tc.run())
		})
	}
}

func (s *ValkeySuite) TestGenericCacheRoundTrip() {
	ctx := context.Background()

	raw, err := New(cache.WithURI(s.uri))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = raw.Close() })

	typed := cache.NewGenericCache[string, map[string]string](raw, func(k string) string {
		return "valkey:typed:" + k
	})

	s.Require().NoError(typed.Set(ctx, "fr", map[string]string{"hello": "bonjour"}, time.Minute))

	got, found, err := typed.Get(ctx, "fr")
	s.Require().NoError(err)
	s.True(found)
	s.Equal("bonjour", got["hello"])
}

func (s *ValkeySuite) TestValkeyScheme() {
	ctx := context.Background()

	uri := "valkey://" + strings.TrimPrefix(s.uri, "redis://")
	raw, err := New(cache.WithURI(uri))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = raw.Close() })

	s.Require().NoError(raw.Set(ctx, "valkey:scheme", []byte("ok"), 0))
	exists, err := raw.Exists(ctx, "valkey:scheme")
	s.Require().NoError(err)
	s.True(exists)
}
