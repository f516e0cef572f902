package valkey

import (
	"context"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/pitabwire/lingo/cache"
)

// Cache is a RawCache stored in Valkey through the official client.
type Cache struct {
	client valkey.Client
	maxAge time.Duration
}

const connectionTimeout = 5 * time.Second

// New connects to the URI given through cache.WithURI. Both valkey:// and redis:// schemes are accepted.
func New(opts ...cache.Option) (cache.RawCache, error) {
	cacheOpts := cache.NewOptions(opts...)

	uri := cacheOpts.URI
	if rest, ok := strings.CutPrefix(uri, "valkey://"); ok {
		uri = "redis://" + rest
	}

	valkeyOpts, err := valkey.ParseURL(uri)
	if err != nil {
		return nil, err
	}
	if cacheOpts.Name != "" {
		valkeyOpts.ClientName = cacheOpts.Name
	}

	client, err := valkey.NewClient(valkeyOpts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if pingErr := client.Do(ctx, client.B().Ping().Build()).Error(); pingErr != nil {
		client.Close()
		return nil, pingErr
	}

	return &Cache{
		client: client,
		maxAge: cacheOpts.MaxAge,
	}, nil
}

func (vc *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	resp := vc.client.Do(ctx, vc.client.B().Get().Key(key).Build())

	if err := resp.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	val, err := resp.AsBytes()
	if err != nil {
		return nil, false, err
	}

	return val, true, nil
}

// Set stores value, a non positive ttl falls back to the configured max age.
func (vc *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = vc.maxAge
	}

	if ttl <= 0 {
		return vc.client.Do(ctx, vc.client.B().Set().Key(key).Value(valkey.BinaryString(value)).Build()).Error()
	}

	// EX takes whole seconds, at least one.
	seconds := max(int64(ttl.Seconds()), 1)
	cmd := vc.client.B().Set().Key(key).Value(valkey.BinaryString(value)).ExSeconds(seconds).Build()
	return vc.client.Do(ctx, cmd).Error()
}

func (vc *Cache) Delete(ctx context.Context, key string) error {
	return vc.client.Do(ctx, vc.client.B().Del().Key(key).Build()).Error()
}

func (vc *Cache) Exists(ctx context.Context, key string) (bool, error) {
	resp := vc.client.Do(ctx, vc.client.B().Exists().Key(key).Build())
	if err := resp.Error(); err != nil {
		return false, err
	}

	count, err := resp.AsInt64()
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (vc *Cache) Flush(ctx context.Context) error {
	return vc.client.Do(ctx, vc.client.B().Flushdb().Build()).Error()
}

func (vc *Cache) Close() error {
	vc.client.Close()
	return nil
}
