package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultLoadTimeout bounds a shared load when no WithLoadTimeout is given.
const DefaultLoadTimeout = time.Minute

// Cache namespaces keys under a prefix and encodes values as JSON.
type Cache struct {
	store       Store
	prefix      string
	loadTimeout time.Duration
	logger      *slog.Logger
	group       singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithLoadTimeout bounds each shared load started by GetOrLoad.
func WithLoadTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.loadTimeout = d
		}
	}
}

// New creates a Cache over store. Keys are stored as "<prefix>:<key>".
func New(store Store, prefix string, logger *slog.Logger, opts ...Option) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{store: store, prefix: prefix, loadTimeout: DefaultLoadTimeout, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key joins parts into a cache key. Empty parts are kept so positional
// keys stay unambiguous.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Store returns the underlying store.
func (c *Cache) Store() Store {
	return c.store
}

func (c *Cache) fullKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

// GetOrLoad returns the cached value for key, or calls load, caches its
// result for ttl and returns it. Concurrent calls for the same key share a
// single load. The shared load is detached from any one caller and bounded
// by the load timeout; a caller whose ctx ends stops waiting with ctx.Err()
// while the others keep waiting. Load errors are returned and never cached;
// cache read and write failures are logged and otherwise ignored.
func GetOrLoad[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var zero T
	full := c.fullKey(key)

	if v, ok := getJSON[T](ctx, c, full); ok {
		return v, nil
	}

	ch := c.group.DoChan(full, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()

		// Another caller may have filled the key while we waited.
		if v, ok := getJSON[T](loadCtx, c, full); ok {
			return v, nil
		}

		v, err := load(loadCtx)
		if err != nil {
			return v, err
		}

		data, err := json.Marshal(v)
		if err != nil {
			c.logger.Warn("cache encode failed", "key", full, "err", err)
			return v, nil
		}
		if err := c.store.Set(loadCtx, full, data, ttl); err != nil {
			c.logger.Warn("cache write failed", "key", full, "err", err)
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	}
}

func getJSON[T any](ctx context.Context, c *Cache, full string) (T, bool) {
	var v T

	data, err := c.store.Get(ctx, full)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.logger.Warn("cache read failed", "key", full, "err", err)
		}
		return v, false
	}

	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("cache decode failed, reloading", "key", full, "err", err)
		var zero T
		return zero, false
	}
	return v, true
}

// Invalidate removes every entry whose key starts with prefix. An empty
// prefix clears the whole namespace.
func (c *Cache) Invalidate(ctx context.Context, prefix string) (int, error) {
	full := c.fullKey(prefix)
	if prefix == "" && c.prefix != "" {
		full = c.prefix + ":"
	}

	n, err := c.store.DeletePrefix(ctx, full)
	if err != nil {
		return n, fmt.Errorf("invalidate %q: %w", prefix, err)
	}

	c.logger.Info("cache invalidated", "prefix", full, "removed", n)
	return n, nil
}

// Ping checks the health of the underlying store.
func (c *Cache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}
