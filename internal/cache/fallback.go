package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rickgao/albion-omni/internal/metrics"
)

// Fallback layers a primary Store (Redis) over a secondary (memory).
// Writes go to both; reads try the primary first and fall through to the
// secondary on a miss or an error. A nil primary runs secondary-only.
type Fallback struct {
	primary   Store
	secondary Store
	logger    *slog.Logger
}

// NewFallback creates a Fallback store.
func NewFallback(primary, secondary Store, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

// Name implements Store.
func (f *Fallback) Name() string {
	if f.primary == nil {
		return f.secondary.Name()
	}
	return f.primary.Name() + "+" + f.secondary.Name()
}

// Get implements Store.
func (f *Fallback) Get(ctx context.Context, key string) ([]byte, error) {
	if f.primary != nil {
		data, err := f.primary.Get(ctx, key)
		switch {
		case err == nil:
			record(f.primary, "hit")
			return data, nil
		case errors.Is(err, ErrMiss):
			record(f.primary, "miss")
		default:
			record(f.primary, "error")
			f.degraded("get", key, err)
		}
	}

	data, err := f.secondary.Get(ctx, key)
	switch {
	case err == nil:
		record(f.secondary, "hit")
	case errors.Is(err, ErrMiss):
		record(f.secondary, "miss")
	default:
		record(f.secondary, "error")
	}
	return data, err
}

// Set implements Store. It fails only when no backend accepted the value.
func (f *Fallback) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var primaryErr error
	if f.primary != nil {
		if primaryErr = f.primary.Set(ctx, key, value, ttl); primaryErr != nil {
			f.degraded("set", key, primaryErr)
		}
	}

	if err := f.secondary.Set(ctx, key, value, ttl); err != nil {
		return errors.Join(primaryErr, err)
	}
	return nil
}

// Delete implements Store.
func (f *Fallback) Delete(ctx context.Context, keys ...string) error {
	var errs []error
	if f.primary != nil {
		errs = append(errs, f.primary.Delete(ctx, keys...))
	}
	errs = append(errs, f.secondary.Delete(ctx, keys...))
	return errors.Join(errs...)
}

// DeletePrefix implements Store. The count is the larger of the two
// backends' counts since most keys live in both.
func (f *Fallback) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	var (
		n    int
		errs []error
	)
	if f.primary != nil {
		pn, err := f.primary.DeletePrefix(ctx, prefix)
		n = pn
		errs = append(errs, err)
	}
	sn, err := f.secondary.DeletePrefix(ctx, prefix)
	errs = append(errs, err)
	return max(n, sn), errors.Join(errs...)
}

// Ping implements Store. It reports the primary's health.
func (f *Fallback) Ping(ctx context.Context) error {
	if f.primary == nil {
		return f.secondary.Ping(ctx)
	}
	return f.primary.Ping(ctx)
}

// HasPrimary reports whether a primary backend is configured.
func (f *Fallback) HasPrimary() bool {
	return f.primary != nil
}

func (f *Fallback) degraded(op, key string, err error) {
	metrics.CacheFallbacks.Inc()
	f.logger.Warn("cache primary failed, using memory",
		"op", op,
		"key", key,
		"backend", f.primary.Name(),
		"err", err,
	)
}

func record(s Store, result string) {
	metrics.CacheRequests.WithLabelValues(s.Name(), result).Inc()
}
