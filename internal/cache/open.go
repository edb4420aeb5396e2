package cache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rickgao/albion-omni/internal/config"
)

// Backend owns the stores behind a Cache.
type Backend struct {
	Cache  *Cache
	Memory *Memory
	Redis  *Redis // nil when running memory-only
}

// Open builds the cache described by cfg. When Redis is configured but
// does not answer a ping, Open logs the failure and runs memory-only.
// opts are passed to New.
func Open(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger, opts ...Option) *Backend {
	if logger == nil {
		logger = slog.Default()
	}

	b := &Backend{Memory: NewMemory(cfg.MemoryMaxEntries, cfg.SweepInterval)}

	var primary Store
	if cfg.Redis.Addr != "" {
		r := NewRedis(cfg.Redis)
		pingCtx, cancel := context.WithTimeout(ctx, cfg.Redis.DialTimeout)
		err := r.Ping(pingCtx)
		cancel()

		if err != nil {
			logger.Warn("redis unavailable, using memory cache only",
				"addr", cfg.Redis.Addr,
				"err", err,
			)
			r.Close()
		} else {
			logger.Info("redis cache connected", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
			b.Redis = r
			primary = r
		}
	} else {
		logger.Info("redis not configured, using memory cache only")
	}

	b.Cache = New(NewFallback(primary, b.Memory, logger), cfg.KeyPrefix, logger, opts...)
	return b
}

// Close releases every backend.
func (b *Backend) Close() error {
	var errs []error
	if b.Redis != nil {
		errs = append(errs, b.Redis.Close())
	}
	errs = append(errs, b.Memory.Close())
	return errors.Join(errs...)
}
