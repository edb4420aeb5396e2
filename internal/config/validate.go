package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/influxdata/cron"

	"github.com/rickgao/albion-omni/internal/model"
)

var leaderboardRanges = map[string]bool{"day": true, "week": true, "month": true}

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.RateLimit.Requests < 0 {
		return errors.New("server.rate_limit.requests must be >= 0")
	}

	if err := c.Upstream.validate(); err != nil {
		return err
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Cache.MemoryMaxEntries < 1 {
		return errors.New("cache.memory_max_entries must be >= 1")
	}
	if c.Cache.Redis.DB < 0 {
		return errors.New("cache.redis.db must be >= 0")
	}

	if err := c.Sync.validate(); err != nil {
		return err
	}

	if c.Live.MaxQueue < c.Live.InitialQueue {
		return fmt.Errorf("live.max_queue (%d) cannot be less than initial_queue (%d)", c.Live.MaxQueue, c.Live.InitialQueue)
	}
	if c.Live.PongWait <= c.Live.PingInterval {
		return errors.New("live.pong_wait must exceed live.ping_interval")
	}

	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", c.Metrics.Path)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

func (u *UpstreamConfig) validate() error {
	if u.MaxRetries < 0 {
		return errors.New("upstream.max_retries must be >= 0")
	}
	if u.RateLimit < 0 {
		return errors.New("upstream.rate_limit must be >= 0")
	}
	if u.ItemChunkSize < 1 {
		return errors.New("upstream.item_chunk_size must be >= 1")
	}
	if u.Concurrency < 1 {
		return errors.New("upstream.concurrency must be >= 1")
	}
	if u.Breaker.FailureRatio <= 0 || u.Breaker.FailureRatio > 1 {
		return fmt.Errorf("upstream.breaker.failure_ratio must be in (0, 1], got %v", u.Breaker.FailureRatio)
	}

	for name, ep := range u.Regions {
		if _, err := model.ParseRegion(name); err != nil {
			return fmt.Errorf("upstream.regions: %w", err)
		}
		prefix := "upstream.regions." + name
		for field, raw := range map[string]string{
			"market_url":   ep.MarketURL,
			"gameinfo_url": ep.GameinfoURL,
			"status_url":   ep.StatusURL,
		} {
			if err := validateURL(raw); err != nil {
				return fmt.Errorf("%s.%s: %w", prefix, field, err)
			}
		}
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.URL != "" {
		if _, err := url.Parse(db.URL); err != nil {
			return fmt.Errorf("%s.url: %w", prefix, err)
		}
	} else {
		if db.Host == "" {
			return fmt.Errorf("%s.host is required", prefix)
		}
		if db.Name == "" {
			return fmt.Errorf("%s.name is required", prefix)
		}
		if db.User == "" {
			return fmt.Errorf("%s.user is required", prefix)
		}
		if db.Password == "" {
			return fmt.Errorf("%s.password is required", prefix)
		}
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

func (s *SyncConfig) validate() error {
	if _, err := model.ParseRegion(s.Region); err != nil {
		return fmt.Errorf("sync.region: %w", err)
	}
	for _, q := range s.Qualities {
		if !model.ValidQuality(q) {
			return fmt.Errorf("sync.qualities: invalid quality %d", q)
		}
	}
	if s.GoldCount < 1 {
		return errors.New("sync.gold_count must be >= 1")
	}
	if s.KillPages < 1 {
		return errors.New("sync.kill_pages must be >= 1")
	}
	switch s.HistoryTimeScale {
	case 1, 6, 24:
	default:
		return fmt.Errorf("sync.history_time_scale must be 1, 6 or 24, got %d", s.HistoryTimeScale)
	}
	if !leaderboardRanges[s.LeaderboardRange] {
		return fmt.Errorf("sync.leaderboard_range must be day, week or month, got %q", s.LeaderboardRange)
	}
	if s.BatchSize < 1 {
		return errors.New("sync.batch_size must be >= 1")
	}

	for name, job := range s.Jobs {
		if _, known := DefaultJobSchedules[name]; !known {
			return fmt.Errorf("sync.jobs: unknown job %q", name)
		}
		if _, err := cron.ParseUTC(job.Schedule); err != nil {
			return fmt.Errorf("sync.jobs.%s.schedule: %w", name, err)
		}
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
