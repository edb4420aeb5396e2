package config

import "time"

// Config is the root configuration for the dashboard backend.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Admin    AdminConfig    `yaml:"admin"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Database DBConfig       `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	Sync     SyncConfig     `yaml:"sync"`
	Live     LiveConfig     `yaml:"live"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string          `yaml:"addr"`
	ReadTimeout     time.Duration   `yaml:"read_timeout"`
	WriteTimeout    time.Duration   `yaml:"write_timeout"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig limits inbound API requests per client IP.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"` // 0 disables the limiter
	Window   time.Duration `yaml:"window"`
}

// AdminConfig holds the shared secret guarding admin routes.
// An empty secret disables the admin routes entirely.
type AdminConfig struct {
	Secret string `yaml:"secret"`
}

// UpstreamConfig holds settings shared by all third-party API clients.
type UpstreamConfig struct {
	UserAgent     string                     `yaml:"user_agent"`
	Timeout       time.Duration              `yaml:"timeout"`
	MaxRetries    int                        `yaml:"max_retries"`
	RetryBackoff  time.Duration              `yaml:"retry_backoff"`
	RateLimit     float64                    `yaml:"rate_limit"` // requests per second per service, 0 = unlimited
	RateBurst     int                        `yaml:"rate_burst"`
	ItemChunkSize int                        `yaml:"item_chunk_size"`
	Concurrency   int                        `yaml:"concurrency"`
	Breaker       BreakerConfig              `yaml:"breaker"`
	Regions       map[string]RegionEndpoints `yaml:"regions"`
}

// BreakerConfig configures the circuit breaker wrapped around each upstream service.
type BreakerConfig struct {
	MaxRequests  uint32        `yaml:"max_requests"` // allowed through while half-open
	Interval     time.Duration `yaml:"interval"`     // closed-state counter reset period
	Timeout      time.Duration `yaml:"timeout"`      // open → half-open delay
	MinRequests  uint32        `yaml:"min_requests"`
	FailureRatio float64       `yaml:"failure_ratio"`
}

// RegionEndpoints holds the base URLs for one game region.
type RegionEndpoints struct {
	MarketURL   string `yaml:"market_url"`
	GameinfoURL string `yaml:"gameinfo_url"`
	StatusURL   string `yaml:"status_url"`
}

// DBConfig holds the Postgres connection.
// URL takes precedence over the discrete fields when set.
type DBConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// CacheConfig holds Redis and in-memory cache settings.
type CacheConfig struct {
	Redis            RedisConfig   `yaml:"redis"`
	KeyPrefix        string        `yaml:"key_prefix"`
	MemoryMaxEntries int           `yaml:"memory_max_entries"`
	SweepInterval    time.Duration `yaml:"sweep_interval"`
	TTL              TTLConfig     `yaml:"ttl"`
}

// RedisConfig holds the Redis connection. An empty Addr runs memory-only.
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// TTLConfig holds per-data-set cache lifetimes.
type TTLConfig struct {
	Prices    time.Duration `yaml:"prices"`
	History   time.Duration `yaml:"history"`
	Gold      time.Duration `yaml:"gold"`
	Kills     time.Duration `yaml:"kills"`
	Guilds    time.Duration `yaml:"guilds"`
	Players   time.Duration `yaml:"players"`
	Search    time.Duration `yaml:"search"`
	Status    time.Duration `yaml:"status"`
	Arbitrage time.Duration `yaml:"arbitrage"`
	Database  time.Duration `yaml:"database"`
}

// SyncConfig holds settings for the scheduled snapshot jobs.
type SyncConfig struct {
	Enabled          bool                 `yaml:"enabled"`
	Region           string               `yaml:"region"`
	Items            []string             `yaml:"items"`
	Locations        []string             `yaml:"locations"`
	Qualities        []int                `yaml:"qualities"`
	GoldCount        int                  `yaml:"gold_count"`
	KillPages        int                  `yaml:"kill_pages"`
	HistoryTimeScale int                  `yaml:"history_time_scale"` // hours per history bucket: 1, 6 or 24
	LeaderboardRange string               `yaml:"leaderboard_range"`
	LeaderboardLimit int                  `yaml:"leaderboard_limit"`
	BatchSize        int                  `yaml:"batch_size"`
	RunTimeout       time.Duration        `yaml:"run_timeout"`
	Jobs             map[string]JobConfig `yaml:"jobs"`
}

// JobConfig holds the schedule for one sync job.
type JobConfig struct {
	Schedule string `yaml:"schedule"` // five-field cron expression, UTC
	Disabled bool   `yaml:"disabled"`
}

// LiveConfig holds WebSocket push channel settings.
type LiveConfig struct {
	PingInterval time.Duration `yaml:"ping_interval"`
	PongWait     time.Duration `yaml:"pong_wait"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	InitialQueue int           `yaml:"initial_queue"`
	MaxQueue     int           `yaml:"max_queue"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Disabled bool   `yaml:"disabled"`
	Path     string `yaml:"path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}
