package config

import (
	"time"

	"github.com/rickgao/albion-omni/internal/model"
)

// Default values for optional configuration fields.
const (
	DefaultServerAddr       = ":3000"
	DefaultReadTimeout      = 15 * time.Second
	DefaultWriteTimeout     = 30 * time.Second
	DefaultIdleTimeout      = 120 * time.Second
	DefaultShutdownTimeout  = 15 * time.Second
	DefaultRateLimitWindow  = time.Minute
	DefaultUserAgent        = "albion-omni-dashboard/1.0"
	DefaultUpstreamTimeout  = 20 * time.Second
	DefaultMaxRetries       = 3
	DefaultRetryBackoff     = 500 * time.Millisecond
	DefaultRateBurst        = 5
	DefaultItemChunkSize    = 100
	DefaultConcurrency      = 4
	DefaultBreakerMaxReqs   = 3
	DefaultBreakerInterval  = time.Minute
	DefaultBreakerTimeout   = 30 * time.Second
	DefaultBreakerMinReqs   = 10
	DefaultBreakerRatio     = 0.6
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 10
	DefaultMinConns         = 2
	DefaultRedisPoolSize    = 10
	DefaultRedisDialTimeout = 5 * time.Second
	DefaultRedisIOTimeout   = 3 * time.Second
	DefaultKeyPrefix        = "aod"
	DefaultMemoryMaxEntries = 10000
	DefaultSweepInterval    = time.Minute
	DefaultSyncRegion       = "americas"
	DefaultGoldCount        = 24
	DefaultKillPages        = 4
	DefaultHistoryScale     = 24
	DefaultLeaderboardRange = "week"
	DefaultLeaderboardLimit = 50
	DefaultBatchSize        = 500
	DefaultRunTimeout       = 5 * time.Minute
	DefaultPingInterval     = 30 * time.Second
	DefaultPongWait         = 60 * time.Second
	DefaultLiveWriteTimeout = 10 * time.Second
	DefaultInitialQueue     = 16
	DefaultMaxQueue         = 1024
	DefaultMetricsPath      = "/metrics"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
)

// Default cache lifetimes per data set.
const (
	DefaultTTLPrices    = 5 * time.Minute
	DefaultTTLHistory   = time.Hour
	DefaultTTLGold      = 5 * time.Minute
	DefaultTTLKills     = 30 * time.Second
	DefaultTTLGuilds    = 10 * time.Minute
	DefaultTTLPlayers   = 10 * time.Minute
	DefaultTTLSearch    = 10 * time.Minute
	DefaultTTLStatus    = time.Minute
	DefaultTTLArbitrage = 5 * time.Minute
	DefaultTTLDatabase  = time.Minute
)

// Sync job names.
const (
	JobMarketPrices     = "market_prices"
	JobGoldPrices       = "gold_prices"
	JobKillEvents       = "kill_events"
	JobGuildLeaderboard = "guild_leaderboard"
	JobPriceHistory     = "price_history"
)

// DefaultJobSchedules maps each sync job to its default cron expression.
var DefaultJobSchedules = map[string]string{
	JobMarketPrices:     "*/15 * * * *",
	JobGoldPrices:       "0 * * * *",
	JobKillEvents:       "*/5 * * * *",
	JobGuildLeaderboard: "0 0 * * *",
	JobPriceHistory:     "30 */6 * * *",
}

// DefaultRegionEndpoints are the public endpoints for each game region.
var DefaultRegionEndpoints = map[string]RegionEndpoints{
	"americas": {
		MarketURL:   "https://west.albion-online-data.com",
		GameinfoURL: "https://gameinfo.albiononline.com/api/gameinfo",
		StatusURL:   "https://serverstatus.albiononline.com",
	},
	"asia": {
		MarketURL:   "https://east.albion-online-data.com",
		GameinfoURL: "https://gameinfo-sgp.albiononline.com/api/gameinfo",
		StatusURL:   "https://serverstatus-sgp.albiononline.com",
	},
	"europe": {
		MarketURL:   "https://europe.albion-online-data.com",
		GameinfoURL: "https://gameinfo-ams.albiononline.com/api/gameinfo",
		StatusURL:   "https://serverstatus-ams.albiononline.com",
	},
}

// DefaultItems is the tracked item set used when sync.items is empty.
var DefaultItems = []string{
	"T4_BAG", "T5_BAG", "T6_BAG",
	"T4_CAPE", "T4_MAIN_SWORD", "T4_2H_BOW",
	"T4_PLANKS", "T4_METALBAR", "T4_LEATHER", "T4_CLOTH",
	"T5_PLANKS", "T5_METALBAR", "T5_LEATHER", "T5_CLOTH",
}

// ApplyDefaults fills every unset optional field.
func (c *Config) ApplyDefaults() {
	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = DefaultIdleTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Server.RateLimit.Window == 0 {
		c.Server.RateLimit.Window = DefaultRateLimitWindow
	}

	// Upstream defaults
	c.applyUpstreamDefaults()

	// Database defaults
	applyDBDefaults(&c.Database)

	// Cache defaults
	c.applyCacheDefaults()

	// Sync defaults
	c.applySyncDefaults()

	// Live defaults
	if c.Live.PingInterval == 0 {
		c.Live.PingInterval = DefaultPingInterval
	}
	if c.Live.PongWait == 0 {
		c.Live.PongWait = DefaultPongWait
	}
	if c.Live.WriteTimeout == 0 {
		c.Live.WriteTimeout = DefaultLiveWriteTimeout
	}
	if c.Live.InitialQueue == 0 {
		c.Live.InitialQueue = DefaultInitialQueue
	}
	if c.Live.MaxQueue == 0 {
		c.Live.MaxQueue = DefaultMaxQueue
	}

	// Metrics defaults
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func (c *Config) applyUpstreamDefaults() {
	u := &c.Upstream
	if u.UserAgent == "" {
		u.UserAgent = DefaultUserAgent
	}
	if u.Timeout == 0 {
		u.Timeout = DefaultUpstreamTimeout
	}
	if u.MaxRetries == 0 {
		u.MaxRetries = DefaultMaxRetries
	}
	if u.RetryBackoff == 0 {
		u.RetryBackoff = DefaultRetryBackoff
	}
	if u.RateBurst == 0 {
		u.RateBurst = DefaultRateBurst
	}
	if u.ItemChunkSize == 0 {
		u.ItemChunkSize = DefaultItemChunkSize
	}
	if u.Concurrency == 0 {
		u.Concurrency = DefaultConcurrency
	}
	if u.Breaker.MaxRequests == 0 {
		u.Breaker.MaxRequests = DefaultBreakerMaxReqs
	}
	if u.Breaker.Interval == 0 {
		u.Breaker.Interval = DefaultBreakerInterval
	}
	if u.Breaker.Timeout == 0 {
		u.Breaker.Timeout = DefaultBreakerTimeout
	}
	if u.Breaker.MinRequests == 0 {
		u.Breaker.MinRequests = DefaultBreakerMinReqs
	}
	if u.Breaker.FailureRatio == 0 {
		u.Breaker.FailureRatio = DefaultBreakerRatio
	}

	if u.Regions == nil {
		u.Regions = make(map[string]RegionEndpoints, len(DefaultRegionEndpoints))
	}
	// Aliases ("west", "ams") are stored under their canonical name.
	for name, ep := range u.Regions {
		region, err := model.ParseRegion(name)
		if err != nil || string(region) == name {
			continue
		}
		delete(u.Regions, name)
		u.Regions[string(region)] = ep
	}
	for name, def := range DefaultRegionEndpoints {
		ep := u.Regions[name]
		if ep.MarketURL == "" {
			ep.MarketURL = def.MarketURL
		}
		if ep.GameinfoURL == "" {
			ep.GameinfoURL = def.GameinfoURL
		}
		if ep.StatusURL == "" {
			ep.StatusURL = def.StatusURL
		}
		u.Regions[name] = ep
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}

func (c *Config) applyCacheDefaults() {
	cc := &c.Cache
	if cc.Redis.PoolSize == 0 {
		cc.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cc.Redis.DialTimeout == 0 {
		cc.Redis.DialTimeout = DefaultRedisDialTimeout
	}
	if cc.Redis.ReadTimeout == 0 {
		cc.Redis.ReadTimeout = DefaultRedisIOTimeout
	}
	if cc.Redis.WriteTimeout == 0 {
		cc.Redis.WriteTimeout = DefaultRedisIOTimeout
	}
	if cc.KeyPrefix == "" {
		cc.KeyPrefix = DefaultKeyPrefix
	}
	if cc.MemoryMaxEntries == 0 {
		cc.MemoryMaxEntries = DefaultMemoryMaxEntries
	}
	if cc.SweepInterval == 0 {
		cc.SweepInterval = DefaultSweepInterval
	}

	ttl := &cc.TTL
	setDuration(&ttl.Prices, DefaultTTLPrices)
	setDuration(&ttl.History, DefaultTTLHistory)
	setDuration(&ttl.Gold, DefaultTTLGold)
	setDuration(&ttl.Kills, DefaultTTLKills)
	setDuration(&ttl.Guilds, DefaultTTLGuilds)
	setDuration(&ttl.Players, DefaultTTLPlayers)
	setDuration(&ttl.Search, DefaultTTLSearch)
	setDuration(&ttl.Status, DefaultTTLStatus)
	setDuration(&ttl.Arbitrage, DefaultTTLArbitrage)
	setDuration(&ttl.Database, DefaultTTLDatabase)
}

func (c *Config) applySyncDefaults() {
	s := &c.Sync
	if s.Region == "" {
		s.Region = DefaultSyncRegion
	}
	if len(s.Items) == 0 {
		s.Items = append([]string(nil), DefaultItems...)
	}
	if len(s.Locations) == 0 {
		s.Locations = []string{
			"Caerleon", "Bridgewatch", "Fort Sterling", "Lymhurst",
			"Martlock", "Thetford", "Brecilien", "Black Market",
		}
	}
	if len(s.Qualities) == 0 {
		s.Qualities = []int{1}
	}
	if s.GoldCount == 0 {
		s.GoldCount = DefaultGoldCount
	}
	if s.KillPages == 0 {
		s.KillPages = DefaultKillPages
	}
	if s.HistoryTimeScale == 0 {
		s.HistoryTimeScale = DefaultHistoryScale
	}
	if s.LeaderboardRange == "" {
		s.LeaderboardRange = DefaultLeaderboardRange
	}
	if s.LeaderboardLimit == 0 {
		s.LeaderboardLimit = DefaultLeaderboardLimit
	}
	if s.BatchSize == 0 {
		s.BatchSize = DefaultBatchSize
	}
	if s.RunTimeout == 0 {
		s.RunTimeout = DefaultRunTimeout
	}

	if s.Jobs == nil {
		s.Jobs = make(map[string]JobConfig, len(DefaultJobSchedules))
	}
	for name, schedule := range DefaultJobSchedules {
		job := s.Jobs[name]
		if job.Schedule == "" {
			job.Schedule = schedule
		}
		s.Jobs[name] = job
	}
}

func setDuration(d *time.Duration, def time.Duration) {
	if *d == 0 {
		*d = def
	}
}
