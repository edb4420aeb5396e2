package api

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/rickgao/albion-omni/internal/config"
	"github.com/rickgao/albion-omni/internal/model"
)

// Service names used for logs, metrics and breakers.
const (
	ServiceMarket   = "aodp"
	ServiceGameinfo = "gameinfo"
	ServiceStatus   = "status"
)

// RegionClients bundles the upstream clients for one region.
type RegionClients struct {
	Region   model.Region
	Market   *MarketClient
	Gameinfo *GameinfoClient
	Status   *StatusClient
}

// Clients returns the underlying REST clients.
func (rc *RegionClients) Clients() []*Client {
	return []*Client{rc.Market.client, rc.Gameinfo.client, rc.Status.client}
}

// Regional maps each region to its clients.
type Regional struct {
	regions map[model.Region]*RegionClients
}

// NewRegional builds clients for every region in cfg.Regions.
func NewRegional(cfg config.UpstreamConfig, logger *slog.Logger) (*Regional, error) {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Regional{regions: make(map[model.Region]*RegionClients, len(cfg.Regions))}

	for name, ep := range cfg.Regions {
		region, err := model.ParseRegion(name)
		if err != nil {
			return nil, fmt.Errorf("upstream.regions: %w", err)
		}
		if _, dup := r.regions[region]; dup {
			return nil, fmt.Errorf("upstream.regions: %s configured twice", region)
		}

		build := func(service, baseURL string) *Client {
			label := service + "_" + string(region)
			return NewClient(label, baseURL, clientOptions(cfg, logger.With("service", label))...)
		}

		r.regions[region] = &RegionClients{
			Region:   region,
			Market:   NewMarketClient(build(ServiceMarket, ep.MarketURL), region, cfg.ItemChunkSize, cfg.Concurrency),
			Gameinfo: NewGameinfoClient(build(ServiceGameinfo, ep.GameinfoURL), region),
			Status:   NewStatusClient(build(ServiceStatus, ep.StatusURL), region),
		}
	}

	return r, nil
}

func clientOptions(cfg config.UpstreamConfig, logger *slog.Logger) []ClientOption {
	return []ClientOption{
		WithLogger(logger),
		WithTimeout(cfg.Timeout),
		WithRetries(cfg.MaxRetries, cfg.RetryBackoff),
		WithUserAgent(cfg.UserAgent),
		WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		WithCircuitBreaker(BreakerSettings{
			MaxRequests:  cfg.Breaker.MaxRequests,
			Interval:     cfg.Breaker.Interval,
			Timeout:      cfg.Breaker.Timeout,
			MinRequests:  cfg.Breaker.MinRequests,
			FailureRatio: cfg.Breaker.FailureRatio,
		}),
	}
}

// Get returns the clients for region.
func (r *Regional) Get(region model.Region) (*RegionClients, bool) {
	rc, ok := r.regions[region]
	return rc, ok
}

// Lookup resolves a region name or alias to its clients.
func (r *Regional) Lookup(name string) (*RegionClients, error) {
	region, err := model.ParseRegion(name)
	if err != nil {
		return nil, err
	}
	rc, ok := r.Get(region)
	if !ok {
		return nil, fmt.Errorf("region %s is not configured", region)
	}
	return rc, nil
}

// Regions returns the configured regions in sorted order.
func (r *Regional) Regions() []model.Region {
	out := make([]model.Region, 0, len(r.regions))
	for region := range r.regions {
		out = append(out, region)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// BreakerStates reports every client's breaker state keyed by service name.
func (r *Regional) BreakerStates() map[string]string {
	states := make(map[string]string)
	for _, rc := range r.regions {
		for _, c := range rc.Clients() {
			states[c.Service()] = c.BreakerState()
		}
	}
	return states
}
