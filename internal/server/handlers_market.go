package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/albion-omni/internal/api"
	"github.com/rickgao/albion-omni/internal/arbitrage"
	"github.com/rickgao/albion-omni/internal/cache"
	"github.com/rickgao/albion-omni/internal/model"
)

// Cache keys are "<region>:<data set>:<normalized params>" under the
// configured prefix, so a region or a data set can be invalidated by prefix.

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	var q pricesQuery
	if !bindQuery(w, r, &q) {
		return
	}
	rc := regionClients(r)

	prices, err := s.cachedPrices(r.Context(), rc, q.Items, q.Locations, q.Qualities)
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(prices))
}

func (s *Server) cachedPrices(ctx context.Context, rc *api.RegionClients, items, locations []string, qualities []int) ([]model.MarketPrice, error) {
	key := cache.Key(string(rc.Region), "prices",
		strings.Join(items, ","),
		strings.Join(locations, ","),
		joinInts(qualities),
	)
	return cache.GetOrLoad(ctx, s.deps.Cache, key, s.ttl.Prices, func(ctx context.Context) ([]model.MarketPrice, error) {
		return rc.Market.GetPrices(ctx, items, locations, qualities)
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	var q historyQuery
	if !bindQuery(w, r, &q) {
		return
	}
	rc := regionClients(r)

	key := cache.Key(string(rc.Region), "history",
		strings.Join(q.Items, ","),
		strings.Join(q.Locations, ","),
		joinInts(q.Qualities),
		strconv.Itoa(q.TimeScale),
		q.From,
		q.To,
	)
	history, err := cache.GetOrLoad(r.Context(), s.deps.Cache, key, s.ttl.History, func(ctx context.Context) ([]model.PriceHistory, error) {
		return rc.Market.GetHistory(ctx, q.Items, api.HistoryOptions{
			Locations: q.Locations,
			Qualities: q.Qualities,
			TimeScale: q.TimeScale,
			From:      q.From,
			To:        q.To,
		})
	})
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(history))
}

func (s *Server) handleGold(w http.ResponseWriter, r *http.Request) {
	var q goldQuery
	if !bindQuery(w, r, &q) {
		return
	}
	rc := regionClients(r)

	key := cache.Key(string(rc.Region), "gold", strconv.Itoa(q.Count))
	prices, err := cache.GetOrLoad(r.Context(), s.deps.Cache, key, s.ttl.Gold, func(ctx context.Context) ([]model.GoldPrice, error) {
		return rc.Market.GetGoldPrices(ctx, q.Count, "", "")
	})
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(prices))
}

// handleGoldHistory serves stored gold prices, newest first. since defaults
// to seven days ago.
func (s *Server) handleGoldHistory(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var q goldHistoryQuery
	if !bindQuery(w, r, &q) {
		return
	}
	rc := regionClients(r)

	since := s.now().UTC().AddDate(0, 0, -7)
	if q.Since != "" {
		since, _ = time.Parse(time.DateOnly, q.Since)
	}

	key := cache.Key(string(rc.Region), "db", "gold", since.Format(time.DateOnly), strconv.Itoa(q.Limit))
	prices, err := cache.GetOrLoad(r.Context(), s.deps.Cache, key, s.ttl.Database, func(ctx context.Context) ([]model.GoldPrice, error) {
		return s.deps.Store.GoldHistory(ctx, rc.Region, since, q.Limit)
	})
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(prices))
}

// handleStoredPrices serves the last synced prices of one item from the
// database.
func (s *Server) handleStoredPrices(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var q storedPricesQuery
	if !bindQuery(w, r, &q) {
		return
	}
	rc := regionClients(r)

	key := cache.Key(string(rc.Region), "db", "prices", q.Item)
	prices, err := cache.GetOrLoad(r.Context(), s.deps.Cache, key, s.ttl.Database, func(ctx context.Context) ([]model.MarketPrice, error) {
		return s.deps.Store.LatestPrices(ctx, rc.Region, q.Item)
	})
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(prices))
}

// arbitrageResponse echoes the scan parameters with the routes found.
type arbitrageResponse struct {
	Region        model.Region            `json:"region"`
	Quality       int                     `json:"quality"`
	Quantity      int                     `json:"quantity"`
	MinROI        float64                 `json:"min_roi"`
	Opportunities []arbitrage.Opportunity `json:"opportunities"`
}

func (s *Server) handleArbitrage(w http.ResponseWriter, r *http.Request) {
	var q arbitrageQuery
	if !bindQuery(w, r, &q) {
		return
	}
	rc := regionClients(r)

	locations := q.Locations
	if len(locations) == 0 {
		locations = model.Cities()
	}

	key := cache.Key(string(rc.Region), "arbitrage",
		strings.Join(q.Items, ","),
		strings.Join(locations, ","),
		strconv.Itoa(q.Quality),
		strconv.Itoa(q.Quantity),
		strconv.FormatFloat(q.MinROI, 'f', -1, 64),
		strconv.Itoa(q.Limit),
	)
	opps, err := cache.GetOrLoad(r.Context(), s.deps.Cache, key, s.ttl.Arbitrage, func(ctx context.Context) ([]arbitrage.Opportunity, error) {
		prices, err := s.cachedPrices(ctx, rc, q.Items, locations, []int{q.Quality})
		if err != nil {
			return nil, err
		}
		listings := arbitrage.ListingsFromPrices(prices, q.Quantity)
		return s.deps.Scanner.Scan(listings, q.MinROI, q.Limit), nil
	})
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, arbitrageResponse{
		Region:        rc.Region,
		Quality:       q.Quality,
		Quantity:      q.Quantity,
		MinROI:        q.MinROI,
		Opportunities: orEmpty(opps),
	})
}

// requireStore writes 503 when no database is configured.
func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.deps.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable", nil)
		return false
	}
	return true
}
