package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rickgao/albion-omni/internal/api"
	"github.com/rickgao/albion-omni/internal/arbitrage"
	"github.com/rickgao/albion-omni/internal/auth"
	"github.com/rickgao/albion-omni/internal/cache"
	"github.com/rickgao/albion-omni/internal/config"
	"github.com/rickgao/albion-omni/internal/live"
	"github.com/rickgao/albion-omni/internal/metrics"
	"github.com/rickgao/albion-omni/internal/model"
	"github.com/rickgao/albion-omni/internal/snapshot"
)

// Store is the database read surface used by the routes. *store.Store
// implements it.
type Store interface {
	Ping(ctx context.Context) error
	LatestPrices(ctx context.Context, region model.Region, itemID string) ([]model.MarketPrice, error)
	GoldHistory(ctx context.Context, region model.Region, since time.Time, limit int) ([]model.GoldPrice, error)
	RecentKills(ctx context.Context, region model.Region, limit int) ([]model.KillEvent, error)
	GuildLeaderboard(ctx context.Context, region model.Region, rng string, date time.Time, limit int) ([]model.GuildLeaderboardEntry, error)
	RecentSyncRuns(ctx context.Context, limit int) ([]model.SyncRun, error)
}

// Deps are the components the routes are served from. Store, Hub and
// Scheduler may be nil.
type Deps struct {
	Upstream  *api.Regional
	Cache     *cache.Cache
	Store     Store
	Hub       *live.Hub
	Runner    *snapshot.Runner
	Scheduler *snapshot.Scheduler
	Scanner   *arbitrage.Scanner
}

// Server is the dashboard HTTP API.
type Server struct {
	cfg    *config.Config
	deps   Deps
	ttl    config.TTLConfig
	logger *slog.Logger
	router chi.Router
	now    func() time.Time

	httpServer *http.Server
	listener   net.Listener
	wg         sync.WaitGroup
}

// New builds the router. cfg must have defaults applied.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Scanner == nil {
		deps.Scanner = arbitrage.NewScanner()
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		ttl:    cfg.Cache.TTL,
		logger: logger,
		now:    time.Now,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(instrument)

	if !s.cfg.Metrics.Disabled {
		r.Method(http.MethodGet, s.cfg.Metrics.Path, metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimit(s.cfg.Server.RateLimit))

		r.Get("/health", s.handleHealth)
		if s.deps.Hub != nil {
			r.Get("/live", s.deps.Hub.ServeHTTP)
		}

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireSecret(s.cfg.Admin.Secret))
			r.Get("/sync", s.handleSyncStatus)
			r.Post("/sync/{job}", s.handleSyncRun)
			r.Post("/cache/invalidate", s.handleCacheInvalidate)
		})

		r.Route("/{region}", func(r chi.Router) {
			r.Use(s.withRegion)

			r.Get("/prices", s.handlePrices)
			r.Get("/prices/stored", s.handleStoredPrices)
			r.Get("/history", s.handleHistory)
			r.Get("/gold", s.handleGold)
			r.Get("/gold/history", s.handleGoldHistory)
			r.Get("/arbitrage", s.handleArbitrage)

			r.Get("/kills", s.handleKills)
			r.Get("/kills/recent", s.handleRecentKills)
			r.Get("/kills/{id}", s.handleKill)
			r.Get("/search", s.handleSearch)
			r.Get("/guilds/top", s.handleTopGuilds)
			r.Get("/guilds/leaderboard", s.handleLeaderboard)
			r.Get("/guilds/{id}", s.handleGuild)
			r.Get("/guilds/{id}/members", s.handleGuildMembers)
			r.Get("/players/{id}", s.handlePlayer)
			r.Get("/status", s.handleStatus)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Server.Addr, err)
	}
	s.listener = ln

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       s.cfg.Server.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server failed", "error", err)
		}
	}()

	s.logger.Info("http server started", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the server, waiting for in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("http server stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
