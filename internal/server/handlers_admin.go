package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rickgao/albion-omni/internal/cache"
	"github.com/rickgao/albion-omni/internal/model"
	"github.com/rickgao/albion-omni/internal/snapshot"
	"github.com/rickgao/albion-omni/internal/version"
)

const (
	healthTimeout     = 2 * time.Second
	recentRunsLimit   = 20
	componentOK       = "ok"
	componentDown     = "unavailable"
	componentDisabled = "disabled"
)

type healthResponse struct {
	Status      string            `json:"status"` // "ok", "degraded"
	Version     version.Info      `json:"version"`
	Database    string            `json:"database"`
	Cache       cacheHealth       `json:"cache"`
	Breakers    map[string]string `json:"breakers"`
	LiveClients int               `json:"live_clients"`
	Time        time.Time         `json:"time"`
}

type cacheHealth struct {
	Backend    string `json:"backend"`
	Status     string `json:"status"`
	MemoryOnly bool   `json:"memory_only"`
}

// handleHealth reports component health. Only an unreachable database
// turns the response into a 503; open breakers and a lost Redis degrade it.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{
		Status:   componentOK,
		Version:  version.Get(),
		Database: componentDisabled,
		Breakers: s.deps.Upstream.BreakerStates(),
		Time:     s.now().UTC(),
	}
	code := http.StatusOK

	if s.deps.Store != nil {
		resp.Database = componentOK
		if err := s.deps.Store.Ping(ctx); err != nil {
			s.logger.Warn("health check: database ping failed", "error", err)
			resp.Database = componentDown
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	resp.Cache = s.cacheHealth(ctx)
	if resp.Cache.Status != componentOK {
		resp.Status = "degraded"
	}

	for _, state := range resp.Breakers {
		if state == "open" {
			resp.Status = "degraded"
		}
	}

	if s.deps.Hub != nil {
		resp.LiveClients = s.deps.Hub.Len()
	}

	writeJSON(w, code, resp)
}

func (s *Server) cacheHealth(ctx context.Context) cacheHealth {
	store := s.deps.Cache.Store()
	h := cacheHealth{Backend: store.Name(), Status: componentOK}
	if fb, ok := store.(*cache.Fallback); ok {
		h.MemoryOnly = !fb.HasPrimary()
	}
	if err := s.deps.Cache.Ping(ctx); err != nil {
		s.logger.Warn("health check: cache ping failed", "backend", h.Backend, "error", err)
		h.Status = componentDown
	}
	return h
}

type syncStatusResponse struct {
	Jobs       []snapshot.JobStatus    `json:"jobs"`
	Schedules  []snapshot.ScheduleInfo `json:"schedules"`
	RecentRuns []model.SyncRun         `json:"recent_runs"`
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runner == nil {
		writeError(w, http.StatusServiceUnavailable, "sync is not enabled", nil)
		return
	}

	resp := syncStatusResponse{
		Jobs:       s.deps.Runner.Status(),
		Schedules:  []snapshot.ScheduleInfo{},
		RecentRuns: []model.SyncRun{},
	}
	if s.deps.Scheduler != nil {
		resp.Schedules = orEmpty(s.deps.Scheduler.Schedules())
	}
	if s.deps.Store != nil {
		runs, err := s.deps.Store.RecentSyncRuns(r.Context(), recentRunsLimit)
		if err != nil {
			s.storeError(w, r, err)
			return
		}
		resp.RecentRuns = orEmpty(runs)
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleSyncRun runs one job, or every job for "all", and waits for it.
// The run is detached from the request so a dropped client does not
// abort a half-written snapshot.
func (s *Server) handleSyncRun(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runner == nil {
		writeError(w, http.StatusServiceUnavailable, "sync is not enabled", nil)
		return
	}
	ctx := context.WithoutCancel(r.Context())
	job := chi.URLParam(r, "job")

	if job == "all" {
		runs, err := s.deps.Runner.RunAll(ctx)
		if err != nil {
			s.logger.Warn("manual sync failed", "job", job, "error", err)
			writeError(w, http.StatusBadGateway, err.Error(), orEmpty(runs))
			return
		}
		writeJSON(w, http.StatusOK, orEmpty(runs))
		return
	}

	run, err := s.deps.Runner.Run(ctx, job)
	switch {
	case errors.Is(err, snapshot.ErrUnknownJob):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, snapshot.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case err != nil:
		s.logger.Warn("manual sync failed", "job", job, "error", err)
		writeError(w, http.StatusBadGateway, err.Error(), run)
	default:
		writeJSON(w, http.StatusOK, run)
	}
}

func (s *Server) handleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	var q invalidateQuery
	if !bindQuery(w, r, &q) {
		return
	}

	removed, err := s.deps.Cache.Invalidate(r.Context(), q.Prefix)
	if err != nil {
		s.logger.Error("cache invalidation failed", "prefix", q.Prefix, "error", err)
		writeError(w, http.StatusInternalServerError, "cache invalidation failed", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"prefix":  q.Prefix,
		"removed": removed,
	})
}
