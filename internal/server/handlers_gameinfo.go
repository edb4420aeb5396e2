package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rickgao/albion-omni/internal/cache"
	"github.com/rickgao/albion-omni/internal/model"
)

func (s *Server) handleKills(w http.ResponseWriter, r *http.Request) {
	var q killsQuery
	if !bindQuery(w, r, &q) {
		return
	}
	rc := regionClients(r)

	key := cache.Key(string(rc.Region), "kills", strconv.Itoa(q.Limit), strconv.Itoa(q.Offset))
	events, err := cache.GetOrLoad(r.Context(), s.deps.Cache, key, s.ttl.Kills, func(ctx context.Context) ([]model.KillEvent, error) {
		return rc.Gameinfo.GetRecentEvents(ctx, q.Limit, q.Offset)
	})
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(events))
}

// handleRecentKills serves kill events already captured by the sync job.
func (s *Server) handleRecentKills(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var q recentKillsQuery
	if !bindQuery(w, r, &q) {
		return
	}
	rc := regionClients(r)

	key := cache.Key(string(rc.Region), "db", "kills", strconv.Itoa(q.Limit))
	events, err := cache.GetOrLoad(r.Context(), s.deps.Cache, key, s.ttl.Database, func(ctx context.Context) ([]model.KillEvent, error) {
		return s.deps.Store.RecentKills(ctx, rc.Region, q.Limit)
	})
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(events))
}

func (s *Server) handleKill(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid request", []FieldError{
			{Field: "id", Tag: "number", Message: "id must be a positive integer"},
		})
		return
	}
	rc := regionClients(r)

	// Kill events never change once reported.
	key := cache.Key(string(rc.Region), "kill", strconv.FormatInt(id, 10))
	event, err := cache.GetOrLoad(r.Context(), s.deps.Cache, key, s.ttl.History, func(ctx context.Context) (*model.KillEvent, error) {
		return rc.Gameinfo.GetEvent(ctx, id)
	})
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var q searchQuery
	if !bindQuery(w, r, &q) {
		return
	}
	rc := regionClients(r)

	key := cache.Key(string(rc.Region), "search", strings.ToLower(q.Q))
	result, err := cache.GetOrLoad(r.Context(), s.deps.Cache, key, s.ttl.Search, func(ctx context.Context) (*model.SearchResult, error) {
		return rc.Gameinfo.Search(ctx, q.Q)
	})
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTopGuilds(w http.ResponseWriter, r *http.Request) {
	var q topGuildsQuery
	if !bindQuery(w, r, &q) {
		return
	}
	rc := regionClients(r)

	key := cache.Key(string(rc.Region), "guilds", "top", q.Range, strconv.Itoa(q.Limit), strconv.Itoa(q.Offset))
	entries, err := cache.GetOrLoad(r.Context(), s.deps.Cache, key, s.ttl.Guilds, func(ctx context.Context) ([]model.GuildLeaderboardEntry, error) {
		guilds, err := rc.Gameinfo.GetTopGuilds(ctx, q.Range, q.Limit, q.Offset)
		if err != nil {
			return nil, err
		}
		today := s.now().UTC().Truncate(24 * time.Hour)
		out := make([]model.GuildLeaderboardEntry, len(guilds))
		for i := range guilds {
			out[i] = guilds[i].ToLeaderboardEntry(rc.Region, today, q.Range, q.Offset+i+1)
		}
		return out, nil
	})
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(entries))
}

// handleLeaderboard serves a stored leaderboard snapshot; without a date it
// returns the latest one.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var q leaderboardQuery
	if !bindQuery(w, r, &q) {
		return
	}
	rc := regionClients(r)

	var date time.Time
	if q.Date != "" {
		date, _ = time.Parse(time.DateOnly, q.Date)
	}

	key := cache.Key(string(rc.Region), "db", "leaderboard", q.Range, q.Date, strconv.Itoa(q.Limit))
	entries, err := cache.GetOrLoad(r.Context(), s.deps.Cache, key, s.ttl.Database, func(ctx context.Context) ([]model.GuildLeaderboardEntry, error) {
		return s.deps.Store.GuildLeaderboard(ctx, rc.Region, q.Range, date, q.Limit)
	})
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(entries))
}

func (s *Server) handleGuild(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rc := regionClients(r)

	key := cache.Key(string(rc.Region), "guild", id)
	guild, err := cache.GetOrLoad(r.Context(), s.deps.Cache, key, s.ttl.Guilds, func(ctx context.Context) (*model.Guild, error) {
		return rc.Gameinfo.GetGuild(ctx, id)
	})
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, guild)
}

func (s *Server) handleGuildMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rc := regionClients(r)

	key := cache.Key(string(rc.Region), "guild", id, "members")
	members, err := cache.GetOrLoad(r.Context(), s.deps.Cache, key, s.ttl.Guilds, func(ctx context.Context) ([]model.Player, error) {
		return rc.Gameinfo.GetGuildMembers(ctx, id)
	})
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(members))
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rc := regionClients(r)

	key := cache.Key(string(rc.Region), "player", id)
	player, err := cache.GetOrLoad(r.Context(), s.deps.Cache, key, s.ttl.Players, func(ctx context.Context) (*model.Player, error) {
		return rc.Gameinfo.GetPlayer(ctx, id)
	})
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	rc := regionClients(r)

	key := cache.Key(string(rc.Region), "status")
	status, err := cache.GetOrLoad(r.Context(), s.deps.Cache, key, s.ttl.Status, func(ctx context.Context) (*model.ServerStatus, error) {
		return rc.Status.GetStatus(ctx)
	})
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// pathID validates the {id} path parameter as a Gameinfo id.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	p := idParam{ID: chi.URLParam(r, "id")}
	if errs := validateStruct(&p); len(errs) > 0 {
		writeError(w, http.StatusBadRequest, "invalid request", errs)
		return "", false
	}
	return p.ID, true
}
