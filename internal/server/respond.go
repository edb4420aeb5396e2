package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/albion-omni/internal/api"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, details any) {
	writeJSON(w, status, errorBody{Error: msg, Details: details})
}

// orEmpty keeps empty lists rendering as [] instead of null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// upstreamError maps a failed upstream call to a response.
func (s *Server) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusBadGateway, "upstream request failed"

	var apiErr *api.APIError
	switch {
	case errors.Is(err, api.ErrCircuitOpen):
		status, msg = http.StatusServiceUnavailable, "upstream temporarily unavailable"
	case api.IsNotFound(err):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		// Client went away; the status is never seen.
		status, msg = 499, "request cancelled"
	case errors.As(err, &apiErr):
		msg = apiErr.Service + " returned " + http.StatusText(apiErr.StatusCode)
	}

	s.logger.Warn("upstream request failed",
		"path", r.URL.Path,
		"status", status,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err,
	)
	writeError(w, status, msg, nil)
}

// storeError maps a failed database read to a response.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, "internal error"

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		status, msg = http.StatusServiceUnavailable, "database unavailable"
	}

	s.logger.Error("database query failed",
		"path", r.URL.Path,
		"status", status,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err,
	)
	writeError(w, status, msg, nil)
}
