package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// defaultRetention is used by the prune endpoint when the body omits
// older_than.
const defaultRetention = 30 * 24 * time.Hour

type pruneRequest struct {
	OlderThan string `json:"older_than"`
}

// handleListHistory returns recent dispatches, newest first.
// Query: ?limit=N (default 50, max 200).
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "history is not configured")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.history.List(r.Context(), s.controller.DeviceID(), limit)
	if err != nil {
		s.logger.Error("listing history failed", "error", err)
		writeInternalError(w, "listing history failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

// handlePruneHistory deletes dispatch records older than a duration
// such as "720h".
func (s *Server) handlePruneHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "history is not configured")
		return
	}

	var req pruneRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid JSON body")
			return
		}
	}
	olderThan := defaultRetention
	if req.OlderThan != "" {
		d, err := time.ParseDuration(req.OlderThan)
		if err != nil || d <= 0 {
			writeBadRequest(w, "older_than must be a positive duration")
			return
		}
		olderThan = d
	}

	deleted, err := s.history.Prune(r.Context(), olderThan)
	if err != nil {
		s.logger.Error("pruning history failed", "error", err)
		writeInternalError(w, "pruning history failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}
