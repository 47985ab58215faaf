package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/neuroair-core/internal/auth"
	"github.com/nerrad567/neuroair-core/internal/platform"
)

// entityLister is implemented by adapters that expose entity states.
type entityLister interface {
	Entities() map[string]platform.EntityPayload
}

// platformFor resolves the adapter named in the route and checks that
// the caller's token is bound to it.
func (s *Server) platformFor(w http.ResponseWriter, r *http.Request) (platform.Adapter, bool) {
	name := chi.URLParam(r, "name")
	adapter, ok := s.platforms[name]
	if !ok {
		writeNotFound(w, "unknown platform "+name)
		return nil, false
	}
	if s.secCfg.AuthEnabled {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok || !claims.CanAccessPlatform(name) {
			writeForbidden(w, "token is not linked to platform "+name)
			return nil, false
		}
	}
	return adapter, true
}

// handlePlatformRequest passes the raw request body to the platform
// adapter and returns its response verbatim.
func (s *Server) handlePlatformRequest(w http.ResponseWriter, r *http.Request) {
	adapter, ok := s.platformFor(w, r)
	if !ok {
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "reading body: "+err.Error())
		return
	}

	resp, err := adapter.HandleRequest(r.Context(), payload)
	if err != nil {
		if errors.Is(err, platform.ErrInvalidRequest) {
			writeBadRequest(w, err.Error())
			return
		}
		s.logger.Error("platform request failed", "platform", adapter.Name(), "error", err)
		writeInternalError(w, "platform request failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write(resp)
}

// handlePlatformEntities returns the entity states of adapters that
// model the appliance as entities (Home Assistant).
func (s *Server) handlePlatformEntities(w http.ResponseWriter, r *http.Request) {
	adapter, ok := s.platformFor(w, r)
	if !ok {
		return
	}
	lister, ok := adapter.(entityLister)
	if !ok {
		writeNotFound(w, "platform "+adapter.Name()+" has no entities")
		return
	}
	writeJSON(w, http.StatusOK, lister.Entities())
}
