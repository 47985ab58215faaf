package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/neuroair-core/internal/device"
	"github.com/nerrad567/neuroair-core/internal/dispatch"
	"github.com/nerrad567/neuroair-core/internal/scent"
)

// stateResponse is the body of GET /state and of every device operation.
type stateResponse struct {
	DeviceID       string                 `json:"device_id"`
	State          device.State           `json:"state"`
	PendingRoutine *device.PendingRoutine `json:"pending_routine,omitempty"`
	LastResult     *dispatch.LastResult   `json:"last_result,omitempty"`
}

type powerRequest struct {
	On *bool `json:"on"`
}

type profileRequest struct {
	Profile   string `json:"profile"`
	Intensity *int   `json:"intensity,omitempty"`
}

type intensityRequest struct {
	Delta *int `json:"delta"`
}

type emotionRequest struct {
	Emotion string `json:"emotion"`
}

func (s *Server) currentState() stateResponse {
	resp := stateResponse{
		DeviceID: s.controller.DeviceID(),
		State:    s.controller.State(),
	}
	if p, ok := s.controller.PendingRoutine(); ok {
		resp.PendingRoutine = &p
	}
	if last, ok := s.dispatcher.LastResult(); ok {
		resp.LastResult = &last
	}
	return resp
}

// handleGetState returns the device state, pending routine and last
// recognition result.
func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.currentState())
}

// handleListProfiles returns the scent profile catalog.
func (s *Server) handleListProfiles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"profiles": s.controller.Catalog().All(),
	})
}

func (s *Server) handleSetPower(w http.ResponseWriter, r *http.Request) {
	var req powerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.On == nil {
		writeBadRequest(w, `body must be {"on": true|false}`)
		return
	}

	var err error
	if *req.On {
		err = s.controller.TurnOn(r.Context())
	} else {
		err = s.controller.TurnOff(r.Context())
	}
	s.writeOperation(w, err)
}

func (s *Server) handleSetProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Profile == "" {
		writeBadRequest(w, "profile is required")
		return
	}
	s.writeOperation(w, s.controller.SetProfile(r.Context(), req.Profile, req.Intensity))
}

func (s *Server) handleAdjustIntensity(w http.ResponseWriter, r *http.Request) {
	var req intensityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Delta == nil {
		writeBadRequest(w, "delta is required")
		return
	}
	s.writeOperation(w, s.controller.AdjustIntensity(r.Context(), *req.Delta))
}

// handleEmotionResponse selects the profile that answers an emotion,
// bypassing recognition.
func (s *Server) handleEmotionResponse(w http.ResponseWriter, r *http.Request) {
	var req emotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Emotion == "" {
		writeBadRequest(w, "emotion is required")
		return
	}
	s.writeOperation(w, s.controller.EmotionResponse(r.Context(), scent.ParseEmotion(req.Emotion)))
}

func (s *Server) handleRunRoutine(w http.ResponseWriter, r *http.Request) {
	var err error
	switch name := chi.URLParam(r, "name"); name {
	case "morning":
		err = s.controller.MorningRoutine(r.Context())
	case "evening":
		err = s.controller.EveningRoutine(r.Context())
	case "sleep":
		err = s.controller.SleepRoutine(r.Context())
	default:
		writeNotFound(w, "unknown routine "+name)
		return
	}
	s.writeOperation(w, err)
}

// writeOperation reports the result of a device operation together with
// the state it left behind.
func (s *Server) writeOperation(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, s.currentState())
	case errors.Is(err, scent.ErrProfileNotFound):
		writeNotFound(w, err.Error())
	case errors.Is(err, device.ErrDriver):
		s.logger.Warn("device operation failed", "error", err)
		writeUpstream(w, err.Error())
	default:
		s.logger.Error("device operation failed", "error", err)
		writeInternalError(w, "device operation failed")
	}
}
