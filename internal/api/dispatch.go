package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/nerrad567/neuroair-core/internal/dispatch"
	"github.com/nerrad567/neuroair-core/internal/history"
	"github.com/nerrad567/neuroair-core/internal/speech"
)

// audioDispatchTimeout bounds one audio recognition plus dispatch.
const audioDispatchTimeout = 30 * time.Second

// dispatchResponse is the body of the dispatch endpoints.
type dispatchResponse struct {
	Outcome dispatch.Outcome `json:"outcome"`

	// Error is set when a matched action failed. The outcome is still
	// reported as handled.
	Error string `json:"error,omitempty"`
}

// handleDispatch resolves recognition results supplied as JSON. The body
// is a single result, an object with a "results" array, or a bare array.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "reading body: "+err.Error())
		return
	}
	results, err := dispatch.DecodeRecognition(body)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	outcome, err := s.dispatcher.DispatchStream(r.Context(), speech.NewSliceStream(results...), history.SourceAPI)
	s.writeDispatch(w, outcome, err)
}

// handleDispatchAudio streams the raw request body to the recogniser and
// dispatches what it hears.
func (s *Server) handleDispatchAudio(w http.ResponseWriter, r *http.Request) {
	if s.recognizer == nil {
		writeUnavailable(w, "audio recognition is not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), audioDispatchTimeout)
	defer cancel()

	stream, err := s.recognizer.Recognize(ctx, r.Body)
	if err != nil {
		s.logger.Warn("audio recognition failed", "error", err)
		writeUpstream(w, "audio recognition failed")
		return
	}

	outcome, err := s.dispatcher.DispatchStream(ctx, stream, history.SourceAPI)
	s.writeDispatch(w, outcome, err)
}

func (s *Server) writeDispatch(w http.ResponseWriter, outcome dispatch.Outcome, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, dispatchResponse{Outcome: outcome})
	case errors.Is(err, dispatch.ErrSourceFailed):
		s.logger.Warn("recognition source failed", "error", err)
		writeUpstream(w, err.Error())
	default:
		writeJSON(w, http.StatusOK, dispatchResponse{Outcome: outcome, Error: err.Error()})
	}
}
