package handlers

import (
	"errors"
	"net/http"

	"castforge/internal/podcast"
)

type errorResponse struct {
	Error  string `json:"error"`
	Status string `json:"status,omitempty"` // current version status, on conflicts
}

// writeError maps domain errors to HTTP status codes. This is the only
// place that mapping lives.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	var transErr *podcast.InvalidTransitionError
	var extErr *podcast.ExternalError

	switch {
	case errors.Is(err, podcast.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, podcast.ErrNoChanges):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, podcast.ErrNoSegments):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, podcast.ErrGenerationInFlight):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.As(err, &transErr):
		writeJSON(w, http.StatusConflict, errorResponse{Error: transErr.Error(), Status: string(transErr.Current)})
	case errors.As(err, &extErr):
		switch extErr.Kind {
		case podcast.ExternalRateLimited, podcast.ExternalQuotaExceeded:
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: extErr.Error()})
		default:
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: extErr.Error()})
		}
	default:
		h.log.Errorw("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
