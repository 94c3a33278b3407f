package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"castforge/internal/feed"
)

// GetRSSFeed serves a user's episode feed. The route is public; the
// unguessable feed token is the only credential.
func (h *Handlers) GetRSSFeed(w http.ResponseWriter, r *http.Request) {
	uuid := mux.Vars(r)["uuid"]

	user, err := h.users.GetByRSSUUID(r.Context(), uuid)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "feed not found"})
		return
	}

	episodes, err := h.episodes.ListReadyByOwner(r.Context(), user.ID)
	if err != nil {
		h.log.Errorw("failed to list feed episodes", "user_id", user.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	rss, err := feed.GenerateRSS(user, episodes, h.baseURL)
	if err != nil {
		h.log.Errorw("failed to render feed", "user_id", user.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml")
	_, _ = w.Write([]byte(rss))
}

// ServeAudioFile serves generated audio from local storage. Only used
// with the local storage backend; S3 URLs bypass the server entirely.
func (h *Handlers) ServeAudioFile(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	clean := filepath.Clean("/" + key)
	if strings.Contains(clean, "..") {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.audioDir, clean))
}
