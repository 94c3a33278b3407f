package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"castforge/internal/middleware"
)

// Router wires the HTTP surface. Feed and audio routes are public; the
// API subtree runs behind auth and per-user rate limiting.
func (h *Handlers) Router(auth *middleware.Auth, limiter *middleware.RateLimiter) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/rss/{uuid}", h.GetRSSFeed).Methods(http.MethodGet)
	r.HandleFunc("/audio/{key:.+}", h.ServeAudioFile).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	api.Use(auth.Middleware, limiter.Middleware)

	api.HandleFunc("/podcasts", h.CreatePodcast).Methods(http.MethodPost)
	api.HandleFunc("/podcasts", h.ListPodcasts).Methods(http.MethodGet)
	api.HandleFunc("/podcasts/{id}", h.GetPodcast).Methods(http.MethodGet)
	api.HandleFunc("/podcasts/{id}", h.UpdatePodcast).Methods(http.MethodPatch)
	api.HandleFunc("/podcasts/{id}", h.DeletePodcast).Methods(http.MethodDelete)
	api.HandleFunc("/podcasts/{id}/generate", h.GeneratePodcast).Methods(http.MethodPost)
	api.HandleFunc("/podcasts/{id}/approve", h.ApprovePodcast).Methods(http.MethodPost)

	api.HandleFunc("/documents", h.CreateDocument).Methods(http.MethodPost)
	api.HandleFunc("/documents", h.ListDocuments).Methods(http.MethodGet)

	return r
}
