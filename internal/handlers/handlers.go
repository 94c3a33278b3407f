// Package handlers exposes the HTTP API. Handlers translate between JSON
// and the service layer; domain errors are mapped to status codes in one
// place so services stay transport-free.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"castforge/internal/db"
	"castforge/internal/models"
	"castforge/internal/podcast"
	"castforge/internal/service"
)

type PodcastAPI interface {
	Create(ctx context.Context, actorID string, req service.CreateRequest) (*service.PodcastWithVersion, error)
	Update(ctx context.Context, actorID, podcastID string, req service.UpdateRequest) (*service.PodcastWithVersion, error)
	Get(ctx context.Context, actorID, podcastID string) (*service.PodcastWithVersion, error)
	List(ctx context.Context, actorID string) ([]models.Podcast, error)
	Delete(ctx context.Context, actorID, podcastID string) error
	Approve(ctx context.Context, actorID, podcastID string) (models.Approval, error)
}

type GenerationStarter interface {
	StartGeneration(ctx context.Context, actorID, podcastID string, target podcast.Status, promptOverride string) (*service.DispatchResult, error)
}

type DocumentAPI interface {
	Create(ctx context.Context, d models.Document) (models.Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Document, error)
}

// FeedSource resolves a public feed token to its user and episodes.
type FeedSource interface {
	GetByRSSUUID(ctx context.Context, rssUUID string) (*models.User, error)
}

type EpisodeLister interface {
	ListReadyByOwner(ctx context.Context, ownerID string) ([]db.ReadyEpisode, error)
}

type Handlers struct {
	log       *zap.SugaredLogger
	podcasts  PodcastAPI
	generator GenerationStarter
	documents DocumentAPI
	users     FeedSource
	episodes  EpisodeLister
	audioDir  string
	baseURL   string
}

func New(log *zap.SugaredLogger, podcasts PodcastAPI, generator GenerationStarter, documents DocumentAPI, users FeedSource, episodes EpisodeLister, audioDir, baseURL string) *Handlers {
	return &Handlers{
		log:       log,
		podcasts:  podcasts,
		generator: generator,
		documents: documents,
		users:     users,
		episodes:  episodes,
		audioDir:  audioDir,
		baseURL:   baseURL,
	}
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
