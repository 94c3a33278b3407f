// Package service holds the use cases over the workflow core: podcast
// updates with edit classification, the generation orchestrator and the
// idempotent job dispatcher. Collaborators are consumed through the
// interfaces below and injected explicitly.
package service

import (
	"context"

	"castforge/internal/models"
	"castforge/internal/podcast"
)

type PodcastRepo interface {
	Create(ctx context.Context, p models.Podcast) (models.Podcast, error)
	GetByID(ctx context.Context, id string) (models.Podcast, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Podcast, error)
	Update(ctx context.Context, p models.Podcast) (models.Podcast, error)
	UpdateGeneratedMetadata(ctx context.Context, id, title, description string, tags []string) error
	Delete(ctx context.Context, id, ownerID string) error
}

type VersionRepo interface {
	GetActive(ctx context.Context, podcastID string) (models.PodcastVersion, error)
	CreateAndActivate(ctx context.Context, v models.PodcastVersion) (models.PodcastVersion, error)
	UpdateStatus(ctx context.Context, versionID string, status podcast.Status, errorMessage *string) error
	UpdateScript(ctx context.Context, versionID string, segments models.SegmentList, summary string, audit models.PromptAudit) error
	UpdateAudio(ctx context.Context, versionID, audioURL string, durationSeconds int, sizeBytes int64) error
	ClearAudio(ctx context.Context, versionID string) error
}

type JobRepo interface {
	Create(ctx context.Context, podcastID, jobType string, payload []byte) (models.GenerationJob, error)
	FindPendingForPodcast(ctx context.Context, podcastID string) (*models.GenerationJob, error)
	Delete(ctx context.Context, id string) error
}

type ApprovalRepo interface {
	Upsert(ctx context.Context, podcastID, userID, role string) (models.Approval, error)
	Clear(ctx context.Context, podcastID string) error
}

type DocumentRepo interface {
	GetContents(ctx context.Context, ids []string) ([]models.Document, error)
}
