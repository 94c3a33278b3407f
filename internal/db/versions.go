package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"castforge/internal/models"
	"castforge/internal/podcast"
)

type VersionStore struct {
	db *sqlx.DB
}

func NewVersionStore(conn *sqlx.DB) *VersionStore {
	return &VersionStore{db: conn}
}

func (s *VersionStore) GetActive(ctx context.Context, podcastID string) (models.PodcastVersion, error) {
	v := models.PodcastVersion{}
	err := s.db.GetContext(ctx, &v,
		"SELECT * FROM podcast_versions WHERE podcast_id = $1 AND active", podcastID)
	return v, notFound(err)
}

func (s *VersionStore) GetByID(ctx context.Context, id string) (models.PodcastVersion, error) {
	v := models.PodcastVersion{}
	err := s.db.GetContext(ctx, &v, "SELECT * FROM podcast_versions WHERE id = $1", id)
	return v, notFound(err)
}

// CreateAndActivate inserts a new version and makes it the active one.
// Deactivation and insertion run in one transaction; the unique partial
// index on (podcast_id) WHERE active backstops the invariant under
// concurrent writers.
func (s *VersionStore) CreateAndActivate(ctx context.Context, v models.PodcastVersion) (models.PodcastVersion, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.PodcastVersion{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE podcast_versions SET active = false, updated_at = NOW() WHERE podcast_id = $1 AND active",
		v.PodcastID); err != nil {
		return models.PodcastVersion{}, fmt.Errorf("failed to deactivate versions: %w", err)
	}

	query := `
		INSERT INTO podcast_versions
			(podcast_id, number, active, status, segments, summary, prompt_audit)
		VALUES ($1, $2, true, $3, $4, $5, $6)
		RETURNING *
	`
	created := models.PodcastVersion{}
	if err := tx.GetContext(ctx, &created, query,
		v.PodcastID, v.Number, v.Status, v.Segments, v.Summary, v.PromptAudit); err != nil {
		return models.PodcastVersion{}, fmt.Errorf("failed to insert version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.PodcastVersion{}, err
	}
	return created, nil
}

// UpdateStatus moves a version to a new status after checking the
// transition against the state machine. The error message is recorded for
// failed transitions and cleared otherwise.
func (s *VersionStore) UpdateStatus(ctx context.Context, versionID string, status podcast.Status, errorMessage *string) error {
	current := models.PodcastVersion{}
	if err := s.db.GetContext(ctx, &current,
		"SELECT * FROM podcast_versions WHERE id = $1", versionID); err != nil {
		return notFound(err)
	}
	if !podcast.IsValidTransition(current.Status, status) {
		return &podcast.InvalidTransitionError{Current: current.Status, Action: "move to " + string(status)}
	}

	_, err := s.db.ExecContext(ctx,
		"UPDATE podcast_versions SET status = $1, error_message = $2, updated_at = NOW() WHERE id = $3",
		status, errorMessage, versionID)
	return err
}

func (s *VersionStore) UpdateScript(ctx context.Context, versionID string, segments models.SegmentList, summary string, audit models.PromptAudit) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE podcast_versions
		SET segments = $1, summary = $2, prompt_audit = $3, updated_at = NOW()
		WHERE id = $4`,
		segments, summary, audit, versionID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return podcast.ErrNotFound
	}
	return nil
}

func (s *VersionStore) UpdateAudio(ctx context.Context, versionID, audioURL string, durationSeconds int, sizeBytes int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE podcast_versions
		SET audio_url = $1, audio_duration_seconds = $2, audio_size_bytes = $3, updated_at = NOW()
		WHERE id = $4`,
		audioURL, durationSeconds, sizeBytes, versionID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return podcast.ErrNotFound
	}
	return nil
}

func (s *VersionStore) ClearAudio(ctx context.Context, versionID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE podcast_versions
		SET audio_url = NULL, audio_duration_seconds = NULL, audio_size_bytes = NULL, updated_at = NOW()
		WHERE id = $1`,
		versionID)
	return err
}

// ReadyEpisode is a feed row joining a podcast with its active ready
// version.
type ReadyEpisode struct {
	PodcastID            string    `db:"podcast_id"`
	Title                string    `db:"title"`
	Description          string    `db:"description"`
	AudioURL             string    `db:"audio_url"`
	AudioSizeBytes       int64     `db:"audio_size_bytes"`
	AudioDurationSeconds int       `db:"audio_duration_seconds"`
	UpdatedAt            time.Time `db:"updated_at"`
}

// ListReadyByOwner returns the owner's podcasts whose active version is
// ready and has audio, newest first.
func (s *VersionStore) ListReadyByOwner(ctx context.Context, ownerID string) ([]ReadyEpisode, error) {
	query := `
		SELECT p.id AS podcast_id, p.title, p.description,
		       v.audio_url, v.audio_size_bytes, v.audio_duration_seconds, v.updated_at
		FROM podcasts p
		JOIN podcast_versions v ON v.podcast_id = p.id AND v.active
		WHERE p.owner_id = $1 AND v.status = $2 AND v.audio_url IS NOT NULL
		ORDER BY v.updated_at DESC
	`
	var episodes []ReadyEpisode
	err := s.db.SelectContext(ctx, &episodes, query, ownerID, podcast.StatusReady)
	return episodes, err
}
