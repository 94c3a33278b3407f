package db

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"castforge/internal/models"
	"castforge/internal/podcast"
)

type PodcastStore struct {
	db *sqlx.DB
}

func NewPodcastStore(conn *sqlx.DB) *PodcastStore {
	return &PodcastStore{db: conn}
}

func (s *PodcastStore) Create(ctx context.Context, p models.Podcast) (models.Podcast, error) {
	query := `
		INSERT INTO podcasts
			(owner_id, title, description, tags, format, prompt_instructions,
			 source_document_ids, host_voice, cohost_voice, host_name, cohost_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING *
	`
	created := models.Podcast{}
	err := s.db.GetContext(ctx, &created, query,
		p.OwnerID, p.Title, p.Description, p.Tags, p.Format, p.PromptInstructions,
		p.SourceDocumentIDs, p.HostVoice, p.CohostVoice, p.HostName, p.CohostName)
	return created, err
}

func (s *PodcastStore) GetByID(ctx context.Context, id string) (models.Podcast, error) {
	p := models.Podcast{}
	err := s.db.GetContext(ctx, &p, "SELECT * FROM podcasts WHERE id = $1", id)
	return p, notFound(err)
}

func (s *PodcastStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Podcast, error) {
	var podcasts []models.Podcast
	query := "SELECT * FROM podcasts WHERE owner_id = $1 ORDER BY created_at DESC"
	err := s.db.SelectContext(ctx, &podcasts, query, ownerID)
	return podcasts, err
}

func (s *PodcastStore) Update(ctx context.Context, p models.Podcast) (models.Podcast, error) {
	query := `
		UPDATE podcasts
		SET title = $1, description = $2, tags = $3, prompt_instructions = $4,
		    source_document_ids = $5, host_voice = $6, cohost_voice = $7,
		    host_name = $8, cohost_name = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING *
	`
	updated := models.Podcast{}
	err := s.db.GetContext(ctx, &updated, query,
		p.Title, p.Description, p.Tags, p.PromptInstructions,
		p.SourceDocumentIDs, p.HostVoice, p.CohostVoice,
		p.HostName, p.CohostName, p.ID)
	return updated, notFound(err)
}

// UpdateGeneratedMetadata applies the title, description and tags produced
// by a script generation run.
func (s *PodcastStore) UpdateGeneratedMetadata(ctx context.Context, id, title, description string, tags []string) error {
	query := `
		UPDATE podcasts
		SET title = $1, description = $2, tags = $3, updated_at = NOW()
		WHERE id = $4
	`
	res, err := s.db.ExecContext(ctx, query, title, description, pq.StringArray(tags), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return podcast.ErrNotFound
	}
	return nil
}

func (s *PodcastStore) Delete(ctx context.Context, id, ownerID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM podcasts WHERE id = $1 AND owner_id = $2", id, ownerID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return podcast.ErrNotFound
	}
	return nil
}
