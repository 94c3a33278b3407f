package db

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"castforge/internal/models"
)

type DocumentStore struct {
	db *sqlx.DB
}

func NewDocumentStore(conn *sqlx.DB) *DocumentStore {
	return &DocumentStore{db: conn}
}

func (s *DocumentStore) Create(ctx context.Context, d models.Document) (models.Document, error) {
	query := `
		INSERT INTO documents (owner_id, title, content)
		VALUES ($1, $2, $3)
		RETURNING *
	`
	created := models.Document{}
	err := s.db.GetContext(ctx, &created, query, d.OwnerID, d.Title, d.Content)
	return created, err
}

func (s *DocumentStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Document, error) {
	var docs []models.Document
	query := "SELECT * FROM documents WHERE owner_id = $1 ORDER BY created_at DESC"
	err := s.db.SelectContext(ctx, &docs, query, ownerID)
	return docs, err
}

// GetContents loads the documents referenced by a podcast's source set.
// Missing ids are skipped rather than failing the whole generation run.
func (s *DocumentStore) GetContents(ctx context.Context, ids []string) ([]models.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var docs []models.Document
	query := "SELECT * FROM documents WHERE id = ANY($1) ORDER BY created_at ASC"
	err := s.db.SelectContext(ctx, &docs, query, pq.StringArray(ids))
	return docs, err
}
