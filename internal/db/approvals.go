package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"castforge/internal/models"
)

type ApprovalStore struct {
	db *sqlx.DB
}

func NewApprovalStore(conn *sqlx.DB) *ApprovalStore {
	return &ApprovalStore{db: conn}
}

func (s *ApprovalStore) Upsert(ctx context.Context, podcastID, userID, role string) (models.Approval, error) {
	query := `
		INSERT INTO approvals (podcast_id, user_id, role, approved_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (podcast_id, user_id) DO UPDATE SET
			role = EXCLUDED.role,
			approved_at = NOW()
		RETURNING *
	`
	approval := models.Approval{}
	err := s.db.GetContext(ctx, &approval, query, podcastID, userID, role)
	return approval, err
}

// Clear removes every approval for a podcast, the owner's and all
// collaborators'.
func (s *ApprovalStore) Clear(ctx context.Context, podcastID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM approvals WHERE podcast_id = $1", podcastID)
	return err
}

func (s *ApprovalStore) ListForPodcast(ctx context.Context, podcastID string) ([]models.Approval, error) {
	var approvals []models.Approval
	query := "SELECT * FROM approvals WHERE podcast_id = $1 ORDER BY approved_at DESC"
	err := s.db.SelectContext(ctx, &approvals, query, podcastID)
	return approvals, err
}
