package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"castforge/internal/models"
)

type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(conn *sqlx.DB) *UserStore {
	return &UserStore{db: conn}
}

// Upsert inserts a new user or refreshes an existing one from verified
// token claims. The feed token is minted once at first insert and never
// rotated by a conflict update.
func (s *UserStore) Upsert(ctx context.Context, id, email, displayName string) (*models.User, error) {
	query := `
		INSERT INTO users (id, email, display_name, rss_uuid)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			display_name = EXCLUDED.display_name,
			updated_at = NOW()
		RETURNING *
	`
	user := &models.User{}
	err := s.db.GetContext(ctx, user, query, id, email, displayName, uuid.NewString())
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserStore) GetByRSSUUID(ctx context.Context, rssUUID string) (*models.User, error) {
	user := &models.User{}
	err := s.db.GetContext(ctx, user, "SELECT * FROM users WHERE rss_uuid = $1", rssUUID)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}
