// Package db holds the sqlx stores over Postgres.
package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // The database driver

	"castforge/internal/podcast"
)

// Connect opens and pings a Postgres connection.
func Connect(databaseURL string) (*sqlx.DB, error) {
	conn, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, nil
}

// notFound maps a row miss to the domain not-found error.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return podcast.ErrNotFound
	}
	return err
}
