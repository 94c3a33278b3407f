package models

import "time"

const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// GenerationJob tracks one asynchronous generation run for a podcast.
// Created by the dispatcher, mutated only by the worker.
type GenerationJob struct {
	ID        string    `db:"id"`
	PodcastID string    `db:"podcast_id"`
	Type      string    `db:"type"`
	Status    string    `db:"status"`
	Payload   []byte    `db:"payload"`
	Error     *string   `db:"error"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
