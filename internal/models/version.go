package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"castforge/internal/podcast"
)

// PromptAudit records the exact prompts sent to the language model for a
// script generation run.
type PromptAudit struct {
	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`
	Model        string `json:"model,omitempty"`
}

func (a PromptAudit) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *PromptAudit) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = PromptAudit{}
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	}
	return fmt.Errorf("cannot scan %T into PromptAudit", src)
}

// PodcastVersion is a point-in-time snapshot of a podcast's script, voice
// output and generation status. At most one version is active per podcast,
// enforced by a unique partial index.
type PodcastVersion struct {
	ID                   string         `db:"id"`
	PodcastID            string         `db:"podcast_id"`
	Number               int            `db:"number"`
	Active               bool           `db:"active"`
	Status               podcast.Status `db:"status"`
	Segments             SegmentList    `db:"segments"`
	Summary              string         `db:"summary"`
	AudioURL             *string        `db:"audio_url"`
	AudioDurationSeconds *int           `db:"audio_duration_seconds"`
	AudioSizeBytes       *int64         `db:"audio_size_bytes"`
	ErrorMessage         *string        `db:"error_message"`
	PromptAudit          PromptAudit    `db:"prompt_audit"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
}
