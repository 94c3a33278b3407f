package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const (
	FormatConversation = "conversation"
	FormatVoiceOver    = "voice_over"
)

// Podcast is the authored artifact. Script, status and audio live on the
// active PodcastVersion; the podcast row carries metadata, voice
// configuration and source material references.
type Podcast struct {
	ID                 string         `db:"id" json:"id"`
	OwnerID            string         `db:"owner_id" json:"owner_id"`
	Title              string         `db:"title" json:"title"`
	Description        string         `db:"description" json:"description"`
	Tags               pq.StringArray `db:"tags" json:"tags"`
	Format             string         `db:"format" json:"format"`
	PromptInstructions string         `db:"prompt_instructions" json:"prompt_instructions"`
	SourceDocumentIDs  pq.StringArray `db:"source_document_ids" json:"source_document_ids"`
	HostVoice          string         `db:"host_voice" json:"host_voice"`
	CohostVoice        string         `db:"cohost_voice" json:"cohost_voice"`
	HostName           string         `db:"host_name" json:"host_name"`
	CohostName         string         `db:"cohost_name" json:"cohost_name"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// Segment is one scripted line spoken by one speaker.
type Segment struct {
	Speaker  string `json:"speaker"`
	Text     string `json:"text"`
	Position int    `json:"position"`
}

// SegmentList is stored as a JSONB column.
type SegmentList []Segment

func (s SegmentList) Value() (driver.Value, error) {
	if s == nil {
		s = SegmentList{}
	}
	return json.Marshal(s)
}

func (s *SegmentList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	}
	return fmt.Errorf("cannot scan %T into SegmentList", src)
}
