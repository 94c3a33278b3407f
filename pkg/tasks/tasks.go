package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TypeGenerateScript = "podcast:generate_script"
	TypeGenerateAudio  = "podcast:generate_audio"
	TypeReapStaleJobs  = "jobs:reap_stale"
)

// GeneratePayload is carried by both generation task types. Steps holds
// the remaining steps of the run, the current one first, so a handler can
// chain the next step after finishing its own.
type GeneratePayload struct {
	JobID          string   `json:"job_id"`
	PodcastID      string   `json:"podcast_id"`
	Steps          []string `json:"steps"`
	PromptOverride string   `json:"prompt_override,omitempty"`
}

func NewGenerateScriptTask(p GeneratePayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeGenerateScript, payload), nil
}

func NewGenerateAudioTask(p GeneratePayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeGenerateAudio, payload), nil
}

func NewReapStaleJobsTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeReapStaleJobs, nil), nil
}
