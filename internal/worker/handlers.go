// Package worker holds the asynq task handlers that execute generation
// runs. Handlers own the job row lifecycle (processing, completed,
// failed) and chain the next step of a multi-step run; the actual work is
// delegated to the orchestrator.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"castforge/internal/models"
	"castforge/internal/podcast"
	"castforge/pkg/tasks"
)

// staleJobLease bounds how long a processing job may go without progress
// before the reaper declares its worker dead.
const staleJobLease = 30 * time.Minute

// Generator runs one generation step against the active version.
type Generator interface {
	RunScriptStep(ctx context.Context, podcastID, promptOverride string) error
	RunAudioStep(ctx context.Context, podcastID string) error
}

type jobStore interface {
	MarkProcessing(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, errorMessage string) error
	ReapStale(ctx context.Context, lease time.Duration) ([]models.GenerationJob, error)
}

type versionStore interface {
	GetActive(ctx context.Context, podcastID string) (models.PodcastVersion, error)
	UpdateStatus(ctx context.Context, versionID string, status podcast.Status, errorMessage *string) error
}

type TaskHandler struct {
	log          *zap.SugaredLogger
	orchestrator Generator
	jobs         jobStore
	versions     versionStore
	enqueuer     tasks.TaskEnqueuer
}

func NewTaskHandler(log *zap.SugaredLogger, orchestrator Generator, jobs jobStore, versions versionStore, enqueuer tasks.TaskEnqueuer) *TaskHandler {
	return &TaskHandler{
		log:          log,
		orchestrator: orchestrator,
		jobs:         jobs,
		versions:     versions,
		enqueuer:     enqueuer,
	}
}

func (h *TaskHandler) HandleGenerateScriptTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.GeneratePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}
	if err := h.jobs.MarkProcessing(ctx, p.JobID); err != nil {
		h.log.Warnw("failed to mark job processing", "job_id", p.JobID, "error", err)
	}

	if err := h.orchestrator.RunScriptStep(ctx, p.PodcastID, p.PromptOverride); err != nil {
		h.failJob(ctx, p.JobID, err)
		return err
	}
	return h.finishStep(ctx, p)
}

func (h *TaskHandler) HandleGenerateAudioTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.GeneratePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}
	if err := h.jobs.MarkProcessing(ctx, p.JobID); err != nil {
		h.log.Warnw("failed to mark job processing", "job_id", p.JobID, "error", err)
	}

	if err := h.orchestrator.RunAudioStep(ctx, p.PodcastID); err != nil {
		h.failJob(ctx, p.JobID, err)
		return err
	}
	return h.finishStep(ctx, p)
}

// finishStep either chains the next step of the run or completes the job.
// The job row stays processing while a chained step is pending, so the
// dispatcher keeps refusing a second run for the same podcast.
func (h *TaskHandler) finishStep(ctx context.Context, p tasks.GeneratePayload) error {
	var remaining []string
	if len(p.Steps) > 1 {
		remaining = p.Steps[1:]
	}
	if len(remaining) == 0 {
		if err := h.jobs.MarkCompleted(ctx, p.JobID); err != nil {
			return fmt.Errorf("failed to mark job completed: %w", err)
		}
		h.log.Infow("generation run complete", "job_id", p.JobID, "podcast_id", p.PodcastID)
		return nil
	}

	next := p
	next.Steps = remaining
	var (
		task *asynq.Task
		err  error
	)
	if remaining[0] == string(podcast.StepGenerateAudio) {
		task, err = tasks.NewGenerateAudioTask(next)
	} else {
		task, err = tasks.NewGenerateScriptTask(next)
	}
	if err != nil {
		h.failJob(ctx, p.JobID, err)
		return err
	}
	if _, err := h.enqueuer.Enqueue(task, asynq.MaxRetry(0)); err != nil {
		err = fmt.Errorf("failed to chain next step: %w", err)
		h.failJob(ctx, p.JobID, err)
		return err
	}
	h.log.Infow("chained next generation step",
		"job_id", p.JobID, "podcast_id", p.PodcastID, "step", remaining[0])
	return nil
}

func (h *TaskHandler) failJob(ctx context.Context, jobID string, cause error) {
	if err := h.jobs.MarkFailed(ctx, jobID, cause.Error()); err != nil {
		h.log.Errorw("failed to mark job failed", "job_id", jobID, "error", err)
	}
}

// HandleReapStaleJobsTask fails processing jobs whose lease expired,
// usually because a worker died mid-run, and moves their versions out of
// the in-progress status so the podcast can be regenerated.
func (h *TaskHandler) HandleReapStaleJobsTask(ctx context.Context, t *asynq.Task) error {
	reaped, err := h.jobs.ReapStale(ctx, staleJobLease)
	if err != nil {
		return fmt.Errorf("failed to reap stale jobs: %w", err)
	}
	for _, job := range reaped {
		v, err := h.versions.GetActive(ctx, job.PodcastID)
		if err != nil {
			h.log.Warnw("reaped job has no active version", "job_id", job.ID, "podcast_id", job.PodcastID, "error", err)
			continue
		}
		if v.Status != podcast.StatusGeneratingAudio {
			continue
		}
		msg := "generation lease expired"
		if err := h.versions.UpdateStatus(ctx, v.ID, podcast.StatusFailed, &msg); err != nil {
			h.log.Errorw("failed to fail stale version", "version_id", v.ID, "error", err)
		}
	}
	if len(reaped) > 0 {
		h.log.Infow("reaped stale generation jobs", "count", len(reaped))
	}
	return nil
}
