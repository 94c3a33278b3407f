package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"castforge/internal/models"
	"castforge/internal/podcast"
	"castforge/pkg/tasks"
)

// dispatchLockTTL bounds how long a crashed dispatcher can block others.
const dispatchLockTTL = 30 * time.Second

// Dispatcher enqueues generation runs idempotently: at most one
// pending/processing job per podcast. The check-then-act read of job
// state is guarded by a short-lived Redis lock keyed by podcast id, which
// closes the race window between concurrent dispatchers.
type Dispatcher struct {
	log      *zap.SugaredLogger
	podcasts PodcastRepo
	versions VersionRepo
	jobs     JobRepo
	enqueuer tasks.TaskEnqueuer
	locks    *redis.Client
}

func NewDispatcher(log *zap.SugaredLogger, podcasts PodcastRepo, versions VersionRepo, jobs JobRepo, enqueuer tasks.TaskEnqueuer, locks *redis.Client) *Dispatcher {
	return &Dispatcher{
		log:      log,
		podcasts: podcasts,
		versions: versions,
		jobs:     jobs,
		enqueuer: enqueuer,
		locks:    locks,
	}
}

// DispatchResult reports the job a dispatch call converged on. Created is
// false when an already in-flight job was returned instead of a new one.
type DispatchResult struct {
	Job     models.GenerationJob
	Created bool
}

// StartGeneration computes the steps needed to take the podcast's active
// version to the target status and dispatches the first one. An empty
// step list (failed, generating, or already at the target) is an error:
// regeneration from those states requires an explicit new attempt.
func (d *Dispatcher) StartGeneration(ctx context.Context, actorID, podcastID string, target podcast.Status, promptOverride string) (*DispatchResult, error) {
	p, err := d.podcasts.GetByID(ctx, podcastID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != actorID {
		return nil, podcast.ErrNotFound
	}
	active, err := d.versions.GetActive(ctx, podcastID)
	if err != nil {
		return nil, err
	}

	steps := podcast.StepsToReach(active.Status, target)
	if len(steps) == 0 {
		return nil, &podcast.InvalidTransitionError{Current: active.Status, Action: "generate"}
	}
	return d.dispatch(ctx, p.ID, steps, promptOverride)
}

func (d *Dispatcher) dispatch(ctx context.Context, podcastID string, steps []podcast.GenerationStep, promptOverride string) (*DispatchResult, error) {
	lockKey := "castforge:genlock:" + podcastID
	locked := true
	if d.locks != nil {
		ok, err := d.locks.SetNX(ctx, lockKey, "1", dispatchLockTTL).Result()
		switch {
		case err != nil:
			// Degrade to the plain check when Redis is unreachable.
			d.log.Warnw("dispatch lock unavailable", "podcast_id", podcastID, "error", err)
		case !ok:
			locked = false
		default:
			defer d.locks.Del(context.WithoutCancel(ctx), lockKey)
		}
	}

	existing, err := d.jobs.FindPendingForPodcast(ctx, podcastID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up pending job: %w", err)
	}
	if existing != nil {
		return &DispatchResult{Job: *existing, Created: false}, nil
	}
	if !locked {
		// Another dispatcher holds the lock but its job row is not
		// visible yet.
		return nil, podcast.ErrGenerationInFlight
	}

	payload := tasks.GeneratePayload{
		PodcastID:      podcastID,
		Steps:          stepStrings(steps),
		PromptOverride: promptOverride,
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	job, err := d.jobs.Create(ctx, podcastID, taskTypeForStep(steps[0]), payloadJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	payload.JobID = job.ID
	task, err := taskForStep(steps[0], payload)
	if err != nil {
		return nil, err
	}
	// MaxRetry 0: the orchestrator never retries a generation attempt.
	if _, err := d.enqueuer.Enqueue(task, asynq.MaxRetry(0)); err != nil {
		// Compensate: a job row without a queue entry would wedge the
		// idempotency check forever.
		if delErr := d.jobs.Delete(ctx, job.ID); delErr != nil {
			d.log.Errorw("failed to delete job after enqueue failure", "job_id", job.ID, "error", delErr)
		}
		return nil, fmt.Errorf("failed to enqueue generation task: %w", err)
	}

	d.log.Infow("generation dispatched", "podcast_id", podcastID, "job_id", job.ID, "steps", payload.Steps)
	return &DispatchResult{Job: job, Created: true}, nil
}

func stepStrings(steps []podcast.GenerationStep) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = string(s)
	}
	return out
}

func taskTypeForStep(step podcast.GenerationStep) string {
	if step == podcast.StepGenerateAudio {
		return tasks.TypeGenerateAudio
	}
	return tasks.TypeGenerateScript
}

func taskForStep(step podcast.GenerationStep, payload tasks.GeneratePayload) (*asynq.Task, error) {
	if step == podcast.StepGenerateAudio {
		return tasks.NewGenerateAudioTask(payload)
	}
	return tasks.NewGenerateScriptTask(payload)
}
