package service

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"castforge/internal/ai"
	"castforge/internal/models"
	"castforge/internal/podcast"
)

// In-memory fakes for the repos and collaborators. The version fake
// enforces the same transition legality as the real store so orchestration
// bugs surface in tests.

type fakePodcasts struct {
	byID        map[string]models.Podcast
	metaUpdates int
	nextID      int
}

func newFakePodcasts(seed ...models.Podcast) *fakePodcasts {
	f := &fakePodcasts{byID: map[string]models.Podcast{}}
	for _, p := range seed {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakePodcasts) Create(ctx context.Context, p models.Podcast) (models.Podcast, error) {
	f.nextID++
	p.ID = fmt.Sprintf("pod-%d", f.nextID)
	f.byID[p.ID] = p
	return p, nil
}

func (f *fakePodcasts) GetByID(ctx context.Context, id string) (models.Podcast, error) {
	p, ok := f.byID[id]
	if !ok {
		return models.Podcast{}, podcast.ErrNotFound
	}
	return p, nil
}

func (f *fakePodcasts) ListByOwner(ctx context.Context, ownerID string) ([]models.Podcast, error) {
	var out []models.Podcast
	for _, p := range f.byID {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePodcasts) Update(ctx context.Context, p models.Podcast) (models.Podcast, error) {
	if _, ok := f.byID[p.ID]; !ok {
		return models.Podcast{}, podcast.ErrNotFound
	}
	f.byID[p.ID] = p
	return p, nil
}

func (f *fakePodcasts) UpdateGeneratedMetadata(ctx context.Context, id, title, description string, tags []string) error {
	p, ok := f.byID[id]
	if !ok {
		return podcast.ErrNotFound
	}
	p.Title = title
	p.Description = description
	p.Tags = tags
	f.byID[id] = p
	f.metaUpdates++
	return nil
}

func (f *fakePodcasts) Delete(ctx context.Context, id, ownerID string) error {
	p, ok := f.byID[id]
	if !ok || p.OwnerID != ownerID {
		return podcast.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeVersions struct {
	byID   map[string]models.PodcastVersion
	active map[string]string // podcast id -> active version id
	ops    []string          // persistence call order, for write-ordering assertions
	nextID int
}

func newFakeVersions(seed ...models.PodcastVersion) *fakeVersions {
	f := &fakeVersions{byID: map[string]models.PodcastVersion{}, active: map[string]string{}}
	for _, v := range seed {
		f.byID[v.ID] = v
		if v.Active {
			f.active[v.PodcastID] = v.ID
		}
	}
	return f
}

func (f *fakeVersions) GetActive(ctx context.Context, podcastID string) (models.PodcastVersion, error) {
	id, ok := f.active[podcastID]
	if !ok {
		return models.PodcastVersion{}, podcast.ErrNotFound
	}
	return f.byID[id], nil
}

func (f *fakeVersions) CreateAndActivate(ctx context.Context, v models.PodcastVersion) (models.PodcastVersion, error) {
	if prev, ok := f.active[v.PodcastID]; ok {
		old := f.byID[prev]
		old.Active = false
		f.byID[prev] = old
	}
	f.nextID++
	v.ID = fmt.Sprintf("ver-%d", f.nextID)
	v.Active = true
	f.byID[v.ID] = v
	f.active[v.PodcastID] = v.ID
	f.ops = append(f.ops, "activate")
	return v, nil
}

func (f *fakeVersions) UpdateStatus(ctx context.Context, versionID string, status podcast.Status, errorMessage *string) error {
	v, ok := f.byID[versionID]
	if !ok {
		return podcast.ErrNotFound
	}
	if !podcast.IsValidTransition(v.Status, status) {
		return &podcast.InvalidTransitionError{Current: v.Status, Action: "move to " + string(status)}
	}
	v.Status = status
	v.ErrorMessage = errorMessage
	f.byID[versionID] = v
	f.ops = append(f.ops, "status:"+string(status))
	return nil
}

func (f *fakeVersions) UpdateScript(ctx context.Context, versionID string, segments models.SegmentList, summary string, audit models.PromptAudit) error {
	v, ok := f.byID[versionID]
	if !ok {
		return podcast.ErrNotFound
	}
	v.Segments = segments
	v.Summary = summary
	v.PromptAudit = audit
	f.byID[versionID] = v
	f.ops = append(f.ops, "script")
	return nil
}

func (f *fakeVersions) UpdateAudio(ctx context.Context, versionID, audioURL string, durationSeconds int, sizeBytes int64) error {
	v, ok := f.byID[versionID]
	if !ok {
		return podcast.ErrNotFound
	}
	v.AudioURL = &audioURL
	v.AudioDurationSeconds = &durationSeconds
	v.AudioSizeBytes = &sizeBytes
	f.byID[versionID] = v
	f.ops = append(f.ops, "audio")
	return nil
}

func (f *fakeVersions) ClearAudio(ctx context.Context, versionID string) error {
	v, ok := f.byID[versionID]
	if !ok {
		return podcast.ErrNotFound
	}
	v.AudioURL = nil
	v.AudioDurationSeconds = nil
	v.AudioSizeBytes = nil
	f.byID[versionID] = v
	f.ops = append(f.ops, "clear_audio")
	return nil
}

type fakeDocuments struct {
	docs []models.Document
}

func (f *fakeDocuments) GetContents(ctx context.Context, ids []string) ([]models.Document, error) {
	return f.docs, nil
}

type fakeJobs struct {
	pending   *models.GenerationJob
	created   []models.GenerationJob
	deleted   []string
	createErr error
	nextID    int
}

func (f *fakeJobs) Create(ctx context.Context, podcastID, jobType string, payload []byte) (models.GenerationJob, error) {
	if f.createErr != nil {
		return models.GenerationJob{}, f.createErr
	}
	f.nextID++
	job := models.GenerationJob{
		ID:        fmt.Sprintf("job-%d", f.nextID),
		PodcastID: podcastID,
		Type:      jobType,
		Status:    models.JobPending,
		Payload:   payload,
	}
	f.created = append(f.created, job)
	return job, nil
}

func (f *fakeJobs) FindPendingForPodcast(ctx context.Context, podcastID string) (*models.GenerationJob, error) {
	if f.pending != nil && f.pending.PodcastID == podcastID {
		return f.pending, nil
	}
	return nil, nil
}

func (f *fakeJobs) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeApprovals struct {
	cleared int
	upserts []models.Approval
}

func (f *fakeApprovals) Upsert(ctx context.Context, podcastID, userID, role string) (models.Approval, error) {
	a := models.Approval{PodcastID: podcastID, UserID: userID, Role: role}
	f.upserts = append(f.upserts, a)
	return a, nil
}

func (f *fakeApprovals) Clear(ctx context.Context, podcastID string) error {
	f.cleared++
	return nil
}

type fakeLLM struct {
	result *ai.ScriptResult
	err    error
	calls  int
}

func (f *fakeLLM) GenerateScript(ctx context.Context, req ai.ScriptRequest) (*ai.ScriptResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeTTS struct {
	out       []byte
	err       error
	calls     int
	gotTurns  []ai.Turn
	gotVoices map[string]string
}

func (f *fakeTTS) Synthesize(ctx context.Context, turns []ai.Turn, voices map[string]string) ([]byte, error) {
	f.calls++
	f.gotTurns = turns
	f.gotVoices = voices
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

type fakeBlobs struct {
	uploads map[string][]byte
	types   map[string]string
	err     error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{uploads: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeBlobs) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if f.err != nil {
		return f.err
	}
	f.uploads[key] = data
	f.types[key] = contentType
	return nil
}

func (f *fakeBlobs) URL(key string) string {
	return "https://cdn.test/" + key
}

// fakeEnqueuer captures enqueued tasks in place of asynq.Client.
type fakeEnqueuer struct {
	enqueued []*asynq.Task
	err      error
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.enqueued = append(f.enqueued, task)
	return &asynq.TaskInfo{ID: "task-id", Queue: "default"}, nil
}
