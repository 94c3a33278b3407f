package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"castforge/internal/ai"
	"castforge/internal/audio"
	"castforge/internal/models"
	"castforge/internal/podcast"
	"castforge/internal/storage"
)

// Orchestrator drives one generation step against the external
// collaborators. Every collaborator failure writes a failed status with
// the causal message and then propagates; the orchestrator never retries.
type Orchestrator struct {
	log       *zap.SugaredLogger
	podcasts  PodcastRepo
	versions  VersionRepo
	documents DocumentRepo
	llm       ai.ScriptGenerator
	tts       ai.Synthesizer
	blobs     storage.Store
}

func NewOrchestrator(log *zap.SugaredLogger, podcasts PodcastRepo, versions VersionRepo, documents DocumentRepo, llm ai.ScriptGenerator, tts ai.Synthesizer, blobs storage.Store) *Orchestrator {
	return &Orchestrator{
		log:       log,
		podcasts:  podcasts,
		versions:  versions,
		documents: documents,
		llm:       llm,
		tts:       tts,
		blobs:     blobs,
	}
}

// RunScriptStep generates the script for the active version of a podcast.
// The version must be in draft. On success the segments, summary and
// prompt audit are persisted before the status moves to script_ready, and
// the podcast metadata is refreshed from the model output afterwards.
func (o *Orchestrator) RunScriptStep(ctx context.Context, podcastID, promptOverride string) error {
	p, err := o.podcasts.GetByID(ctx, podcastID)
	if err != nil {
		return err
	}
	v, err := o.versions.GetActive(ctx, podcastID)
	if err != nil {
		return err
	}
	if v.Status != podcast.StatusDraft {
		return &podcast.InvalidTransitionError{Current: v.Status, Action: "generate script"}
	}

	docs, err := o.documents.GetContents(ctx, p.SourceDocumentIDs)
	if err != nil {
		return fmt.Errorf("failed to load source documents: %w", err)
	}
	contents := make([]string, len(docs))
	for i, d := range docs {
		contents[i] = d.Content
	}

	// Explicit override wins over the stored instructions.
	instructions := promptOverride
	if instructions == "" {
		instructions = p.PromptInstructions
	}

	result, err := o.llm.GenerateScript(ctx, ai.ScriptRequest{
		Format:       p.Format,
		Title:        p.Title,
		Instructions: instructions,
		HostName:     p.HostName,
		CohostName:   p.CohostName,
		Documents:    contents,
	})
	if err != nil {
		o.markFailed(ctx, v.ID, err)
		return err
	}

	segments := make([]models.Segment, len(result.Segments))
	for i, seg := range result.Segments {
		segments[i] = models.Segment{Speaker: seg.Speaker, Text: seg.Text}
	}
	audit := models.PromptAudit{
		SystemPrompt: result.SystemPrompt,
		UserPrompt:   result.UserPrompt,
		Model:        result.Model,
	}
	if err := o.versions.UpdateScript(ctx, v.ID, Reindex(segments), result.Summary, audit); err != nil {
		return fmt.Errorf("failed to persist script: %w", err)
	}

	// Status is written after the content backing it.
	if err := o.versions.UpdateStatus(ctx, v.ID, podcast.StatusScriptReady, nil); err != nil {
		return err
	}

	if err := o.podcasts.UpdateGeneratedMetadata(ctx, p.ID, result.Title, result.Description, result.Tags); err != nil {
		return fmt.Errorf("failed to update podcast metadata: %w", err)
	}

	o.log.Infow("script generated", "podcast_id", p.ID, "version", v.Number, "segments", len(segments))
	return nil
}

// RunAudioStep synthesizes audio for the active version. The version must
// be script_ready with at least one segment; neither precondition failure
// mutates state. Audio bytes, URL and duration are persisted before the
// status moves to ready.
func (o *Orchestrator) RunAudioStep(ctx context.Context, podcastID string) error {
	p, err := o.podcasts.GetByID(ctx, podcastID)
	if err != nil {
		return err
	}
	v, err := o.versions.GetActive(ctx, podcastID)
	if err != nil {
		return err
	}
	if v.Status != podcast.StatusScriptReady {
		return &podcast.InvalidTransitionError{Current: v.Status, Action: "generate audio"}
	}
	if len(v.Segments) == 0 {
		return podcast.ErrNoSegments
	}

	if err := o.versions.UpdateStatus(ctx, v.ID, podcast.StatusGeneratingAudio, nil); err != nil {
		return err
	}

	turns := make([]ai.Turn, len(v.Segments))
	voices := make(map[string]string)
	for i, seg := range v.Segments {
		turns[i] = ai.Turn{Speaker: seg.Speaker, Text: seg.Text}
		if _, ok := voices[seg.Speaker]; !ok {
			voices[seg.Speaker] = VoiceForSpeaker(seg.Speaker, p)
		}
	}

	raw, err := o.tts.Synthesize(ctx, turns, voices)
	if err != nil {
		o.markFailed(ctx, v.ID, err)
		return err
	}

	// Wrap in a WAV container unless the provider already returned one.
	pcmLen := len(raw)
	if audio.IsWAV(raw) {
		pcmLen -= 44
	} else {
		raw = audio.EncodeWAV(raw)
	}
	duration := audio.DurationSeconds(pcmLen)

	key := fmt.Sprintf("podcasts/%s/v%d.wav", p.ID, v.Number)
	if err := o.blobs.Upload(ctx, key, raw, "audio/wav"); err != nil {
		wrapped := &podcast.ExternalError{Kind: podcast.ExternalStorage, Service: "storage", Err: err}
		o.markFailed(ctx, v.ID, wrapped)
		return wrapped
	}
	url := o.blobs.URL(key)

	if err := o.versions.UpdateAudio(ctx, v.ID, url, duration, int64(len(raw))); err != nil {
		return fmt.Errorf("failed to persist audio: %w", err)
	}
	if err := o.versions.UpdateStatus(ctx, v.ID, podcast.StatusReady, nil); err != nil {
		return err
	}

	o.log.Infow("audio generated",
		"podcast_id", p.ID, "version", v.Number, "duration_seconds", duration, "bytes", len(raw))
	return nil
}

// markFailed records the terminal failed status with the causal message.
// The original error still propagates to the caller; a failure to record
// the failure is only logged.
func (o *Orchestrator) markFailed(ctx context.Context, versionID string, cause error) {
	msg := cause.Error()
	if err := o.versions.UpdateStatus(ctx, versionID, podcast.StatusFailed, &msg); err != nil {
		o.log.Errorw("failed to record failed status", "version_id", versionID, "error", err)
	}
}

var cohostMarkers = []string{"cohost", "co-host", "co host", "guest"}

// VoiceForSpeaker maps a segment speaker label to a configured voice
// alias. Persona display names take priority over the generic co-host
// markers; anything unmatched defaults to the host voice.
func VoiceForSpeaker(speaker string, p models.Podcast) string {
	label := strings.ToLower(strings.TrimSpace(speaker))
	if p.CohostName != "" && strings.Contains(label, strings.ToLower(p.CohostName)) {
		return p.CohostVoice
	}
	if p.HostName != "" && strings.Contains(label, strings.ToLower(p.HostName)) {
		return p.HostVoice
	}
	for _, marker := range cohostMarkers {
		if strings.Contains(label, marker) {
			return p.CohostVoice
		}
	}
	return p.HostVoice
}
