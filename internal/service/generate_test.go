package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"castforge/internal/ai"
	"castforge/internal/audio"
	"castforge/internal/models"
	"castforge/internal/podcast"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func testPodcast() models.Podcast {
	return models.Podcast{
		ID:                 "pod-1",
		OwnerID:            "user-1",
		Title:              "Deep Dive",
		Format:             models.FormatConversation,
		PromptInstructions: "keep it short",
		SourceDocumentIDs:  []string{"doc-1"},
		HostVoice:          "alloy",
		CohostVoice:        "verse",
		HostName:           "Ada",
		CohostName:         "Brook",
	}
}

func draftVersion() models.PodcastVersion {
	return models.PodcastVersion{
		ID:        "ver-draft",
		PodcastID: "pod-1",
		Number:    3,
		Active:    true,
		Status:    podcast.StatusDraft,
	}
}

func scriptReadyVersion() models.PodcastVersion {
	return models.PodcastVersion{
		ID:        "ver-script",
		PodcastID: "pod-1",
		Number:    3,
		Active:    true,
		Status:    podcast.StatusScriptReady,
		Segments: models.SegmentList{
			{Speaker: "Ada", Text: "Welcome back.", Position: 0},
			{Speaker: "Brook", Text: "Glad to be here.", Position: 1},
		},
	}
}

func TestRunScriptStepSuccess(t *testing.T) {
	pods := newFakePodcasts(testPodcast())
	vers := newFakeVersions(draftVersion())
	docs := &fakeDocuments{docs: []models.Document{{ID: "doc-1", Content: "source text"}}}
	llm := &fakeLLM{result: &ai.ScriptResult{
		Title:       "Deep Dive Ep. 3",
		Description: "A conversation about source text.",
		Summary:     "Ada and Brook discuss the material.",
		Tags:        []string{"ai", "audio"},
		Segments: []ai.ScriptSegment{
			{Speaker: "Ada", Text: "Welcome back."},
			{Speaker: "Brook", Text: "Glad to be here."},
		},
		SystemPrompt: "system prompt",
		UserPrompt:   "user prompt",
		Model:        "gpt-4o-mini",
	}}

	orch := NewOrchestrator(testLogger(), pods, vers, docs, llm, &fakeTTS{}, newFakeBlobs())
	require.NoError(t, orch.RunScriptStep(context.Background(), "pod-1", ""))

	v, err := vers.GetActive(context.Background(), "pod-1")
	require.NoError(t, err)
	assert.Equal(t, podcast.StatusScriptReady, v.Status)
	require.Len(t, v.Segments, 2)
	assert.Equal(t, 0, v.Segments[0].Position)
	assert.Equal(t, 1, v.Segments[1].Position)
	assert.Equal(t, "Ada and Brook discuss the material.", v.Summary)
	assert.Equal(t, "system prompt", v.PromptAudit.SystemPrompt)
	assert.Equal(t, "user prompt", v.PromptAudit.UserPrompt)

	// Script content is persisted before the status that advertises it.
	assert.Equal(t, []string{"script", "status:script_ready"}, vers.ops)

	p, err := pods.GetByID(context.Background(), "pod-1")
	require.NoError(t, err)
	assert.Equal(t, "Deep Dive Ep. 3", p.Title)
	assert.Equal(t, 1, pods.metaUpdates)
}

func TestRunScriptStepLLMFailure(t *testing.T) {
	pods := newFakePodcasts(testPodcast())
	vers := newFakeVersions(draftVersion())
	cause := &podcast.ExternalError{Kind: podcast.ExternalRateLimited, Service: "openai", Err: errors.New("429")}
	llm := &fakeLLM{err: cause}

	orch := NewOrchestrator(testLogger(), pods, vers, &fakeDocuments{}, llm, &fakeTTS{}, newFakeBlobs())
	err := orch.RunScriptStep(context.Background(), "pod-1", "")

	// The original error propagates after the failed status is recorded.
	var extErr *podcast.ExternalError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, podcast.ExternalRateLimited, extErr.Kind)

	v, _ := vers.GetActive(context.Background(), "pod-1")
	assert.Equal(t, podcast.StatusFailed, v.Status)
	require.NotNil(t, v.ErrorMessage)
	assert.Equal(t, cause.Error(), *v.ErrorMessage)
}

func TestRunScriptStepRejectsNonDraft(t *testing.T) {
	pods := newFakePodcasts(testPodcast())
	vers := newFakeVersions(scriptReadyVersion())
	llm := &fakeLLM{}

	orch := NewOrchestrator(testLogger(), pods, vers, &fakeDocuments{}, llm, &fakeTTS{}, newFakeBlobs())
	err := orch.RunScriptStep(context.Background(), "pod-1", "")

	var transErr *podcast.InvalidTransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, podcast.StatusScriptReady, transErr.Current)
	assert.Zero(t, llm.calls)

	v, _ := vers.GetActive(context.Background(), "pod-1")
	assert.Equal(t, podcast.StatusScriptReady, v.Status, "precondition failure must not mutate")
}

func TestRunScriptStepPromptOverride(t *testing.T) {
	pods := newFakePodcasts(testPodcast())
	vers := newFakeVersions(draftVersion())
	var seen ai.ScriptRequest
	llm := &fakeLLMCapture{&seen}

	orch := NewOrchestrator(testLogger(), pods, vers, &fakeDocuments{}, llm, &fakeTTS{}, newFakeBlobs())
	require.NoError(t, orch.RunScriptStep(context.Background(), "pod-1", "make it dramatic"))
	assert.Equal(t, "make it dramatic", seen.Instructions)
}

type fakeLLMCapture struct {
	into *ai.ScriptRequest
}

func (f *fakeLLMCapture) GenerateScript(ctx context.Context, req ai.ScriptRequest) (*ai.ScriptResult, error) {
	*f.into = req
	return &ai.ScriptResult{Segments: []ai.ScriptSegment{{Speaker: "Ada", Text: "hi"}}}, nil
}

func TestRunAudioStepSuccess(t *testing.T) {
	pods := newFakePodcasts(testPodcast())
	vers := newFakeVersions(scriptReadyVersion())
	pcm := make([]byte, audio.BytesPerSecond*2) // two seconds of silence
	tts := &fakeTTS{out: pcm}
	blobs := newFakeBlobs()

	orch := NewOrchestrator(testLogger(), pods, vers, &fakeDocuments{}, &fakeLLM{}, tts, blobs)
	require.NoError(t, orch.RunAudioStep(context.Background(), "pod-1"))

	v, err := vers.GetActive(context.Background(), "pod-1")
	require.NoError(t, err)
	assert.Equal(t, podcast.StatusReady, v.Status)
	require.NotNil(t, v.AudioURL)
	assert.Equal(t, "https://cdn.test/podcasts/pod-1/v3.wav", *v.AudioURL)
	require.NotNil(t, v.AudioDurationSeconds)
	assert.Equal(t, 2, *v.AudioDurationSeconds)
	require.NotNil(t, v.AudioSizeBytes)
	assert.Equal(t, int64(len(pcm)+44), *v.AudioSizeBytes)

	uploaded := blobs.uploads["podcasts/pod-1/v3.wav"]
	require.NotNil(t, uploaded)
	assert.True(t, audio.IsWAV(uploaded))
	assert.Len(t, uploaded, len(pcm)+44)
	assert.Equal(t, "audio/wav", blobs.types["podcasts/pod-1/v3.wav"])

	// generating_audio is visible during the run, ready only after the
	// audio reference is persisted.
	assert.Equal(t, []string{"status:generating_audio", "audio", "status:ready"}, vers.ops)

	// Voice assignment reaches the synthesizer.
	assert.Equal(t, "alloy", tts.gotVoices["Ada"])
	assert.Equal(t, "verse", tts.gotVoices["Brook"])
}

func TestRunAudioStepNoDoubleWrap(t *testing.T) {
	pods := newFakePodcasts(testPodcast())
	vers := newFakeVersions(scriptReadyVersion())
	wrapped := audio.EncodeWAV(make([]byte, audio.BytesPerSecond))
	tts := &fakeTTS{out: wrapped}
	blobs := newFakeBlobs()

	orch := NewOrchestrator(testLogger(), pods, vers, &fakeDocuments{}, &fakeLLM{}, tts, blobs)
	require.NoError(t, orch.RunAudioStep(context.Background(), "pod-1"))

	uploaded := blobs.uploads["podcasts/pod-1/v3.wav"]
	assert.Equal(t, wrapped, uploaded, "already wrapped audio must be stored as-is")

	v, _ := vers.GetActive(context.Background(), "pod-1")
	require.NotNil(t, v.AudioDurationSeconds)
	assert.Equal(t, 1, *v.AudioDurationSeconds, "duration excludes the header")
}

func TestRunAudioStepRejectsNonScriptReady(t *testing.T) {
	pods := newFakePodcasts(testPodcast())
	vers := newFakeVersions(draftVersion())
	tts := &fakeTTS{}

	orch := NewOrchestrator(testLogger(), pods, vers, &fakeDocuments{}, &fakeLLM{}, tts, newFakeBlobs())
	err := orch.RunAudioStep(context.Background(), "pod-1")

	var transErr *podcast.InvalidTransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, podcast.StatusDraft, transErr.Current)
	assert.Zero(t, tts.calls)

	v, _ := vers.GetActive(context.Background(), "pod-1")
	assert.Equal(t, podcast.StatusDraft, v.Status)
	assert.Empty(t, vers.ops)
}

func TestRunAudioStepRejectsEmptyScript(t *testing.T) {
	pods := newFakePodcasts(testPodcast())
	v := scriptReadyVersion()
	v.Segments = models.SegmentList{}
	vers := newFakeVersions(v)
	tts := &fakeTTS{}

	orch := NewOrchestrator(testLogger(), pods, vers, &fakeDocuments{}, &fakeLLM{}, tts, newFakeBlobs())
	err := orch.RunAudioStep(context.Background(), "pod-1")

	require.ErrorIs(t, err, podcast.ErrNoSegments)
	assert.Zero(t, tts.calls)

	got, _ := vers.GetActive(context.Background(), "pod-1")
	assert.Equal(t, podcast.StatusScriptReady, got.Status, "precondition failure must not mutate")
}

func TestRunAudioStepTTSFailure(t *testing.T) {
	pods := newFakePodcasts(testPodcast())
	vers := newFakeVersions(scriptReadyVersion())
	cause := &podcast.ExternalError{Kind: podcast.ExternalQuotaExceeded, Service: "tts", Err: errors.New("quota")}
	tts := &fakeTTS{err: cause}

	orch := NewOrchestrator(testLogger(), pods, vers, &fakeDocuments{}, &fakeLLM{}, tts, newFakeBlobs())
	err := orch.RunAudioStep(context.Background(), "pod-1")

	var extErr *podcast.ExternalError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, podcast.ExternalQuotaExceeded, extErr.Kind)

	v, _ := vers.GetActive(context.Background(), "pod-1")
	assert.Equal(t, podcast.StatusFailed, v.Status)
	require.NotNil(t, v.ErrorMessage)
	assert.Equal(t, cause.Error(), *v.ErrorMessage)
}

func TestRunAudioStepStorageFailure(t *testing.T) {
	pods := newFakePodcasts(testPodcast())
	vers := newFakeVersions(scriptReadyVersion())
	blobs := newFakeBlobs()
	blobs.err = errors.New("bucket gone")
	tts := &fakeTTS{out: make([]byte, audio.BytesPerSecond)}

	orch := NewOrchestrator(testLogger(), pods, vers, &fakeDocuments{}, &fakeLLM{}, tts, blobs)
	err := orch.RunAudioStep(context.Background(), "pod-1")

	var extErr *podcast.ExternalError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, podcast.ExternalStorage, extErr.Kind)

	v, _ := vers.GetActive(context.Background(), "pod-1")
	assert.Equal(t, podcast.StatusFailed, v.Status)
}

func TestVoiceForSpeaker(t *testing.T) {
	p := testPodcast() // host Ada/alloy, cohost Brook/verse

	tests := []struct {
		speaker string
		want    string
	}{
		{"Ada", "alloy"},
		{"ada", "alloy"},
		{"Brook", "verse"},
		{"Cohost", "verse"},
		{"Co-Host", "verse"},
		{"co host", "verse"},
		{"Guest", "verse"},
		{"Narrator", "alloy"},
		{"", "alloy"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VoiceForSpeaker(tt.speaker, p), "speaker %q", tt.speaker)
	}

	// A persona name that contains a generic marker still maps by name.
	p.HostName = "Guest Expert"
	p.CohostName = ""
	assert.Equal(t, "alloy", VoiceForSpeaker("Guest Expert", p))
}
