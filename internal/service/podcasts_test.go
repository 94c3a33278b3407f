package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"castforge/internal/models"
	"castforge/internal/podcast"
)

func strPtr(s string) *string { return &s }

func readyVersion() models.PodcastVersion {
	url := "https://cdn.test/podcasts/pod-1/v3.wav"
	duration := 120
	size := int64(5_760_044)
	v := scriptReadyVersion()
	v.ID = "ver-ready"
	v.Status = podcast.StatusReady
	v.AudioURL = &url
	v.AudioDurationSeconds = &duration
	v.AudioSizeBytes = &size
	return v
}

func newPodcastService(pods *fakePodcasts, vers *fakeVersions, approvals *fakeApprovals) *PodcastService {
	return NewPodcastService(testLogger(), pods, vers, approvals)
}

func TestCreatePodcast(t *testing.T) {
	pods := newFakePodcasts()
	vers := newFakeVersions()
	svc := newPodcastService(pods, vers, &fakeApprovals{})

	got, err := svc.Create(context.Background(), "user-1", CreateRequest{
		Title:     "Morning Brief",
		HostVoice: "alloy",
	})
	require.NoError(t, err)

	assert.Equal(t, "user-1", got.Podcast.OwnerID)
	assert.Equal(t, models.FormatConversation, got.Podcast.Format, "conversation is the default format")
	assert.Equal(t, 1, got.Version.Number)
	assert.Equal(t, podcast.StatusDraft, got.Version.Status)
	assert.True(t, got.Version.Active)
}

func TestCreatePodcastRejectsUnknownFormat(t *testing.T) {
	svc := newPodcastService(newFakePodcasts(), newFakeVersions(), &fakeApprovals{})
	_, err := svc.Create(context.Background(), "user-1", CreateRequest{Title: "x", Format: "video"})
	assert.Error(t, err)
}

func TestUpdateSegmentEditOnReadyPodcast(t *testing.T) {
	pods := newFakePodcasts(testPodcast())
	vers := newFakeVersions(readyVersion())
	approvals := &fakeApprovals{}
	svc := newPodcastService(pods, vers, approvals)

	got, err := svc.Update(context.Background(), "user-1", "pod-1", UpdateRequest{
		Segments: []models.Segment{
			{Speaker: "Ada", Text: "Welcome back, again."},
			{Speaker: "Brook", Text: "Glad to be here."},
		},
	})
	require.NoError(t, err)

	// A content edit on a finished podcast rewinds only as far as the
	// edit requires: the script survives, the audio does not.
	assert.Equal(t, 4, got.Version.Number)
	assert.Equal(t, podcast.StatusScriptReady, got.Version.Status)
	assert.Nil(t, got.Version.AudioURL)
	assert.Nil(t, got.Version.AudioDurationSeconds)
	require.Len(t, got.Version.Segments, 2)
	assert.Equal(t, "Welcome back, again.", got.Version.Segments[0].Text)
	assert.Equal(t, 0, got.Version.Segments[0].Position)
	assert.Equal(t, 1, got.Version.Segments[1].Position)

	old, ok := vers.byID["ver-ready"]
	require.True(t, ok)
	assert.False(t, old.Active, "prior version is kept but deactivated")

	assert.Equal(t, 1, approvals.cleared)
}

func TestUpdateMetadataOnlyKeepsVersion(t *testing.T) {
	pods := newFakePodcasts(testPodcast())
	vers := newFakeVersions(readyVersion())
	approvals := &fakeApprovals{}
	svc := newPodcastService(pods, vers, approvals)

	got, err := svc.Update(context.Background(), "user-1", "pod-1", UpdateRequest{
		Title: strPtr("Deep Dive, Renamed"),
		Tags:  []string{"news"},
	})
	require.NoError(t, err)

	assert.Equal(t, "ver-ready", got.Version.ID, "metadata edits never spawn a version")
	assert.Equal(t, podcast.StatusReady, got.Version.Status)
	assert.NotNil(t, got.Version.AudioURL)
	assert.Zero(t, approvals.cleared, "metadata edits keep approvals")

	p, _ := pods.GetByID(context.Background(), "pod-1")
	assert.Equal(t, "Deep Dive, Renamed", p.Title)
}

func TestUpdatePromptEditResetsToDraft(t *testing.T) {
	pods := newFakePodcasts(testPodcast())
	vers := newFakeVersions(readyVersion())
	svc := newPodcastService(pods, vers, &fakeApprovals{})

	got, err := svc.Update(context.Background(), "user-1", "pod-1", UpdateRequest{
		PromptInstructions: strPtr("focus on the history"),
	})
	require.NoError(t, err)

	assert.Equal(t, podcast.StatusDraft, got.Version.Status)
	assert.Nil(t, got.Version.AudioURL)
}

func TestUpdateVoiceEditKeepsScript(t *testing.T) {
	pods := newFakePodcasts(testPodcast())
	vers := newFakeVersions(readyVersion())
	svc := newPodcastService(pods, vers, &fakeApprovals{})

	got, err := svc.Update(context.Background(), "user-1", "pod-1", UpdateRequest{
		HostVoice: strPtr("onyx"),
	})
	require.NoError(t, err)

	assert.Equal(t, podcast.StatusScriptReady, got.Version.Status)
	assert.Equal(t, readyVersion().Segments, got.Version.Segments, "voice edits carry the script forward")
	assert.Nil(t, got.Version.AudioURL)
}

func TestUpdatePromptBeatsMetadata(t *testing.T) {
	pods := newFakePodcasts(testPodcast())
	vers := newFakeVersions(readyVersion())
	svc := newPodcastService(pods, vers, &fakeApprovals{})

	// A mixed edit classifies by its most invasive change.
	got, err := svc.Update(context.Background(), "user-1", "pod-1", UpdateRequest{
		Title:              strPtr("New Title"),
		PromptInstructions: strPtr("new angle"),
	})
	require.NoError(t, err)
	assert.Equal(t, podcast.StatusDraft, got.Version.Status)
}

func TestUpdateNoEffectiveChange(t *testing.T) {
	p := testPodcast()
	pods := newFakePodcasts(p)
	vers := newFakeVersions(readyVersion())
	svc := newPodcastService(pods, vers, &fakeApprovals{})

	// Same values as already stored: not an edit.
	_, err := svc.Update(context.Background(), "user-1", "pod-1", UpdateRequest{
		Title:     strPtr(p.Title),
		HostVoice: strPtr(p.HostVoice),
	})
	assert.ErrorIs(t, err, podcast.ErrNoChanges)
}

func TestUpdateHidesForeignPodcast(t *testing.T) {
	svc := newPodcastService(newFakePodcasts(testPodcast()), newFakeVersions(readyVersion()), &fakeApprovals{})
	_, err := svc.Update(context.Background(), "intruder", "pod-1", UpdateRequest{Title: strPtr("x")})
	assert.ErrorIs(t, err, podcast.ErrNotFound)
}

func TestApprove(t *testing.T) {
	approvals := &fakeApprovals{}
	svc := newPodcastService(newFakePodcasts(testPodcast()), newFakeVersions(readyVersion()), approvals)

	a, err := svc.Approve(context.Background(), "user-1", "pod-1")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalRoleOwner, a.Role)

	a, err = svc.Approve(context.Background(), "reviewer-7", "pod-1")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalRoleCollaborator, a.Role)
}

func TestApproveRequiresReady(t *testing.T) {
	svc := newPodcastService(newFakePodcasts(testPodcast()), newFakeVersions(draftVersion()), &fakeApprovals{})
	_, err := svc.Approve(context.Background(), "user-1", "pod-1")

	var transErr *podcast.InvalidTransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, podcast.StatusDraft, transErr.Current)
}

func TestReindex(t *testing.T) {
	out := Reindex([]models.Segment{
		{Speaker: "Ada", Text: "one", Position: 9},
		{Speaker: "Brook", Text: "two", Position: 2},
	})
	assert.Equal(t, 0, out[0].Position)
	assert.Equal(t, 1, out[1].Position)
	assert.Empty(t, Reindex(nil))
}
