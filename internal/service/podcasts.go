package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"castforge/internal/models"
	"castforge/internal/podcast"
)

// PodcastService owns the podcast lifecycle: creation, the classified
// update flow, approval and deletion.
type PodcastService struct {
	log       *zap.SugaredLogger
	podcasts  PodcastRepo
	versions  VersionRepo
	approvals ApprovalRepo
}

func NewPodcastService(log *zap.SugaredLogger, podcasts PodcastRepo, versions VersionRepo, approvals ApprovalRepo) *PodcastService {
	return &PodcastService{log: log, podcasts: podcasts, versions: versions, approvals: approvals}
}

// PodcastWithVersion pairs a podcast with its active version.
type PodcastWithVersion struct {
	Podcast models.Podcast
	Version models.PodcastVersion
}

type CreateRequest struct {
	Title              string
	Description        string
	Tags               []string
	Format             string
	PromptInstructions string
	SourceDocumentIDs  []string
	HostVoice          string
	CohostVoice        string
	HostName           string
	CohostName         string
}

func (s *PodcastService) Create(ctx context.Context, actorID string, req CreateRequest) (*PodcastWithVersion, error) {
	format := req.Format
	if format == "" {
		format = models.FormatConversation
	}
	if format != models.FormatConversation && format != models.FormatVoiceOver {
		return nil, fmt.Errorf("unknown format %q: %w", req.Format, podcast.ErrNoChanges)
	}

	p, err := s.podcasts.Create(ctx, models.Podcast{
		OwnerID:            actorID,
		Title:              req.Title,
		Description:        req.Description,
		Tags:               pq.StringArray(req.Tags),
		Format:             format,
		PromptInstructions: req.PromptInstructions,
		SourceDocumentIDs:  pq.StringArray(req.SourceDocumentIDs),
		HostVoice:          req.HostVoice,
		CohostVoice:        req.CohostVoice,
		HostName:           req.HostName,
		CohostName:         req.CohostName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create podcast: %w", err)
	}

	version, err := s.versions.CreateAndActivate(ctx, models.PodcastVersion{
		PodcastID: p.ID,
		Number:    1,
		Status:    podcast.StatusDraft,
		Segments:  models.SegmentList{},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create initial version: %w", err)
	}
	return &PodcastWithVersion{Podcast: p, Version: version}, nil
}

// UpdateRequest carries the fields a caller wants to change. Nil pointers
// and nil slices mean "leave unchanged".
type UpdateRequest struct {
	Title              *string
	Description        *string
	Tags               []string
	PromptInstructions *string
	SourceDocumentIDs  []string
	HostVoice          *string
	CohostVoice        *string
	HostName           *string
	CohostName         *string
	Segments           []models.Segment
}

// Update applies an edit to a podcast. The change set is classified, the
// status machine decides whether a new version is needed, stale audio is
// dropped with the old version, and approvals are cleared for any
// non-metadata edit. Metadata-only edits touch neither version nor
// approvals.
func (s *PodcastService) Update(ctx context.Context, actorID, podcastID string, req UpdateRequest) (*PodcastWithVersion, error) {
	p, err := s.podcasts.GetByID(ctx, podcastID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != actorID {
		return nil, podcast.ErrNotFound
	}
	active, err := s.versions.GetActive(ctx, podcastID)
	if err != nil {
		return nil, err
	}

	flags := diffFlags(p, active, req)
	if !flags.Any() {
		return nil, podcast.ErrNoChanges
	}
	category := podcast.ClassifyEdit(flags)

	applyUpdate(&p, req)
	p, err = s.podcasts.Update(ctx, p)
	if err != nil {
		return nil, err
	}

	version := active
	if next, ok := podcast.NextStatusForEdit(category); ok {
		segments := active.Segments
		if flags.Segments {
			segments = Reindex(req.Segments)
		}
		// The new version starts with no audio reference: moving backward
		// always drops stale audio.
		version, err = s.versions.CreateAndActivate(ctx, models.PodcastVersion{
			PodcastID: p.ID,
			Number:    active.Number + 1,
			Status:    next,
			Segments:  segments,
			Summary:   active.Summary,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to activate new version: %w", err)
		}
	}

	// Not optional cleanup: an approval must never survive a content
	// change it was based on.
	if podcast.InvalidatesApprovals(category) {
		if err := s.approvals.Clear(ctx, p.ID); err != nil {
			return nil, fmt.Errorf("failed to clear approvals: %w", err)
		}
	}

	s.log.Infow("podcast updated",
		"podcast_id", p.ID, "category", category, "status", version.Status)
	return &PodcastWithVersion{Podcast: p, Version: version}, nil
}

func (s *PodcastService) Get(ctx context.Context, actorID, podcastID string) (*PodcastWithVersion, error) {
	p, err := s.podcasts.GetByID(ctx, podcastID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != actorID {
		return nil, podcast.ErrNotFound
	}
	version, err := s.versions.GetActive(ctx, podcastID)
	if err != nil {
		return nil, err
	}
	return &PodcastWithVersion{Podcast: p, Version: version}, nil
}

func (s *PodcastService) List(ctx context.Context, actorID string) ([]models.Podcast, error) {
	return s.podcasts.ListByOwner(ctx, actorID)
}

func (s *PodcastService) Delete(ctx context.Context, actorID, podcastID string) error {
	return s.podcasts.Delete(ctx, podcastID, actorID)
}

// Approve records the actor's sign-off on the current content. Only a
// ready podcast can be approved.
func (s *PodcastService) Approve(ctx context.Context, actorID, podcastID string) (models.Approval, error) {
	p, err := s.podcasts.GetByID(ctx, podcastID)
	if err != nil {
		return models.Approval{}, err
	}
	active, err := s.versions.GetActive(ctx, podcastID)
	if err != nil {
		return models.Approval{}, err
	}
	if active.Status != podcast.StatusReady {
		return models.Approval{}, &podcast.InvalidTransitionError{Current: active.Status, Action: "approve"}
	}
	role := models.ApprovalRoleCollaborator
	if actorID == p.OwnerID {
		role = models.ApprovalRoleOwner
	}
	return s.approvals.Upsert(ctx, podcastID, actorID, role)
}

// Reindex normalizes segment positions to 0..n-1 in list order.
func Reindex(segments []models.Segment) models.SegmentList {
	out := make(models.SegmentList, len(segments))
	for i, seg := range segments {
		seg.Position = i
		out[i] = seg
	}
	return out
}

func diffFlags(p models.Podcast, active models.PodcastVersion, req UpdateRequest) podcast.EditFlags {
	return podcast.EditFlags{
		Segments:           req.Segments != nil && !segmentsEqual(active.Segments, req.Segments),
		HostVoice:          req.HostVoice != nil && *req.HostVoice != p.HostVoice,
		CohostVoice:        req.CohostVoice != nil && *req.CohostVoice != p.CohostVoice,
		PromptInstructions: req.PromptInstructions != nil && *req.PromptInstructions != p.PromptInstructions,
		SourceDocuments:    req.SourceDocumentIDs != nil && !slices.Equal(req.SourceDocumentIDs, []string(p.SourceDocumentIDs)),
		Title:              req.Title != nil && *req.Title != p.Title,
		Description:        req.Description != nil && *req.Description != p.Description,
		Tags:               req.Tags != nil && !slices.Equal(req.Tags, []string(p.Tags)),
	}
}

func segmentsEqual(current models.SegmentList, updated []models.Segment) bool {
	if len(current) != len(updated) {
		return false
	}
	for i := range current {
		if current[i].Speaker != updated[i].Speaker || current[i].Text != updated[i].Text {
			return false
		}
	}
	return true
}

func applyUpdate(p *models.Podcast, req UpdateRequest) {
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Tags != nil {
		p.Tags = pq.StringArray(req.Tags)
	}
	if req.PromptInstructions != nil {
		p.PromptInstructions = *req.PromptInstructions
	}
	if req.SourceDocumentIDs != nil {
		p.SourceDocumentIDs = pq.StringArray(req.SourceDocumentIDs)
	}
	if req.HostVoice != nil {
		p.HostVoice = *req.HostVoice
	}
	if req.CohostVoice != nil {
		p.CohostVoice = *req.CohostVoice
	}
	if req.HostName != nil {
		p.HostName = *req.HostName
	}
	if req.CohostName != nil {
		p.CohostName = *req.CohostName
	}
}
