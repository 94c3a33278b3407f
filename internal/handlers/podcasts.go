package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"castforge/internal/middleware"
	"castforge/internal/models"
	"castforge/internal/podcast"
	"castforge/internal/service"
)

type createPodcastRequest struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Tags               []string `json:"tags"`
	Format             string   `json:"format"`
	PromptInstructions string   `json:"prompt_instructions"`
	SourceDocumentIDs  []string `json:"source_document_ids"`
	HostVoice          string   `json:"host_voice"`
	CohostVoice        string   `json:"cohost_voice"`
	HostName           string   `json:"host_name"`
	CohostName         string   `json:"cohost_name"`
}

type updatePodcastRequest struct {
	Title              *string          `json:"title"`
	Description        *string          `json:"description"`
	Tags               []string         `json:"tags"`
	PromptInstructions *string          `json:"prompt_instructions"`
	SourceDocumentIDs  []string         `json:"source_document_ids"`
	HostVoice          *string          `json:"host_voice"`
	CohostVoice        *string          `json:"cohost_voice"`
	HostName           *string          `json:"host_name"`
	CohostName         *string          `json:"cohost_name"`
	Segments           []models.Segment `json:"segments"`
}

type versionResponse struct {
	Number               int              `json:"number"`
	Status               string           `json:"status"`
	Segments             []models.Segment `json:"segments"`
	Summary              string           `json:"summary,omitempty"`
	AudioURL             *string          `json:"audio_url,omitempty"`
	AudioDurationSeconds *int             `json:"audio_duration_seconds,omitempty"`
	ErrorMessage         *string          `json:"error_message,omitempty"`
}

type podcastResponse struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Tags               []string        `json:"tags"`
	Format             string          `json:"format"`
	PromptInstructions string          `json:"prompt_instructions"`
	SourceDocumentIDs  []string        `json:"source_document_ids"`
	HostVoice          string          `json:"host_voice"`
	CohostVoice        string          `json:"cohost_voice"`
	HostName           string          `json:"host_name"`
	CohostName         string          `json:"cohost_name"`
	Version            versionResponse `json:"version"`
}

func toPodcastResponse(pv *service.PodcastWithVersion) podcastResponse {
	return podcastResponse{
		ID:                 pv.Podcast.ID,
		Title:              pv.Podcast.Title,
		Description:        pv.Podcast.Description,
		Tags:               pv.Podcast.Tags,
		Format:             pv.Podcast.Format,
		PromptInstructions: pv.Podcast.PromptInstructions,
		SourceDocumentIDs:  pv.Podcast.SourceDocumentIDs,
		HostVoice:          pv.Podcast.HostVoice,
		CohostVoice:        pv.Podcast.CohostVoice,
		HostName:           pv.Podcast.HostName,
		CohostName:         pv.Podcast.CohostName,
		Version: versionResponse{
			Number:               pv.Version.Number,
			Status:               string(pv.Version.Status),
			Segments:             pv.Version.Segments,
			Summary:              pv.Version.Summary,
			AudioURL:             pv.Version.AudioURL,
			AudioDurationSeconds: pv.Version.AudioDurationSeconds,
			ErrorMessage:         pv.Version.ErrorMessage,
		},
	}
}

func (h *Handlers) CreatePodcast(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	var req createPodcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "title is required"})
		return
	}

	pv, err := h.podcasts.Create(r.Context(), user.ID, service.CreateRequest{
		Title:              req.Title,
		Description:        req.Description,
		Tags:               req.Tags,
		Format:             req.Format,
		PromptInstructions: req.PromptInstructions,
		SourceDocumentIDs:  req.SourceDocumentIDs,
		HostVoice:          req.HostVoice,
		CohostVoice:        req.CohostVoice,
		HostName:           req.HostName,
		CohostName:         req.CohostName,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPodcastResponse(pv))
}

func (h *Handlers) GetPodcast(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	pv, err := h.podcasts.Get(r.Context(), user.ID, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPodcastResponse(pv))
}

func (h *Handlers) ListPodcasts(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	podcasts, err := h.podcasts.List(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if podcasts == nil {
		podcasts = []models.Podcast{}
	}
	writeJSON(w, http.StatusOK, podcasts)
}

func (h *Handlers) UpdatePodcast(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	var req updatePodcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	pv, err := h.podcasts.Update(r.Context(), user.ID, mux.Vars(r)["id"], service.UpdateRequest{
		Title:              req.Title,
		Description:        req.Description,
		Tags:               req.Tags,
		PromptInstructions: req.PromptInstructions,
		SourceDocumentIDs:  req.SourceDocumentIDs,
		HostVoice:          req.HostVoice,
		CohostVoice:        req.CohostVoice,
		HostName:           req.HostName,
		CohostName:         req.CohostName,
		Segments:           req.Segments,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPodcastResponse(pv))
}

func (h *Handlers) DeletePodcast(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if err := h.podcasts.Delete(r.Context(), user.ID, mux.Vars(r)["id"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type generateRequest struct {
	Target string `json:"target"`
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Created bool   `json:"created"`
}

// GeneratePodcast dispatches a generation run. 202 when a new job was
// created, 200 when the call converged on one already in flight.
func (h *Handlers) GeneratePodcast(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	var req generateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
	}

	target := podcast.StatusReady
	switch req.Target {
	case "", string(podcast.StatusReady):
	case string(podcast.StatusScriptReady):
		target = podcast.StatusScriptReady
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "target must be script_ready or ready"})
		return
	}

	res, err := h.generator.StartGeneration(r.Context(), user.ID, mux.Vars(r)["id"], target, req.Prompt)
	if err != nil {
		h.writeError(w, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusAccepted
	}
	writeJSON(w, status, generateResponse{JobID: res.Job.ID, Status: res.Job.Status, Created: res.Created})
}

func (h *Handlers) ApprovePodcast(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	approval, err := h.podcasts.Approve(r.Context(), user.ID, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"podcast_id": approval.PodcastID,
		"user_id":    approval.UserID,
		"role":       approval.Role,
	})
}
