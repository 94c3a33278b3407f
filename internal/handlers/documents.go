package handlers

import (
	"encoding/json"
	"net/http"

	"castforge/internal/middleware"
	"castforge/internal/models"
)

type createDocumentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *Handlers) CreateDocument(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "content is required"})
		return
	}

	doc, err := h.documents.Create(r.Context(), models.Document{
		OwnerID: user.ID,
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *Handlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	docs, err := h.documents.ListByOwner(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}
