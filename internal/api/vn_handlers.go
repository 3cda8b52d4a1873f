package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vrsandeep/vnshelf/internal/markdown"
	"github.com/vrsandeep/vnshelf/internal/models"
)

type createVNRequest struct {
	VNDBID string `json:"vndbId"`
	models.UserInput
}

type entryResponse struct {
	*models.Entry
	ReviewHTML string `json:"reviewHtml"`
}

func (s *Server) handleListVN(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	sortKey := r.URL.Query().Get("sort")

	items, err := s.app.Catalog().List(r.Context(), search, sortKey)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"data":  items,
		"total": len(items),
	})
}

func (s *Server) handleGetVN(w http.ResponseWriter, r *http.Request) {
	entry, err := s.app.Catalog().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	html, err := markdown.Render(entry.User.Review)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, entryResponse{Entry: entry, ReviewHTML: html})
}

func (s *Server) handleCreateVN(w http.ResponseWriter, r *http.Request) {
	var payload createVNRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	entry, err := s.app.Catalog().Create(r.Context(), payload.VNDBID, payload.UserInput)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleUpdateVN(w http.ResponseWriter, r *http.Request) {
	var payload models.UserInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	entry, err := s.app.Catalog().Update(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteVN(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Catalog().Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondWithServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.app.Catalog().Stats(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, stats)
}
