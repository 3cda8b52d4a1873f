package api

import (
	"net/http"

	"github.com/vrsandeep/vnshelf/internal/models"
)

type indexStatusResponse struct {
	*models.IndexStatus
	Progress float64 `json:"progress"`
}

func (s *Server) handleStartIndex(w http.ResponseWriter, r *http.Request) {
	status, err := s.app.Indexer().Start(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusAccepted, map[string]interface{}{
		"jobId": status.JobID,
		"total": status.Total,
	})
}

func (s *Server) handleGetIndexStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.app.Indexer().Status(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, indexStatusResponse{IndexStatus: status, Progress: status.Progress()})
}
