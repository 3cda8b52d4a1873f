package api

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vrsandeep/vnshelf/internal/catalog"
)

const maxImportBytes = 32 << 20

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = catalog.FormatJSON
	}

	doc, err := s.app.Catalog().Export(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	body, err := catalog.EncodeDocument(doc, format)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	contentType := "application/json"
	if format == catalog.FormatYAML {
		contentType = "application/yaml"
	}
	filename := fmt.Sprintf("vnshelf-export-%s.%s", time.Now().Format("2006-01-02"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// handleImport accepts {entries, mode} as JSON, or as YAML with ?format=yaml.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	var payload catalog.ImportRequest
	if err := catalog.DecodeDocument(body, r.URL.Query().Get("format"), &payload); err != nil {
		respondWithServiceError(w, err)
		return
	}
	if payload.Entries == nil {
		RespondWithError(w, http.StatusBadRequest, "entries is required")
		return
	}

	count, err := s.app.Catalog().Import(r.Context(), payload.Entries, payload.Mode)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]int{"count": count})
}
