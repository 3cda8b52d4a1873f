// Helper functions for sending standardized JSON responses.

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/vrsandeep/vnshelf/internal/catalog"
	"github.com/vrsandeep/vnshelf/internal/indexer"
)

// RespondWithJSON writes a JSON response with the given status code and payload.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		// If marshaling fails, return an error response
		RespondWithError(w, http.StatusInternalServerError, "Failed to marshal response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// RespondWithError writes a standardized JSON error response.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps a catalog or indexer error to its status code.
// Unknown errors are logged and reported as 500 without details.
func respondWithServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidInput):
		RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, catalog.ErrDuplicateEntry), errors.Is(err, indexer.ErrAlreadyRunning):
		RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, indexer.ErrEmptyCatalog):
		RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrMetadataFetch):
		RespondWithError(w, http.StatusBadGateway, err.Error())
	default:
		log.Printf("Internal error: %v", err)
		RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
