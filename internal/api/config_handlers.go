package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/vrsandeep/vnshelf/internal/auth"
	"github.com/vrsandeep/vnshelf/internal/models"
)

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	// Secrets are only reported as present or absent.
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"hasVndbApiToken": settings.VNDBAPIToken != "",
		"hasPassword":     settings.AdminPasswordHash != "",
		"lastIndexTime":   settings.LastIndexTime,
		"tagsMode":        settings.TagsMode,
		"translateTags":   settings.TranslateTags,
		"translationUrl":  settings.TranslationURL,
	})
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		VNDBAPIToken   *string `json:"vndbApiToken"`
		NewPassword    string  `json:"newPassword"`
		TagsMode       *string `json:"tagsMode"`
		TranslateTags  *bool   `json:"translateTags"`
		TranslationURL *string `json:"translationUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	if payload.VNDBAPIToken != nil {
		settings.VNDBAPIToken = strings.TrimSpace(*payload.VNDBAPIToken)
	}
	if payload.TagsMode != nil {
		switch *payload.TagsMode {
		case models.TagsModeVNDB, models.TagsModeManual:
			settings.TagsMode = *payload.TagsMode
		default:
			RespondWithError(w, http.StatusBadRequest, "tagsMode must be 'vndb' or 'manual'")
			return
		}
	}
	if payload.TranslateTags != nil {
		settings.TranslateTags = *payload.TranslateTags
	}
	if payload.TranslationURL != nil {
		settings.TranslationURL = strings.TrimSpace(*payload.TranslationURL)
	}
	if payload.NewPassword != "" {
		hash, err := auth.HashPassword(payload.NewPassword)
		if errors.Is(err, auth.ErrPasswordTooShort) {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		// A new secret invalidates every session issued with the old password.
		secret, err := auth.GenerateSecret()
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		settings.AdminPasswordHash = hash
		settings.JWTSecret = secret
		log.Println("Admin password changed, existing sessions revoked")
	}

	if err := s.store.SaveSettings(r.Context(), settings); err != nil {
		respondWithServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}
