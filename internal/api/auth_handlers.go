package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/vrsandeep/vnshelf/internal/auth"
)

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	_, authErr := s.authenticate(r)
	RespondWithJSON(w, http.StatusOK, map[string]bool{
		"initialized":   settings.AdminPasswordHash != "",
		"authenticated": authErr == nil,
	})
}

// handleInit sets the admin password on first run.
func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Password     string `json:"password"`
		VNDBAPIToken string `json:"vndbApiToken"`
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
	if settings.AdminPasswordHash != "" {
		RespondWithError(w, http.StatusBadRequest, "Already initialized")
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if errors.Is(err, auth.ErrPasswordTooShort) {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	secret, err := auth.GenerateSecret()
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	settings.AdminPasswordHash = hash
	settings.JWTSecret = secret
	if token := strings.TrimSpace(payload.VNDBAPIToken); token != "" {
		settings.VNDBAPIToken = token
	}
	if err := s.store.SaveSettings(r.Context(), settings); err != nil {
		respondWithServiceError(w, err)
		return
	}
	log.Println("Admin password initialized")
	RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if payload.Password == "" {
		RespondWithError(w, http.StatusBadRequest, "Password is required")
		return
	}

	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	if settings.AdminPasswordHash == "" || !auth.CheckPasswordHash(payload.Password, settings.AdminPasswordHash) {
		RespondWithError(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	ts := auth.TokenService{Secret: []byte(settings.JWTSecret), Duration: s.app.Config().TokenTTL()}
	token, expires, err := ts.Sign()
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Expires:  expires,
		MaxAge:   int(ts.Duration / time.Second),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.app.Config().Auth.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Expire the cookie on the client side
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.app.Config().Auth.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authenticate(r); err != nil {
		RespondWithError(w, http.StatusUnauthorized, "Unauthorized: "+err.Error())
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]bool{"valid": true})
}
