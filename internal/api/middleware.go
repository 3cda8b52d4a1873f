package api

// This file contains the middleware for handling authentication.

import (
	"context"
	"net/http"
	"strings"

	"github.com/vrsandeep/vnshelf/internal/auth"
)

// authCookieName is the cookie carrying the admin's JWT.
const authCookieName = "auth_token"

// contextKey is a private type to prevent collisions with other context keys.
type contextKey string

const claimsContextKey = contextKey("claims")

// AuthMiddleware rejects requests without a valid admin token and puts the
// token's claims into the request context.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.authenticate(r)
		if err != nil {
			RespondWithError(w, http.StatusUnauthorized, "Unauthorized: "+err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type authError string

func (e authError) Error() string { return string(e) }

// authenticate validates the token from the cookie or the Authorization header.
func (s *Server) authenticate(r *http.Request) (*auth.Claims, error) {
	token := bearerToken(r)
	if token == "" {
		if cookie, err := r.Cookie(authCookieName); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		return nil, authError("no token")
	}

	ts, err := s.tokenService(r.Context())
	if err != nil {
		return nil, err
	}
	claims, err := ts.Parse(token)
	if err != nil {
		return nil, authError("invalid token")
	}
	return claims, nil
}

func (s *Server) tokenService(ctx context.Context) (auth.TokenService, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return auth.TokenService{}, err
	}
	return auth.TokenService{
		Secret:   []byte(settings.JWTSecret),
		Duration: s.app.Config().TokenTTL(),
	}, nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
