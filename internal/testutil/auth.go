package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vrsandeep/vnshelf/internal/api"
)

// TestPassword is the admin password set by GetAuthCookie.
const TestPassword = "password123"

// GetAuthCookie initializes the admin password, logs in, and returns a valid session cookie.
func GetAuthCookie(t *testing.T, s *api.Server) *http.Cookie {
	t.Helper()

	rr := postJSON(s, "/api/auth/init", map[string]string{"password": TestPassword})
	if rr.Code != http.StatusOK {
		t.Fatalf("Init failed within test helper: got status %d, want 200: %s", rr.Code, rr.Body.String())
	}

	rr = postJSON(s, "/api/auth/login", map[string]string{"password": TestPassword})
	if rr.Code != http.StatusOK {
		t.Fatalf("Login failed within test helper: got status %d, want 200", rr.Code)
	}

	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == "auth_token" {
			return cookie
		}
	}

	t.Fatal("Failed to get auth cookie after successful login")
	return nil
}

func postJSON(s *api.Server, path string, payload any) *httptest.ResponseRecorder {
	payloadBytes, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(payloadBytes))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}
