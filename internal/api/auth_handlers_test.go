package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrsandeep/vnshelf/internal/testutil"
)

func TestAuthFlow(t *testing.T) {
	server, _, _ := testutil.SetupTestServer(t)

	t.Run("Status Before Init", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/api/auth/status", nil, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		body := decode[map[string]bool](t, rr)
		assert.False(t, body["initialized"])
		assert.False(t, body["authenticated"])
	})

	t.Run("Init Rejects Short Password", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/auth/init", map[string]string{"password": "12345"}, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	cookie := testutil.GetAuthCookie(t, server)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, 24*60*60, cookie.MaxAge)

	t.Run("Init Only Once", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/auth/init", map[string]string{"password": "another-pass"}, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Login Errors", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/auth/login", map[string]string{"password": ""}, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		rr = doRequest(t, server, http.MethodPost, "/api/auth/login", map[string]string{"password": "wrong-password"}, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Verify", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/api/auth/verify", nil, cookie)
		assert.Equal(t, http.StatusOK, rr.Code)

		bogus := &http.Cookie{Name: "auth_token", Value: "not-a-jwt"}
		rr = doRequest(t, server, http.MethodGet, "/api/auth/verify", nil, bogus)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Status After Login", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/api/auth/status", nil, cookie)
		body := decode[map[string]bool](t, rr)
		assert.True(t, body["initialized"])
		assert.True(t, body["authenticated"])
	})

	t.Run("Bearer Header", func(t *testing.T) {
		req := doRequestWithBearer(t, server, cookie.Value)
		assert.Equal(t, http.StatusOK, req.Code)
	})

	t.Run("Logout Clears Cookie", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/auth/logout", nil, cookie)
		require.Equal(t, http.StatusOK, rr.Code)
		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "auth_token", cookies[0].Name)
		assert.Empty(t, cookies[0].Value)
		assert.Less(t, cookies[0].MaxAge, 0)
	})
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	server, _, _ := testutil.SetupTestServer(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/vn"},
		{http.MethodPut, "/api/vn/v17"},
		{http.MethodDelete, "/api/vn/v17"},
		{http.MethodPost, "/api/index/start"},
		{http.MethodGet, "/api/index/status"},
		{http.MethodGet, "/api/config"},
		{http.MethodPut, "/api/config"},
		{http.MethodGet, "/api/export"},
		{http.MethodPost, "/api/import"},
		{http.MethodGet, "/api/admin/jobs/status"},
	}
	for _, route := range routes {
		rr := doRequest(t, server, route.method, route.path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", route.method, route.path)
	}
}

func TestPasswordChangeRevokesSessions(t *testing.T) {
	server, _, _ := testutil.SetupTestServer(t)
	cookie := testutil.GetAuthCookie(t, server)

	rr := doRequest(t, server, http.MethodPut, "/api/config", map[string]string{"newPassword": "brand-new-pass"}, cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, server, http.MethodGet, "/api/config", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doRequest(t, server, http.MethodPost, "/api/auth/login", map[string]string{"password": "brand-new-pass"}, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}
