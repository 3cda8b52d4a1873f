package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrsandeep/vnshelf/internal/models"
	"github.com/vrsandeep/vnshelf/internal/testutil"
)

type listResponse struct {
	Data  []models.Summary `json:"data"`
	Total int              `json:"total"`
}

func TestVNHandlers(t *testing.T) {
	server, _, fetcher := testutil.SetupTestServer(t)
	cookie := testutil.GetAuthCookie(t, server)
	fetcher.Set("v17", models.Metadata{Title: "Ever17", TitleJa: "エバー17", Rating: 8.6, LengthMinutes: 1800, Tags: []string{}})
	fetcher.Set("v11", models.Metadata{Title: "Fate/stay night", Rating: 8.0, Tags: []string{}})

	t.Run("Create", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/vn", map[string]any{
			"vndbId":         "v17",
			"personalRating": 9,
			"playTime":       "30小时",
			"review":         "**great**",
		}, cookie)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		entry := decode[models.Entry](t, rr)
		assert.Equal(t, "v17", entry.ID)
		assert.Equal(t, 1800, entry.User.PlayTimeMinutes)

		rr = doRequest(t, server, http.MethodPost, "/api/vn", map[string]any{"vndbId": "v11"}, cookie)
		require.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("Create Errors", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/vn", map[string]any{"vndbId": "17"}, cookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		rr = doRequest(t, server, http.MethodPost, "/api/vn", map[string]any{"vndbId": "v17"}, cookie)
		assert.Equal(t, http.StatusConflict, rr.Code)

		fetcher.Fail("v5", true)
		rr = doRequest(t, server, http.MethodPost, "/api/vn", map[string]any{"vndbId": "v5"}, cookie)
		assert.Equal(t, http.StatusBadGateway, rr.Code)

		rr = doRequest(t, server, http.MethodPost, "/api/vn", "{bad json", cookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("List", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/api/vn?sort=rating_desc", nil, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		list := decode[listResponse](t, rr)
		require.Equal(t, 2, list.Total)
		assert.Equal(t, "v17", list.Data[0].ID)
		assert.Equal(t, "v11", list.Data[1].ID)

		rr = doRequest(t, server, http.MethodGet, "/api/vn?search=%E3%82%A8%E3%83%90%E3%83%BC", nil, nil)
		list = decode[listResponse](t, rr)
		require.Equal(t, 1, list.Total)
		assert.Equal(t, "v17", list.Data[0].ID)
	})

	t.Run("Get Renders Review", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/api/vn/v17", nil, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		body := decode[map[string]any](t, rr)
		assert.Equal(t, "v17", body["id"])
		assert.Contains(t, body["reviewHtml"], "<strong>great</strong>")

		rr = doRequest(t, server, http.MethodGet, "/api/vn/v999", nil, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Update", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPut, "/api/vn/v11", map[string]any{"personalRating": 7.5, "startDate": "2024-03-01"}, cookie)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		entry := decode[models.Entry](t, rr)
		assert.Equal(t, 7.5, entry.User.PersonalRating)
		require.NotNil(t, entry.User.StartDate)

		rr = doRequest(t, server, http.MethodPut, "/api/vn/v11", map[string]any{"startDate": nil}, cookie)
		require.Equal(t, http.StatusOK, rr.Code)
		entry = decode[models.Entry](t, rr)
		assert.Nil(t, entry.User.StartDate)
		assert.Equal(t, 7.5, entry.User.PersonalRating)

		rr = doRequest(t, server, http.MethodPut, "/api/vn/v999", map[string]any{"review": "x"}, cookie)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Stats", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/api/stats", nil, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		stats := decode[models.Stats](t, rr)
		assert.Equal(t, 2, stats.Total)
		assert.Equal(t, 1800, stats.TotalPlayTimeMinutes)
	})

	t.Run("Delete", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodDelete, "/api/vn/v11", nil, cookie)
		assert.Equal(t, http.StatusNoContent, rr.Code)

		rr = doRequest(t, server, http.MethodDelete, "/api/vn/v11", nil, cookie)
		assert.Equal(t, http.StatusNotFound, rr.Code)

		list := decode[listResponse](t, doRequest(t, server, http.MethodGet, "/api/vn", nil, nil))
		assert.Equal(t, 1, list.Total)
	})
}
