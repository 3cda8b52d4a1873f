package api_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrsandeep/vnshelf/internal/models"
	"github.com/vrsandeep/vnshelf/internal/testutil"
)

func TestIndexHandlers(t *testing.T) {
	server, app, fetcher := testutil.SetupTestServer(t)
	cookie := testutil.GetAuthCookie(t, server)

	t.Run("Empty Catalog", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/index/start", nil, cookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	for _, id := range []string{"v1", "v2"} {
		rr := doRequest(t, server, http.MethodPost, "/api/vn", map[string]any{"vndbId": id}, cookie)
		require.Equal(t, http.StatusCreated, rr.Code)
	}
	fetcher.Set("v1", models.Metadata{Title: "Refreshed", Rating: 9.1, Tags: []string{}})

	rr := doRequest(t, server, http.MethodPost, "/api/index/start", nil, cookie)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
	started := decode[map[string]any](t, rr)
	assert.EqualValues(t, 2, started["total"])

	rr = doRequest(t, server, http.MethodPost, "/api/index/start", nil, cookie)
	assert.Equal(t, http.StatusConflict, rr.Code)

	handled, err := app.DrainIndexQueue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, handled)

	rr = doRequest(t, server, http.MethodGet, "/api/index/status", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	status := decode[map[string]any](t, rr)
	assert.Equal(t, models.IndexStatusCompleted, status["status"])
	assert.EqualValues(t, 2, status["processed"])
	assert.EqualValues(t, 100, status["progress"])

	list := decode[listResponse](t, doRequest(t, server, http.MethodGet, "/api/vn?sort=rating_desc", nil, nil))
	require.Len(t, list.Data, 2)
	assert.Equal(t, "Refreshed", list.Data[0].Title)
}
