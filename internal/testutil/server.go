// Shared app and server setup for integration tests.

package testutil

import (
	"testing"

	"github.com/vrsandeep/vnshelf/internal/api"
	"github.com/vrsandeep/vnshelf/internal/config"
	"github.com/vrsandeep/vnshelf/internal/core"
)

// SetupTestApp assembles a full core.App on an in-memory database. The
// returned fetcher stands in for VNDB.
func SetupTestApp(t *testing.T) (*core.App, *FakeFetcher) {
	t.Helper()
	db := SetupTestDB(t)

	cfg := config.Defaults()
	fetcher := NewFakeFetcher()

	app, err := core.Assemble(cfg, db, fetcher)
	if err != nil {
		t.Fatalf("Failed to assemble test app: %v", err)
	}
	return app, fetcher
}

// SetupTestServer initializes a full core.App and api.Server for integration testing.
func SetupTestServer(t *testing.T) (*api.Server, *core.App, *FakeFetcher) {
	t.Helper()
	app, fetcher := SetupTestApp(t)
	return api.NewServer(app), app, fetcher
}
