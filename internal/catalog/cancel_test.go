package catalog_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/vnshelf/internal/catalog"
	"github.com/vrsandeep/vnshelf/internal/kv"
	"github.com/vrsandeep/vnshelf/internal/models"
	"github.com/vrsandeep/vnshelf/internal/store"
	"github.com/vrsandeep/vnshelf/internal/testutil"
)

// cancelAfterEntryWrite cancels the request context right after an entry
// write or delete succeeds, like a client hanging up mid-request.
type cancelAfterEntryWrite struct {
	kv.Store
	cancel context.CancelFunc
}

func (c *cancelAfterEntryWrite) Put(ctx context.Context, key string, value []byte) error {
	err := c.Store.Put(ctx, key, value)
	if err == nil && strings.HasPrefix(key, store.EntryKey("")) {
		c.cancel()
	}
	return err
}

func (c *cancelAfterEntryWrite) Delete(ctx context.Context, key string) error {
	err := c.Store.Delete(ctx, key)
	if err == nil && strings.HasPrefix(key, store.EntryKey("")) {
		c.cancel()
	}
	return err
}

func newCancellingService(t *testing.T) (*catalog.Service, *store.Store, *cancelAfterEntryWrite) {
	t.Helper()
	backend := &cancelAfterEntryWrite{Store: kv.NewSQLite(testutil.SetupTestDB(t))}
	st := store.New(backend)
	return catalog.NewService(st, catalog.NewAggregator(st, 4), testutil.NewFakeFetcher()), st, backend
}

func listIDs(t *testing.T, st *store.Store) []string {
	t.Helper()
	list, err := st.GetList(context.Background())
	require.NoError(t, err)
	return list.IDs()
}

func TestCommittedMutationsReachTheListAfterCancel(t *testing.T) {
	svc, st, backend := newCancellingService(t)

	t.Run("Create", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		backend.cancel = cancel
		_, err := svc.Create(ctx, "v1", models.UserInput{})
		require.NoError(t, err)
		assert.Error(t, ctx.Err())
		assert.Equal(t, []string{"v1"}, listIDs(t, st))
	})

	t.Run("Update", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		backend.cancel = cancel
		_, err := svc.Update(ctx, "v1", models.UserInput{PersonalRating: models.Some(9.0)})
		require.NoError(t, err)

		list, err := st.GetList(context.Background())
		require.NoError(t, err)
		require.Len(t, list.Items, 1)
		assert.Equal(t, 9.0, list.Items[0].PersonalRating)
		assert.Equal(t, 9.0, list.Stats.AvgPersonalRating)
	})

	t.Run("Delete", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		backend.cancel = cancel
		require.NoError(t, svc.Delete(ctx, "v1"))
		assert.Empty(t, listIDs(t, st))
	})
}
