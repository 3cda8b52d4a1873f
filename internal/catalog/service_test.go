package catalog_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/vnshelf/internal/catalog"
	"github.com/vrsandeep/vnshelf/internal/models"
	"github.com/vrsandeep/vnshelf/internal/store"
	"github.com/vrsandeep/vnshelf/internal/testutil"
)

type fixture struct {
	st      *store.Store
	fetcher *testutil.FakeFetcher
	svc     *catalog.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := testutil.SetupTestStore(t)
	fetcher := testutil.NewFakeFetcher()
	return &fixture{
		st:      st,
		fetcher: fetcher,
		svc:     catalog.NewService(st, catalog.NewAggregator(st, 4), fetcher),
	}
}

// assertListMatchesStore checks that the list is a 1:1 projection of the
// stored entries with the given ids.
func (f *fixture) assertListMatchesStore(t *testing.T, ids ...string) {
	t.Helper()
	ctx := context.Background()
	list, err := f.st.GetList(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, ids, list.IDs())
	for _, item := range list.Items {
		e, err := f.st.GetEntry(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, e.VNDB.Title, item.Title)
		assert.Equal(t, e.VNDB.Rating, item.Rating)
		assert.Equal(t, e.User.PersonalRating, item.PersonalRating)
	}
	assert.Equal(t, len(ids), list.Stats.Total)
}

func userInput(t *testing.T, raw string) models.UserInput {
	t.Helper()
	var in models.UserInput
	require.NoError(t, json.Unmarshal([]byte(raw), &in))
	return in
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("builds entry from metadata and input", func(t *testing.T) {
		f := newFixture(t)
		f.fetcher.Set("v17", models.Metadata{Title: "Ever17", TitleCn: "时空轮回", Rating: 8.7})

		e, err := f.svc.Create(ctx, "v17", userInput(t, `{"personalRating": 12, "playTime": "25小时", "startDate": "2024-01-01"}`))
		require.NoError(t, err)
		assert.Equal(t, "时空轮回", e.User.TitleCn, "titleCn defaults to VNDB's")
		assert.Equal(t, 10.0, e.User.PersonalRating, "rating is clamped")
		assert.Equal(t, 1500, e.User.PlayTimeMinutes)
		require.NotNil(t, e.User.StartDate)
		assert.Equal(t, "2024-01-01", *e.User.StartDate)
		assert.Nil(t, e.User.FinishDate)
		assert.NotNil(t, e.User.Tags)
		assert.False(t, e.CreatedAt.IsZero())

		f.assertListMatchesStore(t, "v17")
	})

	t.Run("explicit minutes win over the label", func(t *testing.T) {
		f := newFixture(t)
		e, err := f.svc.Create(ctx, "v2", userInput(t, `{"playTime": "25小时", "playTimeMinutes": 42}`))
		require.NoError(t, err)
		assert.Equal(t, 42, e.User.PlayTimeMinutes)
	})

	t.Run("invalid id", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, "17", models.UserInput{})
		assert.ErrorIs(t, err, catalog.ErrInvalidInput)
		assert.Zero(t, f.fetcher.Calls("17"))
	})

	t.Run("duplicate leaves existing entry untouched", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, "v17", userInput(t, `{"personalRating": 9}`))
		require.NoError(t, err)
		before, err := f.st.GetList(ctx)
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, "v17", userInput(t, `{"personalRating": 1}`))
		assert.ErrorIs(t, err, catalog.ErrDuplicateEntry)

		e, err := f.st.GetEntry(ctx, "v17")
		require.NoError(t, err)
		assert.Equal(t, 9.0, e.User.PersonalRating)
		after, err := f.st.GetList(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
		assert.Equal(t, 1, f.fetcher.Calls("v17"))
	})

	t.Run("fetch failure writes nothing", func(t *testing.T) {
		f := newFixture(t)
		f.fetcher.Fail("v5", true)
		_, err := f.svc.Create(ctx, "v5", models.UserInput{})
		assert.ErrorIs(t, err, catalog.ErrMetadataFetch)

		_, err = f.st.GetEntry(ctx, "v5")
		assert.ErrorIs(t, err, store.ErrNotFound)
		f.assertListMatchesStore(t)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("partial merge", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, "v1", userInput(t,
			`{"titleCn": "甲", "personalRating": 7, "playTime": "10h", "review": "ok", "startDate": "2024-01-01", "tags": ["a"]}`))
		require.NoError(t, err)

		e, err := f.svc.Update(ctx, "v1", userInput(t,
			`{"personalRating": 8, "playTime": "2天3小时", "titleCn": null, "startDate": null, "tags": null}`))
		require.NoError(t, err)
		assert.Equal(t, "甲", e.User.TitleCn, "null is ignored for titleCn")
		assert.Equal(t, 8.0, e.User.PersonalRating)
		// 2*1440 + 3*60
		assert.Equal(t, 3060, e.User.PlayTimeMinutes, "minutes re-derived from the new label")
		assert.Equal(t, "ok", e.User.Review, "omitted field keeps its value")
		assert.Nil(t, e.User.StartDate)
		assert.Equal(t, []string{}, e.User.Tags)

		f.assertListMatchesStore(t, "v1")
	})

	t.Run("explicit minutes without label", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, "v1", userInput(t, `{"playTime": "10h"}`))
		require.NoError(t, err)

		e, err := f.svc.Update(ctx, "v1", userInput(t, `{"playTimeMinutes": 5, "personalRating": -3}`))
		require.NoError(t, err)
		assert.Equal(t, "10h", e.User.PlayTime)
		assert.Equal(t, 5, e.User.PlayTimeMinutes)
		assert.Equal(t, 0.0, e.User.PersonalRating)
	})

	t.Run("refresh failure rejects the whole update", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, "v1", userInput(t, `{"personalRating": 7}`))
		require.NoError(t, err)
		f.fetcher.Fail("v1", true)

		_, err = f.svc.Update(ctx, "v1", userInput(t, `{"personalRating": 2, "refreshVNDB": true}`))
		assert.ErrorIs(t, err, catalog.ErrMetadataFetch)

		e, err := f.st.GetEntry(ctx, "v1")
		require.NoError(t, err)
		assert.Equal(t, 7.0, e.User.PersonalRating)
	})

	t.Run("refresh replaces metadata", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, "v1", models.UserInput{})
		require.NoError(t, err)
		f.fetcher.Set("v1", models.Metadata{Title: "Fresh", Rating: 9.1})

		_, err = f.svc.Update(ctx, "v1", models.UserInput{RefreshVNDB: true})
		require.NoError(t, err)
		f.assertListMatchesStore(t, "v1")

		list, err := f.st.GetList(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Fresh", list.Items[0].Title)
	})

	t.Run("missing entry", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Update(ctx, "v404", models.UserInput{})
		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, id := range []string{"v1", "v2", "v3"} {
		_, err := f.svc.Create(ctx, id, models.UserInput{})
		require.NoError(t, err)
	}
	require.NoError(t, f.svc.Delete(ctx, "v2"))
	f.assertListMatchesStore(t, "v1", "v3")

	assert.ErrorIs(t, f.svc.Delete(ctx, "v2"), catalog.ErrNotFound)
}

func TestListSearchAndSort(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.fetcher.Set("v1", models.Metadata{Title: "Ever17", Rating: 8.5})
	f.fetcher.Set("v2", models.Metadata{Title: "Clannad", TitleJa: "クラナド", Rating: 8.0})
	f.fetcher.Set("v3", models.Metadata{Title: "Saya no Uta", Rating: 7.6})
	for _, c := range []struct {
		id    string
		input string
	}{
		{"v1", `{"personalRating": 6}`},
		{"v2", `{"personalRating": 9, "titleCn": "团子大家族"}`},
		{"v3", `{}`},
	} {
		_, err := f.svc.Create(ctx, c.id, userInput(t, c.input))
		require.NoError(t, err)
	}

	ids := func(items []models.Summary) []string {
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, item.ID)
		}
		return out
	}

	items, err := f.svc.List(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"v3", "v2", "v1"}, ids(items), "default is newest first")

	items, err = f.svc.List(ctx, "", "rating_desc")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2", "v3"}, ids(items))

	items, err = f.svc.List(ctx, "", "personal_asc")
	require.NoError(t, err)
	assert.Equal(t, []string{"v3", "v1", "v2"}, ids(items))

	items, err = f.svc.List(ctx, "クラ", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"v2"}, ids(items))

	items, err = f.svc.List(ctx, "EVER", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, ids(items))

	items, err = f.svc.List(ctx, "大家族", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"v2"}, ids(items))

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.InDelta(t, 7.5, stats.AvgPersonalRating, 1e-9)
}

func TestParseSort(t *testing.T) {
	field, desc := catalog.ParseSort("")
	assert.Equal(t, catalog.SortCreated, field)
	assert.True(t, desc)

	field, desc = catalog.ParseSort("personal_asc")
	assert.Equal(t, catalog.SortPersonal, field)
	assert.False(t, desc)

	field, desc = catalog.ParseSort("bogus_desc")
	assert.Equal(t, catalog.SortRating, field)
	assert.True(t, desc)
}

func TestImportReplace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Create(ctx, "v3", models.UserInput{})
	require.NoError(t, err)

	entries := []*models.Entry{
		{ID: "v1", VNDB: models.Metadata{Title: "A", Rating: 8}},
		{ID: "v2", VNDB: models.Metadata{Title: "B", Rating: 6}, User: models.UserData{PersonalRating: 7}},
	}
	n, err := f.svc.Import(ctx, entries, models.ImportModeReplace)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = f.st.GetEntry(ctx, "v3")
	assert.ErrorIs(t, err, store.ErrNotFound)
	f.assertListMatchesStore(t, "v1", "v2")

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7.0, stats.AvgRating)
	assert.Equal(t, 7.0, stats.AvgPersonalRating)
}

func TestImportMergeKeepsUntouchedEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Create(ctx, "v3", models.UserInput{})
	require.NoError(t, err)

	_, err = f.svc.Import(ctx, []*models.Entry{{ID: "v1", VNDB: models.Metadata{Title: "A"}}}, "")
	require.NoError(t, err)
	f.assertListMatchesStore(t, "v3", "v1")
}

func TestImportRejectsInvalidIDsBeforeWriting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Import(ctx, []*models.Entry{{ID: "v1"}, {ID: "bad"}}, models.ImportModeMerge)
	assert.ErrorIs(t, err, catalog.ErrInvalidInput)
	_, err = f.st.GetEntry(ctx, "v1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.svc.Import(ctx, nil, "overwrite")
	assert.ErrorIs(t, err, catalog.ErrInvalidInput)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newFixture(t)

	src.fetcher.Set("v1", models.Metadata{Title: "Ever17", Developers: []string{"KID"}, Tags: []string{"Sci-fi"}, Rating: 8.7})
	_, err := src.svc.Create(ctx, "v1", userInput(t, `{"personalRating": 9, "review": "**great**", "finishDate": "2024-02-02", "tags": ["fav"]}`))
	require.NoError(t, err)
	_, err = src.svc.Create(ctx, "v2", userInput(t, `{"playTime": "1:30"}`))
	require.NoError(t, err)

	doc, err := src.svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.0", doc.Version)
	require.Len(t, doc.Entries, 2)

	// Ship the document through JSON like a real export file.
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	var shipped models.ExportDocument
	require.NoError(t, json.Unmarshal(raw, &shipped))

	dst := newFixture(t)
	_, err = dst.svc.Create(ctx, "v9", models.UserInput{})
	require.NoError(t, err)
	_, err = dst.svc.Import(ctx, shipped.Entries, models.ImportModeReplace)
	require.NoError(t, err)

	again, err := dst.svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc.Entries, again.Entries)
	dst.assertListMatchesStore(t, "v1", "v2")
}
