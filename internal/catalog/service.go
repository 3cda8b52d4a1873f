package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/vrsandeep/vnshelf/internal/models"
	"github.com/vrsandeep/vnshelf/internal/store"
)

const exportVersion = "1.0"

var idPattern = regexp.MustCompile(`^v\d+$`)

// IsValidID reports whether id has the VNDB visual novel format (v<digits>).
func IsValidID(id string) bool {
	return idPattern.MatchString(id)
}

// MetadataFetcher provides the normalized metadata for a VNDB id.
type MetadataFetcher interface {
	Fetch(ctx context.Context, id string) (*models.Metadata, error)
}

// Service owns every mutation of catalog entries and keeps the list in sync.
type Service struct {
	st      *store.Store
	agg     *Aggregator
	fetcher MetadataFetcher
}

func NewService(st *store.Store, agg *Aggregator, fetcher MetadataFetcher) *Service {
	return &Service{st: st, agg: agg, fetcher: fetcher}
}

// Create fetches the metadata for id and stores a new entry. Nothing is
// written when the fetch fails.
func (s *Service) Create(ctx context.Context, id string, in models.UserInput) (*models.Entry, error) {
	if !IsValidID(id) {
		return nil, fmt.Errorf("%w: invalid VNDB id %q", ErrInvalidInput, id)
	}

	_, err := s.st.GetEntry(ctx, id)
	if err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateEntry, id)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	meta, err := s.fetcher.Fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataFetch, err)
	}

	user := models.UserData{
		TitleCn:        in.TitleCn.Value,
		PersonalRating: clampRating(in.PersonalRating.Value),
		PlayTime:       in.PlayTime.Value,
		Review:         in.Review.Value,
		StartDate:      datePtr(in.StartDate),
		FinishDate:     datePtr(in.FinishDate),
		Tags:           []string{},
	}
	if user.TitleCn == "" {
		user.TitleCn = meta.TitleCn
	}
	if in.PlayTimeMinutes.Present() && in.PlayTimeMinutes.Value > 0 {
		user.PlayTimeMinutes = in.PlayTimeMinutes.Value
	} else {
		user.PlayTimeMinutes = ParsePlayTime(user.PlayTime)
	}
	if in.Tags.Present() && in.Tags.Value != nil {
		user.Tags = in.Tags.Value
	}

	entry := &models.Entry{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		VNDB:      *meta,
		User:      user,
	}
	if err := s.st.SaveEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("save entry %s: %w", id, err)
	}
	// The entry is committed; the list must follow even if the caller is gone.
	if err := s.agg.UpsertOne(context.WithoutCancel(ctx), entry); err != nil {
		return nil, fmt.Errorf("update list: %w", err)
	}
	return entry, nil
}

// Update merges the fields present in the input into an existing entry.
// With RefreshVNDB set the metadata is fetched first and a fetch failure
// rejects the whole update.
func (s *Service) Update(ctx context.Context, id string, in models.UserInput) (*models.Entry, error) {
	entry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.RefreshVNDB {
		meta, err := s.fetcher.Fetch(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMetadataFetch, err)
		}
		entry.VNDB = *meta
	}

	mergeUserInput(&entry.User, in)

	if err := s.st.SaveEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("save entry %s: %w", id, err)
	}
	if err := s.agg.UpsertOne(context.WithoutCancel(ctx), entry); err != nil {
		return nil, fmt.Errorf("update list: %w", err)
	}
	return entry, nil
}

// mergeUserInput applies a partial update. Null is honoured for dates and
// tags only; the other fields keep their value.
func mergeUserInput(u *models.UserData, in models.UserInput) {
	if in.TitleCn.Present() {
		u.TitleCn = in.TitleCn.Value
	}
	if in.PersonalRating.Present() {
		u.PersonalRating = clampRating(in.PersonalRating.Value)
	}
	if in.PlayTime.Present() {
		u.PlayTime = in.PlayTime.Value
	}
	switch {
	case in.PlayTimeMinutes.Present():
		u.PlayTimeMinutes = max(in.PlayTimeMinutes.Value, 0)
	case in.PlayTime.Present():
		u.PlayTimeMinutes = ParsePlayTime(u.PlayTime)
	}
	if in.Review.Present() {
		u.Review = in.Review.Value
	}
	if in.StartDate.Set {
		u.StartDate = datePtr(in.StartDate)
	}
	if in.FinishDate.Set {
		u.FinishDate = datePtr(in.FinishDate)
	}
	if in.Tags.Set {
		u.Tags = []string{}
		if in.Tags.Present() && in.Tags.Value != nil {
			u.Tags = in.Tags.Value
		}
	}
	if u.Tags == nil {
		u.Tags = []string{}
	}
}

// Delete removes an entry and drops it from the list.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.st.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	if err := s.agg.RemoveOne(context.WithoutCancel(ctx), id); err != nil {
		return fmt.Errorf("update list: %w", err)
	}
	return nil
}

// Get returns a single entry.
func (s *Service) Get(ctx context.Context, id string) (*models.Entry, error) {
	entry, err := s.st.GetEntry(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Sort field names accepted by List.
const (
	SortCreated  = "created"
	SortRating   = "rating"
	SortPersonal = "personal"
)

// ParseSort splits a "<field>_<asc|desc>" key. An empty key means newest first.
func ParseSort(key string) (field string, desc bool) {
	if key == "" {
		return SortCreated, true
	}
	field, order, _ := strings.Cut(key, "_")
	switch field {
	case SortCreated, SortPersonal:
	default:
		field = SortRating
	}
	return field, order == "desc"
}

// List returns the summaries matching search (case-insensitive over every
// title variant), ordered by sortKey.
func (s *Service) List(ctx context.Context, search, sortKey string) ([]models.Summary, error) {
	list, err := s.st.GetList(ctx)
	if err != nil {
		return nil, err
	}

	items := list.Items
	if query := strings.ToLower(strings.TrimSpace(search)); query != "" {
		items = slices.DeleteFunc(slices.Clone(items), func(item models.Summary) bool {
			return !strings.Contains(strings.ToLower(item.Title), query) &&
				!strings.Contains(strings.ToLower(item.TitleJa), query) &&
				!strings.Contains(strings.ToLower(item.TitleCn), query)
		})
	}

	field, desc := ParseSort(sortKey)
	slices.SortStableFunc(items, func(a, b models.Summary) int {
		var c int
		switch field {
		case SortCreated:
			c = a.CreatedAt.Compare(b.CreatedAt)
		case SortPersonal:
			c = compareFloat(a.PersonalRating, b.PersonalRating)
		default:
			c = compareFloat(a.Rating, b.Rating)
		}
		if desc {
			return -c
		}
		return c
	})
	return items, nil
}

// Stats returns the statistics stored with the list.
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	list, err := s.st.GetList(ctx)
	if err != nil {
		return models.Stats{}, err
	}
	return list.Stats, nil
}

// Rebuild recomputes the list from the entries it references.
func (s *Service) Rebuild(ctx context.Context) (*models.Aggregate, error) {
	return s.agg.RebuildFull(ctx)
}

// Export returns every entry referenced by the list.
func (s *Service) Export(ctx context.Context) (*models.ExportDocument, error) {
	list, err := s.st.GetList(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.agg.loadEntries(ctx, list.IDs())
	if err != nil {
		return nil, err
	}
	return &models.ExportDocument{
		Version:    exportVersion,
		ExportedAt: time.Now().UTC(),
		Entries:    entries,
	}, nil
}

// Import writes the given entries as-is. In replace mode every existing
// entry is deleted first. The list is rebuilt once over the old and the
// imported ids.
func (s *Service) Import(ctx context.Context, entries []*models.Entry, mode string) (int, error) {
	switch mode {
	case "":
		mode = models.ImportModeMerge
	case models.ImportModeMerge, models.ImportModeReplace:
	default:
		return 0, fmt.Errorf("%w: unknown import mode %q", ErrInvalidInput, mode)
	}
	ids := make([]string, 0, len(entries))
	for i, e := range entries {
		if e == nil || !IsValidID(e.ID) {
			return 0, fmt.Errorf("%w: entry %d has no valid VNDB id", ErrInvalidInput, i)
		}
		ids = append(ids, e.ID)
	}

	if mode == models.ImportModeReplace {
		list, err := s.st.GetList(ctx)
		if err != nil {
			return 0, err
		}
		for _, id := range list.IDs() {
			if err := s.st.DeleteEntry(ctx, id); err != nil {
				return 0, fmt.Errorf("delete entry %s: %w", id, err)
			}
		}
	}

	for _, e := range entries {
		if e.User.Tags == nil {
			e.User.Tags = []string{}
		}
		if err := s.st.ImportEntry(ctx, e); err != nil {
			return 0, fmt.Errorf("import entry %s: %w", e.ID, err)
		}
	}

	list, err := s.agg.RebuildFull(ctx, ids...)
	if err != nil {
		return 0, fmt.Errorf("rebuild list: %w", err)
	}
	log.Printf("Imported %d entries (%s), catalog now holds %d", len(entries), mode, len(list.Items))
	return len(entries), nil
}

func clampRating(r float64) float64 {
	if math.IsNaN(r) {
		return 0
	}
	return math.Max(0, math.Min(10, r))
}

// datePtr maps an absent, null or empty date to nil.
func datePtr(o models.Optional[string]) *string {
	if !o.Present() || o.Value == "" {
		return nil
	}
	v := o.Value
	return &v
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
