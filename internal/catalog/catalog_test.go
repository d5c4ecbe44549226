package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tech-tracker/internal/catalog"
	"github.com/ajitpratap0/tech-tracker/internal/models"
	"github.com/ajitpratap0/tech-tracker/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCatalog(t *testing.T, records ...models.Technology) (*catalog.Catalog, *store.MockStore) {
	t.Helper()
	ms := store.NewMockStore()
	c := catalog.New(ms, catalog.ManualKey, catalog.DefaultSeed(), quietLogger())
	c.Load(context.Background())
	if len(records) > 0 {
		require.NoError(t, c.ReplaceAll(context.Background(), records))
	}
	return c, ms
}

func persisted(t *testing.T, ms *store.MockStore) []models.Technology {
	t.Helper()
	data, err := ms.Get(context.Background(), catalog.ManualKey)
	require.NoError(t, err)
	var out []models.Technology
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func three() []models.Technology {
	return []models.Technology{
		{ID: 1, Title: "Go", Description: "language", Status: models.StatusNotStarted, Category: "backend"},
		{ID: 5, Title: "Rust", Description: "language", Status: models.StatusInProgress, Notes: "ownership", Category: "backend"},
		{ID: 3, Title: "React", Description: "library", Status: models.StatusCompleted, Category: "frontend"},
	}
}

// failingStore fails every Put with err while reads go to the inner store.
type failingStore struct {
	*store.MockStore
	err error
}

func (f *failingStore) Put(_ context.Context, _ string, _ []byte) error {
	return f.err
}

// fakeSource returns canned records and counts calls.
type fakeSource struct {
	records []models.Technology
	err     error
	calls   atomic.Int32
	gate    chan struct{}
}

func (f *fakeSource) Fetch(ctx context.Context, _ string) ([]models.Technology, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.records, f.err
}

func TestLoad_FallsBackToSeed(t *testing.T) {
	ms := store.NewMockStore()
	c := catalog.New(ms, catalog.ManualKey, catalog.DefaultSeed(), quietLogger())

	got := c.Load(context.Background())
	assert.Equal(t, catalog.DefaultSeed(), got)
	assert.False(t, c.Loaded())
	assert.Equal(t, 0, ms.Puts(), "load must not write")
}

func TestLoad_MalformedFallsBackToSeed(t *testing.T) {
	for _, payload := range []string{`{not json`, `{"id":1}`, `null`} {
		ms := store.NewMockStore()
		require.NoError(t, ms.Put(context.Background(), catalog.ManualKey, []byte(payload)))
		c := catalog.New(ms, catalog.ManualKey, catalog.DefaultSeed(), quietLogger())

		got := c.Load(context.Background())
		assert.Equal(t, catalog.DefaultSeed(), got, "payload %s", payload)
		assert.False(t, c.Loaded())
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	ms := store.NewMockStore()
	payload := `[{"id":1,"title":"Go","description":"d"},{"id":2,"title":"Zig","description":"d","status":"paused","category":"systems"},{"id":1,"title":"dup","description":"d"}]`
	require.NoError(t, ms.Put(context.Background(), catalog.ManualKey, []byte(payload)))
	c := catalog.New(ms, catalog.ManualKey, catalog.DefaultSeed(), quietLogger())

	got := c.Load(context.Background())
	require.Len(t, got, 2)
	assert.True(t, c.Loaded())
	assert.Equal(t, models.StatusNotStarted, got[0].Status)
	assert.Equal(t, "", got[0].Notes)
	assert.Equal(t, models.DefaultCategory, got[0].Category)
	assert.Equal(t, models.StatusNotStarted, got[1].Status)
	assert.Equal(t, "systems", got[1].Category)
}

func TestReplaceAll_PersistsOnce(t *testing.T) {
	c, ms := newCatalog(t)
	before := ms.Puts()

	require.NoError(t, c.ReplaceAll(context.Background(), three()))
	assert.Equal(t, before+1, ms.Puts())
	assert.Equal(t, three(), c.Snapshot())
	assert.Equal(t, three(), persisted(t, ms))
}

func TestReplaceAll_Validation(t *testing.T) {
	tests := []struct {
		name    string
		records []models.Technology
		field   string
	}{
		{"missing id", []models.Technology{{Title: "a", Description: "b"}}, "id"},
		{"missing title", []models.Technology{{ID: 1, Description: "b"}}, "title"},
		{"bad status", []models.Technology{{ID: 1, Title: "a", Status: "paused"}}, "status"},
		{"duplicate id", []models.Technology{{ID: 1, Title: "a"}, {ID: 1, Title: "b"}}, "id"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, ms := newCatalog(t, three()...)
			puts := ms.Puts()

			err := c.ReplaceAll(context.Background(), tc.records)
			var ve *catalog.ValidationError
			require.True(t, errors.As(err, &ve), "want ValidationError, got %v", err)
			assert.Equal(t, tc.field, ve.Field)
			assert.Equal(t, three(), c.Snapshot(), "catalog must be unchanged")
			assert.Equal(t, puts, ms.Puts())
		})
	}
}

func TestSetStatus_ChangesOnlyTarget(t *testing.T) {
	c, ms := newCatalog(t, three()...)

	require.NoError(t, c.SetStatus(context.Background(), 5, models.StatusCompleted))

	want := three()
	want[1].Status = models.StatusCompleted
	assert.Equal(t, want, c.Snapshot())
	assert.Equal(t, want, persisted(t, ms))
}

func TestSetStatus_UnknownIDIsNoop(t *testing.T) {
	c, ms := newCatalog(t, three()...)
	puts := ms.Puts()

	require.NoError(t, c.SetStatus(context.Background(), 99, models.StatusCompleted))
	assert.Equal(t, three(), c.Snapshot())
	assert.Equal(t, puts, ms.Puts())
}

func TestSetStatus_InvalidStatus(t *testing.T) {
	c, _ := newCatalog(t, three()...)
	err := c.SetStatus(context.Background(), 1, models.Status("done"))
	var ve *catalog.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, three(), c.Snapshot())
}

func TestSetStatus_DoesNotAliasSnapshots(t *testing.T) {
	c, _ := newCatalog(t, three()...)
	snap := c.Snapshot()

	require.NoError(t, c.SetStatus(context.Background(), 1, models.StatusCompleted))
	assert.Equal(t, models.StatusNotStarted, snap[0].Status, "earlier snapshot must not change")
}

func TestSetNotes(t *testing.T) {
	c, ms := newCatalog(t, three()...)

	require.NoError(t, c.SetNotes(context.Background(), 1, "read the tour"))
	want := three()
	want[0].Notes = "read the tour"
	assert.Equal(t, want, c.Snapshot())
	assert.Equal(t, want, persisted(t, ms))

	require.NoError(t, c.SetNotes(context.Background(), 42, "ignored"))
	assert.Equal(t, want, c.Snapshot())
}

func TestUpdate(t *testing.T) {
	c, _ := newCatalog(t, three()...)
	title := "Go 1.25"
	status := models.StatusInProgress

	require.NoError(t, c.Update(context.Background(), 1, catalog.Patch{Title: &title, Status: &status}))
	got, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Go 1.25", got.Title)
	assert.Equal(t, models.StatusInProgress, got.Status)
	assert.Equal(t, "language", got.Description)

	empty := " "
	var ve *catalog.ValidationError
	assert.True(t, errors.As(c.Update(context.Background(), 1, catalog.Patch{Title: &empty}), &ve))
}

func TestCycle(t *testing.T) {
	c, _ := newCatalog(t, three()...)

	next, err := c.Cycle(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotStarted, next)

	_, err = c.Cycle(context.Background(), 77)
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
}

func TestBulkSetStatus(t *testing.T) {
	c, ms := newCatalog(t, three()...)

	n, err := c.BulkSetStatus(context.Background(), catalog.NotCompleted, models.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	snap := c.Snapshot()
	assert.Equal(t, models.StatusInProgress, snap[0].Status)
	assert.Equal(t, models.StatusInProgress, snap[1].Status)
	assert.Equal(t, models.StatusCompleted, snap[2].Status)

	n, err = c.MarkAllCompleted(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	for _, r := range persisted(t, ms) {
		assert.Equal(t, models.StatusCompleted, r.Status)
	}

	n, err = c.ResetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	for _, r := range c.Snapshot() {
		assert.Equal(t, models.StatusNotStarted, r.Status)
	}
}

func TestBulkSetStatus_NoMatchWritesNothing(t *testing.T) {
	c, ms := newCatalog(t, three()...)
	puts := ms.Puts()

	n, err := c.BulkSetStatus(context.Background(), catalog.WithStatus(models.StatusCompleted), models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = c.BulkSetStatus(context.Background(), func(models.Technology) bool { return false }, models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, puts+1, ms.Puts())
}

func TestAppend_AssignsNextID(t *testing.T) {
	c, ms := newCatalog(t, three()...)

	created, err := c.Append(context.Background(), models.Technology{Title: "X", Description: "Y", Status: models.StatusCompleted, Notes: "pre"})
	require.NoError(t, err)
	assert.Equal(t, int64(6), created.ID)
	assert.Equal(t, models.StatusNotStarted, created.Status)
	assert.Equal(t, "", created.Notes)
	assert.Equal(t, models.DefaultCategory, created.Category)
	assert.Equal(t, models.SourceManual, created.Source)
	assert.False(t, created.CreatedAt.IsZero())

	snap := c.Snapshot()
	require.Len(t, snap, 4)
	assert.Equal(t, created, snap[3])
	assert.Len(t, persisted(t, ms), 4)
}

func TestAppend_EmptyCatalogStartsAtOne(t *testing.T) {
	c, _ := newCatalog(t)
	require.NoError(t, c.Clear(context.Background()))

	created, err := c.Append(context.Background(), models.Technology{Title: "First", Description: "d"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
}

func TestAppend_RequiresTitle(t *testing.T) {
	c, _ := newCatalog(t, three()...)
	_, err := c.Append(context.Background(), models.Technology{Description: "no title"})
	var ve *catalog.ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Len(t, c.Snapshot(), 3)
}

func TestDelete(t *testing.T) {
	c, ms := newCatalog(t, three()...)

	require.NoError(t, c.Delete(context.Background(), 5))
	snap := c.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, int64(1), snap[0].ID)
	assert.Equal(t, int64(3), snap[1].ID)

	puts := ms.Puts()
	require.NoError(t, c.Delete(context.Background(), 5))
	assert.Equal(t, puts, ms.Puts())
}

func TestResetAndClear(t *testing.T) {
	c, ms := newCatalog(t, three()...)

	require.NoError(t, c.Clear(context.Background()))
	assert.Empty(t, c.Snapshot())
	assert.Empty(t, persisted(t, ms))

	require.NoError(t, c.Reset(context.Background()))
	assert.Equal(t, catalog.DefaultSeed(), c.Snapshot())
}

type fixedRand struct{}

func (fixedRand) IntN(int) int { return 0 }

func TestPickRandom(t *testing.T) {
	c, _ := newCatalog(t, three()...)

	picked, ok, err := c.PickRandom(context.Background(), fixedRand{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), picked.ID)
	assert.Equal(t, models.StatusInProgress, picked.Status)

	got, _ := c.Get(1)
	assert.Equal(t, models.StatusInProgress, got.Status)
}

func TestPickRandom_AllCompleted(t *testing.T) {
	c, ms := newCatalog(t, three()...)
	_, err := c.MarkAllCompleted(context.Background())
	require.NoError(t, err)
	puts := ms.Puts()

	_, ok, err := c.PickRandom(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, puts, ms.Puts())
}

func TestSubscribe(t *testing.T) {
	c, _ := newCatalog(t, three()...)

	var got [][]models.Technology
	unsubscribe := c.Subscribe(func(snap []models.Technology) {
		got = append(got, snap)
	})

	require.NoError(t, c.SetStatus(context.Background(), 1, models.StatusCompleted))
	require.NoError(t, c.SetStatus(context.Background(), 99, models.StatusCompleted))
	require.Len(t, got, 1, "no-op must not publish")
	assert.Equal(t, models.StatusCompleted, got[0][0].Status)

	unsubscribe()
	require.NoError(t, c.Delete(context.Background(), 1))
	assert.Len(t, got, 1)
}

func TestSubscribe_DeliversInMutationOrder(t *testing.T) {
	c, _ := newCatalog(t)

	var (
		mu   sync.Mutex
		last int
	)
	c.Subscribe(func(snap []models.Technology) {
		mu.Lock()
		last = len(snap)
		mu.Unlock()
	})

	const writers = 16
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Append(context.Background(), models.Technology{Title: fmt.Sprintf("T%d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, len(c.Snapshot()), last, "last delivery must be the newest snapshot")
}

func TestSubscriber_CanReadCatalog(t *testing.T) {
	c, _ := newCatalog(t, three()...)
	var lens []int
	c.Subscribe(func([]models.Technology) {
		lens = append(lens, len(c.Snapshot()))
	})
	require.NoError(t, c.Delete(context.Background(), 1))
	assert.Equal(t, []int{2}, lens)
}

func TestPersistFailure_KeepsMemory(t *testing.T) {
	fs := &failingStore{MockStore: store.NewMockStore(), err: errors.New("quota exceeded")}
	c := catalog.New(fs, catalog.ManualKey, three(), quietLogger())
	c.Load(context.Background())

	err := c.SetStatus(context.Background(), 1, models.StatusCompleted)
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrPersist))

	got, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, models.StatusCompleted, got.Status, "in-memory mutation is kept")

	created, err := c.Append(context.Background(), models.Technology{Title: "X"})
	assert.True(t, errors.Is(err, catalog.ErrPersist))
	assert.Equal(t, int64(6), created.ID)
}

func TestRefresh_ReplacesCatalog(t *testing.T) {
	c, ms := newCatalog(t, three()...)
	src := &fakeSource{records: []models.Technology{
		{ID: 1001, Title: "Vue", Description: "framework", Status: models.StatusCompleted, Notes: "stale", Category: "frontend", Source: models.SourceGitHub},
		{ID: 1002, Title: "Svelte", Description: "compiler", Category: "frontend", Source: models.SourceGitHub},
	}}

	got, err := c.Refresh(context.Background(), src, "javascript")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, r := range c.Snapshot() {
		assert.Equal(t, models.StatusNotStarted, r.Status)
		assert.Equal(t, "", r.Notes)
	}
	assert.Len(t, persisted(t, ms), 2)
}

func TestRefresh_FailureLeavesCatalog(t *testing.T) {
	c, _ := newCatalog(t, three()...)

	_, err := c.Refresh(context.Background(), &fakeSource{err: errors.New("rate limited")}, "go")
	require.Error(t, err)
	assert.Equal(t, three(), c.Snapshot())

	_, err = c.Refresh(context.Background(), &fakeSource{}, "go")
	assert.True(t, errors.Is(err, catalog.ErrEmptyResult))
	assert.Equal(t, three(), c.Snapshot())
}

func TestRefresh_CoalescesConcurrentCalls(t *testing.T) {
	c, _ := newCatalog(t, three()...)
	src := &fakeSource{
		records: []models.Technology{{ID: 10, Title: "Django", Description: "web"}},
		gate:    make(chan struct{}),
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Refresh(context.Background(), src, "python")
		}(i)
	}

	// Let both callers reach the in-flight fetch before releasing it.
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Len(t, c.Snapshot(), 1)
}

func TestRefresh_CanceledCallerDoesNotAbortSharedFetch(t *testing.T) {
	c, _ := newCatalog(t, three()...)
	src := &fakeSource{
		records: []models.Technology{{ID: 10, Title: "Django", Description: "web"}},
		gate:    make(chan struct{}),
	}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.Refresh(leaderCtx, src, "python")
		leaderErr <- err
	}()
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)

	followerDone := make(chan error, 1)
	go func() {
		_, err := c.Refresh(context.Background(), src, "Python")
		followerDone <- err
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)

	close(src.gate)
	require.NoError(t, <-followerDone)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, "Django", c.Snapshot()[0].Title)
}
