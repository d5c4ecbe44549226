// Package catalog owns the authoritative, ordered list of technologies for
// one storage key and keeps it synchronized with the key-value store.
//
// Every successful mutation writes the full snapshot once and then publishes
// it to subscribers. Records are never modified in place: a mutation builds a
// new slice carrying copies of the changed records.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ajitpratap0/tech-tracker/internal/metrics"
	"github.com/ajitpratap0/tech-tracker/internal/models"
	"github.com/ajitpratap0/tech-tracker/internal/store"
	"github.com/ajitpratap0/tech-tracker/internal/view"
)

const (
	// ManualKey holds the hand-maintained catalog.
	ManualKey = "techTrackerData"

	// APIKey holds the catalog populated from the external source.
	APIKey = "apiTechnologies"
)

// Source is an external catalog source, such as repository search.
// Fetch returns candidates ranked by the source's popularity metric.
type Source interface {
	Fetch(ctx context.Context, language string) ([]models.Technology, error)
}

// Predicate selects records for bulk operations.
type Predicate func(models.Technology) bool

// All matches every record.
func All(models.Technology) bool { return true }

// NotCompleted matches records that are not completed.
func NotCompleted(t models.Technology) bool { return t.Status != models.StatusCompleted }

// WithStatus matches records in status s.
func WithStatus(s models.Status) Predicate {
	return func(t models.Technology) bool { return t.Status == s }
}

// Patch carries optional field updates for Update. Nil fields are left alone.
type Patch struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Category    *string        `json:"category,omitempty"`
	Status      *models.Status `json:"status,omitempty"`
	Notes       *string        `json:"notes,omitempty"`
}

// Catalog is the store object shared by every front end.
type Catalog struct {
	mu      sync.Mutex
	kv      store.Store
	key     string
	seed    []models.Technology
	records []models.Technology
	loaded  bool

	// pubMu orders deliveries; it is taken before mu is released.
	pubMu   sync.Mutex
	subMu   sync.Mutex
	subs    map[int]func([]models.Technology)
	nextSub int

	fetches singleflight.Group
	now     func() time.Time
	logger  *slog.Logger
}

// New creates a catalog persisted under key. seed is used when nothing is
// stored yet; it is copied.
func New(kv store.Store, key string, seed []models.Technology, logger *slog.Logger) *Catalog {
	return &Catalog{
		kv:     kv,
		key:    key,
		seed:   slices.Clone(seed),
		subs:   make(map[int]func([]models.Technology)),
		now:    time.Now,
		logger: logger.With("catalog", key),
	}
}

// Key returns the storage key of the catalog.
func (c *Catalog) Key() string { return c.key }

// Load reads the persisted snapshot. Missing or malformed data falls back to
// the seed list; read and parse failures are logged, never returned.
func (c *Catalog) Load(ctx context.Context) []models.Technology {
	records, ok := c.read(ctx)

	c.mu.Lock()
	c.loaded = ok
	if ok {
		c.records = records
	} else {
		c.records = slices.Clone(c.seed)
	}
	out := slices.Clone(c.records)
	c.mu.Unlock()

	c.logger.Debug("catalog loaded", "persisted", ok, "count", len(out))
	return out
}

// Loaded reports whether the last Load found persisted data.
func (c *Catalog) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

func (c *Catalog) read(ctx context.Context) ([]models.Technology, bool) {
	data, err := c.kv.Get(ctx, c.key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.logger.Warn("reading persisted catalog failed, using defaults", "error", err)
		}
		return nil, false
	}

	var raw []models.Technology
	if err := json.Unmarshal(data, &raw); err != nil {
		c.logger.Warn("persisted catalog is malformed, using defaults", "error", err)
		return nil, false
	}
	if raw == nil {
		c.logger.Warn("persisted catalog is not an array, using defaults")
		return nil, false
	}

	records := make([]models.Technology, 0, len(raw))
	seen := make(map[int64]struct{}, len(raw))
	for i := range raw {
		if _, dup := seen[raw[i].ID]; dup {
			c.logger.Warn("dropping duplicate persisted technology", "id", raw[i].ID)
			continue
		}
		seen[raw[i].ID] = struct{}{}
		records = append(records, raw[i].Normalize())
	}
	return records, true
}

// Snapshot returns a copy of the current records.
func (c *Catalog) Snapshot() []models.Technology {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.records)
}

// Get returns the record with id.
func (c *Catalog) Get(id int64) (models.Technology, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := indexOf(c.records, id); i >= 0 {
		return c.records[i], true
	}
	return models.Technology{}, false
}

// Subscribe registers fn to receive the snapshot after every successful
// mutation. Calls are synchronous, happen before the mutating call returns
// and arrive in mutation order. fn must not mutate the catalog itself.
// The returned func removes the subscription.
func (c *Catalog) Subscribe(fn func([]models.Technology)) func() {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

// ReplaceAll validates records and replaces the whole catalog with them.
// Every record needs a non-zero id, a title and a known (or empty) status,
// and ids must be unique. On failure the catalog is unchanged.
func (c *Catalog) ReplaceAll(ctx context.Context, records []models.Technology) error {
	next, err := validateAll(records)
	if err != nil {
		return err
	}
	return c.mutate(ctx, "replace_all", func([]models.Technology) ([]models.Technology, bool, error) {
		return next, true, nil
	})
}

// Reset replaces the catalog with the seed list.
func (c *Catalog) Reset(ctx context.Context) error {
	return c.mutate(ctx, "reset", func([]models.Technology) ([]models.Technology, bool, error) {
		return slices.Clone(c.seed), true, nil
	})
}

// Clear empties the catalog.
func (c *Catalog) Clear(ctx context.Context) error {
	return c.mutate(ctx, "clear", func([]models.Technology) ([]models.Technology, bool, error) {
		return []models.Technology{}, true, nil
	})
}

// SetStatus changes the status of one record. An unknown id is a no-op.
func (c *Catalog) SetStatus(ctx context.Context, id int64, status models.Status) error {
	if !status.IsValid() {
		return invalid(-1, "status", fmt.Sprintf("%q is not one of %s", status, statusList()))
	}
	return c.updateOne(ctx, "set_status", id, func(t *models.Technology) {
		t.Status = status
	})
}

// SetNotes replaces the notes of one record. An unknown id is a no-op.
func (c *Catalog) SetNotes(ctx context.Context, id int64, notes string) error {
	return c.updateOne(ctx, "set_notes", id, func(t *models.Technology) {
		t.Notes = notes
	})
}

// Cycle advances one record to the next status and returns the new status.
// It returns ErrNotFound for an unknown id.
func (c *Catalog) Cycle(ctx context.Context, id int64) (models.Status, error) {
	var next models.Status
	err := c.mutate(ctx, "cycle_status", func(cur []models.Technology) ([]models.Technology, bool, error) {
		i := indexOf(cur, id)
		if i < 0 {
			return nil, false, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		out := slices.Clone(cur)
		next = view.CycleStatus(out[i].Status)
		out[i].Status = next
		return out, true, nil
	})
	return next, err
}

// Update applies the non-nil fields of p to one record. An unknown id is a
// no-op. An empty title or invalid status is rejected.
func (c *Catalog) Update(ctx context.Context, id int64, p Patch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return invalid(-1, "title", "must not be empty")
	}
	if p.Status != nil && !p.Status.IsValid() {
		return invalid(-1, "status", fmt.Sprintf("%q is not one of %s", *p.Status, statusList()))
	}
	return c.updateOne(ctx, "update", id, func(t *models.Technology) {
		if p.Title != nil {
			t.Title = *p.Title
		}
		if p.Description != nil {
			t.Description = *p.Description
		}
		if p.Category != nil {
			t.Category = *p.Category
		}
		if p.Status != nil {
			t.Status = *p.Status
		}
		if p.Notes != nil {
			t.Notes = *p.Notes
		}
	})
}

// BulkSetStatus sets status on every record matching match and returns how
// many records matched.
func (c *Catalog) BulkSetStatus(ctx context.Context, match Predicate, status models.Status) (int, error) {
	if !status.IsValid() {
		return 0, invalid(-1, "status", fmt.Sprintf("%q is not one of %s", status, statusList()))
	}
	var n int
	err := c.mutate(ctx, "bulk_set_status", func(cur []models.Technology) ([]models.Technology, bool, error) {
		out := slices.Clone(cur)
		for i := range out {
			if match(out[i]) {
				out[i].Status = status
				n++
			}
		}
		return out, n > 0, nil
	})
	return n, err
}

// MarkAllCompleted sets every record to completed.
func (c *Catalog) MarkAllCompleted(ctx context.Context) (int, error) {
	return c.BulkSetStatus(ctx, All, models.StatusCompleted)
}

// ResetAll sets every record back to not-started.
func (c *Catalog) ResetAll(ctx context.Context) (int, error) {
	return c.BulkSetStatus(ctx, All, models.StatusNotStarted)
}

// Append adds a manual record. The id is one past the largest existing id;
// status is forced to not-started and notes to empty.
func (c *Catalog) Append(ctx context.Context, partial models.Technology) (models.Technology, error) {
	if strings.TrimSpace(partial.Title) == "" {
		return models.Technology{}, invalid(-1, "title", "must not be empty")
	}

	var created models.Technology
	err := c.mutate(ctx, "append", func(cur []models.Technology) ([]models.Technology, bool, error) {
		t := partial
		t.ID = nextID(cur)
		t.Status = models.StatusNotStarted
		t.Notes = ""
		if t.Category == "" {
			t.Category = models.DefaultCategory
		}
		if t.Source == "" {
			t.Source = models.SourceManual
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = c.now().UTC()
		}
		created = t

		out := make([]models.Technology, 0, len(cur)+1)
		out = append(out, cur...)
		return append(out, t), true, nil
	})
	if err != nil && !errors.Is(err, ErrPersist) {
		return models.Technology{}, err
	}
	return created, err
}

// Delete removes the record with id. An unknown id is a no-op.
func (c *Catalog) Delete(ctx context.Context, id int64) error {
	return c.mutate(ctx, "delete", func(cur []models.Technology) ([]models.Technology, bool, error) {
		i := indexOf(cur, id)
		if i < 0 {
			c.logger.Debug("delete: unknown id", "id", id)
			return nil, false, nil
		}
		return slices.Delete(slices.Clone(cur), i, i+1), true, nil
	})
}

// PickRandom chooses an eligible record (see view.PickRandomEligible) and
// marks it in progress. It reports false when every record is completed.
func (c *Catalog) PickRandom(ctx context.Context, rng view.Rand) (models.Technology, bool, error) {
	var picked models.Technology
	var ok bool
	err := c.mutate(ctx, "pick_random", func(cur []models.Technology) ([]models.Technology, bool, error) {
		picked, ok = view.PickRandomEligible(cur, rng)
		if !ok {
			return nil, false, nil
		}
		out := slices.Clone(cur)
		i := indexOf(out, picked.ID)
		out[i].Status = models.StatusInProgress
		picked = out[i]
		return out, true, nil
	})
	if err != nil && !errors.Is(err, ErrPersist) {
		return models.Technology{}, false, err
	}
	return picked, ok, err
}

// Refresh fetches candidates for language from src and replaces the whole
// catalog with them. Arriving records always start not-started with empty
// notes. Concurrent refreshes for the same language share one fetch, which
// is detached from any single caller's cancellation; a caller whose ctx ends
// stops waiting without aborting the fetch for the others.
// On any fetch failure the catalog is unchanged.
func (c *Catalog) Refresh(ctx context.Context, src Source, language string) ([]models.Technology, error) {
	ch := c.fetches.DoChan(strings.ToLower(language), func() (any, error) {
		return c.refresh(context.WithoutCancel(ctx), src, language)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("refresh: %w", ctx.Err())
	case res := <-ch:
		if res.Shared {
			c.logger.Debug("refresh shared an in-flight fetch", "language", language)
		}
		records, _ := res.Val.([]models.Technology)
		return slices.Clone(records), res.Err
	}
}

func (c *Catalog) refresh(ctx context.Context, src Source, language string) ([]models.Technology, error) {
	fetched, err := src.Fetch(ctx, language)
	if err != nil {
		metrics.Fetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if len(fetched) == 0 {
		metrics.Fetches.WithLabelValues("empty").Inc()
		return nil, fmt.Errorf("refresh: %w", ErrEmptyResult)
	}
	fresh := make([]models.Technology, len(fetched))
	for i := range fetched {
		t := fetched[i]
		t.Status = models.StatusNotStarted
		t.Notes = ""
		fresh[i] = t
	}
	if err := c.ReplaceAll(ctx, fresh); err != nil {
		if !errors.Is(err, ErrPersist) {
			metrics.Fetches.WithLabelValues("invalid").Inc()
			return nil, fmt.Errorf("refresh: %w", err)
		}
		metrics.Fetches.WithLabelValues("ok").Inc()
		return fresh, err
	}
	metrics.Fetches.WithLabelValues("ok").Inc()
	return fresh, nil
}

// updateOne replaces the record with id by a copy changed by fn.
// A missing id is logged and ignored.
func (c *Catalog) updateOne(ctx context.Context, op string, id int64, fn func(*models.Technology)) error {
	return c.mutate(ctx, op, func(cur []models.Technology) ([]models.Technology, bool, error) {
		i := indexOf(cur, id)
		if i < 0 {
			c.logger.Debug(op+": unknown id", "id", id)
			return nil, false, nil
		}
		out := slices.Clone(cur)
		fn(&out[i])
		return out, true, nil
	})
}

// mutate computes the next snapshot with fn, installs it, persists it once
// and notifies subscribers. When fn reports no change nothing is written.
// A persistence failure keeps the new snapshot and returns ErrPersist.
func (c *Catalog) mutate(ctx context.Context, op string, fn func([]models.Technology) ([]models.Technology, bool, error)) error {
	c.mu.Lock()
	next, changed, err := fn(c.records)
	if err != nil || !changed {
		c.mu.Unlock()
		return err
	}
	c.records = next
	persistErr := c.persistLocked(ctx)
	snapshot := slices.Clone(next)
	c.pubMu.Lock()
	c.mu.Unlock()

	metrics.Mutations.WithLabelValues(c.key, op).Inc()
	c.publish(snapshot)
	c.pubMu.Unlock()

	if persistErr != nil {
		return fmt.Errorf("%s: %w", op, persistErr)
	}
	return nil
}

func (c *Catalog) persistLocked(ctx context.Context) error {
	records := c.records
	if records == nil {
		records = []models.Technology{}
	}
	data, err := json.Marshal(records)
	if err == nil {
		err = c.kv.Put(ctx, c.key, data)
	}
	if err != nil {
		metrics.PersistFailures.WithLabelValues(c.key).Inc()
		c.logger.Error("persisting catalog failed; memory and storage have diverged", "error", err)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	c.loaded = true
	return nil
}

func (c *Catalog) publish(snapshot []models.Technology) {
	c.subMu.Lock()
	fns := make([]func([]models.Technology), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(slices.Clone(snapshot))
	}
}

func validateAll(records []models.Technology) ([]models.Technology, error) {
	out := make([]models.Technology, len(records))
	seen := make(map[int64]struct{}, len(records))
	for i := range records {
		t := records[i]
		if t.ID == 0 {
			return nil, invalid(i, "id", "is required")
		}
		if strings.TrimSpace(t.Title) == "" {
			return nil, invalid(i, "title", "is required")
		}
		if t.Status != "" && !t.Status.IsValid() {
			return nil, invalid(i, "status", fmt.Sprintf("%q is not one of %s", t.Status, statusList()))
		}
		if _, dup := seen[t.ID]; dup {
			return nil, invalid(i, "id", fmt.Sprintf("%d is duplicated", t.ID))
		}
		seen[t.ID] = struct{}{}
		out[i] = t.Normalize()
	}
	return out, nil
}

func indexOf(records []models.Technology, id int64) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}

func nextID(records []models.Technology) int64 {
	var maxID int64
	for i := range records {
		if records[i].ID > maxID {
			maxID = records[i].ID
		}
	}
	return maxID + 1
}

func statusList() string {
	names := make([]string, len(models.ValidStatuses))
	for i, s := range models.ValidStatuses {
		names[i] = string(s)
	}
	return strings.Join(names, "|")
}
