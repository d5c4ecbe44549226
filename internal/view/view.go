// Package view computes derived projections of a catalog snapshot:
// filtered subsets, search matches, statistics and random picks.
// Every function is pure; inputs are never modified.
package view

import (
	"math"
	"math/rand/v2"
	"strings"

	"github.com/ajitpratap0/tech-tracker/internal/models"
)

// FilterAll is the filter value that selects every record.
const FilterAll = "all"

// Rand is the random source used by PickRandomEligible.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// FilterByStatus returns the records whose status equals filter, in order.
// The "all" filter returns records unchanged.
func FilterByStatus(records []models.Technology, filter string) []models.Technology {
	if filter == FilterAll {
		return records
	}
	return keepIf(records, func(t *models.Technology) bool {
		return string(t.Status) == filter
	})
}

// FilterByCategory returns the records in category, in order.
func FilterByCategory(records []models.Technology, category string) []models.Technology {
	if category == FilterAll {
		return records
	}
	return keepIf(records, func(t *models.Technology) bool {
		return t.Category == category
	})
}

// FilterByLanguage returns the records whose language equals language.
func FilterByLanguage(records []models.Technology, language string) []models.Technology {
	if language == FilterAll {
		return records
	}
	return keepIf(records, func(t *models.Technology) bool {
		return strings.EqualFold(t.Language, language)
	})
}

// Search returns records whose title, description or language contain query,
// ignoring case. An empty query matches everything.
func Search(records []models.Technology, query string) []models.Technology {
	if query == "" {
		return records
	}
	q := strings.ToLower(query)
	return keepIf(records, func(t *models.Technology) bool {
		return strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Description), q) ||
			(t.Language != "" && strings.Contains(strings.ToLower(t.Language), q))
	})
}

// ComputeStatistics counts records per status. Progress is the rounded
// completed percentage, and 0 for an empty catalog.
func ComputeStatistics(records []models.Technology) models.Statistics {
	stats := models.Statistics{Total: len(records)}
	for i := range records {
		switch records[i].Status {
		case models.StatusCompleted:
			stats.Completed++
		case models.StatusInProgress:
			stats.InProgress++
		case models.StatusNotStarted:
			stats.NotStarted++
		}
	}
	if stats.Total > 0 {
		stats.Progress = int(math.Round(100 * float64(stats.Completed) / float64(stats.Total)))
	}
	return stats
}

// CategoryBreakdown counts records per category in first-seen order.
// Records without a category count as the default category.
func CategoryBreakdown(records []models.Technology) []models.CategoryCount {
	var out []models.CategoryCount
	index := make(map[string]int)
	for i := range records {
		name := records[i].Category
		if name == "" {
			name = models.DefaultCategory
		}
		if j, ok := index[name]; ok {
			out[j].Count++
			continue
		}
		index[name] = len(out)
		out = append(out, models.CategoryCount{Name: name, Count: 1})
	}
	return out
}

// Categories lists distinct categories in first-seen order.
func Categories(records []models.Technology) []string {
	return distinct(records, func(t *models.Technology) string {
		if t.Category == "" {
			return models.OtherCategory
		}
		return t.Category
	})
}

// Languages lists distinct non-empty languages in first-seen order.
func Languages(records []models.Technology) []string {
	return distinct(records, func(t *models.Technology) string { return t.Language })
}

// PickRandomEligible picks uniformly among not-started records, falling back
// to any record that is not completed. It reports false when every record is
// completed or the catalog is empty. A nil rng uses the global source.
func PickRandomEligible(records []models.Technology, rng Rand) (models.Technology, bool) {
	pool := FilterByStatus(records, string(models.StatusNotStarted))
	if len(pool) == 0 {
		pool = keepIf(records, func(t *models.Technology) bool {
			return t.Status != models.StatusCompleted
		})
	}
	if len(pool) == 0 {
		return models.Technology{}, false
	}
	var n int
	if rng == nil {
		n = rand.IntN(len(pool))
	} else {
		n = rng.IntN(len(pool))
	}
	return pool[n], true
}

// CycleStatus returns the next status in the fixed order
// not-started → in-progress → completed → not-started.
func CycleStatus(current models.Status) models.Status {
	switch current {
	case models.StatusNotStarted:
		return models.StatusInProgress
	case models.StatusInProgress:
		return models.StatusCompleted
	default:
		return models.StatusNotStarted
	}
}

func keepIf(records []models.Technology, keep func(*models.Technology) bool) []models.Technology {
	out := make([]models.Technology, 0, len(records))
	for i := range records {
		if keep(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}

func distinct(records []models.Technology, key func(*models.Technology) string) []string {
	var out []string
	seen := make(map[string]struct{})
	for i := range records {
		k := key(&records[i])
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
