package models

import (
	"strings"
	"time"
)

// Status is the learning progress of a technology.
type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// ValidStatuses is the set of all valid statuses, in cycle order.
var ValidStatuses = []Status{
	StatusNotStarted,
	StatusInProgress,
	StatusCompleted,
}

// IsValid returns true if the status is recognized.
func (s Status) IsValid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// String returns the string representation of Status.
func (s Status) String() string {
	return string(s)
}

// Label returns the localized label used in exports and listings.
func (s Status) Label() string {
	switch s {
	case StatusNotStarted:
		return "Не начато"
	case StatusInProgress:
		return "В процессе"
	case StatusCompleted:
		return "Завершено"
	}
	return string(s)
}

// Source records where a technology came from.
type Source string

const (
	SourceManual Source = "manual"
	SourceGitHub Source = "github"
)

const (
	// DefaultCategory is applied to records that carry no category.
	DefaultCategory = "frontend"

	// OtherCategory groups languages outside the category table.
	OtherCategory = "other"

	// PlaceholderDescription replaces an empty description from an external source.
	PlaceholderDescription = "Описание отсутствует"
)

// Technology is one tracked topic in the catalog.
type Technology struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Notes       string    `json:"notes"`
	Category    string    `json:"category"`
	Language    string    `json:"language,omitempty"`
	Stars       int       `json:"stars,omitempty"`
	Forks       int       `json:"forks,omitempty"`
	URL         string    `json:"url,omitempty"`
	Owner       string    `json:"owner,omitempty"`
	Source      Source    `json:"source,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
}

// Normalize fills defaults a tolerant reader applies to persisted records.
// An unrecognized status is reset to not-started.
func (t Technology) Normalize() Technology {
	if !t.Status.IsValid() {
		t.Status = StatusNotStarted
	}
	if t.Category == "" {
		t.Category = DefaultCategory
	}
	if t.Stars < 0 {
		t.Stars = 0
	}
	return t
}

// Statistics aggregates the status counts of a catalog snapshot.
type Statistics struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"`
	NotStarted int `json:"notStarted"`
	Progress   int `json:"progress"`
}

// CategoryCount is the number of records carrying one category.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ResourceType classifies a learning resource.
type ResourceType string

const (
	ResourceGitHub        ResourceType = "github"
	ResourceDocumentation ResourceType = "documentation"
	ResourceCourse        ResourceType = "course"
	ResourceBook          ResourceType = "book"
)

// Resource is a learning resource suggested for a technology.
type Resource struct {
	Type        ResourceType `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	URL         string       `json:"url"`
	Stars       int          `json:"stars,omitempty"`
}

var languageCategories = map[string]string{
	"javascript": "frontend",
	"typescript": "frontend",
	"python":     "backend",
	"java":       "backend",
	"go":         "backend",
	"rust":       "backend",
	"cpp":        "systems",
	"csharp":     "backend",
}

// CategoryForLanguage maps a language tag to its catalog category.
func CategoryForLanguage(language string) string {
	if c, ok := languageCategories[strings.ToLower(language)]; ok {
		return c
	}
	return OtherCategory
}
