package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_IsValid(t *testing.T) {
	for _, s := range ValidStatuses {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, Status("done").IsValid())
	assert.False(t, Status("").IsValid())
}

func TestStatus_Label(t *testing.T) {
	assert.Equal(t, "Завершено", StatusCompleted.Label())
	assert.Equal(t, "weird", Status("weird").Label())
}

func TestTechnology_Normalize(t *testing.T) {
	got := Technology{ID: 1, Title: "X", Status: "bogus", Stars: -4}.Normalize()
	assert.Equal(t, StatusNotStarted, got.Status)
	assert.Equal(t, DefaultCategory, got.Category)
	assert.Equal(t, 0, got.Stars)

	kept := Technology{ID: 2, Title: "Y", Status: StatusCompleted, Category: "backend"}.Normalize()
	assert.Equal(t, StatusCompleted, kept.Status)
	assert.Equal(t, "backend", kept.Category)
}

func TestTechnology_JSON(t *testing.T) {
	b, err := json.Marshal(Technology{ID: 3, Title: "Go", Status: StatusInProgress, Category: "backend"})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "", raw["notes"], "notes is always present")
	assert.Equal(t, "in-progress", raw["status"])
	assert.NotContains(t, raw, "updatedAt")
	assert.NotContains(t, raw, "stars")

	b, err = json.Marshal(Technology{ID: 4, UpdatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"updatedAt":"2026-01-02T00:00:00Z"`)
}

func TestCategoryForLanguage(t *testing.T) {
	assert.Equal(t, "frontend", CategoryForLanguage("TypeScript"))
	assert.Equal(t, "backend", CategoryForLanguage("go"))
	assert.Equal(t, "systems", CategoryForLanguage("cpp"))
	assert.Equal(t, OtherCategory, CategoryForLanguage("cobol"))
}
