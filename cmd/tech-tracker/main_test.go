package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tech-tracker/internal/catalog"
	"github.com/ajitpratap0/tech-tracker/internal/config"
	"github.com/ajitpratap0/tech-tracker/internal/models"
	"github.com/ajitpratap0/tech-tracker/internal/store"
)

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "0", "-3", "1.5"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b", truncate("a\nb", 10))
	assert.Equal(t, "Изуче...", truncate("Изучение", 5))
}

func TestCatalogKey(t *testing.T) {
	prev := cfg
	t.Cleanup(func() { cfg = prev })
	cfg = &config.Config{Storage: config.StorageConfig{ManualKey: "m", APIKey: "a"}}

	assert.Equal(t, "m", catalogKey(catalogManual))
	assert.Equal(t, "a", catalogKey(catalogAPI))
}

const goSearchBody = `{
  "total_count": 1,
  "items": [
    {"id": 20904437, "name": "gin", "full_name": "gin-gonic/gin", "description": "HTTP web framework", "language": "Go",
     "stargazers_count": 80000, "forks_count": 8000, "html_url": "https://github.com/gin-gonic/gin", "owner": {"login": "gin-gonic"}}
  ]
}`

// runCLI executes the root command with args against the environment set up
// by the caller.
func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	prevCfg, prevName := cfg, catalogName
	t.Cleanup(func() { cfg, catalogName = prevCfg, prevName })

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}

func readCatalog(t *testing.T, path, key string) []models.Technology {
	t.Helper()
	st, err := store.NewSQLiteStore(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	raw, err := st.Get(context.Background(), key)
	require.NoError(t, err)
	var records []models.Technology
	require.NoError(t, json.Unmarshal(raw, &records))
	return records
}

func TestFetchCommand_LeavesManualCatalogAlone(t *testing.T) {
	gh := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/repositories", r.URL.Path)
		assert.Equal(t, "language:go", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, goSearchBody)
	}))
	t.Cleanup(gh.Close)

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "tracker.db")
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("TECH_TRACKER_STORAGE_PATH", dbPath)
	t.Setenv("TECH_TRACKER_GITHUB_BASE_URL", gh.URL)
	t.Setenv("TECH_TRACKER_LOGGING_LEVEL", "error")

	require.NoError(t, runCLI(t, "notes", "1", "read", "the", "docs"))
	require.NoError(t, runCLI(t, "status", "1", "in-progress"))
	require.NoError(t, runCLI(t, "fetch", "go"))

	manual := readCatalog(t, dbPath, catalog.ManualKey)
	require.Len(t, manual, len(catalog.DefaultSeed()))
	assert.Equal(t, "read the docs", manual[0].Notes)
	assert.Equal(t, models.StatusInProgress, manual[0].Status)

	fetched := readCatalog(t, dbPath, catalog.APIKey)
	require.Len(t, fetched, 1)
	assert.Equal(t, "Gin", fetched[0].Title)
	assert.Equal(t, models.SourceGitHub, fetched[0].Source)
	assert.Equal(t, models.StatusNotStarted, fetched[0].Status)

	// Served under --catalog api, the fetched record is visible and editable.
	require.NoError(t, runCLI(t, "--catalog", "api", "status", "20904437", "completed"))
	assert.Equal(t, models.StatusCompleted, readCatalog(t, dbPath, catalog.APIKey)[0].Status)
	assert.Equal(t, "read the docs", readCatalog(t, dbPath, catalog.ManualKey)[0].Notes)
}

func TestRootCmd_RejectsUnknownCatalog(t *testing.T) {
	err := runCLI(t, "--catalog", "remote", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --catalog")
}
