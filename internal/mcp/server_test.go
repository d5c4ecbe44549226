package mcp_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tech-tracker/internal/catalog"
	trackermcp "github.com/ajitpratap0/tech-tracker/internal/mcp"
	"github.com/ajitpratap0/tech-tracker/internal/models"
	"github.com/ajitpratap0/tech-tracker/internal/store"
)

// newMCPServer returns a Server over a seeded catalog backed by a MockStore.
func newMCPServer(t *testing.T) (*trackermcp.Server, *catalog.Catalog, *store.MockStore) {
	t.Helper()
	ms := store.NewMockStore()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	cat := catalog.New(ms, catalog.ManualKey, catalog.DefaultSeed(), logger)
	cat.Load(context.Background())
	return trackermcp.NewServer(cat, "test", logger), cat, ms
}

// makeReq builds a CallToolRequest with the given string/number/bool arguments.
func makeReq(toolName string, args map[string]any) mcpgo.CallToolRequest {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = args
	return req
}

// textContent extracts the first TextContent string from a CallToolResult.
func textContent(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected at least one content item")
	tc, ok := result.Content[0].(mcpgo.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

func decode[T any](t *testing.T, result *mcpgo.CallToolResult) T {
	t.Helper()
	require.False(t, result.IsError, "tool returned error: %s", textContent(t, result))
	var v T
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &v))
	return v
}

type listOut struct {
	Technologies []models.Technology `json:"technologies"`
	Count        int                 `json:"count"`
}

func TestMCPList(t *testing.T) {
	srv, cat, _ := newMCPServer(t)
	ctx := context.Background()
	require.NoError(t, cat.SetStatus(ctx, 4, models.StatusInProgress))

	result, err := srv.HandleList(ctx, makeReq("list", nil))
	require.NoError(t, err)
	assert.Equal(t, 8, decode[listOut](t, result).Count)

	result, err = srv.HandleList(ctx, makeReq("list", map[string]any{"status": "in-progress"}))
	require.NoError(t, err)
	out := decode[listOut](t, result)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, int64(4), out.Technologies[0].ID)

	result, err = srv.HandleList(ctx, makeReq("list", map[string]any{"status": "finished"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestMCPSearch(t *testing.T) {
	srv, _, _ := newMCPServer(t)
	ctx := context.Background()

	result, err := srv.HandleSearch(ctx, makeReq("search", map[string]any{"query": "router"}))
	require.NoError(t, err)
	out := decode[struct {
		Results []models.Technology `json:"results"`
		Count   int                 `json:"count"`
	}](t, result)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "React Router", out.Results[0].Title)

	result, err = srv.HandleSearch(ctx, makeReq("search", map[string]any{"query": "   "}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestMCPStats(t *testing.T) {
	srv, cat, _ := newMCPServer(t)
	ctx := context.Background()
	for _, id := range []int64{1, 2, 3, 4} {
		require.NoError(t, cat.SetStatus(ctx, id, models.StatusCompleted))
	}

	result, err := srv.HandleStats(ctx, makeReq("stats", nil))
	require.NoError(t, err)
	out := decode[struct {
		Statistics models.Statistics `json:"statistics"`
	}](t, result)
	assert.Equal(t, models.Statistics{Total: 8, Completed: 4, NotStarted: 4, Progress: 50}, out.Statistics)
}

func TestMCPSetStatus(t *testing.T) {
	srv, cat, ms := newMCPServer(t)
	ctx := context.Background()

	result, err := srv.HandleSetStatus(ctx, makeReq("set_status", map[string]any{"id": float64(3), "status": "completed"}))
	require.NoError(t, err)
	assert.True(t, decode[map[string]any](t, result)["updated"].(bool))
	got, _ := cat.Get(3)
	assert.Equal(t, models.StatusCompleted, got.Status)

	puts := ms.Puts()
	result, err = srv.HandleSetStatus(ctx, makeReq("set_status", map[string]any{"id": float64(99), "status": "completed"}))
	require.NoError(t, err)
	assert.False(t, decode[map[string]any](t, result)["updated"].(bool))
	assert.Equal(t, puts, ms.Puts())

	result, err = srv.HandleSetStatus(ctx, makeReq("set_status", map[string]any{"id": float64(3), "status": "done"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = srv.HandleSetStatus(ctx, makeReq("set_status", map[string]any{"status": "done"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestMCPCycleStatus(t *testing.T) {
	srv, _, _ := newMCPServer(t)
	ctx := context.Background()

	result, err := srv.HandleCycleStatus(ctx, makeReq("cycle_status", map[string]any{"id": float64(1)}))
	require.NoError(t, err)
	assert.Equal(t, "in-progress", decode[map[string]any](t, result)["status"])

	result, err = srv.HandleCycleStatus(ctx, makeReq("cycle_status", map[string]any{"id": float64(77)}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textContent(t, result), "not found")
}

func TestMCPSetNotes(t *testing.T) {
	srv, cat, _ := newMCPServer(t)
	ctx := context.Background()

	result, err := srv.HandleSetNotes(ctx, makeReq("set_notes", map[string]any{"id": float64(5), "notes": "watch the talk"}))
	require.NoError(t, err)
	assert.True(t, decode[map[string]any](t, result)["updated"].(bool))
	got, _ := cat.Get(5)
	assert.Equal(t, "watch the talk", got.Notes)
}

func TestMCPAddAndDelete(t *testing.T) {
	srv, cat, _ := newMCPServer(t)
	ctx := context.Background()

	result, err := srv.HandleAdd(ctx, makeReq("add", map[string]any{"title": "Zustand", "category": "state"}))
	require.NoError(t, err)
	created := decode[models.Technology](t, result)
	assert.Equal(t, int64(9), created.ID)
	assert.Equal(t, models.StatusNotStarted, created.Status)
	assert.Equal(t, "state", created.Category)
	assert.Equal(t, models.SourceManual, created.Source)

	result, err = srv.HandleAdd(ctx, makeReq("add", map[string]any{"title": ""}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = srv.HandleDelete(ctx, makeReq("delete", map[string]any{"id": float64(9)}))
	require.NoError(t, err)
	assert.True(t, decode[map[string]bool](t, result)["deleted"])
	assert.Len(t, cat.Snapshot(), 8)

	result, err = srv.HandleDelete(ctx, makeReq("delete", map[string]any{"id": float64(9)}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestMCPRandomPick(t *testing.T) {
	srv, cat, _ := newMCPServer(t)
	ctx := context.Background()

	result, err := srv.HandleRandomPick(ctx, makeReq("random_pick", nil))
	require.NoError(t, err)
	out := decode[struct {
		Picked     bool              `json:"picked"`
		Technology models.Technology `json:"technology"`
	}](t, result)
	require.True(t, out.Picked)
	assert.Equal(t, models.StatusInProgress, out.Technology.Status)

	_, err = cat.MarkAllCompleted(ctx)
	require.NoError(t, err)
	result, err = srv.HandleRandomPick(ctx, makeReq("random_pick", nil))
	require.NoError(t, err)
	assert.False(t, decode[map[string]any](t, result)["picked"].(bool))
}

func TestMCPNilCatalog(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	srv := trackermcp.NewServer(nil, "test", logger)

	result, err := srv.HandleStats(context.Background(), makeReq("stats", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.NotNil(t, srv.MCPServer())
}
