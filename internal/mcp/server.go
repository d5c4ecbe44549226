// Package mcp implements the Model Context Protocol server for tech-tracker.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ajitpratap0/tech-tracker/internal/catalog"
	"github.com/ajitpratap0/tech-tracker/internal/models"
	"github.com/ajitpratap0/tech-tracker/internal/view"
)

// Server wraps an MCPServer with the catalog it operates on.
type Server struct {
	mcp    *mcpserver.MCPServer
	cat    *catalog.Catalog
	logger *slog.Logger
}

// NewServer creates a new MCP server. If cat is nil every tool call returns
// an error response instead of panicking.
func NewServer(cat *catalog.Catalog, version string, logger *slog.Logger) *Server {
	s := &Server{
		cat:    cat,
		logger: logger,
	}

	mcpSrv := mcpserver.NewMCPServer(
		"tech-tracker",
		version,
		mcpserver.WithToolCapabilities(true),
	)

	mcpSrv.AddTool(buildListTool(), s.handleList)
	mcpSrv.AddTool(buildSearchTool(), s.handleSearch)
	mcpSrv.AddTool(buildStatsTool(), s.handleStats)
	mcpSrv.AddTool(buildSetStatusTool(), s.handleSetStatus)
	mcpSrv.AddTool(buildCycleStatusTool(), s.handleCycleStatus)
	mcpSrv.AddTool(buildSetNotesTool(), s.handleSetNotes)
	mcpSrv.AddTool(buildAddTool(), s.handleAdd)
	mcpSrv.AddTool(buildDeleteTool(), s.handleDelete)
	mcpSrv.AddTool(buildRandomPickTool(), s.handleRandomPick)

	s.mcp = mcpSrv
	return s
}

// MCPServer returns the underlying mcp-go MCPServer for use with ServeStdio.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

// HandleList is the exported handler for the "list" tool.
// It is exposed for direct testing without the mcp-go transport layer.
func (s *Server) HandleList(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleList(ctx, req)
}

// HandleSearch is the exported handler for the "search" tool.
func (s *Server) HandleSearch(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleSearch(ctx, req)
}

// HandleStats is the exported handler for the "stats" tool.
func (s *Server) HandleStats(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleStats(ctx, req)
}

// HandleSetStatus is the exported handler for the "set_status" tool.
func (s *Server) HandleSetStatus(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleSetStatus(ctx, req)
}

// HandleCycleStatus is the exported handler for the "cycle_status" tool.
func (s *Server) HandleCycleStatus(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleCycleStatus(ctx, req)
}

// HandleSetNotes is the exported handler for the "set_notes" tool.
func (s *Server) HandleSetNotes(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleSetNotes(ctx, req)
}

// HandleAdd is the exported handler for the "add" tool.
func (s *Server) HandleAdd(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleAdd(ctx, req)
}

// HandleDelete is the exported handler for the "delete" tool.
func (s *Server) HandleDelete(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleDelete(ctx, req)
}

// HandleRandomPick is the exported handler for the "random_pick" tool.
func (s *Server) HandleRandomPick(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleRandomPick(ctx, req)
}

// --- helpers ---

// toolResultJSON marshals v to JSON and returns it as a tool text result.
func toolResultJSON(v any) (*mcpgo.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mcp: marshaling result: %w", err)
	}
	return mcpgo.NewToolResultText(string(b)), nil
}

// toolResultErr turns a catalog error into a tool error result.
func toolResultErr(op string, err error) *mcpgo.CallToolResult {
	var verr *catalog.ValidationError
	switch {
	case errors.As(err, &verr):
		return mcpgo.NewToolResultError(verr.Error())
	case errors.Is(err, catalog.ErrNotFound):
		return mcpgo.NewToolResultError("technology not found")
	case errors.Is(err, catalog.ErrPersist):
		return mcpgo.NewToolResultErrorf("%s applied but not saved: %s", op, err.Error())
	}
	return mcpgo.NewToolResultErrorf("%s failed: %s", op, err.Error())
}

func requireID(req mcpgo.CallToolRequest) (int64, *mcpgo.CallToolResult) {
	id := req.GetInt("id", 0)
	if id <= 0 {
		return 0, mcpgo.NewToolResultError("id is required and must be a positive integer")
	}
	return int64(id), nil
}

func orEmpty(records []models.Technology) []models.Technology {
	if records == nil {
		return []models.Technology{}
	}
	return records
}

// --- tool definitions ---

func buildListTool() mcpgo.Tool {
	return mcpgo.NewTool("list",
		mcpgo.WithDescription("List tracked technologies, optionally filtered by status and category."),
		mcpgo.WithString("status",
			mcpgo.Description("Status filter: all, not-started, in-progress, or completed (default: all)"),
		),
		mcpgo.WithString("category",
			mcpgo.Description("Category filter, e.g. frontend or backend (default: all)"),
		),
	)
}

func buildSearchTool() mcpgo.Tool {
	return mcpgo.NewTool("search",
		mcpgo.WithDescription("Case-insensitive substring search over title, description and language."),
		mcpgo.WithString("query",
			mcpgo.Required(),
			mcpgo.Description("Text to search for"),
		),
	)
}

func buildStatsTool() mcpgo.Tool {
	return mcpgo.NewTool("stats",
		mcpgo.WithDescription("Get learning progress: totals per status, overall progress percent and category breakdown."),
	)
}

func buildSetStatusTool() mcpgo.Tool {
	return mcpgo.NewTool("set_status",
		mcpgo.WithDescription("Set the status of one technology. An unknown id is ignored."),
		mcpgo.WithNumber("id",
			mcpgo.Required(),
			mcpgo.Description("Technology ID"),
		),
		mcpgo.WithString("status",
			mcpgo.Required(),
			mcpgo.Description("New status: not-started, in-progress, or completed"),
		),
	)
}

func buildCycleStatusTool() mcpgo.Tool {
	return mcpgo.NewTool("cycle_status",
		mcpgo.WithDescription("Advance a technology to its next status: not-started, in-progress, completed, then back."),
		mcpgo.WithNumber("id",
			mcpgo.Required(),
			mcpgo.Description("Technology ID"),
		),
	)
}

func buildSetNotesTool() mcpgo.Tool {
	return mcpgo.NewTool("set_notes",
		mcpgo.WithDescription("Replace the free-text notes of one technology. An unknown id is ignored."),
		mcpgo.WithNumber("id",
			mcpgo.Required(),
			mcpgo.Description("Technology ID"),
		),
		mcpgo.WithString("notes",
			mcpgo.Required(),
			mcpgo.Description("New notes; an empty string clears them"),
		),
	)
}

func buildAddTool() mcpgo.Tool {
	return mcpgo.NewTool("add",
		mcpgo.WithDescription("Add a technology. It starts not-started with empty notes."),
		mcpgo.WithString("title",
			mcpgo.Required(),
			mcpgo.Description("Technology title"),
		),
		mcpgo.WithString("description",
			mcpgo.Description("Short description"),
		),
		mcpgo.WithString("category",
			mcpgo.Description("Category (default: frontend)"),
		),
	)
}

func buildDeleteTool() mcpgo.Tool {
	return mcpgo.NewTool("delete",
		mcpgo.WithDescription("Delete a technology by ID."),
		mcpgo.WithNumber("id",
			mcpgo.Required(),
			mcpgo.Description("Technology ID"),
		),
	)
}

func buildRandomPickTool() mcpgo.Tool {
	return mcpgo.NewTool("random_pick",
		mcpgo.WithDescription("Pick something to learn next, preferring not-started technologies, and mark it in progress."),
	)
}

// --- tool handlers ---

// handleList returns the filtered catalog.
func (s *Server) handleList(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.cat == nil {
		return mcpgo.NewToolResultError("catalog is unavailable"), nil
	}

	status := req.GetString("status", view.FilterAll)
	if status != view.FilterAll && !models.Status(status).IsValid() {
		return mcpgo.NewToolResultErrorf("invalid status %q: must be one of all, not-started, in-progress, completed", status), nil
	}
	records := view.FilterByStatus(s.cat.Snapshot(), status)
	records = view.FilterByCategory(records, req.GetString("category", view.FilterAll))

	return toolResultJSON(map[string]any{
		"technologies": orEmpty(records),
		"count":        len(records),
	})
}

// handleSearch matches the query against title, description and language.
func (s *Server) handleSearch(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.cat == nil {
		return mcpgo.NewToolResultError("catalog is unavailable"), nil
	}

	query := req.GetString("query", "")
	if strings.TrimSpace(query) == "" {
		return mcpgo.NewToolResultError("query is required and must not be empty"), nil
	}

	results := view.Search(s.cat.Snapshot(), query)
	return toolResultJSON(map[string]any{
		"results": orEmpty(results),
		"count":   len(results),
	})
}

// handleStats returns progress statistics.
func (s *Server) handleStats(_ context.Context, _ mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.cat == nil {
		return mcpgo.NewToolResultError("catalog is unavailable"), nil
	}

	records := s.cat.Snapshot()
	return toolResultJSON(map[string]any{
		"statistics": view.ComputeStatistics(records),
		"categories": view.CategoryBreakdown(records),
	})
}

// handleSetStatus changes the status of one record.
func (s *Server) handleSetStatus(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.cat == nil {
		return mcpgo.NewToolResultError("catalog is unavailable"), nil
	}

	id, errResult := requireID(req)
	if errResult != nil {
		return errResult, nil
	}
	status := models.Status(req.GetString("status", ""))

	if err := s.cat.SetStatus(ctx, id, status); err != nil {
		return toolResultErr("set_status", err), nil
	}

	_, found := s.cat.Get(id)
	s.logger.Info("mcp: set_status", "id", id, "status", status, "found", found)
	return toolResultJSON(map[string]any{
		"id":      id,
		"status":  status,
		"updated": found,
	})
}

// handleCycleStatus advances one record to its next status.
func (s *Server) handleCycleStatus(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.cat == nil {
		return mcpgo.NewToolResultError("catalog is unavailable"), nil
	}

	id, errResult := requireID(req)
	if errResult != nil {
		return errResult, nil
	}

	next, err := s.cat.Cycle(ctx, id)
	if err != nil {
		return toolResultErr("cycle_status", err), nil
	}
	return toolResultJSON(map[string]any{
		"id":     id,
		"status": next,
	})
}

// handleSetNotes replaces the notes of one record.
func (s *Server) handleSetNotes(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.cat == nil {
		return mcpgo.NewToolResultError("catalog is unavailable"), nil
	}

	id, errResult := requireID(req)
	if errResult != nil {
		return errResult, nil
	}

	if err := s.cat.SetNotes(ctx, id, req.GetString("notes", "")); err != nil {
		return toolResultErr("set_notes", err), nil
	}

	_, found := s.cat.Get(id)
	return toolResultJSON(map[string]any{
		"id":      id,
		"updated": found,
	})
}

// handleAdd appends a manual record.
func (s *Server) handleAdd(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.cat == nil {
		return mcpgo.NewToolResultError("catalog is unavailable"), nil
	}

	title := req.GetString("title", "")
	if strings.TrimSpace(title) == "" {
		return mcpgo.NewToolResultError("title is required and must not be empty"), nil
	}

	created, err := s.cat.Append(ctx, models.Technology{
		Title:       title,
		Description: req.GetString("description", ""),
		Category:    req.GetString("category", ""),
	})
	if err != nil {
		return toolResultErr("add", err), nil
	}

	s.logger.Info("mcp: add stored technology", "id", created.ID, "title", created.Title)
	return toolResultJSON(created)
}

// handleDelete removes a record by ID.
func (s *Server) handleDelete(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.cat == nil {
		return mcpgo.NewToolResultError("catalog is unavailable"), nil
	}

	id, errResult := requireID(req)
	if errResult != nil {
		return errResult, nil
	}
	if _, found := s.cat.Get(id); !found {
		return mcpgo.NewToolResultErrorf("technology %d not found", id), nil
	}

	if err := s.cat.Delete(ctx, id); err != nil {
		return toolResultErr("delete", err), nil
	}

	s.logger.Info("mcp: delete removed technology", "id", id)
	return toolResultJSON(map[string]any{"deleted": true})
}

// handleRandomPick chooses the next thing to learn.
func (s *Server) handleRandomPick(ctx context.Context, _ mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.cat == nil {
		return mcpgo.NewToolResultError("catalog is unavailable"), nil
	}

	t, ok, err := s.cat.PickRandom(ctx, nil)
	if err != nil {
		return toolResultErr("random_pick", err), nil
	}
	if !ok {
		return toolResultJSON(map[string]any{
			"picked":  false,
			"message": "everything is completed",
		})
	}
	return toolResultJSON(map[string]any{
		"picked":     true,
		"technology": t,
	})
}
