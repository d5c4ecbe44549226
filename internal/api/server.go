package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ajitpratap0/tech-tracker/internal/catalog"
	"github.com/ajitpratap0/tech-tracker/internal/codec"
	"github.com/ajitpratap0/tech-tracker/internal/github"
	"github.com/ajitpratap0/tech-tracker/internal/metrics"
	"github.com/ajitpratap0/tech-tracker/internal/models"
	"github.com/ajitpratap0/tech-tracker/internal/view"
)

const maxBodyBytes = 1 << 20 // 1 MB

// Server is an HTTP API server that exposes catalog operations.
type Server struct {
	catalog   *catalog.Catalog
	feed      *catalog.Catalog // API catalog refreshed by POST /v1/fetch
	source    catalog.Source
	logger    *slog.Logger
	authToken string // empty = no auth required
	now       func() time.Time
}

// NewServer creates a new Server over cat. POST /v1/fetch always refreshes
// feed, the API-sourced catalog, from src; feed may be cat itself. When feed
// or src is nil, fetching is reported as unavailable.
func NewServer(cat, feed *catalog.Catalog, src catalog.Source, logger *slog.Logger, authToken string) *Server {
	return &Server{
		catalog:   cat,
		feed:      feed,
		source:    src,
		logger:    logger,
		authToken: authToken,
		now:       time.Now,
	}
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health and metrics: no auth required.
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /v1/technologies", s.auth(s.handleList))
	mux.HandleFunc("POST /v1/technologies", s.auth(s.handleAdd))
	mux.HandleFunc("GET /v1/technologies/{id}", s.auth(s.handleGet))
	mux.HandleFunc("PATCH /v1/technologies/{id}", s.auth(s.handleUpdate))
	mux.HandleFunc("DELETE /v1/technologies/{id}", s.auth(s.handleDelete))
	mux.HandleFunc("PUT /v1/technologies/{id}/status", s.auth(s.handleSetStatus))
	mux.HandleFunc("POST /v1/technologies/{id}/cycle", s.auth(s.handleCycle))
	mux.HandleFunc("PUT /v1/technologies/{id}/notes", s.auth(s.handleSetNotes))
	mux.HandleFunc("POST /v1/bulk/complete", s.auth(s.handleBulkComplete))
	mux.HandleFunc("POST /v1/bulk/reset", s.auth(s.handleBulkReset))
	mux.HandleFunc("POST /v1/random", s.auth(s.handleRandom))
	mux.HandleFunc("GET /v1/stats", s.auth(s.handleStats))
	mux.HandleFunc("GET /v1/categories", s.auth(s.handleCategories))
	mux.HandleFunc("GET /v1/export", s.auth(s.handleExport))
	mux.HandleFunc("POST /v1/import", s.auth(s.handleImport))
	mux.HandleFunc("POST /v1/fetch", s.auth(s.handleFetch))

	return s.requestID(mux)
}

// --- middleware ---

// auth wraps a handler with Bearer token authentication when authToken is set.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

// requestID echoes the caller's X-Request-ID or assigns a new one.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "request_id", id)
		next.ServeHTTP(w, r)
	})
}

// --- handlers ---

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listResponse is returned by GET /v1/technologies.
type listResponse struct {
	Technologies []models.Technology `json:"technologies"`
	Count        int                 `json:"count"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	records := s.catalog.Snapshot()
	if status := q.Get("status"); status != "" {
		records = view.FilterByStatus(records, status)
	}
	if category := q.Get("category"); category != "" {
		records = view.FilterByCategory(records, category)
	}
	if language := q.Get("language"); language != "" {
		records = view.FilterByLanguage(records, language)
	}
	records = view.Search(records, q.Get("q"))
	if records == nil {
		records = []models.Technology{}
	}
	s.writeJSON(w, http.StatusOK, listResponse{Technologies: records, Count: len(records)})
}

// addRequest is the body accepted by POST /v1/technologies.
type addRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if !s.decode(w, r, &req) {
		return
	}
	created, err := s.catalog.Append(r.Context(), models.Technology{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		s.writeCatalogError(w, "add technology", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	t, found := s.catalog.Get(id)
	if !found {
		s.writeError(w, http.StatusNotFound, "technology not found")
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var patch catalog.Patch
	if !s.decode(w, r, &patch) {
		return
	}
	if _, found := s.catalog.Get(id); !found {
		s.writeError(w, http.StatusNotFound, "technology not found")
		return
	}
	if err := s.catalog.Update(r.Context(), id, patch); err != nil {
		s.writeCatalogError(w, "update technology", err)
		return
	}
	t, _ := s.catalog.Get(id)
	s.writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if _, found := s.catalog.Get(id); !found {
		s.writeError(w, http.StatusNotFound, "technology not found")
		return
	}
	if err := s.catalog.Delete(r.Context(), id); err != nil {
		s.writeCatalogError(w, "delete technology", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// fieldResponse is returned by the status and notes endpoints. Updated is
// false when no record has the id; such updates are ignored.
type fieldResponse struct {
	Updated    bool               `json:"updated"`
	Technology *models.Technology `json:"technology,omitempty"`
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status models.Status `json:"status"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.catalog.SetStatus(r.Context(), id, req.Status); err != nil {
		s.writeCatalogError(w, "set status", err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.fieldResult(id))
}

func (s *Server) handleSetNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.catalog.SetNotes(r.Context(), id, req.Notes); err != nil {
		s.writeCatalogError(w, "set notes", err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.fieldResult(id))
}

func (s *Server) fieldResult(id int64) fieldResponse {
	t, found := s.catalog.Get(id)
	if !found {
		return fieldResponse{}
	}
	return fieldResponse{Updated: true, Technology: &t}
}

func (s *Server) handleCycle(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	next, err := s.catalog.Cycle(r.Context(), id)
	if err != nil {
		s.writeCatalogError(w, "cycle status", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": next})
}

func (s *Server) handleBulkComplete(w http.ResponseWriter, r *http.Request) {
	n, err := s.catalog.MarkAllCompleted(r.Context())
	if err != nil {
		s.writeCatalogError(w, "mark all completed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}

func (s *Server) handleBulkReset(w http.ResponseWriter, r *http.Request) {
	n, err := s.catalog.ResetAll(r.Context())
	if err != nil {
		s.writeCatalogError(w, "reset all", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}

// randomResponse is returned by POST /v1/random.
type randomResponse struct {
	Picked     bool               `json:"picked"`
	Technology *models.Technology `json:"technology,omitempty"`
}

func (s *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	t, ok, err := s.catalog.PickRandom(r.Context(), nil)
	if err != nil {
		s.writeCatalogError(w, "pick random", err)
		return
	}
	if !ok {
		s.writeJSON(w, http.StatusOK, randomResponse{})
		return
	}
	s.writeJSON(w, http.StatusOK, randomResponse{Picked: true, Technology: &t})
}

// statsResponse is returned by GET /v1/stats.
type statsResponse struct {
	models.Statistics
	Categories []models.CategoryCount `json:"categories"`
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	records := s.catalog.Snapshot()
	s.writeJSON(w, http.StatusOK, statsResponse{
		Statistics: view.ComputeStatistics(records),
		Categories: emptyIfNil(view.CategoryBreakdown(records)),
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	records := s.catalog.Snapshot()
	s.writeJSON(w, http.StatusOK, map[string][]string{
		"categories": emptyIfNil(view.Categories(records)),
		"languages":  emptyIfNil(view.Languages(records)),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	records := s.catalog.Snapshot()
	now := s.now()

	switch format {
	case "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="`+codec.Filename(format, now)+`"`)
		if err := codec.WriteJSON(w, codec.ExportJSON(records, now)); err != nil {
			s.logger.Error("failed to write JSON export", "error", err)
			return
		}
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+codec.Filename(format, now)+`"`)
		if err := codec.ExportCSV(w, records); err != nil {
			s.logger.Error("failed to write CSV export", "error", err)
			return
		}
	default:
		s.writeError(w, http.StatusBadRequest, "format must be json or csv")
		return
	}
	metrics.Exports.WithLabelValues(format).Inc()
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	records, err := codec.ImportJSON(r.Body)
	if err != nil {
		s.writeCatalogError(w, "import", err)
		return
	}
	if err := s.catalog.ReplaceAll(r.Context(), records); err != nil {
		s.writeCatalogError(w, "import", err)
		return
	}
	metrics.Imports.Inc()
	s.writeJSON(w, http.StatusOK, map[string]int{"imported": len(records)})
}

// fetchResponse is returned by POST /v1/fetch.
type fetchResponse struct {
	Catalog      string              `json:"catalog"`
	Language     string              `json:"language"`
	Count        int                 `json:"count"`
	Technologies []models.Technology `json:"technologies"`
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	if s.source == nil || s.feed == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no external source configured")
		return
	}
	var req struct {
		Language string `json:"language"`
	}
	if r.ContentLength != 0 && !s.decode(w, r, &req) {
		return
	}
	lang := github.NormalizeLanguage(req.Language)
	records, err := s.feed.Refresh(r.Context(), s.source, lang)
	if err != nil {
		s.writeCatalogError(w, "fetch", err)
		return
	}
	s.writeJSON(w, http.StatusOK, fetchResponse{Catalog: s.feed.Key(), Language: lang, Count: len(records), Technologies: records})
}

// --- helpers ---

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "id must be an integer")
		return 0, false
	}
	return id, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeCatalogError maps the catalog error taxonomy onto HTTP status codes.
func (s *Server) writeCatalogError(w http.ResponseWriter, op string, err error) {
	var (
		verr *catalog.ValidationError
		ferr *codec.FormatError
		serr *github.SourceError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &ferr):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "technology not found")
	case errors.As(err, &serr):
		status := http.StatusBadGateway
		if serr.RateLimited() {
			status = http.StatusTooManyRequests
		}
		s.writeError(w, status, serr.Message)
	case errors.Is(err, catalog.ErrEmptyResult):
		s.writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, catalog.ErrPersist):
		s.logger.Error(op+": change kept in memory only", "error", err)
		s.writeError(w, http.StatusInternalServerError, "change applied but could not be saved")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.writeError(w, http.StatusGatewayTimeout, op+" cancelled")
	default:
		s.logger.Error(op+" failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, op+" failed")
	}
}

// writeJSON encodes v as JSON and writes it to w with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(v); encErr != nil {
		s.logger.Error("failed to encode response", "error", encErr)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Shutdown gracefully shuts down an http.Server with the given timeout.
// This is a convenience helper used by the serve command.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
