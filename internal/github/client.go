// Package github adapts the GitHub repository-search API into catalog
// records. It performs no retry or backoff; callers decide what to do with
// a *SourceError.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ajitpratap0/tech-tracker/internal/models"
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint.
	DefaultBaseURL = "https://api.github.com"

	// DefaultLanguage replaces any language outside the allow-list.
	DefaultLanguage = "javascript"

	// DefaultPerPage is how many top repositories a fetch requests.
	DefaultPerPage = 10

	resourcesPerPage   = 5
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 4 << 10
)

// Languages is the allow-list of language tags accepted by Fetch.
var Languages = []string{"javascript", "python", "typescript", "go", "rust", "java", "cpp", "csharp"}

// NormalizeLanguage lower-cases tag and maps anything outside Languages to
// DefaultLanguage.
func NormalizeLanguage(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, l := range Languages {
		if tag == l {
			return tag
		}
	}
	return DefaultLanguage
}

// SourceError is the single error value a failed fetch surfaces.
type SourceError struct {
	Language   string
	StatusCode int // 0 when no response was received
	Message    string
	Err        error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("github: %s: %v", e.Message, e.Err)
	}
	return "github: " + e.Message
}

func (e *SourceError) Unwrap() error { return e.Err }

// RateLimited reports whether the source refused the request for quota reasons.
func (e *SourceError) RateLimited() bool {
	return e.StatusCode == http.StatusForbidden || e.StatusCode == http.StatusTooManyRequests
}

// Client queries GitHub repository search.
type Client struct {
	baseURL string
	token   string
	perPage int
	client  *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends token as bearer authentication, raising the rate limit.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithPerPage overrides how many repositories a fetch requests.
func WithPerPage(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.perPage = n
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// NewClient creates a client for baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		perPage: DefaultPerPage,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		logger:  logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchResponse struct {
	TotalCount int          `json:"total_count"`
	Items      []repository `json:"items"`
}

type repository struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Description     *string   `json:"description"`
	Language        *string   `json:"language"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	HTMLURL         string    `json:"html_url"`
	UpdatedAt       time.Time `json:"updated_at"`
	Owner           struct {
		Login string `json:"login"`
	} `json:"owner"`
}

// Fetch returns the most-starred repositories for language, mapped into
// not-started technologies with empty notes. Unknown languages fall back to
// DefaultLanguage before querying.
func (c *Client) Fetch(ctx context.Context, language string) ([]models.Technology, error) {
	lang := NormalizeLanguage(language)
	if lang != strings.ToLower(strings.TrimSpace(language)) {
		c.logger.Info("unsupported language, using default", "requested", language, "language", lang)
	}

	q := url.Values{}
	q.Set("q", "language:"+lang)
	q.Set("sort", "stars")
	q.Set("order", "desc")
	q.Set("per_page", strconv.Itoa(c.perPage))

	var result searchResponse
	if err := c.getJSON(ctx, "/search/repositories", q, lang, &result); err != nil {
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, &SourceError{Language: lang, Message: fmt.Sprintf("no repositories found for language %q", lang)}
	}

	category := models.CategoryForLanguage(lang)
	out := make([]models.Technology, 0, len(result.Items))
	for i := range result.Items {
		out = append(out, toTechnology(&result.Items[i], i, lang, category))
	}

	c.logger.Debug("fetched repositories", "language", lang, "count", len(out))
	return out, nil
}

func toTechnology(r *repository, index int, lang, category string) models.Technology {
	id := r.ID
	if id == 0 {
		id = int64(index + 1)
	}
	description := models.PlaceholderDescription
	if r.Description != nil && *r.Description != "" {
		description = *r.Description
	}
	language := lang
	if r.Language != nil && *r.Language != "" {
		language = *r.Language
	}
	stars := r.StargazersCount
	if stars < 0 {
		stars = 0
	}
	return models.Technology{
		ID:          id,
		Title:       capitalize(r.Name),
		Description: description,
		Status:      models.StatusNotStarted,
		Notes:       "",
		Category:    category,
		Language:    language,
		Stars:       stars,
		Forks:       r.ForksCount,
		URL:         r.HTMLURL,
		Owner:       r.Owner.Login,
		Source:      models.SourceGitHub,
		UpdatedAt:   r.UpdatedAt,
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// RateStatus is the caller's remaining search quota.
type RateStatus struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}

// RateLimit reports the current core API quota.
func (c *Client) RateLimit(ctx context.Context) (*RateStatus, error) {
	var body struct {
		Rate struct {
			Limit     int   `json:"limit"`
			Remaining int   `json:"remaining"`
			Reset     int64 `json:"reset"`
		} `json:"rate"`
	}
	if err := c.getJSON(ctx, "/rate_limit", nil, "", &body); err != nil {
		return nil, err
	}
	return &RateStatus{
		Limit:     body.Rate.Limit,
		Remaining: body.Rate.Remaining,
		Reset:     time.Unix(body.Rate.Reset, 0).UTC(),
	}, nil
}

// Resources suggests learning material for technology: the most-starred
// "awesome" lists plus a curated set. Search failures are logged and only
// the curated set is returned.
func (c *Client) Resources(ctx context.Context, technology string) []models.Resource {
	var out []models.Resource

	q := url.Values{}
	q.Set("q", technology+" awesome")
	q.Set("sort", "stars")
	q.Set("per_page", strconv.Itoa(resourcesPerPage))

	var result searchResponse
	if err := c.getJSON(ctx, "/search/repositories", q, "", &result); err != nil {
		c.logger.Warn("resource search failed, using curated list", "technology", technology, "error", err)
	} else {
		for i := range result.Items {
			r := &result.Items[i]
			description := "Awesome list"
			if r.Description != nil && *r.Description != "" {
				description = *r.Description
			}
			out = append(out, models.Resource{
				Type:        models.ResourceGitHub,
				Title:       r.FullName,
				Description: description,
				URL:         r.HTMLURL,
				Stars:       r.StargazersCount,
			})
		}
	}

	return append(out, CuratedResources(technology)...)
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, lang string, out any) error {
	endpoint := c.baseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return &SourceError{Language: lang, Message: "building request", Err: err}
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &SourceError{Language: lang, Message: "calling GitHub API", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return statusError(resp.StatusCode, lang, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &SourceError{Language: lang, StatusCode: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return nil
}

func statusError(code int, lang string, body []byte) *SourceError {
	e := &SourceError{Language: lang, StatusCode: code}
	switch code {
	case http.StatusForbidden, http.StatusTooManyRequests:
		e.Message = "rate limit reached (60 requests/hour without a token), try again later"
	case http.StatusUnprocessableEntity:
		e.Message = fmt.Sprintf("query rejected (422) for language %q", lang)
	default:
		e.Message = fmt.Sprintf("API returned %d", code)
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		e.Err = errors.New(msg)
	}
	return e
}
