package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/disaster-monitor/internal/config"
	"github.com/couchcryptid/disaster-monitor/internal/domain"
	"github.com/couchcryptid/disaster-monitor/internal/observability"
)

// Client queries the article search API, one keyword-scoped request at a
// time.
type Client struct {
	apiKey     string
	endpoint   string
	pageSize   int
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a search API client from configuration.
func NewClient(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		apiKey:   cfg.NewsAPIKey,
		endpoint: cfg.NewsAPIEndpoint,
		pageSize: cfg.NewsAPIPageSize,
		httpClient: &http.Client{
			Timeout: cfg.NewsAPITimeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// FetchAll searches every keyword in the vocabulary sequentially and
// aggregates the hits into one candidate batch. A failure for one keyword
// is logged and skipped; the remaining keywords are still queried. The
// returned error is non-nil only when the context ends the run.
func (c *Client) FetchAll(ctx context.Context) ([]domain.Candidate, error) {
	var all []domain.Candidate
	for _, keyword := range domain.Keywords {
		if ctx.Err() != nil {
			return all, ctx.Err()
		}

		hits, err := c.search(ctx, keyword)
		if err != nil {
			c.logger.Warn("keyword search failed, skipping",
				"keyword", keyword,
				"error", err,
			)
			c.metrics.FetchErrors.WithLabelValues(keyword).Inc()
			continue
		}
		c.metrics.ArticlesFetched.WithLabelValues(keyword).Add(float64(len(hits)))
		all = append(all, hits...)
	}
	return all, nil
}

// search issues one bounded-page-size request for a single keyword.
func (c *Client) search(ctx context.Context, keyword string) ([]domain.Candidate, error) {
	params := url.Values{
		"apiKey":   {c.apiKey},
		"q":        {keyword},
		"language": {"en"},
		"pageSize": {fmt.Sprintf("%d", c.pageSize)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("search API error: status %d: %s", resp.StatusCode, body)
	}

	var apiResp response
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	event := domain.EventName(keyword)
	candidates := make([]domain.Candidate, 0, len(apiResp.Articles))
	for _, a := range apiResp.Articles {
		candidates = append(candidates, domain.Candidate{
			Title:         a.Title,
			Source:        a.Source.Name,
			URL:           a.URL,
			Timestamp:     parseTimestamp(a.PublishedAt),
			DisasterEvent: event,
		})
	}
	return candidates, nil
}

// parseTimestamp parses the API's RFC 3339 publish time, returning the zero
// time on failure so the candidate is screened out downstream.
func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Search API response types.

type response struct {
	Status   string    `json:"status"`
	Articles []article `json:"articles"`
}

type article struct {
	Source      articleSource `json:"source"`
	Title       string        `json:"title"`
	URL         string        `json:"url"`
	PublishedAt string        `json:"publishedAt"`
}

type articleSource struct {
	Name string `json:"name"`
}
