// Package remotive fetches job listings from the Remotive public API.
package remotive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/careerbuddy/careerbuddy/internal/adapter/observability"
	"github.com/careerbuddy/careerbuddy/internal/config"
	"github.com/careerbuddy/careerbuddy/internal/domain"
)

// DefaultKeyword is used when the caller supplies no search keyword.
const DefaultKeyword = "software"

// Client implements domain.ListingFetcher against the Remotive search API.
// Retrieval is best-effort: a single attempt, no retries.
type Client struct {
	baseURL string
	hc      *http.Client
}

// New constructs a fetcher with a shared HTTP client.
func New(cfg config.Config) *Client {
	return &Client{
		baseURL: cfg.JobsBaseURL,
		hc:      &http.Client{Timeout: cfg.JobsTimeout},
	}
}

// remotiveResponse mirrors the top-level Remotive JSON response.
type remotiveResponse struct {
	Jobs []domain.Listing `json:"jobs"`
}

// Fetch retrieves up to limit listings matching keyword. Provider fields pass
// through unmodified.
func (c *Client) Fetch(ctx context.Context, keyword string, limit int) ([]domain.Listing, error) {
	if keyword == "" {
		keyword = DefaultKeyword
	}

	params := url.Values{}
	params.Set("search", keyword)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("op=remotive.Fetch: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: job board unreachable: %v", domain.ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: job board returned %d", domain.ErrUpstream, resp.StatusCode)
	}

	var out remotiveResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", domain.ErrUpstream, err)
	}

	jobs := out.Jobs
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	observability.ListingsFetchedTotal.Add(float64(len(jobs)))
	return jobs, nil
}
