// Package linkd provides the people-search client.
package linkd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prperemyshlev/outreach-service/internal/client"
	"github.com/prperemyshlev/outreach-service/internal/domain"
	"github.com/prperemyshlev/outreach-service/pkg/observability"
)

const (
	collaborator = "people_search"

	DefaultBaseURL = "https://search.linkd.inc/api"
	DefaultTimeout = 30 * time.Second

	// MaxLimit is the largest page the search API serves
	MaxLimit = 30
)

// Config holds the people-search settings
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client searches people profiles
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	limiter *client.RateLimiter
	metrics *observability.Metrics
}

// searchResponse is the /search/users response format.
type searchResponse struct {
	Results []struct {
		Profile struct {
			Name              string `json:"name"`
			Title             string `json:"title"`
			Headline          string `json:"headline"`
			Location          string `json:"location"`
			LinkedInURL       string `json:"linkedin_url"`
			ProfilePictureURL string `json:"profile_picture_url"`
		} `json:"profile"`
		Experience []domain.Experience `json:"experience"`
		Education  []domain.Education  `json:"education"`
	} `json:"results"`
	Error string `json:"error,omitempty"`
}

// NewClient creates the people-search client
func NewClient(cfg Config, metrics *observability.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		limiter: client.NewRateLimiter(2, 4),
		metrics: metrics,
	}
}

// Search returns up to limit candidates matching query. limit is clamped to 1..MaxLimit.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Candidate, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/users?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, domain.NewUpstreamError(collaborator, domain.ErrSearchFailed, 0, err.Error())
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.ObserveUpstream(ctx, collaborator, start, err)
	if err != nil {
		return nil, domain.NewUpstreamError(collaborator, domain.ErrSearchFailed, 0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests {
			c.limiter.RecordRateLimitError(client.RetryAfter(resp.Header))
		}
		return nil, domain.NewUpstreamError(collaborator, domain.ErrSearchFailed, resp.StatusCode, client.ReadErrorBody(resp))
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, domain.NewUpstreamError(collaborator, domain.ErrSearchFailed, resp.StatusCode, "decode response: "+err.Error())
	}
	if body.Error != "" {
		return nil, domain.NewUpstreamError(collaborator, domain.ErrSearchFailed, resp.StatusCode, body.Error)
	}

	candidates := make([]domain.Candidate, 0, len(body.Results))
	for _, r := range body.Results {
		candidates = append(candidates, domain.Candidate{
			Name:              strings.TrimSpace(r.Profile.Name),
			Title:             r.Profile.Title,
			Headline:          r.Profile.Headline,
			Location:          r.Profile.Location,
			ProfileURL:        r.Profile.LinkedInURL,
			ProfilePictureURL: r.Profile.ProfilePictureURL,
			Experience:        r.Experience,
			Education:         r.Education,
		})
	}

	return candidates, nil
}
