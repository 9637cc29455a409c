// Package websearch queries the programmable search engine.
package websearch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/prperemyshlev/outreach-service/internal/domain"
	"github.com/prperemyshlev/outreach-service/pkg/observability"
)

const (
	collaborator   = "web_search"
	defaultResults = 5
	// the API caps num at 10
	maxResults = 10
)

type Config struct {
	APIKey   string
	EngineID string
	Results  int
	Timeout  time.Duration
}

// Client runs web searches against a configured engine
type Client struct {
	svc      *customsearch.Service
	engineID string
	results  int64
	timeout  time.Duration
	metrics  *observability.Metrics
}

func NewClient(ctx context.Context, cfg Config, metrics *observability.Metrics, opts ...option.ClientOption) (*Client, error) {
	all := append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)

	svc, err := customsearch.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create custom search service: %w", err)
	}

	results := cfg.Results
	if results <= 0 {
		results = defaultResults
	}
	if results > maxResults {
		results = maxResults
	}

	return &Client{
		svc:      svc,
		engineID: cfg.EngineID,
		results:  int64(results),
		timeout:  cfg.Timeout,
		metrics:  metrics,
	}, nil
}

// Search returns the top results for query. No hits is an empty slice, not an error.
func (c *Client) Search(ctx context.Context, query string) ([]domain.WebResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := c.svc.Cse.List().Cx(c.engineID).Q(query).Num(c.results).Context(ctx).Do()
	c.metrics.ObserveUpstream(ctx, collaborator, start, err)
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			body := strings.TrimSpace(apiErr.Body)
			if body == "" {
				body = apiErr.Message
			}
			return nil, domain.NewUpstreamError(collaborator, domain.ErrWebSearchFailed, apiErr.Code, body)
		}
		return nil, domain.NewUpstreamError(collaborator, domain.ErrWebSearchFailed, 0, err.Error())
	}

	out := make([]domain.WebResult, 0, len(res.Items))
	for _, item := range res.Items {
		out = append(out, domain.WebResult{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}
	return out, nil
}
