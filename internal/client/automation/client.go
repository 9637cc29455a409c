// Package automation drives the browser-automation worker that sends connection requests.
package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prperemyshlev/outreach-service/internal/client"
	"github.com/prperemyshlev/outreach-service/internal/domain"
	"github.com/prperemyshlev/outreach-service/pkg/observability"
)

const (
	collaborator = "browser_automation"

	DefaultBaseURL = "http://localhost:8000"
	// a batch visits every profile in a real browser
	DefaultTimeout = 10 * time.Minute
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client submits connection batches to the automation worker
type Client struct {
	http    *http.Client
	baseURL string
	metrics *observability.Metrics
}

type connectRequest struct {
	Message     string   `json:"message"`
	ProfileURLs []string `json:"profile_urls"`
}

// connectResponse carries the agent's free-text report, one line per profile
type connectResponse struct {
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

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
		metrics: metrics,
	}
}

// Connect asks the worker to send message as a connection note to every profile and
// returns one classified outcome per report line.
func (c *Client) Connect(ctx context.Context, message string, profileURLs []string) ([]domain.ConnectionOutcome, error) {
	payload, err := json.Marshal(connectRequest{Message: message, ProfileURLs: profileURLs})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/connect", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.ObserveUpstream(ctx, collaborator, start, err)
	if err != nil {
		return nil, domain.NewUpstreamError(collaborator, domain.ErrAutomationFailed, 0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewUpstreamError(collaborator, domain.ErrAutomationFailed, resp.StatusCode, client.ReadErrorBody(resp))
	}

	var body connectResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, domain.NewUpstreamError(collaborator, domain.ErrAutomationFailed, resp.StatusCode, "decode response: "+err.Error())
	}
	if body.Error != "" {
		return nil, domain.NewUpstreamError(collaborator, domain.ErrAutomationFailed, resp.StatusCode, body.Error)
	}

	return ClassifyReport(body.Result, profileURLs), nil
}

// ClassifyReport maps each non-blank report line to an outcome. Lines are matched to
// profiles by position; surplus lines keep an empty profile URL.
func ClassifyReport(report string, profileURLs []string) []domain.ConnectionOutcome {
	var outcomes []domain.ConnectionOutcome
	for _, line := range strings.Split(report, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		status := domain.ConnectionError
		switch {
		case strings.Contains(line, "SUCCESS"):
			status = domain.ConnectionSuccess
		case strings.Contains(line, "SKIP"):
			status = domain.ConnectionSkip
		}

		outcome := domain.ConnectionOutcome{Status: status, Detail: line}
		if i := len(outcomes); i < len(profileURLs) {
			outcome.ProfileURL = profileURLs[i]
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}
