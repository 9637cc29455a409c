// Package gemini wraps the generative-language REST API as a plain prompt-in, text-out generator.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prperemyshlev/outreach-service/internal/client"
	"github.com/prperemyshlev/outreach-service/internal/domain"
	"github.com/prperemyshlev/outreach-service/pkg/observability"
)

const (
	collaborator = "text_generation"

	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-1.5-flash"
	DefaultTimeout = 60 * time.Second
)

// Config holds the generator settings
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client generates free text from a single user prompt
type Client struct {
	http    *http.Client
	baseURL string
	model   string
	apiKey  string
	limiter *client.RateLimiter
	metrics *observability.Metrics
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

// generateResponse is the models/{model}:generateContent response format.
type generateResponse struct {
	Candidates []struct {
		Content      *content `json:"content"`
		FinishReason string   `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// NewClient creates the generator
func NewClient(cfg Config, metrics *observability.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   strings.TrimPrefix(cfg.Model, "models/"),
		apiKey:  cfg.APIKey,
		limiter: client.NewRateLimiter(1, 5),
		metrics: metrics,
	}
}

// Generate sends prompt and returns the concatenated text of the first candidate
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	if err := c.limiter.Wait(ctx); err != nil {
		return "", domain.NewUpstreamError(collaborator, domain.ErrGenerationFailed, 0, err.Error())
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.ObserveUpstream(ctx, collaborator, start, err)
	if err != nil {
		return "", domain.NewUpstreamError(collaborator, domain.ErrGenerationFailed, 0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests {
			c.limiter.RecordRateLimitError(client.RetryAfter(resp.Header))
		}
		return "", domain.NewUpstreamError(collaborator, domain.ErrGenerationFailed, resp.StatusCode, client.ReadErrorBody(resp))
	}

	var body generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", domain.NewUpstreamError(collaborator, domain.ErrGenerationFailed, resp.StatusCode, "decode response: "+err.Error())
	}

	text := body.text()
	if text == "" {
		return "", domain.NewUpstreamError(collaborator, domain.ErrGenerationFailed, resp.StatusCode, body.emptyReason())
	}

	return text, nil
}

func (r *generateResponse) text() string {
	if len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}

func (r *generateResponse) emptyReason() string {
	switch {
	case r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "":
		return "prompt blocked, reason " + r.PromptFeedback.BlockReason
	case len(r.Candidates) > 0 && r.Candidates[0].FinishReason != "":
		return "empty response, finish reason " + r.Candidates[0].FinishReason
	default:
		return "empty response"
	}
}
