package google

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/prperemyshlev/outreach-service/internal/client"
	"github.com/prperemyshlev/outreach-service/internal/domain"
	"github.com/prperemyshlev/outreach-service/pkg/observability"
)

const (
	collaboratorGmail = "gmail"

	conversationLimit = 10
	bodyPreviewRunes  = 500

	// conservative share of the per-user quota
	gmailRequestsPerSecond = 2.0
	gmailBurst             = 5
)

// GmailClient sends and reads mail as the credential's owner
type GmailClient struct {
	limiter *client.RateLimiter
	metrics *observability.Metrics
	timeout time.Duration
	opts    []option.ClientOption
}

// NewGmailClient creates a Gmail client. opts are appended to every service
// construction (tests point option.WithEndpoint at a local server).
func NewGmailClient(timeout time.Duration, metrics *observability.Metrics, opts ...option.ClientOption) *GmailClient {
	return &GmailClient{
		limiter: client.NewRateLimiter(gmailRequestsPerSecond, gmailBurst),
		metrics: metrics,
		timeout: timeout,
		opts:    opts,
	}
}

func (g *GmailClient) service(ctx context.Context, accessToken string) (*gmail.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, g.opts...)

	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return svc, nil
}

// Send submits a plain-text message and returns the provider-assigned id.
// Failures are returned as-is; the caller decides whether to retry.
func (g *GmailClient) Send(ctx context.Context, cred *domain.Credential, to, subject, body string) (string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	if err := g.limiter.Wait(ctx); err != nil {
		return "", domain.NewUpstreamError(collaboratorGmail, domain.ErrSendFailed, 0, err.Error())
	}

	svc, err := g.service(ctx, cred.AccessToken)
	if err != nil {
		return "", domain.NewUpstreamError(collaboratorGmail, domain.ErrSendFailed, 0, err.Error())
	}

	start := time.Now()
	msg, err := svc.Users.Messages.Send("me", &gmail.Message{Raw: EncodeMessage(to, subject, body)}).Context(ctx).Do()
	g.metrics.ObserveUpstream(ctx, collaboratorGmail, start, err)
	if err != nil {
		return "", g.upstreamError(err, domain.ErrSendFailed)
	}

	return msg.Id, nil
}

// ListConversation returns the latest messages exchanged with contact, newest first
func (g *GmailClient) ListConversation(ctx context.Context, cred *domain.Credential, contact string) ([]domain.MailSummary, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	svc, err := g.service(ctx, cred.AccessToken)
	if err != nil {
		return nil, domain.NewUpstreamError(collaboratorGmail, domain.ErrMailboxFailed, 0, err.Error())
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, domain.NewUpstreamError(collaboratorGmail, domain.ErrMailboxFailed, 0, err.Error())
	}

	start := time.Now()
	list, err := svc.Users.Messages.List("me").
		Q(fmt.Sprintf("to:%s OR from:%s", contact, contact)).
		MaxResults(conversationLimit).
		Context(ctx).
		Do()
	g.metrics.ObserveUpstream(ctx, collaboratorGmail, start, err)
	if err != nil {
		return nil, g.upstreamError(err, domain.ErrMailboxFailed)
	}

	summaries := make([]domain.MailSummary, 0, len(list.Messages))
	for _, ref := range list.Messages {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, domain.NewUpstreamError(collaboratorGmail, domain.ErrMailboxFailed, 0, err.Error())
		}

		start := time.Now()
		msg, err := svc.Users.Messages.Get("me", ref.Id).Format("full").Context(ctx).Do()
		g.metrics.ObserveUpstream(ctx, collaboratorGmail, start, err)
		if err != nil {
			return nil, g.upstreamError(err, domain.ErrMailboxFailed)
		}

		summaries = append(summaries, summarize(msg))
	}

	return summaries, nil
}

// AccountEmail returns the mailbox address the access token belongs to
func (g *GmailClient) AccountEmail(ctx context.Context, accessToken string) (string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	svc, err := g.service(ctx, accessToken)
	if err != nil {
		return "", domain.NewUpstreamError(collaboratorGmail, domain.ErrAuthorizationFailed, 0, err.Error())
	}

	start := time.Now()
	profile, err := svc.Users.GetProfile("me").Context(ctx).Do()
	g.metrics.ObserveUpstream(ctx, collaboratorGmail, start, err)
	if err != nil {
		return "", g.upstreamError(err, domain.ErrAuthorizationFailed)
	}

	return profile.EmailAddress, nil
}

func (g *GmailClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *GmailClient) upstreamError(err error, sentinel error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			g.limiter.RecordRateLimitError(client.RetryAfter(apiErr.Header))
		}
		body := strings.TrimSpace(apiErr.Body)
		if body == "" {
			body = apiErr.Message
		}
		return domain.NewUpstreamError(collaboratorGmail, sentinel, apiErr.Code, body)
	}
	return domain.NewUpstreamError(collaboratorGmail, sentinel, 0, err.Error())
}

func summarize(msg *gmail.Message) domain.MailSummary {
	s := domain.MailSummary{ID: msg.Id}
	if msg.Payload == nil {
		return s
	}

	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			s.From = h.Value
		case "to":
			s.To = h.Value
		case "cc":
			s.Cc = h.Value
		case "bcc":
			s.Bcc = h.Value
		case "date":
			s.Date = h.Value
		case "subject":
			s.Subject = h.Value
		}
	}

	body := findPart(msg.Payload, "text/plain")
	if body == "" {
		body = findPart(msg.Payload, "text/html")
	}
	if body == "" && msg.Payload.Body != nil {
		body = decodeBody(msg.Payload.Body.Data)
	}

	if r := []rune(body); len(r) > bodyPreviewRunes {
		body = string(r[:bodyPreviewRunes])
	}
	s.Body = body

	return s
}

// findPart walks the MIME tree depth-first for the first part of mimeType with data
func findPart(part *gmail.MessagePart, mimeType string) string {
	if part == nil {
		return ""
	}
	if strings.EqualFold(part.MimeType, mimeType) && part.Body != nil && part.Body.Data != "" {
		return decodeBody(part.Body.Data)
	}
	for _, p := range part.Parts {
		if body := findPart(p, mimeType); body != "" {
			return body
		}
	}
	return ""
}

// decodeBody accepts URL-safe base64 with or without padding
func decodeBody(data string) string {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return string(b)
}
