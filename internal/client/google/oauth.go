package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"github.com/prperemyshlev/outreach-service/internal/domain"
	"github.com/prperemyshlev/outreach-service/pkg/observability"
)

const (
	collaboratorIdentity = "identity_provider"
	collaboratorToken    = "token_endpoint"

	// used when the token endpoint omits expires_in
	defaultTokenLifetime = time.Hour
)

// OAuthConfig is the registered client used for the authorization-code flow
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenURI     string
	Scopes       []string
}

// OAuthClient performs the authorization-code exchange and refresh-token exchanges
type OAuthClient struct {
	config     *oauth2.Config
	mail       *GmailClient
	httpClient *http.Client
	metrics    *observability.Metrics
}

// NewOAuthClient creates the identity provider client. httpClient carries the timeout
// for token endpoint calls; mail resolves the account email after an exchange.
func NewOAuthClient(cfg OAuthConfig, mail *GmailClient, httpClient *http.Client, metrics *observability.Metrics) *OAuthClient {
	endpoint := googleoauth.Endpoint
	if cfg.TokenURI != "" {
		endpoint.TokenURL = cfg.TokenURI
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = domain.DefaultScopes
	}

	return &OAuthClient{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		mail:       mail,
		httpClient: httpClient,
		metrics:    metrics,
	}
}

// AuthCodeURL builds the consent URL. Offline access and a forced consent prompt make
// the provider return a refresh token on every authorization.
func (c *OAuthClient) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
}

// Exchange trades an authorization code for tokens and resolves the account email
func (c *OAuthClient) Exchange(ctx context.Context, code string) (*domain.AuthorizationGrant, error) {
	start := time.Now()
	token, err := c.config.Exchange(c.withHTTPClient(ctx), code)
	c.metrics.ObserveUpstream(ctx, collaboratorIdentity, start, err)
	if err != nil {
		return nil, classifyTokenError(collaboratorIdentity, err, domain.ErrAuthorizationFailed, domain.ErrAuthorizationFailed)
	}

	grant := &domain.AuthorizationGrant{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       tokenExpiry(token),
		Scopes:       grantedScopes(token, c.config.Scopes),
	}

	email, err := c.mail.AccountEmail(ctx, grant.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve account email: %w", err)
	}
	grant.Email = email

	return grant, nil
}

// Refresh mints a new access token using the exchange parameters stored on the
// credential itself, not the process configuration.
func (c *OAuthClient) Refresh(ctx context.Context, cred *domain.Credential) (domain.CredentialUpdate, error) {
	cfg := &oauth2.Config{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cred.TokenURI,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: cred.Scopes,
	}

	start := time.Now()
	token, err := cfg.TokenSource(c.withHTTPClient(ctx), &oauth2.Token{RefreshToken: cred.RefreshToken}).Token()
	c.metrics.ObserveUpstream(ctx, collaboratorToken, start, err)
	if err != nil {
		return domain.CredentialUpdate{}, classifyTokenError(collaboratorToken, err, domain.ErrRefreshRejected, domain.ErrRefreshUnavailable)
	}

	return domain.CredentialUpdate{
		AccessToken: token.AccessToken,
		TokenExpiry: tokenExpiry(token),
	}, nil
}

func (c *OAuthClient) withHTTPClient(ctx context.Context) context.Context {
	if c.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// classifyTokenError splits token endpoint failures: a 400/401 or invalid_grant means the
// grant was refused (rejectedErr), anything else (network, 5xx, 429) is transientErr.
func classifyTokenError(collaborator string, err, rejectedErr, transientErr error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return &domain.UpstreamError{Collaborator: collaborator, Body: err.Error(), Err: transientErr}
	}

	status := 0
	if re.Response != nil {
		status = re.Response.StatusCode
	}

	sentinel := transientErr
	if re.ErrorCode == "invalid_grant" || re.ErrorCode == "invalid_client" ||
		status == http.StatusBadRequest || status == http.StatusUnauthorized {
		sentinel = rejectedErr
	}

	body := strings.TrimSpace(string(re.Body))
	if body == "" {
		body = re.ErrorCode
	}

	return &domain.UpstreamError{Collaborator: collaborator, StatusCode: status, Body: body, Err: sentinel}
}

func tokenExpiry(token *oauth2.Token) time.Time {
	if token.Expiry.IsZero() {
		return time.Now().Add(defaultTokenLifetime).UTC()
	}
	return token.Expiry.UTC()
}

func grantedScopes(token *oauth2.Token, requested []string) []string {
	if raw, ok := token.Extra("scope").(string); ok && raw != "" {
		return strings.Fields(raw)
	}
	return requested
}
