package domain

import (
	"strings"
	"time"
)

// Mailbox scopes requested from the identity provider.
const (
	ScopeGmailSend     = "https://www.googleapis.com/auth/gmail.send"
	ScopeGmailReadonly = "https://www.googleapis.com/auth/gmail.readonly"
)

// DefaultScopes is the fixed permission set granted on authorization.
var DefaultScopes = []string{ScopeGmailSend, ScopeGmailReadonly}

// Credential represents the delegated mailbox access record of a user
type Credential struct {
	UserID       string    `json:"user_id" db:"user_id"`
	Email        string    `json:"email" db:"email"`
	AccessToken  string    `json:"-" db:"access_token"`
	RefreshToken string    `json:"-" db:"refresh_token"`
	TokenURI     string    `json:"token_uri" db:"token_uri"`
	ClientID     string    `json:"client_id" db:"client_id"`
	ClientSecret string    `json:"-" db:"client_secret"`
	Scopes       []string  `json:"scopes" db:"scopes"`
	TokenExpiry  time.Time `json:"token_expiry" db:"token_expiry"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// CredentialUpdate holds the fields a token refresh is allowed to change
type CredentialUpdate struct {
	AccessToken string
	TokenExpiry time.Time
}

// IsExpired checks if the access token must be treated as invalid at now.
// A zero expiry is treated as expired.
func (c *Credential) IsExpired(now time.Time) bool {
	return !now.Before(c.TokenExpiry)
}

// MissingRefreshFields lists the refresh exchange parameters that are empty.
func (c *Credential) MissingRefreshFields() []string {
	var missing []string
	if strings.TrimSpace(c.RefreshToken) == "" {
		missing = append(missing, "refresh_token")
	}
	if strings.TrimSpace(c.TokenURI) == "" {
		missing = append(missing, "token_uri")
	}
	if strings.TrimSpace(c.ClientID) == "" {
		missing = append(missing, "client_id")
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		missing = append(missing, "client_secret")
	}
	return missing
}

// Apply merges a refresh result into the credential, leaving every other field intact.
func (c *Credential) Apply(u CredentialUpdate) {
	c.AccessToken = u.AccessToken
	c.TokenExpiry = u.TokenExpiry
}

// AuthorizationGrant is the result of a completed authorization-code exchange
type AuthorizationGrant struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	Scopes       []string
	Email        string
}

// CredentialStatus describes the mailbox connection of a user
type CredentialStatus struct {
	Connected  bool      `json:"connected"`
	Expired    bool      `json:"expired"`
	Incomplete bool      `json:"incomplete"`
	Missing    []string  `json:"missing,omitempty"`
	Email      string    `json:"email,omitempty"`
	ExpiresAt  time.Time `json:"expires_at,omitempty"`
	Scopes     []string  `json:"scopes,omitempty"`
}
