package service

import (
	"context"
	"time"

	"github.com/prperemyshlev/outreach-service/internal/domain"
	"github.com/prperemyshlev/outreach-service/internal/dto"
	"github.com/prperemyshlev/outreach-service/internal/utils"
)

// AuthService defines methods for the mailbox authorization flow
type AuthService interface {
	BeginAuthorization(ctx context.Context, userID string) (string, error)
	CompleteAuthorization(ctx context.Context, code, state string) (*dto.AuthResponse, error)
	CredentialStatus(ctx context.Context, userID string) (*domain.CredentialStatus, error)
	ValidateSession(ctx context.Context, token string) (*utils.SessionClaims, error)
}

// CredentialProvider returns a credential whose access token is currently valid
type CredentialProvider interface {
	ValidCredential(ctx context.Context, userID string) (*domain.Credential, error)
}

// ProfileService defines methods for profile operations
type ProfileService interface {
	Save(ctx context.Context, userID, resumeText, additionalDetails string) (*domain.Profile, error)
	SaveResume(ctx context.Context, userID string, pdf []byte, additionalDetails string) (*domain.Profile, error)
	Get(ctx context.Context, userID string) (*domain.Profile, error)
}

// MailService defines methods for sending and reading mail as a user
type MailService interface {
	Send(ctx context.Context, userID, to, subject, body string) (string, error)
	Conversation(ctx context.Context, userID, contact string) ([]domain.MailSummary, error)
}

// OutreachService defines methods for outreach pipeline runs
type OutreachService interface {
	Run(ctx context.Context, userID, jobDescription string) (*domain.OutreachResult, error)
	History(ctx context.Context, userID string, limit int) ([]*domain.OutreachLogEntry, error)
}

// SearchService defines the search passthroughs
type SearchService interface {
	Web(ctx context.Context, query string) ([]domain.WebResult, error)
	People(ctx context.Context, query string, limit int) ([]domain.Candidate, error)
}

// ConnectionService defines methods for browser-automated connection requests
type ConnectionService interface {
	RequestConnections(ctx context.Context, query, message string) (*domain.ConnectionReport, error)
}

// IdentityProvider performs the authorization-code flow
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*domain.AuthorizationGrant, error)
}

// TokenRefresher exchanges a refresh token for a new access token
type TokenRefresher interface {
	Refresh(ctx context.Context, credential *domain.Credential) (domain.CredentialUpdate, error)
}

// Mailer sends and reads mail with an already valid credential
type Mailer interface {
	Send(ctx context.Context, credential *domain.Credential, to, subject, body string) (string, error)
	ListConversation(ctx context.Context, credential *domain.Credential, contact string) ([]domain.MailSummary, error)
}

// TextGenerator turns a prompt into free text
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// PeopleSearcher finds candidate profiles
type PeopleSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Candidate, error)
}

// WebSearcher runs web searches
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]domain.WebResult, error)
}

// TextExtractor extracts plain text from a PDF
type TextExtractor interface {
	ExtractText(ctx context.Context, pdf []byte) (string, error)
}

// ConnectionAutomator sends connection requests through a browser
type ConnectionAutomator interface {
	Connect(ctx context.Context, message string, profileURLs []string) ([]domain.ConnectionOutcome, error)
}

// StateStore records consumed authorization states
type StateStore interface {
	// Consume marks id as used and reports whether this was the first use
	Consume(ctx context.Context, id string, ttl time.Duration) (bool, error)
}

// Limiter decides whether a keyed request fits in its window
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}
