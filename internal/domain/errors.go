package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredential is returned when the user never authorized mailbox access
	ErrNoCredential = errors.New("no credential record for user")

	// ErrIncompleteCredential is returned when a record exists but cannot be refreshed
	ErrIncompleteCredential = errors.New("credential record is incomplete")

	// ErrRefreshFailed is the parent of both refresh failure kinds
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrRefreshRejected means the refresh token was refused and the user must re-authorize
	ErrRefreshRejected = fmt.Errorf("refresh token rejected: %w", ErrRefreshFailed)

	// ErrRefreshUnavailable means the token endpoint could not be reached; retry later
	ErrRefreshUnavailable = fmt.Errorf("token endpoint unavailable: %w", ErrRefreshFailed)

	ErrProfileMissing   = errors.New("profile not found")
	ErrGenerationFailed = errors.New("text generation failed")
	ErrSearchFailed     = errors.New("people search failed")
	ErrNoCandidates     = errors.New("no candidates found")
	ErrSendFailed       = errors.New("email send failed")
	ErrMailboxFailed    = errors.New("mailbox read failed")
	ErrWebSearchFailed  = errors.New("web search failed")
	ErrExtractionFailed = errors.New("pdf text extraction failed")
	ErrAutomationFailed = errors.New("browser automation failed")
	ErrAddressUnknown   = errors.New("contact address could not be derived")

	// ErrNoneContacted is returned when every candidate of an outreach run failed
	ErrNoneContacted = errors.New("no candidate could be contacted")

	// ErrAuthorizationFailed is returned when the authorization code cannot be exchanged
	ErrAuthorizationFailed = errors.New("authorization code exchange failed")

	// ErrInvalidState is returned for a forged, expired or replayed authorization state
	ErrInvalidState = errors.New("invalid authorization state")

	// ErrValidation marks caller errors in request fields
	ErrValidation = errors.New("validation failed")
)

// UpstreamError carries the diagnostics of a failed external call.
// Err is the taxonomy sentinel the failure maps to.
type UpstreamError struct {
	Collaborator string
	StatusCode   int
	Body         string
	Err          error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s returned status %d: %s", e.Err, e.Collaborator, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: %s: %s", e.Err, e.Collaborator, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError builds an UpstreamError from a transport error.
func NewUpstreamError(collaborator string, sentinel error, statusCode int, body string) *UpstreamError {
	return &UpstreamError{
		Collaborator: collaborator,
		StatusCode:   statusCode,
		Body:         body,
		Err:          sentinel,
	}
}

// ValidationError wraps a message as an ErrValidation.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
