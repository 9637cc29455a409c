package dto

import "github.com/prperemyshlev/outreach-service/internal/domain"

// AuthResponse represents an authentication response
type AuthResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	User        UserInfo `json:"user"`
}

// UserInfo represents user information in response
type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// LoginResponse carries the consent URL for clients that do not follow redirects
type LoginResponse struct {
	AuthURL string `json:"auth_url"`
}

// SendEmailResponse represents a sent message
type SendEmailResponse struct {
	MessageID string `json:"message_id"`
}

// ConversationResponse lists the messages exchanged with one contact
type ConversationResponse struct {
	Contact  string               `json:"contact"`
	Messages []domain.MailSummary `json:"messages"`
}

// WebSearchResponse represents web search results
type WebSearchResponse struct {
	Query   string             `json:"query"`
	Results []domain.WebResult `json:"results"`
}

// PeopleSearchResponse represents people search results
type PeopleSearchResponse struct {
	Query   string             `json:"query"`
	Results []domain.Candidate `json:"results"`
}

// HistoryResponse lists outreach log entries, newest first
type HistoryResponse struct {
	Entries []*domain.OutreachLogEntry `json:"entries"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response. Stage names the pipeline stage or
// collaborator that failed, when there is one.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Stage   string      `json:"stage,omitempty"`
	Details interface{} `json:"details,omitempty"`
}
