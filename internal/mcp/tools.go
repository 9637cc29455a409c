package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/prperemyshlev/outreach-service/internal/domain"
	"github.com/prperemyshlev/outreach-service/internal/service"
	"github.com/prperemyshlev/outreach-service/internal/utils"
)

// SaveProfileInput is the input schema for the save_profile tool.
type SaveProfileInput struct {
	UserID            string `json:"user_id" jsonschema:"the user the profile belongs to"`
	ResumeText        string `json:"resume_text" jsonschema:"plain-text resume of the sender"`
	AdditionalDetails string `json:"additional_details,omitempty" jsonschema:"free-form details: goals, locations, constraints"`
}

// SaveProfileOutput is the output schema for the save_profile tool.
type SaveProfileOutput struct {
	UserID           string `json:"user_id"`
	ProfileCompleted bool   `json:"profile_completed"`
}

// SendEmailInput is the input schema for the send_email tool.
type SendEmailInput struct {
	UserID  string `json:"user_id" jsonschema:"the user whose mailbox sends the message"`
	To      string `json:"to" jsonschema:"recipient email address"`
	Subject string `json:"subject" jsonschema:"subject line"`
	Body    string `json:"body" jsonschema:"plain-text body"`
}

// SendEmailOutput is the output schema for the send_email tool.
type SendEmailOutput struct {
	MessageID string `json:"message_id"`
}

// ReadConversationInput is the input schema for the read_conversation tool.
type ReadConversationInput struct {
	UserID  string `json:"user_id" jsonschema:"the user whose mailbox is read"`
	Contact string `json:"contact" jsonschema:"email address of the other party"`
}

// ReadConversationOutput is the output schema for the read_conversation tool.
type ReadConversationOutput struct {
	Messages []domain.MailSummary `json:"messages"`
	Count    int                  `json:"count"`
}

// RunOutreachInput is the input schema for the run_outreach tool.
type RunOutreachInput struct {
	UserID         string `json:"user_id" jsonschema:"the user running the outreach"`
	JobDescription string `json:"job_description" jsonschema:"the role to reach out about"`
}

// RunOutreachOutput is the output schema for the run_outreach tool. When no candidate
// could be contacted Error is set and Result still lists the failures.
type RunOutreachOutput struct {
	Result *domain.OutreachResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// CredentialStatusInput is the input schema for the credential_status tool.
type CredentialStatusInput struct {
	UserID string `json:"user_id" jsonschema:"the user to check"`
}

// CredentialStatusOutput is the output schema for the credential_status tool.
type CredentialStatusOutput struct {
	Connected  bool     `json:"connected"`
	Expired    bool     `json:"expired"`
	Incomplete bool     `json:"incomplete"`
	Missing    []string `json:"missing,omitempty"`
	Email      string   `json:"email,omitempty"`
	ExpiresAt  string   `json:"expires_at,omitempty"`
	Scopes     []string `json:"scopes,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "save_profile",
		Description: "Save the sender's resume text and additional details",
	}, s.handleSaveProfile)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "send_email",
		Description: "Send a plain-text email from the user's connected mailbox",
	}, s.handleSendEmail)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "read_conversation",
		Description: "List the latest messages exchanged with a contact",
	}, s.handleReadConversation)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "run_outreach",
		Description: "Find people relevant to a job description and email each of them a personalised message",
	}, s.handleRunOutreach)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "credential_status",
		Description: "Report whether the user's mailbox is connected and its token state",
	}, s.handleCredentialStatus)
}

func (s *Server) handleSaveProfile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SaveProfileInput,
) (*mcp.CallToolResult, SaveProfileOutput, error) {
	if err := checkUser(input.UserID); err != nil {
		return nil, SaveProfileOutput{}, err
	}

	profile, err := s.ports.Profiles.Save(ctx, input.UserID, input.ResumeText, input.AdditionalDetails)
	if err != nil {
		return nil, SaveProfileOutput{}, err
	}

	return nil, SaveProfileOutput{UserID: profile.UserID, ProfileCompleted: profile.ProfileCompleted}, nil
}

func (s *Server) handleSendEmail(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SendEmailInput,
) (*mcp.CallToolResult, SendEmailOutput, error) {
	if err := checkUser(input.UserID); err != nil {
		return nil, SendEmailOutput{}, err
	}

	messageID, err := s.ports.Mail.Send(ctx, input.UserID, input.To, input.Subject, input.Body)
	if err != nil {
		return nil, SendEmailOutput{}, err
	}

	return nil, SendEmailOutput{MessageID: messageID}, nil
}

func (s *Server) handleReadConversation(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReadConversationInput,
) (*mcp.CallToolResult, ReadConversationOutput, error) {
	if err := checkUser(input.UserID); err != nil {
		return nil, ReadConversationOutput{}, err
	}

	messages, err := s.ports.Mail.Conversation(ctx, input.UserID, input.Contact)
	if err != nil {
		return nil, ReadConversationOutput{}, err
	}
	if messages == nil {
		messages = []domain.MailSummary{}
	}

	return nil, ReadConversationOutput{Messages: messages, Count: len(messages)}, nil
}

func (s *Server) handleRunOutreach(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunOutreachInput,
) (*mcp.CallToolResult, RunOutreachOutput, error) {
	if err := checkUser(input.UserID); err != nil {
		return nil, RunOutreachOutput{}, err
	}

	result, err := s.ports.Outreach.Run(ctx, input.UserID, input.JobDescription)
	if err != nil {
		if errors.Is(err, domain.ErrNoneContacted) && result != nil {
			return nil, RunOutreachOutput{Result: result, Error: err.Error()}, nil
		}

		var se *service.StageError
		if errors.As(err, &se) {
			s.logger.Warn("Outreach tool failed", zap.String("user_id", input.UserID), zap.String("stage", se.Stage))
		}
		return nil, RunOutreachOutput{}, err
	}

	return nil, RunOutreachOutput{Result: result}, nil
}

func (s *Server) handleCredentialStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CredentialStatusInput,
) (*mcp.CallToolResult, CredentialStatusOutput, error) {
	if err := checkUser(input.UserID); err != nil {
		return nil, CredentialStatusOutput{}, err
	}

	status, err := s.ports.Auth.CredentialStatus(ctx, input.UserID)
	if err != nil {
		return nil, CredentialStatusOutput{}, err
	}

	output := CredentialStatusOutput{
		Connected:  status.Connected,
		Expired:    status.Expired,
		Incomplete: status.Incomplete,
		Missing:    status.Missing,
		Email:      status.Email,
		Scopes:     status.Scopes,
	}
	if !status.ExpiresAt.IsZero() {
		output.ExpiresAt = status.ExpiresAt.UTC().Format(time.RFC3339)
	}

	return nil, output, nil
}

func checkUser(userID string) error {
	if !utils.ValidateUserID(userID) {
		return domain.ValidationError("user_id is invalid")
	}
	return nil
}
