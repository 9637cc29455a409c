package mcp

import (
	"context"

	"github.com/prperemyshlev/outreach-service/internal/domain"
	"github.com/prperemyshlev/outreach-service/internal/dto"
	"github.com/prperemyshlev/outreach-service/internal/utils"
)

type mockProfileService struct {
	saved *domain.Profile
	err   error
}

func (m *mockProfileService) Save(_ context.Context, userID, resumeText, additionalDetails string) (*domain.Profile, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.saved = &domain.Profile{UserID: userID, ResumeText: resumeText, AdditionalDetails: additionalDetails, ProfileCompleted: true}
	return m.saved, nil
}

func (m *mockProfileService) SaveResume(context.Context, string, []byte, string) (*domain.Profile, error) {
	return nil, m.err
}

func (m *mockProfileService) Get(context.Context, string) (*domain.Profile, error) {
	return m.saved, m.err
}

type mockMailService struct {
	messageID string
	messages  []domain.MailSummary
	err       error
	to        string
}

func (m *mockMailService) Send(_ context.Context, _, to, _, _ string) (string, error) {
	m.to = to
	return m.messageID, m.err
}

func (m *mockMailService) Conversation(context.Context, string, string) ([]domain.MailSummary, error) {
	return m.messages, m.err
}

type mockOutreachService struct {
	result *domain.OutreachResult
	err    error
	job    string
}

func (m *mockOutreachService) Run(_ context.Context, _, jobDescription string) (*domain.OutreachResult, error) {
	m.job = jobDescription
	return m.result, m.err
}

func (m *mockOutreachService) History(context.Context, string, int) ([]*domain.OutreachLogEntry, error) {
	return nil, m.err
}

type mockAuthService struct {
	status *domain.CredentialStatus
	err    error
}

func (m *mockAuthService) BeginAuthorization(context.Context, string) (string, error) {
	return "", m.err
}

func (m *mockAuthService) CompleteAuthorization(context.Context, string, string) (*dto.AuthResponse, error) {
	return nil, m.err
}

func (m *mockAuthService) CredentialStatus(context.Context, string) (*domain.CredentialStatus, error) {
	return m.status, m.err
}

func (m *mockAuthService) ValidateSession(context.Context, string) (*utils.SessionClaims, error) {
	return nil, m.err
}
