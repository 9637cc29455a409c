package handler

import (
	"context"
	"errors"
	"time"

	"github.com/prperemyshlev/outreach-service/internal/domain"
	"github.com/prperemyshlev/outreach-service/internal/dto"
	"github.com/prperemyshlev/outreach-service/internal/utils"
)

const testSessionToken = "session-token"

type fakeAuth struct {
	authURL  string
	response *dto.AuthResponse
	status   *domain.CredentialStatus
	err      error

	userID string
	code   string
	state  string
}

func (f *fakeAuth) BeginAuthorization(_ context.Context, userID string) (string, error) {
	f.userID = userID
	if f.err != nil {
		return "", f.err
	}
	return f.authURL, nil
}

func (f *fakeAuth) CompleteAuthorization(_ context.Context, code, state string) (*dto.AuthResponse, error) {
	f.code, f.state = code, state
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeAuth) CredentialStatus(_ context.Context, userID string) (*domain.CredentialStatus, error) {
	f.userID = userID
	return f.status, f.err
}

func (f *fakeAuth) ValidateSession(_ context.Context, token string) (*utils.SessionClaims, error) {
	if token != testSessionToken {
		return nil, errors.New("invalid session token")
	}
	return &utils.SessionClaims{UserID: "user-1", Email: "me@example.com"}, nil
}

type fakeProfiles struct {
	profile *domain.Profile
	err     error
	pdf     []byte
	details string
}

func (f *fakeProfiles) Save(_ context.Context, userID, resumeText, additionalDetails string) (*domain.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Profile{UserID: userID, ResumeText: resumeText, AdditionalDetails: additionalDetails, ProfileCompleted: true}, nil
}

func (f *fakeProfiles) SaveResume(_ context.Context, userID string, pdf []byte, additionalDetails string) (*domain.Profile, error) {
	f.pdf, f.details = pdf, additionalDetails
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Profile{UserID: userID, ResumeText: "extracted", AdditionalDetails: additionalDetails}, nil
}

func (f *fakeProfiles) Get(_ context.Context, _ string) (*domain.Profile, error) {
	return f.profile, f.err
}

type fakeMail struct {
	messageID string
	messages  []domain.MailSummary
	err       error
}

func (f *fakeMail) Send(_ context.Context, _, _, _, _ string) (string, error) {
	return f.messageID, f.err
}

func (f *fakeMail) Conversation(_ context.Context, _, _ string) ([]domain.MailSummary, error) {
	return f.messages, f.err
}

type fakeOutreach struct {
	result  *domain.OutreachResult
	entries []*domain.OutreachLogEntry
	err     error
	limit   int
}

func (f *fakeOutreach) Run(_ context.Context, _, _ string) (*domain.OutreachResult, error) {
	return f.result, f.err
}

func (f *fakeOutreach) History(_ context.Context, _ string, limit int) ([]*domain.OutreachLogEntry, error) {
	f.limit = limit
	return f.entries, f.err
}

type fakeSearch struct {
	web    []domain.WebResult
	people []domain.Candidate
	err    error
	limit  int
}

func (f *fakeSearch) Web(_ context.Context, _ string) ([]domain.WebResult, error) {
	return f.web, f.err
}

func (f *fakeSearch) People(_ context.Context, _ string, limit int) ([]domain.Candidate, error) {
	f.limit = limit
	return f.people, f.err
}

type fakeConnections struct {
	report *domain.ConnectionReport
	err    error
}

func (f *fakeConnections) RequestConnections(_ context.Context, _, _ string) (*domain.ConnectionReport, error) {
	return f.report, f.err
}

// fakeLimiter allows the first n requests per key
type fakeLimiter struct {
	n      int
	counts map[string]int
	err    error
}

func (f *fakeLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, time.Duration, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	if f.counts == nil {
		f.counts = make(map[string]int)
	}
	f.counts[key]++
	if f.counts[key] > f.n {
		return false, 1500 * time.Millisecond, nil
	}
	return true, 0, nil
}
