package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/prperemyshlev/outreach-service/internal/domain"
	"github.com/prperemyshlev/outreach-service/internal/utils"
)

type mailService struct {
	gate   CredentialProvider
	mailer Mailer
	logger *zap.Logger
}

// NewMailService creates a new mail service
func NewMailService(gate CredentialProvider, mailer Mailer, logger *zap.Logger) MailService {
	return &mailService{
		gate:   gate,
		mailer: mailer,
		logger: logger,
	}
}

// Send dispatches one message as userID and returns the provider message id
func (s *mailService) Send(ctx context.Context, userID, to, subject, body string) (string, error) {
	to = utils.SanitizeEmail(to)
	if !utils.ValidateEmail(to) {
		return "", domain.ValidationError("invalid recipient %q", to)
	}
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(body) == "" {
		return "", domain.ValidationError("subject and body are required")
	}

	cred, err := s.gate.ValidCredential(ctx, userID)
	if err != nil {
		return "", err
	}

	id, err := s.mailer.Send(ctx, cred, to, subject, body)
	if err != nil {
		return "", err
	}

	s.logger.Info("Email sent",
		zap.String("user_id", userID),
		zap.String("message_id", id),
	)
	return id, nil
}

// Conversation returns the latest messages exchanged with contact
func (s *mailService) Conversation(ctx context.Context, userID, contact string) ([]domain.MailSummary, error) {
	contact = utils.SanitizeEmail(contact)
	if !utils.ValidateEmail(contact) {
		return nil, domain.ValidationError("invalid contact %q", contact)
	}

	cred, err := s.gate.ValidCredential(ctx, userID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.mailer.ListConversation(ctx, cred, contact)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation: %w", err)
	}
	return msgs, nil
}
