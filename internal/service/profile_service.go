package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/prperemyshlev/outreach-service/internal/domain"
	"github.com/prperemyshlev/outreach-service/internal/repository"
)

type profileService struct {
	profiles  repository.ProfileRepository
	extractor TextExtractor
	logger    *zap.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(profiles repository.ProfileRepository, extractor TextExtractor, logger *zap.Logger) ProfileService {
	return &profileService{
		profiles:  profiles,
		extractor: extractor,
		logger:    logger,
	}
}

// Save upserts the resume text and details; the stored profile is always marked completed
func (s *profileService) Save(ctx context.Context, userID, resumeText, additionalDetails string) (*domain.Profile, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, domain.ValidationError("resume_text is required")
	}

	p := &domain.Profile{
		UserID:            userID,
		ResumeText:        resumeText,
		AdditionalDetails: additionalDetails,
	}
	if err := s.profiles.Save(ctx, p); err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

// SaveResume extracts the text of an uploaded PDF resume and saves it
func (s *profileService) SaveResume(ctx context.Context, userID string, pdf []byte, additionalDetails string) (*domain.Profile, error) {
	if s.extractor == nil {
		return nil, fmt.Errorf("%w: no extractor configured", domain.ErrExtractionFailed)
	}

	text, err := s.extractor.ExtractText(ctx, pdf)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Resume extracted",
		zap.String("user_id", userID),
		zap.Int("chars", len(text)),
	)

	return s.Save(ctx, userID, text, additionalDetails)
}

// Get returns the profile of a user
func (s *profileService) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, domain.ErrProfileMissing)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}
