package service

import (
	"fmt"

	"github.com/prperemyshlev/outreach-service/internal/dto"
)

// generateAuthResponse issues an API session token for a user
func (s *authService) generateAuthResponse(userID, email string) (*dto.AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateSessionToken(userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	return &dto.AuthResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   s.jwtManager.SessionExpiry(),
		User: dto.UserInfo{
			ID:    userID,
			Email: email,
		},
	}, nil
}
