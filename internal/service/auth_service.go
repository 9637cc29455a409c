package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/prperemyshlev/outreach-service/internal/domain"
	"github.com/prperemyshlev/outreach-service/internal/dto"
	"github.com/prperemyshlev/outreach-service/internal/repository"
	"github.com/prperemyshlev/outreach-service/internal/utils"
)

// ClientRegistration holds the refresh exchange parameters stored with every credential
type ClientRegistration struct {
	TokenURI     string
	ClientID     string
	ClientSecret string
}

// authService implements AuthService interface
type authService struct {
	credentials  repository.CredentialRepository
	identity     IdentityProvider
	states       StateStore
	jwtManager   *utils.JWTManager
	registration ClientRegistration
	logger       *zap.Logger
	now          func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	credentials repository.CredentialRepository,
	identity IdentityProvider,
	states StateStore,
	jwtManager *utils.JWTManager,
	registration ClientRegistration,
	logger *zap.Logger,
) AuthService {
	return &authService{
		credentials:  credentials,
		identity:     identity,
		states:       states,
		jwtManager:   jwtManager,
		registration: registration,
		logger:       logger,
		now:          time.Now,
	}
}

// BeginAuthorization returns the consent URL carrying a signed, single-use state
func (s *authService) BeginAuthorization(ctx context.Context, userID string) (string, error) {
	if !utils.ValidateUserID(userID) {
		return "", domain.ValidationError("invalid user_id %q", userID)
	}

	state, _, err := s.jwtManager.GenerateState(userID)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	return s.identity.AuthCodeURL(state), nil
}

// CompleteAuthorization verifies the callback state, exchanges the code, stores the
// full credential record and opens an API session for the user.
func (s *authService) CompleteAuthorization(ctx context.Context, code, state string) (*dto.AuthResponse, error) {
	if strings.TrimSpace(code) == "" {
		return nil, domain.ValidationError("code is required")
	}
	if strings.TrimSpace(state) == "" {
		return nil, domain.ValidationError("state is required")
	}

	claims, err := s.jwtManager.ValidateState(state)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidState, err)
	}

	first, err := s.states.Consume(ctx, claims.JTI, claims.Exp.Sub(s.now()))
	if err != nil {
		return nil, err
	}
	if !first {
		return nil, fmt.Errorf("%w: state already used", domain.ErrInvalidState)
	}

	grant, err := s.identity.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	refreshToken := grant.RefreshToken
	if refreshToken == "" {
		// the provider omits the refresh token on re-consent; keep the one we have
		if existing, err := s.credentials.Get(ctx, claims.UserID); err == nil {
			refreshToken = existing.RefreshToken
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to load credential: %w", err)
		}
	}

	scopes := grant.Scopes
	if len(scopes) == 0 {
		scopes = domain.DefaultScopes
	}

	cred := &domain.Credential{
		UserID:       claims.UserID,
		Email:        grant.Email,
		AccessToken:  grant.AccessToken,
		RefreshToken: refreshToken,
		TokenURI:     s.registration.TokenURI,
		ClientID:     s.registration.ClientID,
		ClientSecret: s.registration.ClientSecret,
		Scopes:       scopes,
		TokenExpiry:  grant.Expiry,
	}

	if err := s.credentials.Put(ctx, cred); err != nil {
		return nil, fmt.Errorf("failed to store credential: %w", err)
	}

	if missing := cred.MissingRefreshFields(); len(missing) > 0 {
		s.logger.Warn("Stored credential cannot be refreshed",
			zap.String("user_id", cred.UserID),
			zap.Strings("missing", missing),
		)
	}

	s.logger.Info("Mailbox authorized",
		zap.String("user_id", cred.UserID),
		zap.String("email", cred.Email),
	)

	return s.generateAuthResponse(cred.UserID, cred.Email)
}

// CredentialStatus describes the stored credential without refreshing it
func (s *authService) CredentialStatus(ctx context.Context, userID string) (*domain.CredentialStatus, error) {
	cred, err := s.credentials.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &domain.CredentialStatus{}, nil
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	missing := cred.MissingRefreshFields()
	return &domain.CredentialStatus{
		Connected:  len(missing) == 0,
		Expired:    cred.IsExpired(s.now()),
		Incomplete: len(missing) > 0,
		Missing:    missing,
		Email:      cred.Email,
		ExpiresAt:  cred.TokenExpiry,
		Scopes:     cred.Scopes,
	}, nil
}

// ValidateSession validates an API session token
func (s *authService) ValidateSession(ctx context.Context, token string) (*utils.SessionClaims, error) {
	claims, err := s.jwtManager.ValidateSessionToken(token)
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	return claims, nil
}
