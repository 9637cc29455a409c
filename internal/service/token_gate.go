package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/prperemyshlev/outreach-service/internal/domain"
	"github.com/prperemyshlev/outreach-service/internal/repository"
	"github.com/prperemyshlev/outreach-service/pkg/observability"
)

// Refresh results reported to token_refresh_total
const (
	refreshSuccess     = "success"
	refreshRejected    = "rejected"
	refreshUnavailable = "unavailable"
	refreshPersistErr  = "persist_error"
)

// TokenGate hands out credentials with a currently valid access token, refreshing
// and persisting expired ones first.
type TokenGate struct {
	credentials repository.CredentialRepository
	refresher   TokenRefresher
	logger      *zap.Logger
	metrics     *observability.Metrics
	now         func() time.Time

	// collapses concurrent refreshes of the same user
	flights singleflight.Group
}

// NewTokenGate creates a new token gate
func NewTokenGate(
	credentials repository.CredentialRepository,
	refresher TokenRefresher,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *TokenGate {
	return &TokenGate{
		credentials: credentials,
		refresher:   refresher,
		logger:      logger,
		metrics:     metrics,
		now:         time.Now,
	}
}

// ValidCredential returns the stored credential of userID, refreshed if its access
// token has expired. Errors are ErrNoCredential, ErrIncompleteCredential, or an
// ErrRefreshFailed refinement.
func (g *TokenGate) ValidCredential(ctx context.Context, userID string) (*domain.Credential, error) {
	cred, err := g.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !cred.IsExpired(g.now()) {
		return cred, nil
	}

	// The refresh outlives a cancelled waiter so the other waiters still get its result.
	v, err, shared := g.flights.Do(userID, func() (interface{}, error) {
		return g.refresh(context.WithoutCancel(ctx), userID)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		g.logger.Debug("Joined in-flight token refresh", zap.String("user_id", userID))
	}

	return cloneCredential(v.(*domain.Credential)), nil
}

// cloneCredential copies c deeply enough that flight waiters cannot see each other's edits
func cloneCredential(c *domain.Credential) *domain.Credential {
	cp := *c
	cp.Scopes = slices.Clone(c.Scopes)
	return &cp
}

func (g *TokenGate) load(ctx context.Context, userID string) (*domain.Credential, error) {
	cred, err := g.credentials.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNoCredential)
		}
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}

	if missing := cred.MissingRefreshFields(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrIncompleteCredential, strings.Join(missing, ", "))
	}

	return cred, nil
}

// refresh re-reads the record first: a refresh that finished between the caller's
// read and this flight has already made the token valid.
func (g *TokenGate) refresh(ctx context.Context, userID string) (*domain.Credential, error) {
	cred, err := g.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !cred.IsExpired(g.now()) {
		return cred, nil
	}

	update, err := g.refresher.Refresh(ctx, cred)
	if err != nil {
		result := refreshUnavailable
		if errors.Is(err, domain.ErrRefreshRejected) {
			result = refreshRejected
		}
		g.metrics.TokenRefresh(ctx, result)
		g.logger.Warn("Token refresh failed",
			zap.String("user_id", userID),
			zap.String("result", result),
			zap.Error(err),
		)

		if !errors.Is(err, domain.ErrRefreshFailed) {
			return nil, fmt.Errorf("%w: %w", domain.ErrRefreshUnavailable, err)
		}
		return nil, err
	}

	if err := g.credentials.Update(ctx, userID, update); err != nil {
		g.metrics.TokenRefresh(ctx, refreshPersistErr)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNoCredential)
		}
		return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
	}

	g.metrics.TokenRefresh(ctx, refreshSuccess)
	g.logger.Info("Access token refreshed",
		zap.String("user_id", userID),
		zap.Time("expires_at", update.TokenExpiry),
	)

	cred.Apply(update)
	return cred, nil
}
