package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prperemyshlev/outreach-service/internal/domain"
)

// credentialRepository implements CredentialRepository interface
type credentialRepository struct {
	db     *sql.DB
	cipher SecretCipher
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db *sql.DB, cipher SecretCipher) CredentialRepository {
	return &credentialRepository{db: db, cipher: cipher}
}

// Get retrieves the credential of a user
func (r *credentialRepository) Get(ctx context.Context, userID string) (*domain.Credential, error) {
	query := `
		SELECT user_id, email, access_token, refresh_token, token_uri, client_id, client_secret,
		       scopes, token_expiry, created_at, updated_at
		FROM credentials
		WHERE user_id = $1
	`

	c := &domain.Credential{}
	var scopes string
	var expiry, createdAt, updatedAt int64

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&c.UserID,
		&c.Email,
		&c.AccessToken,
		&c.RefreshToken,
		&c.TokenURI,
		&c.ClientID,
		&c.ClientSecret,
		&scopes,
		&expiry,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("credential for user %s not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	if err := r.open(c); err != nil {
		return nil, err
	}

	c.Scopes = strings.Fields(scopes)
	c.TokenExpiry = fromMillis(expiry)
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)

	return c, nil
}

// Put creates the credential or overwrites every field of an existing one
func (r *credentialRepository) Put(ctx context.Context, c *domain.Credential) error {
	query := `
		INSERT INTO credentials (user_id, email, access_token, refresh_token, token_uri, client_id,
		                         client_secret, scopes, token_expiry, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO UPDATE SET
			email = EXCLUDED.email,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_uri = EXCLUDED.token_uri,
			client_id = EXCLUDED.client_id,
			client_secret = EXCLUDED.client_secret,
			scopes = EXCLUDED.scopes,
			token_expiry = EXCLUDED.token_expiry,
			updated_at = EXCLUDED.updated_at
	`

	accessToken, refreshToken, clientSecret, err := r.seal(c)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, query,
		c.UserID,
		c.Email,
		accessToken,
		refreshToken,
		c.TokenURI,
		c.ClientID,
		clientSecret,
		strings.Join(c.Scopes, " "),
		toMillis(c.TokenExpiry),
		toMillis(c.CreatedAt),
		toMillis(c.UpdatedAt),
	)

	if err != nil {
		return fmt.Errorf("failed to put credential: %w", err)
	}

	return nil
}

// Update writes only the refreshed access token and expiry
func (r *credentialRepository) Update(ctx context.Context, userID string, u domain.CredentialUpdate) error {
	query := `
		UPDATE credentials
		SET access_token = $1, token_expiry = $2, updated_at = $3
		WHERE user_id = $4
	`

	accessToken, err := r.cipher.Encrypt(u.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to seal access token: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query,
		accessToken,
		toMillis(u.TokenExpiry),
		time.Now().UTC().UnixMilli(),
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("credential for user %s not found: %w", userID, ErrNotFound)
	}

	return nil
}

func (r *credentialRepository) seal(c *domain.Credential) (accessToken, refreshToken, clientSecret string, err error) {
	if accessToken, err = r.cipher.Encrypt(c.AccessToken); err != nil {
		return "", "", "", fmt.Errorf("failed to seal access token: %w", err)
	}
	if refreshToken, err = r.cipher.Encrypt(c.RefreshToken); err != nil {
		return "", "", "", fmt.Errorf("failed to seal refresh token: %w", err)
	}
	if clientSecret, err = r.cipher.Encrypt(c.ClientSecret); err != nil {
		return "", "", "", fmt.Errorf("failed to seal client secret: %w", err)
	}
	return accessToken, refreshToken, clientSecret, nil
}

func (r *credentialRepository) open(c *domain.Credential) error {
	var err error
	if c.AccessToken, err = r.cipher.Decrypt(c.AccessToken); err != nil {
		return fmt.Errorf("failed to open access token: %w", err)
	}
	if c.RefreshToken, err = r.cipher.Decrypt(c.RefreshToken); err != nil {
		return fmt.Errorf("failed to open refresh token: %w", err)
	}
	if c.ClientSecret, err = r.cipher.Decrypt(c.ClientSecret); err != nil {
		return fmt.Errorf("failed to open client secret: %w", err)
	}
	return nil
}
