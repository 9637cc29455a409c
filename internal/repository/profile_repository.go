package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/outreach-service/internal/domain"
)

// profileRepository implements ProfileRepository interface
type profileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sql.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// Save upserts the profile. profile_completed is set on every call, updates included.
func (r *profileRepository) Save(ctx context.Context, p *domain.Profile) error {
	query := `
		INSERT INTO profiles (user_id, resume_text, additional_details, profile_completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			resume_text = EXCLUDED.resume_text,
			additional_details = EXCLUDED.additional_details,
			profile_completed = EXCLUDED.profile_completed,
			updated_at = EXCLUDED.updated_at
	`

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.ProfileCompleted = true

	_, err := r.db.ExecContext(ctx, query,
		p.UserID,
		p.ResumeText,
		p.AdditionalDetails,
		p.ProfileCompleted,
		toMillis(p.CreatedAt),
		toMillis(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}

// Get retrieves the profile of a user
func (r *profileRepository) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	query := `
		SELECT user_id, resume_text, additional_details, profile_completed, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	p := &domain.Profile{}
	var createdAt, updatedAt int64

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&p.ResumeText,
		&p.AdditionalDetails,
		&p.ProfileCompleted,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile for user %s not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)

	return p, nil
}
