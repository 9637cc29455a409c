package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/outreach-service/internal/domain"
)

const defaultHistoryLimit = 50

// outreachLogRepository implements OutreachLogRepository interface
type outreachLogRepository struct {
	db *sql.DB
}

// NewOutreachLogRepository creates a new outreach log repository
func NewOutreachLogRepository(db *sql.DB) OutreachLogRepository {
	return &outreachLogRepository{db: db}
}

// Record appends one candidate outcome
func (r *outreachLogRepository) Record(ctx context.Context, e *domain.OutreachLogEntry) error {
	query := `
		INSERT INTO outreach_log (id, user_id, run_id, candidate_name, profile_url, email, subject,
		                          status, stage, error, message_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	// Generate UUID if not provided
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.UserID,
		e.RunID,
		e.CandidateName,
		e.ProfileURL,
		e.Email,
		e.Subject,
		e.Status,
		e.Stage,
		e.Error,
		e.MessageID,
		toMillis(e.CreatedAt),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("outreach log entry %s already exists: %w", e.ID, ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to record outreach: %w", err)
	}

	return nil
}

// ListByUser returns the newest entries of a user first
func (r *outreachLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.OutreachLogEntry, error) {
	query := `
		SELECT id, user_id, run_id, candidate_name, profile_url, email, subject,
		       status, stage, error, message_id, created_at
		FROM outreach_log
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`

	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get outreach log by user id: %w", err)
	}
	defer rows.Close()

	var entries []*domain.OutreachLogEntry
	for rows.Next() {
		e := &domain.OutreachLogEntry{}
		var createdAt int64

		err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.RunID,
			&e.CandidateName,
			&e.ProfileURL,
			&e.Email,
			&e.Subject,
			&e.Status,
			&e.Stage,
			&e.Error,
			&e.MessageID,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outreach log entry: %w", err)
		}

		e.CreatedAt = fromMillis(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outreach log: %w", err)
	}

	return entries, nil
}
