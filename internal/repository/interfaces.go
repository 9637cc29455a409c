package repository

import (
	"context"

	"github.com/prperemyshlev/outreach-service/internal/domain"
)

// CredentialRepository persists one delegated mailbox credential per user
type CredentialRepository interface {
	Get(ctx context.Context, userID string) (*domain.Credential, error)
	// Put creates or fully overwrites the record
	Put(ctx context.Context, credential *domain.Credential) error
	// Update merges refreshed token fields; ErrNotFound if no record exists
	Update(ctx context.Context, userID string, update domain.CredentialUpdate) error
}

// ProfileRepository defines methods for profile operations
type ProfileRepository interface {
	Save(ctx context.Context, profile *domain.Profile) error
	Get(ctx context.Context, userID string) (*domain.Profile, error)
}

// OutreachLogRepository defines methods for outreach history operations
type OutreachLogRepository interface {
	Record(ctx context.Context, entry *domain.OutreachLogEntry) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.OutreachLogEntry, error)
}

// SecretCipher seals token material at rest
type SecretCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}
