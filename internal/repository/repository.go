package repository

import (
	"database/sql"
	"time"
)

// Repositories holds all repository interfaces
type Repositories struct {
	Credential  CredentialRepository
	Profile     ProfileRepository
	OutreachLog OutreachLogRepository
}

// NewRepositories creates all repositories. Queries use only $N placeholders in argument
// order and ON CONFLICT upserts, so the same SQL runs on PostgreSQL and sqlite.
func NewRepositories(db *sql.DB, cipher SecretCipher) *Repositories {
	return &Repositories{
		Credential:  NewCredentialRepository(db, cipher),
		Profile:     NewProfileRepository(db),
		OutreachLog: NewOutreachLogRepository(db),
	}
}

// timestamps are stored as unix milliseconds; zero time maps to 0
func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
