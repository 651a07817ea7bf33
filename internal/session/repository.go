package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"subtrack/internal/database"
)

var ErrNotFound = errors.New("session not found")

// Repository handles session persistence. Sessions are soft-invalidated,
// never deleted.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new session row recording the issuing token hash and
// client network metadata.
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time, ip, userAgent string) (*Session, error) {
	dbSession := &database.Session{
		UserID:    userID,
		TokenHash: HashToken(token),
		ExpiresAt: expiresAt,
		IPAddress: ip,
		UserAgent: userAgent,
		IsActive:  true,
	}

	_, err := r.db.NewInsert().
		Model(dbSession).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return mapDBSessionToModel(dbSession), nil
}

// HasActiveForUser reports whether the user owns at least one active,
// unexpired session.
func (r *Repository) HasActiveForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	count, err := r.db.NewSelect().
		Model((*database.Session)(nil)).
		Where("user_id = ?", userID).
		Where("is_active = ?", true).
		Where("expires_at > ?", time.Now()).
		Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count active sessions: %w", err)
	}

	return count > 0, nil
}

// DeactivateAllForUser marks every active session of the user inactive
// (bulk revoke, all devices). Succeeds even when no sessions existed.
func (r *Repository) DeactivateAllForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.NewUpdate().
		Model((*database.Session)(nil)).
		Set("is_active = ?", false).
		Where("user_id = ?", userID).
		Where("is_active = ?", true).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to deactivate sessions: %w", err)
	}

	return nil
}

// HashToken returns the hex-encoded SHA-256 of a token. Only the hash is
// stored; the raw token never touches the database.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// mapDBSessionToModel converts database model to domain model
func mapDBSessionToModel(dbs *database.Session) *Session {
	return &Session{
		ID:        dbs.ID,
		UserID:    dbs.UserID,
		TokenHash: dbs.TokenHash,
		ExpiresAt: dbs.ExpiresAt,
		IPAddress: dbs.IPAddress,
		UserAgent: dbs.UserAgent,
		IsActive:  dbs.IsActive,
		CreatedAt: dbs.CreatedAt,
	}
}
