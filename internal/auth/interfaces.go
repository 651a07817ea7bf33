package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"subtrack/internal/session"
	"subtrack/internal/user"
)

// TokenService defines the interface for bearer token creation and validation.
type TokenService interface {
	CreateToken(userID uuid.UUID, email string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// UserRepository is the user persistence surface the service depends on.
type UserRepository interface {
	Create(ctx context.Context, email, passwordHash, firstName, lastName string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, upd user.ProfileUpdate) error
}

// SessionRepository is the session persistence surface the service and
// the auth middleware depend on.
type SessionRepository interface {
	Create(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time, ip, userAgent string) (*session.Session, error)
	HasActiveForUser(ctx context.Context, userID uuid.UUID) (bool, error)
	DeactivateAllForUser(ctx context.Context, userID uuid.UUID) error
}

// EmailService defines the interface for outbound email.
type EmailService interface {
	SendWelcomeEmail(ctx context.Context, toEmail, firstName string) error
}

// RateLimiter guards the public endpoints. Implemented by ratelimit.Limiter.
type RateLimiter interface {
	CheckIPRateLimit(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequest(ctx context.Context, ip, purpose string) error
}
