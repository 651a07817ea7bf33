package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is the domain model for a durable login session.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	IPAddress string
	UserAgent string
	IsActive  bool
	CreatedAt time.Time
}

// IsExpired reports whether the session's expiry has passed.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
