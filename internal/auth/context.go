package auth

import (
	"context"

	"github.com/google/uuid"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	UserIDContextKey    ContextKey = "user_id"
	UserEmailContextKey ContextKey = "user_email"
)

// GetUserIDFromContext returns the authenticated user's ID from the request
// context, set by the auth middleware.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(UserIDContextKey).(uuid.UUID)
	return id, ok
}

// GetUserEmailFromContext returns the authenticated user's email from the
// request context.
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailContextKey).(string)
	return email, ok
}

// parseUserID parses the string user id carried in token claims.
func parseUserID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}
