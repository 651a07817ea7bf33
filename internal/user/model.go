package user

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"subtrack/internal/database"
)

// User is the domain model for a registered user.
// The password hash is never serialized to JSON.
type User struct {
	ID            uuid.UUID                  `json:"id"`
	Email         string                     `json:"email"`
	PasswordHash  string                     `json:"-"`
	FirstName     string                     `json:"first_name"`
	LastName      string                     `json:"last_name"`
	IsActive      bool                       `json:"is_active"`
	EmailVerified bool                       `json:"email_verified"`
	AvatarURL     *string                    `json:"avatar_url,omitempty"`
	Timezone      string                     `json:"timezone"`
	Currency      string                     `json:"currency"`
	DateFormat    string                     `json:"date_format"`
	Notifications database.NotificationPrefs `json:"notifications"`
	MonthlyBudget *float64                   `json:"monthly_budget,omitempty"`
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
}

// NormalizeEmail lowercases and trims an email address. All lookups and the
// unique constraint operate on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
