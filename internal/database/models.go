package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NotificationPrefs is stored as a JSONB column on the users table.
type NotificationPrefs struct {
	BillReminders  bool `json:"bill_reminders"`
	BudgetAlerts   bool `json:"budget_alerts"`
	WeeklyReports  bool `json:"weekly_reports"`
	PriceIncreases bool `json:"price_increases"`
}

// User is the durable user row. The email column carries a unique
// constraint; duplicate registration must fail at the database level.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID            uuid.UUID         `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email         string            `bun:"email,notnull,unique"`
	PasswordHash  string            `bun:"password_hash,notnull"`
	FirstName     string            `bun:"first_name,notnull"`
	LastName      string            `bun:"last_name,notnull"`
	IsActive      bool              `bun:"is_active,notnull,default:true"`
	EmailVerified bool              `bun:"email_verified,notnull,default:false"`
	AvatarURL     *string           `bun:"avatar_url"`
	Timezone      string            `bun:"timezone,notnull,default:'UTC'"`
	Currency      string            `bun:"currency,notnull,default:'USD'"`
	DateFormat    string            `bun:"date_format,notnull,default:'MM/DD/YYYY'"`
	Notifications NotificationPrefs `bun:"notifications,type:jsonb"`
	MonthlyBudget *float64          `bun:"monthly_budget"`
	CreatedAt     time.Time         `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt     time.Time         `bun:"updated_at,notnull,default:current_timestamp"`
}

// Session is a durable login session. Rows are never deleted;
// logout flips is_active on every active row owned by the user.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID        uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid"`
	TokenHash string    `bun:"token_hash,notnull"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	IPAddress string    `bun:"ip_address"`
	UserAgent string    `bun:"user_agent"`
	IsActive  bool      `bun:"is_active,notnull,default:true"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
