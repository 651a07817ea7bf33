package session

import (
	"time"
)

// NotificationPrefs mirrors the per-user notification toggles.
type NotificationPrefs struct {
	BillReminders  bool `json:"bill_reminders"`
	BudgetAlerts   bool `json:"budget_alerts"`
	WeeklyReports  bool `json:"weekly_reports"`
	PriceIncreases bool `json:"price_increases"`
}

// Preferences is the nested preferences object of a client profile.
type Preferences struct {
	Currency            string            `json:"currency"`
	Timezone            string            `json:"timezone"`
	FiscalMonthStartDay int               `json:"fiscal_month_start_day"`
	DarkMode            bool              `json:"dark_mode"`
	Notifications       NotificationPrefs `json:"notifications"`
	DataRetentionDays   int               `json:"data_retention_days"`
}

// Plan describes the profile's subscription plan.
type Plan struct {
	Tier       string    `json:"tier"`
	ValidUntil time.Time `json:"valid_until"`
	Features   []string  `json:"features"`
}

// Profile is the local, client-owned user profile.
type Profile struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	Preferences Preferences `json:"preferences"`
	Plan        Plan        `json:"plan"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ProfileUpdate carries optional profile fields; nil means leave unchanged.
type ProfileUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// PreferencesUpdate carries optional preference fields; nil means leave
// unchanged. Partial-merge semantics: only provided fields are touched.
type PreferencesUpdate struct {
	Currency            *string            `json:"currency,omitempty"`
	Timezone            *string            `json:"timezone,omitempty"`
	FiscalMonthStartDay *int               `json:"fiscal_month_start_day,omitempty"`
	DarkMode            *bool              `json:"dark_mode,omitempty"`
	Notifications       *NotificationPrefs `json:"notifications,omitempty"`
	DataRetentionDays   *int               `json:"data_retention_days,omitempty"`
}

// DefaultPreferences returns the preferences a freshly created profile
// starts with: USD, runtime timezone, fiscal month starting on the 1st,
// all notifications enabled except weekly reports, one-year retention.
func DefaultPreferences() Preferences {
	tz := "UTC"
	if loc := time.Now().Location(); loc != nil {
		tz = loc.String()
	}

	return Preferences{
		Currency:            "USD",
		Timezone:            tz,
		FiscalMonthStartDay: 1,
		DarkMode:            false,
		Notifications: NotificationPrefs{
			BillReminders:  true,
			BudgetAlerts:   true,
			WeeklyReports:  false,
			PriceIncreases: true,
		},
		DataRetentionDays: 365,
	}
}

// FreePlan returns the one-year-validity free-tier plan assigned at sign-up.
func FreePlan(now time.Time) Plan {
	return Plan{
		Tier:       "free",
		ValidUntil: now.AddDate(1, 0, 0),
		Features:   []string{"budget_pods", "transactions", "subscriptions"},
	}
}
