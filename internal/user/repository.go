package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"subtrack/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Repository handles user data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user. The email is stored normalized; a duplicate
// violates the unique constraint and surfaces as ErrDuplicateEmail.
func (r *Repository) Create(ctx context.Context, email, passwordHash, firstName, lastName string) (*User, error) {
	dbUser := &database.User{
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		IsActive:     true,
		Timezone:     "UTC",
		Currency:     "USD",
		DateFormat:   "MM/DD/YYYY",
		Notifications: database.NotificationPrefs{
			BillReminders:  true,
			BudgetAlerts:   true,
			PriceIncreases: true,
		},
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by normalized email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", NormalizeEmail(email)).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// ProfileUpdate carries optional profile fields; nil means leave unchanged.
type ProfileUpdate struct {
	FirstName     *string
	LastName      *string
	AvatarURL     *string
	Timezone      *string
	Currency      *string
	DateFormat    *string
	Notifications *database.NotificationPrefs
	MonthlyBudget *float64
}

// UpdateProfile applies the non-nil fields of the update and stamps updated_at.
func (r *Repository) UpdateProfile(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) error {
	q := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID)

	if upd.FirstName != nil {
		q = q.Set("first_name = ?", *upd.FirstName)
	}
	if upd.LastName != nil {
		q = q.Set("last_name = ?", *upd.LastName)
	}
	if upd.AvatarURL != nil {
		q = q.Set("avatar_url = ?", *upd.AvatarURL)
	}
	if upd.Timezone != nil {
		q = q.Set("timezone = ?", *upd.Timezone)
	}
	if upd.Currency != nil {
		q = q.Set("currency = ?", *upd.Currency)
	}
	if upd.DateFormat != nil {
		q = q.Set("date_format = ?", *upd.DateFormat)
	}
	if upd.Notifications != nil {
		q = q.Set("notifications = ?", *upd.Notifications)
	}
	if upd.MonthlyBudget != nil {
		q = q.Set("monthly_budget = ?", *upd.MonthlyBudget)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:            dbu.ID,
		Email:         dbu.Email,
		PasswordHash:  dbu.PasswordHash,
		FirstName:     dbu.FirstName,
		LastName:      dbu.LastName,
		IsActive:      dbu.IsActive,
		EmailVerified: dbu.EmailVerified,
		AvatarURL:     dbu.AvatarURL,
		Timezone:      dbu.Timezone,
		Currency:      dbu.Currency,
		DateFormat:    dbu.DateFormat,
		Notifications: dbu.Notifications,
		MonthlyBudget: dbu.MonthlyBudget,
		CreatedAt:     dbu.CreatedAt,
		UpdatedAt:     dbu.UpdatedAt,
	}
}
