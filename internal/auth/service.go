package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"
	"unicode"

	"subtrack/internal/logging"
	"subtrack/internal/password"
	"subtrack/internal/user"
)

// AuthResult is returned by Register and Login: the sanitized user, the
// issued bearer token, and its lifetime in seconds.
type AuthResult struct {
	User      *user.User `json:"user"`
	Token     string     `json:"token"`
	ExpiresIn int64      `json:"expires_in"`
}

// TokenResult is returned by Refresh: a fresh token only, no new session.
type TokenResult struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// ClientMeta carries network metadata recorded on every issued session.
type ClientMeta struct {
	IP        string
	UserAgent string
}

// Service handles authentication business logic
type Service struct {
	userRepo      UserRepository
	sessionRepo   SessionRepository
	tokenService  TokenService
	emailService  EmailService
	logger        *logging.Logger
	tokenDuration time.Duration
}

func NewService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	tokenService TokenService,
	emailService EmailService,
	logger *logging.Logger,
	tokenDuration time.Duration,
) *Service {
	return &Service{
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		tokenService:  tokenService,
		emailService:  emailService,
		logger:        logger,
		tokenDuration: tokenDuration,
	}
}

// Register creates a new user account, issues a bearer token, and records
// one session row with the client's network metadata.
func (s *Service) Register(ctx context.Context, email, pass, firstName, lastName string, meta ClientMeta) (*AuthResult, error) {
	if verr := validateRegistration(email, pass, firstName, lastName); verr != nil {
		return nil, verr
	}

	passwordHash, err := password.Hash(pass)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.userRepo.Create(ctx, email, passwordHash, firstName, lastName)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	result, err := s.issueSession(ctx, newUser, meta)
	if err != nil {
		return nil, err
	}

	// Send welcome email in a goroutine (non-blocking); registration never
	// fails on email errors.
	go func() {
		emailCtx := context.Background()
		if err := s.emailService.SendWelcomeEmail(emailCtx, newUser.Email, newUser.FirstName); err != nil {
			s.logger.Warn("failed to send welcome email", "email", newUser.Email, "error", err)
		}
	}()

	return result, nil
}

// Login authenticates a user and issues a fresh token and session row.
// Unknown email, inactive user, and wrong password all return the same
// ErrInvalidCredentials to prevent account enumeration.
func (s *Service) Login(ctx context.Context, email, pass string, meta ClientMeta) (*AuthResult, error) {
	if email == "" || pass == "" {
		return nil, ErrInvalidCredentials
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !existingUser.IsActive {
		return nil, ErrInvalidCredentials
	}

	if !password.Verify(existingUser.PasswordHash, pass) {
		return nil, ErrInvalidCredentials
	}

	return s.issueSession(ctx, existingUser, meta)
}

// GetProfile returns the sanitized profile for an authenticated user.
func (s *Service) GetProfile(ctx context.Context, userID string) (*user.User, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// UpdateProfile applies the provided fields to the user's profile and
// returns the fresh sanitized profile.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd user.ProfileUpdate) (*user.User, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	if verr := validateProfileUpdate(upd); verr != nil {
		return nil, verr
	}

	if err := s.userRepo.UpdateProfile(ctx, id, upd); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return s.userRepo.GetByID(ctx, id)
}

// Logout marks every active session of the user inactive. Succeeds
// unconditionally even when no active sessions existed.
func (s *Service) Logout(ctx context.Context, userID string) error {
	id, err := parseUserID(userID)
	if err != nil {
		return ErrUnauthenticated
	}

	if err := s.sessionRepo.DeactivateAllForUser(ctx, id); err != nil {
		return fmt.Errorf("failed to deactivate sessions: %w", err)
	}

	return nil
}

// Refresh issues a new token with the same claims and default expiry.
// It is a token-only refresh: no new session row is created.
func (s *Service) Refresh(ctx context.Context, userID, email string) (*TokenResult, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	token, err := s.tokenService.CreateToken(id, email, s.tokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	return &TokenResult{
		Token:     token,
		ExpiresIn: int64(s.tokenDuration.Seconds()),
	}, nil
}

// issueSession creates a bearer token and exactly one session row for it.
func (s *Service) issueSession(ctx context.Context, u *user.User, meta ClientMeta) (*AuthResult, error) {
	token, err := s.tokenService.CreateToken(u.ID, u.Email, s.tokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	expiresAt := time.Now().Add(s.tokenDuration)
	if _, err := s.sessionRepo.Create(ctx, u.ID, token, expiresAt, meta.IP, meta.UserAgent); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &AuthResult{
		User:      u,
		Token:     token,
		ExpiresIn: int64(s.tokenDuration.Seconds()),
	}, nil
}

// validateRegistration checks the registration payload shape and returns a
// *ValidationError listing every violated constraint, or nil.
func validateRegistration(email, pass, firstName, lastName string) error {
	verr := &ValidationError{}

	if email == "" {
		verr.add("email", "email is required")
	} else if len(email) > 254 {
		verr.add("email", "email is too long")
	} else if _, err := mail.ParseAddress(email); err != nil {
		verr.add("email", "invalid email format")
	}

	if msg := ValidatePasswordStrength(pass); msg != "" {
		verr.add("password", msg)
	}

	if l := len(firstName); l < 1 || l > 100 {
		verr.add("first_name", "first name must be 1-100 characters")
	}
	if l := len(lastName); l < 1 || l > 100 {
		verr.add("last_name", "last name must be 1-100 characters")
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// validateProfileUpdate checks the provided profile fields. Absent fields
// are never validated.
func validateProfileUpdate(upd user.ProfileUpdate) error {
	verr := &ValidationError{}

	if upd.FirstName != nil {
		if l := len(*upd.FirstName); l < 1 || l > 100 {
			verr.add("first_name", "first name must be 1-100 characters")
		}
	}
	if upd.LastName != nil {
		if l := len(*upd.LastName); l < 1 || l > 100 {
			verr.add("last_name", "last name must be 1-100 characters")
		}
	}
	if upd.MonthlyBudget != nil && *upd.MonthlyBudget < 0 {
		verr.add("monthly_budget", "monthly budget must not be negative")
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// ValidatePasswordStrength enforces the password policy: at least 8
// characters containing an uppercase letter, a lowercase letter, and a
// digit. Returns an empty string when the password passes.
func ValidatePasswordStrength(pass string) string {
	if pass == "" {
		return "password is required"
	}
	if len(pass) < 8 {
		return "password must be at least 8 characters"
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range pass {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper {
		return "password must contain an uppercase letter"
	}
	if !hasLower {
		return "password must contain a lowercase letter"
	}
	if !hasDigit {
		return "password must contain a digit"
	}
	return ""
}
