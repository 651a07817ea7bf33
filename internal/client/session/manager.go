// Package session implements the client-side session manager: it owns the
// local user profile, the session pointer, and the namespaced data buckets,
// and drives sign-in/up/out, profile mutation, and explicit sync.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"subtrack/internal/client/store"
	"subtrack/internal/logging"
	"subtrack/internal/password"
)

// Pusher delivers a gathered sync payload to a remote store. Delivery is an
// external collaborator responsibility; the manager only gathers, timestamps,
// and records the last-sync time.
type Pusher interface {
	Push(ctx context.Context, payload SyncPayload) error
}

// Navigator routes the UI after sign-out. Injected so the manager stays
// independent of any rendering layer.
type Navigator interface {
	NavigateToLogin()
}

// SyncPayload wraps the gathered buckets with the owning user and a timestamp.
type SyncPayload struct {
	UserID    string                     `json:"user_id"`
	Timestamp time.Time                  `json:"timestamp"`
	Buckets   map[string]json.RawMessage `json:"buckets"`
}

// RegisteredUser is one entry of the local user list: a uniqueness-constrained
// set keyed by normalized email, carrying the stored credential hash.
type RegisteredUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Manager is the client session manager. It is designed for a single logical
// actor: overlapping operations are not serialized, and the last write to the
// session pointer wins.
type Manager struct {
	store  *store.Store
	pusher Pusher
	nav    Navigator
	logger *logging.Logger

	mu     sync.RWMutex
	active *Profile

	inflight atomic.Int32
}

func NewManager(st *store.Store, pusher Pusher, nav Navigator, logger *logging.Logger) *Manager {
	if pusher == nil {
		pusher = &SimulatedPusher{Delay: 100 * time.Millisecond}
	}
	return &Manager{
		store:  st,
		pusher: pusher,
		nav:    nav,
		logger: logger,
	}
}

// Loading reports whether any operation is currently in flight. UI consumers
// are expected to disable duplicate submissions while this is true.
func (m *Manager) Loading() bool {
	return m.inflight.Load() > 0
}

func (m *Manager) beginOp() func() {
	m.inflight.Add(1)
	return func() { m.inflight.Add(-1) }
}

// ActiveProfile returns a copy of the active profile, or nil when signed out.
func (m *Manager) ActiveProfile() *Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return nil
	}
	cp := *m.active
	return &cp
}

// Bootstrap loads the stored session on startup. A pointer without a profile
// is self-healed by synthesizing a demo profile; a missing pointer gets the
// demo profile and a fresh pointer. After Bootstrap returns, the pointer
// always references an existing profile.
func (m *Manager) Bootstrap(ctx context.Context) error {
	defer m.beginOp()()

	var userID string
	found, err := m.store.GetJSON(ctx, sessionPointerKey, &userID)
	if err != nil {
		return err
	}

	if found {
		var profile Profile
		ok, err := m.store.GetJSON(ctx, profileKey(userID), &profile)
		if err != nil {
			return err
		}
		if ok {
			m.setActive(&profile)
			return nil
		}
		m.logger.Warn("session pointer references missing profile, recreating demo profile", "user_id", userID)
	}

	demo := newDemoProfile(time.Now())
	if err := m.store.SetJSON(ctx, profileKey(demo.ID), demo); err != nil {
		return err
	}
	if err := m.store.SetJSON(ctx, sessionPointerKey, demo.ID); err != nil {
		return err
	}

	m.setActive(demo)
	return nil
}

// SignIn authenticates against the locally registered user list. The stored
// argon2id credential is always verified; there is no password-less path.
func (m *Manager) SignIn(ctx context.Context, email, pass string) error {
	defer m.beginOp()()

	users, err := m.loadUsers(ctx)
	if err != nil {
		return err
	}

	var match *RegisteredUser
	for i := range users {
		if users[i].Email == email {
			match = &users[i]
			break
		}
	}
	if match == nil {
		return ErrInvalidCredentials
	}

	if !password.Verify(match.PasswordHash, pass) {
		return ErrInvalidCredentials
	}

	var profile Profile
	ok, err := m.store.GetJSON(ctx, profileKey(match.ID), &profile)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: profile record missing for user %s", store.ErrPersistence, match.ID)
	}

	if err := m.store.SetJSON(ctx, sessionPointerKey, profile.ID); err != nil {
		return err
	}

	m.setActive(&profile)
	m.logger.Info("signed in", "user_id", profile.ID)
	return nil
}

// SignUp registers a new local user with default preferences and a one-year
// free-tier plan, persists profile and pointer, and activates the profile.
// The local user list is a uniqueness-constrained set keyed by normalized
// email.
func (m *Manager) SignUp(ctx context.Context, email, pass, name string) (*Profile, error) {
	defer m.beginOp()()

	users, err := m.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	normalized := normalizeEmail(email)
	for i := range users {
		if normalizeEmail(users[i].Email) == normalized {
			return nil, ErrDuplicateEmail
		}
	}

	hash, err := password.Hash(pass)
	if err != nil {
		return nil, fmt.Errorf("%w: hash credential: %v", store.ErrPersistence, err)
	}

	now := time.Now()
	profile := &Profile{
		ID:          newUserID(now),
		Email:       email,
		Name:        name,
		Preferences: DefaultPreferences(),
		Plan:        FreePlan(now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	users = append(users, RegisteredUser{
		ID:           profile.ID,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
	})

	if err := m.store.SetJSON(ctx, usersKey, users); err != nil {
		return nil, err
	}
	if err := m.store.SetJSON(ctx, profileKey(profile.ID), profile); err != nil {
		return nil, err
	}
	if err := m.store.SetJSON(ctx, sessionPointerKey, profile.ID); err != nil {
		return nil, err
	}

	m.setActive(profile)
	m.logger.Info("signed up", "user_id", profile.ID)
	return profile, nil
}

// SignOut clears the session pointer only; the profile record persists.
// The injected Navigator is then asked to route to the login entry point.
func (m *Manager) SignOut(ctx context.Context) error {
	defer m.beginOp()()

	if err := m.store.Delete(ctx, sessionPointerKey); err != nil {
		return err
	}

	m.setActive(nil)

	if m.nav != nil {
		m.nav.NavigateToLogin()
	}
	return nil
}

// UpdateProfile merges the provided fields into the active profile, stamps
// UpdatedAt, and persists. No-op when signed out.
func (m *Manager) UpdateProfile(ctx context.Context, upd ProfileUpdate) error {
	defer m.beginOp()()

	m.mu.Lock()
	if m.active == nil {
		m.mu.Unlock()
		return nil
	}

	if upd.Name != nil {
		m.active.Name = *upd.Name
	}
	if upd.Email != nil {
		m.active.Email = *upd.Email
	}
	m.active.UpdatedAt = time.Now()
	profile := *m.active
	m.mu.Unlock()

	if upd.Email != nil {
		if err := m.updateRegisteredEmail(ctx, profile.ID, *upd.Email); err != nil {
			return err
		}
	}

	return m.store.SetJSON(ctx, profileKey(profile.ID), &profile)
}

// UpdatePreferences merges the provided fields into the nested preferences
// object only, leaving sibling fields untouched. No-op when signed out.
func (m *Manager) UpdatePreferences(ctx context.Context, upd PreferencesUpdate) error {
	defer m.beginOp()()

	m.mu.Lock()
	if m.active == nil {
		m.mu.Unlock()
		return nil
	}

	p := &m.active.Preferences
	if upd.Currency != nil {
		p.Currency = *upd.Currency
	}
	if upd.Timezone != nil {
		p.Timezone = *upd.Timezone
	}
	if upd.FiscalMonthStartDay != nil {
		p.FiscalMonthStartDay = *upd.FiscalMonthStartDay
	}
	if upd.DarkMode != nil {
		p.DarkMode = *upd.DarkMode
	}
	if upd.Notifications != nil {
		p.Notifications = *upd.Notifications
	}
	if upd.DataRetentionDays != nil {
		p.DataRetentionDays = *upd.DataRetentionDays
	}
	m.active.UpdatedAt = time.Now()
	profile := *m.active
	m.mu.Unlock()

	return m.store.SetJSON(ctx, profileKey(profile.ID), &profile)
}

// SyncData gathers all namespaced data buckets of the active user into a
// timestamped payload, hands it to the Pusher, and records the last-sync
// time. Delivery is best-effort: a push failure is logged, not returned.
// No-op when signed out.
func (m *Manager) SyncData(ctx context.Context) error {
	defer m.beginOp()()

	active := m.ActiveProfile()
	if active == nil {
		return nil
	}

	payload := SyncPayload{
		UserID:    active.ID,
		Timestamp: time.Now(),
		Buckets:   make(map[string]json.RawMessage, len(BucketNames)),
	}

	for _, bucket := range BucketNames {
		raw, found, err := m.store.Get(ctx, bucketKey(bucket, active.ID))
		if err != nil {
			return err
		}
		if found {
			payload.Buckets[bucket] = json.RawMessage(raw)
		}
	}

	if err := m.pusher.Push(ctx, payload); err != nil {
		m.logger.Warn("sync payload delivery failed", "user_id", active.ID, "error", err)
	}

	return m.store.SetJSON(ctx, lastSyncKey(active.ID), payload.Timestamp)
}

// LastSync returns the recorded last-sync timestamp for the active user,
// or the zero time when none is recorded.
func (m *Manager) LastSync(ctx context.Context) (time.Time, error) {
	active := m.ActiveProfile()
	if active == nil {
		return time.Time{}, nil
	}

	var ts time.Time
	if _, err := m.store.GetJSON(ctx, lastSyncKey(active.ID), &ts); err != nil {
		return time.Time{}, err
	}
	return ts, nil
}

func (m *Manager) setActive(p *Profile) {
	m.mu.Lock()
	m.active = p
	m.mu.Unlock()
}

func (m *Manager) loadUsers(ctx context.Context) ([]RegisteredUser, error) {
	var users []RegisteredUser
	if _, err := m.store.GetJSON(ctx, usersKey, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (m *Manager) updateRegisteredEmail(ctx context.Context, userID, email string) error {
	users, err := m.loadUsers(ctx)
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].ID == userID {
			users[i].Email = email
			return m.store.SetJSON(ctx, usersKey, users)
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// newDemoProfile synthesizes the demo user created lazily on first load.
func newDemoProfile(now time.Time) *Profile {
	return &Profile{
		ID:          "demo_user",
		Email:       "demo@subtrack.local",
		Name:        "Demo User",
		Preferences: DefaultPreferences(),
		Plan:        FreePlan(now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// lastIssuedID makes timestamp-based IDs monotonic within the process so
// two sign-ups in the same nanosecond still get distinct IDs.
var lastIssuedID atomic.Int64

func newUserID(now time.Time) string {
	ts := now.UnixNano()
	for {
		prev := lastIssuedID.Load()
		if ts <= prev {
			ts = prev + 1
		}
		if lastIssuedID.CompareAndSwap(prev, ts) {
			return fmt.Sprintf("user_%d", ts)
		}
	}
}

// SimulatedPusher is the default Pusher: remote delivery is not yet wired to
// a real target, so it only simulates transport latency.
type SimulatedPusher struct {
	Delay time.Duration
}

func (p *SimulatedPusher) Push(ctx context.Context, _ SyncPayload) error {
	select {
	case <-time.After(p.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
