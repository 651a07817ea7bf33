package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMiddleware(t *testing.T) (*Middleware, *PasetoService, *fakeSessionRepo) {
	t.Helper()

	tokenService, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)

	sessionRepo := &fakeSessionRepo{}
	return NewMiddleware(tokenService, sessionRepo), tokenService, sessionRepo
}

func serveProtected(m *Middleware, authHeader string) (*httptest.ResponseRecorder, bool) {
	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	m.RequireAuth(next).ServeHTTP(rec, req)
	return rec, nextCalled
}

func TestRequireAuth_ValidTokenWithActiveSession(t *testing.T) {
	m, tokenService, sessionRepo := newTestMiddleware(t)

	userID := uuid.New()
	token, err := tokenService.CreateToken(userID, "anna@example.com", time.Hour)
	require.NoError(t, err)
	_, err = sessionRepo.Create(context.Background(), userID, token, time.Now().Add(time.Hour), "", "")
	require.NoError(t, err)

	var gotID uuid.UUID
	var gotEmail string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = GetUserIDFromContext(r.Context())
		gotEmail, _ = GetUserEmailFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	m.RequireAuth(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, gotID)
	assert.Equal(t, "anna@example.com", gotEmail)
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	m, _, _ := newTestMiddleware(t)

	rec, nextCalled := serveProtected(m, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, nextCalled)
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	m, tokenService, _ := newTestMiddleware(t)

	token, err := tokenService.CreateToken(uuid.New(), "anna@example.com", time.Hour)
	require.NoError(t, err)

	for _, header := range []string{token, "Basic " + token, "Bearer"} {
		rec, nextCalled := serveProtected(m, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
		assert.False(t, nextCalled)
	}
}

func TestRequireAuth_GarbageToken(t *testing.T) {
	m, _, _ := newTestMiddleware(t)

	rec, nextCalled := serveProtected(m, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, nextCalled)
}

func TestRequireAuth_RejectsAfterBulkLogout(t *testing.T) {
	m, tokenService, sessionRepo := newTestMiddleware(t)
	ctx := context.Background()

	userID := uuid.New()
	token, err := tokenService.CreateToken(userID, "anna@example.com", time.Hour)
	require.NoError(t, err)
	_, err = sessionRepo.Create(ctx, userID, token, time.Now().Add(time.Hour), "", "")
	require.NoError(t, err)

	rec, nextCalled := serveProtected(m, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, nextCalled)

	// Bulk logout deactivates the session; the still-unexpired token must
	// stop passing.
	require.NoError(t, sessionRepo.DeactivateAllForUser(ctx, userID))

	rec, nextCalled = serveProtected(m, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, nextCalled)
}
