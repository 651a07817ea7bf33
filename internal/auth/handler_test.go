package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/httputil"
	"subtrack/internal/logging"
)

type allowAllLimiter struct{}

func (allowAllLimiter) CheckIPRateLimit(context.Context, string, string) (bool, error) {
	return false, nil
}
func (allowAllLimiter) RecordIPRequest(context.Context, string, string) error { return nil }

type blockingLimiter struct{}

func (blockingLimiter) CheckIPRateLimit(context.Context, string, string) (bool, error) {
	return true, nil
}
func (blockingLimiter) RecordIPRequest(context.Context, string, string) error { return nil }

func newTestHandler(t *testing.T, limiter RateLimiter) (*Handler, *Service, *fakeSessionRepo) {
	t.Helper()

	svc, _, sessionRepo, _ := newTestService(t)
	return NewHandler(svc, limiter, logging.NewLogger(true)), svc, sessionRepo
}

func postJSON(t *testing.T, handlerFn http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handlerFn(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httputil.ErrorResponse {
	t.Helper()

	var er httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&er))
	return er
}

func TestHandlerRegister_Created(t *testing.T) {
	h, _, _ := newTestHandler(t, allowAllLimiter{})

	rec := postJSON(t, h.Register, "/auth/register", RegisterRequest{
		Email:     "anna@example.com",
		Password:  "Valid1Password",
		FirstName: "Anna",
		LastName:  "Kowalski",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var result AuthResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, "anna@example.com", result.User.Email)
	assert.NotEmpty(t, result.Token)
}

func TestHandlerRegister_NeverLeaksCredential(t *testing.T) {
	h, _, _ := newTestHandler(t, allowAllLimiter{})

	rec := postJSON(t, h.Register, "/auth/register", RegisterRequest{
		Email:     "anna@example.com",
		Password:  "Valid1Password",
		FirstName: "Anna",
		LastName:  "Kowalski",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "Valid1Password")
	assert.NotContains(t, body, "password_hash")
}

func TestHandlerRegister_InvalidBody(t *testing.T) {
	h, _, _ := newTestHandler(t, allowAllLimiter{})

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeInvalidRequestBody, decodeError(t, rec).Code)
}

func TestHandlerRegister_ValidationFields(t *testing.T) {
	h, _, _ := newTestHandler(t, allowAllLimiter{})

	rec := postJSON(t, h.Register, "/auth/register", RegisterRequest{
		Email:     "anna@example.com",
		Password:  "alllowercase1",
		FirstName: "Anna",
		LastName:  "Kowalski",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	er := decodeError(t, rec)
	assert.Equal(t, httputil.CodeValidationFailed, er.Code)
	assert.Contains(t, er.Fields, "password")
}

func TestHandlerRegister_DuplicateEmail(t *testing.T) {
	h, _, _ := newTestHandler(t, allowAllLimiter{})

	req := RegisterRequest{
		Email:     "anna@example.com",
		Password:  "Valid1Password",
		FirstName: "Anna",
		LastName:  "Kowalski",
	}
	require.Equal(t, http.StatusCreated, postJSON(t, h.Register, "/auth/register", req).Code)

	rec := postJSON(t, h.Register, "/auth/register", req)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, httputil.CodeEmailAlreadyExists, decodeError(t, rec).Code)
}

func TestHandlerRegister_RateLimited(t *testing.T) {
	h, _, _ := newTestHandler(t, blockingLimiter{})

	rec := postJSON(t, h.Register, "/auth/register", RegisterRequest{})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, httputil.CodeTooManyRequests, decodeError(t, rec).Code)
}

func TestHandlerLogin_UniformUnauthorized(t *testing.T) {
	h, svc, _ := newTestHandler(t, allowAllLimiter{})

	_, err := svc.Register(context.Background(), "anna@example.com", "Valid1Password", "Anna", "Kowalski", ClientMeta{})
	require.NoError(t, err)

	unknown := postJSON(t, h.Login, "/auth/login", LoginRequest{Email: "nobody@example.com", Password: "Valid1Password"})
	wrongPass := postJSON(t, h.Login, "/auth/login", LoginRequest{Email: "anna@example.com", Password: "Wrong1Password"})

	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, unknown.Body.String(), wrongPass.Body.String(),
		"unknown email and wrong password must be indistinguishable")
}

func TestHandlerLogout_InvalidatesSessions(t *testing.T) {
	h, svc, sessionRepo := newTestHandler(t, allowAllLimiter{})
	ctx := context.Background()

	registered, err := svc.Register(ctx, "anna@example.com", "Valid1Password", "Anna", "Kowalski", ClientMeta{})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req = req.WithContext(context.WithValue(req.Context(), UserIDContextKey, registered.User.ID))
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var msg MessageResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&msg))
	assert.Equal(t, "logged out", msg.Message)

	active, err := sessionRepo.HasActiveForUser(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestHandlerUpdateProfile_AppliesProvidedFields(t *testing.T) {
	h, svc, _ := newTestHandler(t, allowAllLimiter{})
	ctx := context.Background()

	registered, err := svc.Register(ctx, "anna@example.com", "Valid1Password", "Anna", "Kowalski", ClientMeta{})
	require.NoError(t, err)

	raw, err := json.Marshal(map[string]any{"currency": "EUR", "monthly_budget": 250.0})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/auth/profile", bytes.NewReader(raw))
	req = req.WithContext(context.WithValue(req.Context(), UserIDContextKey, registered.User.ID))
	rec := httptest.NewRecorder()
	h.UpdateProfile(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "EUR", got["currency"])
	assert.Equal(t, 250.0, got["monthly_budget"])
	assert.Equal(t, "Anna", got["first_name"])
}

func TestHandlerRefresh_TokenOnly(t *testing.T) {
	h, svc, sessionRepo := newTestHandler(t, allowAllLimiter{})
	ctx := context.Background()

	registered, err := svc.Register(ctx, "anna@example.com", "Valid1Password", "Anna", "Kowalski", ClientMeta{})
	require.NoError(t, err)
	before := sessionRepo.count()

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	reqCtx := context.WithValue(req.Context(), UserIDContextKey, registered.User.ID)
	reqCtx = context.WithValue(reqCtx, UserEmailContextKey, registered.User.Email)
	rec := httptest.NewRecorder()
	h.Refresh(rec, req.WithContext(reqCtx))

	require.Equal(t, http.StatusOK, rec.Code)

	var result TokenResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.NotEmpty(t, result.Token)
	assert.NotEqual(t, registered.Token, result.Token)
	assert.Equal(t, before, sessionRepo.count())
}
