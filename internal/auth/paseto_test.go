package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasetoService_RoundTrip(t *testing.T) {
	svc, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.CreateToken(userID, "anna@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)

	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "anna@example.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)
}

func TestPasetoService_RejectsWrongKeyLength(t *testing.T) {
	_, err := NewPasetoService([]byte("too-short"))
	assert.Error(t, err)
}

func TestPasetoService_RejectsForeignToken(t *testing.T) {
	svc, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)

	other, err := NewPasetoService([]byte("abcdefghijklmnopqrstuvwxyz012345"))
	require.NoError(t, err)

	token, err := other.CreateToken(uuid.New(), "anna@example.com", time.Hour)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasetoService_RejectsExpiredToken(t *testing.T) {
	svc, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New(), "anna@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
