package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_StoresIssuedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/register", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "anna@example.com", body["email"])
		assert.Equal(t, "Anna", body["first_name"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(AuthResult{
			User:      User{Email: "anna@example.com"},
			Token:     "issued-token",
			ExpiresIn: 604800,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	result, err := c.Register(context.Background(), "anna@example.com", "Valid1Password", "Anna", "Kowalski")
	require.NoError(t, err)

	assert.Equal(t, "issued-token", result.Token)
	assert.Equal(t, "issued-token", c.Token())
}

func TestProfile_SendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer issued-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(User{Email: "anna@example.com"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetToken("issued-token")

	u, err := c.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", u.Email)
}

func TestLogout_DropsHeldToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "logged out"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetToken("issued-token")

	require.NoError(t, c.Logout(context.Background()))
	assert.Empty(t, c.Token())
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"invalid email or password","code":"INVALID_CREDENTIALS"}`, ErrUnauthorized},
		{"conflict", http.StatusConflict, `{"error":"email already exists","code":"EMAIL_ALREADY_EXISTS"}`, ErrDuplicateUser},
		{"validation", http.StatusBadRequest, `{"error":"validation failed","code":"VALIDATION_FAILED"}`, ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).Login(context.Background(), "anna@example.com", "x")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUnreachableServer(t *testing.T) {
	c := New("http://127.0.0.1:1")
	_, err := c.Login(context.Background(), "anna@example.com", "Valid1Password")
	assert.ErrorIs(t, err, ErrUnavailable)
}
