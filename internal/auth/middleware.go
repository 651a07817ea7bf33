package auth

import (
	"context"
	"net/http"
	"strings"

	"subtrack/internal/httputil"
	"subtrack/internal/logging"
)

// Middleware handles authentication for protected routes.
type Middleware struct {
	tokenService TokenService
	sessionRepo  SessionRepository
}

func NewMiddleware(tokenService TokenService, sessionRepo SessionRepository) *Middleware {
	return &Middleware{tokenService: tokenService, sessionRepo: sessionRepo}
}

// RequireAuth validates the bearer token and requires the claimed user to
// own at least one active, unexpired session. Logout deactivates every
// session in bulk, so previously issued tokens stop passing here.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeUnauthenticated, http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		claims, err := m.tokenService.VerifyToken(parts[1])
		if err != nil {
			logger.Warn("token verification failed", "error", err.Error())
			httputil.RespondErrorWithCode(w, "invalid or expired token", httputil.CodeUnauthenticated, http.StatusUnauthorized)
			return
		}

		userID, err := parseUserID(claims.UserID)
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid or expired token", httputil.CodeUnauthenticated, http.StatusUnauthorized)
			return
		}

		active, err := m.sessionRepo.HasActiveForUser(r.Context(), userID)
		if err != nil {
			logger.Error("failed to check active sessions", "error", err.Error())
			httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}
		if !active {
			httputil.RespondErrorWithCode(w, "session has been invalidated", httputil.CodeUnauthenticated, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
		ctx = context.WithValue(ctx, UserEmailContextKey, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
