package api

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lvoinea/stuffkeeper/internal/auth"
	"github.com/lvoinea/stuffkeeper/internal/model"
	"github.com/lvoinea/stuffkeeper/internal/store"
)

type contextKey string

const userKey contextKey = "user"

// AuthMiddleware validates the bearer token and resolves the subject
// email to its user row on every request (no session cache). Inactive
// users are rejected with 400, everything else invalid with 401.
func AuthMiddleware(db *sql.DB, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w, "could not validate credentials")
				return
			}

			email, err := auth.ValidateToken(secret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				unauthorized(w, "could not validate credentials")
				return
			}

			user, err := store.GetUserByEmail(r.Context(), db, email)
			if errors.Is(err, store.ErrNotFound) {
				unauthorized(w, "could not validate credentials")
				return
			}
			if err != nil {
				slog.Error("resolving token subject", "error", err)
				jsonError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if !user.IsActive {
				jsonError(w, http.StatusBadRequest, "inactive user")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser retrieves the authenticated user from the context.
func CurrentUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(userKey).(*model.User)
	return user
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
