package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lvoinea/stuffkeeper/internal/auth"
	"github.com/lvoinea/stuffkeeper/internal/store"
)

// AuthHandler handles the token endpoint.
type AuthHandler struct {
	DB       *sql.DB
	Secret   string
	TokenTTL time.Duration
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Token handles POST /token. The request is form-encoded in the OAuth2
// password style: username (the email) and password.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	email := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		jsonError(w, http.StatusBadRequest, "username and password required")
		return
	}

	user, err := store.GetUserByEmail(r.Context(), h.DB, email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Error("looking up user for login", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil || !auth.VerifyPassword(password, user.HashedPassword) {
		slog.Warn("login failed", "email", email, "remote", r.RemoteAddr)
		unauthorized(w, "incorrect username or password")
		return
	}

	ttl := h.TokenTTL
	if ttl <= 0 {
		ttl = auth.TokenExpiry
	}
	token, err := auth.GenerateToken(h.Secret, user.Email, ttl)
	if err != nil {
		slog.Error("generating token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	jsonResponse(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}
