package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/lvoinea/stuffkeeper/internal/auth"
	"github.com/lvoinea/stuffkeeper/internal/model"
	"github.com/lvoinea/stuffkeeper/internal/store"
)

// UsersHandler handles registration and the current-user endpoint.
type UsersHandler struct {
	DB *sql.DB
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Settings string `json:"settings"`
}

// Create handles POST /users/. Registration is open; duplicate emails
// fail with 422.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "email and password required")
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("hashing password", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Email, hash, req.Settings)
	if err != nil {
		storeError(w, err, "user not found", "user already registered")
		return
	}
	if err := h.embedTaxonomy(r, user); err != nil {
		slog.Error("loading user taxonomy", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("user registered", "email", user.Email)
	jsonResponse(w, http.StatusOK, user)
}

// Me handles GET /users/me, returning the authenticated user with their
// tags and locations embedded.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	if user == nil {
		unauthorized(w, "not authenticated")
		return
	}

	if err := h.embedTaxonomy(r, user); err != nil {
		slog.Error("loading user taxonomy", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

type updateUserRequest struct {
	Password model.Field[string] `json:"password"`
	Settings model.Field[string] `json:"settings"`
}

// Update handles POST /users/me. Password and settings are the account's
// only mutable fields; omitted keys leave them untouched.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Password.Present {
		if !req.Password.Valid {
			jsonError(w, http.StatusBadRequest, "password cannot be null")
			return
		}
		if err := model.ValidatePassword(req.Password.Value); err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		hash, err := auth.HashPassword(req.Password.Value)
		if err != nil {
			slog.Error("hashing password", "error", err)
			jsonError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if err := store.UpdateUserPassword(r.Context(), h.DB, user.ID, hash); err != nil {
			slog.Error("updating password", "error", err)
			jsonError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	if req.Settings.Present && req.Settings.Valid {
		if err := store.UpdateUserSettings(r.Context(), h.DB, user.ID, req.Settings.Value); err != nil {
			slog.Error("updating settings", "error", err)
			jsonError(w, http.StatusInternalServerError, "internal error")
			return
		}
		user.Settings = req.Settings.Value
	}

	if err := h.embedTaxonomy(r, user); err != nil {
		slog.Error("loading user taxonomy", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

func (h *UsersHandler) embedTaxonomy(r *http.Request, user *model.User) error {
	tags, err := store.ListTags(r.Context(), h.DB, user.ID)
	if err != nil {
		return err
	}
	locations, err := store.ListLocations(r.Context(), h.DB, user.ID)
	if err != nil {
		return err
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	if locations == nil {
		locations = []model.Location{}
	}
	user.Tags = tags
	user.Locations = locations
	return nil
}
