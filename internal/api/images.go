package api

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lvoinea/stuffkeeper/internal/photo"
	"github.com/lvoinea/stuffkeeper/internal/store"
)

// maxUploadSize limits photo uploads to 10 MB.
const maxUploadSize = 10 << 20

// ImagesHandler handles photo upload and retrieval for items.
type ImagesHandler struct {
	DB     *sql.DB
	Photos *photo.Store
}

// Upload handles POST /users/me/items/{id}/image?mode=. It accepts a
// multipart "file" part, runs the derivation pipeline, and returns the
// photo identifier the client appends to the item's photo sources.
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	// The item must exist and belong to the caller.
	if _, err := store.GetItem(r.Context(), h.DB, user.ID, id); err != nil {
		storeError(w, err, "item not found", "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to read image")
		return
	}

	photoID, err := h.Photos.Save(user.ID, r.URL.Query().Get("mode"), data)
	if err != nil {
		slog.Error("saving photo", "item", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to process image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"filename": photoID})
}

// Get handles GET /users/me/items/{id}/image/{imageId}. The file is
// always resolved under the authenticated user's photo directory, never
// from the identifier alone.
func (h *ImagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	if _, err := strconv.ParseInt(r.PathValue("id"), 10, 64); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	f, err := h.Photos.Open(user.ID, r.PathValue("imageId"))
	if errors.Is(err, photo.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "image not found")
		return
	}
	if err != nil {
		slog.Error("opening photo", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to read image")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := io.Copy(w, f); err != nil {
		slog.Error("sending photo", "error", err)
	}
}
