package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lvoinea/stuffkeeper/internal/model"
	"github.com/lvoinea/stuffkeeper/internal/store"
)

// TaxonomyHandler handles tag and location listing and renaming. Both
// entities are created implicitly through item associations; the API
// only ever lists and renames them.
type TaxonomyHandler struct {
	DB *sql.DB
}

type renameRequest struct {
	Name string `json:"name"`
}

// ListTags handles GET /users/me/tags/.
func (h *TaxonomyHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	tags, err := store.ListTags(r.Context(), h.DB, user.ID)
	if err != nil {
		slog.Error("listing tags", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list tags")
		return
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	jsonResponse(w, http.StatusOK, tags)
}

// UpdateTag handles POST /users/me/tags/{id}. Renaming to a name held by
// a different tag fails with 422.
func (h *TaxonomyHandler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	id, name, ok := h.renameArgs(w, r)
	if !ok {
		return
	}

	tag, err := store.UpdateTag(r.Context(), h.DB, user.ID, id, name)
	if err != nil {
		storeError(w, err, "tag not found", "tag name already exists")
		return
	}
	jsonResponse(w, http.StatusOK, tag)
}

// ListLocations handles GET /users/me/locations/.
func (h *TaxonomyHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	locations, err := store.ListLocations(r.Context(), h.DB, user.ID)
	if err != nil {
		slog.Error("listing locations", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list locations")
		return
	}
	if locations == nil {
		locations = []model.Location{}
	}
	jsonResponse(w, http.StatusOK, locations)
}

// UpdateLocation handles POST /users/me/locations/{id}.
func (h *TaxonomyHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	id, name, ok := h.renameArgs(w, r)
	if !ok {
		return
	}

	location, err := store.UpdateLocation(r.Context(), h.DB, user.ID, id, name)
	if err != nil {
		storeError(w, err, "location not found", "location name already exists")
		return
	}
	jsonResponse(w, http.StatusOK, location)
}

func (h *TaxonomyHandler) renameArgs(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return 0, "", false
	}

	var req renameRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return 0, "", false
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return 0, "", false
	}
	return id, req.Name, true
}
