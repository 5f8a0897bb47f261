package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lvoinea/stuffkeeper/internal/model"
	"github.com/lvoinea/stuffkeeper/internal/photo"
	"github.com/lvoinea/stuffkeeper/internal/store"
)

// ItemsHandler handles item CRUD endpoints, orchestrating the store and
// the photo pipeline.
type ItemsHandler struct {
	DB     *sql.DB
	Photos *photo.Store
}

// nameRef is the wire shape of a tag or location reference: {"name": ...}.
type nameRef struct {
	Name string `json:"name"`
}

func names(refs []nameRef) []string {
	if refs == nil {
		return nil
	}
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		out = append(out, ref.Name)
	}
	return out
}

type createItemRequest struct {
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Code           string        `json:"code"`
	Quantity       int           `json:"quantity"`
	Cost           *float64      `json:"cost"`
	ExpirationDate *model.Date   `json:"expiration_date"`
	Photos         *model.Photos `json:"photos"`
	Locations      []nameRef     `json:"locations"`
	Tags           []nameRef     `json:"tags"`
}

type updateItemRequest struct {
	Name           model.Field[string]       `json:"name"`
	Description    model.Field[string]       `json:"description"`
	Code           model.Field[string]       `json:"code"`
	Quantity       model.Field[int]          `json:"quantity"`
	Cost           model.Field[float64]      `json:"cost"`
	ExpirationDate model.Field[model.Date]   `json:"expiration_date"`
	RemovalDate    model.Field[model.Date]   `json:"removal_date"`
	IsActive       model.Field[bool]         `json:"is_active"`
	IsBookmarked   model.Field[bool]         `json:"is_bookmarked"`
	IsSilenced     model.Field[bool]         `json:"is_silenced"`
	Photos         model.Field[model.Photos] `json:"photos"`
	Locations      []nameRef                 `json:"locations"`
	Tags           []nameRef                 `json:"tags"`
}

// List handles GET /users/me/items/ with skip/limit paging.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := store.ListItems(r.Context(), h.DB, user.ID, skip, limit)
	if err != nil {
		slog.Error("listing items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /users/me/items/.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, user.ID, store.ItemCreate{
		Name:           req.Name,
		Description:    req.Description,
		Code:           req.Code,
		Quantity:       req.Quantity,
		Cost:           req.Cost,
		ExpirationDate: req.ExpirationDate,
		Photos:         req.Photos,
		Locations:      names(req.Locations),
		Tags:           names(req.Tags),
	})
	if err != nil {
		slog.Error("creating item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// Get handles GET /users/me/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, user.ID, id)
	if err != nil {
		storeError(w, err, "item not found", "")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles POST /users/me/items/{id}. Stale photo files are
// removed before the item's photo column is overwritten, otherwise the
// set difference would be lost.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	previous, err := store.GetItem(r.Context(), h.DB, user.ID, id)
	if err != nil {
		storeError(w, err, "item not found", "")
		return
	}

	if req.Photos.Present && req.Photos.Valid && previous.Photos != nil {
		if err := h.Photos.RemoveStale(user.ID, previous.Photos.Sources, req.Photos.Value.Sources); err != nil {
			slog.Error("removing stale photos", "item", id, "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to clean up photos")
			return
		}
	}

	item, err := store.UpdateItem(r.Context(), h.DB, user.ID, id, store.ItemPatch{
		Name:           req.Name,
		Description:    req.Description,
		Code:           req.Code,
		Quantity:       req.Quantity,
		Cost:           req.Cost,
		ExpirationDate: req.ExpirationDate,
		RemovalDate:    req.RemovalDate,
		IsActive:       req.IsActive,
		IsBookmarked:   req.IsBookmarked,
		IsSilenced:     req.IsSilenced,
		Photos:         req.Photos,
		Locations:      names(req.Locations),
		Tags:           names(req.Tags),
	})
	if err != nil {
		storeError(w, err, "item not found", "")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /users/me/items/{id}. The row and its
// association entries are removed; photo files stay on disk.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, user.ID, id); err != nil {
		storeError(w, err, "item not found", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
