// internal/catalog/handler.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"campuslend/internal/membership"
)

// AccessResolver decides item visibility for a principal. Implemented
// by the collections service, which knows private memberships.
type AccessResolver interface {
	CanViewItem(ctx context.Context, p membership.Principal, itemID uuid.UUID) (bool, error)
	FilterVisibleItems(ctx context.Context, p membership.Principal, items []Item) ([]Item, error)
}

type Handler struct {
	service Service
	access  AccessResolver
}

func NewHandler(service Service, access AccessResolver) *Handler {
	return &Handler{service: service, access: access}
}

func (h *Handler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListItems(r.Context(), Category(r.URL.Query().Get("category")))
	if err != nil {
		h.writeError(w, err)
		return
	}

	visible, err := h.access.FilterVisibleItems(r.Context(), membership.PrincipalFrom(r.Context()), items)
	if err != nil {
		h.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(visible)
}

func (h *Handler) HandleCreateItem(w http.ResponseWriter, r *http.Request) {
	if !canAddInventory(r) {
		http.Error(w, "item management permission required", http.StatusForbidden)
		return
	}

	var params CreateItemParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.service.CreateItem(r.Context(), params)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(item)
}

func (h *Handler) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		http.Error(w, "invalid item ID", http.StatusBadRequest)
		return
	}

	ok, err := h.access.CanViewItem(r.Context(), membership.PrincipalFrom(r.Context()), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !ok {
		// Indistinguishable from a missing item on purpose.
		http.Error(w, ErrNotFound.Error(), http.StatusNotFound)
		return
	}

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(item)
}

func (h *Handler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	if !canManageInventory(r) {
		http.Error(w, "librarian role required", http.StatusForbidden)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		http.Error(w, "invalid item ID", http.StatusBadRequest)
		return
	}

	var params CreateItemParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.service.UpdateItem(r.Context(), id, params)
	if err != nil {
		h.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(item)
}

func (h *Handler) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if !canManageInventory(r) {
		http.Error(w, "librarian role required", http.StatusForbidden)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		http.Error(w, "invalid item ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleAddPhoto(w http.ResponseWriter, r *http.Request) {
	if !canAddInventory(r) {
		http.Error(w, "item management permission required", http.StatusForbidden)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		http.Error(w, "invalid item ID", http.StatusBadRequest)
		return
	}

	var req struct {
		BlobRef string `json:"blob_ref"`
		Caption string `json:"caption"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	photo, err := h.service.AddPhoto(r.Context(), id, req.BlobRef, req.Caption)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(photo)
}

func (h *Handler) HandleListPhotos(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		http.Error(w, "invalid item ID", http.StatusBadRequest)
		return
	}

	photos, err := h.service.ListPhotos(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(photos)
}

func canManageInventory(r *http.Request) bool {
	p := membership.PrincipalFrom(r.Context())
	return p.Librarian
}

// canAddInventory gates growing the catalog: a librarian needs the
// can_add_items capability on top of the role.
func canAddInventory(r *http.Request) bool {
	p := membership.PrincipalFrom(r.Context())
	return p.Librarian && p.CanAddItems
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidItem):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrInsufficientQuantity):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
