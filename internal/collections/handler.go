// internal/collections/handler.go
package collections

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"campuslend/internal/catalog"
	"campuslend/internal/membership"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	colls, err := h.service.ListVisible(r.Context(), membership.PrincipalFrom(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(colls)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p := membership.PrincipalFrom(r.Context())
	if p.Anonymous {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req struct {
		Title          string      `json:"title"`
		Description    string      `json:"description"`
		Private        bool        `json:"private"`
		AllowedUserIDs []uuid.UUID `json:"allowed_user_ids"`
		ItemIDs        []uuid.UUID `json:"item_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	coll, err := h.service.CreateCollection(r.Context(), CreateCollectionParams{
		Title:          req.Title,
		Description:    req.Description,
		Private:        req.Private,
		CreatorID:      p.PatronID,
		AllowedUserIDs: req.AllowedUserIDs,
		ItemIDs:        req.ItemIDs,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(coll)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "collectionID"))
	if err != nil {
		http.Error(w, "invalid collection ID", http.StatusBadRequest)
		return
	}

	coll, err := h.service.GetCollection(r.Context(), membership.PrincipalFrom(r.Context()), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(coll)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "collectionID"))
	if err != nil {
		http.Error(w, "invalid collection ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteCollection(r.Context(), membership.PrincipalFrom(r.Context()), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	collectionID, err := uuid.Parse(chi.URLParam(r, "collectionID"))
	if err != nil {
		http.Error(w, "invalid collection ID", http.StatusBadRequest)
		return
	}

	p := membership.PrincipalFrom(r.Context())
	coll, err := h.service.GetCollection(r.Context(), p, collectionID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !p.Librarian && p.PatronID != coll.CreatorID {
		http.Error(w, "only the creator or a librarian may edit a collection", http.StatusForbidden)
		return
	}

	var req struct {
		ItemID uuid.UUID `json:"item_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.AddItem(r.Context(), collectionID, req.ItemID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	collectionID, err := uuid.Parse(chi.URLParam(r, "collectionID"))
	if err != nil {
		http.Error(w, "invalid collection ID", http.StatusBadRequest)
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		http.Error(w, "invalid item ID", http.StatusBadRequest)
		return
	}

	p := membership.PrincipalFrom(r.Context())
	coll, err := h.service.GetCollection(r.Context(), p, collectionID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !p.Librarian && p.PatronID != coll.CreatorID {
		http.Error(w, "only the creator or a librarian may edit a collection", http.StatusForbidden)
		return
	}

	if err := h.service.RemoveItem(r.Context(), collectionID, itemID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleGrantAccess(w http.ResponseWriter, r *http.Request) {
	collectionID, err := uuid.Parse(chi.URLParam(r, "collectionID"))
	if err != nil {
		http.Error(w, "invalid collection ID", http.StatusBadRequest)
		return
	}

	p := membership.PrincipalFrom(r.Context())
	coll, err := h.service.GetCollection(r.Context(), p, collectionID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !p.Librarian && p.PatronID != coll.CreatorID {
		http.Error(w, "only the creator or a librarian may edit a collection", http.StatusForbidden)
		return
	}

	var req struct {
		PatronID uuid.UUID `json:"patron_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.GrantAccess(r.Context(), collectionID, req.PatronID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) HandleRevokeAccess(w http.ResponseWriter, r *http.Request) {
	collectionID, err := uuid.Parse(chi.URLParam(r, "collectionID"))
	if err != nil {
		http.Error(w, "invalid collection ID", http.StatusBadRequest)
		return
	}
	patronID, err := uuid.Parse(chi.URLParam(r, "patronID"))
	if err != nil {
		http.Error(w, "invalid patron ID", http.StatusBadRequest)
		return
	}

	p := membership.PrincipalFrom(r.Context())
	coll, err := h.service.GetCollection(r.Context(), p, collectionID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !p.Librarian && p.PatronID != coll.CreatorID {
		http.Error(w, "only the creator or a librarian may edit a collection", http.StatusForbidden)
		return
	}

	if err := h.service.RevokeAccess(r.Context(), collectionID, patronID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrPermissionDenied):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrPrivateCollectionConflict), errors.Is(err, ErrPublicPrivateConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidCollection):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
