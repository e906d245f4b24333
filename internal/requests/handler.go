// internal/requests/handler.go
package requests

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"campuslend/internal/catalog"
	"campuslend/internal/circulation"
	"campuslend/internal/collections"
	"campuslend/internal/membership"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleSubmitBorrow(w http.ResponseWriter, r *http.Request) {
	p := membership.PrincipalFrom(r.Context())
	if p.Anonymous {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req struct {
		ItemID   uuid.UUID `json:"item_id"`
		Quantity int       `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	br, err := h.service.SubmitBorrowRequest(r.Context(), p.PatronID, req.ItemID, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(br)
}

func (h *Handler) HandleListBorrow(w http.ResponseWriter, r *http.Request) {
	p := membership.PrincipalFrom(r.Context())
	if p.Anonymous {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	// Librarians see the approval queue; patrons see their own asks.
	if p.Librarian {
		reqs, err := h.service.ListPendingBorrow(r.Context())
		if err != nil {
			h.writeError(w, err)
			return
		}
		json.NewEncoder(w).Encode(reqs)
		return
	}

	reqs, err := h.service.ListBorrowForPatron(r.Context(), p.PatronID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(reqs)
}

func (h *Handler) HandleApproveBorrow(w http.ResponseWriter, r *http.Request) {
	p := membership.PrincipalFrom(r.Context())
	if !p.Librarian {
		http.Error(w, "librarian role required", http.StatusForbidden)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		http.Error(w, "invalid request ID", http.StatusBadRequest)
		return
	}

	loan, err := h.service.ApproveBorrowRequest(r.Context(), id, p.PatronID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(loan)
}

func (h *Handler) HandleRejectBorrow(w http.ResponseWriter, r *http.Request) {
	p := membership.PrincipalFrom(r.Context())
	if !p.Librarian {
		http.Error(w, "librarian role required", http.StatusForbidden)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		http.Error(w, "invalid request ID", http.StatusBadRequest)
		return
	}

	if err := h.service.RejectBorrowRequest(r.Context(), id, p.PatronID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) HandleSubmitCollection(w http.ResponseWriter, r *http.Request) {
	p := membership.PrincipalFrom(r.Context())
	if p.Anonymous {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	collectionID, err := uuid.Parse(chi.URLParam(r, "collectionID"))
	if err != nil {
		http.Error(w, "invalid collection ID", http.StatusBadRequest)
		return
	}

	cr, err := h.service.SubmitCollectionRequest(r.Context(), p.PatronID, collectionID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(cr)
}

func (h *Handler) HandleListPendingCollection(w http.ResponseWriter, r *http.Request) {
	if !membership.PrincipalFrom(r.Context()).Librarian {
		http.Error(w, "librarian role required", http.StatusForbidden)
		return
	}

	reqs, err := h.service.ListPendingCollection(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(reqs)
}

func (h *Handler) HandleApproveCollection(w http.ResponseWriter, r *http.Request) {
	p := membership.PrincipalFrom(r.Context())
	if !p.Librarian {
		http.Error(w, "librarian role required", http.StatusForbidden)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		http.Error(w, "invalid request ID", http.StatusBadRequest)
		return
	}

	if err := h.service.ApproveCollectionRequest(r.Context(), id, p.PatronID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) HandleRejectCollection(w http.ResponseWriter, r *http.Request) {
	p := membership.PrincipalFrom(r.Context())
	if !p.Librarian {
		http.Error(w, "librarian role required", http.StatusForbidden)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		http.Error(w, "invalid request ID", http.StatusBadRequest)
		return
	}

	if err := h.service.RejectCollectionRequest(r.Context(), id, p.PatronID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, catalog.ErrNotFound), errors.Is(err, collections.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrRequestDecided):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, catalog.ErrInsufficientQuantity):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, circulation.ErrInvalidQuantity):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
