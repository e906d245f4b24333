// internal/circulation/handler.go
package circulation

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

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

// loanView decorates a loan with its derived state for rendering.
type loanView struct {
	Loan
	Status Status `json:"status"`
	Late   bool   `json:"late"`
}

func viewOf(l *Loan) loanView {
	return loanView{Loan: *l, Status: l.Status(), Late: IsLate(l, time.Now())}
}

// HandleBorrow lets a librarian open a loan directly, bypassing the
// request queue (walk-up lending at the desk).
func (h *Handler) HandleBorrow(w http.ResponseWriter, r *http.Request) {
	if !membership.PrincipalFrom(r.Context()).Librarian {
		http.Error(w, "librarian role required", http.StatusForbidden)
		return
	}

	var req struct {
		PatronID     uuid.UUID `json:"patron_id"`
		ItemID       uuid.UUID `json:"item_id"`
		Quantity     int       `json:"quantity"`
		DurationDays int       `json:"duration_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.DurationDays == 0 {
		req.DurationDays = 7
	}

	loan, err := h.service.Borrow(r.Context(), req.PatronID, req.ItemID, req.Quantity, req.DurationDays)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(viewOf(loan))
}

func (h *Handler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(chi.URLParam(r, "loanID"))
	if err != nil {
		http.Error(w, "invalid loan ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p := membership.PrincipalFrom(r.Context())
	loan, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !p.Librarian && p.PatronID != loan.PatronID {
		http.Error(w, "not your loan", http.StatusForbidden)
		return
	}

	updated, err := h.service.ReturnPortion(r.Context(), loanID, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(viewOf(updated))
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	p := membership.PrincipalFrom(r.Context())
	if p.Anonymous {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	loans, err := h.service.ListLoansForPatron(r.Context(), p.PatronID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	views := make([]loanView, 0, len(loans))
	for i := range loans {
		views = append(views, viewOf(&loans[i]))
	}
	json.NewEncoder(w).Encode(views)
}

func (h *Handler) HandleListForItem(w http.ResponseWriter, r *http.Request) {
	if !membership.PrincipalFrom(r.Context()).Librarian {
		http.Error(w, "librarian role required", http.StatusForbidden)
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		http.Error(w, "invalid item ID", http.StatusBadRequest)
		return
	}

	loans, err := h.service.ListOpenLoansForItem(r.Context(), itemID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	views := make([]loanView, 0, len(loans))
	for i := range loans {
		views = append(views, viewOf(&loans[i]))
	}
	json.NewEncoder(w).Encode(views)
}

func (h *Handler) HandleListOverdue(w http.ResponseWriter, r *http.Request) {
	if !membership.PrincipalFrom(r.Context()).Librarian {
		http.Error(w, "librarian role required", http.StatusForbidden)
		return
	}

	loans, err := h.service.ListOverdue(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	views := make([]loanView, 0, len(loans))
	for i := range loans {
		views = append(views, viewOf(&loans[i]))
	}
	json.NewEncoder(w).Encode(views)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidQuantity):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, catalog.ErrInsufficientQuantity):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
