// internal/membership/handler.go
package membership

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}

	patron, err := h.service.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(patron)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	patron, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(patron)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	if p.Anonymous {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	patron, err := h.service.GetPatron(r.Context(), p.PatronID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(patron)
}

func (h *Handler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	if p.Anonymous {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		PhotoRef string `json:"photo_ref"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	patron, err := h.service.UpdateProfile(r.Context(), p.PatronID, req.Name, req.Email, req.PhotoRef)
	if err != nil {
		h.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(patron)
}

func (h *Handler) HandlePromote(w http.ResponseWriter, r *http.Request) {
	if !PrincipalFrom(r.Context()).Librarian {
		http.Error(w, "librarian role required", http.StatusForbidden)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "patronID"))
	if err != nil {
		http.Error(w, "invalid patron ID", http.StatusBadRequest)
		return
	}

	var req struct {
		CanAddItems bool `json:"can_add_items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Promote(r.Context(), id, req.CanAddItems); err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) HandleDemote(w http.ResponseWriter, r *http.Request) {
	if !PrincipalFrom(r.Context()).Librarian {
		http.Error(w, "librarian role required", http.StatusForbidden)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "patronID"))
	if err != nil {
		http.Error(w, "invalid patron ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Demote(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrAlreadyExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, ErrRateLimited):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
