// internal/messages/handler.go
package messages

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"campuslend/internal/membership"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p := membership.PrincipalFrom(r.Context())
	if p.Anonymous {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	msgs, err := h.service.ListForRecipient(r.Context(), p.PatronID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(msgs)
}

func (h *Handler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	p := membership.PrincipalFrom(r.Context())
	if p.Anonymous {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	n, err := h.service.UnreadCount(r.Context(), p.PatronID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]int64{"unread": n})
}

func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	p := membership.PrincipalFrom(r.Context())
	if p.Anonymous {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "messageID"))
	if err != nil {
		http.Error(w, "invalid message ID", http.StatusBadRequest)
		return
	}

	if err := h.service.MarkRead(r.Context(), p.PatronID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
