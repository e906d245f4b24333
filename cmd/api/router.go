// cmd/api/router.go
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"campuslend/internal/catalog"
	"campuslend/internal/circulation"
	"campuslend/internal/collections"
	"campuslend/internal/config"
	"campuslend/internal/membership"
	"campuslend/internal/messages"
	"campuslend/internal/requests"
	"campuslend/internal/reviews"
)

type handlers struct {
	membership  *membership.Handler
	catalog     *catalog.Handler
	collections *collections.Handler
	circulation *circulation.Handler
	requests    *requests.Handler
	reviews     *reviews.Handler
	messages    *messages.Handler
}

func newRouter(cfg *config.Config, log *zap.Logger, h handlers, members membership.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(rateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	r.Use(principalResolver(members, log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/register", h.membership.HandleRegister)
		r.Post("/login", h.membership.HandleLogin)
		r.Get("/me", h.membership.HandleMe)
		r.Patch("/me", h.membership.HandleUpdateMe)
		r.Post("/patrons/{patronID}/promote", h.membership.HandlePromote)
		r.Post("/patrons/{patronID}/demote", h.membership.HandleDemote)

		r.Route("/items", func(r chi.Router) {
			r.Get("/", h.catalog.HandleListItems)
			r.Post("/", h.catalog.HandleCreateItem)
			r.Get("/{itemID}", h.catalog.HandleGetItem)
			r.Patch("/{itemID}", h.catalog.HandleUpdateItem)
			r.Delete("/{itemID}", h.catalog.HandleDeleteItem)
			r.Post("/{itemID}/photos", h.catalog.HandleAddPhoto)
			r.Get("/{itemID}/photos", h.catalog.HandleListPhotos)
			r.Get("/{itemID}/reviews", h.reviews.HandleListForItem)
			r.Post("/{itemID}/reviews", h.reviews.HandleCreate)
			r.Get("/{itemID}/loans", h.circulation.HandleListForItem)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Patch("/{reviewID}", h.reviews.HandleUpdate)
			r.Delete("/{reviewID}", h.reviews.HandleDelete)
		})

		r.Route("/collections", func(r chi.Router) {
			r.Get("/", h.collections.HandleList)
			r.Post("/", h.collections.HandleCreate)
			r.Get("/{collectionID}", h.collections.HandleGet)
			r.Delete("/{collectionID}", h.collections.HandleDelete)
			r.Post("/{collectionID}/items", h.collections.HandleAddItem)
			r.Delete("/{collectionID}/items/{itemID}", h.collections.HandleRemoveItem)
			r.Post("/{collectionID}/access", h.collections.HandleGrantAccess)
			r.Delete("/{collectionID}/access/{patronID}", h.collections.HandleRevokeAccess)
			r.Post("/{collectionID}/requests", h.requests.HandleSubmitCollection)
		})

		r.Route("/loans", func(r chi.Router) {
			r.Get("/", h.circulation.HandleListMine)
			r.Post("/", h.circulation.HandleBorrow)
			r.Get("/overdue", h.circulation.HandleListOverdue)
			r.Post("/{loanID}/return", h.circulation.HandleReturn)
		})

		r.Route("/borrow-requests", func(r chi.Router) {
			r.Get("/", h.requests.HandleListBorrow)
			r.Post("/", h.requests.HandleSubmitBorrow)
			r.Post("/{requestID}/approve", h.requests.HandleApproveBorrow)
			r.Post("/{requestID}/reject", h.requests.HandleRejectBorrow)
		})

		r.Route("/collection-requests", func(r chi.Router) {
			r.Get("/", h.requests.HandleListPendingCollection)
			r.Post("/{requestID}/approve", h.requests.HandleApproveCollection)
			r.Post("/{requestID}/reject", h.requests.HandleRejectCollection)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Get("/", h.messages.HandleList)
			r.Get("/unread-count", h.messages.HandleUnreadCount)
			r.Post("/{messageID}/read", h.messages.HandleMarkRead)
		})
	})

	return r
}
