// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"campuslend/internal/catalog"
	"campuslend/internal/circulation"
	"campuslend/internal/collections"
	"campuslend/internal/config"
	"campuslend/internal/membership"
	"campuslend/internal/messages"
	"campuslend/internal/requests"
	"campuslend/internal/reviews"
	"campuslend/internal/storage"
)

func main() {
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	db, err := storage.Open(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}

	if err := storage.Migrate(db,
		&membership.Patron{},
		&membership.Credential{},
		&catalog.Item{},
		&catalog.Photo{},
		&collections.Collection{},
		&circulation.Loan{},
		&requests.BorrowRequest{},
		&requests.CollectionRequest{},
		&reviews.Review{},
		&messages.Message{},
	); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := setupTracing(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal("init tracing", zap.Error(err))
	}

	membershipSvc := membership.NewService(db)
	collectionsSvc := collections.NewService(db)
	catalogSvc := catalog.NewService(db)
	circulationSvc := circulation.NewService(db)
	messagesSvc := messages.NewService(db)
	requestsSvc := requests.NewService(db, messagesSvc, log, cfg.LoanDurationDays)
	reviewsSvc := reviews.NewService(db)

	router := newRouter(cfg, log, handlers{
		membership:  membership.NewHandler(membershipSvc),
		catalog:     catalog.NewHandler(catalogSvc, collectionsSvc),
		collections: collections.NewHandler(collectionsSvc),
		circulation: circulation.NewHandler(circulationSvc),
		requests:    requests.NewHandler(requestsSvc),
		reviews:     reviews.NewHandler(reviewsSvc),
		messages:    messages.NewHandler(messagesSvc),
	}, membershipSvc)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("serve", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("flush traces", zap.Error(err))
	}
}
