// cmd/migrate/main.go
package main

import (
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

	log.Info("schema up to date")
}
