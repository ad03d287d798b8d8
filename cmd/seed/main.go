// Command seed loads a parcel dataset into Postgres so the tracker can run
// with PARCEL_STORE=postgres.
//
// Usage:
//
//	go run ./cmd/seed -database-url postgres://localhost/parcels
//	go run ./cmd/seed -dataset parcels.json
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/couchcryptid/parcel-delay-service/internal/dataset"
	"github.com/couchcryptid/parcel-delay-service/internal/domain"
	"github.com/couchcryptid/parcel-delay-service/internal/observability"
	"github.com/couchcryptid/parcel-delay-service/internal/store/postgres"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	_ = godotenv.Load()

	path := flag.String("dataset", "", "path to a parcel dataset JSON file (default: embedded dataset)")
	databaseURL := flag.String("database-url", os.Getenv("DATABASE_URL"), "Postgres connection string")
	flag.Parse()

	if *databaseURL == "" {
		flag.Usage()
		return fmt.Errorf("missing -database-url or DATABASE_URL")
	}

	parcels, err := loadDataset(*path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	logger := observability.NewLogger("info", "text")
	store, err := postgres.Open(ctx, *databaseURL, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitSchema(ctx); err != nil {
		return err
	}
	for _, p := range parcels {
		if err := store.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert %s: %w", p.TrackingID, err)
		}
		log.Printf("seeded %s (%s, %d activities)", p.TrackingID, p.Status, len(p.Activities))
	}
	log.Printf("seeded %d parcels", len(parcels))
	return nil
}

func loadDataset(path string) ([]domain.ParcelData, error) {
	if path == "" {
		return dataset.Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return dataset.Load(f)
}
