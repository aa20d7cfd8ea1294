package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/example/mall-backoffice/internal/config"
	"github.com/example/mall-backoffice/internal/infrastructure/kinesis"
	"github.com/example/mall-backoffice/internal/infrastructure/store"
	"github.com/example/mall-backoffice/internal/projection"
)

const component = "Lambda Projector"

var projector *projection.Projector

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[%s] %v", component, err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatalf("[%s] DATABASE_URL is required", component)
	}

	db, err := store.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[%s] Failed to connect to PostgreSQL: %v", component, err)
	}

	// The events already come from the archive, so nothing is re-archived.
	projector = projection.NewProjector(store.NewPostgres(db), nil)

	log.Printf("[%s] Initialized successfully", component)
}

func handler(ctx context.Context, batch events.KinesisEvent) (events.KinesisEventResponse, error) {
	return kinesis.ProcessBatch(ctx, component, batch, projector.HandleEvent), nil
}

func main() {
	lambda.Start(handler)
}
