package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/example/mall-backoffice/internal/config"
	"github.com/example/mall-backoffice/internal/email"
	"github.com/example/mall-backoffice/internal/infrastructure/kinesis"
	"github.com/example/mall-backoffice/internal/infrastructure/store"
	"github.com/example/mall-backoffice/internal/notification"
)

const component = "Lambda Notifier"

var notificationHandler *notification.Handler

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

	emailSvc := email.NewService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
	notificationHandler = notification.NewHandler(emailSvc, store.NewPostgres(db))

	log.Printf("[%s] Initialized successfully (SMTP: %s:%s)", component, cfg.SMTPHost, cfg.SMTPPort)
}

// handler reads the archive table's change stream; only order.placed events
// produce mail.
func handler(ctx context.Context, batch events.KinesisEvent) (events.KinesisEventResponse, error) {
	return kinesis.ProcessBatch(ctx, component, batch, notificationHandler.HandleEvent), nil
}

func main() {
	lambda.Start(handler)
}
