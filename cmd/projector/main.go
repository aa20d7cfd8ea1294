package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/mall-backoffice/internal/config"
	"github.com/example/mall-backoffice/internal/domain/order"
	"github.com/example/mall-backoffice/internal/infrastructure/archive"
	"github.com/example/mall-backoffice/internal/infrastructure/kafka"
	"github.com/example/mall-backoffice/internal/infrastructure/store"
	"github.com/example/mall-backoffice/internal/projection"
)

const consumerGroup = "sales-projector"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Projector] %v", err)
	}
	if !cfg.KafkaEnabled() {
		log.Fatal("[Projector] KAFKA_BROKERS is required")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("[Projector] DATABASE_URL is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Println("[Projector] ========================================")
	log.Println("[Projector] Daily sales projection")
	log.Println("[Projector] ========================================")
	log.Printf("[Projector] Kafka: %v", cfg.KafkaBrokers)
	log.Printf("[Projector] Topic: %s", cfg.KafkaTopic)
	log.Printf("[Projector] Group: %s", consumerGroup)

	db, err := store.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Projector] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()
	pg := store.NewPostgres(db)
	if err := pg.Migrate(ctx); err != nil {
		log.Fatalf("[Projector] Failed to migrate: %v", err)
	}

	var archiver projection.Archiver
	if cfg.ArchiveTable != "" {
		arch, err := archive.Connect(ctx, cfg.AWSRegion, cfg.ArchiveTable)
		if err != nil {
			log.Fatalf("[Projector] Failed to connect to DynamoDB: %v", err)
		}
		archiver = arch
		log.Printf("[Projector] Archive: %s (%s)", cfg.ArchiveTable, cfg.AWSRegion)
	}

	projector := projection.NewProjector(pg, archiver)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, consumerGroup,
		order.EventOrderPlaced, order.EventOrderStatusChanged, order.EventOrderPaid)
	defer consumer.Close()

	go func() {
		log.Println("[Projector] Starting event consumer...")
		if err := consumer.Consume(ctx, projector.HandleEvent); err != nil && ctx.Err() == nil {
			log.Printf("[Projector] Consumer error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Projector] Shutting down...")
	cancel()
}
