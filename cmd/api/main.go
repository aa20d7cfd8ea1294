package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/mall-backoffice/internal/api"
	"github.com/example/mall-backoffice/internal/auth"
	"github.com/example/mall-backoffice/internal/config"
	"github.com/example/mall-backoffice/internal/domain/cart"
	"github.com/example/mall-backoffice/internal/domain/employee"
	"github.com/example/mall-backoffice/internal/domain/lease"
	"github.com/example/mall-backoffice/internal/domain/order"
	"github.com/example/mall-backoffice/internal/domain/payment"
	"github.com/example/mall-backoffice/internal/domain/product"
	"github.com/example/mall-backoffice/internal/domain/shop"
	"github.com/example/mall-backoffice/internal/domain/user"
	"github.com/example/mall-backoffice/internal/domain/zone"
	"github.com/example/mall-backoffice/internal/events"
	"github.com/example/mall-backoffice/internal/infrastructure/archive"
	"github.com/example/mall-backoffice/internal/infrastructure/kafka"
	"github.com/example/mall-backoffice/internal/infrastructure/store"
	"github.com/example/mall-backoffice/internal/reporting"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[API] %v", err)
	}
	if err := cfg.ValidateJWT(); err != nil {
		log.Fatalf("[API] %v", err)
	}

	ctx := context.Background()

	log.Println("[API] ========================================")
	log.Println("[API] Mall back-office")
	log.Println("[API] ========================================")

	st, db, err := openStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[API] Failed to open store: %v", err)
	}
	if db != nil {
		defer db.Close()
	}

	var publisher events.Publisher = events.LogPublisher{}
	if cfg.KafkaEnabled() {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		publisher = producer
		log.Printf("[API] Kafka: %v (topic %s)", cfg.KafkaBrokers, cfg.KafkaTopic)
	} else {
		log.Println("[API] Kafka: disabled, events are only logged")
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL)
	userSvc := user.NewService(st)

	services := api.Services{
		Users:     userSvc,
		Zones:     zone.NewService(st),
		Shops:     shop.NewService(st, st, st),
		Leases:    lease.NewService(st, st, st),
		Payments:  payment.NewService(st, st),
		Employees: employee.NewService(st),
		Products:  product.NewService(st, st),
		Carts:     cart.NewService(st, st),
		Orders:    order.NewService(st, st, publisher, cfg.CheckoutTimeout),
		Reports:   reporting.NewService(st),
	}
	if cfg.ArchiveTable != "" {
		arch, err := archive.Connect(ctx, cfg.AWSRegion, cfg.ArchiveTable)
		if err != nil {
			log.Fatalf("[API] Failed to connect to DynamoDB: %v", err)
		}
		services.History = arch
		log.Printf("[API] Event archive: %s", cfg.ArchiveTable)
	}

	router := api.NewRouter(api.RouterConfig{
		Handlers:     api.NewHandlers(services),
		AuthHandlers: api.NewAuthHandlers(userSvc, jwtService),
		JWT:          jwtService,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[API] Server started on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API] Shutdown error: %v", err)
	}
}

// openStore returns the in-memory store when no database is configured.
// The returned *sql.DB is nil in that case.
func openStore(ctx context.Context, databaseURL string) (store.Store, *sql.DB, error) {
	if databaseURL == "" {
		log.Println("[API] Storage: in-memory (DATABASE_URL not set)")
		return store.NewMemory(), nil, nil
	}

	db, err := store.ConnectPostgres(databaseURL)
	if err != nil {
		return nil, nil, err
	}
	pg := store.NewPostgres(db)
	if err := pg.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Println("[API] Storage: PostgreSQL")
	return pg, db, nil
}
