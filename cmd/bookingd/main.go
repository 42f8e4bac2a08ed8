package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/cinebook/cinema-booking/internal/booking"
	"github.com/cinebook/cinema-booking/internal/config"
	"github.com/cinebook/cinema-booking/internal/database"
	"github.com/cinebook/cinema-booking/internal/inventory"
	"github.com/cinebook/cinema-booking/internal/queue"
	"github.com/cinebook/cinema-booking/internal/repository"
	"github.com/cinebook/cinema-booking/internal/service"
	"github.com/cinebook/cinema-booking/internal/service/queue_publisher"
)

// main wires the booking daemon: configuration, MySQL, the selected seat
// inventory backend, the booking engine with its hold reaper, and the
// order-confirmed queue consumer.  The process runs until SIGINT or
// SIGTERM, then cancels the shared context so the reaper and consumer
// wind down.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.Env == "prod" {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(logrus.DebugLevel)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	store := newStore(cfg, db)
	ledger := newLedger(cfg, db)

	catalog := service.NewCatalogService(repository.NewCatalogRepo(db), store)
	engine := booking.NewEngine(store, ledger, catalog, cfg.HoldTTL)
	engine.SetPublisher(&queue_publisher.Publisher{})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auth := service.NewAuthService(repository.NewUserRepo(db), cfg.JWTSecret, cfg.AccessTTLMin, cfg.BcryptCost)
	bootstrapAdmin(ctx, auth)

	reaper := booking.NewReaper(store, ledger, cfg.ReaperInterval)
	go reaper.Start(ctx)

	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			logrus.WithError(err).Error("order consumer stopped")
		}
	}()

	logrus.WithFields(logrus.Fields{
		"env":     cfg.Env,
		"backend": cfg.StoreBackend,
		"holdTTL": cfg.HoldTTL,
	}).Info("booking daemon started")

	<-ctx.Done()
	logrus.Info("shutdown signal received")
}

// bootstrapAdmin registers the admin account named by ADMIN_USERNAME and
// ADMIN_PASSWORD when both are set.  An already-taken username is fine;
// it means a previous boot created the account.
func bootstrapAdmin(ctx context.Context, auth *service.AuthService) {
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		return
	}
	if _, err := auth.Register(ctx, username, password, "admin"); err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			return
		}
		logrus.WithError(err).Warn("admin bootstrap failed")
	}
}

// newStore selects the seat inventory backend from configuration.
func newStore(cfg config.Config, db *sql.DB) inventory.Store {
	switch cfg.StoreBackend {
	case "redis":
		client := config.NewRedisClient()
		if client == nil {
			logrus.Fatal("STORE_BACKEND=redis but redis is unreachable")
		}
		return inventory.NewRedisStore(client)
	case "mysql":
		return repository.NewSeatStore(db)
	case "memory":
		return inventory.NewMemoryStore()
	default:
		logrus.Fatalf("unknown STORE_BACKEND %q", cfg.StoreBackend)
		return nil
	}
}

// newLedger pairs the order ledger with the inventory backend: the
// memory store gets the in-process ledger, everything else persists
// orders in MySQL.
func newLedger(cfg config.Config, db *sql.DB) booking.Ledger {
	if cfg.StoreBackend == "memory" {
		return booking.NewMemoryLedger()
	}
	return repository.NewOrderLedger(db)
}
