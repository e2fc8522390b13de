// cmd/api/app.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/memory"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/postgres"
	redisdb "github.com/your-org/storefront-backend/internal/infrastructure/database/redis"
	"github.com/your-org/storefront-backend/internal/infrastructure/messaging/kafka"
	httpserver "github.com/your-org/storefront-backend/internal/interfaces/http"
	"github.com/your-org/storefront-backend/internal/interfaces/http/routes"
	"github.com/your-org/storefront-backend/internal/pkg/email"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
	"github.com/your-org/storefront-backend/internal/pkg/pdf"
)

const shutdownTimeout = 30 * time.Second

// store is everything the services need from a storage backend
type store interface {
	product.Repository
	cart.Repository
	cart.SessionSweeper
	order.Repository
	Ping(ctx context.Context) error
	SeedCatalog(ctx context.Context, products []product.Product) (int, error)
}

// backend is an opened storage driver
type backend struct {
	store store
	db    *postgres.DB
}

func (b *backend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, logger.New(cfg), nil
}

func openBackend(cfg *config.Config, log *logrus.Logger) (*backend, error) {
	if cfg.Database.Driver == "memory" {
		log.Warn("⚠️ Using in-memory store, data is lost on restart")
		return &backend{store: memory.NewStore()}, nil
	}

	db, err := postgres.NewConnection(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Health(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database health check failed: %w", err)
	}

	return &backend{store: postgres.NewStore(db.GetDB()), db: db}, nil
}

func migrate(b *backend, log *logrus.Logger) error {
	if b.db == nil {
		log.Info("⏭️ In-memory store needs no migrations")
		return nil
	}

	migration := postgres.NewMigration(b.db.GetDB())
	if err := migration.RunAutoMigrations(); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	if err := migration.CreateIndexes(); err != nil {
		log.WithError(err).Warn("index creation failed")
	}
	return nil
}

func seed(ctx context.Context, b *backend, log *logrus.Logger) error {
	if b.db != nil {
		return postgres.NewMigration(b.db.GetDB()).SeedInitialData(ctx)
	}

	inserted, err := b.store.SeedCatalog(ctx, product.DemoCatalog())
	if err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	if inserted == 0 {
		log.Info("⏭️ Products already exist")
		return nil
	}
	log.WithField("products", inserted).Info("🌱 Seeded demo catalog")
	return nil
}

func runMigrate(ctx context.Context) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	b, err := openBackend(cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := migrate(b, log); err != nil {
		return err
	}
	if b.db != nil {
		_, err := postgres.NewMigration(b.db.GetDB()).GetTableInfo()
		return err
	}
	return nil
}

func runSeed(ctx context.Context) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	b, err := openBackend(cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := migrate(b, log); err != nil {
		return err
	}
	return seed(contextOrBackground(ctx), b, log)
}

func runServe(ctx context.Context) error {
	ctx = contextOrBackground(ctx)

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	httpserver.SetGinMode(cfg)

	log.Infof("🚀 Starting %s v%s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	b, err := openBackend(cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := migrate(b, log); err != nil {
		return err
	}

	// Seed the demo catalog in development; the memory store always starts empty
	if cfg.IsDevelopment() || b.db == nil {
		if err := seed(ctx, b, log); err != nil {
			log.WithError(err).Warn("data seeding failed")
		}
	}

	m := metrics.New()
	listeners := []order.Listener{m}

	var (
		redisClient *redisdb.Client
		tracker     cart.ActivityTracker
		idem        order.IdempotencyStore
	)
	if cfg.Redis.Enabled {
		redisClient, err = redisdb.NewConnection(cfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		tracker = redisdb.NewSessionTracker(redisClient)
		idem = redisdb.NewIdempotencyStore(redisClient, cfg.Cart.IdempotencyTTL)
	} else {
		log.Warn("⚠️ Redis disabled: no rate limiting, session expiry or checkout idempotency")
	}

	if cfg.KafkaEnabled() {
		publisher := kafka.NewPublisher(cfg)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.WithError(err).Error("failed to close kafka publisher")
			}
		}()
		listeners = append(listeners, publisher)
		log.WithField("topic", cfg.Kafka.OrderTopic).Info("📨 Publishing order events to Kafka")
	}

	if cfg.EmailEnabled() {
		emailService := email.NewEmailService(cfg, log)
		defer emailService.Wait()
		listeners = append(listeners, emailService)
		log.WithField("smtp_host", cfg.Email.SMTPHost).Info("📧 Sending order confirmation emails")
	}

	cartService := cart.NewService(b.store, tracker, log)
	orderService := order.NewService(b.store, idem, log, listeners...)

	deps := httpserver.Dependencies{
		Dependencies: routes.Dependencies{
			Products: product.NewService(b.store),
			Cart:     cartService,
			Orders:   orderService,
			Receipts: pdf.NewService(cfg),
			Logger:   log,
		},
		Store:   b.store,
		Metrics: m,
	}
	if redisClient != nil {
		deps.Redis = redisClient
		deps.RedisClient = redisClient.GetClient()
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	if redisClient != nil && cfg.Cart.SessionTTL > 0 {
		janitor := cart.NewJanitor(b.store, redisdb.NewSessionTracker(redisClient), cfg.Cart.SessionTTL, cfg.Cart.JanitorInterval, log)
		go janitor.Run(runCtx)
		log.WithFields(logrus.Fields{
			"ttl":      cfg.Cart.SessionTTL.String(),
			"interval": cfg.Cart.JanitorInterval.String(),
		}).Info("🧹 Cart janitor started")
	}

	log.Info("✅ All systems operational!")

	server := httpserver.NewServer(cfg, deps)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
		return errors.New("HTTP server stopped unexpectedly")
	case <-quit:
	case <-ctx.Done():
	}

	log.Info("👋 Shutting down gracefully...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("failed to shutdown HTTP server gracefully")
	}

	log.Info("✅ Server shutdown completed")
	return nil
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
