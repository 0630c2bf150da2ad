package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"campusmart/internal/config"
	"campusmart/internal/database"
	"campusmart/internal/handlers"
	"campusmart/internal/repositories"
	"campusmart/internal/services"
	"campusmart/pkg/logger"
	"campusmart/pkg/rabbitmq"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	// --- Database ---
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN, zlog)
	if err != nil {
		zlog.Fatal("failed to open database", zap.Error(err))
	}
	store := repositories.NewGORMStore(db)
	repos := store.Repositories()

	// --- Events ---
	var publisher services.EventPublisher = services.NoopPublisher{}
	if cfg.EventsEnabled() {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:      cfg.RabbitMQURL,
			Exchange: cfg.EventsExchange,
		}, zlog)
		if err != nil {
			zlog.Fatal("failed to initialize RabbitMQ client", zap.Error(err))
		}
		defer mqClient.Close()
		publisher = mqClient

		if err := mqClient.ConsumeEvents(auditEvent(zlog)); err != nil {
			zlog.Error("failed to start event consumer", zap.Error(err))
		}
	} else {
		zlog.Info("RABBITMQ_URL not set, marketplace events are disabled")
	}

	// --- Services ---
	var captcha services.CaptchaVerifier = services.PresenceCaptchaVerifier{}
	if cfg.CaptchaEnabled() {
		captcha = services.NewRecaptchaVerifier(cfg.RecaptchaSecret, cfg.RecaptchaVerifyURL)
	} else {
		zlog.Warn("RECAPTCHA_SECRET not set, login only checks that a CAPTCHA token is present")
	}
	hasher := services.NewHasher(cfg.BcryptCost)

	authService := services.NewAuthService(repos.Users, captcha, hasher, services.AuthConfig{
		JWTSecret:          cfg.JWTSecret,
		TokenTTL:           cfg.TokenTTL,
		AllowedEmailDomain: cfg.AllowedEmailDomain,
	}, zlog)

	// --- Fiber App ---
	app := handlers.NewApp(handlers.Dependencies{
		Auth:        authService,
		Users:       services.NewUserService(repos.Users, zlog),
		Cart:        services.NewCartService(repos.Users, repos.Items, zlog),
		Reviews:     services.NewReviewService(repos.Users, publisher, zlog),
		Catalog:     services.NewCatalogService(repos.Items, repos.Users, zlog),
		Orders:      services.NewOrderService(store, repos, hasher, publisher, zlog),
		CAS:         services.NewCASClient(cfg.CASValidateURL, cfg.CASServiceURL),
		AuthHeader:  cfg.AuthHeader,
		FrontendURL: cfg.FrontendURL,
		CORSOrigins: cfg.CORSOrigins,
		AccessLog:   true,
		Log:         zlog,
	})

	// --- Start HTTP Server ---
	zlog.Info("starting server", zap.String("addr", cfg.AppPort), zap.String("db_driver", cfg.DBDriver))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			zlog.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-quit
	zlog.Info("shutting down server")

	if err := app.Shutdown(); err != nil {
		zlog.Error("error during Fiber shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	zlog.Info("server gracefully stopped")
}

// auditEvent logs every marketplace event seen on the audit queue. Bodies
// that are not JSON objects are rejected so they are not acked silently.
func auditEvent(zlog *zap.Logger) func(msg amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var fields map[string]any
		if err := json.Unmarshal(msg.Body, &fields); err != nil {
			return fmt.Errorf("decode %s event: %w", msg.RoutingKey, err)
		}
		zlog.Info("marketplace event",
			zap.String("routing_key", msg.RoutingKey),
			zap.Time("published_at", msg.Timestamp),
			zap.Any("payload", fields),
		)
		return nil
	}
}
