package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/app"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/config"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/db"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/logging"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/notify"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/payment"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/ratelimit"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	logger := logging.New(cfg.LogLevel, cfg.IsProduction)

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN, int32(cfg.DBMaxConns))
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to db")
	}
	defer pool.Close()

	// Redis is optional; an unreachable server degrades instead of failing startup.
	rdb, err := db.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.WithError(err).Warn("redis unavailable, continuing without it")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Event notifier
	var notifier notify.Notifier
	if cfg.AMQPURL != "" {
		amqpNotifier := notify.NewAMQPNotifier(cfg.AMQPURL, cfg.NotifyExchange)
		defer amqpNotifier.Close()
		notifier = amqpNotifier
	} else {
		logger.Info("AMQP_URL not set, events are logged only")
		notifier = notify.NewLogNotifier(logger)
	}

	container := app.NewContainer(app.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		Logger:         logger,
		DBPool:         pool,
		Redis:          rdb,
		JWTSecret:      cfg.JWTSecret,
		JWTTTL:         cfg.JWTAccessTokenTTL,
		Notifier:       notifier,
		NotifyTimeout:  5 * time.Second,
		Gateway:        payment.NewHTTPClient(cfg.PaymentGatewayURL, cfg.PaymentGatewayKey, cfg.PaymentTimeout),
		IdempotencyTTL: cfg.IdempotencyTTL,
		WebhookToken:   cfg.PaymentWebhookToken,
		BulkMaxItems:   cfg.BulkMaxItems,
		RateLimit: ratelimit.Config{
			Enabled:        cfg.RateLimitEnabled,
			Capacity:       cfg.RateLimitCapacity,
			RefillTokens:   1,
			RefillInterval: cfg.RateLimitRefillInterval,
		},
	})

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: container.Router,
	}

	// Run server in separate goroutine
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("server running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server error")
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	logger.Info("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("server forced to shutdown")
	}

	// Flush in-flight notifications before closing the broker connection.
	container.Dispatcher.Wait()

	logger.Info("server exited gracefully")
}
