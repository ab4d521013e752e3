package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/trendkart/commerce-api/internal/api"
	mongostore "github.com/trendkart/commerce-api/internal/infrastructure/db/mongo"
	redisstore "github.com/trendkart/commerce-api/internal/infrastructure/db/redis"
	stripegw "github.com/trendkart/commerce-api/internal/infrastructure/payment/stripe"
	"github.com/trendkart/commerce-api/internal/pkg/config"
	"github.com/trendkart/commerce-api/pkg/logger"
)

// @title        Commerce API
// @version      1.0
// @description  E-commerce backend: catalog, cart, checkout and order tracking.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Service: "commerce-api",
		Pretty:  cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	ensureIndexes(ctx, db, log)

	gateway := stripegw.NewGateway(stripegw.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		Currency:      cfg.Stripe.Currency,
	})

	e, dispatcher := api.NewRouter(cfg, client, db, rdb, gateway)
	dispatcher.Start(ctx)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	} else {
		log.Info().Msg("server stopped")
	}
}

// ensureIndexes creates all collection indexes at startup. Failures are
// logged, not fatal; the service still works without them.
func ensureIndexes(ctx context.Context, db *mongodriver.Database, log zerolog.Logger) {
	type indexed interface {
		EnsureIndexes(ctx context.Context) error
	}
	repos := map[string]indexed{
		"orders":       mongostore.NewOrderRepository(db),
		"products":     mongostore.NewProductRepository(db),
		"addresses":    mongostore.NewAddressRepository(db),
		"users":        mongostore.NewAuthRepository(db),
		"order_events": mongostore.NewOrderEventRepository(db),
	}
	for name, repo := range repos {
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Str("collection", name).Msg("index creation failed")
		}
	}
}
