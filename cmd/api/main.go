package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/skybazaar/skybazaar-backend/api/routes"
	"github.com/skybazaar/skybazaar-backend/internal/cart"
	"github.com/skybazaar/skybazaar-backend/internal/catalog"
	"github.com/skybazaar/skybazaar-backend/internal/checkout"
	"github.com/skybazaar/skybazaar-backend/internal/orders"
	"github.com/skybazaar/skybazaar-backend/internal/payments"
	"github.com/skybazaar/skybazaar-backend/internal/users"
	stripewebhook "github.com/skybazaar/skybazaar-backend/internal/webhooks/stripe"
	"github.com/skybazaar/skybazaar-backend/pkg/config"
	"github.com/skybazaar/skybazaar-backend/pkg/db"
	"github.com/skybazaar/skybazaar-backend/pkg/logger"
	"github.com/skybazaar/skybazaar-backend/pkg/metrics"
	"github.com/skybazaar/skybazaar-backend/pkg/migrate"
	"github.com/skybazaar/skybazaar-backend/pkg/redis"
	"github.com/skybazaar/skybazaar-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	catalogRepo := catalog.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	usersRepo := users.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	paymentsRepo := payments.NewRepository(gormDB)

	reconciler, err := payments.NewReconciler(dbClient, paymentsRepo, ordersRepo, usersRepo, cartRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cartRepo, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(usersRepo, cfg.Checkout.Currency)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		dbClient,
		cartRepo,
		catalogRepo,
		usersRepo,
		ordersRepo,
		paymentsRepo,
		reconciler,
		stripeClient,
		checkout.Options{
			FrontendURL: cfg.Checkout.FrontendURL,
			Currency:    cfg.Checkout.Currency,
			ProductName: cfg.Stripe.StatementName,
		},
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Reconciler: reconciler,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Stripe.WebhookTTL, "stripe:webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			RateStore:    redisClient,
			Registry:     registry,
			HTTPMetrics:  httpMetrics,
			Catalog:      catalogRepo,
			Cart:         cartService,
			Checkout:     checkoutService,
			Orders:       ordersService,
			Users:        usersService,
			Stripe:       stripeClient,
			Webhooks:     webhookService,
			WebhookGuard: webhookGuard,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
