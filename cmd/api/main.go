package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/Nattanjunior/apoiadev-backend/api/routes"
	"github.com/Nattanjunior/apoiadev-backend/internal/accounts"
	"github.com/Nattanjunior/apoiadev-backend/internal/checkout"
	"github.com/Nattanjunior/apoiadev-backend/internal/creators"
	"github.com/Nattanjunior/apoiadev-backend/internal/donations"
	"github.com/Nattanjunior/apoiadev-backend/internal/stats"
	stripewebhook "github.com/Nattanjunior/apoiadev-backend/internal/webhooks/stripe"
	"github.com/Nattanjunior/apoiadev-backend/pkg/config"
	"github.com/Nattanjunior/apoiadev-backend/pkg/db"
	"github.com/Nattanjunior/apoiadev-backend/pkg/logger"
	"github.com/Nattanjunior/apoiadev-backend/pkg/metrics"
	"github.com/Nattanjunior/apoiadev-backend/pkg/migrate"
	"github.com/Nattanjunior/apoiadev-backend/pkg/redis"
	pkgstripe "github.com/Nattanjunior/apoiadev-backend/pkg/stripe"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}

	stripeClient, err := pkgstripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap stripe client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	creatorRepo := creators.NewRepository(dbClient.DB())
	donationService, err := donations.NewService(donations.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(ctx, "failed to create donation service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		CreatorRepo:  creatorRepo,
		Ledger:       donationService,
		StripeClient: checkout.NewStripeClient(stripeClient),
		CheckoutCfg:  cfg.Checkout,
		StripeCfg:    cfg.Stripe,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	statsService, err := stats.NewService(stats.ServiceParams{
		CreatorRepo:  creatorRepo,
		Ledger:       donationService,
		StripeClient: stats.NewStripeClient(stripeClient),
		StripeCfg:    cfg.Stripe,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create stats service", err)
		os.Exit(1)
	}

	accountService, err := accounts.NewService(accounts.ServiceParams{
		CreatorRepo:  creatorRepo,
		StripeClient: accounts.NewStripeClient(stripeClient),
		StripeCfg:    cfg.Stripe,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create account service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Ledger:  donationService,
		Metrics: webhookMetrics,
		Logger:  logg,
		Webhook: cfg.Webhook,
	})
	if err != nil {
		logg.Error(ctx, "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Webhook.IdempotencyTTL, "stripe")
	if err != nil {
		logg.Error(ctx, "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			Registry:        registry,
			CheckoutService: checkoutService,
			DonationService: donationService,
			StatsService:    statsService,
			AccountService:  accountService,
			StripeClient:    stripeClient,
			WebhookService:  webhookService,
			WebhookGuard:    webhookGuard,
			WebhookMetrics:  webhookMetrics,
		}),
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(startCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(startCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	closeErr := multierr.Combine(
		server.Shutdown(shutdownCtx),
		redisClient.Close(),
		dbClient.Close(),
	)
	if closeErr != nil {
		logg.Error(startCtx, "shutdown finished with errors", closeErr)
		os.Exit(1)
	}
	logg.Info(startCtx, "api server stopped")
}
