package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Nattanjunior/apoiadev-backend/api/controllers"
	webhookcontrollers "github.com/Nattanjunior/apoiadev-backend/api/controllers/webhooks"
	"github.com/Nattanjunior/apoiadev-backend/api/middleware"
	"github.com/Nattanjunior/apoiadev-backend/internal/accounts"
	checkoutsvc "github.com/Nattanjunior/apoiadev-backend/internal/checkout"
	"github.com/Nattanjunior/apoiadev-backend/internal/donations"
	"github.com/Nattanjunior/apoiadev-backend/internal/stats"
	stripewebhook "github.com/Nattanjunior/apoiadev-backend/internal/webhooks/stripe"
	"github.com/Nattanjunior/apoiadev-backend/pkg/config"
	"github.com/Nattanjunior/apoiadev-backend/pkg/logger"
	"github.com/Nattanjunior/apoiadev-backend/pkg/metrics"
	pkgstripe "github.com/Nattanjunior/apoiadev-backend/pkg/stripe"
)

type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    controllers.Pinger
	Registry *prometheus.Registry

	CheckoutService checkoutsvc.Service
	DonationService donations.Service
	StatsService    *stats.Service
	AccountService  *accounts.Service

	StripeClient   *pkgstripe.Client
	WebhookService *stripewebhook.Service
	WebhookGuard   *stripewebhook.IdempotencyGuard
	WebhookMetrics *metrics.WebhookMetrics
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, params.DB, params.Redis, logg))
	})

	if params.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/donations", controllers.CreateDonation(params.CheckoutService, logg))

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/stripe", webhookcontrollers.StripeWebhook(params.WebhookService, params.StripeClient, params.WebhookGuard, params.WebhookMetrics, logg))
		})

		r.Route("/creators/{creatorId}", func(r chi.Router) {
			r.Get("/stats", controllers.CreatorStats(params.StatsService, logg))
			r.Get("/donations", controllers.ListCreatorDonations(params.DonationService, logg))
			r.Get("/dashboard-link", controllers.CreatorDashboardLink(params.AccountService, logg))
		})
	})

	return r
}
