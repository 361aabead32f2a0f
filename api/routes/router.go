package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skybazaar/skybazaar-backend/api/controllers"
	webhookcontrollers "github.com/skybazaar/skybazaar-backend/api/controllers/webhooks"
	"github.com/skybazaar/skybazaar-backend/api/middleware"
	cartsvc "github.com/skybazaar/skybazaar-backend/internal/cart"
	"github.com/skybazaar/skybazaar-backend/internal/catalog"
	checkoutsvc "github.com/skybazaar/skybazaar-backend/internal/checkout"
	orderssvc "github.com/skybazaar/skybazaar-backend/internal/orders"
	userssvc "github.com/skybazaar/skybazaar-backend/internal/users"
	stripewebhook "github.com/skybazaar/skybazaar-backend/internal/webhooks/stripe"
	"github.com/skybazaar/skybazaar-backend/pkg/config"
	"github.com/skybazaar/skybazaar-backend/pkg/db"
	"github.com/skybazaar/skybazaar-backend/pkg/logger"
	"github.com/skybazaar/skybazaar-backend/pkg/metrics"
	"github.com/skybazaar/skybazaar-backend/pkg/redis"
	"github.com/skybazaar/skybazaar-backend/pkg/stripe"
)

// RateLimitStore is the counter backend for request throttling.
type RateLimitStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// Deps carries everything the HTTP surface needs. main wires it once.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Redis        redis.Pinger
	RateStore    RateLimitStore
	Registry     *prometheus.Registry
	HTTPMetrics  *metrics.HTTPMetrics
	Catalog      catalog.Repository
	Cart         cartsvc.Service
	Checkout     checkoutsvc.Service
	Orders       orderssvc.Service
	Users        userssvc.Service
	Stripe       *stripe.Client
	Webhooks     *stripewebhook.Service
	WebhookGuard *stripewebhook.IdempotencyGuard
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins...),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.Webhooks, deps.Stripe, deps.WebhookGuard, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductsList(deps.Catalog, logg))
		r.Get("/{productID}", controllers.ProductsDetail(deps.Catalog, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/ping", controllers.PrivatePing())
		r.Get("/me", controllers.UsersProfile(deps.Users, logg))
		r.Get("/wallet", controllers.UsersWallet(deps.Users, logg))
		r.Get("/loyalty", controllers.UsersLoyalty(deps.Users, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Put("/items/{itemID}", controllers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/items/{itemID}", controllers.CartRemoveItem(deps.Cart, logg))
		})

		checkoutPolicy := middleware.NewRateLimitPolicy(
			"checkout",
			cfg.RateLimit.CheckoutWindow,
			cfg.RateLimit.CheckoutUserLimit,
			cfg.RateLimit.CheckoutIPLimit,
		)
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/calculate", controllers.CheckoutCalculate(deps.Checkout, logg))
			r.With(middleware.RateLimit(checkoutPolicy, deps.RateStore, logg)).
				Post("/create-payment", controllers.CheckoutCreatePayment(deps.Checkout, logg))
			r.Get("/status/{sessionID}", controllers.CheckoutStatus(deps.Checkout, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(deps.Orders, logg))
			r.Get("/{orderID}", controllers.OrdersDetail(deps.Orders, logg))
			r.Get("/{orderID}/tracking", controllers.OrdersTracking(deps.Orders, logg))
			r.Post("/{orderID}/cancel", controllers.OrdersCancel(deps.Orders, logg))
		})
	})

	return r
}
