package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luisarreguin/delifast-backend/api/controllers"
	ordercontrollers "github.com/luisarreguin/delifast-backend/api/controllers/orders"
	"github.com/luisarreguin/delifast-backend/api/middleware"
	"github.com/luisarreguin/delifast-backend/internal/orders"
	"github.com/luisarreguin/delifast-backend/pkg/config"
	"github.com/luisarreguin/delifast-backend/pkg/logger"
	pkgredis "github.com/luisarreguin/delifast-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface depends on. Optional
// dependencies may be nil; the routes that need them degrade accordingly.
type RouterParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	DBPinger         controllers.Pinger
	RedisClient      *pkgredis.Client
	IdempotencyStore pkgredis.IdempotencyStore
	OrdersService    *orders.Service
	Gatherer         prometheus.Gatherer
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var redisP pkgredis.Pinger
	if params.RedisClient != nil {
		redisP = params.RedisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DBPinger, redisP))
	})

	gatherer := params.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	idemStore := params.IdempotencyStore
	if idemStore == nil && params.RedisClient != nil {
		idemStore = params.RedisClient
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(idemStore, cfg.Orders.IdempotencyTTL, logg))

		r.Group(func(r chi.Router) {
			if params.RedisClient != nil {
				policy := middleware.NewRateLimitPolicy("order_intake", cfg.Orders.RateLimitWindow, cfg.Orders.RateLimitIPLimit)
				r.Use(middleware.RateLimit(params.RedisClient, policy, logg))
			}

			r.Post("/createOrderDelivery", ordercontrollers.Create(params.OrdersService, logg))
			r.Post("/cancelOrderDelivery", ordercontrollers.Cancel(params.OrdersService, logg))
		})

		r.Route("/ordersDelivery", func(r chi.Router) {
			r.Get("/{orderID}", ordercontrollers.Detail(params.OrdersService, logg))
		})
		r.Get("/users/{userID}/ordersDelivery", ordercontrollers.ListByUser(params.OrdersService, logg))
		r.Get("/locals/{localID}/ordersDelivery", ordercontrollers.ListByLocal(params.OrdersService, logg))
	})

	return r
}
