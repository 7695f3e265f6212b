package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/basketwise/basketwise-backend/api/controllers"
	"github.com/basketwise/basketwise-backend/api/middleware"
	"github.com/basketwise/basketwise-backend/internal/alerts"
	"github.com/basketwise/basketwise-backend/internal/comparison"
	"github.com/basketwise/basketwise-backend/internal/lists"
	"github.com/basketwise/basketwise-backend/internal/prices"
	"github.com/basketwise/basketwise-backend/internal/products"
	"github.com/basketwise/basketwise-backend/internal/stores"
	"github.com/basketwise/basketwise-backend/pkg/config"
	"github.com/basketwise/basketwise-backend/pkg/db"
	"github.com/basketwise/basketwise-backend/pkg/logger"
	"github.com/basketwise/basketwise-backend/pkg/redis"
)

// Services are the handlers' dependencies. Refresh is nil when no price feed is configured.
type Services struct {
	Stores   stores.Service
	Products products.Service
	Prices   prices.Service
	Lists    lists.Service
	Alerts   alerts.Service
	Comparer comparison.Comparer
	Refresh  controllers.RefreshRunner
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	readiness := map[string]controllers.Pinger{"database": dbP}
	compareLimit := func(next http.Handler) http.Handler { return next }
	if redisClient != nil {
		readiness["redis"] = redisClient
		policy := middleware.NewRateLimitPolicy("compare", cfg.RateLimit.CompareWindow, cfg.RateLimit.CompareLimit)
		compareLimit = middleware.RateLimit(policy, redisClient, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.UserContext(cfg.App.DemoUserID, logg))

		r.Route("/stores", func(r chi.Router) {
			r.Get("/", controllers.ListStores(svc.Stores, logg))
			r.Get("/{storeId}", controllers.GetStore(svc.Stores, logg))
		})
		r.Route("/products", func(r chi.Router) {
			r.Get("/search", controllers.SearchProducts(svc.Products, logg))
			r.Get("/{productId}", controllers.GetProduct(svc.Products, logg))
		})
		r.Route("/prices", func(r chi.Router) {
			r.Get("/", controllers.ListPrices(svc.Prices, logg))
			r.Get("/history", controllers.PriceHistory(svc.Prices, logg))
		})

		r.With(compareLimit).Post("/compare", controllers.Compare(svc.Comparer, logg))

		r.Route("/lists", func(r chi.Router) {
			r.Get("/", controllers.ListShoppingLists(svc.Lists, logg))
			r.Post("/", controllers.CreateShoppingList(svc.Lists, logg))
			r.Route("/{listId}", func(r chi.Router) {
				r.Get("/", controllers.GetShoppingList(svc.Lists, logg))
				r.Patch("/", controllers.RenameShoppingList(svc.Lists, logg))
				r.Delete("/", controllers.DeleteShoppingList(svc.Lists, logg))
				r.With(compareLimit).Post("/compare", controllers.CompareList(svc.Lists, svc.Comparer, logg))
				r.Post("/items", controllers.AddShoppingListItem(svc.Lists, logg))
				r.Patch("/items/{itemId}", controllers.UpdateShoppingListItem(svc.Lists, logg))
				r.Delete("/items/{itemId}", controllers.DeleteShoppingListItem(svc.Lists, logg))
			})
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", controllers.ListPriceAlerts(svc.Alerts, logg))
			r.Post("/", controllers.CreatePriceAlert(svc.Alerts, logg))
			r.Delete("/{alertId}", controllers.DeletePriceAlert(svc.Alerts, logg))
		})

		r.Route("/preferred-stores", func(r chi.Router) {
			r.Get("/", controllers.ListPreferredStores(svc.Stores, logg))
			r.Post("/", controllers.AddPreferredStore(svc.Stores, logg))
			r.Patch("/{storeId}", controllers.SetFavoriteStore(svc.Stores, logg))
			r.Delete("/{storeId}", controllers.RemovePreferredStore(svc.Stores, logg))
		})
	})

	// Admin routes sit behind the operator gateway; the API does no auth of its own.
	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Post("/stores", controllers.AdminCreateStore(svc.Stores, logg))
		r.Post("/products", controllers.AdminCreateProduct(svc.Products, logg))
		r.Put("/prices", controllers.AdminUpsertPrice(svc.Prices, logg))
		r.Post("/prices/bulk", controllers.AdminBulkUpsertPrices(svc.Prices, logg))
		r.Post("/refresh/run", controllers.AdminRunRefresh(svc.Refresh, logg))
		r.Get("/refresh/status", controllers.AdminRefreshStatus(svc.Refresh, logg))
	})

	return r
}
