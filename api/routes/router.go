package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sssssubin/cart-service/api/controllers"
	cartcontrollers "github.com/sssssubin/cart-service/api/controllers/cart"
	"github.com/sssssubin/cart-service/api/middleware"
	cartsvc "github.com/sssssubin/cart-service/internal/cart"
	"github.com/sssssubin/cart-service/internal/catalog"
	"github.com/sssssubin/cart-service/pkg/config"
	"github.com/sssssubin/cart-service/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	catalogService catalog.Service,
	cartService cartsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.CatalogList(catalogService, logg))
			r.Get("/{productId}", controllers.CatalogGet(catalogService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(cartService, logg))
			r.Post("/items", cartcontrollers.CartAddItem(cartService, logg))
			r.Patch("/items/{productId}", cartcontrollers.CartChangeQuantity(cartService, logg))
			r.Delete("/items/{productId}", cartcontrollers.CartRemoveItem(cartService, logg))
			r.Post("/select", cartcontrollers.CartSelect(cartService, logg))
			r.Post("/restore", cartcontrollers.CartRestore(cartService, logg))
		})
	})

	return r
}
