package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/storefront-core/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware витрины.
// Если metrics не nil, он обслуживает GET /metrics.
func (h *Handler) SetupRouter(metrics http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(custommiddleware.DecompressRequest)
	r.Use(custommiddleware.Logger(h.logger))

	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(h.client.Middleware)

		r.Group(func(r chi.Router) {
			r.Use(h.withKnownWorkspace)
			r.Get("/products", h.SearchProducts)
			r.Get("/categories/{slug}/products", h.CategoryProducts)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.withWorkspace)

			r.Route("/user", func(r chi.Router) {
				r.Post("/register", h.Register)
				r.Post("/login", h.Login)
				r.Post("/logout", h.Logout)
				r.Get("/session", h.GetSession)

				r.Group(func(r chi.Router) {
					r.Use(h.requireSession)
					r.Get("/orders", h.GetOrders)
				})
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Delete("/", h.ClearCart)
				r.Post("/items", h.AddCartLine)
				r.Put("/items/{productID}", h.SetCartQuantity)
				r.Delete("/items/{productID}", h.RemoveCartLine)
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", h.GetWishlist)
				r.Post("/{productID}", h.AddToWishlist)
				r.Delete("/{productID}", h.RemoveFromWishlist)
			})

			r.Post("/checkout", h.Checkout)

			r.Route("/admin", func(r chi.Router) {
				r.Use(h.requireAdmin)
				r.Get("/orders", h.AdminListOrders)
				r.Get("/orders/export", h.AdminExportOrders)
				r.Patch("/orders/{orderID}/status", h.AdminSetOrderStatus)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
