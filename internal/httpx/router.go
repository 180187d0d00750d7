package httpx

import (
	"net/http"
	"storefront-be/internal/logger"
	"storefront-be/internal/middleware"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	JWTSecret      []byte
	Limiter        *middleware.RateLimiter
	RequestTimeout time.Duration
}

// NewRouter mounts every route on a chi mux. Public reads sit outside the
// authenticated group.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	r := chi.NewRouter()
	r.Use(logger.RequestIDMiddleware)
	r.Use(chimw.RealIP)
	r.Use(logger.LoggingMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Auth(cfg.JWTSecret))
	if cfg.Limiter != nil {
		r.Use(cfg.Limiter.Middleware)
	}

	r.Get("/health", h.Health)
	r.Get("/debug/stats", h.Stats)
	r.Get("/items/{id}/reviews", h.ListReviews)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)

		r.Post("/items/{id}/rating/recompute", h.RecomputeRating)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Post("/checkout", h.Checkout)
			r.Get("/{id}", h.GetOrder)
			r.Post("/{id}/cancel", h.CancelOrder)
			r.Post("/{id}/receive", h.ConfirmReceived)
			r.Post("/{id}/process", h.MarkProcessing)
			r.Post("/{id}/ship", h.MarkShipped)
			r.Post("/{id}/review", h.SubmitReview)
			r.Post("/{id}/feedback", h.AttachSellerFeedback)
		})

		r.Get("/store/orders", h.ListStoreOrders)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/lines", h.AddCartLine)
			r.Put("/lines/{itemID}", h.SetCartQuantity)
			r.Delete("/lines/{itemID}", h.RemoveCartLine)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorStatus(w, http.StatusNotFound)
	})

	return r
}
