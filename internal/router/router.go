package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"thinkr-backend/internal/handlers"
	"thinkr-backend/internal/logger"
	"thinkr-backend/internal/middleware"
)

// New builds the HTTP router. chatLimiter may be nil to disable rate limiting.
func New(
	chatHandler *handlers.ChatHandler,
	healthHandler *handlers.HealthHandler,
	chatLimiter *middleware.RateLimiter,
	allowedOrigins []string,
	log logger.ILogger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer(log))
	r.Use(middleware.CORS(allowedOrigins))

	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Health)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if chatLimiter != nil {
				r.Use(chatLimiter.Middleware)
			}
			r.Post("/chat", chatHandler.Chat)
		})
	})

	return r
}
