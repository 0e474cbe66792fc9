package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"account-api/internal/config"
	"account-api/internal/handler"
	"account-api/internal/middleware"
)

type Handlers struct {
	Account     *handler.AccountHandler
	Diagnostics *handler.DiagnosticsHandler
	Health      *handler.HealthHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.ForwardedProto)
	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"NOT_FOUND","message":"route not found"}}`))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"METHOD_NOT_ALLOWED","message":"method not allowed"}}`))
	})

	r.Get("/health", h.Health.Check)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/account", func(account chi.Router) {
			account.Post("/register", h.Account.Register)
			account.Post("/login", h.Account.Login)
			account.With(authMiddleware.RequireAuth).Get("/me", h.Account.Me)
		})

		api.Route("/buggy", func(buggy chi.Router) {
			buggy.Get("/auth", h.Diagnostics.Auth)
			buggy.Get("/not-found", h.Diagnostics.NotFound)
			buggy.Get("/server-error", h.Diagnostics.ServerError)
			buggy.Get("/bad-request", h.Diagnostics.BadRequest)
		})
	})

	return r
}
