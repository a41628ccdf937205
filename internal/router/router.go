package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"relaychat-backend/internal/handlers"
	"relaychat-backend/internal/middleware"
	"relaychat-backend/internal/websocket"
)

func New(
	sessionAuth *middleware.SessionAuth,
	authHandler *handlers.AuthHandler,
	chatHandler *handlers.ChatHandler,
	generateHandler *handlers.GenerateHandler,
	adminHandler *handlers.AdminHandler,
	logStreamer *websocket.LogStreamer,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {

		// ──── Auth Routes ────
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authLimiter.Middleware)
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
			})
			r.Post("/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(sessionAuth.Middleware)
				r.Get("/me", authHandler.Me)
			})
		})

		// ──── Chat Routes ────
		r.Route("/chats", func(r chi.Router) {
			r.Use(sessionAuth.Middleware)
			r.Get("/", chatHandler.List)
			r.Post("/", chatHandler.Create)
			r.Put("/{id}", chatHandler.Rename)
			r.Delete("/{id}", chatHandler.Delete)
			r.Get("/{id}/messages", chatHandler.ListMessages)
			r.Post("/{id}/messages", chatHandler.AppendMessage)
		})

		// ──── Prompt Relay ────
		// Optional auth: guest mode needs no session.
		r.Group(func(r chi.Router) {
			r.Use(sessionAuth.Optional)
			r.Post("/generate", generateHandler.Generate)
		})

		// ──── Admin Routes ────
		r.Group(func(r chi.Router) {
			r.Use(sessionAuth.Middleware)
			r.Use(middleware.RequireAdmin)

			r.Get("/settings/relay-url", adminHandler.GetRelayURL)
			r.Post("/settings/relay-url", adminHandler.SetRelayURL)
			r.Get("/admin/model", adminHandler.GetModel)
			r.Post("/admin/model", adminHandler.SetModel)

			r.Get("/logs", adminHandler.Logs)
			r.Get("/errors", adminHandler.Errors)
			r.Get("/logs/stream", logStreamer.Handle)
		})
	})

	return r
}
