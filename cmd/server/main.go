package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"relaychat-backend/internal/config"
	"relaychat-backend/internal/database"
	"relaychat-backend/internal/handlers"
	"relaychat-backend/internal/logbuf"
	"relaychat-backend/internal/middleware"
	"relaychat-backend/internal/relay"
	"relaychat-backend/internal/router"
	"relaychat-backend/internal/services"
	"relaychat-backend/internal/session"
	"relaychat-backend/internal/store"
	"relaychat-backend/internal/websocket"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().
		Str("env", cfg.Env).
		Str("relay_url", cfg.RelayURL).
		Str("relay_model", cfg.RelayModel).
		Dur("relay_timeout", cfg.RelayTimeout).
		Msg("starting relaychat backend")

	// ──── Storage ────
	var st store.Store
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres connection failed")
		}
		if err := database.RunMigrations(pool, "migrations"); err != nil {
			log.Fatal().Err(err).Msg("database migration failed")
		}
		st = store.NewPostgres(pool)
		log.Info().Msg("postgres store ready")
	} else {
		st = store.NewMemory()
		log.Warn().Msg("DATABASE_URL not set, using in-memory store")
	}
	defer st.Close()

	// ──── Sessions ────
	var sessions session.Store
	if cfg.RedisURL != "" {
		client, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer client.Close()
		sessions = session.NewRedisStore(client)
		log.Info().Msg("redis session store ready")
	} else {
		sessions = session.NewMemoryStore()
		log.Warn().Msg("REDIS_URL not set, using in-memory sessions")
	}

	// ──── Activity log ────
	logs := logbuf.New(logbuf.DefaultCapacity)

	// ──── Services ────
	authService := services.NewAuthService(st, sessions, logs, cfg.AdminUsername)
	chatService := services.NewChatService(st, logs)
	adminService := services.NewAdminService(st, logs, cfg.RelayURL, cfg.RelayModel)
	promptRelay := relay.New(relay.Config{
		DefaultURL:   cfg.RelayURL,
		DefaultModel: cfg.RelayModel,
		Timeout:      cfg.RelayTimeout,
	}, st, logs)

	// ──── Handlers ────
	dev := cfg.IsDevelopment()
	sessionAuth := middleware.NewSessionAuth(authService)
	authHandler := handlers.NewAuthHandler(authService, !dev, dev)
	chatHandler := handlers.NewChatHandler(chatService, dev)
	generateHandler := handlers.NewGenerateHandler(promptRelay, dev)
	adminHandler := handlers.NewAdminHandler(adminService, dev)
	logStreamer := websocket.NewLogStreamer(logs)

	r := router.New(sessionAuth, authHandler, chatHandler, generateHandler, adminHandler, logStreamer, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RelayTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Info().Str("addr", server.Addr).Msg("relaychat backend ready")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server error")
	}
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
