package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/studyplan-backend/internal/config"
	"github.com/stemsi/studyplan-backend/internal/database"
	"github.com/stemsi/studyplan-backend/internal/handler"
	"github.com/stemsi/studyplan-backend/internal/logger"
	"github.com/stemsi/studyplan-backend/internal/middleware"
	"github.com/stemsi/studyplan-backend/internal/planner"
	"github.com/stemsi/studyplan-backend/internal/repository"
	"github.com/stemsi/studyplan-backend/internal/router"
	"github.com/stemsi/studyplan-backend/internal/service"
	"github.com/stemsi/studyplan-backend/internal/validator"
	"github.com/stemsi/studyplan-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("session_store", cfg.SessionStore).
		Msg("Starting study plan backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Session Store & Broadcaster ───────────────────────────────────
	var (
		store repository.SessionStore
		hub   service.Broadcaster
	)
	workerCtx, workerCancel := context.WithCancel(context.Background())

	switch cfg.SessionStore {
	case config.StoreRedis:
		rdb, err := database.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		store = repository.NewRedisSessionStore(rdb)
		hub = service.NewRedisBroadcaster(rdb, log)
	default:
		mem := repository.NewMemorySessionStore()
		store = mem
		hub = service.NewMemoryBroadcaster()

		// ─── Start Background Workers ──────────────────────────────────
		janitor := worker.NewSessionJanitor(mem, cfg.JanitorInterval, log)
		go janitor.Start(workerCtx)
	}

	// ─── Initialize Services ──────────────────────────────────────────
	sessionService := service.NewSessionService(store, cfg.SessionSecret, cfg.SessionTTL)
	planService := service.NewPlanService(store, planner.NewController(), hub, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Session: handler.NewSessionHandler(sessionService),
		Plan:    handler.NewPlanHandler(planService),
		WS:      handler.NewWSHandler(planService, log, cfg.AllowedOrigins),
	}

	sessionLimiter := middleware.NewRateLimiter(cfg.SessionRateLimit, time.Minute)
	go sessionLimiter.RunCleanup(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(sessionService, handlers, sessionLimiter, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers.
	workerCancel()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
