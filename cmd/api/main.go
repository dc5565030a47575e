// Command api runs the Tutoria HTTP API server.
//
// Startup order matters: configuration and logging come first, then the
// server container (database runner, Redis, background jobs), then the
// dependency chain repositories -> services -> middlewares/handlers ->
// router. The process then serves HTTP until SIGINT/SIGTERM and shuts the
// stack down in reverse order.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tutoriapp/backend/internal/config"
	"github.com/tutoriapp/backend/internal/handler"
	"github.com/tutoriapp/backend/internal/logger"
	"github.com/tutoriapp/backend/internal/middleware"
	"github.com/tutoriapp/backend/internal/repository"
	"github.com/tutoriapp/backend/internal/router"
	"github.com/tutoriapp/backend/internal/server"
	"github.com/tutoriapp/backend/internal/service"
)

// shutdownTimeout bounds the whole graceful shutdown: inflight HTTP
// requests plus the database runner draining its queued work.
const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	appLogger, loggerService, err := logger.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	s, err := server.New(cfg, appLogger, loggerService)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("Failed to initialize server")
	}

	repos := repository.NewRepositories(s)

	services, err := service.NewService(s, repos)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("Failed to initialize services")
	}

	middlewares := middleware.NewMiddlewares(s, services.Auth)
	handlers := handler.NewHandlers(s, services)

	e := router.New(handlers, middlewares)
	s.SetupHTTPServer(e)

	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("Shutdown signal received, draining")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		appLogger.Error().Err(err).Msg("Graceful shutdown failed")
		loggerService.Shutdown()
		os.Exit(1)
	}

	loggerService.Shutdown()
	appLogger.Info().Msg("Server stopped")
}
