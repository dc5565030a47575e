// Package server defines the core Server struct that composes the app's main
// dependencies.
//
// It contains the initialization logic to spin up the HTTP server
// and handles graceful shutdowns
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - the database runner (single-connection worker)
//   - redis client
//   - background job worker server (asynq)
//   - http.Server
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tutoriapp/backend/internal/config"
	"github.com/tutoriapp/backend/internal/database"
	"github.com/tutoriapp/backend/internal/lib/job"
	loggerPkg "github.com/tutoriapp/backend/internal/logger"
)

// Server is the application container that holds shared resources. It is
// not the HTTP server itself; the internal *http.Server is configured in
// SetupHTTPServer and started in Start.
type Server struct {
	// Config holds all environment/config values for the app.
	Config *config.Config

	// Logger is the application's main structured logger.
	Logger *zerolog.Logger

	// LoggerService optionally holds the New Relic application instance.
	// If New Relic is disabled, this may exist but contain nil nrApp.
	LoggerService *loggerPkg.LoggerService

	// Runner owns the single database connection and executes every unit
	// of database work in order on its worker goroutine.
	Runner *database.Runner

	// Redis is the Redis client.
	Redis *redis.Client

	// httpServer is the standard library HTTP server instance.
	httpServer *http.Server

	// Job runs background workers (Asynq server) and provides a client for
	// enqueueing.
	Job *job.JobService
}

// New constructs a Server and initializes core dependencies: it runs
// pending migrations when configured, brings up the database runner, dials
// Redis, and starts the background job worker.
//
// Redis connection failure does not block startup (it logs and continues);
// a database or job worker failure does.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	// Migrations use a direct short-lived connection of their own, before
	// the runner starts serving work.
	if cfg.Database.Migrate {
		migrateCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
		defer cancel()

		if err := database.Migrate(migrateCtx, logger, cfg); err != nil {
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	client, err := database.NewClient(cfg, logger, loggerService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database client: %w", err)
	}

	runner := database.NewRunner(client, cfg, logger)

	startCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.RunnerStartTimeout)*time.Second)
	defer cancel()

	// Init brings up the worker goroutine and establishes the connection,
	// so a bad DSN or unreachable database fails the boot instead of the
	// first request.
	if err := runner.Init(startCtx); err != nil {
		return nil, fmt.Errorf("failed to start database runner: %w", err)
	}

	// Redis connections are lazy; the client itself always constructs.
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Address,
	})

	if loggerService != nil && loggerService.GetApplication() != nil {
		redisClient.AddHook(nrredis.NewHook(redisClient.Options()))
	}

	ctx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error().Err(err).Msg("Failed to connect to Redis, continuing without Redis")
	}

	jobService := job.NewJobService(logger, cfg)
	jobService.InitHandlers(cfg, logger)

	if err := jobService.Start(); err != nil {
		return nil, err
	}

	server := &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		Runner:        runner,
		Redis:         redisClient,
		Job:           jobService,
	}

	return server, nil
}

// SetupHTTPServer configures the internal net/http server. The router is
// passed in as handler.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:    ":" + s.Config.Server.Port,
		Handler: handler,

		// Timeouts protect against slow clients and resource exhaustion.
		// Config stores whole seconds.
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server. It requires SetupHTTPServer to have been
// called, blocks until the server stops, and surfaces the listen error.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server and its dependencies: the HTTP
// server finishes inflight requests until the ctx deadline, then the
// database runner drains its queued work and disconnects, then background
// jobs stop and Redis closes.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	if err := s.Runner.Close(ctx); err != nil {
		return fmt.Errorf("failed to stop database runner: %w", err)
	}

	if s.Job != nil {
		s.Job.Stop()
	}

	if err := s.Redis.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}
