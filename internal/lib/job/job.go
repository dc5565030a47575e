// Package job provides background job processing using Asynq.
//
// Asynq is a Redis-backed job queue:
//   - You enqueue tasks (producer) using asynq.Client.
//   - A server runs workers that process those tasks (consumer) using asynq.Server.
package job

import (
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/tutoriapp/backend/internal/config"
	"github.com/tutoriapp/backend/internal/lib/email"
)

// JobService holds the Asynq client (enqueue) and server (worker
// execution), plus the dependencies the task handlers use.
type JobService struct {
	// Client is used to enqueue tasks into Redis.
	Client *asynq.Client

	// server runs worker processes that pull tasks from Redis and execute
	// handlers.
	server *asynq.Server

	// email sends the actual messages; set by InitHandlers.
	email *email.Client

	// logger is used for lifecycle logs and handler logs.
	logger *zerolog.Logger
}

// NewJobService creates a JobService backed by the Redis instance from
// cfg.
//
// Concurrency 10 means up to 10 tasks process in parallel; the queue
// weights split those workers roughly 6/3/1 between critical, default and
// low priority work.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisAddr := cfg.Redis.Address

	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr: redisAddr,
	})

	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	return &JobService{
		Client: client,
		server: server,
		logger: logger,
	}
}

// Start registers the task handlers and starts the background worker
// server.
func (j *JobService) Start() error {
	// ServeMux routes task type strings to handler functions, like HTTP
	// routing but for job types.
	mux := asynq.NewServeMux()

	mux.HandleFunc(TaskWelcome, j.handleWelcomeEmailTask)
	mux.HandleFunc(TaskEnrollmentConfirmed, j.handleEnrollmentConfirmedEmailTask)

	j.logger.Info().Msg("Starting background job server")

	if err := j.server.Start(mux); err != nil {
		return err
	}

	return nil
}

// Stop gracefully stops the job server and closes client resources.
// Shutdown waits for in-flight tasks to finish.
func (j *JobService) Stop() {
	j.logger.Info().Msg("Stopping background job server")
	j.server.Shutdown()
	j.Client.Close()
}

// EnqueueWelcomeEmail queues a welcome email for a freshly created
// account.
func (j *JobService) EnqueueWelcomeEmail(to, firstName string) error {
	task, err := NewWelcomeEmailTask(to, firstName)
	if err != nil {
		return err
	}

	info, err := j.Client.Enqueue(task)
	if err != nil {
		return err
	}

	j.logger.Info().
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Str("to", to).
		Msg("Enqueued welcome email task")

	return nil
}

// EnqueueEnrollmentConfirmedEmail queues the confirmation email a student
// receives after being enrolled in a session.
func (j *JobService) EnqueueEnrollmentConfirmedEmail(to, firstName, sessionTitle string) error {
	task, err := NewEnrollmentConfirmedEmailTask(to, firstName, sessionTitle)
	if err != nil {
		return err
	}

	info, err := j.Client.Enqueue(task)
	if err != nil {
		return err
	}

	j.logger.Info().
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Str("to", to).
		Msg("Enqueued enrollment confirmation email task")

	return nil
}
