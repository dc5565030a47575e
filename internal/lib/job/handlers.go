package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/tutoriapp/backend/internal/config"
	"github.com/tutoriapp/backend/internal/lib/email"
)

// InitHandlers constructs the dependencies the task handlers use, today
// just the outbound email client. It must run before Start.
func (j *JobService) InitHandlers(config *config.Config, logger *zerolog.Logger) {
	j.email = email.NewClient(config, logger)
}

// handleWelcomeEmailTask processes a welcome email task. A returned error
// makes Asynq mark the task failed and schedule a retry.
func (j *JobService) handleWelcomeEmailTask(ctx context.Context, t *asynq.Task) error {
	var p WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal welcome email payload: %w", err)
	}

	j.logger.Info().
		Str("type", "welcome").
		Str("to", p.To).
		Msg("Processing welcome email task")

	if err := j.email.SendWelcomeEmail(p.To, p.FirstName); err != nil {
		j.logger.Error().
			Str("type", "welcome").
			Str("to", p.To).
			Err(err).
			Msg("Failed to send welcome email")
		return err
	}

	j.logger.Info().
		Str("type", "welcome").
		Str("to", p.To).
		Msg("Successfully sent welcome email")

	return nil
}

// handleEnrollmentConfirmedEmailTask processes an enrollment confirmation
// task.
func (j *JobService) handleEnrollmentConfirmedEmailTask(ctx context.Context, t *asynq.Task) error {
	var p EnrollmentConfirmedEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal enrollment confirmation payload: %w", err)
	}

	j.logger.Info().
		Str("type", "enrollment_confirmed").
		Str("to", p.To).
		Msg("Processing enrollment confirmation email task")

	if err := j.email.SendEnrollmentConfirmedEmail(p.To, p.FirstName, p.SessionTitle); err != nil {
		j.logger.Error().
			Str("type", "enrollment_confirmed").
			Str("to", p.To).
			Err(err).
			Msg("Failed to send enrollment confirmation email")
		return err
	}

	j.logger.Info().
		Str("type", "enrollment_confirmed").
		Str("to", p.To).
		Msg("Successfully sent enrollment confirmation email")

	return nil
}
