package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskWelcome and TaskEnrollmentConfirmed are the task type names
	// stored in Redis; Asynq routes tasks to handlers by these strings.
	TaskWelcome             = "email:welcome"
	TaskEnrollmentConfirmed = "email:enrollment_confirmed"
)

// WelcomeEmailPayload is the JSON payload for the welcome email task.
type WelcomeEmailPayload struct {
	To        string `json:"to"`
	FirstName string `json:"first_name"`
}

// NewWelcomeEmailTask constructs the task for sending a welcome email:
// up to 3 retries, default queue, 30 second handler timeout.
func NewWelcomeEmailTask(to, firstName string) (*asynq.Task, error) {
	payload, err := json.Marshal(WelcomeEmailPayload{
		To:        to,
		FirstName: firstName,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskWelcome,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(30*time.Second),
	), nil
}

// EnrollmentConfirmedEmailPayload is the JSON payload for the enrollment
// confirmation task.
type EnrollmentConfirmedEmailPayload struct {
	To           string `json:"to"`
	FirstName    string `json:"first_name"`
	SessionTitle string `json:"session_title"`
}

// NewEnrollmentConfirmedEmailTask constructs the task for the enrollment
// confirmation email. It rides the critical queue; a student who just
// enrolled is actively waiting for this one.
func NewEnrollmentConfirmedEmailTask(to, firstName, sessionTitle string) (*asynq.Task, error) {
	payload, err := json.Marshal(EnrollmentConfirmedEmailPayload{
		To:           to,
		FirstName:    firstName,
		SessionTitle: sessionTitle,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskEnrollmentConfirmed,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("critical"),
		asynq.Timeout(30*time.Second),
	), nil
}
