package domain

import "time"

type OutcomeStatus string

const (
	OutcomeSucceeded          OutcomeStatus = "succeeded"
	OutcomeFailed             OutcomeStatus = "failed"
	OutcomeCredentialInvalid  OutcomeStatus = "credential_invalid"
	OutcomeSessionUnavailable OutcomeStatus = "session_unavailable"
	OutcomeRejected           OutcomeStatus = "rejected"
)

// Outcome is the terminal result of one task execution.
type Outcome struct {
	Task       Task
	Status     OutcomeStatus
	Detail     string
	Err        error
	FinishedAt time.Time
}

func (o Outcome) Succeeded() bool {
	return o.Status == OutcomeSucceeded
}

// Retryable reports whether the scheduler may attempt the task again.
func (o Outcome) Retryable() bool {
	return o.Status == OutcomeFailed || o.Status == OutcomeSessionUnavailable
}
