package application

import (
	"time"

	"github.com/bnema/tsdm-autosign/internal/domain"
)

// AccountSnapshot is the read-only per-account view handed to front-ends.
type AccountSnapshot struct {
	Account           domain.AccountID  `json:"account"`
	CredentialValid   bool              `json:"credential_valid"`
	SignedToday       bool              `json:"signed_today"`
	CooldownRemaining time.Duration     `json:"cooldown_remaining"`
	Countdown         string            `json:"countdown"`
	LastSignDate      string            `json:"last_sign_date,omitempty"`
	LastWorkTime      *time.Time        `json:"last_work_time,omitempty"`
	Queued            []domain.TaskKind `json:"queued,omitempty"`
	InFlight          domain.TaskKind   `json:"in_flight,omitempty"`
	NeedsAttention    []domain.TaskKind `json:"needs_attention,omitempty"`
	LastOutcome       *OutcomeSummary   `json:"last_outcome,omitempty"`
}

type OutcomeSummary struct {
	Kind       domain.TaskKind      `json:"kind"`
	Status     domain.OutcomeStatus `json:"status"`
	Detail     string               `json:"detail,omitempty"`
	FinishedAt time.Time            `json:"finished_at"`
}

func BuildSnapshot(account domain.Account, policy domain.Policy, now time.Time) AccountSnapshot {
	remaining := policy.CooldownRemaining(account, now)
	snapshot := AccountSnapshot{
		Account:           account.ID,
		CredentialValid:   account.CredentialValid,
		SignedToday:       account.SignedOn(now),
		CooldownRemaining: remaining,
		Countdown:         domain.FormatCountdown(remaining),
		LastSignDate:      account.LastSignDate,
	}
	if !account.LastWorkTime.IsZero() {
		lastWork := account.LastWorkTime
		snapshot.LastWorkTime = &lastWork
	}
	return snapshot
}

func summarize(outcome domain.Outcome) *OutcomeSummary {
	return &OutcomeSummary{
		Kind:       outcome.Task.Kind,
		Status:     outcome.Status,
		Detail:     outcome.Detail,
		FinishedAt: outcome.FinishedAt,
	}
}
