package application

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/bnema/tsdm-autosign/internal/domain"
	"github.com/bnema/tsdm-autosign/internal/ports"
	"go.uber.org/zap"
)

const wakeupNamePrefix = "TSDM_Work_"

// WakeupName names the one-shot wake-up registered for at.
func WakeupName(at time.Time) string {
	return wakeupNamePrefix + at.Format("20060102150405")
}

// WakeupService keeps one host wake-up registered for the next time a work task becomes
// eligible, so the daemon runs again even when it was not left running.
type WakeupService struct {
	scheduler ports.WakeupScheduler
	accounts  ports.AccountRepository
	settings  ports.SettingsRepository
	clock     ports.Clock
	policy    domain.Policy
	logger    *zap.Logger
}

func NewWakeupService(scheduler ports.WakeupScheduler, accounts ports.AccountRepository, settings ports.SettingsRepository, clock ports.Clock, policy domain.Policy, logger *zap.Logger) *WakeupService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WakeupService{
		scheduler: scheduler,
		accounts:  accounts,
		settings:  settings,
		clock:     clock,
		policy:    policy,
		logger:    logger,
	}
}

// NextWorkTime is the earliest future cooldown end over accounts with valid credentials.
func NextWorkTime(accounts []domain.Account, policy domain.Policy, now time.Time) (time.Time, bool) {
	var next time.Time
	for _, account := range accounts {
		if !account.CredentialValid {
			continue
		}
		end := policy.CooldownEnd(account)
		if end.IsZero() || !end.After(now) {
			continue
		}
		if next.IsZero() || end.Before(next) {
			next = end
		}
	}
	return next, !next.IsZero()
}

// Sync registers the wake-up for the next work time, rounded up to the minute, and
// removes earlier entries. It is a no-op when that wake-up is already registered.
func (w *WakeupService) Sync(ctx context.Context) (string, error) {
	accounts, err := w.accounts.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list accounts: %w", err)
	}

	next, ok := NextWorkTime(accounts, w.policy, w.clock.Now())
	if !ok {
		return "", nil
	}
	at := ceilMinute(next)
	name := WakeupName(at)

	settings, err := w.settings.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("load settings: %w", err)
	}
	if slices.Contains(settings.ScheduledTasks, name) {
		return name, nil
	}

	if err := w.scheduler.Schedule(ctx, name, at); err != nil {
		return "", fmt.Errorf("schedule wake-up %s: %w", name, err)
	}
	w.logger.Info("wake-up registered", zap.String("name", name), zap.Time("at", at))

	var stale []string
	err = w.settings.Update(ctx, func(settings *domain.Settings) error {
		for _, existing := range settings.ScheduledTasks {
			if existing != name {
				stale = append(stale, existing)
			}
		}
		settings.ScheduledTasks = []string{name}
		return nil
	})
	if err != nil {
		return name, fmt.Errorf("save settings: %w", err)
	}
	w.removeAll(ctx, stale)

	return name, nil
}

// Clear removes every registered wake-up.
func (w *WakeupService) Clear(ctx context.Context) error {
	var registered []string
	err := w.settings.Update(ctx, func(settings *domain.Settings) error {
		registered = settings.ScheduledTasks
		settings.ScheduledTasks = nil
		return nil
	})
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	w.removeAll(ctx, registered)
	return nil
}

func (w *WakeupService) Registered(ctx context.Context) ([]string, error) {
	settings, err := w.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return settings.ScheduledTasks, nil
}

// Run syncs on every tick until ctx is done. Failures are logged.
func (w *WakeupService) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := w.Sync(ctx); err != nil && ctx.Err() == nil {
			w.logger.Warn("sync wake-up", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WakeupService) removeAll(ctx context.Context, names []string) {
	for _, name := range names {
		if err := w.scheduler.Remove(ctx, name); err != nil {
			w.logger.Warn("remove wake-up", zap.String("name", name), zap.Error(err))
		}
	}
}

func ceilMinute(t time.Time) time.Time {
	truncated := t.Truncate(time.Minute)
	if truncated.Equal(t) {
		return truncated
	}
	return truncated.Add(time.Minute)
}
