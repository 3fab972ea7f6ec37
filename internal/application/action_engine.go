package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/bnema/tsdm-autosign/internal/domain"
	"github.com/bnema/tsdm-autosign/internal/ports"
	"go.uber.org/zap"
)

type EngineConfig struct {
	Site   Site
	Policy domain.Policy
	// MaxRestarts bounds how often one work task restarts after the site rejects a round.
	MaxRestarts       int
	NavigationTimeout time.Duration
	ProbeWait         time.Duration
	StepWait          time.Duration
	ClickPauseMin     time.Duration
	ClickPauseMax     time.Duration
	ReadbackAttempts  int
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Policy:            domain.DefaultPolicy(),
		MaxRestarts:       2,
		NavigationTimeout: DefaultNavigationTimeout,
		ProbeWait:         2 * time.Second,
		StepWait:          10 * time.Second,
		ClickPauseMin:     time.Second,
		ClickPauseMax:     2 * time.Second,
		ReadbackAttempts:  3,
	}
}

// ActionEngine drives the sign and work flows on a credentialed page and records the
// results on the account.
type ActionEngine struct {
	accounts ports.AccountRepository
	clock    ports.Clock
	cfg      EngineConfig
	logger   *zap.Logger
	pause    func(ctx context.Context, d time.Duration) error
}

func NewActionEngine(accounts ports.AccountRepository, clock ports.Clock, cfg EngineConfig, logger *zap.Logger) *ActionEngine {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ActionEngine{
		accounts: accounts,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
		pause:    sleepContext,
	}
}

// Run dispatches task to its flow.
func (e *ActionEngine) Run(ctx context.Context, page ports.Page, task domain.Task) domain.Outcome {
	var outcome domain.Outcome
	switch task.Kind {
	case domain.TaskSign:
		outcome = e.Sign(ctx, page, task.Account)
	case domain.TaskWork:
		outcome = e.Work(ctx, page, task.Account)
	default:
		outcome = e.fail(task, fmt.Errorf("unknown task kind %q", task.Kind))
	}
	return outcome
}

func (e *ActionEngine) navigate(ctx context.Context, page ports.Page, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, e.cfg.NavigationTimeout)
	defer cancel()

	if err := page.Navigate(navCtx, url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// probe returns the text at selector, or "" when nothing shows up within wait.
func (e *ActionEngine) probe(ctx context.Context, page ports.Page, selector string, wait time.Duration) (string, error) {
	text, err := page.Text(ctx, selector, wait)
	if errors.Is(err, ports.ErrElementNotFound) {
		return "", nil
	}
	return text, err
}

func (e *ActionEngine) updateAccount(ctx context.Context, id domain.AccountID, mutate func(*domain.Account)) error {
	account, err := e.accounts.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get account by id: %w", err)
	}
	mutate(&account)
	if err := e.accounts.Save(ctx, account); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

func (e *ActionEngine) markInvalid(ctx context.Context, task domain.Task) domain.Outcome {
	err := e.updateAccount(ctx, task.Account, func(a *domain.Account) {
		a.CredentialValid = false
	})
	if err != nil {
		e.logger.Warn("persist invalid credentials", zap.String("account", string(task.Account)), zap.Error(err))
	}
	return e.finish(task, domain.OutcomeCredentialInvalid, "site asked to log in", domain.ErrCredentialInvalid)
}

func (e *ActionEngine) fail(task domain.Task, err error) domain.Outcome {
	return e.finish(task, Classify(err), err.Error(), err)
}

func (e *ActionEngine) finish(task domain.Task, status domain.OutcomeStatus, detail string, err error) domain.Outcome {
	return domain.Outcome{
		Task:       task,
		Status:     status,
		Detail:     detail,
		Err:        err,
		FinishedAt: e.clock.Now(),
	}
}

func (e *ActionEngine) randomPause(ctx context.Context) error {
	lo, hi := e.cfg.ClickPauseMin, e.cfg.ClickPauseMax
	d := lo
	if hi > lo {
		d += time.Duration(rand.Int63n(int64(hi - lo)))
	}
	return e.pause(ctx, d)
}

// Classify maps a task error onto the outcome taxonomy.
func Classify(err error) domain.OutcomeStatus {
	switch {
	case err == nil:
		return domain.OutcomeSucceeded
	case errors.Is(err, domain.ErrCredentialInvalid):
		return domain.OutcomeCredentialInvalid
	case errors.Is(err, domain.ErrSessionUnavailable):
		return domain.OutcomeSessionUnavailable
	case errors.Is(err, domain.ErrBlackoutHour), errors.Is(err, domain.ErrAccountNotFound):
		return domain.OutcomeRejected
	default:
		return domain.OutcomeFailed
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
