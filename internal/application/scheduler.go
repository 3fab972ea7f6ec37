package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/tsdm-autosign/internal/domain"
	"github.com/bnema/tsdm-autosign/internal/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultTickInterval = time.Second
	DefaultTaskTimeout  = 10 * time.Minute
)

type SchedulerConfig struct {
	Policy       domain.Policy
	Retry        RetryPolicy
	TickInterval time.Duration
	// TaskTimeout bounds one task end to end, on top of the per-step waits.
	TaskTimeout time.Duration
}

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.TaskTimeout <= 0 {
		c.TaskTimeout = DefaultTaskTimeout
	}
	return c
}

type taskRunner interface {
	Run(ctx context.Context, page ports.Page, task domain.Task) domain.Outcome
}

// Scheduler serializes tasks over the shared session. The queue is FIFO and holds each
// (kind, account) pair at most once; the task in flight stays at the head until it
// completes, so at most one task runs at any time.
type Scheduler struct {
	sessions *SessionManager
	runner   taskRunner
	accounts ports.AccountRepository
	settings ports.SettingsRepository
	clock    ports.Clock
	cfg      SchedulerConfig
	logger   *zap.Logger

	mu       sync.Mutex
	queue    []domain.Task
	inFlight bool
	closed   bool
	idle     chan struct{}
	retries  map[domain.Task]*retryState
	outcomes map[domain.Task]domain.Outcome
	// completions counts finished tasks so Tick can tell whether its account
	// read raced with a completion.
	completions uint64
	wg          sync.WaitGroup
}

func NewScheduler(sessions *SessionManager, runner taskRunner, accounts ports.AccountRepository, settings ports.SettingsRepository, clock ports.Clock, cfg SchedulerConfig, logger *zap.Logger) *Scheduler {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	idle := make(chan struct{})
	close(idle)

	return &Scheduler{
		sessions: sessions,
		runner:   runner,
		accounts: accounts,
		settings: settings,
		clock:    clock,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		idle:     idle,
		retries:  map[domain.Task]*retryState{},
		outcomes: map[domain.Task]domain.Outcome{},
	}
}

// Submit queues a task on operator request. A queued duplicate makes it a no-op; a sign
// during the blackout hour is rejected. Submitting clears any retry backoff or
// needs-attention mark of the task.
func (s *Scheduler) Submit(task domain.Task) (bool, error) {
	if _, err := domain.ParseTaskKind(string(task.Kind)); err != nil {
		return false, err
	}
	if task.Account == "" {
		return false, errors.New("task account is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, domain.ErrSchedulerClosed
	}
	if task.Kind == domain.TaskSign && s.cfg.Policy.InBlackout(s.clock.Now()) {
		return false, domain.ErrBlackoutHour
	}

	delete(s.retries, task)
	return s.enqueueLocked(task), nil
}

func (s *Scheduler) enqueueLocked(task domain.Task) bool {
	for _, queued := range s.queue {
		if queued == task {
			return false
		}
	}

	if len(s.queue) == 0 {
		s.idle = make(chan struct{})
	}
	s.queue = append(s.queue, task)
	s.logger.Debug("task queued", zap.Stringer("task", task), zap.Int("depth", len(s.queue)))

	s.sessions.CancelIdleClose()
	s.drainLocked()
	return true
}

func (s *Scheduler) drainLocked() {
	if s.inFlight || len(s.queue) == 0 {
		return
	}

	task := s.queue[0]
	s.inFlight = true
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		outcome := s.execute(task)
		s.complete(task, outcome)
	}()
}

func (s *Scheduler) execute(task domain.Task) domain.Outcome {
	logger := s.logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.Stringer("task", task))

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.TaskTimeout)
	defer cancel()

	started := s.clock.Now()
	outcome := s.runTask(ctx, task)
	if outcome.FinishedAt.IsZero() {
		outcome.FinishedAt = s.clock.Now()
	}
	outcome.Task = task

	fields := []zap.Field{
		zap.String("status", string(outcome.Status)),
		zap.String("detail", outcome.Detail),
		zap.Duration("elapsed", outcome.FinishedAt.Sub(started)),
	}
	if outcome.Succeeded() {
		logger.Info("task finished", fields...)
	} else {
		logger.Warn("task finished", append(fields, zap.Error(outcome.Err))...)
	}
	return outcome
}

func (s *Scheduler) runTask(ctx context.Context, task domain.Task) domain.Outcome {
	if task.Kind == domain.TaskSign && s.cfg.Policy.InBlackout(s.clock.Now()) {
		return failure(task, domain.ErrBlackoutHour)
	}

	account, err := s.accounts.GetByID(ctx, task.Account)
	if err != nil {
		return failure(task, fmt.Errorf("load account: %w", err))
	}

	lease, err := s.sessions.Acquire(ctx)
	if err != nil {
		return failure(task, err)
	}
	defer s.sessions.Release(lease)

	if err := s.sessions.InjectCredentials(ctx, lease, account); err != nil {
		return failure(task, err)
	}

	return s.runner.Run(ctx, lease.Page(), task)
}

func (s *Scheduler) complete(task domain.Task, outcome domain.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) > 0 && s.queue[0] == task {
		s.queue = s.queue[1:]
	}
	s.inFlight = false
	s.completions++
	s.outcomes[task] = outcome
	s.recordRetryLocked(task, outcome)

	if len(s.queue) == 0 {
		close(s.idle)
		s.sessions.ScheduleIdleClose()
		return
	}
	if !s.closed {
		s.drainLocked()
	}
}

func (s *Scheduler) recordRetryLocked(task domain.Task, outcome domain.Outcome) {
	if !outcome.Retryable() {
		delete(s.retries, task)
		return
	}

	state, ok := s.retries[task]
	if !ok {
		state = &retryState{}
		s.retries[task] = state
	}
	state.failures++

	if s.cfg.Retry.Exhausted(state.failures) {
		state.needsAttention = true
		s.logger.Warn("task needs attention",
			zap.Stringer("task", task),
			zap.Int("failures", state.failures))
		return
	}
	state.nextAttempt = s.clock.Now().Add(s.cfg.Retry.Delay(state.failures))
}

// tickRelists bounds how often Tick re-reads the store after a completion raced its read.
const tickRelists = 3

// Tick re-derives every account snapshot from the store, requeues due retries and, with
// automation on, queues every eligible task. Store failures are logged and skip the pass.
// A task that completes while the store is being read invalidates that read: Tick lists
// again, and skips derivation when the store keeps moving.
func (s *Scheduler) Tick(ctx context.Context) []AccountSnapshot {
	now := s.clock.Now()

	for attempt := 0; ; attempt++ {
		s.mu.Lock()
		seen := s.completions
		s.mu.Unlock()

		accounts, err := s.accounts.List(ctx)
		if err != nil {
			s.logger.Warn("tick: list accounts", zap.Error(err))
			return nil
		}

		settings, err := s.settings.Get(ctx)
		if err != nil {
			s.logger.Warn("tick: load settings, automation off for this pass", zap.Error(err))
			settings = domain.Settings{}
		}

		s.mu.Lock()
		stale := s.completions != seen
		if stale && attempt < tickRelists {
			s.mu.Unlock()
			s.logger.Debug("tick: task completed during read, listing again", zap.Int("attempt", attempt+1))
			continue
		}

		if !s.closed && !stale {
			for _, account := range accounts {
				s.deriveLocked(account, domain.TaskSign, s.cfg.Policy.SignEligible(account, now), settings.Automation, now)
				s.deriveLocked(account, domain.TaskWork, s.cfg.Policy.WorkEligible(account, now), settings.Automation, now)
			}
		}

		snapshots := s.snapshotsLocked(accounts, now)
		s.mu.Unlock()
		return snapshots
	}
}

func (s *Scheduler) deriveLocked(account domain.Account, kind domain.TaskKind, eligible, automation bool, now time.Time) {
	task := domain.Task{Kind: kind, Account: account.ID}
	state, retrying := s.retries[task]

	if !eligible {
		if retrying && !state.needsAttention {
			delete(s.retries, task)
		}
		return
	}

	if retrying {
		if state.needsAttention || now.Before(state.nextAttempt) {
			return
		}
		s.enqueueLocked(task)
		return
	}

	if automation {
		s.enqueueLocked(task)
	}
}

// Snapshots returns the current per-account view including queue state.
func (s *Scheduler) Snapshots(ctx context.Context) ([]AccountSnapshot, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotsLocked(accounts, s.clock.Now()), nil
}

func (s *Scheduler) snapshotsLocked(accounts []domain.Account, now time.Time) []AccountSnapshot {
	snapshots := make([]AccountSnapshot, 0, len(accounts))
	for _, account := range accounts {
		snapshot := BuildSnapshot(account, s.cfg.Policy, now)

		for i, task := range s.queue {
			if task.Account != account.ID {
				continue
			}
			if i == 0 && s.inFlight {
				snapshot.InFlight = task.Kind
				continue
			}
			snapshot.Queued = append(snapshot.Queued, task.Kind)
		}

		var latest *domain.Outcome
		for _, kind := range []domain.TaskKind{domain.TaskSign, domain.TaskWork} {
			task := domain.Task{Kind: kind, Account: account.ID}
			if state, ok := s.retries[task]; ok && state.needsAttention {
				snapshot.NeedsAttention = append(snapshot.NeedsAttention, kind)
			}
			if outcome, ok := s.outcomes[task]; ok && (latest == nil || outcome.FinishedAt.After(latest.FinishedAt)) {
				o := outcome
				latest = &o
			}
		}
		if latest != nil {
			snapshot.LastOutcome = summarize(*latest)
		}

		snapshots = append(snapshots, snapshot)
	}
	return snapshots
}

// Outcome returns the result of the most recent execution of task.
func (s *Scheduler) Outcome(task domain.Task) (domain.Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcome, ok := s.outcomes[task]
	return outcome, ok
}

// Pending returns the queued tasks, head first.
func (s *Scheduler) Pending() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]domain.Task(nil), s.queue...)
}

// WaitIdle blocks until the queue is empty and nothing is in flight.
func (s *Scheduler) WaitIdle(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run ticks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Shutdown drops queued tasks, waits for the task in flight and closes the session.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	if s.inFlight && len(s.queue) > 1 {
		s.queue = s.queue[:1]
	} else if !s.inFlight && len(s.queue) > 0 {
		s.queue = nil
		close(s.idle)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("wait for task in flight: %w", ctx.Err())
	}

	s.sessions.Close()
	return err
}

func failure(task domain.Task, err error) domain.Outcome {
	return domain.Outcome{
		Task:   task,
		Status: Classify(err),
		Detail: err.Error(),
		Err:    err,
	}
}
