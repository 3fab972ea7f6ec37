package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/bnema/tsdm-autosign/internal/domain"
	"github.com/bnema/tsdm-autosign/internal/ports"
	"go.uber.org/zap"
)

// Work runs the work flow:
//
//	check cooldown or login -> (record cooldown | click every target -> finalize -> verify)
//
// A rejected round restarts the flow up to MaxRestarts times.
func (e *ActionEngine) Work(ctx context.Context, page ports.Page, id domain.AccountID) domain.Outcome {
	task := domain.Task{Kind: domain.TaskWork, Account: id}
	logger := e.logger.With(zap.String("account", string(id)))

	for restart := 0; ; restart++ {
		outcome, rejected := e.workRound(ctx, page, task, logger)
		if !rejected {
			return outcome
		}
		if restart >= e.cfg.MaxRestarts {
			return e.fail(task, domain.ErrCheatDetected)
		}
		logger.Info("work round rejected, restarting", zap.Int("restart", restart+1))
	}
}

func (e *ActionEngine) workRound(ctx context.Context, page ports.Page, task domain.Task, logger *zap.Logger) (domain.Outcome, bool) {
	if err := e.navigate(ctx, page, e.cfg.Site.WorkURL()); err != nil {
		return e.fail(task, err), false
	}

	notice, err := e.probe(ctx, page, noticeSelector, e.cfg.ProbeWait)
	if err != nil {
		return e.fail(task, err), false
	}
	if strings.Contains(notice, workLoginRequired) {
		return e.markInvalid(ctx, task), false
	}
	if wait, ok := domain.ParseCooldownWait(notice); ok {
		lastWork := e.cfg.Policy.LastWorkFromWait(e.clock.Now(), wait)
		logger.Info("work cooling down", zap.Duration("wait", wait))
		return e.recordWork(ctx, task, lastWork, "cooling down"), false
	}

	targets, err := page.IDs(ctx, workTargetSelector, e.cfg.ProbeWait)
	if err != nil && !errors.Is(err, ports.ErrElementNotFound) {
		return e.fail(task, fmt.Errorf("find work targets: %w", err)), false
	}
	if len(targets) == 0 {
		return e.readBackWork(ctx, page, task, logger, "no work targets", false), false
	}

	rand.Shuffle(len(targets), func(i, j int) { targets[i], targets[j] = targets[j], targets[i] })

	allConsumed := true
	for _, target := range targets {
		if !e.clickTarget(ctx, page, target, logger) {
			allConsumed = false
		}
		if err := ctx.Err(); err != nil {
			return e.fail(task, err), false
		}
	}
	if !allConsumed {
		return e.fail(task, domain.ErrPartialWork), false
	}

	if err := page.Click(ctx, workFinalizeSelector, e.cfg.StepWait); err != nil {
		return e.fail(task, fmt.Errorf("click finalize: %w", err)), false
	}

	result, err := e.probe(ctx, page, noticeSelector, e.cfg.StepWait)
	if err != nil {
		return e.fail(task, err), false
	}
	if strings.Contains(result, workCheatText) {
		return domain.Outcome{}, true
	}

	logger.Info("work round finished", zap.Int("targets", len(targets)))
	return e.readBackWork(ctx, page, task, logger, "worked", true), false
}

// clickTarget clicks one target and reports whether the site marked it consumed.
func (e *ActionEngine) clickTarget(ctx context.Context, page ports.Page, id string, logger *zap.Logger) bool {
	selector := "#" + id
	if err := page.Click(ctx, selector, e.cfg.StepWait); err != nil {
		logger.Warn("click work target", zap.String("target", id), zap.Error(err))
		return false
	}
	if err := e.randomPause(ctx); err != nil {
		return false
	}

	style, err := page.Attribute(ctx, selector+" a", "style", e.cfg.StepWait)
	if err != nil {
		logger.Warn("read work target style", zap.String("target", id), zap.Error(err))
		return false
	}
	if !consumed(style) {
		logger.Info("work target not consumed", zap.String("target", id))
		return false
	}
	return true
}

// readBackWork reloads the work page to learn the fresh cooldown. When no cooldown can
// be read, the current time is recorded after a finished round and the task fails otherwise.
func (e *ActionEngine) readBackWork(ctx context.Context, page ports.Page, task domain.Task, logger *zap.Logger, detail string, worked bool) domain.Outcome {
	for attempt := 1; attempt <= e.cfg.ReadbackAttempts; attempt++ {
		if err := e.navigate(ctx, page, e.cfg.Site.WorkURL()); err != nil {
			logger.Warn("read back cooldown", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		notice, err := e.probe(ctx, page, noticeSelector, e.cfg.ProbeWait)
		if err != nil {
			logger.Warn("read back cooldown", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		if wait, ok := domain.ParseCooldownWait(notice); ok {
			return e.recordWork(ctx, task, e.cfg.Policy.LastWorkFromWait(e.clock.Now(), wait), detail)
		}
	}

	if !worked {
		return e.fail(task, fmt.Errorf("%s and no cooldown notice after %d attempts", detail, e.cfg.ReadbackAttempts))
	}
	logger.Info("cooldown not readable, recording current time", zap.Int("attempts", e.cfg.ReadbackAttempts))
	return e.recordWork(ctx, task, e.clock.Now(), detail)
}

func (e *ActionEngine) recordWork(ctx context.Context, task domain.Task, lastWork time.Time, detail string) domain.Outcome {
	err := e.updateAccount(ctx, task.Account, func(a *domain.Account) {
		a.LastWorkTime = lastWork
	})
	if err != nil {
		return e.fail(task, fmt.Errorf("record work: %w", err))
	}
	return e.finish(task, domain.OutcomeSucceeded, detail, nil)
}
