package application

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/bnema/tsdm-autosign/internal/domain"
	"github.com/bnema/tsdm-autosign/internal/ports"
	"go.uber.org/zap"
)

// Sign runs the daily sign flow:
//
//	check already signed -> (done | pick mood, radio, submit -> verify)
//
// A login prompt at any probe ends the flow as credential-invalid.
func (e *ActionEngine) Sign(ctx context.Context, page ports.Page, id domain.AccountID) domain.Outcome {
	task := domain.Task{Kind: domain.TaskSign, Account: id}
	logger := e.logger.With(zap.String("account", string(id)))

	if e.cfg.Policy.InBlackout(e.clock.Now()) {
		return e.fail(task, domain.ErrBlackoutHour)
	}

	if err := e.navigate(ctx, page, e.cfg.Site.SignURL()); err != nil {
		return e.fail(task, err)
	}

	signed, err := e.signedMarker(ctx, page, e.cfg.ProbeWait)
	if err != nil {
		return e.fail(task, err)
	}
	if signed {
		logger.Info("already signed today")
		return e.recordSign(ctx, task, "already signed today")
	}

	notice, err := e.probe(ctx, page, noticeSelector, e.cfg.ProbeWait)
	if err != nil {
		return e.fail(task, err)
	}
	if strings.Contains(notice, signLoginRequired) {
		return e.markInvalid(ctx, task)
	}

	mood := moodIDs[rand.Intn(len(moodIDs))]
	steps := []struct {
		name     string
		selector string
	}{
		{name: "mood", selector: fmt.Sprintf(moodSelectorFormat, mood)},
		{name: "radio", selector: signRadioSelector},
		{name: "submit", selector: signSubmitSelector},
	}
	for _, step := range steps {
		if err := page.Click(ctx, step.selector, e.cfg.StepWait); err != nil {
			return e.fail(task, fmt.Errorf("click sign %s: %w", step.name, err))
		}
	}

	signed, err = e.signedMarker(ctx, page, e.cfg.StepWait)
	if err != nil {
		return e.fail(task, err)
	}
	if !signed {
		logger.Warn("sign was not confirmed")
		return e.fail(task, fmt.Errorf("sign not confirmed within %s", e.cfg.StepWait))
	}

	logger.Info("signed", zap.String("mood", mood))
	return e.recordSign(ctx, task, "signed")
}

func (e *ActionEngine) signedMarker(ctx context.Context, page ports.Page, wait time.Duration) (bool, error) {
	text, err := e.probe(ctx, page, alreadySignedSelector, wait)
	if err != nil {
		return false, err
	}
	return strings.Contains(text, alreadySignedText), nil
}

func (e *ActionEngine) recordSign(ctx context.Context, task domain.Task, detail string) domain.Outcome {
	today := domain.DateOf(e.clock.Now())
	err := e.updateAccount(ctx, task.Account, func(a *domain.Account) {
		a.LastSignDate = today
	})
	if err != nil {
		return e.fail(task, fmt.Errorf("record sign: %w", err))
	}
	return e.finish(task, domain.OutcomeSucceeded, detail, nil)
}
