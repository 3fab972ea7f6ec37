package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/tsdm-autosign/internal/application"
	"github.com/bnema/tsdm-autosign/internal/domain"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownGrace = 30 * time.Second

type taskCommand struct {
	kind  domain.TaskKind
	short string
	label string
}

var (
	taskSign = taskCommand{
		kind:  domain.TaskSign,
		short: "Run the daily sign-in now (all accounts when none are named)",
		label: "Signing in...",
	}
	taskWork = taskCommand{
		kind:  domain.TaskWork,
		short: "Run a work round now (all accounts when none are named)",
		label: "Working...",
	}
)

func newTaskCmd(app *app, task taskCommand) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   string(task.kind) + " [username...]",
		Short: task.short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := resolveAccountIDs(cmd.Context(), app, args)
			if err != nil {
				return err
			}

			tasks := make([]domain.Task, 0, len(ids))
			for _, id := range ids {
				tasks = append(tasks, application.SubmitTaskCommand{Kind: task.kind, Account: id}.Task())
			}

			label := task.label
			if quiet {
				label = ""
			}
			return runTasks(cmd, app, tasks, label)
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not show a progress spinner")

	return cmd
}

func resolveAccountIDs(ctx context.Context, app *app, args []string) ([]domain.AccountID, error) {
	if len(args) > 0 {
		ids := make([]domain.AccountID, 0, len(args))
		for _, arg := range args {
			ids = append(ids, domain.AccountID(arg))
		}
		return ids, nil
	}

	accounts, err := app.service.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, errors.New("no accounts configured, add one with `tsdm auth login`")
	}

	ids := make([]domain.AccountID, 0, len(accounts))
	for _, account := range accounts {
		ids = append(ids, account.ID)
	}
	return ids, nil
}

// runTasks submits tasks to a one-shot scheduler, waits for the queue to drain and
// prints every outcome. An empty label disables the spinner.
func runTasks(cmd *cobra.Command, app *app, tasks []domain.Task, label string) error {
	ctx := cmd.Context()
	scheduler := app.newScheduler()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
		defer cancel()
		if err := scheduler.Shutdown(shutdownCtx); err != nil {
			app.logger.Warn("scheduler shutdown", zap.Error(err))
		}
	}()

	var (
		submitted []domain.Task
		failed    int
	)
	for _, task := range tasks {
		if _, err := scheduler.Submit(task); err != nil {
			failed++
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", task, err)
			continue
		}
		submitted = append(submitted, task)
	}

	if len(submitted) > 0 {
		var err error
		if label == "" {
			err = scheduler.WaitIdle(ctx)
		} else {
			err = runTaskSpinner(ctx, cmd.ErrOrStderr(), label, scheduler.WaitIdle)
		}
		if err != nil {
			return err
		}
	}

	for _, task := range submitted {
		outcome, ok := scheduler.Outcome(task)
		if !ok {
			continue
		}
		if !outcome.Succeeded() {
			failed++
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", task, describeOutcome(outcome))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d tasks did not succeed", failed, len(tasks))
	}
	return nil
}

func describeOutcome(outcome domain.Outcome) string {
	if outcome.Detail == "" {
		return string(outcome.Status)
	}
	return fmt.Sprintf("%s (%s)", outcome.Status, outcome.Detail)
}
