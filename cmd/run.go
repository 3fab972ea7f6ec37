package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tomlrepo "github.com/bnema/tsdm-autosign/internal/adapters/repo/toml"
	"github.com/bnema/tsdm-autosign/internal/adapters/wakeup"
	"github.com/bnema/tsdm-autosign/internal/application"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newRunCmd(app *app) *cobra.Command {
	var (
		once     bool
		noWakeup bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler: queue eligible tasks while automation is on",
		Long:  "run ticks every second, queueing each account's sign and work task as soon as it becomes eligible, and keeps an OS wake-up registered for the next work round. With --once it runs a single pass and exits when the queue drains.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var wakeups *application.WakeupService
			if !noWakeup {
				svc, err := app.newWakeupService()
				if err != nil {
					return err
				}
				wakeups = svc
			}

			if once {
				return runOnce(ctx, app, wakeups)
			}
			return runDaemon(ctx, app, wakeups)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run one scheduling pass and exit when idle")
	cmd.Flags().BoolVar(&noWakeup, "no-wakeup", false, "Do not register OS wake-ups")

	return cmd
}

func runOnce(ctx context.Context, app *app, wakeups *application.WakeupService) error {
	scheduler := app.newScheduler()
	scheduler.Tick(ctx)
	waitErr := scheduler.WaitIdle(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()
	if err := scheduler.Shutdown(shutdownCtx); err != nil {
		app.logger.Warn("scheduler shutdown", zap.Error(err))
	}

	if wakeups != nil {
		syncWakeup(ctx, app, wakeups)
	}

	if errors.Is(waitErr, context.Canceled) {
		return nil
	}
	return waitErr
}

func runDaemon(ctx context.Context, app *app, wakeups *application.WakeupService) error {
	scheduler := app.newScheduler()

	changes, err := tomlrepo.NewWatcher(app.repo.Path(), app.logger).Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch state file: %w", err)
	}

	app.logger.Info("scheduler started", zap.String("state", app.repo.Path()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		// Accounts added from another process are picked up without waiting for a tick.
		for range changes {
			scheduler.Tick(gctx)
		}
		return nil
	})
	if wakeups != nil {
		g.Go(func() error {
			return wakeups.Run(gctx, app.cfg.GetDuration(keyWakeupInterval))
		})
	}

	runErr := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()
	if err := scheduler.Shutdown(shutdownCtx); err != nil {
		app.logger.Warn("scheduler shutdown", zap.Error(err))
	}
	app.logger.Info("scheduler stopped")

	return runErr
}

func syncWakeup(ctx context.Context, app *app, wakeups *application.WakeupService) {
	name, err := wakeups.Sync(ctx)
	switch {
	case errors.Is(err, wakeup.ErrUnsupported):
		app.logger.Debug("wake-ups unsupported on this platform")
	case err != nil:
		app.logger.Warn("sync wake-up", zap.Error(err))
	case name != "":
		app.logger.Debug("wake-up in place", zap.String("name", name))
	}
}
