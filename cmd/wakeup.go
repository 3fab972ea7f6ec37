package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newWakeupCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wakeup",
		Short: "Manage the OS timer that wakes the machine for the next work round",
	}

	cmd.AddCommand(
		newWakeupListCmd(app),
		newWakeupSyncCmd(app),
		newWakeupClearCmd(app),
		newWakeupInstallStartupCmd(),
		newWakeupRemoveStartupCmd(),
	)

	return cmd
}

func newWakeupListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered wake-ups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := app.newWakeupService()
			if err != nil {
				return err
			}
			names, err := svc.Registered(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newWakeupSyncCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Register a wake-up for the earliest upcoming work round",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := app.newWakeupService()
			if err != nil {
				return err
			}
			name, err := svc.Sync(cmd.Context())
			if err != nil {
				return err
			}
			if name == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "no work round pending")
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "registered %s\n", name)
			return err
		},
	}
}

func newWakeupClearCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every registered wake-up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := app.newWakeupService()
			if err != nil {
				return err
			}
			if err := svc.Clear(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "cleared wake-ups")
			return err
		},
	}
}

func newWakeupInstallStartupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install-startup",
		Short: "Start the daemon automatically when you log on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			if err := newStartupInstaller().InstallStartup(cmd.Context(), []string{exe, "run"}); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "installed startup task")
			return err
		},
	}
}

func newWakeupRemoveStartupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-startup",
		Short: "Stop starting the daemon at logon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := newStartupInstaller().RemoveStartup(cmd.Context()); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "removed startup task")
			return err
		},
	}
}
