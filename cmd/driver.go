package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDriverCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "driver",
		Short: "Manage the browser used for automation",
	}

	cmd.AddCommand(newDriverInstallCmd(app), newDriverShowCmd(app))

	return cmd
}

func newDriverInstallCmd(app *app) *cobra.Command {
	var download bool

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Locate a local Chromium or download one, and remember it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			driver, err := app.newDriverService(download).Ensure(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "browser %s (%s)\n", driver.Path, driver.Version)
			return err
		},
	}

	cmd.Flags().BoolVar(&download, "download", false, "Download a pinned Chromium even if one is installed")

	return cmd
}

func newDriverShowCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the browser currently in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := app.service.Settings(cmd.Context())
			if err != nil {
				return err
			}

			switch {
			case app.cfg.GetString(keyBrowserBin) != "":
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "browser %s (from config)\n", app.cfg.GetString(keyBrowserBin))
			case settings.Browser.IsZero():
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "no browser recorded, run `tsdm driver install`")
			default:
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "browser %s (%s)\n", settings.Browser.Path, settings.Browser.Version)
			}
			return err
		},
	}
}
