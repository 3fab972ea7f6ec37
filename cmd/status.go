package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	statusadapter "github.com/bnema/tsdm-autosign/internal/adapters/render/status"
	tomlrepo "github.com/bnema/tsdm-autosign/internal/adapters/repo/toml"
	"github.com/bnema/tsdm-autosign/internal/application"
	"github.com/spf13/cobra"
)

type statusOutput struct {
	Automation bool                          `json:"automation"`
	Accounts   []application.AccountSnapshot `json:"accounts"`
}

func newStatusCmd(app *app) *cobra.Command {
	var (
		asJSON bool
		watch  bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show sign and work state for every account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if watch && asJSON {
				return fmt.Errorf("--watch and --json cannot be combined")
			}
			if watch {
				return watchStatus(cmd, app)
			}

			snapshots, opts, err := app.loadStatus(cmd.Context())
			if err != nil {
				return err
			}
			return writeStatusOutput(cmd, app, snapshots, opts, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep refreshing until q is pressed")

	return cmd
}

func (a *app) loadStatus(ctx context.Context) ([]application.AccountSnapshot, statusadapter.RenderOptions, error) {
	settings, err := a.service.Settings(ctx)
	if err != nil {
		return nil, statusadapter.RenderOptions{}, err
	}
	snapshots, err := a.service.Snapshots(ctx)
	if err != nil {
		return nil, statusadapter.RenderOptions{}, err
	}
	return snapshots, a.renderOptions(settings.Automation), nil
}

func writeStatusOutput(cmd *cobra.Command, app *app, snapshots []application.AccountSnapshot, opts statusadapter.RenderOptions, asJSON bool) error {
	if asJSON {
		if snapshots == nil {
			snapshots = []application.AccountSnapshot{}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(statusOutput{Automation: opts.Automation, Accounts: snapshots})
	}

	rendered, err := app.statusRenderer(snapshots, opts)
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

// watchStatus redraws on every second and whenever the state file changes.
func watchStatus(cmd *cobra.Command, app *app) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	changes, err := tomlrepo.NewWatcher(app.repo.Path(), app.logger).Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch state file: %w", err)
	}

	return statusadapter.Watch(ctx, app.loadStatus, changes, cmd.InOrStdin(), cmd.OutOrStdout())
}
