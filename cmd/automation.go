package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAutomationCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "automation <on|off>",
		Short:     "Turn automatic sign and work scheduling on or off",
		Long:      "With automation on, `tsdm run` queues every eligible sign and work task on its own. Without an argument the current state is printed.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				settings, err := app.service.Settings(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "automation: %s\n", onOff(settings.Automation))
				return err
			}

			var enabled bool
			switch args[0] {
			case "on":
				enabled = true
			case "off":
			default:
				return fmt.Errorf("invalid automation state %q (want on or off)", args[0])
			}

			if err := app.service.SetAutomation(cmd.Context(), enabled); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "automation: %s\n", onOff(enabled))
			return err
		},
	}

	return cmd
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
