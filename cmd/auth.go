package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bnema/tsdm-autosign/internal/application"
	"github.com/bnema/tsdm-autosign/internal/domain"
	"github.com/spf13/cobra"
)

func newAuthCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage account credentials",
	}

	cmd.AddCommand(
		newAuthLoginCmd(app),
		newAuthImportCmd(app),
		newAuthCheckCmd(app),
	)

	return cmd
}

func newAuthLoginCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in through a browser window and store the session cookies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Log in to the forum in the browser window; it closes once you are logged in.")

			id, err := app.newLoginService().Login(cmd.Context(), app.cfg.GetDuration(keyLoginTimeout))
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "stored credentials for %s\n", id)
			return err
		},
	}
}

func newAuthImportCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <username> <cookies.json|->",
		Short: "Import a cookie export for an account",
		Long:  "Import cookies exported from a logged-in browser. The file holds either a JSON object of name to value or a JSON array of objects with name and value fields; - reads stdin.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}

			creds, err := parseCookieExport(data)
			if err != nil {
				return err
			}

			if err := app.service.ImportCredentials(cmd.Context(), application.ImportCredentialsCommand{
				ID:          domain.AccountID(args[0]),
				Credentials: creds,
			}); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "stored %d cookies for %s\n", len(creds), args[0])
			return err
		},
	}
}

func newAuthCheckCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <username>",
		Short: "Verify that the stored credentials still log the account in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.AccountID(args[0])
			sessions := app.newSessions()
			defer sessions.Close()

			err := application.Check(cmd.Context(), sessions, app.repo, id)
			if errors.Is(err, domain.ErrCredentialInvalid) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: credentials invalid, run `tsdm auth login`\n", id)
				return err
			}
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: credentials valid\n", id)
			return err
		},
	}
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cookie file: %w", err)
	}
	return data, nil
}

type exportedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func parseCookieExport(data []byte) (domain.Credentials, error) {
	var creds domain.Credentials
	if err := json.Unmarshal(data, &creds); err == nil {
		return creds, creds.Validate()
	}

	var cookies []exportedCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("decode cookie export: %w", err)
	}

	creds = make(domain.Credentials, len(cookies))
	for _, cookie := range cookies {
		if cookie.Name != "" {
			creds[cookie.Name] = cookie.Value
		}
	}
	return creds, creds.Validate()
}
