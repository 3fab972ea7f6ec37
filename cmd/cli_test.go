package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bnema/tsdm-autosign/internal/ports"
	portmocks "github.com/bnema/tsdm-autosign/internal/ports/mocks"
	"github.com/bnema/tsdm-autosign/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthImportThenAccountList(t *testing.T) {
	home := t.TempDir()
	cookies := writeCookieFile(t, home, `{"auth":"token-a","saltkey":"salt-a"}`)

	stdout, _, err := executeCLI(t, home, "auth", "import", "alice", cookies)
	require.NoError(t, err)
	assert.Equal(t, "stored 2 cookies for alice\n", stdout)

	stdout, _, err = executeCLI(t, home, "account", "list")
	require.NoError(t, err)
	assert.Equal(t, "alice\tvalid\tnever signed\n", stdout)

	_, err = os.Stat(filepath.Join(home, ".local", "state", "tsdm", "state.toml"))
	require.NoError(t, err)
}

func TestAuthImportReadsCookieArrayFromStdin(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLIWithInput(t, home,
		`[{"name":"auth","value":"token-b","domain":".tsdm39.com"}]`,
		"auth", "import", "bob", "-")
	require.NoError(t, err)
	assert.Equal(t, "stored 1 cookies for bob\n", stdout)
}

func TestAuthImportRejectsGarbage(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLIWithInput(t, home, "not json", "auth", "import", "bob", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode cookie export")
}

func TestAccountRemove(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeStateFixture(home))

	stdout, _, err := executeCLI(t, home, "account", "remove", "alice")
	require.NoError(t, err)
	assert.Equal(t, "removed alice\n", stdout)

	stdout, _, err = executeCLI(t, home, "account", "list")
	require.NoError(t, err)
	assert.Equal(t, "carol\tinvalid\tsigned 2026-10-18\n", stdout)
}

func TestAccountRemoveUnknown(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeStateFixture(home))

	_, _, err := executeCLI(t, home, "account", "remove", "mallory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account not found")
}

func TestAutomationToggle(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "automation")
	require.NoError(t, err)
	assert.Equal(t, "automation: off\n", stdout)

	stdout, _, err = executeCLI(t, home, "automation", "on")
	require.NoError(t, err)
	assert.Equal(t, "automation: on\n", stdout)

	stdout, _, err = executeCLI(t, home, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "automation: on")

	_, _, err = executeCLI(t, home, "automation", "maybe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want on or off")
}

func TestStatusRendersAccounts(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeStateFixture(home))

	stdout, _, err := executeCLI(t, home, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "accounts: 2")
	assert.Contains(t, stdout, "alice")
	assert.Contains(t, stdout, "carol [credentials invalid]")
}

func TestStatusEmpty(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No accounts.")
}

func TestStatusJSONOutput(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeStateFixture(home))

	stdout, _, err := executeCLI(t, home, "status", "--json")
	require.NoError(t, err)

	var decoded struct {
		Automation bool `json:"automation"`
		Accounts   []struct {
			Account         string `json:"account"`
			CredentialValid bool   `json:"credential_valid"`
			LastSignDate    string `json:"last_sign_date"`
		} `json:"accounts"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &decoded))
	assert.True(t, decoded.Automation)
	require.Len(t, decoded.Accounts, 2)
	assert.Equal(t, "alice", decoded.Accounts[0].Account)
	assert.True(t, decoded.Accounts[0].CredentialValid)
	assert.Equal(t, "carol", decoded.Accounts[1].Account)
	assert.Equal(t, "2026-10-18", decoded.Accounts[1].LastSignDate)
}

func TestStatusRejectsWatchWithJSON(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "status", "--json", "--watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be combined")
}

func TestSignUnknownAccountFails(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeStateFixture(home))

	stdout, _, err := executeCLI(t, home, "sign", "--quiet", "mallory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 tasks did not succeed")
	assert.Contains(t, stdout, "sign:mallory")
}

func TestWorkWithoutAccountsFails(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "work")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no accounts configured")
}

func TestWakeupListAndClear(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeStateFixture(home))
	wakeups := stubWakeups(t)
	wakeups.EXPECT().Remove(mock.Anything, "TSDM_Work_20261019130100").Return(nil).Once()

	stdout, _, err := executeCLI(t, home, "wakeup", "list")
	require.NoError(t, err)
	assert.Equal(t, "TSDM_Work_20261019130100\n", stdout)

	stdout, _, err = executeCLI(t, home, "wakeup", "clear")
	require.NoError(t, err)
	assert.Equal(t, "cleared wake-ups\n", stdout)

	stdout, _, err = executeCLI(t, home, "wakeup", "list")
	require.NoError(t, err)
	assert.Empty(t, stdout)
}

func TestWakeupStartupInstallAndRemove(t *testing.T) {
	home := t.TempDir()
	startup := portmocks.NewMockStartupInstaller(t)
	previous := newStartupInstaller
	newStartupInstaller = func() ports.StartupInstaller { return startup }
	t.Cleanup(func() { newStartupInstaller = previous })

	startup.EXPECT().InstallStartup(mock.Anything, mock.MatchedBy(func(command []string) bool {
		return len(command) == 2 && command[1] == "run"
	})).Return(nil).Once()
	startup.EXPECT().RemoveStartup(mock.Anything).Return(nil).Once()

	stdout, _, err := executeCLI(t, home, "wakeup", "install-startup")
	require.NoError(t, err)
	assert.Equal(t, "installed startup task\n", stdout)

	stdout, _, err = executeCLI(t, home, "wakeup", "remove-startup")
	require.NoError(t, err)
	assert.Equal(t, "removed startup task\n", stdout)
}

func TestDriverShowPrefersConfiguredBinary(t *testing.T) {
	home := t.TempDir()
	t.Setenv("TSDM_BROWSER_BIN", "/opt/chromium/chrome")

	stdout, _, err := executeCLI(t, home, "driver", "show")
	require.NoError(t, err)
	assert.Equal(t, "browser /opt/chromium/chrome (from config)\n", stdout)
}

func TestDriverShowRecordedBrowser(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeStateFixture(home))

	stdout, _, err := executeCLI(t, home, "driver", "show")
	require.NoError(t, err)
	assert.Equal(t, "browser /usr/bin/chromium (system)\n", stdout)
}

func TestInvalidPolicyConfigFails(t *testing.T) {
	t.Setenv("TSDM_POLICY_BLACKOUT_START_HOUR", "25")

	_, _, err := executeCLI(t, t.TempDir(), "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load policy")
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Equal(t, "tsdm "+version.Version+"\n", stdout)
}

func TestUnknownCommand(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "usage")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command \"usage\"")
}

func TestParseCookieExport(t *testing.T) {
	creds, err := parseCookieExport([]byte(`[{"name":"auth","value":"a"},{"name":"","value":"skip"}]`))
	require.NoError(t, err)
	assert.Len(t, creds, 1)
	assert.Equal(t, "a", creds["auth"])

	_, err = parseCookieExport([]byte(`{}`))
	require.Error(t, err)
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	return executeCLIWithInput(t, home, "", args...)
}

func executeCLIWithInput(t *testing.T, home, input string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	t.Setenv("TSDM_SECRETS_BACKEND", "file")
	t.Setenv("TSDM_SECRETS_DIR", filepath.Join(home, "secrets"))

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetIn(strings.NewReader(input))
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeCookieFile(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func writeStateFixture(home string) error {
	stateDir := filepath.Join(home, ".local", "state", "tsdm")
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return err
	}

	state := `version = 1
automation = true
scheduled_tasks = ["TSDM_Work_20261019130100"]

[browser]
path = "/usr/bin/chromium"
version = "system"

[[accounts]]
username = "alice"
credential_ref = "tsdm/accounts/alice/cookies"
credential_valid = true

[[accounts]]
username = "carol"
credential_valid = false
last_sign_date = "2026-10-18"
last_work_time = "2026-10-18T20:00:00Z"
`

	return os.WriteFile(filepath.Join(stateDir, "state.toml"), []byte(state), 0o600)
}

func stubWakeups(t *testing.T) *portmocks.MockWakeupScheduler {
	t.Helper()
	wakeups := portmocks.NewMockWakeupScheduler(t)
	previous := newWakeupScheduler
	newWakeupScheduler = func([]string) ports.WakeupScheduler { return wakeups }
	t.Cleanup(func() { newWakeupScheduler = previous })
	return wakeups
}
