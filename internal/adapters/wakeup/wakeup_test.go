package wakeup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wakeAt = time.Date(2026, 10, 19, 16, 5, 0, 0, time.Local)

type recorder struct {
	name   string
	args   []string
	calls  []string
	stderr string
	err    error
}

func (r *recorder) run(_ context.Context, name string, args ...string) (string, string, error) {
	r.name = name
	r.args = args
	r.calls = append(r.calls, strings.Join(append([]string{name}, args...), " "))
	return "", r.stderr, r.err
}

func TestSystemdScheduleRegistersUserTimer(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	s := &Systemd{command: []string{"/usr/local/bin/tsdm", "run", "--once"}, run: rec.run}

	require.NoError(t, s.Schedule(context.Background(), "TSDM_Work_20261019160500", wakeAt))
	assert.Equal(t, "systemd-run", rec.name)
	assert.Equal(t, []string{
		"--user",
		"--unit=TSDM_Work_20261019160500",
		"--on-calendar=2026-10-19 16:05:00",
		"--timer-property=AccuracySec=1s",
		"--timer-property=WakeSystem=true",
		"--collect",
		"--",
		"/usr/local/bin/tsdm", "run", "--once",
	}, rec.args)
}

func TestSystemdScheduleIncludesStderr(t *testing.T) {
	t.Parallel()

	rec := &recorder{stderr: "Failed to start transient timer unit: Unit already exists", err: errors.New("exit status 1")}
	s := &Systemd{run: rec.run}

	err := s.Schedule(context.Background(), "TSDM_Work_20261019160500", wakeAt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unit already exists")
}

func TestSystemdRemoveIgnoresUnknownTimer(t *testing.T) {
	t.Parallel()

	rec := &recorder{stderr: "Failed to stop TSDM_Work_20261019160500.timer: Unit TSDM_Work_20261019160500.timer not loaded.", err: errors.New("exit status 5")}
	s := &Systemd{run: rec.run}

	require.NoError(t, s.Remove(context.Background(), "TSDM_Work_20261019160500"))
	assert.Equal(t, "systemctl", rec.name)
	assert.Equal(t, []string{"--user", "stop", "TSDM_Work_20261019160500.timer"}, rec.args)

	rec.stderr = "Access denied"
	assert.Error(t, s.Remove(context.Background(), "TSDM_Work_20261019160500"))
}

func TestTaskSchedulerCreatesOneShotTask(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	s := &TaskScheduler{command: []string{`C:\Program Files\tsdm\tsdm.exe`, "run", "--once"}, run: rec.run}

	require.NoError(t, s.Schedule(context.Background(), "TSDM_Work_20261019160500", wakeAt))
	assert.Equal(t, "schtasks", rec.name)
	assert.Equal(t, []string{
		"/Create", "/F",
		"/TN", "TSDM_Work_20261019160500",
		"/SC", "ONCE",
		"/SD", "2026/10/19",
		"/ST", "16:05",
		"/TR", `"C:\Program Files\tsdm\tsdm.exe" run --once`,
	}, rec.args)
}

func TestTaskSchedulerRemoveIgnoresMissingTask(t *testing.T) {
	t.Parallel()

	rec := &recorder{stderr: "ERROR: The system cannot find the file specified.", err: errors.New("exit status 1")}
	s := &TaskScheduler{run: rec.run}

	require.NoError(t, s.Remove(context.Background(), "TSDM_Work_20261019160500"))
	assert.Equal(t, []string{"/Delete", "/F", "/TN", "TSDM_Work_20261019160500"}, rec.args)
}

func TestSystemdInstallStartupEnablesUserService(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	dir := filepath.Join(t.TempDir(), "systemd", "user")
	s := &Systemd{run: rec.run, unitDir: dir}

	require.NoError(t, s.InstallStartup(context.Background(), []string{"/home/u/go/bin/tsdm", "run"}))

	unit, err := os.ReadFile(filepath.Join(dir, StartupUnit))
	require.NoError(t, err)
	assert.Contains(t, string(unit), "ExecStart=/home/u/go/bin/tsdm run\n")
	assert.Contains(t, string(unit), "WantedBy=default.target")
	assert.Equal(t, []string{
		"systemctl --user daemon-reload",
		"systemctl --user enable tsdm.service",
	}, rec.calls)
}

func TestSystemdRemoveStartupToleratesMissingUnit(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	dir := t.TempDir()
	s := &Systemd{run: rec.run, unitDir: dir}
	require.NoError(t, s.InstallStartup(context.Background(), []string{"tsdm", "run"}))
	rec.calls = nil

	require.NoError(t, s.RemoveStartup(context.Background()))
	assert.NoFileExists(t, filepath.Join(dir, StartupUnit))
	assert.Equal(t, []string{
		"systemctl --user disable tsdm.service",
		"systemctl --user daemon-reload",
	}, rec.calls)

	rec.stderr = "Failed to disable unit: Unit file tsdm.service does not exist."
	rec.err = errors.New("exit status 1")
	err := s.RemoveStartup(context.Background())
	require.Error(t, err, "daemon-reload failure still surfaces")
	assert.Contains(t, err.Error(), "daemon-reload")
}

func TestTaskSchedulerInstallStartupRunsAtLogon(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	s := &TaskScheduler{run: rec.run}

	require.NoError(t, s.InstallStartup(context.Background(), []string{`C:\Program Files\tsdm\tsdm.exe`, "run"}))
	assert.Equal(t, []string{
		"/Create", "/F",
		"/TN", "TSDM_Startup",
		"/SC", "ONLOGON",
		"/TR", `"C:\Program Files\tsdm\tsdm.exe" run`,
	}, rec.args)

	rec.stderr = "ERROR: The system cannot find the file specified."
	rec.err = errors.New("exit status 1")
	require.NoError(t, s.RemoveStartup(context.Background()))
	assert.Equal(t, []string{"/Delete", "/F", "/TN", "TSDM_Startup"}, rec.args)
}

func TestUnsupportedPlatform(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, unsupported{}.Schedule(context.Background(), "x", wakeAt), ErrUnsupported)
	assert.NoError(t, unsupported{}.Remove(context.Background(), "x"))
	assert.ErrorIs(t, unsupported{}.InstallStartup(context.Background(), []string{"tsdm", "run"}), ErrUnsupported)
	assert.NoError(t, unsupported{}.RemoveStartup(context.Background()))
}
