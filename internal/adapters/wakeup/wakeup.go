package wakeup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/bnema/tsdm-autosign/internal/ports"
)

var ErrUnsupported = errors.New("wake-up scheduling is not supported on this platform")

const (
	// StartupTaskName names the logon task on Windows.
	StartupTaskName = "TSDM_Startup"
	// StartupUnit names the systemd user service started with the user session.
	StartupUnit = "tsdm.service"
)

var (
	_ ports.StartupInstaller = (*Systemd)(nil)
	_ ports.StartupInstaller = (*TaskScheduler)(nil)
)

type runFunc func(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)

// New returns the host's one-shot job scheduler. command is what the job runs.
func New(command []string) ports.WakeupScheduler {
	switch runtime.GOOS {
	case "linux":
		return NewSystemd(command)
	case "windows":
		return NewTaskScheduler(command)
	default:
		return unsupported{}
	}
}

// NewStartup returns the host's logon startup registrar.
func NewStartup() ports.StartupInstaller {
	switch runtime.GOOS {
	case "linux":
		return NewSystemd(nil)
	case "windows":
		return NewTaskScheduler(nil)
	default:
		return unsupported{}
	}
}

// Systemd registers transient user timers through systemd-run.
type Systemd struct {
	command []string
	run     runFunc
	// unitDir overrides the user unit directory; empty means $XDG_CONFIG_HOME/systemd/user.
	unitDir string
}

func NewSystemd(command []string) *Systemd {
	return &Systemd{command: command, run: runCommand}
}

func (s *Systemd) Schedule(ctx context.Context, name string, at time.Time) error {
	args := []string{
		"--user",
		"--unit=" + name,
		"--on-calendar=" + at.Format("2006-01-02 15:04:05"),
		"--timer-property=AccuracySec=1s",
		"--timer-property=WakeSystem=true",
		"--collect",
		"--",
	}
	args = append(args, s.command...)

	_, stderr, err := s.run(ctx, "systemd-run", args...)
	if err != nil {
		return formatError("systemd-run", name, err, stderr)
	}
	return nil
}

// Remove stops the timer. A timer that already fired or never existed is not an error.
func (s *Systemd) Remove(ctx context.Context, name string) error {
	_, stderr, err := s.run(ctx, "systemctl", "--user", "stop", name+".timer")
	if err != nil {
		if strings.Contains(stderr, "not loaded") {
			return nil
		}
		return formatError("systemctl stop", name, err, stderr)
	}
	return nil
}

// InstallStartup writes a user service running command and enables it, so the user
// manager starts it with every session.
func (s *Systemd) InstallStartup(ctx context.Context, command []string) error {
	dir, err := s.userUnitDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create unit directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, StartupUnit), []byte(startupUnitFile(command)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", StartupUnit, err)
	}

	if _, stderr, err := s.run(ctx, "systemctl", "--user", "daemon-reload"); err != nil {
		return formatError("systemctl daemon-reload", StartupUnit, err, stderr)
	}
	if _, stderr, err := s.run(ctx, "systemctl", "--user", "enable", StartupUnit); err != nil {
		return formatError("systemctl enable", StartupUnit, err, stderr)
	}
	return nil
}

// RemoveStartup disables and deletes the user service. A missing unit is not an error.
func (s *Systemd) RemoveStartup(ctx context.Context) error {
	dir, err := s.userUnitDir()
	if err != nil {
		return err
	}

	_, stderr, err := s.run(ctx, "systemctl", "--user", "disable", StartupUnit)
	if err != nil && !strings.Contains(stderr, "does not exist") {
		return formatError("systemctl disable", StartupUnit, err, stderr)
	}
	if err := os.Remove(filepath.Join(dir, StartupUnit)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", StartupUnit, err)
	}

	if _, stderr, err := s.run(ctx, "systemctl", "--user", "daemon-reload"); err != nil {
		return formatError("systemctl daemon-reload", StartupUnit, err, stderr)
	}
	return nil
}

func (s *Systemd) userUnitDir() (string, error) {
	if s.unitDir != "" {
		return s.unitDir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, "systemd", "user"), nil
}

func startupUnitFile(command []string) string {
	return fmt.Sprintf(`[Unit]
Description=tsdm sign and work daemon
Wants=network-online.target
After=network-online.target

[Service]
Type=simple
ExecStart=%s
Restart=on-failure
RestartSec=30

[Install]
WantedBy=default.target
`, quoteCommand(command))
}

// TaskScheduler registers one-shot tasks with schtasks.exe.
type TaskScheduler struct {
	command []string
	run     runFunc
}

func NewTaskScheduler(command []string) *TaskScheduler {
	return &TaskScheduler{command: command, run: runCommand}
}

func (s *TaskScheduler) Schedule(ctx context.Context, name string, at time.Time) error {
	_, stderr, err := s.run(ctx, "schtasks",
		"/Create", "/F",
		"/TN", name,
		"/SC", "ONCE",
		"/SD", at.Format("2006/01/02"),
		"/ST", at.Format("15:04"),
		"/TR", quoteCommand(s.command))
	if err != nil {
		return formatError("schtasks create", name, err, stderr)
	}
	return nil
}

func (s *TaskScheduler) Remove(ctx context.Context, name string) error {
	_, stderr, err := s.run(ctx, "schtasks", "/Delete", "/F", "/TN", name)
	if err != nil {
		if strings.Contains(strings.ToLower(stderr), "cannot find") {
			return nil
		}
		return formatError("schtasks delete", name, err, stderr)
	}
	return nil
}

// InstallStartup registers a task that runs command at every logon of the current user.
func (s *TaskScheduler) InstallStartup(ctx context.Context, command []string) error {
	_, stderr, err := s.run(ctx, "schtasks",
		"/Create", "/F",
		"/TN", StartupTaskName,
		"/SC", "ONLOGON",
		"/TR", quoteCommand(command))
	if err != nil {
		return formatError("schtasks create", StartupTaskName, err, stderr)
	}
	return nil
}

func (s *TaskScheduler) RemoveStartup(ctx context.Context) error {
	return s.Remove(ctx, StartupTaskName)
}

func quoteCommand(command []string) string {
	quoted := make([]string, 0, len(command))
	for _, part := range command {
		if strings.ContainsAny(part, " \t") {
			part = `"` + part + `"`
		}
		quoted = append(quoted, part)
	}
	return strings.Join(quoted, " ")
}

type unsupported struct{}

func (unsupported) Schedule(context.Context, string, time.Time) error {
	return ErrUnsupported
}

func (unsupported) Remove(context.Context, string) error {
	return nil
}

func (unsupported) InstallStartup(context.Context, []string) error {
	return ErrUnsupported
}

func (unsupported) RemoveStartup(context.Context) error {
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) (string, string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", "", fmt.Errorf("%s: %w", name, ErrUnsupported)
		}
		return "", "", fmt.Errorf("locate %s: %w", name, err)
	}

	cmd := exec.CommandContext(ctx, path, args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func formatError(op string, name string, err error, stderr string) error {
	if stderr == "" {
		return fmt.Errorf("%s %q: %w", op, name, err)
	}

	return fmt.Errorf("%s %q: %w: %s", op, name, err, stderr)
}
