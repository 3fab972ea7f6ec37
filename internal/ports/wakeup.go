package ports

import (
	"context"
	"time"
)

// WakeupScheduler registers one-shot host wake-ups that start the daemon again.
type WakeupScheduler interface {
	Schedule(ctx context.Context, name string, at time.Time) error
	Remove(ctx context.Context, name string) error
}

// StartupInstaller registers the daemon to start whenever the user logs on.
type StartupInstaller interface {
	InstallStartup(ctx context.Context, command []string) error
	RemoveStartup(ctx context.Context) error
}
