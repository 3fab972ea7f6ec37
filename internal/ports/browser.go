package ports

import (
	"context"
	"errors"
	"time"

	"github.com/bnema/tsdm-autosign/internal/domain"
)

// ErrElementNotFound is returned when a selector does not resolve within its wait.
var ErrElementNotFound = errors.New("element not found")

// Page is the page prober the action flows drive. Every lookup is bounded by the
// timeout it is given.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	// Text returns the trimmed text of the first element matching selector.
	Text(ctx context.Context, selector string, timeout time.Duration) (string, error)
	// Click waits for selector to be visible and clicks it.
	Click(ctx context.Context, selector string, timeout time.Duration) error
	// IDs returns the id attribute of every element matching selector.
	IDs(ctx context.Context, selector string, timeout time.Duration) ([]string, error)
	Attribute(ctx context.Context, selector, name string, timeout time.Duration) (string, error)
}

// Browser is one live browser process with a single working page.
type Browser interface {
	Ping(ctx context.Context) error
	Page() Page
	ClearCookies(ctx context.Context) error
	SetCookies(ctx context.Context, creds domain.Credentials) error
	Cookies(ctx context.Context) (domain.Credentials, error)
	Close() error
}

type BrowserLaunchOptions struct {
	Headless bool
	// Bin is the browser executable; empty lets the launcher pick one.
	Bin string
}

type BrowserLauncher interface {
	Launch(ctx context.Context, opts BrowserLaunchOptions) (Browser, error)
}

type DriverProvisioner interface {
	EnsureInstalled(ctx context.Context) (domain.BrowserDriver, error)
}
