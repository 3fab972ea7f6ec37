package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/tsdm-autosign/internal/domain"
	"github.com/bnema/tsdm-autosign/internal/ports"
	"go.uber.org/zap"
)

const (
	DefaultLoginTimeout = 5 * time.Minute
	loginPollInterval   = 2 * time.Second
)

// LoginService captures credentials from an interactive login in a visible browser.
type LoginService struct {
	launcher ports.BrowserLauncher
	service  *Service
	settings ports.SettingsRepository
	site     Site
	bin      string
	logger   *zap.Logger
}

func NewLoginService(launcher ports.BrowserLauncher, service *Service, settings ports.SettingsRepository, site Site, bin string, logger *zap.Logger) *LoginService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginService{
		launcher: launcher,
		service:  service,
		settings: settings,
		site:     site,
		bin:      bin,
		logger:   logger,
	}
}

// Login opens the login page and waits until the user has logged in, then stores the
// session cookies under the username the site greets.
func (l *LoginService) Login(ctx context.Context, timeout time.Duration) (domain.AccountID, error) {
	if timeout <= 0 {
		timeout = DefaultLoginTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := ports.BrowserLaunchOptions{Headless: false, Bin: l.bin}
	if opts.Bin == "" {
		if settings, err := l.settings.Get(ctx); err == nil {
			opts.Bin = settings.Browser.Path
		}
	}

	browser, err := l.launcher.Launch(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSessionUnavailable, err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			l.logger.Warn("close login browser", zap.Error(err))
		}
	}()

	page := browser.Page()
	if err := page.Navigate(ctx, l.site.LoginURL()); err != nil {
		l.logger.Warn("open login page", zap.Error(err))
	}

	username, err := waitForIdentity(ctx, page)
	if err != nil {
		return "", err
	}

	creds, err := browser.Cookies(ctx)
	if err != nil {
		return "", fmt.Errorf("export cookies: %w", err)
	}

	id := domain.AccountID(username)
	if err := l.service.ImportCredentials(ctx, ImportCredentialsCommand{ID: id, Credentials: creds}); err != nil {
		return "", err
	}

	return id, nil
}

func waitForIdentity(ctx context.Context, page ports.Page) (string, error) {
	for {
		name, err := page.Text(ctx, identitySelector, loginPollInterval)
		if err == nil && name != "" {
			return name, nil
		}
		if err != nil && !errors.Is(err, ports.ErrElementNotFound) && ctx.Err() == nil {
			return "", fmt.Errorf("probe login state: %w", err)
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("waiting for login: %w", ctx.Err())
		}
	}
}

// Check injects the account's credentials into a fresh session and reports whether the
// site accepted them. The outcome is persisted on the account.
func Check(ctx context.Context, sessions *SessionManager, accounts ports.AccountRepository, id domain.AccountID) error {
	account, err := accounts.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get account by id: %w", err)
	}

	lease, err := sessions.Acquire(ctx)
	if err != nil {
		return err
	}
	defer sessions.Release(lease)

	return sessions.InjectCredentials(ctx, lease, account)
}
