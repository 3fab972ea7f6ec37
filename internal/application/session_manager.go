package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/tsdm-autosign/internal/domain"
	"github.com/bnema/tsdm-autosign/internal/ports"
	"go.uber.org/zap"
)

const (
	DefaultNavigationTimeout = 30 * time.Second
	DefaultIdleTimeout       = 10 * time.Second
	DefaultIdentityTimeout   = 10 * time.Second
	pingTimeout              = 5 * time.Second
)

type SessionConfig struct {
	Site              Site
	Headless          bool
	Bin               string
	NavigationTimeout time.Duration
	IdleTimeout       time.Duration
	IdentityTimeout   time.Duration
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = DefaultNavigationTimeout
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.IdentityTimeout <= 0 {
		c.IdentityTimeout = DefaultIdentityTimeout
	}
	return c
}

// SessionManager owns the one shared browser. At most one Lease exists at a time;
// an idle browser is closed after IdleTimeout once ScheduleIdleClose arms the timer.
type SessionManager struct {
	launcher ports.BrowserLauncher
	vault    *CredentialVault
	accounts ports.AccountRepository
	settings ports.SettingsRepository
	cfg      SessionConfig
	logger   *zap.Logger

	mu        sync.Mutex
	browser   ports.Browser
	lease     *Lease
	injected  domain.AccountID
	idleTimer *time.Timer
	idleGen   uint64
}

// Lease grants exclusive use of the browser until it is released.
type Lease struct {
	browser ports.Browser
}

func (l *Lease) Page() ports.Page {
	return l.browser.Page()
}

func (l *Lease) Browser() ports.Browser {
	return l.browser
}

// NewSessionManager wires the session core. settings may be nil; when set, a provisioned
// browser path is used unless cfg.Bin overrides it.
func NewSessionManager(launcher ports.BrowserLauncher, vault *CredentialVault, accounts ports.AccountRepository, settings ports.SettingsRepository, cfg SessionConfig, logger *zap.Logger) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SessionManager{
		launcher: launcher,
		vault:    vault,
		accounts: accounts,
		settings: settings,
		cfg:      cfg.withDefaults(),
		logger:   logger,
	}
}

// Acquire returns a lease on a live browser, reusing the current one when it answers a
// ping and launching a fresh one otherwise. Launch failures wrap ErrSessionUnavailable.
func (m *SessionManager) Acquire(ctx context.Context) (*Lease, error) {
	m.mu.Lock()
	if m.lease != nil {
		m.mu.Unlock()
		return nil, domain.ErrSessionBusy
	}
	m.stopIdleLocked()
	lease := &Lease{}
	m.lease = lease
	current := m.browser
	m.mu.Unlock()

	if current != nil {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := current.Ping(pingCtx)
		cancel()
		if err == nil {
			lease.browser = current
			return lease, nil
		}

		m.logger.Warn("browser session is stale, relaunching", zap.Error(err))
		m.mu.Lock()
		m.browser = nil
		m.injected = ""
		m.mu.Unlock()
		m.closeBrowser(current)
	}

	browser, err := m.launch(ctx)
	if err != nil {
		m.mu.Lock()
		m.lease = nil
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", domain.ErrSessionUnavailable, err)
	}

	m.mu.Lock()
	m.browser = browser
	m.mu.Unlock()

	lease.browser = browser
	return lease, nil
}

func (m *SessionManager) launch(ctx context.Context) (ports.Browser, error) {
	opts := ports.BrowserLaunchOptions{Headless: m.cfg.Headless, Bin: m.cfg.Bin}
	if opts.Bin == "" && m.settings != nil {
		settings, err := m.settings.Get(ctx)
		if err != nil {
			m.logger.Warn("load browser settings", zap.Error(err))
		} else {
			opts.Bin = settings.Browser.Path
		}
	}

	browser, err := m.launcher.Launch(ctx, opts)
	if err != nil {
		return nil, err
	}

	navCtx, cancel := context.WithTimeout(ctx, m.cfg.NavigationTimeout)
	defer cancel()
	if err := browser.Page().Navigate(navCtx, m.cfg.Site.HomeURL()); err != nil {
		m.logger.Warn("open home page", zap.String("url", m.cfg.Site.HomeURL()), zap.Error(err))
	}

	m.logger.Debug("browser session started", zap.Bool("headless", opts.Headless))
	return browser, nil
}

// InjectCredentials replaces every cookie in the session with the account's blob and
// confirms the site greets the account by name. Any other outcome marks the account's
// credentials invalid and returns ErrCredentialInvalid.
func (m *SessionManager) InjectCredentials(ctx context.Context, lease *Lease, account domain.Account) error {
	if !m.holds(lease) {
		return errors.New("inject credentials: lease is not active")
	}

	creds, err := m.vault.Load(ctx, account)
	if err != nil {
		if errors.Is(err, domain.ErrNoCredentials) {
			return m.invalidate(ctx, account.ID, err)
		}
		return err
	}

	browser := lease.browser
	if err := browser.ClearCookies(ctx); err != nil {
		return fmt.Errorf("clear cookies: %w", err)
	}
	m.mu.Lock()
	m.injected = ""
	m.mu.Unlock()

	if err := browser.SetCookies(ctx, creds); err != nil {
		return fmt.Errorf("set cookies: %w", err)
	}

	reloadCtx, cancel := context.WithTimeout(ctx, m.cfg.NavigationTimeout)
	err = browser.Page().Reload(reloadCtx)
	cancel()
	if err != nil {
		m.logger.Warn("reload after cookie injection", zap.String("account", string(account.ID)), zap.Error(err))
	}

	name, err := browser.Page().Text(ctx, identitySelector, m.cfg.IdentityTimeout)
	if err != nil && !errors.Is(err, ports.ErrElementNotFound) {
		return fmt.Errorf("probe identity: %w", err)
	}
	if err != nil || name != string(account.ID) {
		return m.invalidate(ctx, account.ID, fmt.Errorf("identity marker reads %q", name))
	}

	m.mu.Lock()
	m.injected = account.ID
	m.mu.Unlock()

	if !account.CredentialValid {
		if err := m.setValidity(ctx, account.ID, true); err != nil {
			m.logger.Warn("mark credentials valid", zap.String("account", string(account.ID)), zap.Error(err))
		}
	}

	return nil
}

func (m *SessionManager) invalidate(ctx context.Context, id domain.AccountID, cause error) error {
	m.logger.Warn("credentials rejected",
		zap.String("account", string(id)),
		zap.Error(cause))

	if err := m.setValidity(ctx, id, false); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCredentialInvalid, errors.Join(cause, err))
	}
	return fmt.Errorf("%w: %w", domain.ErrCredentialInvalid, cause)
}

func (m *SessionManager) setValidity(ctx context.Context, id domain.AccountID, valid bool) error {
	account, err := m.accounts.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get account by id: %w", err)
	}
	account.CredentialValid = valid
	if err := m.accounts.Save(ctx, account); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

// Release returns the lease. The browser stays open for the next task.
func (m *SessionManager) Release(lease *Lease) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if lease != nil && m.lease == lease {
		m.lease = nil
	}
}

// ScheduleIdleClose arms the idle timer when a browser exists and nobody holds it.
func (m *SessionManager) ScheduleIdleClose() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser == nil || m.lease != nil {
		return
	}

	m.stopIdleLocked()
	gen := m.idleGen
	m.idleTimer = time.AfterFunc(m.cfg.IdleTimeout, func() {
		m.closeIdle(gen)
	})
}

func (m *SessionManager) CancelIdleClose() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopIdleLocked()
}

func (m *SessionManager) stopIdleLocked() {
	m.idleGen++
	if m.idleTimer != nil {
		m.idleTimer.Stop()
		m.idleTimer = nil
	}
}

func (m *SessionManager) closeIdle(gen uint64) {
	m.mu.Lock()
	if gen != m.idleGen || m.lease != nil || m.browser == nil {
		m.mu.Unlock()
		return
	}
	browser := m.browser
	m.browser = nil
	m.injected = ""
	m.idleTimer = nil
	m.mu.Unlock()

	m.logger.Info("closing idle browser session")
	m.closeBrowser(browser)
}

// Close shuts the browser down. Failures are logged.
func (m *SessionManager) Close() {
	m.mu.Lock()
	m.stopIdleLocked()
	browser := m.browser
	m.browser = nil
	m.injected = ""
	m.mu.Unlock()

	if browser != nil {
		m.closeBrowser(browser)
	}
}

func (m *SessionManager) closeBrowser(browser ports.Browser) {
	if err := browser.Close(); err != nil {
		m.logger.Warn("close browser", zap.Error(err))
	}
}

// Active reports whether a browser is currently open.
func (m *SessionManager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.browser != nil
}

// Injected returns the account whose credentials are loaded in the session.
func (m *SessionManager) Injected() domain.AccountID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.injected
}

func (m *SessionManager) holds(lease *Lease) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lease != nil && m.lease == lease && lease.browser != nil
}
