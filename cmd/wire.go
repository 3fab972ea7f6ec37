package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bnema/tsdm-autosign/internal/adapters/browser/chromium"
	statusadapter "github.com/bnema/tsdm-autosign/internal/adapters/render/status"
	tomlrepo "github.com/bnema/tsdm-autosign/internal/adapters/repo/toml"
	chainstore "github.com/bnema/tsdm-autosign/internal/adapters/secrets/chain"
	filestore "github.com/bnema/tsdm-autosign/internal/adapters/secrets/file"
	passstore "github.com/bnema/tsdm-autosign/internal/adapters/secrets/pass"
	"github.com/bnema/tsdm-autosign/internal/adapters/wakeup"
	"github.com/bnema/tsdm-autosign/internal/application"
	"github.com/bnema/tsdm-autosign/internal/domain"
	"github.com/bnema/tsdm-autosign/internal/ports"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Replaced in tests.
var (
	newBrowserLauncher = func(siteURL string, logger *zap.Logger) ports.BrowserLauncher {
		return chromium.NewLauncher(siteURL, logger)
	}
	newWakeupScheduler  = wakeup.New
	newStartupInstaller = wakeup.NewStartup
)

type app struct {
	cfg    *viper.Viper
	logger *zap.Logger

	repo           *tomlrepo.Repository
	settings       *tomlrepo.SettingsRepository
	store          ports.SecretStore
	service        *application.Service
	policy         domain.Policy
	site           application.Site
	launcher       ports.BrowserLauncher
	statusRenderer func([]application.AccountSnapshot, statusadapter.RenderOptions) (string, error)
	now            func() time.Time
}

func (a *app) wire(cfg *viper.Viper, logger *zap.Logger) error {
	policy, err := policyFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}

	repo, err := tomlrepo.NewRepository(cfg, logger)
	if err != nil {
		return fmt.Errorf("wire account repository: %w", err)
	}
	settings, err := tomlrepo.NewSettingsRepository(cfg, logger)
	if err != nil {
		return fmt.Errorf("wire settings repository: %w", err)
	}

	store, err := newSecretStore(cfg)
	if err != nil {
		return fmt.Errorf("wire secret store: %w", err)
	}

	site := application.Site{BaseURL: cfg.GetString(keySiteBaseURL)}

	*a = app{
		cfg:            cfg,
		logger:         logger,
		repo:           repo,
		settings:       settings,
		store:          store,
		service:        application.NewService(repo, settings, store, ports.SystemClock{}, policy, logger),
		policy:         policy,
		site:           site,
		launcher:       newBrowserLauncher(site.HomeURL(), logger),
		statusRenderer: statusadapter.Render,
		now:            time.Now,
	}
	return nil
}

func newSecretStore(cfg *viper.Viper) (ports.SecretStore, error) {
	dir := cfg.GetString(keySecretsDir)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".local", "state", "tsdm", "secrets")
	}

	switch backend := cfg.GetString(keySecretsBackend); backend {
	case "auto", "":
		return chainstore.NewPassFirstWithFileFallback(dir)
	case "file":
		return filestore.NewStore(dir), nil
	case "pass":
		return passstore.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown secrets backend %q (want auto, file or pass)", backend)
	}
}

func (a *app) sessionConfig() application.SessionConfig {
	return application.SessionConfig{
		Site:              a.site,
		Headless:          a.cfg.GetBool(keyBrowserHeadless),
		Bin:               a.cfg.GetString(keyBrowserBin),
		NavigationTimeout: a.cfg.GetDuration(keyBrowserNavTimeout),
		IdleTimeout:       a.cfg.GetDuration(keySessionIdle),
	}
}

func (a *app) newSessions() *application.SessionManager {
	vault := application.NewCredentialVault(a.store)
	return application.NewSessionManager(a.launcher, vault, a.repo, a.settings, a.sessionConfig(), a.logger)
}

// newScheduler wires a scheduler over a fresh browser session.
func (a *app) newScheduler() *application.Scheduler {
	engineCfg := application.DefaultEngineConfig()
	engineCfg.Site = a.site
	engineCfg.Policy = a.policy
	engineCfg.MaxRestarts = a.cfg.GetInt(keyWorkMaxRestarts)
	engineCfg.NavigationTimeout = a.cfg.GetDuration(keyBrowserNavTimeout)

	engine := application.NewActionEngine(a.repo, ports.SystemClock{}, engineCfg, a.logger)
	return application.NewScheduler(a.newSessions(), engine, a.repo, a.settings, ports.SystemClock{}, application.SchedulerConfig{
		Policy:       a.policy,
		Retry:        retryFromConfig(a.cfg),
		TickInterval: a.cfg.GetDuration(keySchedulerTick),
	}, a.logger)
}

func (a *app) newWakeupService() (*application.WakeupService, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}
	scheduler := newWakeupScheduler([]string{exe, "run", "--once"})
	return application.NewWakeupService(scheduler, a.repo, a.settings, ports.SystemClock{}, a.policy, a.logger), nil
}

func (a *app) newDriverService(preferDownload bool) *application.DriverService {
	return application.NewDriverService(chromium.NewProvisioner(preferDownload), a.settings, a.logger)
}

func (a *app) newLoginService() *application.LoginService {
	return application.NewLoginService(a.launcher, a.service, a.settings, a.site, a.cfg.GetString(keyBrowserBin), a.logger)
}

func (a *app) renderOptions(automation bool) statusadapter.RenderOptions {
	return statusadapter.RenderOptions{
		Now:        a.now(),
		Automation: automation,
		Cooldown:   a.policy.WorkCooldown,
	}
}
