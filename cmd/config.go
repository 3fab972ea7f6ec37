package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/tsdm-autosign/internal/application"
	"github.com/bnema/tsdm-autosign/internal/domain"
	"github.com/spf13/viper"
)

const (
	keySecretsDir        = "secrets.dir"
	keySecretsBackend    = "secrets.backend"
	keySiteBaseURL       = "site.base_url"
	keyBrowserHeadless   = "browser.headless"
	keyBrowserBin        = "browser.bin"
	keyBrowserNavTimeout = "browser.navigation_timeout"
	keySessionIdle       = "session.idle_timeout"
	keySchedulerTick     = "scheduler.tick"
	keyBlackoutStart     = "policy.blackout_start_hour"
	keyBlackoutEnd       = "policy.blackout_end_hour"
	keyWorkCooldown      = "policy.work_cooldown"
	keyRetryAttempts     = "retry.max_attempts"
	keyRetryBaseDelay    = "retry.base_delay"
	keyRetryMaxDelay     = "retry.max_delay"
	keyWorkMaxRestarts   = "work.max_restarts"
	keyLoginTimeout      = "login.timeout"
	keyWakeupInterval    = "wakeup.sync_interval"
)

// loadConfig reads ~/.config/tsdm/config.toml when present; TSDM_* variables override
// every key, e.g. TSDM_STATE_PATH for state.path.
func loadConfig() (*viper.Viper, error) {
	cfg := viper.New()

	cfg.SetDefault(keySecretsBackend, "auto")
	cfg.SetDefault(keySiteBaseURL, application.DefaultSiteBaseURL)
	cfg.SetDefault(keyBrowserHeadless, true)
	cfg.SetDefault(keyBrowserNavTimeout, application.DefaultNavigationTimeout)
	cfg.SetDefault(keySessionIdle, application.DefaultIdleTimeout)
	cfg.SetDefault(keySchedulerTick, application.DefaultTickInterval)
	cfg.SetDefault(keyBlackoutStart, domain.DefaultBlackoutStartHour)
	cfg.SetDefault(keyBlackoutEnd, domain.DefaultBlackoutEndHour)
	cfg.SetDefault(keyWorkCooldown, domain.DefaultWorkCooldown)
	cfg.SetDefault(keyRetryAttempts, application.DefaultRetryMaxAttempts)
	cfg.SetDefault(keyRetryBaseDelay, application.DefaultRetryBaseDelay)
	cfg.SetDefault(keyRetryMaxDelay, application.DefaultRetryMaxDelay)
	cfg.SetDefault(keyWorkMaxRestarts, application.DefaultEngineConfig().MaxRestarts)
	cfg.SetDefault(keyLoginTimeout, application.DefaultLoginTimeout)
	cfg.SetDefault(keyWakeupInterval, time.Minute)

	cfg.SetEnvPrefix("TSDM")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()
	// AutomaticEnv only resolves keys viper already knows about.
	_ = cfg.BindEnv("state.path")
	_ = cfg.BindEnv(keySecretsDir)
	_ = cfg.BindEnv(keyBrowserBin)

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, nil
	}
	cfg.SetConfigFile(filepath.Join(home, ".config", "tsdm", "config.toml"))
	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return cfg, nil
}

func policyFromConfig(cfg *viper.Viper) (domain.Policy, error) {
	policy := domain.Policy{
		BlackoutStartHour: cfg.GetInt(keyBlackoutStart),
		BlackoutEndHour:   cfg.GetInt(keyBlackoutEnd),
		WorkCooldown:      cfg.GetDuration(keyWorkCooldown),
	}
	if err := policy.Validate(); err != nil {
		return domain.Policy{}, err
	}
	return policy, nil
}

func retryFromConfig(cfg *viper.Viper) application.RetryPolicy {
	return application.RetryPolicy{
		MaxAttempts: cfg.GetInt(keyRetryAttempts),
		BaseDelay:   cfg.GetDuration(keyRetryBaseDelay),
		MaxDelay:    cfg.GetDuration(keyRetryMaxDelay),
	}
}
