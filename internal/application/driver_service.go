package application

import (
	"context"
	"fmt"

	"github.com/bnema/tsdm-autosign/internal/domain"
	"github.com/bnema/tsdm-autosign/internal/ports"
	"go.uber.org/zap"
)

// DriverService provisions the browser executable and records it in the settings.
type DriverService struct {
	provisioner ports.DriverProvisioner
	settings    ports.SettingsRepository
	logger      *zap.Logger
}

func NewDriverService(provisioner ports.DriverProvisioner, settings ports.SettingsRepository, logger *zap.Logger) *DriverService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DriverService{provisioner: provisioner, settings: settings, logger: logger}
}

func (d *DriverService) Ensure(ctx context.Context) (domain.BrowserDriver, error) {
	driver, err := d.provisioner.EnsureInstalled(ctx)
	if err != nil {
		return domain.BrowserDriver{}, fmt.Errorf("provision browser: %w", err)
	}

	settings, err := d.settings.Get(ctx)
	if err != nil {
		return driver, fmt.Errorf("load settings: %w", err)
	}
	if settings.Browser == driver {
		return driver, nil
	}

	err = d.settings.Update(ctx, func(settings *domain.Settings) error {
		settings.Browser = driver
		return nil
	})
	if err != nil {
		return driver, fmt.Errorf("save settings: %w", err)
	}

	d.logger.Info("browser provisioned",
		zap.String("path", driver.Path),
		zap.String("version", driver.Version))
	return driver, nil
}
