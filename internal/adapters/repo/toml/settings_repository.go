package toml

import (
	"context"

	"github.com/bnema/tsdm-autosign/internal/domain"
	"github.com/bnema/tsdm-autosign/internal/ports"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// SettingsRepository persists the non-account fields of the state document.
type SettingsRepository struct {
	doc *document
}

var _ ports.SettingsRepository = (*SettingsRepository)(nil)

func NewSettingsRepository(cfg *viper.Viper, logger *zap.Logger) (*SettingsRepository, error) {
	doc, err := openDocument(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &SettingsRepository{doc: doc}, nil
}

func (r *SettingsRepository) Get(ctx context.Context) (domain.Settings, error) {
	if err := ctx.Err(); err != nil {
		return domain.Settings{}, err
	}

	file, err := r.doc.snapshot()
	if err != nil {
		return domain.Settings{}, err
	}

	return settingsFromSchema(file), nil
}

func (r *SettingsRepository) Save(ctx context.Context, settings domain.Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.doc.update(func(file *stateSchema) error {
		applySettings(file, settings)
		return nil
	})
}

// Update runs mutate under the document lock, between reading and writing the file.
func (r *SettingsRepository) Update(ctx context.Context, mutate func(*domain.Settings) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.doc.update(func(file *stateSchema) error {
		settings := settingsFromSchema(*file)
		if err := mutate(&settings); err != nil {
			return err
		}
		applySettings(file, settings)
		return nil
	})
}

func settingsFromSchema(file stateSchema) domain.Settings {
	return domain.Settings{
		Automation: file.Automation,
		Browser: domain.BrowserDriver{
			Path:    file.Browser.Path,
			Version: file.Browser.Version,
		},
		ScheduledTasks: append([]string(nil), file.ScheduledTasks...),
	}
}

func applySettings(file *stateSchema, settings domain.Settings) {
	file.Automation = settings.Automation
	file.Browser = browserSchema{Path: settings.Browser.Path, Version: settings.Browser.Version}
	file.ScheduledTasks = append([]string(nil), settings.ScheduledTasks...)
}
