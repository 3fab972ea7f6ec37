package ports

import (
	"context"

	"github.com/bnema/tsdm-autosign/internal/domain"
)

type AccountRepository interface {
	GetByID(ctx context.Context, id domain.AccountID) (domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	Save(ctx context.Context, account domain.Account) error
	Delete(ctx context.Context, id domain.AccountID) error
}

type SettingsRepository interface {
	Get(ctx context.Context) (domain.Settings, error)
	Save(ctx context.Context, settings domain.Settings) error
	// Update applies mutate to the stored settings and persists the result in one
	// step, so concurrent writers of other fields are not reverted.
	Update(ctx context.Context, mutate func(*domain.Settings) error) error
}
