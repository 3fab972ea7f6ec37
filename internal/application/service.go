package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/tsdm-autosign/internal/domain"
	"github.com/bnema/tsdm-autosign/internal/ports"
	"go.uber.org/zap"
)

// Service covers the account operations that do not need the browser session.
type Service struct {
	repo     ports.AccountRepository
	settings ports.SettingsRepository
	vault    *CredentialVault
	clock    ports.Clock
	policy   domain.Policy
	logger   *zap.Logger
}

func NewService(repo ports.AccountRepository, settings ports.SettingsRepository, store ports.SecretStore, clock ports.Clock, policy domain.Policy, logger *zap.Logger) *Service {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		repo:     repo,
		settings: settings,
		vault:    NewCredentialVault(store),
		clock:    clock,
		policy:   policy,
		logger:   logger,
	}
}

// ImportCredentials stores a fresh credential blob and marks the account valid. The
// account is created when it does not exist yet.
func (s *Service) ImportCredentials(ctx context.Context, cmd ImportCredentialsCommand) error {
	if cmd.ID == "" {
		return errors.New("account username is empty")
	}

	account, err := s.repo.GetByID(ctx, cmd.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return fmt.Errorf("get account by id: %w", err)
		}
		account = domain.Account{ID: cmd.ID}
	}
	previousRef := account.CredentialRef

	ref := CredentialRef(cmd.ID)
	if err := s.vault.Store(ctx, ref, cmd.Credentials); err != nil {
		return fmt.Errorf("store credentials: %w", err)
	}

	account.CredentialRef = ref
	account.CredentialValid = true

	if err := s.repo.Save(ctx, account); err != nil {
		if previousRef == ref {
			return fmt.Errorf("save account credentials: %w", err)
		}
		if rollbackErr := s.vault.Delete(ctx, ref); rollbackErr != nil {
			return fmt.Errorf("save account credentials and rollback stored credentials: %w", errors.Join(err, rollbackErr))
		}
		return fmt.Errorf("save account credentials: %w", err)
	}

	if previousRef != "" && previousRef != ref {
		if err := s.vault.Delete(ctx, previousRef); err != nil {
			s.logger.Warn("delete previous credentials",
				zap.String("account", string(cmd.ID)),
				zap.Error(err))
		}
	}

	s.logger.Info("credentials imported",
		zap.String("account", string(cmd.ID)),
		zap.Strings("cookies", cmd.Credentials.Names()))
	return nil
}

// RemoveAccount deletes the account and its stored credentials. The account is restored
// when the credentials cannot be deleted.
func (s *Service) RemoveAccount(ctx context.Context, id domain.AccountID) error {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get account by id: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	if err := s.vault.Delete(ctx, account.CredentialRef); err != nil {
		if restoreErr := s.repo.Save(ctx, account); restoreErr != nil {
			return fmt.Errorf("delete account credentials and restore account: %w", errors.Join(err, restoreErr))
		}
		return fmt.Errorf("delete account credentials: %w", err)
	}

	return nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func (s *Service) SetAutomation(ctx context.Context, enabled bool) error {
	err := s.settings.Update(ctx, func(settings *domain.Settings) error {
		settings.Automation = enabled
		return nil
	})
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	return nil
}

func (s *Service) Settings(ctx context.Context) (domain.Settings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

// Snapshots derives the display state of every account from the store alone.
func (s *Service) Snapshots(ctx context.Context) ([]AccountSnapshot, error) {
	accounts, err := s.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	snapshots := make([]AccountSnapshot, 0, len(accounts))
	for _, account := range accounts {
		snapshots = append(snapshots, BuildSnapshot(account, s.policy, now))
	}

	return snapshots, nil
}
