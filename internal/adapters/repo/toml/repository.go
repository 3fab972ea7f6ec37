package toml

import (
	"context"

	"github.com/bnema/tsdm-autosign/internal/domain"
	"github.com/bnema/tsdm-autosign/internal/ports"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Repository struct {
	doc *document
}

var _ ports.AccountRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper, logger *zap.Logger) (*Repository, error) {
	doc, err := openDocument(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Repository{doc: doc}, nil
}

func (r *Repository) Path() string {
	return r.doc.path
}

func (r *Repository) Save(ctx context.Context, account domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	encoded := toSchema(account)
	return r.doc.update(func(file *stateSchema) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		for i := range file.Accounts {
			if file.Accounts[i].Username == encoded.Username {
				file.Accounts[i] = encoded
				return nil
			}
		}

		file.Accounts = append(file.Accounts, encoded)
		return nil
	})
}

func (r *Repository) Delete(ctx context.Context, id domain.AccountID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.doc.update(func(file *stateSchema) error {
		for i := range file.Accounts {
			if file.Accounts[i].Username == string(id) {
				file.Accounts = append(file.Accounts[:i], file.Accounts[i+1:]...)
				return nil
			}
		}

		return domain.ErrAccountNotFound
	})
}

func (r *Repository) GetByID(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}

	file, err := r.doc.snapshot()
	if err != nil {
		return domain.Account{}, err
	}

	for _, entry := range file.Accounts {
		if entry.Username == string(id) {
			return fromSchema(entry), nil
		}
	}

	return domain.Account{}, domain.ErrAccountNotFound
}

func (r *Repository) List(ctx context.Context) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := r.doc.snapshot()
	if err != nil {
		return nil, err
	}

	accounts := make([]domain.Account, 0, len(file.Accounts))
	for _, entry := range file.Accounts {
		accounts = append(accounts, fromSchema(entry))
	}

	return accounts, nil
}

func toSchema(account domain.Account) accountSchema {
	return accountSchema{
		Username:        string(account.ID),
		CredentialRef:   account.CredentialRef,
		CredentialValid: account.CredentialValid,
		LastSignDate:    account.LastSignDate,
		LastWorkTime:    formatTime(account.LastWorkTime),
	}
}

func fromSchema(account accountSchema) domain.Account {
	return domain.Account{
		ID:              domain.AccountID(account.Username),
		CredentialRef:   account.CredentialRef,
		CredentialValid: account.CredentialValid,
		LastSignDate:    account.LastSignDate,
		LastWorkTime:    parseTime(account.LastWorkTime),
	}
}
