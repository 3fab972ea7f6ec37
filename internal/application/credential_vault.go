package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bnema/tsdm-autosign/internal/domain"
	"github.com/bnema/tsdm-autosign/internal/ports"
)

// CredentialRef is the secret-store key holding the cookie blob of id.
func CredentialRef(id domain.AccountID) string {
	return "tsdm/accounts/" + string(id) + "/cookies"
}

// CredentialVault stores credential blobs as JSON documents in a secret store.
type CredentialVault struct {
	store ports.SecretStore
}

func NewCredentialVault(store ports.SecretStore) *CredentialVault {
	return &CredentialVault{store: store}
}

func (v *CredentialVault) Load(ctx context.Context, account domain.Account) (domain.Credentials, error) {
	if !account.HasCredentials() {
		return nil, domain.ErrNoCredentials
	}

	raw, err := v.store.Get(ctx, account.CredentialRef)
	if err != nil {
		if errors.Is(err, domain.ErrSecretNotFound) {
			return nil, fmt.Errorf("load credentials for %s: %w", account.ID, domain.ErrNoCredentials)
		}
		return nil, fmt.Errorf("load credentials for %s: %w", account.ID, err)
	}

	var creds domain.Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return nil, fmt.Errorf("decode credentials for %s: %w", account.ID, domain.ErrNoCredentials)
	}
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("credentials for %s: %w", account.ID, err)
	}

	return creds, nil
}

func (v *CredentialVault) Store(ctx context.Context, ref string, creds domain.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	return v.store.Put(ctx, ref, string(data))
}

func (v *CredentialVault) Delete(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	return v.store.Delete(ctx, ref)
}
