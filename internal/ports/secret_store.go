package ports

import "context"

// SecretStore holds opaque values under slash-separated keys such as
// tsdm/accounts/alice/cookies. Get wraps domain.ErrSecretNotFound for unknown keys.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
