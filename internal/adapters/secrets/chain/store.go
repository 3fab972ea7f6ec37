package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/tsdm-autosign/internal/adapters/secrets/file"
	passstore "github.com/bnema/tsdm-autosign/internal/adapters/secrets/pass"
	"github.com/bnema/tsdm-autosign/internal/domain"
	"github.com/bnema/tsdm-autosign/internal/ports"
	"go.uber.org/multierr"
)

// Backend is one named store in a chain.
type Backend struct {
	Name  string
	Store ports.SecretStore
}

// Store reads from the first backend holding a key and writes to the first backend
// that accepts it. A blob written to a later backend evicts copies in earlier ones so
// a stale cookie jar never shadows a fresh one.
type Store struct {
	backends []Backend
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore(backends ...Backend) (*Store, error) {
	if len(backends) == 0 {
		return nil, errors.New("secret store chain is empty")
	}
	for i, backend := range backends {
		if backend.Store == nil {
			return nil, fmt.Errorf("secret store backend %d (%s) is nil", i, backend.Name)
		}
	}

	return &Store{backends: backends}, nil
}

// NewPassFirstWithFileFallback keeps cookie jars in pass when it is usable and in files
// below fileRoot otherwise.
func NewPassFirstWithFileFallback(fileRoot string) (*Store, error) {
	return NewStore(
		Backend{Name: "pass", Store: passstore.NewStore()},
		Backend{Name: "file", Store: filestore.NewStore(fileRoot)},
	)
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	var errs error
	for i, backend := range s.backends {
		err := backend.Store.Put(ctx, key, value)
		if err == nil {
			s.evict(ctx, key, s.backends[:i])
			return nil
		}
		if isCancellation(err) {
			return err
		}
		errs = multierr.Append(errs, fmt.Errorf("%s backend: %w", backend.Name, err))
	}

	return fmt.Errorf("put secret %q: %w", key, errs)
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var (
		errs     error
		notFound int
	)
	for _, backend := range s.backends {
		value, err := backend.Store.Get(ctx, key)
		if err == nil {
			return value, nil
		}
		if isCancellation(err) {
			return "", err
		}
		if isAbsent(err) {
			notFound++
			continue
		}
		errs = multierr.Append(errs, fmt.Errorf("%s backend: %w", backend.Name, err))
	}

	if notFound == len(s.backends) {
		return "", fmt.Errorf("secret %q: %w", key, domain.ErrSecretNotFound)
	}
	return "", fmt.Errorf("get secret %q: %w", key, errs)
}

// Delete removes key from every backend. Missing keys and unavailable backends are not
// an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	var errs error
	for _, backend := range s.backends {
		err := backend.Store.Delete(ctx, key)
		if err == nil || isAbsent(err) {
			continue
		}
		if isCancellation(err) {
			return err
		}
		errs = multierr.Append(errs, fmt.Errorf("%s backend: %w", backend.Name, err))
	}

	if errs != nil {
		return fmt.Errorf("delete secret %q: %w", key, errs)
	}
	return nil
}

// evict drops key from backends that refused the write. Their failure to delete is
// ignored: a backend that cannot write usually cannot read either.
func (s *Store) evict(ctx context.Context, key string, backends []Backend) {
	for _, backend := range backends {
		_ = backend.Store.Delete(ctx, key)
	}
}

// isAbsent reports a key the backend does not hold, including backends that are not
// set up on this host.
func isAbsent(err error) bool {
	return errors.Is(err, domain.ErrSecretNotFound) || errors.Is(err, domain.ErrSecretsUnavailable)
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
