package toml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	StatePathKey    = "state.path"
	stateFileMode   = 0o600
	stateDirMode    = 0o700
	stateDir        = ".local/state/tsdm"
	stateFile       = "state.toml"
	tempFilePattern = ".state-*.toml.tmp"
)

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

// document is the single state file shared by the account and settings repositories.
// Every write replaces the whole file.
type document struct {
	path   string
	mu     *sync.RWMutex
	logger *zap.Logger
}

func openDocument(cfg *viper.Viper, logger *zap.Logger) (*document, error) {
	if cfg == nil {
		cfg = viper.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	path, err := ResolveStatePath(cfg)
	if err != nil {
		return nil, err
	}

	return &document{path: path, mu: lockForPath(path), logger: logger}, nil
}

// ResolveStatePath returns the absolute state file path configured under state.path.
func ResolveStatePath(cfg *viper.Viper) (string, error) {
	path := cfg.GetString(StatePathKey)
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(homeDir, stateDir, stateFile)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve state path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

// read loads the document. A missing or undecodable file yields empty defaults.
func (d *document) read() (stateSchema, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return stateSchema{Version: currentSchemaVersion}, nil
		}
		return stateSchema{}, fmt.Errorf("read state file: %w", err)
	}

	var file stateSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		d.logger.Warn("state file is malformed, using defaults",
			zap.String("path", d.path),
			zap.Error(err))
		return stateSchema{Version: currentSchemaVersion}, nil
	}
	if err := file.validateVersion(); err != nil {
		return stateSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (d *document) write(file stateSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(d.path), stateDirMode); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode state file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(d.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}

	if err := tempFile.Chmod(stateFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp state file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tempName, d.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	cleanup = false
	return nil
}

// update runs mutate under the write lock and persists the result.
func (d *document) update(mutate func(*stateSchema) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	file, err := d.read()
	if err != nil {
		return err
	}

	if err := mutate(&file); err != nil {
		return err
	}

	return d.write(file)
}

func (d *document) snapshot() (stateSchema, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.read()
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}
