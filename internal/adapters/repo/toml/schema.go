package toml

import (
	"fmt"
	"time"
)

const currentSchemaVersion = 1

type stateSchema struct {
	Version        int             `toml:"version"`
	Automation     bool            `toml:"automation"`
	ScheduledTasks []string        `toml:"scheduled_tasks,omitempty"`
	Browser        browserSchema   `toml:"browser,omitempty"`
	Accounts       []accountSchema `toml:"accounts"`
}

func (s *stateSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s stateSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported state schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type browserSchema struct {
	Path    string `toml:"path,omitempty"`
	Version string `toml:"version,omitempty"`
}

type accountSchema struct {
	Username        string `toml:"username"`
	CredentialRef   string `toml:"credential_ref,omitempty"`
	CredentialValid bool   `toml:"credential_valid"`
	LastSignDate    string `toml:"last_sign_date,omitempty"`
	LastWorkTime    string `toml:"last_work_time,omitempty"`
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.Format(time.RFC3339)
}
