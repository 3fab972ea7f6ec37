package domain

import (
	"errors"
	"sort"
	"strings"
)

// Credentials is the cookie set captured after an interactive login, keyed by cookie name.
type Credentials map[string]string

func (c Credentials) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c Credentials) Validate() error {
	if len(c) == 0 {
		return ErrNoCredentials
	}
	for name := range c {
		if strings.TrimSpace(name) == "" {
			return errors.New("credential cookie name is empty")
		}
	}
	return nil
}

func (c Credentials) Clone() Credentials {
	out := make(Credentials, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
