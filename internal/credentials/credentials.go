// Package credentials stores and resolves the remote API key using the OS
// keyring, with fallback to the environment and the config file.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
)

// Source indicates where the API key was found
type Source string

const (
	SourceKeyring     Source = "keyring"
	SourceEnvironment Source = "environment"
	SourceConfig      Source = "config"
	SourceNone        Source = "none"
)

// Keyring service and account under which the API key is stored
const (
	ServiceName = "tors-remote"
	AccountName = "api-key"
)

// EnvAPIKey is the environment variable holding the API key
const EnvAPIKey = "TORS_API_KEY"

// Info describes a resolved API key
type Info struct {
	Source Source
	APIKey string
	Found  bool
}

// Masked returns the key with all but the last four characters hidden
func (i *Info) Masked() string {
	if len(i.APIKey) <= 4 {
		return strings.Repeat("*", len(i.APIKey))
	}
	return strings.Repeat("*", len(i.APIKey)-4) + i.APIKey[len(i.APIKey)-4:]
}

// JSON serializes the info without the key itself
func (i *Info) JSON() ([]byte, error) {
	output := struct {
		Source string `json:"source"`
		Found  bool   `json:"found"`
	}{
		Source: string(i.Source),
		Found:  i.Found,
	}
	return json.Marshal(output)
}

// Keyring is the interface for keyring operations
type Keyring interface {
	Set(service, account, secret string) error
	Get(service, account string) (string, error)
	Delete(service, account string) error
}

// Manager handles API key operations
type Manager struct {
	keyring    Keyring
	useKeyring bool
}

// ManagerOption is a functional option for Manager
type ManagerOption func(*Manager)

// WithKeyring sets a custom keyring implementation
func WithKeyring(k Keyring) ManagerOption {
	return func(m *Manager) {
		m.keyring = k
	}
}

// WithKeyringLookup controls whether Resolve consults the keyring
func WithKeyringLookup(enabled bool) ManagerOption {
	return func(m *Manager) {
		m.useKeyring = enabled
	}
}

// NewManager creates a new credential manager
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		keyring:    &systemKeyring{},
		useKeyring: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Set stores the API key in the keyring
func (m *Manager) Set(ctx context.Context, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return errors.New("API key must not be empty")
	}
	return m.keyring.Set(ServiceName, AccountName, apiKey)
}

// Resolve finds the API key: keyring first, then TORS_API_KEY, then the
// value from the config file.
func (m *Manager) Resolve(ctx context.Context, configValue string) *Info {
	if m.useKeyring {
		if key, err := m.keyring.Get(ServiceName, AccountName); err == nil && key != "" {
			return &Info{Source: SourceKeyring, APIKey: key, Found: true}
		}
	}

	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		return &Info{Source: SourceEnvironment, APIKey: key, Found: true}
	}

	if key := strings.TrimSpace(configValue); key != "" {
		return &Info{Source: SourceConfig, APIKey: key, Found: true}
	}

	return &Info{Source: SourceNone}
}

// Delete removes the API key from the keyring. Deleting a missing key is
// not an error.
func (m *Manager) Delete(ctx context.Context) error {
	err := m.keyring.Delete(ServiceName, AccountName)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
