// Package credentials resolves the GitHub token used by the remote client and
// manages the copy kept in the OS credential store.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"flashgh/internal/config"
	"flashgh/internal/logging"

	"github.com/zalando/go-keyring"
)

const (
	// Service name for OS credential store
	credentialService = "flashgh"
	// Key for GitHub Personal Access Token
	githubTokenKey = "github_pat"
)

// Environment variables consulted before the config file and the keyring, in order.
var tokenEnvVars = []string{"GITHUB_API_TOKEN", "GITHUB_TOKEN"}

// ErrNoToken is returned by Manager.Token when nothing is stored.
var ErrNoToken = errors.New("no GitHub token stored - run 'flashgh auth set' or export GITHUB_TOKEN")

// Source names where a resolved token came from.
type Source string

const (
	SourceNone    Source = "none"
	SourceEnv     Source = "environment"
	SourceConfig  Source = "config file"
	SourceKeyring Source = "keyring"
)

// Token is a resolved credential. An empty Value means anonymous access.
type Token struct {
	Value  string
	Source Source
	// Detail names the environment variable or file the token came from.
	Detail string
}

// Anonymous reports whether no token was found.
func (t Token) Anonymous() bool {
	return t.Value == ""
}

// Manager handles secure storage and retrieval of the GitHub token.
type Manager struct {
	service string
}

// NewManager creates a manager bound to the flashgh keyring service.
func NewManager() *Manager {
	return &Manager{service: credentialService}
}

// newManagerWithService is used by tests to isolate keyring entries.
func newManagerWithService(service string) *Manager {
	return &Manager{service: service}
}

// Resolve returns the first token found in GITHUB_API_TOKEN, GITHUB_TOKEN, the
// config file and the keyring. Keyring failures are logged and treated as
// absence so public read-only operations keep working on headless hosts.
func (m *Manager) Resolve(cfg *config.Config) Token {
	for _, name := range tokenEnvVars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return Token{Value: v, Source: SourceEnv, Detail: name}
		}
	}

	if cfg != nil {
		if v := strings.TrimSpace(cfg.GitHub.Token); v != "" {
			return Token{Value: v, Source: SourceConfig, Detail: config.ConfigPath()}
		}
	}

	v, err := m.Token()
	if err == nil {
		return Token{Value: v, Source: SourceKeyring, Detail: m.service}
	}
	if !errors.Is(err, ErrNoToken) {
		logging.Warn("Credential store unavailable", "error", err)
	}
	return Token{Source: SourceNone}
}

// Store saves a token in the OS credential store after checking its format.
func (m *Manager) Store(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	if err := ValidateTokenFormat(token); err != nil {
		return fmt.Errorf("invalid token format: %w", err)
	}

	if err := keyring.Set(m.service, githubTokenKey, token); err != nil {
		return fmt.Errorf("failed to store token in credential store: %w", err)
	}
	return nil
}

// Token retrieves the stored token.
func (m *Manager) Token() (string, error) {
	token, err := keyring.Get(m.service, githubTokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("failed to retrieve token from credential store: %w", err)
	}

	if strings.TrimSpace(token) == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// Delete removes the stored token. Deleting an absent token is not an error.
func (m *Manager) Delete() error {
	err := keyring.Delete(m.service, githubTokenKey)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token from credential store: %w", err)
	}
	return nil
}

// Has reports whether a token is stored without returning it.
func (m *Manager) Has() bool {
	_, err := m.Token()
	return err == nil
}

// ValidateTokenFormat checks that token looks like a GitHub token:
//   - Classic PATs: ghp_*
//   - Fine-grained PATs: github_pat_*
//   - OAuth tokens: gho_*
//   - User-to-server tokens: ghu_*
//   - Server-to-server tokens: ghs_*
func ValidateTokenFormat(token string) error {
	token = strings.TrimSpace(token)

	if len(token) < 20 {
		return fmt.Errorf("token too short (minimum 20 characters)")
	}

	validPrefixes := []string{"ghp_", "github_pat_", "gho_", "ghu_", "ghs_"}
	for _, prefix := range validPrefixes {
		if strings.HasPrefix(token, prefix) {
			return nil
		}
	}

	return fmt.Errorf("token does not match expected GitHub PAT format (should start with ghp_ or github_pat_)")
}

// StoreStatus describes whether the OS credential store is usable.
type StoreStatus struct {
	Available bool
	Error     string
	Warning   string
}

// Status probes the credential store with a throwaway entry.
func (m *Manager) Status() StoreStatus {
	const testKey, testValue = "flashgh_probe", "probe_value"

	if err := keyring.Set(m.service, testKey, testValue); err != nil {
		return StoreStatus{Error: err.Error()}
	}

	got, err := keyring.Get(m.service, testKey)
	if err != nil {
		keyring.Delete(m.service, testKey)
		return StoreStatus{Error: err.Error()}
	}
	if got != testValue {
		keyring.Delete(m.service, testKey)
		return StoreStatus{Error: "credential store corrupted - values don't match"}
	}

	if err := keyring.Delete(m.service, testKey); err != nil {
		return StoreStatus{Available: true, Warning: "credential store works but cleanup failed: " + err.Error()}
	}
	return StoreStatus{Available: true}
}

// Mask shortens a token for display, keeping its prefix.
func Mask(token string) string {
	if token == "" {
		return ""
	}
	keep := 4
	if strings.HasPrefix(token, "github_pat_") {
		keep = len("github_pat_")
	}
	if len(token) <= keep+4 {
		return strings.Repeat("*", len(token))
	}
	return token[:keep] + strings.Repeat("*", 8) + token[len(token)-4:]
}
