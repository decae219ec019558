package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"flashgh/internal/logging"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const APP_NAME = "flashgh" // application name used for config directory

// ConfigPathEnv overrides the config file location.
const ConfigPathEnv = "FLASHGH_CONFIG"

const (
	minConcurrency = 1
	maxConcurrency = 32
	maxSearchLimit = 100
)

// Config holds user configuration for flashgh. It is loaded once at startup and
// passed by pointer; nothing mutates it afterwards.
type Config struct {
	Version string       `yaml:"version"` // Track config version
	GitHub  GitHubConfig `yaml:"github"`
	Sync    SyncConfig   `yaml:"sync"`
	Search  SearchConfig `yaml:"search"`
}

// GitHubConfig configures the API client.
type GitHubConfig struct {
	// APIURL is the REST base for GitHub Enterprise, e.g.
	// https://github.example.com/api/v3/. Empty means github.com.
	APIURL    string `yaml:"api_url,omitempty"`
	UploadURL string `yaml:"upload_url,omitempty"`

	// Token is read when neither environment variable is set. Prefer the OS
	// keyring (flashgh auth set) over storing it here.
	Token string `yaml:"token,omitempty"`

	Timeout time.Duration `yaml:"timeout"`
}

// SyncConfig configures pull, push and compare.
type SyncConfig struct {
	// Concurrency bounds parallel downloads during pull.
	Concurrency int `yaml:"concurrency"`

	// UseGitignore applies the local directory's .gitignore to both sides.
	UseGitignore bool `yaml:"use_gitignore"`

	// Ignore holds extra gitignore-syntax patterns.
	Ignore []string `yaml:"ignore,omitempty"`

	// SeedReadme adds README.md to repositories created by push when the local
	// tree has none.
	SeedReadme bool `yaml:"seed_readme"`

	// PrivateRepos makes repositories created by push private.
	PrivateRepos bool `yaml:"private_repos"`
}

// SearchConfig configures search_repositories.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Version: "1.0",
		GitHub: GitHubConfig{
			Timeout: 30 * time.Second,
		},
		Sync: SyncConfig{
			Concurrency:  4,
			UseGitignore: true,
			SeedReadme:   true,
		},
		Search: SearchConfig{
			DefaultLimit: 10,
			MaxLimit:     maxSearchLimit,
		},
	}
}

// ConfigPath returns the config file path for the current platform, honouring
// FLASHGH_CONFIG.
func ConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(ConfigPathEnv)); p != "" {
		return p
	}
	return filepath.Join(xdg.ConfigHome, APP_NAME, "config.yaml")
}

// Load loads the config from the standard location. A missing file is not an
// error: the defaults are returned.
func Load() (*Config, error) {
	configPath := ConfigPath()
	logging.Debug("Loading config from", "path", configPath)

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		logging.Debug("No config file, using defaults", "path", configPath)
		cfg := DefaultConfig()
		return &cfg, nil
	}
	return LoadFrom(configPath)
}

// LoadFrom loads config from a specific path. Fields absent from the file keep
// their default values.
func LoadFrom(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks value ranges and URL formats.
func (c *Config) Validate() error {
	if c.Sync.Concurrency < minConcurrency || c.Sync.Concurrency > maxConcurrency {
		return fmt.Errorf("sync.concurrency must be between %d and %d, got %d",
			minConcurrency, maxConcurrency, c.Sync.Concurrency)
	}
	if c.GitHub.Timeout < 0 {
		return fmt.Errorf("github.timeout cannot be negative")
	}
	if c.Search.MaxLimit < 1 || c.Search.MaxLimit > maxSearchLimit {
		return fmt.Errorf("search.max_limit must be between 1 and %d, got %d", maxSearchLimit, c.Search.MaxLimit)
	}
	if c.Search.DefaultLimit < 1 || c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit must be between 1 and %d, got %d",
			c.Search.MaxLimit, c.Search.DefaultLimit)
	}
	for _, raw := range []string{c.GitHub.APIURL, c.GitHub.UploadURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid GitHub URL %q", raw)
		}
	}
	if c.GitHub.UploadURL != "" && c.GitHub.APIURL == "" {
		return fmt.Errorf("github.upload_url requires github.api_url")
	}
	return nil
}

// Save writes the config to the standard location
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the config to a specific path
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create file with restrictive permissions (600) since it may hold a token
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	defer enc.Close()

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.GitHub.Token != "" {
		c.GitHub.Token = "********"
	}
	c.Sync.Ignore = append([]string(nil), c.Sync.Ignore...)
	return c
}
