package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"
)

func TestConfigPath(t *testing.T) {
	t.Cleanup(xdg.Reload)

	t.Run("xdg config home", func(t *testing.T) {
		t.Setenv(ConfigPathEnv, "")
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		xdg.Reload()

		want := filepath.Join("/custom/config", "flashgh", "config.yaml")
		if got := ConfigPath(); got != want {
			t.Errorf("Expected path %s, got %s", want, got)
		}
	})

	t.Run("explicit override", func(t *testing.T) {
		t.Setenv(ConfigPathEnv, "/etc/flashgh.yaml")

		if got := ConfigPath(); got != "/etc/flashgh.yaml" {
			t.Errorf("Expected override path, got %s", got)
		}
	})
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv(ConfigPathEnv, filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	def := DefaultConfig()
	if cfg.Sync.Concurrency != def.Sync.Concurrency {
		t.Errorf("Concurrency = %d, want %d", cfg.Sync.Concurrency, def.Sync.Concurrency)
	}
	if cfg.GitHub.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.GitHub.Timeout)
	}
}

func TestConfigSaveLoad(t *testing.T) {
	t.Log("Testing Config Saving and Loading")

	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	original := DefaultConfig()
	original.GitHub.APIURL = "https://github.example.com/api/v3/"
	original.GitHub.Timeout = 90 * time.Second
	original.Sync.Concurrency = 8
	original.Sync.Ignore = []string{"*.log", "dist/"}
	original.Sync.PrivateRepos = true

	if err := original.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %s", err)
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %s", err)
	}

	if loaded.GitHub.APIURL != original.GitHub.APIURL {
		t.Errorf("APIURL mismatch: expected %s, got %s", original.GitHub.APIURL, loaded.GitHub.APIURL)
	}
	if loaded.GitHub.Timeout != original.GitHub.Timeout {
		t.Errorf("Timeout mismatch: expected %v, got %v", original.GitHub.Timeout, loaded.GitHub.Timeout)
	}
	if loaded.Sync.Concurrency != 8 {
		t.Errorf("Concurrency mismatch: expected 8, got %d", loaded.Sync.Concurrency)
	}
	if strings.Join(loaded.Sync.Ignore, ",") != "*.log,dist/" {
		t.Errorf("Ignore mismatch: got %v", loaded.Sync.Ignore)
	}
	if !loaded.Sync.PrivateRepos {
		t.Error("PrivateRepos should survive a round trip")
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := "sync:\n  concurrency: 2\n"
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Sync.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want 2", cfg.Sync.Concurrency)
	}
	if !cfg.Sync.UseGitignore {
		t.Error("UseGitignore should keep its default")
	}
	if cfg.Search.DefaultLimit != 10 {
		t.Errorf("DefaultLimit = %d, want 10", cfg.Search.DefaultLimit)
	}
}

func TestConfigFilePermissions(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	config := DefaultConfig()
	if err := config.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %s", err)
	}

	fileInfo, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Failed to stat config file: %s", err)
	}

	mode := fileInfo.Mode()
	if mode&0077 != 0 {
		t.Errorf("Config file should not be readable by group/others, got mode %o", mode)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Version == "" {
		t.Error("Default config should have a version")
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Sync.Concurrency = 0 },
			wantErr: true,
			errMsg:  "sync.concurrency",
		},
		{
			name:    "concurrency too high",
			mutate:  func(c *Config) { c.Sync.Concurrency = 33 },
			wantErr: true,
			errMsg:  "sync.concurrency",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.GitHub.Timeout = -time.Second },
			wantErr: true,
			errMsg:  "github.timeout",
		},
		{
			name:    "default limit above max",
			mutate:  func(c *Config) { c.Search.DefaultLimit = 50; c.Search.MaxLimit = 20 },
			wantErr: true,
			errMsg:  "search.default_limit",
		},
		{
			name:    "max limit above api cap",
			mutate:  func(c *Config) { c.Search.MaxLimit = 500 },
			wantErr: true,
			errMsg:  "search.max_limit",
		},
		{
			name:    "bad api url",
			mutate:  func(c *Config) { c.GitHub.APIURL = "ftp://example.com" },
			wantErr: true,
			errMsg:  "invalid GitHub URL",
		},
		{
			name:    "upload url without api url",
			mutate:  func(c *Config) { c.GitHub.UploadURL = "https://uploads.example.com/" },
			wantErr: true,
			errMsg:  "requires github.api_url",
		},
		{
			name: "enterprise urls",
			mutate: func(c *Config) {
				c.GitHub.APIURL = "https://ghe.example.com/api/v3/"
				c.GitHub.UploadURL = "https://ghe.example.com/api/uploads/"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GitHub.Token = "ghp_secret"
	cfg.Sync.Ignore = []string{"a"}

	red := cfg.Redacted()
	if red.GitHub.Token == "ghp_secret" {
		t.Error("token should be masked")
	}
	red.Sync.Ignore[0] = "b"
	if cfg.Sync.Ignore[0] != "a" {
		t.Error("Redacted should not share the ignore slice")
	}
	if cfg.GitHub.Token != "ghp_secret" {
		t.Error("Redacted should not modify the receiver")
	}
}

// Error handling tests
func TestConfigErrorHandling(t *testing.T) {
	t.Run("load non-existent file", func(t *testing.T) {
		_, err := LoadFrom("/non/existent/file.yaml")
		if err == nil {
			t.Error("Should error when loading non-existent file")
		}
	})

	t.Run("load invalid YAML", func(t *testing.T) {
		invalidFile := filepath.Join(t.TempDir(), "invalid.yaml")
		os.WriteFile(invalidFile, []byte("invalid: yaml: content: ["), 0644)

		_, err := LoadFrom(invalidFile)
		if err == nil {
			t.Error("Should error when loading invalid YAML")
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "unknown.yaml")
		os.WriteFile(file, []byte("storage_dir: /tmp\n"), 0644)

		_, err := LoadFrom(file)
		if err == nil {
			t.Error("Should error on unknown fields")
		}
	})

	t.Run("empty file uses defaults", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "empty.yaml")
		os.WriteFile(file, nil, 0644)

		cfg, err := LoadFrom(file)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Sync.Concurrency != 4 {
			t.Errorf("Concurrency = %d, want 4", cfg.Sync.Concurrency)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "bad.yaml")
		os.WriteFile(file, []byte("sync:\n  concurrency: 100\n"), 0644)

		_, err := LoadFrom(file)
		if err == nil {
			t.Error("Should error when values are out of range")
		}
	})
}
