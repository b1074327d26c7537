// Package config loads doctrack configuration.
//
// Settings come from, in increasing precedence: built-in defaults, the
// config file (doctrack.yaml in the working directory or ~/.doctrack),
// and DOCTRACK_* environment variables (DOCTRACK_REMOTE_BASE_URL, ...).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Remote    RemoteConfig    `mapstructure:"remote"`
	Verify    VerifyConfig    `mapstructure:"verify"`
	Checklist ChecklistConfig `mapstructure:"checklist"`
	Staging   StagingConfig   `mapstructure:"staging"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Journal   JournalConfig   `mapstructure:"journal"`
	Log       LogConfig       `mapstructure:"log"`
}

// RemoteConfig locates the remote file store.
type RemoteConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// VerifyConfig tunes batched verification.
type VerifyConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	BatchDelay    time.Duration `mapstructure:"batch_delay"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	FallbackGroup string        `mapstructure:"fallback_group"`
}

// ChecklistConfig locates the per-year checklist manifests.
type ChecklistConfig struct {
	Dir string `mapstructure:"dir"`
}

// StagingConfig configures the staging-directory uploader.
type StagingConfig struct {
	Dir      string        `mapstructure:"dir"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// DashboardConfig configures the WebSocket bridge.
type DashboardConfig struct {
	Port int `mapstructure:"port"`
}

// JournalConfig locates the change-event journal database.
type JournalConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig configures optional rotating file logging.
type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// Load reads configuration. path, if non-empty, names an explicit config
// file; otherwise doctrack.yaml is searched in the working directory and
// ~/.doctrack. A missing config file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("remote.base_url", "http://localhost:9090")
	v.SetDefault("remote.timeout", 30*time.Second)
	v.SetDefault("verify.batch_size", 10)
	v.SetDefault("verify.batch_delay", 100*time.Millisecond)
	v.SetDefault("verify.poll_interval", 5*time.Minute)
	v.SetDefault("verify.fallback_group", "unassigned")
	v.SetDefault("checklist.dir", "checklists")
	v.SetDefault("staging.dir", "staging")
	v.SetDefault("staging.debounce", 500*time.Millisecond)
	v.SetDefault("dashboard.port", 8080)
	v.SetDefault("journal.path", ".doctrack/journal.db")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)

	v.SetEnvPrefix("DOCTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("doctrack")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.doctrack")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Remote.BaseURL == "" {
		return nil, fmt.Errorf("remote.base_url cannot be empty")
	}
	if cfg.Verify.BatchSize <= 0 {
		return nil, fmt.Errorf("verify.batch_size must be positive (got %d)", cfg.Verify.BatchSize)
	}

	return &cfg, nil
}
