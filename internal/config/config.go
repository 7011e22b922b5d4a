// Package config loads the sq configuration from file, environment and
// defaults, and builds the loggers the rest of the app injects.
package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config is the resolved application configuration.
type Config struct {
	// ServerURL is the base URL of the remote API.
	ServerURL string `mapstructure:"server_url"`

	// DBPath is the local SQLite database location.
	DBPath string `mapstructure:"db_path"`

	// ProbeURL is the endpoint the connectivity monitor polls. Empty
	// means ServerURL + /health.
	ProbeURL string `mapstructure:"probe_url"`

	// ProbeInterval is the connectivity polling period.
	ProbeInterval time.Duration `mapstructure:"probe_interval"`

	// OfflinePath is the marker file that forces offline mode.
	OfflinePath string `mapstructure:"offline_path"`

	// DashboardPort is the sync dashboard listen port.
	DashboardPort int `mapstructure:"dashboard_port"`

	// QuestCount is how many quests `sq today` shows.
	QuestCount int `mapstructure:"quest_count"`

	// QuestPool optionally overrides the built-in quest pool file.
	QuestPool string `mapstructure:"quest_pool"`

	// AnthropicKey enables AI quest generation when set.
	AnthropicKey string `mapstructure:"anthropic_key"`

	// LogFile, when set, sends logs to a rotating file instead of
	// stderr. Used in daemon mode.
	LogFile string `mapstructure:"log_file"`
}

// Dir returns the sq configuration directory, ~/.sidequest.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".sidequest"), nil
}

// Load reads config.yaml from the sq directory, applies SIDEQUEST_*
// environment overrides and fills in defaults. A missing config file is
// not an error; the defaults stand alone.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("SIDEQUEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("db_path", filepath.Join(dir, "sidequest.db"))
	v.SetDefault("probe_url", "")
	v.SetDefault("probe_interval", 15*time.Second)
	v.SetDefault("offline_path", filepath.Join(dir, "offline"))
	v.SetDefault("dashboard_port", 8990)
	v.SetDefault("quest_count", 3)
	v.SetDefault("quest_pool", "")
	v.SetDefault("anthropic_key", "")
	v.SetDefault("log_file", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.ProbeURL == "" {
		cfg.ProbeURL = strings.TrimSuffix(cfg.ServerURL, "/") + "/health"
	}
	if cfg.QuestCount <= 0 {
		cfg.QuestCount = 3
	}

	return &cfg, nil
}

// NewLogger builds a component logger with a bracketed prefix. With a
// log file configured the output rotates via lumberjack; otherwise it
// goes to stderr.
func (c *Config) NewLogger(component string) *log.Logger {
	var out io.Writer = os.Stderr
	if c.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		}
	}
	return log.New(out, "["+component+"] ", log.LstdFlags)
}
