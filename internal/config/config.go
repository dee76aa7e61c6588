package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Download ledger and FSM state
	SQLitePath string `mapstructure:"sqlite-path"`
	FSMDBPath  string `mapstructure:"fsm-db-path"`

	// Copy destination
	OutputDir string `mapstructure:"output-dir"`

	// S3 archive (disabled when bucket is empty)
	ArchiveBucket string `mapstructure:"archive-bucket"`
	ArchiveRegion string `mapstructure:"archive-region"`
	ArchivePrefix string `mapstructure:"archive-prefix"`

	// Copy limits, zero disables
	MaxFileSize  int64 `mapstructure:"max-file-size"`
	MaxTotalSize int64 `mapstructure:"max-total-size"`

	// FSM configuration
	FSMMaxRetries int `mapstructure:"fsm-max-retries"`

	// node_exporter textfile written after copy runs, empty to disable
	MetricsFile string `mapstructure:"metrics-file"`

	// Fixture file for the simulated SDK, empty for the vendor library
	Simulate string `mapstructure:"simulate"`
}

// Load reads configuration from environment, config file, and defaults
func Load() (*Config, error) {
	viper.SetDefault("sqlite-path", ".eoscam/ledger.db")
	viper.SetDefault("fsm-db-path", ".eoscam/fsm")
	viper.SetDefault("output-dir", ".")
	viper.SetDefault("archive-bucket", "")
	viper.SetDefault("archive-region", "us-east-1")
	viper.SetDefault("archive-prefix", "")
	viper.SetDefault("max-file-size", 8*1024*1024*1024)
	viper.SetDefault("max-total-size", 0)
	viper.SetDefault("fsm-max-retries", 3)
	viper.SetDefault("metrics-file", "")
	viper.SetDefault("simulate", "")

	// Environment variables (EOSCAM_OUTPUT_DIR, etc.)
	viper.SetEnvPrefix("EOSCAM")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// Config file (optional)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.eoscam")

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	if c.SQLitePath == "" {
		return fmt.Errorf("sqlite-path cannot be empty")
	}
	if c.FSMDBPath == "" {
		return fmt.Errorf("fsm-db-path cannot be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output-dir cannot be empty")
	}
	if c.ArchiveBucket != "" && c.ArchiveRegion == "" {
		return fmt.Errorf("archive-region cannot be empty when archive-bucket is set")
	}
	if c.MaxFileSize < 0 {
		return fmt.Errorf("max-file-size must be non-negative")
	}
	if c.MaxTotalSize < 0 {
		return fmt.Errorf("max-total-size must be non-negative")
	}
	if c.FSMMaxRetries < 1 {
		return fmt.Errorf("fsm-max-retries must be at least 1")
	}
	return nil
}

// ArchiveEnabled reports whether copied files are uploaded to S3
func (c *Config) ArchiveEnabled() bool {
	return c.ArchiveBucket != ""
}
