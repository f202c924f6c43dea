// Package config provides configuration management for the devcmd application.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	// General settings
	LogLevel               string `mapstructure:"log_level"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"`

	// Hardware settings
	Hardware struct {
		DefaultFactor int `mapstructure:"default_factor"`
	} `mapstructure:"hardware"`

	// Devices registered at startup, in index order
	Devices []DeviceConfig `mapstructure:"devices"`

	// Interactive console settings
	Console struct {
		Prompt      string `mapstructure:"prompt"`
		HistoryFile string `mapstructure:"history_file"`
	} `mapstructure:"console"`

	// Snapshot settings
	Snapshot struct {
		Format string `mapstructure:"format"`
	} `mapstructure:"snapshot"`
}

// DeviceConfig describes one device bound at startup.
// A nil Factor means the hardware default is used.
type DeviceConfig struct {
	PhysicalID int  `mapstructure:"physical_id"`
	Factor     *int `mapstructure:"factor"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{
		LogLevel:               "info",
		ShutdownTimeoutSeconds: 10,
	}

	// Default hardware settings
	cfg.Hardware.DefaultFactor = 7

	// Default console settings
	cfg.Console.Prompt = "devcmd> "
	cfg.Console.HistoryFile = ""

	// Default snapshot settings
	cfg.Snapshot.Format = "table"

	return cfg
}

// Validate checks the configuration for values the application cannot use.
func (c *Config) Validate() error {
	if c.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("shutdown_timeout_seconds must be positive, got %d", c.ShutdownTimeoutSeconds)
	}

	switch c.Snapshot.Format {
	case "table", "yaml":
	default:
		return fmt.Errorf("snapshot.format must be table or yaml, got %q", c.Snapshot.Format)
	}

	for i, d := range c.Devices {
		if d.PhysicalID < 0 {
			return fmt.Errorf("devices[%d].physical_id must not be negative, got %d", i, d.PhysicalID)
		}
	}

	return nil
}

// Load reads the configuration from a file and environment variables.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Set up Viper
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Override with specific config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// Config file not found, use defaults
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			log.Info().Msg("No configuration file found, using defaults")
		} else {
			// Other errors (like invalid YAML) should be returned
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	// Register every key so environment overrides are seen by Unmarshal
	setDefaults(v, cfg)

	// Bind environment variables, e.g. DEVCMD_SNAPSHOT_FORMAT for snapshot.format
	v.SetEnvPrefix("DEVCMD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("shutdown_timeout_seconds", cfg.ShutdownTimeoutSeconds)
	v.SetDefault("hardware.default_factor", cfg.Hardware.DefaultFactor)
	v.SetDefault("console.prompt", cfg.Console.Prompt)
	v.SetDefault("console.history_file", cfg.Console.HistoryFile)
	v.SetDefault("snapshot.format", cfg.Snapshot.Format)
}

// Print displays the current configuration.
func (c *Config) Print() {
	logger := log.With().Str("component", "config").Logger()
	logger.Info().Msg("devcmd Configuration:")
	logger.Info().Msg("-----------------------------")
	logger.Info().Str("log_level", c.LogLevel).Msg("Log Level")
	logger.Info().Int("shutdown_timeout_seconds", c.ShutdownTimeoutSeconds).Msg("Shutdown Timeout")
	logger.Info().Int("default_factor", c.Hardware.DefaultFactor).Msg("Hardware")

	for i, d := range c.Devices {
		event := logger.Info().
			Int("index", i).
			Int("physical_id", d.PhysicalID)
		if d.Factor != nil {
			event = event.Int("factor", *d.Factor)
		}
		event.Msg("Device")
	}

	logger.Info().
		Str("prompt", c.Console.Prompt).
		Str("history_file", c.Console.HistoryFile).
		Msg("Console")
	logger.Info().Str("format", c.Snapshot.Format).Msg("Snapshot")
	logger.Info().Msg("-----------------------------")
}
