package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Load loads configuration from a file path and applies environment
// variable overrides. Validation is deferred so CLI flag overrides can be
// applied first; call Validate() after those.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	if configPath != "" {
		fileConfig, err := loadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = fileConfig
	}

	applyEnvironmentOverrides(cfg)
	return cfg, nil
}

// loadFromFile loads configuration from a JSON file
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigFileNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfigFormat, err)
	}
	return &cfg, nil
}

// applyEnvironmentOverrides applies configuration from environment variables
func applyEnvironmentOverrides(cfg *Config) {
	if v := os.Getenv("NIOS4_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("NIOS4_FILE_URL"); v != "" {
		cfg.FileURL = v
	}
	if v := os.Getenv("NIOS4_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("NIOS4_EMAIL"); v != "" {
		cfg.Email = v
	}
	if v := os.Getenv("NIOS4_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("NIOS4_DB"); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv("NIOS4_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.TimeoutSeconds = secs
		}
	}
	if v := os.Getenv("NIOS4_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}
