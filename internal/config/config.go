package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	DatabaseURL string `yaml:"database_url"`
	JWKSURL     string `yaml:"jwks_url"`
	CORSOrigins string `yaml:"cors_origins"`
	TablePrefix string `yaml:"table_prefix"`
	// Sync tuning
	AutosaveWindow    time.Duration `yaml:"autosave_window"`
	KeepAliveInterval time.Duration `yaml:"keepalive_interval"`
	// Logging
	LogDir      string `yaml:"log_dir"`
	LogMaxFiles int    `yaml:"log_max_files"`
	// Debug flags
	Debug bool `yaml:"debug"`
}

// Load builds the configuration: an optional YAML file (FRAMELINE_CONFIG,
// default config.yaml if present) provides the base, environment variables
// override it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              "8080",
		Environment:       "dev",
		CORSOrigins:       "http://localhost:3000",
		AutosaveWindow:    time.Second,
		KeepAliveInterval: 10 * time.Second,
		LogDir:            "logs",
		LogMaxFiles:       10,
	}

	path := getEnv("FRAMELINE_CONFIG", "config.yaml")
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.JWKSURL = getEnv("JWKS_URL", cfg.JWKSURL)
	cfg.CORSOrigins = getEnv("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.TablePrefix = getTablePrefix(cfg.Environment, cfg.TablePrefix)
	cfg.LogDir = getEnv("LOG_DIR", cfg.LogDir)
	cfg.Debug = getEnv("DEBUG", getDefaultDebug(cfg.Environment)) == "true"

	if v := os.Getenv("AUTOSAVE_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("AUTOSAVE_WINDOW: %w", err)
		}
		cfg.AutosaveWindow = d
	}

	return cfg, nil
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env, fromFile string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}
	if fromFile != "" {
		return fromFile
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
