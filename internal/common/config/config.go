package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string `yaml:"port"`
	Environment  string `yaml:"env"`
	ReadTimeout  int    `yaml:"read_timeout"`
	WriteTimeout int    `yaml:"write_timeout"`
	LogLevel     string `yaml:"log_level"`

	DBPath       string `yaml:"db_path"`
	AuthURL      string `yaml:"auth_url"`
	EditorURL    string `yaml:"editor_url"`
	HistoryLimit int    `yaml:"history_limit"`
	SessionTTL   int    `yaml:"session_ttl_minutes"`
	IdleTimeout  int    `yaml:"workspace_idle_minutes"`

	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Port:         "3000",
		Environment:  "development",
		ReadTimeout:  10,
		WriteTimeout: 10,
		LogLevel:     "info",
		DBPath:       "data/db/editor.db",
		AuthURL:      "http://localhost:3002",
		EditorURL:    "http://localhost:3001",
		HistoryLimit: 50,
		SessionTTL:   24 * 60,
		IdleTimeout:  60,
	}
}

// Load builds the config from defaults, then the YAML file named by
// CONFIG_FILE if set, then environment variables.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.Environment = getEnv("ENV", c.Environment)
	c.ReadTimeout = getEnvAsInt("READ_TIMEOUT", c.ReadTimeout)
	c.WriteTimeout = getEnvAsInt("WRITE_TIMEOUT", c.WriteTimeout)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.AuthURL = getEnv("AUTH_URL", c.AuthURL)
	c.EditorURL = getEnv("EDITOR_URL", c.EditorURL)
	c.HistoryLimit = getEnvAsInt("HISTORY_LIMIT", c.HistoryLimit)
	c.SessionTTL = getEnvAsInt("SESSION_TTL_MINUTES", c.SessionTTL)
	c.IdleTimeout = getEnvAsInt("WORKSPACE_IDLE_MINUTES", c.IdleTimeout)
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = strings.Split(v, ",")
	}
}

func (c *Config) ReadTimeoutDuration() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Second
}

func (c *Config) WriteTimeoutDuration() time.Duration {
	return time.Duration(c.WriteTimeout) * time.Second
}

func (c *Config) SessionTTLDuration() time.Duration {
	return time.Duration(c.SessionTTL) * time.Minute
}

func (c *Config) IdleTimeoutDuration() time.Duration {
	return time.Duration(c.IdleTimeout) * time.Minute
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}
