// Copyright (c) 2025 tgram-dev

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultMode         = "polling"
	defaultPollTimeout  = 30 * time.Second
	defaultPollLimit    = 100
	defaultWebhookAddr  = ":8443"
	defaultWebhookPath  = "/updates"
	defaultLogLevel     = "info"
	defaultLogMaxSize   = 100 // MB
	defaultLogBackups   = 5
	defaultLogMaxAge    = 30 // days
)

// Config is the YAML configuration of the runner. ${VAR} references are
// expanded from the environment before parsing, so tokens and secrets stay
// out of the file itself.
type Config struct {
	Token     string `yaml:"token"`
	APIURL    string `yaml:"api_url"`
	ParseMode string `yaml:"parse_mode"`
	Mode      string `yaml:"mode"` // polling or webhook

	Polling  PollingConfig  `yaml:"polling"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Sessions SessionsConfig `yaml:"sessions"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type PollingConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	Limit          int           `yaml:"limit"`
	Concurrent     bool          `yaml:"concurrent"`
	MaxConcurrency int           `yaml:"max_concurrency"`
}

type WebhookConfig struct {
	Addr        string `yaml:"addr"`
	Path        string `yaml:"path"`
	URL         string `yaml:"url"`
	SecretToken string `yaml:"secret_token"`
	DropPending bool   `yaml:"drop_pending"`
}

type SessionsConfig struct {
	// File-backed session store path. Empty keeps sessions in memory only.
	File string `yaml:"file"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// LoadConfig reads, env-expands, parses and validates a config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded, err := expandEnv(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to expand environment variables: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// expandEnv replaces ${VAR_NAME} patterns with environment variable values
func expandEnv(input string) (string, error) {
	var missing []string

	out := os.Expand(input, func(key string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		missing = append(missing, key)
		return ""
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("missing required environment variables: %s",
			strings.Join(missing, ", "))
	}
	return out, nil
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = defaultMode
	}
	if c.Polling.Timeout <= 0 {
		c.Polling.Timeout = defaultPollTimeout
	}
	if c.Polling.Limit <= 0 {
		c.Polling.Limit = defaultPollLimit
	}
	if c.Webhook.Addr == "" {
		c.Webhook.Addr = defaultWebhookAddr
	}
	if c.Webhook.Path == "" {
		c.Webhook.Path = defaultWebhookPath
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSize <= 0 {
		c.Logging.MaxSize = defaultLogMaxSize
	}
	if c.Logging.MaxBackups <= 0 {
		c.Logging.MaxBackups = defaultLogBackups
	}
	if c.Logging.MaxAge <= 0 {
		c.Logging.MaxAge = defaultLogMaxAge
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return fmt.Errorf("token is required")
	}
	switch c.Mode {
	case "polling":
	case "webhook":
		if c.Webhook.URL == "" {
			return fmt.Errorf("webhook.url is required in webhook mode")
		}
	default:
		return fmt.Errorf("mode must be polling or webhook, got %q", c.Mode)
	}
	return nil
}
