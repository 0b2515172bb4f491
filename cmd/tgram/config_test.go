// Copyright (c) 2025 tgram-dev

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tgram.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "token: 42:test\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "polling", cfg.Mode)
	assert.Equal(t, 30*time.Second, cfg.Polling.Timeout)
	assert.Equal(t, 100, cfg.Polling.Limit)
	assert.Equal(t, ":8443", cfg.Webhook.Addr)
	assert.Equal(t, "/updates", cfg.Webhook.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 100, cfg.Logging.MaxSize)
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	t.Setenv("TGRAM_TEST_TOKEN", "42:secret")
	path := writeConfig(t, "token: ${TGRAM_TEST_TOKEN}\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "42:secret", cfg.Token)
}

func TestLoadConfigMissingEnvFails(t *testing.T) {
	path := writeConfig(t, "token: ${TGRAM_DEFINITELY_UNSET_VAR}\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TGRAM_DEFINITELY_UNSET_VAR")
}

func TestLoadConfigRequiresToken(t *testing.T) {
	path := writeConfig(t, "mode: polling\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token is required")
}

func TestLoadConfigWebhookNeedsURL(t *testing.T) {
	path := writeConfig(t, "token: 42:test\nmode: webhook\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook.url")
}

func TestLoadConfigRejectsUnknownMode(t *testing.T) {
	path := writeConfig(t, "token: 42:test\nmode: carrier-pigeon\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfigFullDocument(t *testing.T) {
	path := writeConfig(t, `
token: 42:test
parse_mode: HTML
mode: webhook
webhook:
  addr: ":9000"
  path: /hook
  url: https://bot.example.com/hook
  secret_token: s3cret
  drop_pending: true
polling:
  timeout: 45s
  limit: 50
sessions:
  file: /var/lib/tgram/sessions.json
logging:
  level: debug
  file: /var/log/tgram/bot.log
  max_size: 10
  compress: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "webhook", cfg.Mode)
	assert.Equal(t, ":9000", cfg.Webhook.Addr)
	assert.Equal(t, "/hook", cfg.Webhook.Path)
	assert.True(t, cfg.Webhook.DropPending)
	assert.Equal(t, 45*time.Second, cfg.Polling.Timeout)
	assert.Equal(t, 50, cfg.Polling.Limit)
	assert.Equal(t, "/var/lib/tgram/sessions.json", cfg.Sessions.File)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.Logging.MaxSize)
}
