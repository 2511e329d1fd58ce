// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/pkg/errutil"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docvault.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultsWithDatabaseURL(t *testing.T) {
	path := writeConfigFile(t, "database_url: postgres://localhost:5432/docvault\n")

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":4040", cfg.RealtimeAddr)
	assert.Equal(t, "sliding", cfg.SessionExpiry)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 5, cfg.LockoutThreshold)
	assert.Equal(t, 15*time.Minute, cfg.LockoutDuration)
	assert.Equal(t, 587, cfg.SMTP.Port)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
database_url: postgres://localhost:5432/docvault
http_addr: ":9999"
session_ttl: 1h
session_expiry: absolute
lockout_threshold: 3
smtp:
  host: mail.example.com
  port: 25
`)

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, "absolute", cfg.SessionExpiry)
	assert.Equal(t, 3, cfg.LockoutThreshold)
	assert.Equal(t, "mail.example.com", cfg.SMTP.Host)
	assert.Equal(t, 25, cfg.SMTP.Port)
	// Untouched keys keep their defaults.
	assert.Equal(t, ":4040", cfg.RealtimeAddr)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := writeConfigFile(t, `
database_url: postgres://localhost:5432/docvault
http_addr: ":9999"
`)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("http_addr", "", "")
	require.NoError(t, flags.Parse([]string{"--http_addr", ":7777"}))

	cfg, err := config.Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.HTTPAddr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load("/nonexistent/docvault.yaml", nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_FILE_FAILED")
}

func TestValidate(t *testing.T) {
	valid := config.Default()
	valid.DatabaseURL = "postgres://localhost:5432/docvault"

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"missing database url", func(c *config.Config) { c.DatabaseURL = "" }},
		{"bad expiry policy", func(c *config.Config) { c.SessionExpiry = "eventually" }},
		{"zero session ttl", func(c *config.Config) { c.SessionTTL = 0 }},
		{"zero lockout threshold", func(c *config.Config) { c.LockoutThreshold = 0 }},
		{"negative lockout duration", func(c *config.Config) { c.LockoutDuration = -time.Minute }},
	}

	require.NoError(t, valid.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
		})
	}
}
