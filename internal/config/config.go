// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

// Package config loads DocVault's runtime configuration from an optional
// YAML file with command-line flag overrides.
package config

import (
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config holds all runtime settings.
type Config struct {
	HTTPAddr     string `koanf:"http_addr"`
	RealtimeAddr string `koanf:"realtime_addr"`
	MetricsAddr  string `koanf:"metrics_addr"`
	BaseURL      string `koanf:"base_url"`
	DatabaseURL  string `koanf:"database_url"`
	NATSURL      string `koanf:"nats_url"`

	// StorageDir is where uploaded document files live. Empty means the
	// documents directory under the XDG data dir.
	StorageDir string `koanf:"storage_dir"`

	SessionTTL    time.Duration `koanf:"session_ttl"`
	SessionExpiry string        `koanf:"session_expiry"`
	SweepInterval time.Duration `koanf:"sweep_interval"`

	LockoutThreshold int           `koanf:"lockout_threshold"`
	LockoutDuration  time.Duration `koanf:"lockout_duration"`

	SMTP SMTPConfig `koanf:"smtp"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
}

// SMTPConfig configures the password-reset mailer. An empty Host disables
// outbound mail; reset links are then only logged.
type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	From     string `koanf:"from"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// Default returns the baseline configuration before file and flag overrides.
func Default() Config {
	return Config{
		HTTPAddr:         ":8080",
		RealtimeAddr:     ":4040",
		MetricsAddr:      ":9090",
		BaseURL:          "http://localhost:8080",
		NATSURL:          "nats://127.0.0.1:4222",
		SessionTTL:       24 * time.Hour,
		SessionExpiry:    "sliding",
		SweepInterval:    5 * time.Minute,
		LockoutThreshold: 5,
		LockoutDuration:  15 * time.Minute,
		SMTP: SMTPConfig{
			Port: 587,
			From: "no-reply@docvault.local",
		},
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load builds a Config from defaults, then the YAML file at path (if any),
// then flag overrides. Flags win over the file, the file wins over defaults.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that cannot be defaulted into a safe value.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database_url is required")
	}
	if c.SessionExpiry != "sliding" && c.SessionExpiry != "absolute" {
		return oops.Code("CONFIG_INVALID").
			With("session_expiry", c.SessionExpiry).
			Errorf("session_expiry must be %q or %q", "sliding", "absolute")
	}
	if c.SessionTTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("session_ttl must be positive")
	}
	if c.LockoutThreshold < 1 {
		return oops.Code("CONFIG_INVALID").Errorf("lockout_threshold must be at least 1")
	}
	if c.LockoutDuration <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("lockout_duration must be positive")
	}
	return nil
}
