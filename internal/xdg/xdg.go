// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

// Package xdg provides XDG Base Directory paths for DocVault.
package xdg

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "docvault"

// ConfigDir returns the XDG config directory for docvault.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// DataDir returns the XDG data directory for docvault.
// Checks XDG_DATA_HOME first, falls back to ~/.local/share.
func DataDir() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".local", "share")
	}
	return filepath.Join(base, appName)
}

// DefaultConfigFile returns the path of config.yaml in the XDG config
// directory, or "" if no such file exists.
func DefaultConfigFile() string {
	path := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// EnsureDir creates a directory and all parents with 0700 permissions.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return oops.Code("DIR_CREATE_FAILED").
			With("path", path).
			Wrapf(err, "creating directory")
	}
	return nil
}
