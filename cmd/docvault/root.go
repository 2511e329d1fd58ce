// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// newRootCmd creates the root command for the DocVault CLI.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docvault",
		Short: "DocVault - secure document sharing",
		Long: `DocVault is a document-sharing server with durable sessions shared
between its HTTP API and realtime chat transport.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}
