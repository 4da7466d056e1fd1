// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/TheQuangNguyen/DevConnector-Project/internal/config"
)

// Global flags available to all subcommands.
var (
	configFile string
	envFile    string
)

// NewRootCmd creates the root command for the DevConnector CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devconnector",
		Short: "DevConnector - developer network API",
		Long: `DevConnector serves user registration, login and session lookup
for the DevConnector web client.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/devconnector/config.yaml)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file loaded before reading the environment (default: .env)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// loadOptions returns the config sources selected on the command line.
func loadOptions(cmd *cobra.Command) config.Options {
	return config.Options{
		File:    configFile,
		EnvFile: envFile,
		Flags:   cmd.Flags(),
	}
}
