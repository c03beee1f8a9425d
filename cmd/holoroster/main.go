// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/holoroster/pkg/logging"
	"github.com/AleutianAI/holoroster/pkg/ux"
)

// Config is the CLI configuration, loaded from config.yaml when one
// exists next to the binary.
type Config struct {
	// ServerURL is the base URL of the ledger service.
	ServerURL string `yaml:"server_url"`

	// LogLevel is the minimum log level (debug/info/warn/error).
	LogLevel string `yaml:"log_level"`

	// LogDir enables file logging when set.
	LogDir string `yaml:"log_dir"`
}

var (
	config Config
	logger *logging.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Close()
		}
		os.Exit(1)
	}
	if logger != nil {
		logger.Close()
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		config = Config{
			ServerURL: "http://localhost:12220",
			LogLevel:  "info",
		}

		configPath := "config.yaml"
		if raw, err := os.ReadFile(configPath); err == nil {
			if err := yaml.Unmarshal(raw, &config); err != nil {
				log.Fatalf("Error parsing config.yaml: %v", err)
			}
		}

		// Flags beat the config file.
		if serverFlag != "" {
			config.ServerURL = serverFlag
		}

		logger = logging.New(logging.Config{
			Level:   logging.ParseLevel(config.LogLevel),
			LogDir:  config.LogDir,
			Service: "holoroster",
		})

		if plainOutput || !ux.InteractiveStdout() {
			ux.SetMachineMode(true)
		}
	}
}
