/*
SPDX-License-Identifier: GPL-3.0-or-later

Copyright (C) 2025 The NSDevLog Agent Authors

This file is part of NSDevLog Agent.

NSDevLog Agent is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

NSDevLog Agent is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with NSDevLog Agent. If not, see https://www.gnu.org/licenses/.
*/

// nsdevlog-agent/internal/bootstrap/config.go
// Loads ENV, FLAG, Configs

package bootstrap

import (
	"log"
	"os"
	"path/filepath"

	"github.com/sanwatch/nsdevlog-agent/internal/config"
)

// LoadAgentConfig loads the agent configuration from a file, environment
// variables, and command-line flags, applying overrides in the order
// command-line flags > environment variables > config file.
func LoadAgentConfig(configFlag *string) *config.Config {

	configPath := resolvePath(*configFlag, "NSDEVLOG_AGENT_CONFIG", "./config/config.yaml")
	log.Printf("Loading config file from: %s", configPath)

	if err := config.EnsureDefaultConfig(configPath); err != nil {
		log.Fatalf("Could not create default config: %v", err)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	config.ApplyEnvOverrides(cfg)

	return cfg
}

// resolvePath resolves the config path from the flag value, then the
// environment variable, then the fallback default.
func resolvePath(flagVal, envVar, fallback string) string {
	if flagVal != "" {
		return absPath(flagVal)
	}
	if val := os.Getenv(envVar); val != "" {
		return absPath(val)
	}
	return absPath(fallback)
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		log.Fatalf("Failed to resolve path: %v", err)
	}
	return abs
}
