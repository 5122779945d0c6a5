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

// nsdevlog-agent/cmd/main.go
// Agent entrypoint: collects name-server device logs from the Fibre
// Channel switch fleet and resolves the devices they mention.

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/sanwatch/nsdevlog-agent/internal/agent"
	"github.com/sanwatch/nsdevlog-agent/internal/bootstrap"
	"github.com/sanwatch/nsdevlog-agent/internal/config"
	"github.com/sanwatch/nsdevlog-agent/internal/model"
	"github.com/sanwatch/nsdevlog-agent/internal/utils"
)

func main() {
	configFlag := flag.String("config", "", "Path to agent config file")
	once := flag.Bool("once", false, "Run a single collection cycle and exit (bypasses leader election)")
	interval := flag.Duration("interval", 0, "Override collection interval (e.g. 30m)")
	workers := flag.Int("workers", 0, "Override collection worker count")
	switches := flag.String("switches", "", "Comma-separated site:host:generation list, overrides inventory")
	flag.Parse()

	cfg := bootstrap.LoadAgentConfig(configFlag)

	// CLI flag overrides (highest priority)
	if *interval != 0 {
		cfg.Agent.Interval = *interval
	}
	if *workers > 0 {
		cfg.Collection.Workers = *workers
	}
	if *switches != "" {
		parsed, err := config.ParseSwitchList(config.SplitCSV(*switches))
		if err != nil {
			utils.Fatal("invalid -switches: %v", err)
		}
		cfg.Switches = parsed
	}

	bootstrap.SetupLogging(cfg)

	a, err := agent.NewAgent(cfg)
	if err != nil {
		utils.Fatal("agent init failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		run := a.RunCollection(ctx)
		utils.Info("one-shot collection %s finished: %s", run.ID, run.Status)
		if run.Status == model.RunFailed {
			os.Exit(1)
		}
		return
	}

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		utils.Warn("systemd notify failed: %v", err)
	} else if sent {
		utils.Debug("systemd readiness notified")
	}

	a.Run(ctx)

	// Give the guard a moment to release the lock cleanly.
	time.Sleep(100 * time.Millisecond)
}
