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

// nsdevlog-agent/internal/agent/agent.go
// Package agent wires the resolution engine, the file store, the
// collection orchestrator and the leader guard into the running process.

package agent

import (
	"context"
	"os"
	"time"

	"github.com/sanwatch/nsdevlog-agent/internal/config"
	"github.com/sanwatch/nsdevlog-agent/internal/devices"
	"github.com/sanwatch/nsdevlog-agent/internal/leader"
	"github.com/sanwatch/nsdevlog-agent/internal/model"
	"github.com/sanwatch/nsdevlog-agent/internal/orchestrator"
	"github.com/sanwatch/nsdevlog-agent/internal/storage"
	"github.com/sanwatch/nsdevlog-agent/internal/utils"
)

type Agent struct {
	Config       *config.Config
	Engine       *devices.Engine
	Store        *storage.FileStore
	Orchestrator *orchestrator.Orchestrator
	Guard        *leader.Guard
	fetcher      *devices.Fetcher
}

// NewAgent builds the process-wide components. The engine and store are
// the only state shared across concurrent collection tasks; both are
// owned here and injected downward, never ambient globals.
func NewAgent(cfg *config.Config) (*Agent, error) {
	engine, err := devices.NewEngine(cfg.Devices.CacheSize)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewFileStore(cfg.Storage.Dir)
	if err != nil {
		return nil, err
	}

	a := &Agent{
		Config: cfg,
		Engine: engine,
		Store:  store,
		Guard:  leader.New(cfg.Leader.LockPath, cfg.Leader.Staleness, cfg.Leader.Heartbeat),
	}
	a.Orchestrator = orchestrator.New(orchestrator.Options{
		Workers:         cfg.Collection.Workers,
		Contexts:        cfg.Collection.Contexts,
		CommandTemplate: cfg.Collection.CommandTemplate,
		ConnectTimeout:  cfg.Collection.ConnectTimeout,
		SwitchTimeout:   cfg.Collection.SwitchTimeout,
		RunTimeout:      cfg.Collection.RunTimeout,
	}, nil, engine, store)

	if cfg.Devices.Container != "" {
		a.fetcher = &devices.Fetcher{
			Container:     cfg.Devices.Container,
			ContainerPath: cfg.Devices.ContainerPath,
			LocalPath:     cfg.Devices.DatasetPath,
		}
	}

	// A snapshot from a previous run is good enough to start with; a
	// fresh one is fetched before each collection.
	if _, err := os.Stat(cfg.Devices.DatasetPath); err == nil {
		if records, err := devices.LoadDataset(cfg.Devices.DatasetPath); err == nil {
			if err := engine.Refresh(records); err != nil {
				utils.Warn("initial dataset rejected: %v", err)
			}
		} else {
			utils.Warn("initial dataset load failed: %v", err)
		}
	}
	return a, nil
}

// Run drives the scheduled collection loop until ctx ends. Jobs fire
// only while this process holds leadership; followers keep re-checking
// the lock and take over if the leader dies.
func (a *Agent) Run(ctx context.Context) {
	go a.Guard.Start(ctx)

	if a.Config.Devices.Watch {
		go func() {
			if err := devices.WatchDataset(ctx, a.Config.Devices.DatasetPath, a.Engine); err != nil && ctx.Err() == nil {
				utils.Error("dataset watcher stopped: %v", err)
			}
		}()
	}

	utils.Info("agent started on %s: %d switches, collection every %v",
		utils.HostSummary(), len(a.Config.Switches), a.Config.Agent.Interval)

	ticker := time.NewTicker(a.Config.Agent.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			utils.Info("agent shutting down...")
			return
		case <-ticker.C:
			if !a.Guard.IsLeader() {
				utils.Debug("not leader, skipping scheduled collection")
				continue
			}
			a.RunCollection(ctx)
		}
	}
}

// RunCollection executes one full collection cycle: refresh the device
// dataset, read the stored high-watermarks, orchestrate the run.
func (a *Agent) RunCollection(ctx context.Context) model.CollectionRun {
	a.refreshDataset(ctx)

	watermarks, err := a.Store.HighWatermarks(ctx)
	if err != nil {
		utils.Error("high-watermark read failed, forcing full collection: %v", err)
		watermarks = nil
	}

	creds := model.Credentials{
		Username: a.Config.Credentials.Username,
		Password: a.Config.Credentials.Password,
	}
	return a.Orchestrator.Run(ctx, a.Config.Switches, creds, watermarks)
}

// refreshDataset fetches a fresh snapshot (when a source container is
// configured) and rebuilds the index. Failures keep the previous index.
func (a *Agent) refreshDataset(ctx context.Context) {
	if a.fetcher != nil {
		if err := a.fetcher.Fetch(ctx); err != nil {
			utils.Warn("dataset fetch failed, using existing snapshot: %v", err)
		}
	}
	records, err := devices.LoadDataset(a.Config.Devices.DatasetPath)
	if err != nil {
		utils.Warn("dataset load failed, keeping previous index: %v", err)
		return
	}
	if err := a.Engine.Refresh(records); err != nil {
		utils.Warn("dataset refresh failed, keeping previous index: %v", err)
	}
}
