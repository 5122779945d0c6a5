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

// nsdevlog-agent/internal/orchestrator/orchestrator.go
// Package orchestrator fans one collection cycle out across the switch
// inventory with bounded concurrency, isolates per-switch failures, and
// aggregates the run summary.

package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sanwatch/nsdevlog-agent/internal/collector"
	"github.com/sanwatch/nsdevlog-agent/internal/devices"
	"github.com/sanwatch/nsdevlog-agent/internal/model"
	"github.com/sanwatch/nsdevlog-agent/internal/storage"
	"github.com/sanwatch/nsdevlog-agent/internal/utils"
)

// Options is the orchestrator's fixed configuration. Workers is a
// configured constant, never derived at runtime.
type Options struct {
	Workers         int
	Contexts        []int
	CommandTemplate string
	ConnectTimeout  time.Duration
	SwitchTimeout   time.Duration
	RunTimeout      time.Duration
	Location        *time.Location
}

// Orchestrator runs collection cycles. The dialer indirection lets
// tests exercise the pool without a network.
type Orchestrator struct {
	opts   Options
	dial   collector.Dialer
	engine *devices.Engine
	store  storage.Store
}

func New(opts Options, dial collector.Dialer, engine *devices.Engine, store storage.Store) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if dial == nil {
		dial = collector.DialSSH
	}
	return &Orchestrator{opts: opts, dial: dial, engine: engine, store: store}
}

// Run executes one collection cycle over the inventory and always
// returns a complete per-switch breakdown, even under partial failure.
// Mode is decided globally: any existing watermark makes the run
// incremental, with the per-switch watermark as each cutoff. No task
// survives Run returning.
func (o *Orchestrator) Run(ctx context.Context, switches []model.SwitchInfo,
	creds model.Credentials, watermarks map[string]time.Time) model.CollectionRun {

	run := model.CollectionRun{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Mode:      model.ModeFull,
		Switches:  make([]model.SwitchOutcome, len(switches)),
	}
	if len(watermarks) > 0 {
		run.Mode = model.ModeIncremental
	}
	utils.Info("collection run %s started: %d switches, mode=%s, workers=%d",
		run.ID, len(switches), run.Mode, o.opts.Workers)

	runCtx, cancel := context.WithTimeout(ctx, o.opts.RunTimeout)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(o.opts.Workers)
	for i, sw := range switches {
		i, sw := i, sw
		g.Go(func() error {
			run.Switches[i] = o.collectOne(runCtx, sw, creds, run, watermarks[sw.Host])
			return nil
		})
	}
	g.Wait() // tasks never return errors; outcomes carry the failures

	run.Finalize(time.Now())
	utils.Info("collection run %s %s: %d seen, %d new", run.ID, run.Status, run.TotalSeen, run.TotalNew)

	if err := o.store.SaveRun(ctx, run); err != nil {
		utils.Error("run %s: summary not persisted: %v", run.ID, err)
	}
	return run
}

// collectOne owns one switch's task: connection, streaming collection,
// outcome classification. Its failures never leave the outcome record.
func (o *Orchestrator) collectOne(ctx context.Context, sw model.SwitchInfo,
	creds model.Credentials, run model.CollectionRun, since time.Time) model.SwitchOutcome {

	out := model.SwitchOutcome{SwitchName: sw.Host}

	swCtx, cancel := context.WithTimeout(ctx, o.opts.SwitchTimeout)
	defer cancel()

	sess, err := o.dial(swCtx, sw.Host, creds, o.opts.ConnectTimeout)
	if err != nil {
		out.Error = err.Error()
		utils.Error("✗ %s: %v", sw.Host, err)
		return out
	}
	// The deferred close abandons the connection when the timeout
	// fires; the task is never awaited past its deadline.
	defer sess.Close()

	opts := collector.Options{
		Mode:            run.Mode,
		Since:           since,
		Contexts:        o.opts.Contexts,
		CommandTemplate: o.opts.CommandTemplate,
		Location:        o.opts.Location,
	}
	if run.Mode == model.ModeIncremental && !since.IsZero() {
		opts.SeedYear = since.In(o.opts.Location).Year()
	}

	emit := func(ev model.LogEvent) error {
		ev.CollectionID = run.ID
		return o.store.AppendEvent(ctx, ev)
	}

	res, err := collector.New(sw, sess, o.engine).Collect(swCtx, opts, emit)
	out.EntriesSeen = res.Seen
	out.EntriesNew = res.Emitted
	if err != nil {
		out.Error = taskError(swCtx, err)
		utils.Error("✗ %s: partial collection (%d emitted): %s", sw.Host, res.Emitted, out.Error)
		return out
	}

	out.Success = true
	utils.Info("✓ %s: %d entries seen, %d new", sw.Host, res.Seen, res.Emitted)
	return out
}

func taskError(ctx context.Context, err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "task timeout: " + err.Error()
	}
	return err.Error()
}
