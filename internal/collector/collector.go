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

// nsdevlog-agent/internal/collector/collector.go

package collector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sanwatch/nsdevlog-agent/internal/devices"
	"github.com/sanwatch/nsdevlog-agent/internal/model"
	"github.com/sanwatch/nsdevlog-agent/internal/nsdevlog"
	"github.com/sanwatch/nsdevlog-agent/internal/utils"
)

// maxLineBytes bounds one log line; anything longer is device garbage.
const maxLineBytes = 1 << 20

// Options controls one switch's collection pass.
type Options struct {
	Mode     model.CollectionMode
	Since    time.Time // incremental cutoff, exclusive; zero for full
	Contexts []int
	// CommandTemplate is the firmware-specific retrieval command with a
	// %d placeholder for the fabric context id. Supplied by config, never
	// hard-coded.
	CommandTemplate string
	SeedYear        int
	Location        *time.Location
}

// Result summarises one switch's collection, valid even on partial
// failure: everything counted was produced before the error.
type Result struct {
	Seen          int // data lines parsed
	Emitted       int // records handed to the sink
	Skipped       int // records at or before the incremental cutoff
	ParseWarnings int
	EmitErrors    int // per-record sink failures, non-fatal
	YearWraps     int
}

// EmitFunc receives enriched records in source order. An error marks
// that one record as unpersisted; collection continues.
type EmitFunc func(model.LogEvent) error

// SwitchCollector streams one switch's device log. Instances share no
// mutable state with each other; the resolution engine they all read is
// internally synchronized.
type SwitchCollector struct {
	sw     model.SwitchInfo
	sess   Session
	engine *devices.Engine
}

func New(sw model.SwitchInfo, sess Session, engine *devices.Engine) *SwitchCollector {
	return &SwitchCollector{sw: sw, sess: sess, engine: engine}
}

// Collect issues the retrieval command per fabric context and pipes the
// output through parse -> year repair -> resolve -> emit, in source
// order. It is a single-use, non-restartable pass. A mid-stream failure
// returns the partial Result alongside the error; records already
// emitted stay valid. Cancellation is observed at each line boundary.
func (c *SwitchCollector) Collect(ctx context.Context, opts Options, emit EmitFunc) (Result, error) {
	var res Result
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.SeedYear == 0 {
		opts.SeedYear = time.Now().In(opts.Location).Year()
	}

	for _, fid := range opts.Contexts {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := c.collectContext(ctx, fid, opts, emit, &res); err != nil {
			return res, fmt.Errorf("context %d: %w", fid, err)
		}
	}

	if res.YearWraps > 1 {
		utils.Warn("%s: %d year boundaries in one collection; stream may span multiple years or be reordered",
			c.sw.Host, res.YearWraps)
	}
	return res, nil
}

func (c *SwitchCollector) collectContext(ctx context.Context, fid int, opts Options, emit EmitFunc, res *Result) error {
	cmd := fmt.Sprintf(opts.CommandTemplate, fid)
	utils.Debug("%s: running %q", c.sw.Host, cmd)

	stream, err := c.sess.Exec(ctx, cmd)
	if err != nil {
		return err
	}
	defer stream.Close()

	years := nsdevlog.NewYearTracker(opts.SeedYear)
	sc := bufio.NewScanner(stream)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	var parsed int
	expected := -1

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Text()

		if n, ok := nsdevlog.ParseSummary(line); ok {
			expected = n
			continue
		}

		entry, perr := nsdevlog.ParseLine(line)
		if perr != nil {
			var mle *nsdevlog.MalformedLineError
			if errors.As(perr, &mle) {
				res.ParseWarnings++
				utils.Warn("%s ctx %d: %v", c.sw.Host, fid, perr)
			}
			continue
		}
		if entry == nil {
			continue
		}

		parsed++
		res.Seen++
		ts := years.Time(entry, opts.Location)

		// Exclusive dedup boundary: ts <= since is already stored.
		if opts.Mode == model.ModeIncremental && !ts.After(opts.Since) {
			res.Skipped++
			continue
		}

		ev := c.enrich(entry, fid, ts)
		if err := emit(ev); err != nil {
			res.EmitErrors++
			utils.Warn("%s ctx %d: record not persisted: %v", c.sw.Host, fid, err)
			continue
		}
		res.Emitted++
	}
	if err := sc.Err(); err != nil {
		// Prefer the cancellation cause over the read error it induced.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}

	res.YearWraps += years.Wraps()

	if expected >= 0 && parsed != expected {
		utils.Warn("⚠️ %s ctx %d: parsed %d entries, switch declared %d", c.sw.Host, fid, parsed, expected)
	} else if expected >= 0 {
		utils.Debug("✅ %s ctx %d: %d/%d entries verified", c.sw.Host, fid, parsed, expected)
	}
	return nil
}

func (c *SwitchCollector) enrich(entry *nsdevlog.Entry, fid int, ts time.Time) model.LogEvent {
	ev := model.LogEvent{
		Timestamp:  ts,
		Site:       c.sw.Site,
		SwitchName: c.sw.Host,
		Context:    fid,
		EventType:  entry.Event,
		PortWWN:    entry.PortWWN,
		NodeWWN:    entry.NodeWWN,
		SlotPort:   entry.SlotPort,
		PortID:     entry.PortID,
		RawLine:    entry.RawLine,
	}
	if wwn := ev.WWN(); wwn != "" {
		r := c.engine.Resolve(wwn, c.sw.Host, entry.SlotPort)
		ev.Alias = r.Alias
		ev.NodeSymbol = r.NodeSymbol
	}
	return ev
}
