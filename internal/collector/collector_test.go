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

// nsdevlog-agent/internal/collector/collector_test.go

package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanwatch/nsdevlog-agent/internal/devices"
	"github.com/sanwatch/nsdevlog-agent/internal/model"
)

const sampleLog = `nsdevlog --show
=================================================================
  Date/Time                Slot/Port  PID       Port WWN                 Node WWN                 Event
=================================================================
Mon Dec 30 10:00:00.100  2/14  0x610500  10:00:00:05:1e:35:5a:00  20:00:00:05:1e:35:5a:00  Device Add
Tue Dec 31 11:30:00.200  2/14  0x610500  10:00:00:05:1e:35:5a:00  20:00:00:05:1e:35:5a:00  Device Remove
Thu Jan 02 08:15:00.300  NA  NA  NA  20:00:00:11:0d:27:a1:9f  Device Add
Sun Jan 05 23:59:59.999  0/3  0x010300  20:00:00:11:0d:27:a1:9f  20:00:00:11:0d:27:a1:9f  Device Add
Total number of Entries displayed = 4
SANSW01:FID128:admin>
`

// fakeSession replays canned output per command and records what ran.
type fakeSession struct {
	byCmd     map[string]string
	fallback  string
	streamErr error // surfaced after the output, mid-stream
	execErr   error
	cmds      []string
	closed    bool
}

func (f *fakeSession) Exec(_ context.Context, cmd string) (io.ReadCloser, error) {
	f.cmds = append(f.cmds, cmd)
	if f.execErr != nil {
		return nil, f.execErr
	}
	out, ok := f.byCmd[cmd]
	if !ok {
		out = f.fallback
	}
	var r io.Reader = strings.NewReader(out)
	if f.streamErr != nil {
		r = io.MultiReader(r, errReader{f.streamErr})
	}
	return io.NopCloser(r), nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

func testSwitch() model.SwitchInfo {
	return model.SwitchInfo{Site: "ccm", Host: "sansw01", Generation: "gen7"}
}

func emptyEngine(t *testing.T) *devices.Engine {
	t.Helper()
	e, err := devices.NewEngine(16)
	require.NoError(t, err)
	return e
}

func collectAll(t *testing.T, sess Session, opts Options) ([]model.LogEvent, Result, error) {
	t.Helper()
	var events []model.LogEvent
	c := New(testSwitch(), sess, emptyEngine(t))
	res, err := c.Collect(context.Background(), opts, func(ev model.LogEvent) error {
		events = append(events, ev)
		return nil
	})
	return events, res, err
}

func fullOptions(contexts ...int) Options {
	if len(contexts) == 0 {
		contexts = []int{128}
	}
	return Options{
		Mode:            model.ModeFull,
		Contexts:        contexts,
		CommandTemplate: `fosexec --fid %d -cmd "nsdevlog --show"`,
		SeedYear:        2024,
		Location:        time.UTC,
	}
}

func TestCollectFullPass(t *testing.T) {
	sess := &fakeSession{fallback: sampleLog}

	events, res, err := collectAll(t, sess, fullOptions())
	require.NoError(t, err)

	assert.Equal(t, 4, res.Seen)
	assert.Equal(t, 4, res.Emitted)
	assert.Zero(t, res.Skipped)
	assert.Zero(t, res.ParseWarnings)
	assert.Equal(t, 1, res.YearWraps)
	require.Len(t, events, 4)

	// Year repair: Dec entries keep the seed year, Jan entries roll over.
	assert.Equal(t, 2024, events[0].Timestamp.Year())
	assert.Equal(t, 2024, events[1].Timestamp.Year())
	assert.Equal(t, 2025, events[2].Timestamp.Year())
	assert.Equal(t, 2025, events[3].Timestamp.Year())

	// Source order is preserved within the context.
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Timestamp.Before(events[i-1].Timestamp))
	}

	// The node-WWN-only entry still carries a resolvable identity.
	assert.Equal(t, "20:00:00:11:0D:27:A1:9F", events[2].WWN())
	assert.Equal(t, "sansw01", events[2].SwitchName)
	assert.Equal(t, 128, events[2].Context)
}

func TestCollectRunsEveryContext(t *testing.T) {
	sess := &fakeSession{fallback: sampleLog}

	events, _, err := collectAll(t, sess, fullOptions(1, 2, 128))
	require.NoError(t, err)

	require.Equal(t, []string{
		`fosexec --fid 1 -cmd "nsdevlog --show"`,
		`fosexec --fid 2 -cmd "nsdevlog --show"`,
		`fosexec --fid 128 -cmd "nsdevlog --show"`,
	}, sess.cmds)

	assert.Len(t, events, 12)
	assert.Equal(t, 1, events[0].Context)
	assert.Equal(t, 128, events[11].Context)
}

func TestCollectIncrementalExclusiveCutoff(t *testing.T) {
	sess := &fakeSession{fallback: sampleLog}

	opts := fullOptions()
	opts.Mode = model.ModeIncremental
	// Exactly the second entry's timestamp: it and everything before it
	// must be skipped, everything strictly after kept.
	opts.Since = time.Date(2024, time.December, 31, 11, 30, 0, 200*int(time.Millisecond), time.UTC)

	events, res, err := collectAll(t, sess, opts)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Seen)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 2, res.Emitted)
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.True(t, ev.Timestamp.After(opts.Since))
	}
}

func TestCollectMalformedLinesWarnNotFail(t *testing.T) {
	log := "Mon Dec 30 10:00:00.100  2/14\n" + sampleLog
	sess := &fakeSession{fallback: log}

	events, res, err := collectAll(t, sess, fullOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, res.ParseWarnings)
	assert.Equal(t, 4, res.Emitted)
	assert.Len(t, events, 4)
}

func TestCollectEmitErrorsNonFatal(t *testing.T) {
	sess := &fakeSession{fallback: sampleLog}
	c := New(testSwitch(), sess, emptyEngine(t))

	var n int
	res, err := c.Collect(context.Background(), fullOptions(), func(model.LogEvent) error {
		n++
		if n == 2 {
			return errors.New("disk full")
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.EmitErrors)
	assert.Equal(t, 3, res.Emitted)
	assert.Equal(t, 4, res.Seen)
}

func TestCollectMidStreamFailureKeepsPartialResult(t *testing.T) {
	sess := &fakeSession{fallback: sampleLog, streamErr: errors.New("connection reset")}

	events, res, err := collectAll(t, sess, fullOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context 128")
	assert.ErrorContains(t, err, "connection reset")

	// Everything read before the failure was emitted and stays valid.
	assert.Equal(t, 4, res.Emitted)
	assert.Len(t, events, 4)
}

func TestCollectExecFailure(t *testing.T) {
	sess := &fakeSession{execErr: fmt.Errorf("channel open rejected")}

	_, res, err := collectAll(t, sess, fullOptions())
	require.Error(t, err)
	assert.Zero(t, res.Emitted)
}

func TestCollectCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sess := &fakeSession{fallback: sampleLog}
	c := New(testSwitch(), sess, emptyEngine(t))

	_, err := c.Collect(ctx, fullOptions(), func(model.LogEvent) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
