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

// nsdevlog-agent/internal/leader/guard.go
// Package leader elects exactly one of the identical agent processes
// sharing a host to run scheduled jobs. Coordination happens through a
// single well-known lock file holding the leader's pid and heartbeat;
// liveness is checked against the OS process table, not just timestamp
// age, so a long GC pause cannot trigger a false takeover. The protocol
// is advisory, not transactional: on any ambiguity a process stays
// Follower, never assumes leadership.

package leader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/sanwatch/nsdevlog-agent/internal/utils"
)

// State of this process in the election.
type State int32

const (
	StateUnelected State = iota
	StateAttempting
	StateFollower
	StateLeader
)

func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateFollower:
		return "follower"
	case StateLeader:
		return "leader"
	default:
		return "unelected"
	}
}

// settleDelay is how long a claimant waits before verifying that its
// claim survived a simultaneous claim by a sibling process.
const defaultSettleDelay = 150 * time.Millisecond

// lockRecord is the lock file's content: holder pid and last heartbeat.
type lockRecord struct {
	PID       int
	Heartbeat time.Time
}

// Guard is the per-process view of the election. Start runs the state
// machine until the context ends; IsLeader gates scheduled jobs.
type Guard struct {
	path      string
	staleness time.Duration
	heartbeat time.Duration

	pid         int
	settleDelay time.Duration
	pidAlive    func(pid int) bool // seam for tests

	mu    sync.Mutex
	state State
}

// New builds a guard over the shared lock path. staleness bounds how old
// a live holder's heartbeat may be before takeover; heartbeat is the
// leader's refresh (and the follower's re-check) period.
func New(path string, staleness, heartbeat time.Duration) *Guard {
	return &Guard{
		path:        path,
		staleness:   staleness,
		heartbeat:   heartbeat,
		pid:         os.Getpid(),
		settleDelay: defaultSettleDelay,
		pidAlive:    pidAlive,
	}
}

func pidAlive(pid int) bool {
	ok, err := process.PidExists(int32(pid))
	return err == nil && ok
}

// State returns the current election state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// IsLeader reports whether this process currently runs scheduled jobs.
func (g *Guard) IsLeader() bool {
	return g.State() == StateLeader
}

func (g *Guard) setState(s State) {
	g.mu.Lock()
	prev := g.state
	g.state = s
	g.mu.Unlock()
	if prev != s {
		utils.Info("📅 leader election: %s -> %s (pid %d)", prev, s, g.pid)
	}
}

// Attempt runs one election pass and returns the resulting state.
func (g *Guard) Attempt() State {
	g.setState(StateAttempting)

	rec, err := g.read()
	switch {
	case err == nil && rec.PID == g.pid:
		// Already ours; just refresh the heartbeat.
		if err := g.write(); err != nil {
			utils.Warn("leader lock refresh failed: %v", err)
		}
		g.setState(StateLeader)
		return StateLeader

	case err == nil && g.holderHealthy(rec):
		g.setState(StateFollower)
		return StateFollower

	case err == nil:
		utils.Warn("stale leader lock: holder pid %d dead or silent since %s, taking over",
			rec.PID, rec.Heartbeat.Format(time.RFC3339))

	case !os.IsNotExist(err):
		// Unreadable or corrupt lock counts as unclaimed; the claim
		// below rewrites it atomically.
		utils.Warn("leader lock unreadable (%v), claiming", err)
	}

	return g.claim()
}

// claim writes our candidacy, lets simultaneous claims settle, then
// verifies. Tie-break: the lowest live pid wins, deterministically. A
// higher-pid claimant that finds a lower live pid recorded yields; a
// lower-pid claimant that finds a higher pid recorded overwrites once.
func (g *Guard) claim() State {
	for attempt := 0; attempt < 2; attempt++ {
		if err := g.write(); err != nil {
			utils.Error("leader lock claim failed: %v", err)
			g.setState(StateFollower)
			return StateFollower
		}
		time.Sleep(g.settleDelay)

		rec, err := g.read()
		if err != nil {
			g.setState(StateFollower)
			return StateFollower
		}
		if rec.PID == g.pid {
			// Confirm after a second settle window: a lower-pid
			// sibling overwriting us concurrently must win.
			time.Sleep(g.settleDelay)
			if rec, err = g.read(); err == nil && rec.PID == g.pid {
				g.setState(StateLeader)
				return StateLeader
			}
			if err != nil {
				g.setState(StateFollower)
				return StateFollower
			}
		}
		if g.pidAlive(rec.PID) && rec.PID < g.pid {
			g.setState(StateFollower)
			return StateFollower
		}
		// Recorded holder is dead or has a higher pid: our claim has
		// priority, rewrite and re-verify once.
	}
	g.setState(StateFollower)
	return StateFollower
}

func (g *Guard) holderHealthy(rec lockRecord) bool {
	return g.pidAlive(rec.PID) && time.Since(rec.Heartbeat) < g.staleness
}

// Start runs the election loop: an immediate attempt, then periodic
// heartbeats as Leader or re-checks as Follower. It blocks until ctx is
// done and releases the lock on the way out if still held.
func (g *Guard) Start(ctx context.Context) {
	g.Attempt()

	t := time.NewTicker(g.heartbeat)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			g.Release()
			return
		case <-t.C:
			g.tick()
		}
	}
}

func (g *Guard) tick() {
	switch g.State() {
	case StateLeader:
		rec, err := g.read()
		if err == nil && rec.PID != g.pid && g.pidAlive(rec.PID) {
			// Someone else holds the lock now; leadership is lost.
			utils.Warn("leadership lost to pid %d", rec.PID)
			g.setState(StateUnelected)
			return
		}
		if err := g.write(); err != nil {
			utils.Warn("heartbeat write failed: %v", err)
		}
	case StateFollower:
		rec, err := g.read()
		if err != nil || !g.holderHealthy(rec) {
			g.Attempt()
		}
	default:
		g.Attempt()
	}
}

// Release gives the lock up if this process still owns it. Called on
// graceful shutdown; a crash leaves the file for liveness-based takeover.
func (g *Guard) Release() {
	rec, err := g.read()
	if err == nil && rec.PID == g.pid {
		if err := os.Remove(g.path); err != nil {
			utils.Warn("leader lock release failed: %v", err)
		} else {
			utils.Info("📅 leader lock released (pid %d)", g.pid)
		}
	}
	g.setState(StateUnelected)
}

func (g *Guard) read() (lockRecord, error) {
	data, err := os.ReadFile(g.path)
	if err != nil {
		return lockRecord{}, err
	}
	lines := strings.SplitN(strings.TrimSpace(string(data)), "\n", 3)
	if len(lines) < 2 {
		return lockRecord{}, fmt.Errorf("short lock file %s", g.path)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return lockRecord{}, fmt.Errorf("bad pid in lock file: %w", err)
	}
	nanos, err := strconv.ParseInt(strings.TrimSpace(lines[1]), 10, 64)
	if err != nil {
		return lockRecord{}, fmt.Errorf("bad heartbeat in lock file: %w", err)
	}
	return lockRecord{PID: pid, Heartbeat: time.Unix(0, nanos)}, nil
}

// write publishes our pid and a fresh heartbeat via temp-file + rename,
// the host filesystem's atomic replace.
func (g *Guard) write() error {
	if err := os.MkdirAll(filepath.Dir(g.path), 0755); err != nil {
		return err
	}
	content := fmt.Sprintf("%d\n%d\n", g.pid, time.Now().UnixNano())
	tmp, err := os.CreateTemp(filepath.Dir(g.path), ".lock-*")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), g.path)
}
