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

// nsdevlog-agent/internal/model/model.go
// Package model defines the data types shared across the agent: parsed
// name-server device log events, device/port dataset records, and
// collection run summaries.

package model

import (
	"strings"
	"time"
)

// SwitchInfo identifies one Fibre Channel switch in the inventory.
type SwitchInfo struct {
	Site       string `yaml:"site" json:"site"`
	Host       string `yaml:"host" json:"host"`
	Generation string `yaml:"generation" json:"generation"`
}

// Credentials for the remote shell login. Treated as opaque input.
type Credentials struct {
	Username string
	Password string
}

// LogEvent is one parsed and enriched name-server device log entry.
type LogEvent struct {
	Timestamp    time.Time `json:"timestamp"`
	Site         string    `json:"site"`
	SwitchName   string    `json:"switch_name"`
	Context      int       `json:"context"`
	EventType    string    `json:"event_type"`
	PortWWN      string    `json:"port_wwn,omitempty"`
	NodeWWN      string    `json:"node_wwn,omitempty"`
	SlotPort     string    `json:"slot_port,omitempty"`
	PortID       string    `json:"pid,omitempty"`
	Alias        string    `json:"alias,omitempty"`
	NodeSymbol   string    `json:"node_symbol,omitempty"`
	RawLine      string    `json:"raw_line"`
	CollectionID string    `json:"collection_id,omitempty"`
}

// WWN returns the identifier used for device resolution: the port WWN
// when present, otherwise the node WWN.
func (e *LogEvent) WWN() string {
	if e.PortWWN != "" {
		return e.PortWWN
	}
	return e.NodeWWN
}

// PortRecord is one entry of the external device/port dataset snapshot.
// Field names mirror the snapshot's JSON shape.
type PortRecord struct {
	Switch             string `json:"pSwitch"`
	SlotNumber         int    `json:"slotNumber"`
	PortNumber         int    `json:"portNumber"`
	WWN                string `json:"wwn"`
	PhysicalPortWWN    string `json:"physicalPortWwn"`
	ZoneAlias          string `json:"zoneAlias"`
	SymbolicName       string `json:"symbolicName"`
	DeviceSymbolicName string `json:"deviceSymbolicName"`
}

// Symbol returns the record's symbolic name, preferring the newer
// symbolicName field over the legacy deviceSymbolicName one.
func (r *PortRecord) Symbol() string {
	if s := strings.TrimSpace(r.SymbolicName); s != "" {
		return s
	}
	return strings.TrimSpace(r.DeviceSymbolicName)
}

// Virtual reports whether the record describes an NPIV virtual WWN
// hosted on a different physical port WWN.
func (r *PortRecord) Virtual() bool {
	return r.PhysicalPortWWN != "" &&
		!strings.EqualFold(r.PhysicalPortWWN, r.WWN)
}

// Resolution is the outcome of a device lookup. Found is false for a
// valid "no match" result, which is distinct from a lookup error.
type Resolution struct {
	Alias      string
	NodeSymbol string
	Found      bool
}

// RunStatus classifies a whole collection run.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial"
	RunFailed  RunStatus = "failed"
)

// CollectionMode selects between a first-time full collection and an
// incremental one bounded by per-switch high-watermarks.
type CollectionMode string

const (
	ModeFull        CollectionMode = "full"
	ModeIncremental CollectionMode = "incremental"
)

// SwitchOutcome is the per-switch result inside a CollectionRun.
type SwitchOutcome struct {
	SwitchName  string `json:"switch_name"`
	Success     bool   `json:"success"`
	EntriesSeen int    `json:"entries_seen"`
	EntriesNew  int    `json:"entries_new"`
	Error       string `json:"error,omitempty"`
}

// CollectionRun aggregates one orchestrated collection cycle.
type CollectionRun struct {
	ID          string          `json:"id"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
	Mode        CollectionMode  `json:"mode"`
	Switches    []SwitchOutcome `json:"switches"`
	TotalSeen   int             `json:"total_seen"`
	TotalNew    int             `json:"total_new"`
	Status      RunStatus       `json:"status"`
}

// Finalize computes the totals and the overall status from the
// per-switch outcomes: success only if all switches succeeded, failed
// only if none did, partial otherwise.
func (r *CollectionRun) Finalize(completed time.Time) {
	r.CompletedAt = completed
	var ok int
	r.TotalSeen, r.TotalNew = 0, 0
	for _, s := range r.Switches {
		r.TotalSeen += s.EntriesSeen
		r.TotalNew += s.EntriesNew
		if s.Success {
			ok++
		}
	}
	switch {
	case ok == len(r.Switches):
		r.Status = RunSuccess
	case ok == 0:
		r.Status = RunFailed
	default:
		r.Status = RunPartial
	}
}
