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

// nsdevlog-agent/internal/storage/storage.go
// Package storage is the boundary to the persistence collaborator. The
// collection core only ever talks to these interfaces; the relational
// store behind the web application implements them elsewhere.

package storage

import (
	"context"
	"time"

	"github.com/sanwatch/nsdevlog-agent/internal/model"
)

// Sink receives enriched log events as they are produced, in per-switch
// source order. Implementations must treat each append independently: a
// failed append affects only that record.
type Sink interface {
	AppendEvent(ctx context.Context, ev model.LogEvent) error
}

// Store is the full persistence boundary: event sink, run summaries and
// the per-switch high-watermarks that drive incremental collection.
type Store interface {
	Sink
	SaveRun(ctx context.Context, run model.CollectionRun) error
	// HighWatermarks returns the newest stored timestamp per switch.
	// An empty map means no prior data: the next run is a full one.
	HighWatermarks(ctx context.Context) (map[string]time.Time, error)
}
