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

// nsdevlog-agent/internal/nsdevlog/timestamp.go

package nsdevlog

import "time"

// wrapTolerance is the number of days a timestamp may step backwards
// without being treated as a December-to-January wrap. It absorbs small
// reorderings in the device's own log buffer.
//
// Known limitation, kept on purpose: a single line more than
// wrapTolerance days out of order is still mis-read as a year boundary.
const wrapTolerance = 2

// YearTracker infers the absolute year of a year-less log stream scanned
// in source order (oldest to newest). It is seeded with the year of the
// stream's first entry - the stored high-watermark's year for incremental
// runs, the collection wall-clock year otherwise - and increments whenever
// the month/day sequence wraps backwards past the tolerance.
//
// The tracker is deterministic: the same raw sequence and seed always
// produce the same years. It is not safe for concurrent use; each stream
// owns its own tracker.
type YearTracker struct {
	year    int
	prevDay int // day-of-year of the previous entry, 0 before first
	wraps   int
}

// NewYearTracker returns a tracker whose first stamped entry gets
// seedYear.
func NewYearTracker(seedYear int) *YearTracker {
	return &YearTracker{year: seedYear}
}

// Stamp assigns the running year to a (month, day) pair as it is visited
// and returns that year. A backwards step beyond the tolerance advances
// the running year first.
func (t *YearTracker) Stamp(month time.Month, day int) int {
	doy := dayOfYear(month, day)
	if t.prevDay != 0 && doy < t.prevDay-wrapTolerance {
		t.year++
		t.wraps++
	}
	t.prevDay = doy
	return t.year
}

// Wraps returns how many year boundaries were detected so far. More than
// one wrap in a single stream signals a malformed or multi-year stream;
// callers log it as a data-quality warning, never as a failure.
func (t *YearTracker) Wraps() int {
	return t.wraps
}

// Time stamps the entry with the tracker's running year and builds its
// absolute timestamp in the given location.
func (t *YearTracker) Time(e *Entry, loc *time.Location) time.Time {
	year := t.Stamp(e.Month, e.Day)
	return time.Date(year, e.Month, e.Day,
		e.Hour, e.Minute, e.Second, e.Millis*int(time.Millisecond), loc)
}

// RepairYears annotates a full sequence of entries with inferred years,
// returning the timestamps in entry order plus the wrap count.
func RepairYears(entries []*Entry, seedYear int, loc *time.Location) ([]time.Time, int) {
	t := NewYearTracker(seedYear)
	out := make([]time.Time, len(entries))
	for i, e := range entries {
		out[i] = t.Time(e, loc)
	}
	return out, t.Wraps()
}

// dayOfYear maps (month, day) onto a fixed non-leap-year ordinal so that
// comparisons do not depend on which year the entry lands in.
func dayOfYear(month time.Month, day int) int {
	return time.Date(2001, month, day, 0, 0, 0, 0, time.UTC).YearDay()
}
