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

// nsdevlog-agent/internal/nsdevlog/timestamp_test.go

package nsdevlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entriesAt(dates ...[2]int) []*Entry {
	out := make([]*Entry, len(dates))
	for i, d := range dates {
		out[i] = &Entry{Month: time.Month(d[0]), Day: d[1], Hour: 12}
	}
	return out
}

func TestRepairYearsWrap(t *testing.T) {
	// Dec 30, Dec 31, Jan 2, Jan 5 seeded at 2023 must come out as
	// 2023, 2023, 2024, 2024.
	entries := entriesAt([2]int{12, 30}, [2]int{12, 31}, [2]int{1, 2}, [2]int{1, 5})

	times, wraps := RepairYears(entries, 2023, time.UTC)
	require.Len(t, times, 4)
	assert.Equal(t, 1, wraps)

	years := []int{times[0].Year(), times[1].Year(), times[2].Year(), times[3].Year()}
	assert.Equal(t, []int{2023, 2023, 2024, 2024}, years)
}

func TestRepairYearsNoWrap(t *testing.T) {
	entries := entriesAt([2]int{3, 1}, [2]int{3, 1}, [2]int{7, 14}, [2]int{12, 31})

	times, wraps := RepairYears(entries, 2024, time.UTC)
	assert.Equal(t, 0, wraps)
	for _, ts := range times {
		assert.Equal(t, 2024, ts.Year())
	}
}

func TestRepairYearsToleratesSmallRegression(t *testing.T) {
	// A two-day step backwards is buffer reordering, not a new year.
	entries := entriesAt([2]int{6, 10}, [2]int{6, 8}, [2]int{6, 11})

	times, wraps := RepairYears(entries, 2024, time.UTC)
	assert.Equal(t, 0, wraps)
	assert.Equal(t, 2024, times[1].Year())
	assert.Equal(t, 2024, times[2].Year())
}

func TestRepairYearsMultipleWraps(t *testing.T) {
	entries := entriesAt([2]int{12, 30}, [2]int{1, 3}, [2]int{12, 28}, [2]int{1, 4})

	times, wraps := RepairYears(entries, 2022, time.UTC)
	assert.Equal(t, 2, wraps)
	assert.Equal(t, 2022, times[0].Year())
	assert.Equal(t, 2023, times[1].Year())
	assert.Equal(t, 2023, times[2].Year())
	assert.Equal(t, 2024, times[3].Year())
}

func TestRepairYearsDeterministic(t *testing.T) {
	entries := entriesAt([2]int{12, 29}, [2]int{12, 31}, [2]int{1, 1}, [2]int{2, 2})

	a, aw := RepairYears(entries, 2023, time.UTC)
	b, bw := RepairYears(entries, 2023, time.UTC)
	assert.Equal(t, a, b)
	assert.Equal(t, aw, bw)
}

func TestTrackerTimeFields(t *testing.T) {
	loc, err := time.LoadLocation("UTC")
	require.NoError(t, err)

	tr := NewYearTracker(2025)
	e := &Entry{Month: time.June, Day: 28, Hour: 2, Minute: 7, Second: 20, Millis: 885}
	ts := tr.Time(e, loc)

	assert.Equal(t, time.Date(2025, time.June, 28, 2, 7, 20, 885*int(time.Millisecond), loc), ts)
}
