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

// nsdevlog-agent/internal/nsdevlog/parser_test.go

package nsdevlog

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineDataLine(t *testing.T) {
	line := "Fri Jun 28 02:07:20.885  2/14  0x610500  10:00:00:05:1e:35:5a:00  20:00:00:05:1e:35:5a:00  Device Add"

	e, err := ParseLine(line)
	require.NoError(t, err)
	require.NotNil(t, e)

	assert.Equal(t, time.June, e.Month)
	assert.Equal(t, 28, e.Day)
	assert.Equal(t, 2, e.Hour)
	assert.Equal(t, 7, e.Minute)
	assert.Equal(t, 20, e.Second)
	assert.Equal(t, 885, e.Millis)
	assert.Equal(t, "2/14", e.SlotPort)
	assert.Equal(t, "0x610500", e.PortID)
	assert.Equal(t, "10:00:00:05:1E:35:5A:00", e.PortWWN)
	assert.Equal(t, "20:00:00:05:1E:35:5A:00", e.NodeWWN)
	assert.Equal(t, "Device Add", e.Event)
	assert.Equal(t, line, e.RawLine)
}

func TestParseLineNAFields(t *testing.T) {
	e, err := ParseLine("Mon Jan 02 10:00:00.000  NA  NA  NA  20:00:00:05:1e:35:5a:00  Device Remove")
	require.NoError(t, err)
	require.NotNil(t, e)

	assert.Empty(t, e.SlotPort)
	assert.Empty(t, e.PortID)
	assert.Empty(t, e.PortWWN)
	assert.Equal(t, "20:00:00:05:1E:35:5A:00", e.NodeWWN)
}

func TestParseLineSkipsNonData(t *testing.T) {
	lines := []string{
		"",
		"   ",
		"==========================================",
		"  Date/Time                 Slot/Port  PID",
		"Total number of Entries displayed = 14125",
		"Max number of entries = 32768",
		"SANSW01:FID128:admin>",
	}
	for _, line := range lines {
		e, err := ParseLine(line)
		assert.NoError(t, err, "line %q", line)
		assert.Nil(t, e, "line %q", line)
	}
}

func TestParseLineMalformed(t *testing.T) {
	// Timestamp prefix marks it as data; the truncated tail makes it
	// malformed rather than a banner.
	e, err := ParseLine("Fri Jun 28 02:07:20.885 2/14")
	assert.Nil(t, e)

	var mle *MalformedLineError
	require.True(t, errors.As(err, &mle))
	assert.Contains(t, mle.Error(), "malformed")
}

func TestParseSummary(t *testing.T) {
	n, ok := ParseSummary("Total number of Entries displayed = 14125")
	require.True(t, ok)
	assert.Equal(t, 14125, n)

	_, ok = ParseSummary("Fri Jun 28 02:07:20.885  2/14  ...")
	assert.False(t, ok)
}

func TestNormalizeWWN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10:00:00:05:1e:35:5a:00", "10:00:00:05:1E:35:5A:00"},
		{"10-00-00-05-1e-35-5a-00", "10:00:00:05:1E:35:5A:00"},
		{"100000051e355a00", "10:00:00:05:1E:35:5A:00"},
		{"NA", ""},
		{"", ""},
		{"0x610500", ""},
		{"10:00:00:05:1e:35:5a", ""}, // 7 octets
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeWWN(tt.in), "input %q", tt.in)
	}
}

func TestSlotPort(t *testing.T) {
	slot, port, ok := SlotPort("2/14")
	require.True(t, ok)
	assert.Equal(t, 2, slot)
	assert.Equal(t, 14, port)

	_, _, ok = SlotPort("NA")
	assert.False(t, ok)
	_, _, ok = SlotPort("x/y")
	assert.False(t, ok)
}
