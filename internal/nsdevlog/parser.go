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

// nsdevlog-agent/internal/nsdevlog/parser.go
// Package nsdevlog parses the output of the name-server device log command
// ("nsdevlog --show") and repairs its year-less timestamps.
//
// A data line looks like:
//
//	Fri Jun 28 02:07:20.885  2/14  0x610500  10:00:00:05:1e:35:5a:00  20:00:00:05:1e:35:5a:00  Device Add
//
// Everything else in the stream (table rulers, column headers, summary
// counters, shell prompts) is non-data and skipped silently.

package nsdevlog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Entry is one parsed data line before year repair and enrichment.
// Month/Day/Clock carry the raw device timestamp, which has no year.
type Entry struct {
	Month    time.Month
	Day      int
	Hour     int
	Minute   int
	Second   int
	Millis   int
	SlotPort string
	PortID   string
	PortWWN  string
	NodeWWN  string
	Event    string
	RawLine  string
}

var (
	// Full data line: dow, mon, day, time, slot/port, PID, port WWN,
	// node WWN, event text. Any field but the timestamp may be "NA".
	lineRe = regexp.MustCompile(
		`^([A-Za-z]{3})\s+([A-Za-z]{3})\s+(\d{1,2})\s+(\d{2}):(\d{2}):(\d{2})\.(\d{3})\s+(\S+)\s+(\S+)\s+(\S+)\s+(\S+)\s+(.+)$`)

	// Prefix that marks a line as a data candidate even when the full
	// pattern fails; such lines are malformed data, not banners.
	tsPrefixRe = regexp.MustCompile(`^[A-Za-z]{3}\s+[A-Za-z]{3}\s+\d{1,2}\s+\d{2}:\d{2}:\d{2}\.\d{3}\s`)

	summaryRe = regexp.MustCompile(`Total number of Entries displayed\s*=\s*(\d+)`)

	wwnRe = regexp.MustCompile(`^(?:[0-9a-fA-F]{2}[:-]){7}[0-9a-fA-F]{2}$|^[0-9a-fA-F]{16}$`)
)

var months = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// MalformedLineError reports a line that looks like a data entry but
// failed field extraction. It is a warning, never fatal to a run.
type MalformedLineError struct {
	Line string
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("malformed nsdevlog data line: %q", e.Line)
}

// ParseLine parses one raw line of nsdevlog output. It returns
// (nil, nil) for non-data lines (banners, headers, prompts, summaries),
// a *MalformedLineError for data-looking lines that fail extraction,
// and the parsed Entry otherwise.
func ParseLine(raw string) (*Entry, error) {
	line := strings.TrimSpace(raw)
	if !isDataCandidate(line) {
		return nil, nil
	}

	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		if tsPrefixRe.MatchString(line) {
			return nil, &MalformedLineError{Line: line}
		}
		return nil, nil
	}

	month, ok := months[m[2]]
	if !ok {
		return nil, &MalformedLineError{Line: line}
	}
	day, _ := strconv.Atoi(m[3])
	if day < 1 || day > 31 {
		return nil, &MalformedLineError{Line: line}
	}
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	second, _ := strconv.Atoi(m[6])
	millis, _ := strconv.Atoi(m[7])

	e := &Entry{
		Month:    month,
		Day:      day,
		Hour:     hour,
		Minute:   minute,
		Second:   second,
		Millis:   millis,
		SlotPort: naEmpty(m[8]),
		PortID:   naEmpty(m[9]),
		PortWWN:  NormalizeWWN(m[10]),
		NodeWWN:  NormalizeWWN(m[11]),
		Event:    strings.TrimSpace(m[12]),
		RawLine:  line,
	}
	return e, nil
}

func isDataCandidate(line string) bool {
	if line == "" || strings.HasPrefix(line, "=") {
		return false
	}
	lower := strings.ToLower(line)
	if strings.Contains(lower, "date/time") ||
		strings.Contains(lower, "total number") ||
		strings.Contains(lower, "max number") {
		return false
	}
	// Interactive shell prompt, e.g. "SWITCH:FID128:admin>".
	if strings.Contains(line, ":FID") && strings.HasSuffix(line, ">") {
		return false
	}
	return true
}

// ParseSummary extracts the switch-declared entry count from the
// "Total number of Entries displayed = N" trailer, if the line is one.
func ParseSummary(line string) (int, bool) {
	m := summaryRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsWWN reports whether s is a 64-bit world-wide name: 16 hex nibbles,
// bare or separated by colons or dashes.
func IsWWN(s string) bool {
	return wwnRe.MatchString(s)
}

// NormalizeWWN converts a WWN to the canonical uppercase colon-separated
// form used by the device/port dataset. Non-WWN values (including the
// "NA" placeholder) normalize to the empty string.
func NormalizeWWN(s string) string {
	s = strings.TrimSpace(s)
	if !IsWWN(s) {
		return ""
	}
	hex := strings.ToUpper(strings.NewReplacer(":", "", "-", "").Replace(s))
	var b strings.Builder
	for i := 0; i < len(hex); i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(hex[i : i+2])
	}
	return b.String()
}

// SlotPort splits a "slot/port" descriptor into its numeric parts.
// ok is false when the descriptor has another shape (e.g. "NA").
func SlotPort(s string) (slot, port int, ok bool) {
	left, right, found := strings.Cut(s, "/")
	if !found {
		return 0, 0, false
	}
	slot, err := strconv.Atoi(strings.TrimSpace(left))
	if err != nil {
		return 0, 0, false
	}
	port, err = strconv.Atoi(strings.TrimSpace(right))
	if err != nil {
		return 0, 0, false
	}
	return slot, port, true
}

func naEmpty(s string) string {
	if strings.EqualFold(s, "NA") {
		return ""
	}
	return s
}
