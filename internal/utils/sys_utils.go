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

// nsdevlog-agent/internal/utils/sys_utils.go

package utils

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/host"
)

// GetHostname returns the system hostname, or "unknown" if it can't be
// determined.
func GetHostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "unknown"
	}
	return h
}

// HostSummary describes the machine this agent process runs on, for the
// startup log line. Several identical agents may share a host; the
// summary plus the pid identifies which one holds the leader lock.
func HostSummary() string {
	info, err := host.Info()
	if err != nil {
		return fmt.Sprintf("%s (pid %d)", GetHostname(), os.Getpid())
	}
	return fmt.Sprintf("%s (%s %s, up %ds, pid %d)",
		info.Hostname, info.Platform, info.PlatformVersion, info.Uptime, os.Getpid())
}
