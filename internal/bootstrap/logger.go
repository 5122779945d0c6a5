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

// nsdevlog-agent/internal/bootstrap/logger.go

package bootstrap

import (
	"github.com/sanwatch/nsdevlog-agent/internal/config"
	"github.com/sanwatch/nsdevlog-agent/internal/utils"
)

// initLogger is a seam for tests.
var initLogger = utils.InitLogger

// SetupLogging configures the process logger from the agent config.
func SetupLogging(cfg *config.Config) {
	initLogger(cfg.Agent.LogLevel, cfg.Agent.LogFormat)
}
