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

// nsdevlog-agent/internal/utils/logger.go
// Package utils provides the agent-wide logging helpers. Call sites use
// printf-style Debug/Info/Warn/Error; output goes through log/slog so the
// format (text or JSON) and level stay configurable in one place.

package utils

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
}

// InitLogger configures the process logger. Format "json" selects the
// JSON handler, anything else the text handler. Output is stderr.
func InitLogger(level, format string) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	logger.Store(slog.New(h))
}

// ParseLevel converts a config string to an slog.Level. Unknown values
// default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Debug(format string, args ...any) {
	logger.Load().Debug(fmt.Sprintf(format, args...))
}

func Info(format string, args ...any) {
	logger.Load().Info(fmt.Sprintf(format, args...))
}

func Warn(format string, args ...any) {
	logger.Load().Warn(fmt.Sprintf(format, args...))
}

func Error(format string, args ...any) {
	logger.Load().Error(fmt.Sprintf(format, args...))
}

// Fatal logs at error level and exits the process.
func Fatal(format string, args ...any) {
	logger.Load().Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
