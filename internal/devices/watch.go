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

// nsdevlog-agent/internal/devices/watch.go

package devices

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sanwatch/nsdevlog-agent/internal/utils"
)

// watchDebounce coalesces the burst of fsnotify events a snapshot
// replacement produces into a single index refresh.
const watchDebounce = 500 * time.Millisecond

// WatchDataset reloads the dataset and refreshes the engine whenever
// the snapshot file changes. It blocks until ctx is cancelled. The
// directory is watched rather than the file so atomic renames are seen.
func WatchDataset(ctx context.Context, path string, engine *Engine) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(path)
	utils.Info("watching device/port dataset %s", target)

	var pending *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if pending == nil {
				pending = time.NewTimer(watchDebounce)
				fire = pending.C
			} else {
				pending.Reset(watchDebounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			utils.Warn("dataset watcher error: %v", err)
		case <-fire:
			pending, fire = nil, nil
			records, err := LoadDataset(target)
			if err != nil {
				utils.Error("dataset changed but reload failed: %v", err)
				continue
			}
			if err := engine.Refresh(records); err != nil {
				utils.Error("dataset changed but refresh failed: %v", err)
				continue
			}
			utils.Info("dataset change detected, resolution index rebuilt")
		}
	}
}
