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

// nsdevlog-agent/internal/storage/filestore.go

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sanwatch/nsdevlog-agent/internal/model"
)

// FileStore persists events as per-switch NDJSON logs plus a run-summary
// log and a watermark snapshot. It is the standalone deployment's store
// and the reference implementation of the Store boundary.
type FileStore struct {
	dir string

	mu sync.Mutex
	wm map[string]time.Time
}

const watermarksFile = "watermarks.json"

// NewFileStore opens (creating if needed) a file store rooted at dir and
// loads the persisted watermark map.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	s := &FileStore{dir: dir, wm: make(map[string]time.Time)}

	data, err := os.ReadFile(filepath.Join(dir, watermarksFile))
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &s.wm); err != nil {
			return nil, fmt.Errorf("corrupt watermark file: %w", err)
		}
	case os.IsNotExist(err):
		// first run
	default:
		return nil, err
	}
	return s, nil
}

// AppendEvent writes one event to its switch's NDJSON log and advances
// the in-memory watermark. Failures affect only this record.
func (s *FileStore) AppendEvent(_ context.Context, ev model.LogEvent) error {
	line, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, fmt.Sprintf("events_%s.ndjson", ev.SwitchName))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return err
	}

	if ev.Timestamp.After(s.wm[ev.SwitchName]) {
		s.wm[ev.SwitchName] = ev.Timestamp
	}
	return nil
}

// SaveRun appends the run summary and persists the watermark snapshot.
func (s *FileStore) SaveRun(_ context.Context, run model.CollectionRun) error {
	line, err := json.Marshal(run)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(filepath.Join(s.dir, "runs.ndjson"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return s.persistWatermarksLocked()
}

// HighWatermarks returns a copy of the per-switch watermark map.
func (s *FileStore) HighWatermarks(_ context.Context) (map[string]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]time.Time, len(s.wm))
	for k, v := range s.wm {
		out[k] = v
	}
	return out, nil
}

func (s *FileStore) persistWatermarksLocked() error {
	data, err := json.MarshalIndent(s.wm, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".wm-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, watermarksFile))
}
