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

// nsdevlog-agent/internal/devices/fetch.go
// The device/port dataset lives inside the SAN management appliance's
// container. Fetcher copies it out over the container engine API so the
// resolution index can be rebuilt from a fresh snapshot.

package devices

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/docker/docker/client"

	"github.com/sanwatch/nsdevlog-agent/internal/utils"
)

// Fetcher copies the dataset snapshot out of a container to a local
// path. The local write is temp-file + rename so a concurrent watcher
// only ever sees complete snapshots.
type Fetcher struct {
	Container     string // container name, e.g. "sannav_app"
	ContainerPath string // snapshot path inside the container
	LocalPath     string // destination on the agent host
}

// Fetch performs one copy. Failures are non-fatal to the caller: a
// previously fetched snapshot on disk stays usable.
func (f *Fetcher) Fetch(ctx context.Context) error {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return fmt.Errorf("container engine client: %w", err)
	}
	defer cli.Close()

	rc, stat, err := cli.CopyFromContainer(ctx, f.Container, f.ContainerPath)
	if err != nil {
		return fmt.Errorf("copy %s from container %s: %w", f.ContainerPath, f.Container, err)
	}
	defer rc.Close()

	if err := f.extractTo(rc, f.LocalPath); err != nil {
		return err
	}
	utils.Info("copied device/port dataset from %s (%d bytes)", f.Container, stat.Size)
	return nil
}

// extractTo writes the first regular file of the copy tar stream to
// dest atomically.
func (f *Fetcher) extractTo(r io.Reader, dest string) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return fmt.Errorf("container copy stream held no file")
		}
		if err != nil {
			return fmt.Errorf("read container copy stream: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		tmp, err := os.CreateTemp(filepath.Dir(dest), ".dataset-*")
		if err != nil {
			return err
		}
		if _, err := io.Copy(tmp, tr); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return fmt.Errorf("write dataset snapshot: %w", err)
		}
		if err := tmp.Close(); err != nil {
			os.Remove(tmp.Name())
			return err
		}
		return os.Rename(tmp.Name(), dest)
	}
}
