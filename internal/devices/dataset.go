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

// nsdevlog-agent/internal/devices/dataset.go

package devices

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sanwatch/nsdevlog-agent/internal/model"
)

// LoadDataset reads a device/port dataset snapshot: a JSON array of port
// records as exported by the SAN management appliance. The shape is
// validated only structurally; content is the exporter's problem.
func LoadDataset(path string) ([]model.PortRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read device/port dataset: %w", err)
	}
	var records []model.PortRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("device/port dataset %s is not a record array: %w", path, err)
	}
	return records, nil
}
