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

// nsdevlog-agent/internal/config/default.go

package config

import (
	"os"
	"path/filepath"
)

const defaultAgentYAML = `agent:
  interval: 1h
  log_level: info
  log_format: text

# Switch inventory. Credentials come from NSDEVLOG_USERNAME /
# NSDEVLOG_PASSWORD or the credentials block below.
switches:
  - { site: ccm, host: ccmfcp2, generation: gen6 }
  - { site: ccm, host: ccmfcp3, generation: gen6 }
  - { site: ccm, host: santgtccm4, generation: gen7 }
  - { site: ccm, host: santgtccm5, generation: gen7 }
  - { site: ccm, host: santgtccm6, generation: gen7 }
  - { site: ccm, host: santgtccm7, generation: gen7 }
  - { site: ccm, host: santgtccm8, generation: gen6 }
  - { site: ccm, host: santgtccm9, generation: gen6 }

credentials:
  username: ""
  password: ""

collection:
  workers: 4
  contexts: [1, 2, 3, 4, 5, 128]
  command_template: 'fosexec --fid %d -cmd "nsdevlog --show"'
  connect_timeout: 30s
  switch_timeout: 10m
  run_timeout: 1h

devices:
  dataset_path: ./device_port.json
  container: sannav_app
  container_path: /var/www/localhost/htdocs/result_json/device_port.json
  cache_size: 10000
  watch: true

leader:
  lock_path: /tmp/nsdevlog-agent.lock
  staleness: 10m
  heartbeat: 30s

storage:
  dir: ./data
`

// EnsureDefaultConfig writes the default config file if none exists.
func EnsureDefaultConfig(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		return os.WriteFile(path, []byte(defaultAgentYAML), 0644)
	}
	return nil
}
