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

// nsdevlog-agent/internal/config/config_test.go

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanwatch/nsdevlog-agent/internal/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
agent:
  interval: 30m
  log_level: debug
switches:
  - site: ccm
    host: sansw01
    generation: gen7
  - site: ccm
    host: sansw02
    generation: gen6
credentials:
  username: sanadmin
  password: secret
collection:
  workers: 8
  contexts: [1, 128]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Agent.Interval)
	assert.Equal(t, "debug", cfg.Agent.LogLevel)
	require.Len(t, cfg.Switches, 2)
	assert.Equal(t, "sansw02", cfg.Switches[1].Host)
	assert.Equal(t, "gen6", cfg.Switches[1].Generation)
	assert.Equal(t, "sanadmin", cfg.Credentials.Username)
	assert.Equal(t, 8, cfg.Collection.Workers)
	assert.Equal(t, []int{1, 128}, cfg.Collection.Contexts)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "agent: {}\n"))
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.Agent.Interval)
	assert.Equal(t, "info", cfg.Agent.LogLevel)
	assert.Equal(t, 4, cfg.Collection.Workers)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 128}, cfg.Collection.Contexts)
	assert.Equal(t, `fosexec --fid %d -cmd "nsdevlog --show"`, cfg.Collection.CommandTemplate)
	assert.Equal(t, 30*time.Second, cfg.Collection.ConnectTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Collection.SwitchTimeout)
	assert.Equal(t, 10000, cfg.Devices.CacheSize)
	assert.Equal(t, "/tmp/nsdevlog-agent.lock", cfg.Leader.LockPath)
	assert.Equal(t, 10*time.Minute, cfg.Leader.Staleness)
	assert.Equal(t, 30*time.Second, cfg.Leader.Heartbeat)
	assert.Equal(t, "./data", cfg.Storage.Dir)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("NSDEVLOG_USERNAME", "envuser")
	t.Setenv("NSDEVLOG_PASSWORD", "envpass")
	t.Setenv("NSDEVLOG_INTERVAL", "15m")
	t.Setenv("NSDEVLOG_LOG_LEVEL", "warn")
	t.Setenv("NSDEVLOG_SWITCHES", "ccm:sansw09,dr:sansw10:gen6")
	t.Setenv("NSDEVLOG_LOCK_PATH", "/run/lock/agent.lock")
	t.Setenv("NSDEVLOG_STORAGE_DIR", "/var/lib/agent")

	cfg := &Config{}
	applyDefaults(cfg)
	ApplyEnvOverrides(cfg)

	assert.Equal(t, "envuser", cfg.Credentials.Username)
	assert.Equal(t, "envpass", cfg.Credentials.Password)
	assert.Equal(t, 15*time.Minute, cfg.Agent.Interval)
	assert.Equal(t, "warn", cfg.Agent.LogLevel)
	require.Len(t, cfg.Switches, 2)
	assert.Equal(t, model.SwitchInfo{Site: "ccm", Host: "sansw09", Generation: "gen7"}, cfg.Switches[0])
	assert.Equal(t, model.SwitchInfo{Site: "dr", Host: "sansw10", Generation: "gen6"}, cfg.Switches[1])
	assert.Equal(t, "/run/lock/agent.lock", cfg.Leader.LockPath)
	assert.Equal(t, "/var/lib/agent", cfg.Storage.Dir)
}

func TestParseSwitchList(t *testing.T) {
	switches, err := ParseSwitchList([]string{"ccm:sansw01", "dr:sansw02:gen6"})
	require.NoError(t, err)
	require.Len(t, switches, 2)
	assert.Equal(t, "gen7", switches[0].Generation)
	assert.Equal(t, "gen6", switches[1].Generation)

	_, err = ParseSwitchList([]string{"justahost"})
	assert.Error(t, err)
	_, err = ParseSwitchList([]string{"ccm:"})
	assert.Error(t, err)
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitCSV(" a, b ,c,,"))
	assert.Nil(t, SplitCSV(""))
}

func TestLoadSwitchesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "switches.conf")
	content := `# production fabric
ccm:sansw01:gen7

ccm:sansw02
# decommissioned
# ccm:sansw99
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	switches, err := LoadSwitchesFile(path)
	require.NoError(t, err)
	require.Len(t, switches, 2)
	assert.Equal(t, "sansw01", switches[0].Host)
	assert.Equal(t, "gen7", switches[1].Generation)
}
