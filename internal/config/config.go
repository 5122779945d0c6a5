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

// nsdevlog-agent/internal/config/config.go
// Package config loads and validates the agent configuration. Precedence is
// command-line flags > environment variables > YAML file > defaults.

package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sanwatch/nsdevlog-agent/internal/model"
)

type AgentConfig struct {
	Interval  time.Duration `yaml:"interval"`
	LogLevel  string        `yaml:"log_level"`
	LogFormat string        `yaml:"log_format"`
}

type CollectionConfig struct {
	Workers         int           `yaml:"workers"`
	Contexts        []int         `yaml:"contexts"`
	CommandTemplate string        `yaml:"command_template"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	SwitchTimeout   time.Duration `yaml:"switch_timeout"`
	RunTimeout      time.Duration `yaml:"run_timeout"`
}

type DevicesConfig struct {
	DatasetPath   string `yaml:"dataset_path"`
	Container     string `yaml:"container"`
	ContainerPath string `yaml:"container_path"`
	CacheSize     int    `yaml:"cache_size"`
	Watch         bool   `yaml:"watch"`
}

type LeaderConfig struct {
	LockPath  string        `yaml:"lock_path"`
	Staleness time.Duration `yaml:"staleness"`
	Heartbeat time.Duration `yaml:"heartbeat"`
}

type StorageConfig struct {
	Dir string `yaml:"dir"`
}

type CredentialsConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type Config struct {
	Agent       AgentConfig        `yaml:"agent"`
	Switches    []model.SwitchInfo `yaml:"switches"`
	Credentials CredentialsConfig  `yaml:"credentials"`
	Collection  CollectionConfig   `yaml:"collection"`
	Devices     DevicesConfig      `yaml:"devices"`
	Leader      LeaderConfig       `yaml:"leader"`
	Storage     StorageConfig      `yaml:"storage"`
}

// LoadConfig reads the YAML config file and fills in defaults for
// anything left unset.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Agent.Interval <= 0 {
		cfg.Agent.Interval = time.Hour
	}
	if cfg.Agent.LogLevel == "" {
		cfg.Agent.LogLevel = "info"
	}
	if cfg.Collection.Workers <= 0 {
		cfg.Collection.Workers = 4
	}
	if len(cfg.Collection.Contexts) == 0 {
		// Virtual fabric contexts queried per switch; 128 is the
		// physical switch context.
		cfg.Collection.Contexts = []int{1, 2, 3, 4, 5, 128}
	}
	if cfg.Collection.CommandTemplate == "" {
		cfg.Collection.CommandTemplate = `fosexec --fid %d -cmd "nsdevlog --show"`
	}
	if cfg.Collection.ConnectTimeout <= 0 {
		cfg.Collection.ConnectTimeout = 30 * time.Second
	}
	if cfg.Collection.SwitchTimeout <= 0 {
		cfg.Collection.SwitchTimeout = 10 * time.Minute
	}
	if cfg.Collection.RunTimeout <= 0 {
		cfg.Collection.RunTimeout = time.Hour
	}
	if cfg.Devices.DatasetPath == "" {
		cfg.Devices.DatasetPath = "./device_port.json"
	}
	if cfg.Devices.ContainerPath == "" {
		cfg.Devices.ContainerPath = "/var/www/localhost/htdocs/result_json/device_port.json"
	}
	if cfg.Devices.CacheSize <= 0 {
		cfg.Devices.CacheSize = 10000
	}
	if cfg.Leader.LockPath == "" {
		cfg.Leader.LockPath = "/tmp/nsdevlog-agent.lock"
	}
	if cfg.Leader.Staleness <= 0 {
		cfg.Leader.Staleness = 10 * time.Minute
	}
	if cfg.Leader.Heartbeat <= 0 {
		cfg.Leader.Heartbeat = 30 * time.Second
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "./data"
	}
}

// ApplyEnvOverrides applies NSDEVLOG_* environment variables on top of
// the file config.
func ApplyEnvOverrides(cfg *Config) {
	if val := os.Getenv("NSDEVLOG_USERNAME"); val != "" {
		cfg.Credentials.Username = val
	}
	if val := os.Getenv("NSDEVLOG_PASSWORD"); val != "" {
		cfg.Credentials.Password = val
	}
	if val := os.Getenv("NSDEVLOG_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Agent.Interval = d
		} else {
			fmt.Printf("Invalid NSDEVLOG_INTERVAL format: %s\n", val)
		}
	}
	if val := os.Getenv("NSDEVLOG_LOG_LEVEL"); val != "" {
		cfg.Agent.LogLevel = val
	}
	if val := os.Getenv("NSDEVLOG_SWITCHES"); val != "" {
		if switches, err := ParseSwitchList(SplitCSV(val)); err == nil {
			cfg.Switches = switches
		} else {
			fmt.Printf("Invalid NSDEVLOG_SWITCHES: %v\n", err)
		}
	}
	if val := os.Getenv("NSDEVLOG_LOCK_PATH"); val != "" {
		cfg.Leader.LockPath = val
	}
	if val := os.Getenv("NSDEVLOG_STORAGE_DIR"); val != "" {
		cfg.Storage.Dir = val
	}
}

// SplitCSV splits a comma-separated value list, trimming whitespace and
// dropping empty items.
func SplitCSV(s string) []string {
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ParseSwitchList parses legacy "site:host:generation" switch
// descriptors. The generation tag is optional and defaults to gen7.
func ParseSwitchList(items []string) ([]model.SwitchInfo, error) {
	var switches []model.SwitchInfo
	for _, item := range items {
		parts := strings.Split(item, ":")
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid switch descriptor %q (want site:host[:generation])", item)
		}
		sw := model.SwitchInfo{
			Site:       strings.TrimSpace(parts[0]),
			Host:       strings.TrimSpace(parts[1]),
			Generation: "gen7",
		}
		if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
			sw.Generation = strings.TrimSpace(parts[2])
		}
		if sw.Host == "" {
			return nil, fmt.Errorf("invalid switch descriptor %q: empty host", item)
		}
		switches = append(switches, sw)
	}
	return switches, nil
}

// LoadSwitchesFile reads a legacy switches.conf inventory: one
// site:host:generation descriptor per line, '#' comments and blank
// lines ignored.
func LoadSwitchesFile(path string) ([]model.SwitchInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var items []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		items = append(items, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ParseSwitchList(items)
}
