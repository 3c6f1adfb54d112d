// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harlam357/hfm-net-sub022/pkg/logging"
	"github.com/harlam357/hfm-net-sub022/pkg/monitor"
)

// Config is the hfm.yaml file shape.
type Config struct {
	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
		JSON  bool   `yaml:"json"`
	} `yaml:"logging"`

	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`

	Clients []ClientEntry `yaml:"clients"`
}

// ClientEntry is one monitored client in the config file.
type ClientEntry struct {
	Name         string        `yaml:"name"`
	Type         string        `yaml:"type"`
	Path         string        `yaml:"path"`
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Password     string        `yaml:"password"`
	PollInterval time.Duration `yaml:"poll-interval"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) logger(service string) *logging.Logger {
	level := logging.LevelInfo
	switch c.Logging.Level {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	return logging.New(logging.Config{
		Level:   level,
		LogDir:  c.Logging.Dir,
		Service: service,
		JSON:    c.Logging.JSON,
	})
}

func (c *Config) monitorClients() []monitor.ClientConfig {
	clients := make([]monitor.ClientConfig, 0, len(c.Clients))
	for _, e := range c.Clients {
		clients = append(clients, monitor.ClientConfig{
			Name:         e.Name,
			Type:         monitor.ClientType(e.Type),
			Path:         e.Path,
			Host:         e.Host,
			Port:         e.Port,
			Password:     e.Password,
			PollInterval: e.PollInterval,
		})
	}
	return clients
}
