// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harlam357/hfm-net-sub022/pkg/monitor"
	"github.com/harlam357/hfm-net-sub022/pkg/queue"
)

const testLog = `--- Opening Log file [December 15 14:33:20 UTC]
--- Folding@home Client Version 6.30
[00:00:05] - User name: harlam357 (Team 32)
[00:00:07] Working on queue slot 01 [December 15 14:33:22 UTC]
[00:00:10] Project: 2677 (Run 10, Clone 29, Gen 28)
[00:05:10] Completed 25000 out of 250000 steps  (10%)
[02:39:40] Folding@home Core Shutdown: FINISHED_UNIT
`

const testConfig = `
logging:
  level: debug
  json: true
metrics:
  addr: ":9090"
clients:
  - name: rig1
    type: legacy
    path: /data/fah
  - name: rig2
    type: fahclient
    host: 192.168.1.50
    port: 36330
    password: hunter2
    poll-interval: 30s
`

// =============================================================================
// Config Tests
// =============================================================================

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hfm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)

	require.Len(t, cfg.Clients, 2)
	assert.Equal(t, "legacy", cfg.Clients[0].Type)
	assert.Equal(t, "/data/fah", cfg.Clients[0].Path)
	assert.Equal(t, "hunter2", cfg.Clients[1].Password)
	assert.Equal(t, 30*time.Second, cfg.Clients[1].PollInterval)

	clients := cfg.monitorClients()
	require.Len(t, clients, 2)
	assert.Equal(t, monitor.ClientTypeLegacy, clients[0].Type)
	assert.Equal(t, monitor.ClientTypeFahClient, clients[1].Type)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hfm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("clients: {not: [a, list"), 0o644))

	_, err := loadConfig(path)
	assert.Error(t, err)
}

// =============================================================================
// Command Tests
// =============================================================================

func TestRunParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "FAHlog.txt")
	require.NoError(t, os.WriteFile(path, []byte(testLog), 0o644))

	var out bytes.Buffer
	parseCmd.SetOut(&out)
	defer parseCmd.SetOut(nil)

	require.NoError(t, runParse(parseCmd, []string{path}))

	text := out.String()
	assert.Contains(t, text, "Client version: 6.30")
	assert.Contains(t, text, "harlam357 (Team 32)")
	assert.Contains(t, text, "Project: 2677 (Run 10, Clone 29, Gen 28)")
	assert.Contains(t, text, "FINISHED_UNIT")
}

func TestRunParse_MissingFile(t *testing.T) {
	err := runParse(parseCmd, []string{filepath.Join(t.TempDir(), "nope.txt")})
	assert.Error(t, err)
}

func TestRunQueue(t *testing.T) {
	buf := make([]byte, queue.QueueLength)
	binary.LittleEndian.PutUint32(buf[0:4], 613)
	path := filepath.Join(t.TempDir(), "queue.dat")
	require.NoError(t, os.WriteFile(path, []byte(buf), 0o644))

	var out bytes.Buffer
	queueCmd.SetOut(&out)
	defer queueCmd.SetOut(nil)

	require.NoError(t, runQueue(queueCmd, []string{path}))
	assert.Contains(t, out.String(), "queue.dat version 6.13")
}

func TestRunQueue_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.dat")
	require.NoError(t, os.WriteFile(path, []byte("short"), 0o644))

	err := runQueue(queueCmd, []string{path})
	assert.ErrorIs(t, err, queue.ErrQueueLength)
}
