// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package monitor

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harlam357/hfm-net-sub022/pkg/queue"
)

const legacyLog = `--- Opening Log file [December 15 14:33:20 UTC]
--- Folding@home Client Version 6.30
[00:00:05] - User name: harlam357 (Team 32)
[00:00:07] Working on queue slot 01 [December 15 14:33:22 UTC]
[00:00:10] Project: 2677 (Run 10, Clone 29, Gen 28)
[00:05:10] Completed 25000 out of 250000 steps  (10%)
`

const unitInfo = `Current Work Unit
-----------------
Name: p2677_IBX in water
Tag: P2677R10C29G28
Download time: December 15 14:33:21
Due time: December 21 14:33:21
Progress: 10%  [|_________]
`

// queueFixture returns a minimal valid queue.dat image: correct length and
// a version inside the supported range.
func queueFixture() []byte {
	buf := make([]byte, queue.QueueLength)
	binary.LittleEndian.PutUint32(buf[0:4], 613)
	return buf
}

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

// =============================================================================
// Capture Tests
// =============================================================================

func TestCapture_EmptyDir(t *testing.T) {
	snap := Capture("empty", t.TempDir())

	assert.Equal(t, "empty", snap.ClientName)
	assert.False(t, snap.CapturedAt.IsZero())
	assert.Nil(t, snap.Runs)
	assert.Nil(t, snap.Queue)
	assert.Nil(t, snap.UnitInfo)
	assert.Empty(t, snap.ReadErrors)
}

func TestCapture_FullDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultLogName, []byte(legacyLog))
	writeFile(t, dir, DefaultUnitInfoName, []byte(unitInfo))
	writeFile(t, dir, DefaultQueueName, queueFixture())

	snap := Capture("rig1", dir)
	assert.Empty(t, snap.ReadErrors)

	require.NotNil(t, snap.Runs)
	require.Len(t, snap.Runs.Runs, 1)
	assert.Equal(t, "harlam357", snap.Runs.CurrentClientRun().UserName)

	require.NotNil(t, snap.Queue)
	assert.Equal(t, "6.13", snap.Queue.VersionString())

	require.NotNil(t, snap.UnitInfo)
	assert.Equal(t, "p2677_IBX in water", snap.UnitInfo.ProteinName)
	assert.Equal(t, 10, snap.UnitInfo.PercentComplete)
}

func TestCapture_CorruptQueueDoesNotHideLog(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultLogName, []byte(legacyLog))
	writeFile(t, dir, DefaultQueueName, []byte("truncated"))

	snap := Capture("rig1", dir)

	require.NotNil(t, snap.Runs)
	assert.Nil(t, snap.Queue)
	require.Len(t, snap.ReadErrors, 1)
	assert.ErrorIs(t, snap.ReadErrors[0], queue.ErrQueueLength)
}
