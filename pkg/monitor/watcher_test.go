// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harlam357/hfm-net-sub022/pkg/logging"
)

func quietOpts(debounce time.Duration) *LegacyWatcherOptions {
	return &LegacyWatcherOptions{
		DebounceWindow: debounce,
		Logger:         logging.New(logging.Config{Quiet: true}),
	}
}

func nextSnapshot(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

// =============================================================================
// LegacyWatcher Tests
// =============================================================================

func TestLegacyWatcher_InitialSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultLogName, []byte(legacyLog))

	snaps := make(chan Snapshot, 8)
	watcher, err := NewLegacyWatcher("rig1", dir, func(s Snapshot) { snaps <- s }, quietOpts(50*time.Millisecond))
	require.NoError(t, err)
	defer watcher.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))
	assert.True(t, watcher.IsWatching())

	snap := nextSnapshot(t, snaps)
	assert.Equal(t, "rig1", snap.ClientName)
	require.NotNil(t, snap.Runs)
	assert.Len(t, snap.Runs.Runs, 1)
}

func TestLegacyWatcher_RecapturesOnChange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultLogName, []byte(legacyLog))

	snaps := make(chan Snapshot, 8)
	watcher, err := NewLegacyWatcher("rig1", dir, func(s Snapshot) { snaps <- s }, quietOpts(50*time.Millisecond))
	require.NoError(t, err)
	defer watcher.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))
	nextSnapshot(t, snaps) // initial

	// Append a frame line; the next capture should pick it up.
	appended := legacyLog + "[00:15:10] Completed 50000 out of 250000 steps  (20%)\n"
	writeFile(t, dir, DefaultLogName, []byte(appended))

	snap := nextSnapshot(t, snaps)
	require.NotNil(t, snap.Runs)
	run := snap.Runs.CurrentClientRun()
	require.NotNil(t, run)
	require.Len(t, run.UnitRuns, 1)
	assert.Len(t, run.UnitRuns[0].Frames, 2)
}

func TestLegacyWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultLogName, []byte(legacyLog))

	snaps := make(chan Snapshot, 8)
	watcher, err := NewLegacyWatcher("rig1", dir, func(s Snapshot) { snaps <- s }, quietOpts(50*time.Millisecond))
	require.NoError(t, err)
	defer watcher.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))
	nextSnapshot(t, snaps) // initial

	writeFile(t, dir, "FahCore_a4.exe", []byte("not a client file"))

	select {
	case snap := <-snaps:
		t.Fatalf("unrelated file triggered a capture: %+v", snap)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestLegacyWatcher_StartTwice(t *testing.T) {
	dir := t.TempDir()
	snaps := make(chan Snapshot, 8)
	watcher, err := NewLegacyWatcher("rig1", dir, func(s Snapshot) { snaps <- s }, quietOpts(50*time.Millisecond))
	require.NoError(t, err)
	defer watcher.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))
	require.NoError(t, watcher.Start(ctx))

	nextSnapshot(t, snaps)
	select {
	case <-snaps:
		t.Fatal("second Start should not emit a second initial snapshot")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestLegacyWatcher_Stop(t *testing.T) {
	dir := t.TempDir()
	watcher, err := NewLegacyWatcher("rig1", dir, nil, quietOpts(50*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	watcher.Stop()
	watcher.Stop() // idempotent
	assert.False(t, watcher.IsWatching())
}

func TestIsClientFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/data/FAHlog.txt", true},
		{"/data/unitinfo.txt", true},
		{"/data/queue.dat", true},
		{"/data/FAHlog-Prev.txt", false},
		{"/data/work/wudata_01.dat", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isClientFile(tt.path), tt.path)
	}
}
