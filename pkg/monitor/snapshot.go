// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package monitor retrieves client data on change and hands immutable
// snapshots to a consumer.
//
// Legacy clients write FAHlog.txt, unitinfo.txt, and queue.dat into a data
// directory; a LegacyWatcher re-reads those on filesystem change. v7+
// clients are polled over their control socket. A Monitor supervises any
// mix of both.
package monitor

import (
	"os"
	"path/filepath"
	"time"

	"github.com/harlam357/hfm-net-sub022/pkg/fahlog"
	"github.com/harlam357/hfm-net-sub022/pkg/queue"
)

// Default file names a legacy client writes into its data directory.
const (
	DefaultLogName      = "FAHlog.txt"
	DefaultUnitInfoName = "unitinfo.txt"
	DefaultQueueName    = "queue.dat"
)

// Snapshot is one immutable capture of a legacy client's on-disk state.
//
// Fields are nil when the corresponding file was absent or unreadable at
// capture time; ReadErrors carries the reasons. A Snapshot is never mutated
// after Capture returns, so consumers may hold it across captures.
type Snapshot struct {
	ClientName string
	CapturedAt time.Time

	Runs     *fahlog.RunHistory
	Queue    *queue.QueueData
	UnitInfo *fahlog.UnitInfo

	ReadErrors []error
}

// SnapshotHandler consumes captures. Called from a single goroutine per
// watcher; captures for one client are never delivered concurrently.
type SnapshotHandler func(Snapshot)

// Capture reads a legacy client's data directory into a Snapshot.
//
// Missing files are not errors: a client that has not yet produced
// queue.dat simply yields a Snapshot with a nil Queue. Read and parse
// failures are collected rather than aborting the capture, so one corrupt
// file does not hide the others.
func Capture(name, dir string) Snapshot {
	snap := Snapshot{
		ClientName: name,
		CapturedAt: time.Now().UTC(),
	}

	logPath := filepath.Join(dir, DefaultLogName)
	if _, err := os.Stat(logPath); err == nil {
		runs, err := fahlog.ReadFile(fahlog.Legacy, logPath)
		if err != nil {
			snap.ReadErrors = append(snap.ReadErrors, err)
		} else {
			snap.Runs = runs
		}
	}

	queuePath := filepath.Join(dir, DefaultQueueName)
	if _, err := os.Stat(queuePath); err == nil {
		data, err := queue.ReadFile(queuePath)
		if err != nil {
			snap.ReadErrors = append(snap.ReadErrors, err)
		} else {
			snap.Queue = data
		}
	}

	unitInfoPath := filepath.Join(dir, DefaultUnitInfoName)
	if f, err := os.Open(unitInfoPath); err == nil {
		info, err := fahlog.ParseUnitInfo(f, time.Now())
		f.Close()
		if err != nil {
			snap.ReadErrors = append(snap.ReadErrors, err)
		} else {
			snap.UnitInfo = info
		}
	}

	return snap
}
