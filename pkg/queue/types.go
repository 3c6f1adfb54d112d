// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package queue

import (
	"fmt"
	"net"
	"time"
)

// EntryStatus is the lifecycle state of one queue slot.
type EntryStatus int

const (
	EntryStatusUnknown EntryStatus = iota
	EntryStatusEmpty
	EntryStatusDeleted
	EntryStatusFinished
	EntryStatusGarbage
	EntryStatusFoldingNow
	EntryStatusQueued
	EntryStatusSent
	EntryStatusAbandoned
	EntryStatusFetching
)

// String returns the display name of the status.
func (s EntryStatus) String() string {
	switch s {
	case EntryStatusEmpty:
		return "Empty"
	case EntryStatusDeleted:
		return "Deleted"
	case EntryStatusFinished:
		return "Finished"
	case EntryStatusGarbage:
		return "Garbage"
	case EntryStatusFoldingNow:
		return "Folding Now"
	case EntryStatusQueued:
		return "Queued"
	case EntryStatusSent:
		return "Ready For Upload"
	case EntryStatusAbandoned:
		return "Abandoned"
	case EntryStatusFetching:
		return "Fetching From Server"
	default:
		return "Unknown"
	}
}

// IsCompleted reports whether the slot holds a unit the client is done with
// (finished locally or sent to the collection server).
func (s EntryStatus) IsCompleted() bool {
	return s == EntryStatusFinished || s == EntryStatusSent
}

// QueueData is the decoded queue.dat snapshot: header, ten slots, and the
// trailing transfer statistics. Immutable once decoded; a fresh read of the
// file produces a fresh QueueData.
type QueueData struct {
	// Version is the writing client's version in hundredths (613 = v6.13).
	Version int

	// CurrentIndex is the slot the client is working on, 0-9.
	CurrentIndex int

	PerformanceFraction           float64
	PerformanceFractionUnitWeight int
	DownloadRateAverage           float64
	DownloadRateUnitWeight        int
	UploadRateAverage             float64
	UploadRateUnitWeight          int
	ResultsSentUtc                time.Time

	entries [EntryCount]QueueEntry
}

// VersionString formats the centiversion for display, e.g. 613 -> "6.13".
func (q *QueueData) VersionString() string {
	return fmt.Sprintf("%d.%02d", q.Version/100, q.Version%100)
}

// GetQueueEntry returns the slot at index 0-9.
func (q *QueueData) GetQueueEntry(index int) (*QueueEntry, error) {
	if index < 0 || index >= EntryCount {
		return nil, fmt.Errorf("%w: index %d", ErrEntryIndex, index)
	}
	return &q.entries[index], nil
}

// CurrentEntry returns the slot the client reported as current.
func (q *QueueData) CurrentEntry() *QueueEntry {
	return &q.entries[q.CurrentIndex]
}

// QueueEntry is one decoded work-unit slot. It is a read-only snapshot of
// the on-disk state at read time.
type QueueEntry struct {
	Index  int
	Status EntryStatus

	ProjectID    int
	ProjectRun   int
	ProjectClone int
	ProjectGen   int

	ProjectIssuedLocal time.Time
	BeginTimeLocal     time.Time
	EndTimeLocal       time.Time
	DueTimeLocal       time.Time

	ServerIP           net.IP
	ServerPort         int
	CollectionServerIP net.IP

	CoreDownloadURL string
	CoreNumber      uint32

	Misc1a uint32
	Misc1b uint32

	Misc4aBigEndian bool
	Misc4a          uint32

	AssignmentInfoBigEndian bool
	AssignmentTimestamp     time.Time
	AssignmentChecksum      uint32

	CPUType    int
	CPUSpecies int
	OSType     int
	OSSpecies  int

	NumberOfSmpCores       int
	UseCores               int
	Benchmark              int
	Flops                  int
	Memory                 int
	NumberOfUploadFailures int
	PacketSizeLimit        int
	WuDataFileSize         int
	WorkUnitType           int

	RequiredClientType string
	WorkUnitTag        string
	Passkey            string
	FoldingID          string
	Team               int
	UserID             string
	MachineID          int
}

// CoreNumberHex formats the core number the way the project lists it.
func (e *QueueEntry) CoreNumberHex() string {
	return fmt.Sprintf("%02x", e.CoreNumber)
}

// MegaFlops converts the stored FLOPS benchmark to MFLOPS.
func (e *QueueEntry) MegaFlops() float64 {
	return float64(e.Flops) / 1_000_000
}

// CPUString names the reporting CPU from its type and species codes
// (code = type*100000 + species). Unrecognized codes render as "Unknown".
func (e *QueueEntry) CPUString() string {
	return describe(cpuNames, e.CPUType*100000+e.CPUSpecies)
}

// OSString names the reporting operating system from its type and species
// codes (code = type*100000 + species). Unrecognized codes render as
// "Unknown".
func (e *QueueEntry) OSString() string {
	return describe(osNames, e.OSType*100000+e.OSSpecies)
}

var cpuNames = map[int]string{
	100000: "x86",
	100085: "x86",
	100086: "i86",
	100087: "Pentium IV",
	100186: "i186",
	100286: "i286",
	100386: "i386",
	100486: "i486",
	100586: "Pentium",
	100686: "Pentium II/III",
	160000: "AMD64",
	200000: "PowerPC",
	1100000: "x86",
	1600000: "AMD64",
}

var osNames = map[int]string{
	100000: "Windows",
	100001: "Win95",
	100002: "Win95_OSR2",
	100003: "Win98",
	100004: "Win98SE",
	100005: "WinME",
	100006: "WinNT",
	100007: "Win2K",
	100008: "WinXP",
	100009: "Win2K3",
	200000: "MacOS",
	300000: "OSX",
	400000: "Linux",
	700000: "FreeBSD",
}

func describe(names map[int]string, code int) string {
	if name, ok := names[code]; ok {
		return name
	}
	return "Unknown"
}
