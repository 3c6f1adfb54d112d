// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package queue decodes the legacy Folding@Home client's queue.dat binary
// work-unit queue snapshot.
//
// The file is a fixed 7168-byte structure: a small header, exactly ten
// fixed-size work-unit slots, and a trailing statistics block. Decoding is
// explicit offset-table reading rather than struct overlay: every field is
// read at a named offset with a documented width and byte order. Base byte
// order is little-endian; two per-slot flag bytes mark specific 32-bit
// fields that the writing client encoded big-endian.
package queue

// File geometry. The length check runs before any field decoding: a blob
// whose size differs from QueueLength is rejected outright.
const (
	// QueueLength is the exact size of a valid queue.dat blob.
	QueueLength = 7168

	// EntryCount is the fixed number of work-unit slots.
	EntryCount = 10

	// EntryLength is the size of one slot record.
	EntryLength = 704

	entriesOffset = 8
	footerOffset  = entriesOffset + EntryCount*EntryLength // 7048
)

// Supported header versions, encoded as hundredths (613 = client v6.13).
const (
	MinVersion = 500
	MaxVersion = 699
)

// Header field offsets (absolute).
const (
	offVersion      = 0x0000 // u32 centiversion
	offCurrentIndex = 0x0004 // u32, 0-9
)

// Footer field offsets (absolute). Rates are stored scaled by 1000,
// the performance fraction by 1,000,000.
const (
	offPerformanceFraction     = footerOffset + 0  // u32 scaled 1e6
	offPerformanceFractionUnits = footerOffset + 4 // u32 unit weight
	offDownloadRateAverage     = footerOffset + 8  // u32 bytes/sec scaled 1e3
	offDownloadRateUnits       = footerOffset + 12 // u32 unit weight
	offUploadRateAverage       = footerOffset + 16 // u32 bytes/sec scaled 1e3
	offUploadRateUnits         = footerOffset + 20 // u32 unit weight
	offResultsSent             = footerOffset + 24 // u32 unix seconds, UTC
)

// Entry field offsets (relative to the slot's base). Widths are noted per
// field; strings are NUL-terminated within their fixed regions.
const (
	entStatus           = 0   // u32
	entNumSmpCores      = 4   // u32
	entUseCores         = 8   // u32
	entMachineID        = 12  // u32
	entProjectIssued    = 16  // u32 unix seconds, local
	entBeginTime        = 20  // u32 unix seconds, local
	entEndTime          = 24  // u32 unix seconds, local
	entDueTime          = 28  // u32 unix seconds, local
	entServerIP         = 32  // u32, octets stored low-to-high
	entServerPort       = 36  // u32
	entCollectionIP     = 40  // u32, octets stored low-to-high
	entUploadFailures   = 44  // u32
	entPacketSizeLimit  = 48  // u32
	entCoreDownloadURL  = 52  // [128]byte
	entCoreNumber       = 180 // u32, presented as hex
	entMisc1a           = 184 // u32
	entMisc1b           = 188 // u32
	entProjectID        = 192 // u16
	entProjectRun       = 194 // u16
	entProjectClone     = 196 // u16
	entProjectGen       = 198 // u16
	entBenchmark        = 200 // u32
	entWuDataFileSize   = 204 // u32
	entMisc4aBigEndian  = 208 // byte flag, non-zero = big-endian
	entMisc4a           = 212 // u32, byte order per flag
	entAssignBigEndian  = 216 // byte flag, non-zero = big-endian
	entAssignTimestamp  = 220 // u32, byte order per flag
	entAssignChecksum   = 224 // u32, byte order per flag
	entCpuType          = 228 // u32
	entCpuSpecies       = 232 // u32
	entOsType           = 236 // u32
	entOsSpecies        = 240 // u32
	entFlops            = 244 // u32
	entMemory           = 248 // u32 MB
	entRequiredClient   = 252 // [16]byte
	entWorkUnitTag      = 268 // [16]byte
	entPasskey          = 284 // [32]byte
	entFoldingID        = 316 // [64]byte
	entTeam             = 380 // u32
	entUserID           = 384 // [8]byte, presented as hex
	entWorkUnitType     = 392 // u32
)
