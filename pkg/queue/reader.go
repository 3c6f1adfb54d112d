// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package queue

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"time"
)

// Read decodes a complete queue.dat blob from r.
//
// Validation runs in two stages before any field decoding: the blob must be
// exactly QueueLength bytes (a short or long read is an I/O-kind failure,
// ErrQueueLength), and the decoded header version must fall in
// [MinVersion, MaxVersion] (ErrQueueVersion). A failed read never returns a
// partially populated QueueData; the caller retries on its next poll cycle.
func Read(r io.Reader) (*QueueData, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading queue data: %w", err)
	}
	return Decode(buf)
}

// ReadFile decodes queue.dat from disk. Read-only, no retry.
func ReadFile(path string) (*QueueData, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(buf)
}

// Decode decodes an in-memory queue.dat blob.
func Decode(buf []byte) (*QueueData, error) {
	if len(buf) != QueueLength {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrQueueLength, len(buf), QueueLength)
	}

	q := &QueueData{
		Version:      int(u32le(buf, offVersion)),
		CurrentIndex: int(u32le(buf, offCurrentIndex)),
	}
	if q.Version < MinVersion || q.Version > MaxVersion {
		return nil, fmt.Errorf("%w: version %d not in [%d,%d]", ErrQueueVersion, q.Version, MinVersion, MaxVersion)
	}
	if q.CurrentIndex < 0 || q.CurrentIndex >= EntryCount {
		return nil, fmt.Errorf("%w: current index %d", ErrEntryIndex, q.CurrentIndex)
	}

	q.PerformanceFraction = float64(u32le(buf, offPerformanceFraction)) / 1_000_000
	q.PerformanceFractionUnitWeight = int(u32le(buf, offPerformanceFractionUnits))
	q.DownloadRateAverage = float64(u32le(buf, offDownloadRateAverage)) / 1_000
	q.DownloadRateUnitWeight = int(u32le(buf, offDownloadRateUnits))
	q.UploadRateAverage = float64(u32le(buf, offUploadRateAverage)) / 1_000
	q.UploadRateUnitWeight = int(u32le(buf, offUploadRateUnits))
	q.ResultsSentUtc = unixUTC(u32le(buf, offResultsSent))

	for i := 0; i < EntryCount; i++ {
		slot := buf[entriesOffset+i*EntryLength : entriesOffset+(i+1)*EntryLength]
		q.entries[i] = decodeEntry(i, slot)
	}
	return q, nil
}

func decodeEntry(index int, slot []byte) QueueEntry {
	e := QueueEntry{
		Index:  index,
		Status: EntryStatus(u32le(slot, entStatus)),

		NumberOfSmpCores: int(u32le(slot, entNumSmpCores)),
		UseCores:         int(u32le(slot, entUseCores)),
		MachineID:        int(u32le(slot, entMachineID)),

		ProjectIssuedLocal: unixLocal(u32le(slot, entProjectIssued)),
		BeginTimeLocal:     unixLocal(u32le(slot, entBeginTime)),
		EndTimeLocal:       unixLocal(u32le(slot, entEndTime)),
		DueTimeLocal:       unixLocal(u32le(slot, entDueTime)),

		ServerIP:           decodeIP(u32le(slot, entServerIP)),
		ServerPort:         int(u32le(slot, entServerPort)),
		CollectionServerIP: decodeIP(u32le(slot, entCollectionIP)),

		NumberOfUploadFailures: int(u32le(slot, entUploadFailures)),
		PacketSizeLimit:        int(u32le(slot, entPacketSizeLimit)),

		CoreDownloadURL: cstring(slot[entCoreDownloadURL : entCoreDownloadURL+128]),
		CoreNumber:      u32le(slot, entCoreNumber),
		Misc1a:          u32le(slot, entMisc1a),
		Misc1b:          u32le(slot, entMisc1b),

		ProjectID:    int(u16le(slot, entProjectID)),
		ProjectRun:   int(u16le(slot, entProjectRun)),
		ProjectClone: int(u16le(slot, entProjectClone)),
		ProjectGen:   int(u16le(slot, entProjectGen)),

		Benchmark:      int(u32le(slot, entBenchmark)),
		WuDataFileSize: int(u32le(slot, entWuDataFileSize)),

		CPUType:    int(u32le(slot, entCpuType)),
		CPUSpecies: int(u32le(slot, entCpuSpecies)),
		OSType:     int(u32le(slot, entOsType)),
		OSSpecies:  int(u32le(slot, entOsSpecies)),

		Flops:  int(u32le(slot, entFlops)),
		Memory: int(u32le(slot, entMemory)),

		RequiredClientType: cstring(slot[entRequiredClient : entRequiredClient+16]),
		WorkUnitTag:        cstring(slot[entWorkUnitTag : entWorkUnitTag+16]),
		Passkey:            cstring(slot[entPasskey : entPasskey+32]),
		FoldingID:          cstring(slot[entFoldingID : entFoldingID+64]),
		Team:               int(u32le(slot, entTeam)),
		UserID:             hexString(slot[entUserID : entUserID+8]),
		WorkUnitType:       int(u32le(slot, entWorkUnitType)),
	}

	// The writing client records whether it stored these fields big-endian;
	// consumers byte-swap only when the flag says so.
	e.Misc4aBigEndian = slot[entMisc4aBigEndian] != 0
	e.Misc4a = u32flagged(slot, entMisc4a, e.Misc4aBigEndian)

	e.AssignmentInfoBigEndian = slot[entAssignBigEndian] != 0
	e.AssignmentTimestamp = unixUTC(u32flagged(slot, entAssignTimestamp, e.AssignmentInfoBigEndian))
	e.AssignmentChecksum = u32flagged(slot, entAssignChecksum, e.AssignmentInfoBigEndian)

	return e
}

func u32le(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

func u16le(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off : off+2])
}

func u32flagged(b []byte, off int, bigEndian bool) uint32 {
	if bigEndian {
		return binary.BigEndian.Uint32(b[off : off+4])
	}
	return binary.LittleEndian.Uint32(b[off:off+4])
}

// cstring extracts a NUL-terminated string from a fixed-size region.
func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// hexString formats raw ID bytes as uppercase hex, trimming a wholly zero
// region to the empty string.
func hexString(b []byte) string {
	if bytes.Count(b, []byte{0}) == len(b) {
		return ""
	}
	return fmt.Sprintf("%X", b)
}

// decodeIP converts a stored address whose octets the client wrote
// low-to-high into a dotted-quad IP.
func decodeIP(v uint32) net.IP {
	return net.IPv4(byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func unixUTC(v uint32) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(int64(v), 0).UTC()
}

func unixLocal(v uint32) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(int64(v), 0)
}
