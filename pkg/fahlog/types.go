// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package fahlog classifies Folding@Home client log lines and reconstructs
// client run history from them.
//
// Two client generations are supported:
//
//   - Legacy: the v5/v6 file-based clients (FAHlog.txt, unitinfo.txt)
//   - FahClient: the v7+ socket-based client (log text arrives over the
//     wire as log-restart/log-update message payloads)
//
// Classification is stateless and line-at-a-time (Classify). Stateful
// reconstruction of runs and work-unit progress is a separate pass over the
// classified lines (Interpret).
package fahlog

import (
	"fmt"
	"time"
)

// Generation selects the client generation whose log format is being parsed.
type Generation int

const (
	// Legacy is the v5/v6 file-based client.
	Legacy Generation = iota

	// FahClient is the v7+ socket-based client.
	FahClient
)

// String returns the human-readable name of the generation.
func (g Generation) String() string {
	switch g {
	case Legacy:
		return "legacy"
	case FahClient:
		return "fahclient"
	default:
		return "unknown"
	}
}

// LineType tags a classified log line with its semantic category.
//
// The taxonomy is the generation-independent superset: not every type occurs
// in both generations, but a given raw line always maps to exactly one type.
type LineType int

const (
	// LineTypeUnknown is any line no pattern recognized. Data holds the raw text.
	LineTypeUnknown LineType = iota

	// LineTypeError is a line that matched a pattern but whose captured
	// fields failed conversion. Data holds a *ParseError.
	LineTypeError

	// LineTypeLogOpen is the client start banner that opens a new run.
	LineTypeLogOpen

	// LineTypeClientVersion carries the client version string.
	LineTypeClientVersion

	// LineTypeClientArguments carries the client's command-line arguments.
	LineTypeClientArguments

	// LineTypeClientUserNameTeam carries the folding user name and team
	// number. Data holds a *UserNameTeam.
	LineTypeClientUserNameTeam

	// LineTypeClientReceivedUserID is the server-assigned user ID echo.
	LineTypeClientReceivedUserID

	// LineTypeClientUserID carries the locally stored user ID.
	LineTypeClientUserID

	// LineTypeClientMachineID carries the machine ID number.
	LineTypeClientMachineID

	// LineTypeWorkUnitIndex marks the unit slot the client started working
	// on ("Working on Unit 0x" / v7 "WUxx:FSyy ... Starting"). Data holds an int.
	LineTypeWorkUnitIndex

	// LineTypeWorkUnitQueueIndex marks the queue slot for v6 clients
	// ("Working on queue slot 0x"). Data holds an int.
	LineTypeWorkUnitQueueIndex

	// LineTypeWorkUnitWorking marks the start of work-unit processing.
	LineTypeWorkUnitWorking

	// LineTypeWorkUnitProject carries project/run/clone/gen. Data holds a *Project.
	LineTypeWorkUnitProject

	// LineTypeWorkUnitCoreVersion carries the folding core version string.
	LineTypeWorkUnitCoreVersion

	// LineTypeWorkUnitFrame is a progress checkpoint. Data holds a *FrameData.
	LineTypeWorkUnitFrame

	// LineTypeWorkUnitCoreShutdown is the core's terminal result line.
	// Data holds a WorkUnitResult.
	LineTypeWorkUnitCoreShutdown

	// LineTypeClientNumberOfUnitsCompleted carries the client's own count of
	// completed units. Data holds an int.
	LineTypeClientNumberOfUnitsCompleted

	// LineTypeClientCoreCommunicationsError is a client-core communications
	// error report.
	LineTypeClientCoreCommunicationsError
)

// String returns the string representation of the line type.
func (t LineType) String() string {
	switch t {
	case LineTypeUnknown:
		return "Unknown"
	case LineTypeError:
		return "Error"
	case LineTypeLogOpen:
		return "LogOpen"
	case LineTypeClientVersion:
		return "ClientVersion"
	case LineTypeClientArguments:
		return "ClientArguments"
	case LineTypeClientUserNameTeam:
		return "ClientUserNameTeam"
	case LineTypeClientReceivedUserID:
		return "ClientReceivedUserID"
	case LineTypeClientUserID:
		return "ClientUserID"
	case LineTypeClientMachineID:
		return "ClientMachineID"
	case LineTypeWorkUnitIndex:
		return "WorkUnitIndex"
	case LineTypeWorkUnitQueueIndex:
		return "WorkUnitQueueIndex"
	case LineTypeWorkUnitWorking:
		return "WorkUnitWorking"
	case LineTypeWorkUnitProject:
		return "WorkUnitProject"
	case LineTypeWorkUnitCoreVersion:
		return "WorkUnitCoreVersion"
	case LineTypeWorkUnitFrame:
		return "WorkUnitFrame"
	case LineTypeWorkUnitCoreShutdown:
		return "WorkUnitCoreShutdown"
	case LineTypeClientNumberOfUnitsCompleted:
		return "ClientNumberOfUnitsCompleted"
	case LineTypeClientCoreCommunicationsError:
		return "ClientCoreCommunicationsError"
	default:
		return "Unknown"
	}
}

// LogLine is one classified log line. Immutable once produced.
//
// Data is the typed payload for the line's category: a string for simple
// captures (version, arguments, IDs), an int for counters and indexes, a
// structured value (*UserNameTeam, *Project, *FrameData), a WorkUnitResult
// for shutdown lines, or a *ParseError when field conversion failed.
type LogLine struct {
	LineType  LineType
	LineIndex int
	Raw       string
	Data      any
}

func (l LogLine) String() string {
	return fmt.Sprintf("%s: %s", l.LineType, l.Raw)
}

// ParseError is the recoverable error payload of a LineTypeError line.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string { return e.Message }

// UserNameTeam is the payload of a LineTypeClientUserNameTeam line.
type UserNameTeam struct {
	Name string
	Team int
}

func (u UserNameTeam) String() string {
	return fmt.Sprintf("%s (Team %d)", u.Name, u.Team)
}

// Project identifies a work unit by project/run/clone/gen.
type Project struct {
	ProjectID int
	Run       int
	Clone     int
	Gen       int
}

func (p Project) String() string {
	return fmt.Sprintf("Project: %d (Run %d, Clone %d, Gen %d)", p.ProjectID, p.Run, p.Clone, p.Gen)
}

// FrameData is the payload of a LineTypeWorkUnitFrame line.
//
// Legacy cores report frames in two styles: step counts
// ("Completed 500000 out of 1000000 steps (50%)") and bare percentages
// ("Completed 50%" or "Completed 50 percent"). Both normalize to an ID in
// [0,100]. RawFramesComplete/RawFramesTotal are zero for the percent style.
type FrameData struct {
	ID                int
	RawFramesComplete int
	RawFramesTotal    int
	TimeStamp         time.Duration
}

// WorkUnitResult is the terminal result a folding core reports for a unit.
type WorkUnitResult int

const (
	WorkUnitResultUnknown WorkUnitResult = iota
	WorkUnitResultFinishedUnit
	WorkUnitResultEarlyUnitEnd
	WorkUnitResultUnstableMachine
	WorkUnitResultInterrupted
	WorkUnitResultBadWorkUnit
	WorkUnitResultCoreOutdated
	WorkUnitResultUnknownEnum
)

// String returns the core's wire spelling of the result.
func (r WorkUnitResult) String() string {
	switch r {
	case WorkUnitResultFinishedUnit:
		return "FINISHED_UNIT"
	case WorkUnitResultEarlyUnitEnd:
		return "EARLY_UNIT_END"
	case WorkUnitResultUnstableMachine:
		return "UNSTABLE_MACHINE"
	case WorkUnitResultInterrupted:
		return "INTERRUPTED"
	case WorkUnitResultBadWorkUnit:
		return "BAD_WORK_UNIT"
	case WorkUnitResultCoreOutdated:
		return "CORE_OUTDATED"
	case WorkUnitResultUnknownEnum:
		return "UNKNOWN_ENUM"
	default:
		return "UNKNOWN"
	}
}

// ParseWorkUnitResult maps a core shutdown string to a WorkUnitResult.
//
// Recognized spellings are the legacy core's shutdown reasons and the v7
// FahCore return names. Unrecognized non-empty strings map to
// WorkUnitResultUnknownEnum, never to an error.
func ParseWorkUnitResult(s string) WorkUnitResult {
	switch s {
	case "FINISHED_UNIT":
		return WorkUnitResultFinishedUnit
	case "EARLY_UNIT_END":
		return WorkUnitResultEarlyUnitEnd
	case "UNSTABLE_MACHINE":
		return WorkUnitResultUnstableMachine
	case "INTERRUPTED":
		return WorkUnitResultInterrupted
	case "BAD_WORK_UNIT":
		return WorkUnitResultBadWorkUnit
	case "CORE_OUTDATED":
		return WorkUnitResultCoreOutdated
	case "":
		return WorkUnitResultUnknown
	default:
		return WorkUnitResultUnknownEnum
	}
}
