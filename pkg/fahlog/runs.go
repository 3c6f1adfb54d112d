// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fahlog

import (
	"time"
)

// Frame is one observed progress checkpoint within a unit run.
//
// Duration is the wall-clock delta from the previous frame's timestamp,
// corrected for midnight rollover. It is zero for the first frame of a unit
// (no prior frame to diff against).
type Frame struct {
	ID                int
	RawFramesComplete int
	RawFramesTotal    int
	TimeStamp         time.Duration
	Duration          time.Duration
}

// UnitRun is the progress slice of one work unit within a client run.
type UnitRun struct {
	QueueIndex  int
	FoldingSlot int
	Project     *Project
	CoreVersion string
	Frames      []Frame
	Result      WorkUnitResult

	startIndex int
}

// LastFrame returns the most recently observed frame, or nil before the
// first frame arrives.
func (u *UnitRun) LastFrame() *Frame {
	if len(u.Frames) == 0 {
		return nil
	}
	return &u.Frames[len(u.Frames)-1]
}

// PercentComplete reports the latest frame's normalized percentage.
func (u *UnitRun) PercentComplete() int {
	f := u.LastFrame()
	if f == nil {
		return 0
	}
	return f.ID
}

// ClientRun is one contiguous client execution period: from a log-open
// banner to the next banner or the end of available log text.
type ClientRun struct {
	StartIndex int

	ClientVersion  string
	Arguments      string
	UserName       string
	Team           int
	UserID         string
	MachineID      int
	CompletedUnits int

	UnitRuns []*UnitRun
}

// CurrentUnitRun returns the unit run in progress, or nil before any unit
// slot has been opened in this run.
func (r *ClientRun) CurrentUnitRun() *UnitRun {
	if len(r.UnitRuns) == 0 {
		return nil
	}
	return r.UnitRuns[len(r.UnitRuns)-1]
}

// RunHistory is the reconstructed history for one log: an append-only,
// LineIndex-ordered list of client runs plus the recoverable parse errors
// collected along the way.
type RunHistory struct {
	Runs          []*ClientRun
	ParsingErrors []LogLine
}

// CurrentClientRun returns the most recent run, or nil when no log-open
// banner has been seen yet. Callers must treat nil as "no run data yet".
func (h *RunHistory) CurrentClientRun() *ClientRun {
	if len(h.Runs) == 0 {
		return nil
	}
	return h.Runs[len(h.Runs)-1]
}

// Interpret folds an ordered LogLine sequence into a RunHistory.
//
// The state machine has two states. Before the first log-open banner every
// line except the banner itself is ignored (NoRun). Once a run is open
// (InRun), run-level fields accumulate as their line types appear, unit-slot
// lines open or resume unit runs, frames append with rollover-corrected
// durations, and shutdown lines close the current unit. A new banner closes
// the current run and opens the next; end of input leaves the last run open.
//
// Error-typed lines are collected into ParsingErrors and never abort
// reconstruction.
func Interpret(lines []LogLine) *RunHistory {
	h := &RunHistory{}
	for _, line := range lines {
		if line.LineType == LineTypeError {
			h.ParsingErrors = append(h.ParsingErrors, line)
			continue
		}
		if line.LineType == LineTypeLogOpen {
			h.Runs = append(h.Runs, &ClientRun{StartIndex: line.LineIndex})
			continue
		}
		run := h.CurrentClientRun()
		if run == nil {
			continue
		}
		applyLine(run, line)
	}
	return h
}

func applyLine(run *ClientRun, line LogLine) {
	switch line.LineType {
	case LineTypeClientVersion:
		run.ClientVersion, _ = line.Data.(string)
	case LineTypeClientArguments:
		run.Arguments, _ = line.Data.(string)
	case LineTypeClientUserNameTeam:
		if ut, ok := line.Data.(*UserNameTeam); ok {
			if ut.Name != "" {
				run.UserName = ut.Name
			}
			if ut.Team != 0 {
				run.Team = ut.Team
			}
		}
	case LineTypeClientReceivedUserID, LineTypeClientUserID:
		run.UserID, _ = line.Data.(string)
	case LineTypeClientMachineID:
		if n, ok := line.Data.(int); ok {
			run.MachineID = n
		}
	case LineTypeClientNumberOfUnitsCompleted:
		if n, ok := line.Data.(int); ok {
			run.CompletedUnits = n
		}
	case LineTypeWorkUnitIndex, LineTypeWorkUnitQueueIndex:
		index, _ := line.Data.(int)
		openUnitRun(run, index, line.LineIndex)
	case LineTypeWorkUnitWorking:
		if index, ok := line.Data.(int); ok {
			openUnitRun(run, index, line.LineIndex)
		} else if unit := run.CurrentUnitRun(); unit == nil || unit.Result != WorkUnitResultUnknown {
			// Legacy "+ Processing work unit" with no slot announcement of
			// its own: resume the open unit or start an unnumbered one.
			run.UnitRuns = append(run.UnitRuns, &UnitRun{startIndex: line.LineIndex})
		}
	case LineTypeWorkUnitProject:
		if unit := run.CurrentUnitRun(); unit != nil {
			unit.Project, _ = line.Data.(*Project)
		}
	case LineTypeWorkUnitCoreVersion:
		if unit := run.CurrentUnitRun(); unit != nil {
			unit.CoreVersion, _ = line.Data.(string)
		}
	case LineTypeWorkUnitFrame:
		if unit := run.CurrentUnitRun(); unit != nil {
			if fd, ok := line.Data.(*FrameData); ok {
				appendFrame(unit, fd, line.Raw)
			}
		}
	case LineTypeWorkUnitCoreShutdown:
		if unit := run.CurrentUnitRun(); unit != nil {
			if result, ok := line.Data.(WorkUnitResult); ok {
				unit.Result = result
			}
		}
	}
}

// openUnitRun opens a new unit run for the given slot, or resumes the
// current one when the client re-announces the slot it is already on.
func openUnitRun(run *ClientRun, queueIndex, lineIndex int) {
	if unit := run.CurrentUnitRun(); unit != nil {
		if unit.QueueIndex == queueIndex && unit.Result == WorkUnitResultUnknown {
			return
		}
	}
	run.UnitRuns = append(run.UnitRuns, &UnitRun{QueueIndex: queueIndex, startIndex: lineIndex})
}

// appendFrame appends a progress frame, computing its duration as the delta
// from the previous frame's time of day. A later timestamp smaller than the
// prior one implies the clock crossed midnight, so 24 hours are added before
// subtracting. Duration stays zero until at least two frames exist.
//
// Frame IDs within a unit must be non-decreasing; a frame that regresses is
// a stale repeat and is dropped.
func appendFrame(unit *UnitRun, fd *FrameData, raw string) {
	ts, hasTS := ParseTimeStamp(raw)
	frame := Frame{
		ID:                fd.ID,
		RawFramesComplete: fd.RawFramesComplete,
		RawFramesTotal:    fd.RawFramesTotal,
		TimeStamp:         ts,
	}
	if prev := unit.LastFrame(); prev != nil {
		if frame.ID < prev.ID {
			return
		}
		if hasTS {
			delta := ts - prev.TimeStamp
			if delta < 0 {
				delta += 24 * time.Hour
			}
			frame.Duration = delta
		}
	}
	unit.Frames = append(unit.Frames, frame)
}
