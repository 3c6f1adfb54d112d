// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fahlog

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// rule binds one pattern to its line type and field conversion.
//
// convert turns the named capture groups into the line's typed payload. A
// conversion error downgrades the line to LineTypeError; it never aborts
// classification of subsequent lines.
type rule struct {
	lineType LineType
	re       *regexp.Regexp
	convert  func(groups map[string]string) (any, error)
}

// Rule precedence is significant: rules are tried in slice order and the
// first regex match wins. Specific literals ("Folding@home Core Shutdown:")
// must come before patterns they could shadow (generic frame progress), so
// the order is declared here as data rather than re-derived per call site.
var legacyRules = []rule{
	{LineTypeLogOpen, legacyLogOpen, nil},
	{LineTypeClientVersion, legacyClientVersion, convertGroup("Version")},
	{LineTypeClientArguments, legacyClientArguments, convertGroup("Arguments")},
	{LineTypeClientUserNameTeam, legacyUserNameTeam, convertUserNameTeam},
	{LineTypeClientReceivedUserID, legacyReceivedUserID, convertGroup("UserID")},
	{LineTypeClientUserID, legacyUserID, convertGroup("UserID")},
	{LineTypeClientMachineID, legacyMachineID, convertGroupInt("MachineID")},
	{LineTypeWorkUnitIndex, legacyUnitIndex, convertGroupInt("UnitIndex")},
	{LineTypeWorkUnitQueueIndex, legacyQueueIndex, convertGroupInt("QueueIndex")},
	{LineTypeWorkUnitWorking, legacyWorkUnitWorking, nil},
	{LineTypeWorkUnitCoreShutdown, legacyCoreShutdown, convertUnitResult},
	{LineTypeWorkUnitProject, projectInfo, convertProject},
	{LineTypeWorkUnitCoreVersion, legacyCoreVersion, convertGroup("CoreVer")},
	{LineTypeWorkUnitFrame, frameSteps, convertFrameSteps},
	{LineTypeWorkUnitFrame, framePercent, convertFramePercent},
	{LineTypeClientNumberOfUnitsCompleted, legacyCompletedUnits, convertGroupInt("Completed")},
	{LineTypeClientCoreCommunicationsError, legacyCoreCommsError, nil},
}

var fahClientRules = []rule{
	{LineTypeLogOpen, fahClientLogOpen, nil},
	{LineTypeWorkUnitCoreShutdown, fahClientCoreReturn, convertUnitResult},
	{LineTypeWorkUnitWorking, fahClientUnitWorking, convertGroupInt("UnitIndex")},
	{LineTypeWorkUnitIndex, fahClientUnitIndex, convertGroupInt("UnitIndex")},
	{LineTypeWorkUnitCoreVersion, fahClientCoreVersion, convertGroup("CoreVer")},
	{LineTypeWorkUnitProject, projectInfo, convertProject},
	{LineTypeWorkUnitFrame, frameSteps, convertFrameSteps},
	{LineTypeWorkUnitFrame, framePercent, convertFramePercent},
	{LineTypeClientVersion, fahClientVersion, convertGroup("Version")},
	{LineTypeClientArguments, fahClientArguments, convertGroup("Arguments")},
	// The v7 log header reports user and team on separate lines; both carry
	// a partially populated UserNameTeam the interpreter merges.
	{LineTypeClientUserNameTeam, fahClientUser, convertUserOnly},
	{LineTypeClientUserNameTeam, fahClientTeam, convertTeamOnly},
}

// Classify converts one raw log line into exactly one LogLine.
//
// Classification is a pure function of (generation, raw line): it holds no
// state and never looks at neighboring lines, so it is safe to call
// concurrently and repeat calls on the same input yield identical results.
// Stateful reconstruction belongs to Interpret.
//
// Error handling: a regex match whose captured fields fail conversion
// produces a LineTypeError line referencing the raw text; a line no pattern
// recognizes produces LineTypeUnknown with the raw text as payload. Neither
// is fatal.
func Classify(gen Generation, index int, raw string) LogLine {
	rules := legacyRules
	if gen == FahClient {
		rules = fahClientRules
	}
	for _, r := range rules {
		groups, ok := matchGroups(r.re, raw)
		if !ok {
			continue
		}
		line := LogLine{LineType: r.lineType, LineIndex: index, Raw: raw}
		if r.convert == nil {
			return line
		}
		data, err := r.convert(groups)
		if err != nil {
			line.LineType = LineTypeError
			line.Data = &ParseError{Message: fmt.Sprintf("failed to parse %s line %q: %v", r.lineType, raw, err)}
			return line
		}
		line.Data = data
		return line
	}
	return LogLine{LineType: LineTypeUnknown, LineIndex: index, Raw: raw, Data: raw}
}

// ClassifyAll classifies every line of a log in order.
func ClassifyAll(gen Generation, lines []string) []LogLine {
	out := make([]LogLine, len(lines))
	for i, raw := range lines {
		out[i] = Classify(gen, i, raw)
	}
	return out
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(s)
}

// convertGroup keeps a single named capture as a string payload.
func convertGroup(name string) func(map[string]string) (any, error) {
	return func(groups map[string]string) (any, error) {
		v, ok := groups[name]
		if !ok {
			return nil, fmt.Errorf("missing capture group %q", name)
		}
		return v, nil
	}
}

// convertGroupInt parses a single named capture as an int payload.
func convertGroupInt(name string) func(map[string]string) (any, error) {
	return func(groups map[string]string) (any, error) {
		n, err := parseInt(groups[name])
		if err != nil {
			return nil, fmt.Errorf("capture group %q: %w", name, err)
		}
		return n, nil
	}
}

func convertUserNameTeam(groups map[string]string) (any, error) {
	team, err := parseInt(groups["Team"])
	if err != nil {
		return nil, fmt.Errorf("team number: %w", err)
	}
	return &UserNameTeam{Name: groups["Username"], Team: team}, nil
}

func convertUserOnly(groups map[string]string) (any, error) {
	return &UserNameTeam{Name: groups["Username"]}, nil
}

func convertTeamOnly(groups map[string]string) (any, error) {
	team, err := parseInt(groups["Team"])
	if err != nil {
		return nil, fmt.Errorf("team number: %w", err)
	}
	return &UserNameTeam{Team: team}, nil
}

func convertProject(groups map[string]string) (any, error) {
	p := &Project{}
	var err error
	if p.ProjectID, err = parseInt(groups["ProjectNumber"]); err != nil {
		return nil, fmt.Errorf("project number: %w", err)
	}
	if p.Run, err = parseInt(groups["Run"]); err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	if p.Clone, err = parseInt(groups["Clone"]); err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	if p.Gen, err = parseInt(groups["Gen"]); err != nil {
		return nil, fmt.Errorf("gen: %w", err)
	}
	return p, nil
}

func convertUnitResult(groups map[string]string) (any, error) {
	return ParseWorkUnitResult(groups["UnitResult"]), nil
}

// convertFrameSteps handles "Completed X out of Y steps (Z%)".
//
// The frame ID derives from the raw step counts when the total is large
// enough to carry percent resolution; otherwise the reported percentage is
// used directly. Both styles normalize into [0,100].
func convertFrameSteps(groups map[string]string) (any, error) {
	completed, err := parseInt(groups["Completed"])
	if err != nil {
		return nil, fmt.Errorf("steps completed: %w", err)
	}
	total, err := parseInt(groups["Total"])
	if err != nil {
		return nil, fmt.Errorf("steps total: %w", err)
	}
	percent, err := parseInt(groups["Percent"])
	if err != nil {
		return nil, fmt.Errorf("percent: %w", err)
	}
	if percent < 0 || percent > 100 {
		return nil, fmt.Errorf("percent %d out of range", percent)
	}
	id := percent
	if total >= 100 {
		id = completed / (total / 100)
	}
	return &FrameData{ID: id, RawFramesComplete: completed, RawFramesTotal: total}, nil
}

// convertFramePercent handles "Completed Z%" and "Completed Z percent".
func convertFramePercent(groups map[string]string) (any, error) {
	percent, err := parseInt(groups["Percent"])
	if err != nil {
		return nil, fmt.Errorf("percent: %w", err)
	}
	if percent < 0 || percent > 100 {
		return nil, fmt.Errorf("percent %d out of range", percent)
	}
	return &FrameData{ID: percent}, nil
}

// ParseTimeStamp extracts the time-of-day prefix of a log line as a duration
// since midnight. Legacy lines carry "[HH:MM:SS]", v7 lines "HH:MM:SS:".
//
// Returns false when the line has no timestamp prefix.
func ParseTimeStamp(raw string) (time.Duration, bool) {
	groups, ok := matchGroups(timeStampPrefix, raw)
	if !ok {
		return 0, false
	}
	h, err1 := parseInt(groups["Hour"])
	m, err2 := parseInt(groups["Minute"])
	s, err3 := parseInt(groups["Second"])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, false
	}
	if h > 23 || m > 59 || s > 59 {
		return 0, false
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second, true
}
