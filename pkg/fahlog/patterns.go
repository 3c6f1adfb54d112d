// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fahlog

import "regexp"

// Compiled patterns per client generation and semantic category.
//
// These are pure lookup tables: module-level, immutable, safe for concurrent
// use by any number of parser instances. Named capture groups carry the
// fields the conversion layer extracts.

// Legacy (v5/v6) client patterns.
var (
	legacyLogOpen = regexp.MustCompile(`^--- Opening Log file \[(?P<Timestamp>.+)\]`)

	legacyClientVersion = regexp.MustCompile(`Folding@[Hh]ome Client Version (?P<Version>\S+)`)

	legacyClientArguments = regexp.MustCompile(`^\[(?P<Timestamp>\d{2}:\d{2}:\d{2})\] \+ Arguments: (?P<Arguments>.*)`)

	legacyUserNameTeam = regexp.MustCompile(`^\[(?P<Timestamp>\d{2}:\d{2}:\d{2})\] - User name: (?P<Username>\S+) \(Team (?P<Team>\d+)\)`)

	legacyReceivedUserID = regexp.MustCompile(`^\[(?P<Timestamp>\d{2}:\d{2}:\d{2})\].*- Received User ID = (?P<UserID>[0-9A-Fa-f]+)`)

	legacyUserID = regexp.MustCompile(`^\[(?P<Timestamp>\d{2}:\d{2}:\d{2})\] - User ID: (?P<UserID>[0-9A-Fa-f]+)`)

	legacyMachineID = regexp.MustCompile(`^\[(?P<Timestamp>\d{2}:\d{2}:\d{2})\] - Machine ID: (?P<MachineID>\d+)`)

	legacyUnitIndex = regexp.MustCompile(`^\[(?P<Timestamp>\d{2}:\d{2}:\d{2})\] Working on Unit 0(?P<UnitIndex>\d) \[`)

	legacyQueueIndex = regexp.MustCompile(`^\[(?P<Timestamp>\d{2}:\d{2}:\d{2})\] Working on queue slot 0(?P<QueueIndex>\d) \[`)

	legacyWorkUnitWorking = regexp.MustCompile(`^\[(?P<Timestamp>\d{2}:\d{2}:\d{2})\] \+ Processing work unit`)

	legacyCoreVersion = regexp.MustCompile(`^\[(?P<Timestamp>\d{2}:\d{2}:\d{2})\] Version (?P<CoreVer>\d+\.\d+)`)

	legacyCoreShutdown = regexp.MustCompile(`^\[(?P<Timestamp>\d{2}:\d{2}:\d{2})\] Folding@home Core Shutdown: (?P<UnitResult>\S+)`)

	legacyCompletedUnits = regexp.MustCompile(`^\[(?P<Timestamp>\d{2}:\d{2}:\d{2})\] \+ Number of Units Completed: (?P<Completed>\d+)`)

	legacyCoreCommsError = regexp.MustCompile(`^\[(?P<Timestamp>\d{2}:\d{2}:\d{2})\] Client-core communications error:`)
)

// FahClient (v7+) patterns. The v7 log prefixes work-unit lines with
// "WUxx:FSyy" markers and drops the bracketed timestamps.
var (
	fahClientLogOpen = regexp.MustCompile(`^\*+ Log Started (?P<Timestamp>\S+) \*+`)

	fahClientVersion = regexp.MustCompile(`^\s*Version:\s+(?P<Version>\d+\.\d+\.\d+)`)

	fahClientArguments = regexp.MustCompile(`^\s*Args:\s+(?P<Arguments>.+)`)

	fahClientUser = regexp.MustCompile(`^\s*User:\s+(?P<Username>\S+)`)

	fahClientTeam = regexp.MustCompile(`^\s*Team:\s+(?P<Team>\d+)`)

	fahClientUnitWorking = regexp.MustCompile(`:WU(?P<UnitIndex>\d{2}):FS(?P<FoldingSlot>\d{2}):Starting$`)

	fahClientUnitIndex = regexp.MustCompile(`:WU(?P<UnitIndex>\d{2}):FS(?P<FoldingSlot>\d{2}):Running FahCore:`)

	fahClientCoreVersion = regexp.MustCompile(`:WU\d{2}:FS\d{2}:0x[0-9a-fA-F]{2}:\s*Version:?\s+(?P<CoreVer>\d+\.\d+)`)

	fahClientCoreReturn = regexp.MustCompile(`:WU(?P<UnitIndex>\d{2}):FS(?P<FoldingSlot>\d{2}):FahCore returned: (?P<UnitResult>\w+)`)
)

// Patterns shared by both generations, tried after the generation-specific
// literals because their prefixes are less specific.
var (
	// Frame style 1: step counts with a trailing percentage.
	frameSteps = regexp.MustCompile(`Completed (?P<Completed>\d+) out of (?P<Total>\d+) steps\s+\((?P<Percent>\d+)%\)`)

	// Frame style 2: bare percentage, "%" or the word "percent".
	framePercent = regexp.MustCompile(`Completed (?P<Percent>\d+)(%| percent)`)

	projectInfo = regexp.MustCompile(`Project: (?P<ProjectNumber>\d+) \(Run (?P<Run>\d+), Clone (?P<Clone>\d+), Gen (?P<Gen>\d+)\)`)

	timeStampPrefix = regexp.MustCompile(`^\[?(?P<Hour>\d{2}):(?P<Minute>\d{2}):(?P<Second>\d{2})\]?`)

	// Thread-count hint inside a legacy argument string. The capture is
	// limited to 3 digits; good enough to flag SMP cores.
	threadCountHint = regexp.MustCompile(`-np (?P<Cores>\d{1,3})`)
)

// matchGroups runs re against line and returns the named capture groups.
func matchGroups(re *regexp.Regexp, line string) (map[string]string, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	groups := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if i != 0 && name != "" {
			groups[name] = m[i]
		}
	}
	return groups, true
}

// ThreadCount extracts the "-np N" hint from a legacy argument string.
//
// Returns 0 when no hint is present. The underlying pattern only captures up
// to 3 digits; that is a known-approximate heuristic kept as-is.
func ThreadCount(arguments string) int {
	groups, ok := matchGroups(threadCountHint, arguments)
	if !ok {
		return 0
	}
	n, err := parseInt(groups["Cores"])
	if err != nil {
		return 0
	}
	return n
}
