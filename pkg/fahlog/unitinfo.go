// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fahlog

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// UnitInfo is the decoded content of a legacy client's unitinfo.txt.
type UnitInfo struct {
	ProteinName     string
	ProteinTag      string
	DownloadTime    time.Time
	DueTime         time.Time
	PercentComplete int
}

// unitInfoTimeLayout matches the client's "December 4 14:33:20" stamps.
// The year is absent from the file and is attached from the reference time.
const unitInfoTimeLayout = "January 2 15:04:05"

// ParseUnitInfo reads a legacy unitinfo.txt key/value file.
//
// Recognized prefixes are "Name:", "Tag:", "Download time:", "Due time:" and
// "Progress:". Timestamps carry no year, so now supplies it: a download time
// that would land more than a day in the future rolls back one year.
//
// Unrecognized lines are skipped; a recognized line with an unparsable value
// is a recoverable error reported to the caller.
func ParseUnitInfo(r io.Reader, now time.Time) (*UnitInfo, error) {
	info := &UnitInfo{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "Name: "):
			info.ProteinName = strings.TrimPrefix(line, "Name: ")
		case strings.HasPrefix(line, "Tag: "):
			info.ProteinTag = strings.TrimPrefix(line, "Tag: ")
		case strings.HasPrefix(line, "Download time: "):
			t, err := parseUnitInfoTime(strings.TrimPrefix(line, "Download time: "), now)
			if err != nil {
				return nil, fmt.Errorf("%w: download time: %v", ErrUnitInfoFormat, err)
			}
			info.DownloadTime = t
		case strings.HasPrefix(line, "Due time: "):
			t, err := parseUnitInfoTime(strings.TrimPrefix(line, "Due time: "), now)
			if err != nil {
				return nil, fmt.Errorf("%w: due time: %v", ErrUnitInfoFormat, err)
			}
			info.DueTime = t
		case strings.HasPrefix(line, "Progress: "):
			value := strings.TrimPrefix(line, "Progress: ")
			if i := strings.IndexByte(value, '%'); i >= 0 {
				value = value[:i]
			}
			pct, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("%w: progress: %v", ErrUnitInfoFormat, err)
			}
			info.PercentComplete = pct
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	// A download stamp "ahead" of the clock means it was written late last
	// year and we crossed into January since. Due times legitimately sit in
	// the future but never before their download.
	if !info.DownloadTime.IsZero() && info.DownloadTime.After(now.AddDate(0, 0, 1)) {
		info.DownloadTime = info.DownloadTime.AddDate(-1, 0, 0)
	}
	if !info.DueTime.IsZero() && !info.DownloadTime.IsZero() && info.DueTime.Before(info.DownloadTime) {
		info.DueTime = info.DueTime.AddDate(1, 0, 0)
	}
	return info, nil
}

func parseUnitInfoTime(value string, now time.Time) (time.Time, error) {
	t, err := time.ParseInLocation(unitInfoTimeLayout, strings.TrimSpace(value), now.Location())
	if err != nil {
		return time.Time{}, err
	}
	return t.AddDate(now.Year(), 0, 0), nil
}
