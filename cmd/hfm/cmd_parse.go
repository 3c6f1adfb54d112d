// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harlam357/hfm-net-sub022/pkg/fahlog"
)

var parseV7 bool

func runParse(cmd *cobra.Command, args []string) error {
	gen := fahlog.Legacy
	if parseV7 {
		gen = fahlog.FahClient
	}

	history, err := fahlog.ReadFile(gen, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, run := range history.Runs {
		fmt.Fprintf(out, "Run %d\n", i+1)
		if run.ClientVersion != "" {
			fmt.Fprintf(out, "  Client version: %s\n", run.ClientVersion)
		}
		if run.Arguments != "" {
			fmt.Fprintf(out, "  Arguments:      %s\n", run.Arguments)
		}
		if run.UserName != "" {
			fmt.Fprintf(out, "  Folding ID:     %s (Team %d)\n", run.UserName, run.Team)
		}
		if run.CompletedUnits > 0 {
			fmt.Fprintf(out, "  Units done:     %d\n", run.CompletedUnits)
		}

		for _, unit := range run.UnitRuns {
			fmt.Fprintf(out, "  Unit (queue %02d)\n", unit.QueueIndex)
			if unit.Project != nil {
				fmt.Fprintf(out, "    %s\n", unit.Project)
			}
			if unit.CoreVersion != "" {
				fmt.Fprintf(out, "    Core:     %s\n", unit.CoreVersion)
			}
			fmt.Fprintf(out, "    Frames:   %d (%d%%)\n", len(unit.Frames), unit.PercentComplete())
			fmt.Fprintf(out, "    Result:   %s\n", unit.Result)
		}
	}
	if n := len(history.ParsingErrors); n > 0 {
		fmt.Fprintf(out, "%d lines failed to parse\n", n)
	}
	return nil
}
