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

	"github.com/harlam357/hfm-net-sub022/pkg/queue"
)

func runQueue(cmd *cobra.Command, args []string) error {
	data, err := queue.ReadFile(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "queue.dat version %s, current slot %d\n", data.VersionString(), data.CurrentIndex)
	if data.PerformanceFraction > 0 {
		fmt.Fprintf(out, "Performance fraction: %.6f\n", data.PerformanceFraction)
	}

	for i := 0; i < queue.EntryCount; i++ {
		entry, err := data.GetQueueEntry(i)
		if err != nil {
			return err
		}
		if entry.Status == queue.EntryStatusEmpty && entry.ProjectID == 0 {
			continue
		}
		fmt.Fprintf(out, "Slot %02d: %s\n", i, entry.Status)
		if entry.ProjectID != 0 {
			fmt.Fprintf(out, "  Project:    %d (Run %d, Clone %d, Gen %d)\n",
				entry.ProjectID, entry.ProjectRun, entry.ProjectClone, entry.ProjectGen)
		}
		if entry.FoldingID != "" {
			fmt.Fprintf(out, "  Folding ID: %s (Team %d)\n", entry.FoldingID, entry.Team)
		}
		if entry.CoreNumber != 0 {
			fmt.Fprintf(out, "  Core:       %s\n", entry.CoreNumberHex())
		}
		if entry.ServerIP != nil {
			fmt.Fprintf(out, "  Server:     %s:%d\n", entry.ServerIP, entry.ServerPort)
		}
		if !entry.BeginTimeLocal.IsZero() {
			fmt.Fprintf(out, "  Begin:      %s\n", entry.BeginTimeLocal.Format("2006-01-02 15:04:05"))
		}
		if !entry.DueTimeLocal.IsZero() {
			fmt.Fprintf(out, "  Due:        %s\n", entry.DueTimeLocal.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintf(out, "  CPU/OS:     %s / %s\n", entry.CPUString(), entry.OSString())
	}
	return nil
}
