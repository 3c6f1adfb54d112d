// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

var (
	configPath  string
	metricsAddr string

	rootCmd = &cobra.Command{
		Use:   "hfm",
		Short: "Monitor Folding@Home clients",
		Long: `hfm parses Folding@Home client logs and queue files and monitors
running clients, legacy (v5/v6) through their data files and v7+ through
their control sockets.`,
	}

	parseCmd = &cobra.Command{
		Use:   "parse [FAHlog.txt]",
		Short: "Parse a client log and print its run history",
		Args:  cobra.ExactArgs(1),
		RunE:  runParse,
	}

	queueCmd = &cobra.Command{
		Use:   "queue [queue.dat]",
		Short: "Decode a legacy queue.dat and print its state",
		Args:  cobra.ExactArgs(1),
		RunE:  runQueue,
	}

	monitorCmd = &cobra.Command{
		Use:   "monitor",
		Short: "Watch every configured client and log their activity",
		Args:  cobra.NoArgs,
		RunE:  runMonitor,
	}
)

func init() {
	parseCmd.Flags().BoolVar(&parseV7, "v7", false, "parse as a v7+ FahClient log")

	monitorCmd.Flags().StringVarP(&configPath, "config", "c", "hfm.yaml", "config file")
	monitorCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "expose prometheus metrics on this address (e.g. :9090)")

	rootCmd.AddCommand(parseCmd, queueCmd, monitorCmd)
}
