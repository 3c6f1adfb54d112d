// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/harlam357/hfm-net-sub022/pkg/fahclient"
	"github.com/harlam357/hfm-net-sub022/pkg/monitor"
)

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := cfg.logger("monitor")
	defer logger.Close()

	m, err := monitor.New(cfg.monitorClients(), &monitor.Options{
		Logger: logger,
		OnSnapshot: func(snap monitor.Snapshot) {
			runs := 0
			if snap.Runs != nil {
				runs = len(snap.Runs.Runs)
			}
			logger.Info("snapshot captured",
				"client", snap.ClientName,
				"runs", runs,
				"queue", snap.Queue != nil,
				"errors", len(snap.ReadErrors))
		},
		OnMessage: func(update fahclient.MessageUpdate) {
			logger.Info("message received", "key", update.Key)
		},
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := metricsAddr
	if addr == "" {
		addr = cfg.Metrics.Addr
	}
	if addr != "" {
		server := &http.Server{Addr: addr, Handler: promhttp.Handler()}
		go func() {
			logger.Info("metrics listening", "addr", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("monitoring", "clients", len(cfg.Clients))
	if err := m.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
