// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fahclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Connection counters, registered on the default registry. The CLI exposes
// them through its optional metrics listener.
var (
	metricMessagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hfm",
		Subsystem: "fahclient",
		Name:      "messages_received_total",
		Help:      "Complete framed messages received, by message key.",
	}, []string{"key"})

	metricBytesRead = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hfm",
		Subsystem: "fahclient",
		Name:      "bytes_read_total",
		Help:      "Raw bytes read from client sockets.",
	})

	metricConnectFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hfm",
		Subsystem: "fahclient",
		Name:      "connect_failures_total",
		Help:      "Failed connection attempts, including timeouts.",
	})

	metricCommandsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hfm",
		Subsystem: "fahclient",
		Name:      "commands_sent_total",
		Help:      "Commands written to client sockets.",
	})
)
