// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSnapshots = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hfm",
		Subsystem: "monitor",
		Name:      "snapshots_total",
		Help:      "Legacy client snapshots captured, by client.",
	}, []string{"client"})

	metricReconnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hfm",
		Subsystem: "monitor",
		Name:      "reconnects_total",
		Help:      "FahClient reconnect attempts after failure or disconnect.",
	}, []string{"client"})
)
