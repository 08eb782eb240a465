/*
Copyright © 2025 the proxmox-node-source authors
SPDX-License-Identifier: GPL-3.0-or-later
*/

package inventory

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	discoveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pvenodes_discovery_duration_seconds",
			Help:    "Time taken to build a complete cluster inventory",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	discoveryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pvenodes_discovery_total",
			Help: "Total number of discovery runs",
		},
		[]string{"status"}, // success, auth_error, enumeration_error, canceled
	)

	guestExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pvenodes_guest_extraction_duration_seconds",
			Help:    "Time taken to extract one guest record",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"kind"}, // qemu or lxc
	)

	inventoryNodeCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pvenodes_inventory_nodes",
			Help: "Number of node records in the last built inventory",
		},
	)
)
