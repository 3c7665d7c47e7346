// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Drop reason constants for the dropped-events metric.
const (
	DropDuplicate = "duplicate"
	DropMalformed = "malformed"
	DropUntracked = "untracked"
)

// EventsProcessed is the counter for processed feed events.
// Use RegisterMetrics to register this with a Prometheus registry.
var EventsProcessed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "spyglass_events_processed_total",
		Help: "Total number of realtime events processed by event name",
	},
	[]string{"event"},
)

// EventsDropped is the counter for dropped feed events.
// Use RegisterMetrics to register this with a Prometheus registry.
var EventsDropped = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "spyglass_events_dropped_total",
		Help: "Total number of realtime events dropped by reason",
	},
	[]string{"reason"},
)

// WriteFailures is the counter for durable write failures.
// Use RegisterMetrics to register this with a Prometheus registry.
var WriteFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "spyglass_write_failures_total",
		Help: "Total number of durable store write failures by store",
	},
	[]string{"store"},
)

// QueueDepth is the gauge for background work queue depth.
// Use RegisterMetrics to register this with a Prometheus registry.
var QueueDepth = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "spyglass_queue_depth",
		Help: "Current depth of the background work queues",
	},
	[]string{"queue"},
)

// RegisterMetrics registers realtime package metrics with the given
// Prometheus registry. This must be called at startup to make metrics
// available on /metrics. Panics if registration fails (following
// prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(EventsProcessed)
	reg.MustRegister(EventsDropped)
	reg.MustRegister(WriteFailures)
	reg.MustRegister(QueueDepth)
}
