// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracemap

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/telekom/tracemap/internal/canonical"
	"github.com/telekom/tracemap/internal/topology"
)

// metrics defines the metric collectors of a run
type metrics struct {
	destinations *prometheus.CounterVec
	highLossHops *prometheus.CounterVec
	pathHops     *prometheus.GaugeVec
	nodes        prometheus.Gauge
	edges        prometheus.Gauge
	duration     prometheus.Gauge
}

// newMetrics initializes metric collectors of a run
func newMetrics() *metrics {
	return &metrics{
		destinations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracemap_destinations_total",
				Help: "Number of destinations by outcome of the trace.",
			},
			[]string{"status"},
		),
		highLossHops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracemap_high_loss_hops_total",
				Help: "Number of resolved hops whose loss exceeded the loss threshold.",
			},
			[]string{"destination"},
		),
		pathHops: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tracemap_path_hops",
				Help: "Length of the canonical path towards a destination.",
			},
			[]string{"destination", "reached"},
		),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracemap_topology_nodes",
			Help: "Number of nodes of the merged topology.",
		}),
		edges: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracemap_topology_edges",
			Help: "Number of edges of the merged topology.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracemap_run_duration_seconds",
			Help: "Duration of the run in seconds.",
		}),
	}
}

// GetCollectors returns all metric collectors
func (m *metrics) GetCollectors() []prometheus.Collector {
	return []prometheus.Collector{m.destinations, m.highLossHops, m.pathHops, m.nodes, m.edges, m.duration}
}

func (m *metrics) observeDestination(s Status) {
	m.destinations.WithLabelValues(string(s)).Inc()
}

func (m *metrics) observeHighLoss(destination string) {
	m.highLossHops.WithLabelValues(destination).Inc()
}

func (m *metrics) observePath(p canonical.Path) {
	reached := "false"
	if p.Reached {
		reached = "true"
	}
	m.pathHops.WithLabelValues(p.Destination, reached).Set(float64(len(p.Hops)))
}

func (m *metrics) observeTopology(s topology.Snapshot) {
	m.nodes.Set(float64(len(s.Nodes)))
	m.edges.Set(float64(len(s.Edges)))
}

func (m *metrics) observeDuration(d time.Duration) {
	m.duration.Set(d.Seconds())
}
