// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package geo

import "github.com/prometheus/client_golang/prometheus"

// Outcomes of a [Resolver.Resolve] call.
const (
	outcomeHit      = "hit"
	outcomePrivate  = "private"
	outcomeResolved = "resolved"
	outcomeFailed   = "failed"
)

// metrics defines the metric collectors of the geolocation resolver
type metrics struct {
	lookups *prometheus.CounterVec
}

// newMetrics initializes metric collectors of the geolocation resolver
func newMetrics() metrics {
	return metrics{
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracemap_geo_lookups_total",
				Help: "Total number of geolocation lookups by outcome.",
			},
			[]string{"outcome"},
		),
	}
}

// GetCollectors returns all metric collectors
func (m *metrics) GetCollectors() []prometheus.Collector {
	return []prometheus.Collector{m.lookups}
}

func (m *metrics) observe(outcome string) {
	m.lookups.WithLabelValues(outcome).Inc()
}
