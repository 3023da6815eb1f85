// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	runInfoMetricName = "tracemap_run_info"
	runInfoHelp       = "Metadata of a tracemap run. Emitted once per run to correlate the run metrics with the measuring host."
)

// RunInfo describes a run for the tracemap_run_info metric.
type RunInfo struct {
	// Origin is the public address of the measuring host. May be empty.
	Origin string
	// Method is the probe method.
	Method string
	// Provider is the geolocation provider.
	Provider string
}

// RegisterRunInfo registers the tracemap_run_info info-style metric on the
// given registry. The gauge is set to 1 with the labels origin, method,
// geo_provider and version.
func RegisterRunInfo(registry *prometheus.Registry, info RunInfo) error {
	gauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: runInfoMetricName,
			Help: runInfoHelp,
		},
		[]string{"origin", "method", "geo_provider", "version"},
	)
	gauge.WithLabelValues(info.Origin, info.Method, info.Provider, version()).Set(1)
	return registry.Register(gauge)
}
