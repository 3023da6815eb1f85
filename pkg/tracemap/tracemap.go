// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracemap

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/telekom/tracemap/internal/export"
	"github.com/telekom/tracemap/internal/geo"
	"github.com/telekom/tracemap/internal/probe"
	"github.com/telekom/tracemap/internal/resolve"
	"github.com/telekom/tracemap/pkg/config"
	"github.com/telekom/tracemap/pkg/telemetry"
)

const shutdownTimeout = 30 * time.Second

// Tracemap is a single run over the configured destinations.
type Tracemap struct {
	// config is the validated startup configuration
	config *config.Config
	// collector collects the probe cycles of a destination
	collector probe.Collector
	// resolver resolves the addresses of a destination
	resolver resolve.Resolver
	// geo geolocates the nodes of the topology
	geo *geo.Resolver
	// exporter writes the frozen topology
	exporter *export.Exporter
	// telemetry owns the metrics registry and tracing
	telemetry telemetry.Provider
	// metrics are the run metrics
	metrics *metrics
	// interfaceAddrs lists the host addresses the origin is detected from
	interfaceAddrs func() ([]net.Addr, error)
}

// New creates a run from a validated configuration.
func New(ctx context.Context, cfg *config.Config) (*Tracemap, error) {
	collector, err := probe.NewCollector(cfg.Probe.Method)
	if err != nil {
		return nil, err
	}
	lookuper, err := geo.NewLookuper(cfg.Geo)
	if err != nil {
		return nil, err
	}
	return newTracemap(cfg, collector, resolve.NewResolver(ctx, cfg.DNS), lookuper, export.NewRenderer())
}

func newTracemap(cfg *config.Config, c probe.Collector, r resolve.Resolver, l geo.Lookuper, rd export.Renderer) (*Tracemap, error) {
	t := &Tracemap{
		config:    cfg,
		collector: c,
		resolver:  r,
		geo:       geo.NewResolver(l, cfg.Geo),
		exporter:  export.NewExporter(cfg.Output, rd),
		telemetry: telemetry.New(cfg.Telemetry),
		metrics:   newMetrics(),

		interfaceAddrs: net.InterfaceAddrs,
	}

	registry := t.telemetry.GetRegistry()
	for _, col := range append(t.geo.GetCollectors(), t.metrics.GetCollectors()...) {
		if err := registry.Register(col); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	err := telemetry.RegisterRunInfo(registry, telemetry.RunInfo{
		Origin:   cfg.Origin,
		Method:   cfg.Probe.Method.String(),
		Provider: cfg.Geo.Provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register run info: %w", err)
	}
	return t, nil
}
