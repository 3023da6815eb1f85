// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/telekom/tracemap/internal/logger"
	"github.com/telekom/tracemap/pkg"
)

var _ Provider = (*manager)(nil)

// Provider owns the prometheus registry and the tracer provider of a run.
type Provider interface {
	// GetRegistry returns the prometheus registry instance
	// containing the registered prometheus collectors
	GetRegistry() *prometheus.Registry
	// InitTracing initializes the OpenTelemetry tracing
	InitTracing(ctx context.Context) error
	// WriteMetrics writes the registry to the configured textfile.
	// It does nothing if no file is configured.
	WriteMetrics(ctx context.Context) error
	// Shutdown flushes and closes the tracing
	Shutdown(ctx context.Context) error
}

type manager struct {
	config   Config
	registry *prometheus.Registry
	tp       *sdktrace.TracerProvider
}

// New creates a Provider with a registry holding the Go and process collectors.
func New(config Config) Provider {
	registry := prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &manager{
		config:   config,
		registry: registry,
	}
}

// GetRegistry returns the registry to register prometheus metrics
func (m *manager) GetRegistry() *prometheus.Registry {
	return m.registry
}

// InitTracing initializes the OpenTelemetry tracing
func (m *manager) InitTracing(ctx context.Context) error {
	log := logger.FromContext(ctx)
	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String("tracemap"),
			semconv.ServiceVersionKey.String(version()),
		),
	)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create resource", "error", err)
		return fmt.Errorf("failed to create resource: %w", err)
	}

	kind := m.config.Exporter
	if !m.config.Enabled {
		kind = NOOP
	}
	exporter, err := kind.Create(ctx, &m.config)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create exporter", "error", err)
		return fmt.Errorf("failed to create exporter: %w", err)
	}

	const (
		batchTimeout = 5 * time.Second
		maxQueueSize = 1000
		maxBatchSize = 100
	)
	bsp := sdktrace.NewBatchSpanProcessor(exporter,
		sdktrace.WithBatchTimeout(batchTimeout),
		sdktrace.WithMaxQueueSize(maxQueueSize),
		sdktrace.WithMaxExportBatchSize(maxBatchSize),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSpanProcessor(bsp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	m.tp = tp
	log.DebugContext(ctx, "Tracing initialized with new provider", "provider", kind)
	return nil
}

// WriteMetrics writes the registry in the text exposition format for the
// node exporter textfile collector.
func (m *manager) WriteMetrics(ctx context.Context) error {
	if m.config.MetricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(m.config.MetricsFile, m.registry); err != nil {
		logger.FromContext(ctx).ErrorContext(ctx, "Failed to write metrics", "path", m.config.MetricsFile, "error", err)
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

// Shutdown closes the metrics and tracing
func (m *manager) Shutdown(ctx context.Context) error {
	log := logger.FromContext(ctx)
	if m.tp != nil {
		err := m.tp.Shutdown(ctx)
		if err != nil {
			log.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
			return fmt.Errorf("failed to shutdown tracer provider: %w", err)
		}
	}

	log.DebugContext(ctx, "Tracing shutdown")
	return nil
}

func version() string {
	if pkg.Version == "" {
		return "dev"
	}
	return pkg.Version
}
