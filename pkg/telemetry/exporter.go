// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"
)

// Exporter is the type of the span exporter
type Exporter string

const (
	// HTTP is the otlp exporter using http
	HTTP Exporter = "http"
	// GRPC is the otlp exporter using grpc
	GRPC Exporter = "grpc"
	// STDOUT writes the spans to stdout
	STDOUT Exporter = "stdout"
	// NOOP drops all spans
	NOOP Exporter = "noop"
)

// String returns the lower case name of the exporter
func (e Exporter) String() string {
	return strings.ToLower(string(e))
}

// Validate checks whether the exporter is supported
func (e Exporter) Validate() error {
	switch e {
	case HTTP, GRPC, STDOUT, NOOP, "":
		return nil
	default:
		return fmt.Errorf("unsupported exporter type: %q", e.String())
	}
}

// IsExporting returns true if the exporter sends spans to a collector
func (e Exporter) IsExporting() bool {
	return e == HTTP || e == GRPC
}

// Create creates the span exporter of the given type
func (e Exporter) Create(ctx context.Context, config *Config) (sdktrace.SpanExporter, error) {
	switch e {
	case HTTP:
		return newHTTPExporter(ctx, config)
	case GRPC:
		return newGRPCExporter(ctx, config)
	case STDOUT:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case NOOP, "":
		return &noopExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported exporter type: %q", e.String())
	}
}

func newHTTPExporter(ctx context.Context, config *Config) (sdktrace.SpanExporter, error) {
	headers, tlsCfg, err := getCommonConfig(config)
	if err != nil {
		return nil, err
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpointURL(config.Url),
		otlptracehttp.WithHeaders(headers),
	}
	if tlsCfg != nil {
		opts = append(opts, otlptracehttp.WithTLSClientConfig(tlsCfg))
	} else {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}

func newGRPCExporter(ctx context.Context, config *Config) (sdktrace.SpanExporter, error) {
	headers, tlsCfg, err := getCommonConfig(config)
	if err != nil {
		return nil, err
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpointURL(config.Url),
		otlptracegrpc.WithHeaders(headers),
	}
	if tlsCfg != nil {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(tlsCfg)))
	} else {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return otlptracegrpc.New(ctx, opts...)
}

// getCommonConfig returns the authorization headers and the tls
// configuration shared by both otlp exporters. The tls configuration is
// nil when tls is disabled.
func getCommonConfig(config *Config) (map[string]string, *tls.Config, error) {
	headers := map[string]string{}
	if config.Token != "" {
		headers["Authorization"] = fmt.Sprintf("Bearer %s", config.Token)
	}

	if !config.TLS.Enabled {
		return headers, nil, nil
	}

	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if config.TLS.CertPath != "" {
		pem, err := os.ReadFile(config.TLS.CertPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, nil, fmt.Errorf("failed to parse certificate %q", config.TLS.CertPath)
		}
		tlsCfg.RootCAs = pool
	}
	return headers, tlsCfg, nil
}

var _ sdktrace.SpanExporter = (*noopExporter)(nil)

// noopExporter drops all spans
type noopExporter struct{}

func (e *noopExporter) ExportSpans(_ context.Context, _ []sdktrace.ReadOnlySpan) error {
	return nil
}

func (e *noopExporter) Shutdown(_ context.Context) error {
	return nil
}
