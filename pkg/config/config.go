// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"time"

	"github.com/telekom/tracemap/internal/export"
	"github.com/telekom/tracemap/internal/geo"
	"github.com/telekom/tracemap/internal/helper"
	"github.com/telekom/tracemap/internal/probe"
	"github.com/telekom/tracemap/internal/resolve"
	"github.com/telekom/tracemap/pkg/telemetry"
)

// Defaults of a run.
const (
	DefaultCycles        = 5
	DefaultInterval      = time.Second
	DefaultMaxHops       = 30
	DefaultTimeout       = 2 * time.Second
	DefaultMaxConcurrent = 4
	DefaultLossThreshold = 10.0
)

// Config is the startup configuration of a tracemap run.
type Config struct {
	// Destinations are the hosts to trace.
	Destinations []string `yaml:"destinations" mapstructure:"destinations"`
	// Limit restricts the run to the first destinations. Zero means all.
	Limit int `yaml:"limit" mapstructure:"limit"`
	// Origin is the public address of the measuring host. Destinations
	// equal to it are skipped.
	Origin string `yaml:"origin" mapstructure:"origin"`
	// MaxConcurrent bounds the number of destinations probed at once.
	MaxConcurrent int `yaml:"maxConcurrent" mapstructure:"maxConcurrent"`
	// LossThreshold is the loss percentage above which a hop is reported.
	LossThreshold float64 `yaml:"lossThreshold" mapstructure:"lossThreshold"`
	// Loader is the configuration for the destinations loader
	Loader LoaderConfig `yaml:"loader" mapstructure:"loader"`
	// Probe is the configuration of the probe cycle collector
	Probe ProbeConfig `yaml:"probe" mapstructure:"probe"`
	// DNS is the configuration of the destination resolver
	DNS resolve.Config `yaml:"dns" mapstructure:"dns"`
	// Geo is the configuration of the geolocation resolver
	Geo geo.Config `yaml:"geo" mapstructure:"geo"`
	// Output is the configuration of the exported artifacts
	Output export.Config `yaml:"output" mapstructure:"output"`
	// Telemetry is the configuration for metrics and tracing
	Telemetry telemetry.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// ProbeConfig selects the probe method and its options.
type ProbeConfig struct {
	Method        probe.Method `yaml:"method" mapstructure:"method"`
	probe.Options `yaml:",inline" mapstructure:",squash"`
}

// LoaderConfig is the configuration for the destinations loader
type LoaderConfig struct {
	File FileLoaderConfig `yaml:"file" mapstructure:"file"`
}

// FileLoaderConfig is the configuration for the file loader
type FileLoaderConfig struct {
	// Path is a CSV file with one destination per row in its first column.
	Path string `yaml:"path" mapstructure:"path"`
}

// Default returns the configuration used for unset values.
func Default() Config {
	return Config{
		MaxConcurrent: DefaultMaxConcurrent,
		LossThreshold: DefaultLossThreshold,
		Probe: ProbeConfig{
			Method: probe.MethodMTR,
			Options: probe.Options{
				Cycles:   DefaultCycles,
				Interval: DefaultInterval,
				MaxTTL:   DefaultMaxHops,
				Timeout:  DefaultTimeout,
				Retry:    helper.RetryConfig{Count: 1, Delay: time.Second},
			},
		},
		DNS: resolve.Config{Timeout: DefaultTimeout},
		Geo: geo.Config{
			Provider:  geo.ProviderIPAPI,
			RateLimit: geo.DefaultRateLimit,
			Timeout:   5 * time.Second,
			Retry:     helper.RetryConfig{Count: 2, Delay: 2 * time.Second},
		},
		Output: export.Config{
			Directory: "tracemap-out",
			Name:      "tracemap",
			Format:    "png",
		},
		Telemetry: telemetry.Config{Exporter: telemetry.NOOP},
	}
}

// HasLoader returns true if destinations are read from a file
func (c *Config) HasLoader() bool {
	return c.Loader.File.Path != ""
}

// HasTelemetry returns true if the config has tracing enabled
func (c *Config) HasTelemetry() bool {
	return c.Telemetry.Enabled
}
