// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracemap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/telekom/tracemap/internal/canonical"
	"github.com/telekom/tracemap/internal/export"
	"github.com/telekom/tracemap/internal/logger"
)

// Status is the outcome of tracing one destination.
type Status string

const (
	// StatusReached means the path ends at the destination.
	StatusReached Status = "reached"
	// StatusIncomplete means the destination never answered. The path is
	// merged up to its last observed hop.
	StatusIncomplete Status = "incomplete"
	// StatusFailed means the destination is excluded from the topology.
	StatusFailed Status = "failed"
	// StatusSkipped means the destination is the measuring host itself.
	StatusSkipped Status = "skipped"
)

// Result is the outcome of tracing one destination.
type Result struct {
	Destination string `yaml:"destination"`
	Status      Status `yaml:"status"`
	// Addresses are the resolved addresses of the destination.
	Addresses []string `yaml:"addresses,omitempty"`
	// Cycles is the number of collected probe cycles.
	Cycles int             `yaml:"cycles,omitempty"`
	Path   *canonical.Path `yaml:"path,omitempty"`
	// HighLossHops are the indexes of resolved hops above the loss threshold.
	HighLossHops []int  `yaml:"highLossHops,omitempty"`
	Error        string `yaml:"error,omitempty"`
}

// usable reports whether the result contributes a resolved hop.
func (r Result) usable() bool {
	return r.Path != nil && r.Path.Resolved()
}

// Report summarizes a run.
type Report struct {
	Started      time.Time        `yaml:"started"`
	Finished     time.Time        `yaml:"finished"`
	Origin       string           `yaml:"origin,omitempty"`
	Method       string           `yaml:"method"`
	Destinations []Result         `yaml:"destinations"`
	Nodes        int              `yaml:"nodes"`
	Edges        int              `yaml:"edges"`
	Artifacts    export.Artifacts `yaml:"artifacts"`
	Error        string           `yaml:"error,omitempty"`
}

// Usable reports whether at least one destination produced a resolved hop.
func (r *Report) Usable() bool {
	return slices.ContainsFunc(r.Destinations, Result.usable)
}

// Count returns the number of destinations with the given status.
func (r *Report) Count(s Status) int {
	n := 0
	for _, d := range r.Destinations {
		if d.Status == s {
			n++
		}
	}
	return n
}

// writeReport encodes the report as YAML into the output directory and
// returns the path of the file.
func (t *Tracemap) writeReport(ctx context.Context, r *Report) (path string, err error) {
	log := logger.FromContext(ctx)
	out := t.config.Output
	if err = os.MkdirAll(out.Directory, 0o750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path = filepath.Join(out.Directory, out.Name+".report.yaml")
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		log.ErrorContext(ctx, "Failed to create report", "path", path, "error", err)
		return "", fmt.Errorf("failed to create report: %w", err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("failed to close report: %w", cErr)
		}
	}()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err = enc.Encode(r); err != nil {
		log.ErrorContext(ctx, "Failed to encode report", "path", path, "error", err)
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	if err = enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	log.DebugContext(ctx, "Report written", "path", path)
	return path, nil
}
