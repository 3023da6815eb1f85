// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/telekom/tracemap/internal/logger"
	"github.com/telekom/tracemap/internal/topology"
)

// Formats accepted for the rendered image.
var Formats = []string{"png", "svg", "pdf", "jpg"}

// ErrEmptyGraph is returned when exporting a snapshot without edges.
var ErrEmptyGraph = errors.New("graph is empty")

// Config configures the artifacts of an export.
type Config struct {
	// Directory receives all artifacts. It is created if missing.
	Directory string `json:"directory" yaml:"directory" mapstructure:"directory"`
	// Name is the file name of every artifact without extension.
	Name string `json:"name" yaml:"name" mapstructure:"name"`
	// Format is the image format passed to the renderer.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Validate checks the export configuration.
func (c Config) Validate() error {
	var errs []error
	if c.Directory == "" {
		errs = append(errs, errors.New("output directory must not be empty"))
	}
	if c.Name == "" || filepath.Base(c.Name) != c.Name {
		errs = append(errs, fmt.Errorf("invalid output name %q", c.Name))
	}
	if !slices.Contains(Formats, c.Format) {
		errs = append(errs, fmt.Errorf("unsupported image format %q, use one of %v", c.Format, Formats))
	}
	return errors.Join(errs...)
}

// Artifacts lists the files an export produced.
type Artifacts struct {
	DOT     string `json:"dot" yaml:"dot"`
	JSON    string `json:"json" yaml:"json"`
	Latency string `json:"latency" yaml:"latency"`
	Image   string `json:"image,omitempty" yaml:"image,omitempty"`
}

// Exporter writes a frozen topology to disk.
type Exporter struct {
	cfg      Config
	renderer Renderer
}

// NewExporter creates an Exporter that renders images with r.
func NewExporter(cfg Config, r Renderer) *Exporter {
	return &Exporter{cfg: cfg, renderer: r}
}

// Export writes the DOT document, the snapshot as JSON and the latency
// matrix, then renders the image. When rendering fails the other
// artifacts are kept and returned along with the error.
func (e *Exporter) Export(ctx context.Context, s topology.Snapshot) (Artifacts, error) {
	tracer := trace.SpanFromContext(ctx).TracerProvider().Tracer("export.Exporter")
	ctx, sp := tracer.Start(ctx, "Export", trace.WithAttributes(
		attribute.Int("export.nodes", len(s.Nodes)),
		attribute.Int("export.edges", len(s.Edges)),
		attribute.String("export.format", e.cfg.Format),
	))
	defer sp.End()
	log := logger.FromContext(ctx)

	if s.Empty() {
		return Artifacts{}, ErrEmptyGraph
	}
	if err := os.MkdirAll(e.cfg.Directory, 0o750); err != nil {
		return Artifacts{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	dot, err := Encode(s)
	if err != nil {
		return Artifacts{}, fmt.Errorf("failed to encode graph: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return Artifacts{}, fmt.Errorf("failed to marshal graph: %w", err)
	}
	var latency bytes.Buffer
	if err := WriteLatencyMatrix(&latency, s); err != nil {
		return Artifacts{}, fmt.Errorf("failed to build latency matrix: %w", err)
	}

	a := Artifacts{
		DOT:     e.path("dot"),
		JSON:    e.path("json"),
		Latency: e.path("latency.csv"),
	}
	for path, content := range map[string][]byte{a.DOT: dot, a.JSON: data, a.Latency: latency.Bytes()} {
		if err := os.WriteFile(path, content, 0o600); err != nil {
			return Artifacts{}, fmt.Errorf("failed to write %s: %w", path, err)
		}
		log.DebugContext(ctx, "Artifact written", "path", path)
	}

	image := e.path(e.cfg.Format)
	if err := e.renderer.Render(ctx, dot, e.cfg.Format, image); err != nil {
		sp.RecordError(err)
		return a, err
	}
	a.Image = image
	log.InfoContext(ctx, "Topology image rendered", "path", image, "nodes", len(s.Nodes), "edges", len(s.Edges))
	return a, nil
}

func (e *Exporter) path(ext string) string {
	return filepath.Join(e.cfg.Directory, e.cfg.Name+"."+ext)
}
