// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracemap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/telekom/tracemap/internal/canonical"
	"github.com/telekom/tracemap/internal/logger"
	"github.com/telekom/tracemap/internal/topology"
)

const tracerName = "tracemap"

// Run traces all destinations, merges their paths and exports the topology.
// Destinations are probed concurrently, at most MaxConcurrent at a time.
// A failing destination is recorded in the report and excluded from the
// topology. The report is written to the output directory even if the
// run fails and is returned whenever the run got past tracing setup.
func (t *Tracemap) Run(ctx context.Context) (*Report, error) {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	defer cancel()
	log := logger.FromContext(ctx)

	if err := t.telemetry.InitTracing(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer t.shutdown(ctx)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "Run", trace.WithAttributes(
		attribute.Int("run.destinations", len(t.config.Destinations)),
		attribute.String("run.method", t.config.Probe.Method.String()),
		attribute.Int("run.max_concurrent", t.config.MaxConcurrent),
	))
	defer span.End()

	report := &Report{
		Started: time.Now(),
		Origin:  t.origin(ctx),
		Method:  t.config.Probe.Method.String(),
	}
	span.SetAttributes(attribute.String("run.origin", report.Origin))
	log.InfoContext(ctx, "Starting run", "destinations", len(t.config.Destinations), "method", report.Method, "origin", report.Origin)

	var opts []topology.Option
	if report.Origin != "" {
		opts = append(opts, topology.WithOrigin(report.Origin))
	}
	graph := topology.New(t.geo, opts...)

	results, runErr := t.traceAll(ctx, graph, report.Origin)
	report.Destinations = results

	if runErr == nil {
		snapshot := graph.Freeze()
		t.metrics.observeTopology(snapshot)
		report.Nodes, report.Edges = len(snapshot.Nodes), len(snapshot.Edges)

		if !report.Usable() {
			runErr = ErrNoUsableData
		} else {
			artifacts, err := t.exporter.Export(ctx, snapshot)
			report.Artifacts = artifacts
			if err != nil {
				runErr = fmt.Errorf("failed to export topology: %w", err)
			}
		}
	}

	report.Finished = time.Now()
	t.metrics.observeDuration(report.Finished.Sub(report.Started))
	if runErr != nil {
		report.Error = runErr.Error()
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
	}

	if _, err := t.writeReport(ctx, report); err != nil {
		runErr = errors.Join(runErr, err)
	}
	if err := t.telemetry.WriteMetrics(ctx); err != nil {
		runErr = errors.Join(runErr, err)
	}

	if runErr != nil {
		log.ErrorContext(ctx, "Run failed", "error", runErr)
		return report, runErr
	}
	log.InfoContext(ctx, "Run finished",
		"reached", report.Count(StatusReached),
		"incomplete", report.Count(StatusIncomplete),
		"failed", report.Count(StatusFailed),
		"skipped", report.Count(StatusSkipped),
		"image", report.Artifacts.Image,
	)
	return report, nil
}

// traceAll traces every destination and merges the paths into the graph.
// Results keep the order of the configured destinations.
// Destinations equal to origin are skipped.
func (t *Tracemap) traceAll(ctx context.Context, graph *topology.Graph, origin string) ([]Result, error) {
	log := logger.FromContext(ctx)
	results := make([]Result, len(t.config.Destinations))

	g := errgroup.Group{}
	g.SetLimit(t.config.MaxConcurrent)
	for i, d := range t.config.Destinations {
		if origin != "" && d == origin {
			log.InfoContext(ctx, "Skipping destination, it is the measuring host", "destination", d)
			results[i] = Result{Destination: d, Status: StatusSkipped}
			t.metrics.observeDestination(StatusSkipped)
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Destination: d, Status: StatusFailed, Error: err.Error()}
				return err
			}
			results[i] = t.trace(ctx, graph, d)
			return ctx.Err()
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return results, fmt.Errorf("%w: %w", ErrRunAborted, err)
	}
	return results, nil
}

// trace runs the pipeline of a single destination up to the merge.
func (t *Tracemap) trace(ctx context.Context, graph *topology.Graph, destination string) Result {
	ctx = logger.WithDestination(ctx, destination)
	log := logger.FromContext(ctx)
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Trace", trace.WithAttributes(
		attribute.String("destination", destination),
	))
	defer span.End()

	res := Result{Destination: destination}
	fail := func(stage string, err error) Result {
		log.ErrorContext(ctx, "Destination excluded from topology", "stage", stage, "error", err)
		span.AddEvent("destination.failed", trace.WithAttributes(attribute.String("stage", stage)))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		res.Status = StatusFailed
		res.Error = err.Error()
		t.metrics.observeDestination(StatusFailed)
		return res
	}

	addrs, err := t.resolver.Resolve(ctx, destination)
	if err != nil {
		return fail("resolve", fmt.Errorf("failed to resolve %s: %w", destination, err))
	}
	for _, a := range addrs {
		res.Addresses = append(res.Addresses, a.String())
	}

	cycles, err := t.collector.Collect(ctx, destination, t.config.Probe.Options)
	if err != nil {
		return fail("collect", err)
	}
	res.Cycles = len(cycles)

	path, err := canonical.Canonicalize(destination, addrs, cycles)
	if err != nil {
		return fail("canonicalize", err)
	}
	res.Path = &path

	for _, h := range path.Hops {
		if h.Unknown || h.Loss <= t.config.LossThreshold {
			continue
		}
		log.WarnContext(ctx, "Packet loss above threshold", "hop", h.Index, "address", h.Address, "loss", h.Loss, "threshold", t.config.LossThreshold)
		res.HighLossHops = append(res.HighLossHops, h.Index)
		t.metrics.observeHighLoss(destination)
	}

	if err := graph.Merge(ctx, path); err != nil {
		return fail("merge", err)
	}

	res.Status = StatusIncomplete
	if path.Reached {
		res.Status = StatusReached
	}
	t.metrics.observeDestination(res.Status)
	t.metrics.observePath(path)
	span.SetAttributes(
		attribute.Int("path.hops", len(path.Hops)),
		attribute.Bool("path.reached", path.Reached),
	)
	log.InfoContext(ctx, "Destination traced", "hops", len(path.Hops), "reached", path.Reached, "cycles", len(cycles))
	return res
}

// shutdown flushes the tracing of the run.
func (t *Tracemap) shutdown(ctx context.Context) {
	log := logger.FromContext(ctx)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var sErrs ErrShutdown
	sErrs.errTelemetry = t.telemetry.Shutdown(ctx)
	if sErrs.HasError() {
		log.ErrorContext(ctx, "Failed to shutdown gracefully", "error", sErrs.errTelemetry)
	}
}
