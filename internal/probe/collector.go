// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ Collector = (*genericCollector)(nil)

// Collector is able to collect probe cycles towards a destination.
//
//go:generate go tool moq -out collector_moq.go . Collector
type Collector interface {
	// Collect runs opts.Cycles probe cycles against the destination sequentially.
	// Returns the cycles in collection order or a [*FailureError].
	Collect(ctx context.Context, destination string, opts Options) ([]Cycle, error)
}

type genericCollector struct {
	method Method
	// collector is the method specific implementation.
	collector Collector
}

// NewCollector returns the [Collector] for the given method.
func NewCollector(m Method) (Collector, error) {
	var c Collector
	switch m {
	case MethodMTR:
		c = newMTRCollector()
	case MethodTCP:
		c = newTCPCollector()
	case MethodUDP:
		c = newUDPCollector()
	default:
		return nil, fmt.Errorf("invalid probe method: %q", m)
	}
	return &genericCollector{method: m, collector: c}, nil
}

// Collect validates the options, checks the privilege gate and delegates to
// the method specific collector. Every error is returned as [*FailureError].
func (c *genericCollector) Collect(ctx context.Context, destination string, opts Options) ([]Cycle, error) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("probe.method", c.method.String()),
		attribute.String("probe.destination", destination),
		attribute.Int("probe.options.cycles", opts.Cycles),
		attribute.Stringer("probe.options.interval", opts.Interval),
	)

	fail := func(err error) ([]Cycle, error) {
		return nil, &FailureError{Destination: destination, Err: err}
	}

	if destination == "" {
		return fail(fmt.Errorf("%w: empty destination", ErrUnreachable))
	}
	if err := opts.Validate(); err != nil {
		return fail(fmt.Errorf("invalid probe options: %w", err))
	}
	if err := checkPrivilege(opts.Interval); err != nil {
		return fail(wrapError(ctx, err, "privilege check failed"))
	}

	cycles, err := c.collector.Collect(ctx, destination, opts)
	if err != nil {
		return fail(err)
	}
	if !slices.ContainsFunc(cycles, Cycle.responded) {
		return fail(fmt.Errorf("%w: no hop answered in %d cycles", ErrUnreachable, len(cycles)))
	}
	return cycles, nil
}
