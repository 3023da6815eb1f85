// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"context"
	"sync"
	"time"

	"github.com/telekom/tracemap/internal/helper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer is an interface that defines the methods required for tracing a single hop.
//
//go:generate go tool moq -out tracer_moq.go . tracer
type tracer interface {
	// trace probes the target at its hop TTL and sends exactly one result
	// to the target's hop channel if it returns no error.
	trace(ctx context.Context, t target, opts Options) error
}

// hopper is responsible for managing the execution of the hop traces of one cycle.
type hopper struct {
	tracer     tracer
	wg         sync.WaitGroup
	otelTracer trace.Tracer
	target     target
	opts       Options

	mu sync.Mutex
	// fatal is the first permanent error of a hop trace.
	fatal error
}

// run executes the hop traces of one cycle, one goroutine per TTL.
// A hop whose trace fails after all retries is reported as lost.
// It's the callers responsibility to collect the results
// from the hop channel of the target after calling this method.
func (h *hopper) run(ctx context.Context) {
	for ttl := 1; ttl <= h.opts.MaxTTL; ttl++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			ctx, hopSpan := h.otelTracer.Start(ctx, h.target.String(), trace.WithAttributes(
				attribute.Stringer("probe.target.address", h.target),
				attribute.Int("probe.target.ttl", ttl),
			))
			defer hopSpan.End()

			retry := helper.Retry(func(ctx context.Context) error {
				return h.tracer.trace(ctx, h.target.withHopTTL(ttl), h.opts)
			}, h.opts.Retry)

			if err := retry(ctx); err != nil {
				hopSpan.RecordError(err)
				hopSpan.SetStatus(codes.Error, "Failed to execute hop trace")
				h.target.hopChan <- hopResult{sample: HopSample{Index: ttl, Loss: true}}
				if helper.IsPermanent(err) {
					h.fail(err)
				}
			}
		}()
	}
}

func (h *hopper) fail(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fatal == nil {
		h.fatal = err
	}
}

func (h *hopper) err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fatal
}

// traceCycles runs opts.Cycles cycles against the target sequentially,
// spaced by opts.Interval. A permanent hop error aborts the collection.
func traceCycles(ctx context.Context, otelTracer trace.Tracer, tr tracer, t target, opts Options) ([]Cycle, error) {
	cycles := make([]Cycle, 0, opts.Cycles)
	for i := range opts.Cycles {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(opts.Interval):
			}
		}

		hops := make(chan hopResult, opts.MaxTTL)
		h := &hopper{
			tracer:     tr,
			otelTracer: otelTracer,
			target:     t,
			opts:       opts,
		}
		h.target.hopChan = hops

		go func() {
			h.run(ctx)
			h.wg.Wait()
			close(hops)
		}()

		cycle := collectCycle(hops)
		if err := h.err(); err != nil {
			return nil, err
		}
		cycles = append(cycles, cycle)
	}
	return cycles, nil
}
