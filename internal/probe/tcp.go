// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"

	"github.com/telekom/tracemap/internal/helper"
	"github.com/telekom/tracemap/internal/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sys/unix"
)

var (
	_ Collector = (*tcpCollector)(nil)
	_ tracer    = (*tcpCollector)(nil)
)

type tcpCollector struct {
	dialTCP         func(ctx context.Context, addr net.Addr, port, ttl int, timeout time.Duration) (netConn, error)
	newICMPListener func(port int) (icmpListener, error)
}

// newTCPCollector creates a new collector tracing with TCP SYNs.
func newTCPCollector() *tcpCollector {
	return &tcpCollector{
		dialTCP:         dialTCP,
		newICMPListener: newRawListener,
	}
}

// Collect runs the cycles against the destination using TCP.
func (c *tcpCollector) Collect(ctx context.Context, destination string, opts Options) ([]Cycle, error) {
	tracer := trace.SpanFromContext(ctx).TracerProvider().Tracer("probe.tcpCollector")
	ctx, sp := tracer.Start(ctx, "Collect", trace.WithAttributes(
		attribute.String("probe.destination", destination),
		attribute.Int("probe.options.max_hops", opts.MaxTTL),
		attribute.Stringer("probe.options.timeout", opts.Timeout),
	))
	defer sp.End()

	t, err := newTarget(destination, MethodTCP, opts.portFor(MethodTCP))
	if err != nil {
		return nil, wrapError(ctx, err, "failed to resolve %s", destination)
	}

	cycles, err := traceCycles(ctx, tracer, c, t, opts)
	if err != nil {
		return nil, wrapError(ctx, err, "failed to trace %s", destination)
	}
	logCycles(ctx, cycles)
	return cycles, nil
}

func (c *tcpCollector) trace(ctx context.Context, t target, opts Options) error {
	span := trace.SpanFromContext(ctx)
	log := logger.FromContext(ctx)
	log.DebugContext(ctx, "Starting TCP trace", "target", t, "ttl", t.hopTTL)

	port := randomPort()
	il, err := c.newICMPListener(port)
	if err != nil {
		return wrapError(ctx, err, "failed to create ICMP listener")
	}
	defer func() { _ = il.Close() }()

	start := time.Now()
	conn, err := c.dialTCP(ctx, t.addr, port, t.hopTTL, opts.Timeout)
	defer func() { _ = conn.Close() }()

	// The connection was established or refused, the destination answered at this TTL.
	if err == nil || errors.Is(err, unix.ECONNREFUSED) {
		hop := HopSample{
			Index:   t.hopTTL,
			Address: addrString(t.addr),
			RTT:     time.Since(start),
		}
		log.DebugContext(ctx, "Destination answered", "port", conn.port, "addr", t.addr)
		span.AddEvent("Destination answered", trace.WithAttributes(
			attribute.Stringer("probe.target.hop", hop),
			attribute.Bool("probe.target.reached", true),
		))
		t.hopChan <- hopResult{sample: hop, reached: true}
		return nil
	}

	// Any dial error other than an expired TTL is unexpected.
	if rErr := recordTCPError(ctx, err); rErr != nil {
		return rErr
	}

	readCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	packet, err := il.Read(readCtx)
	switch {
	// Unexpected error: we failed to read an ICMP message
	// and it's not because of capabilities/exceeded timeout.
	case err != nil && !isTracerouteError(err):
		return wrapError(ctx, err, "failed to read ICMP message")

	// User error: we don't have the necessary capabilities
	// to open a raw socket for reading ICMP messages.
	case errors.Is(err, errICMPNotAvailable):
		return helper.Permanent(wrapError(ctx, err, "ICMP not available for reading"))

	// Timeout error: the router at this TTL did not answer.
	case errors.Is(err, context.DeadlineExceeded):
		hop := HopSample{Index: t.hopTTL, Loss: true}
		log.DebugContext(ctx, "ICMP read timeout exceeded, no response received")
		span.AddEvent("ICMP read timeout exceeded", trace.WithAttributes(
			attribute.Stringer("probe.target.hop", hop),
			attribute.String("probe.target.hop.error", err.Error()),
		))
		t.hopChan <- hopResult{sample: hop}
		return nil

	// Expected ICMP message received: time exceeded from a router
	// or port unreachable from the destination.
	default:
		hop := HopSample{
			Index:   t.hopTTL,
			Address: addrString(packet.remoteAddr),
			RTT:     time.Since(start),
		}
		log.DebugContext(ctx, "Received ICMP message", "port", packet.port, "routerAddr", packet.remoteAddr)
		span.AddEvent("ICMP message received", trace.WithAttributes(
			attribute.Bool("probe.target.reached", packet.reached),
			attribute.Stringer("probe.target.hop", hop),
		))
		t.hopChan <- hopResult{sample: hop, reached: packet.reached}
		return nil
	}
}

// netConn is a connection bound to a specific local port.
type netConn struct {
	net.Conn
	port int
}

// Close closes the connection if it was established.
func (nc netConn) Close() error {
	if nc.Conn != nil {
		return nc.Conn.Close()
	}
	return nil
}

// dialTCP dials a TCP connection from the local port to the given address with the specified TTL.
func dialTCP(ctx context.Context, addr net.Addr, port, ttl int, timeout time.Duration) (netConn, error) {
	// Dialer with control function to set IP_TTL
	dialer := net.Dialer{
		LocalAddr: &net.TCPAddr{
			Port: port,
		},
		Timeout: timeout,
		ControlContext: func(_ context.Context, _, _ string, c syscall.RawConn) error {
			var opErr error
			if err := c.Control(func(fd uintptr) {
				opErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_TTL, ttl) // #nosec G115 // The net package is safe to use
			}); err != nil {
				return err
			}
			return opErr
		},
	}

	conn, err := dialer.DialContext(ctx, "tcp4", addr.String())
	if err != nil {
		// EADDRINUSE is not expected by recordTCPError, the hop trace
		// is retried with a new random port.
		return netConn{port: port}, err
	}
	return netConn{Conn: conn, port: port}, nil
}
