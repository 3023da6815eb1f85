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

	"github.com/telekom/tracemap/internal/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sys/unix"
)

var (
	_ Collector = (*udpCollector)(nil)
	_ tracer    = (*udpCollector)(nil)
)

type udpCollector struct {
	// dialUDP abstracts the creation of a UDP socket with TTL configured
	dialUDP func(ctx context.Context, addr net.Addr, ttl int, timeout time.Duration) (netConn, error)
	// openQueue attaches a hop reader to the dialed socket.
	openQueue func(conn net.Conn, timeout time.Duration) (hopReader, error)
}

// newUDPCollector constructs a UDP based collector that runs without elevated privileges.
func newUDPCollector() *udpCollector {
	return &udpCollector{dialUDP: dialUDP, openQueue: openErrQueue}
}

// Collect runs the cycles against the destination using UDP.
func (c *udpCollector) Collect(ctx context.Context, destination string, opts Options) ([]Cycle, error) {
	tracer := trace.SpanFromContext(ctx).TracerProvider().Tracer("probe.udpCollector")
	ctx, sp := tracer.Start(ctx, "Collect", trace.WithAttributes(
		attribute.String("probe.destination", destination),
		attribute.Int("probe.options.max_hops", opts.MaxTTL),
		attribute.Stringer("probe.options.timeout", opts.Timeout),
	))
	defer sp.End()

	t, err := newTarget(destination, MethodUDP, opts.portFor(MethodUDP))
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

// trace performs a single UDP probe against the target at the given TTL and processes the kernel-generated ICMP response.
// The kernel queues ICMP errors on the socket itself, so no raw socket is required.
func (c *udpCollector) trace(ctx context.Context, t target, opts Options) error {
	span := trace.SpanFromContext(ctx)
	log := logger.FromContext(ctx)
	log.DebugContext(ctx, "Starting UDP trace", "target", t, "ttl", t.hopTTL)

	nc, err := c.dialUDP(ctx, t.addr, t.hopTTL, opts.Timeout)
	if err != nil {
		return wrapError(ctx, err, "failed to dial UDP connection")
	}
	defer func() { _ = nc.Close() }()

	queue, err := c.openQueue(nc.Conn, opts.Timeout)
	if err != nil {
		return wrapError(ctx, err, "failed to open the socket error queue")
	}

	sent := time.Now()
	// A single byte is enough to trigger the ICMP error response.
	if _, werr := nc.Write(make([]byte, probePayloadSize)); werr != nil {
		return wrapError(ctx, werr, "failed sending UDP probe")
	}

	res, err := queue.ReadHop(ctx, t.hopTTL, sent)
	if err != nil {
		return wrapError(ctx, err, "failed to read the answer at ttl %d", t.hopTTL)
	}

	if res.sample.Loss {
		log.DebugContext(ctx, "No answer within the hop timeout", "ttl", t.hopTTL)
		span.AddEvent("Hop timeout", trace.WithAttributes(attribute.Stringer("probe.target.hop", res.sample)))
	} else {
		span.AddEvent("Hop answered", trace.WithAttributes(
			attribute.Bool("probe.target.reached", res.reached),
			attribute.Stringer("probe.target.hop", res.sample),
		))
	}
	t.hopChan <- res
	return nil
}

// dialUDP sets up a UDP socket with the desired TTL and IP_RECVERR enabled.
// We bind to a random local port so the kernel returns ICMP errors to this socket.
func dialUDP(ctx context.Context, addr net.Addr, ttl int, timeout time.Duration) (netConn, error) {
	port := randomPort()
	dialer := net.Dialer{
		LocalAddr: &net.UDPAddr{Port: port},
		Timeout:   timeout,
		ControlContext: func(_ context.Context, _, _ string, c syscall.RawConn) error {
			var opErr error
			if err := c.Control(func(fd uintptr) {
				opErr = errors.Join(
					unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_TTL, ttl), // #nosec G115
					unix.SetsockoptInt(int(fd), unix.SOL_IP, unix.IP_RECVERR, 1),   // #nosec G115
				)
			}); err != nil {
				return err
			}
			return opErr
		},
	}

	conn, err := dialer.DialContext(ctx, "udp4", addr.String())
	if err != nil {
		return netConn{}, err
	}

	return netConn{Conn: conn, port: port}, nil
}
