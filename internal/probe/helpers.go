// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"slices"

	"github.com/telekom/tracemap/internal/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sys/unix"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// basePort is the starting port for the local end of a probe
	basePort = 30000
	// portRange is the range of ports to generate a random port from
	portRange = 10000
)

// randomPort returns a random port in the interval [30000, 40000)
func randomPort() int {
	return rand.N(portRange) + basePort // #nosec G404 // math.rand is fine here, we're not doing encryption
}

// ipFromAddr extracts the IP address from a [net.Addr].
func ipFromAddr(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.UDPAddr:
		return a.IP
	case *net.TCPAddr:
		return a.IP
	case *net.IPAddr:
		return a.IP
	}
	return nil
}

// addrString returns the textual IP of addr or an empty string.
func addrString(addr net.Addr) string {
	ip := ipFromAddr(addr)
	if ip == nil {
		return ""
	}
	return ip.String()
}

// addrFromSocket converts a kernel socket address into a [net.Addr].
func addrFromSocket(sa unix.Sockaddr) net.Addr {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.IPAddr{IP: net.IP(a.Addr[:]).To16()}
	case *unix.SockaddrInet6:
		return &net.IPAddr{IP: net.IP(a.Addr[:])}
	default:
		return nil
	}
}

// collectCycle drains the channel into one cycle.
// Samples are sorted by index and de-duplicated, keeping the first sample per index.
// Collection stops at the first sample that reached the destination.
// Indexes without a sample up to the last collected one are filled with lost samples.
func collectCycle(ch <-chan hopResult) Cycle {
	results := []hopResult{}
	for r := range ch {
		if r.sample.Index <= 0 {
			continue
		}
		results = append(results, r)
	}

	slices.SortStableFunc(results, func(a, b hopResult) int {
		return a.sample.Index - b.sample.Index
	})

	samples := make([]HopSample, 0, len(results))
	for _, r := range results {
		if len(samples) > 0 && samples[len(samples)-1].Index == r.sample.Index {
			continue
		}
		for next := len(samples) + 1; next < r.sample.Index; next++ {
			samples = append(samples, HopSample{Index: next, Loss: true})
		}
		samples = append(samples, r.sample)
		if r.reached {
			break
		}
	}

	return Cycle{Samples: samples}
}

// logCycles logs the samples of every cycle in a structured format.
func logCycles(ctx context.Context, cycles []Cycle) {
	log := logger.FromContext(ctx)
	for i, c := range cycles {
		for _, s := range c.Samples {
			log.DebugContext(ctx, s.String(), "cycle", i+1)
		}
	}
}

// wrapError wraps an error with a message and logs it.
// It also records the error in the current OpenTelemetry span.
func wrapError(ctx context.Context, err error, msg string, args ...any) error {
	if err == nil {
		return nil
	}
	log := logger.FromContext(ctx)
	span := trace.SpanFromContext(ctx)
	caser := cases.Title(language.English)
	text := fmt.Sprintf(msg, args...)

	log.ErrorContext(ctx, caser.String(text), "error", err)
	span.SetStatus(codes.Error, text)
	span.RecordError(err)
	return fmt.Errorf("%s: %w", text, err)
}

// recordTCPError records the error from dialing a TCP connection.
// If the error is nil, [unix.EHOSTUNREACH] or a dial timeout, it returns nil.
func recordTCPError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	log := logger.FromContext(ctx)
	span := trace.SpanFromContext(ctx)

	// No route to host and timeouts are expected while the TTL is too low
	// to reach the destination.
	span.RecordError(err)
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		span.SetStatus(codes.Error, "Dial timeout")
		return nil
	}
	if !errors.Is(err, unix.EHOSTUNREACH) {
		log.ErrorContext(ctx, "Failed to dial TCP connection", "error", err)
		span.AddEvent("TCP connection failed", trace.WithAttributes(
			attribute.String("probe.target.error", err.Error()),
		))
		span.SetStatus(codes.Error, "Failed to dial TCP connection")
		return fmt.Errorf("failed to dial TCP connection: %w", err)
	}

	span.SetStatus(codes.Error, "No route to host")
	return nil
}
