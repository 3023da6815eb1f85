// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/telekom/tracemap/internal/helper"
	"github.com/telekom/tracemap/internal/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ Collector = (*mtrCollector)(nil)

// mtrBinary is the name of the mtr executable looked up in PATH.
const mtrBinary = "mtr"

type mtrCollector struct {
	binary   string
	lookPath func(file string) (string, error)
	run      func(ctx context.Context, path string, args ...string) ([]byte, error)
}

func newMTRCollector() *mtrCollector {
	return &mtrCollector{
		binary:   mtrBinary,
		lookPath: exec.LookPath,
		run:      runCommand,
	}
}

// Collect runs mtr once in raw mode with opts.Cycles report cycles and
// splits the probe stream into cycles.
func (c *mtrCollector) Collect(ctx context.Context, destination string, opts Options) ([]Cycle, error) {
	tracer := trace.SpanFromContext(ctx).TracerProvider().Tracer("probe.mtrCollector")
	ctx, sp := tracer.Start(ctx, "Collect", trace.WithAttributes(
		attribute.String("probe.destination", destination),
		attribute.Int("probe.options.cycles", opts.Cycles),
		attribute.Int("probe.options.max_hops", opts.MaxTTL),
	))
	defer sp.End()
	log := logger.FromContext(ctx)

	path, err := c.lookPath(c.binary)
	if err != nil {
		return nil, wrapError(ctx, fmt.Errorf("%w: %w", ErrToolNotFound, err), "failed to locate %s", c.binary)
	}

	args := mtrArgs(destination, opts)
	log.DebugContext(ctx, "Running mtr", "path", path, "args", args)

	out, err := helper.RetryValue(func(ctx context.Context) ([]byte, error) {
		return c.run(ctx, path, args...)
	}, opts.Retry)(ctx)
	if err != nil {
		return nil, wrapError(ctx, err, "failed to run %s", c.binary)
	}

	cycles, err := parseRaw(bytes.NewReader(out), opts.Cycles)
	if err != nil {
		return nil, wrapError(ctx, err, "failed to parse %s output", c.binary)
	}
	logCycles(ctx, cycles)
	return cycles, nil
}

// mtrArgs builds the command line for one raw mtr run.
func mtrArgs(destination string, opts Options) []string {
	args := []string{
		"--raw",
		"--no-dns",
		"--report-cycles", strconv.Itoa(opts.Cycles),
		"--interval", strconv.FormatFloat(opts.Interval.Seconds(), 'f', -1, 64),
		"--max-ttl", strconv.Itoa(opts.MaxTTL),
	}
	if opts.Timeout > 0 {
		args = append(args, "--gracetime", strconv.Itoa(int(math.Ceil(opts.Timeout.Seconds()))))
	}
	return append(args, destination)
}

// runCommand executes the binary and returns its standard output.
// The standard error output is attached to a failure.
func runCommand(ctx context.Context, path string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...) // #nosec G204 // arguments are built by mtrArgs
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// rawProbe is a single transmitted probe of an mtr raw stream.
type rawProbe struct {
	address string
	rtt     time.Duration
	replied bool
}

// rawHop collects the probes of one hop position in transmission order.
type rawHop struct {
	// address is the most recently announced address of the position.
	address string
	probes  []*rawProbe
	bySeq   map[int]*rawProbe
}

func (h *rawHop) transmit(seq int) *rawProbe {
	if p, ok := h.bySeq[seq]; ok {
		return p
	}
	p := &rawProbe{}
	h.probes = append(h.probes, p)
	if seq >= 0 {
		h.bySeq[seq] = p
	}
	return p
}

// parseRaw parses the output of mtr --raw.
//
// The stream consists of the lines
//
//	h <pos> <address>   address announced for a hop position
//	x <pos> <seq>       probe transmitted
//	p <pos> <usec> <seq> probe answered
//	d <pos> <name>      reverse DNS name
//
// Positions start at 0. The n-th probe transmitted at a position belongs
// to cycle n. Probes without answer become lost samples. At most maxCycles
// cycles are returned if maxCycles is positive.
func parseRaw(r io.Reader, maxCycles int) ([]Cycle, error) {
	var hops []*rawHop
	hopAt := func(pos int) *rawHop {
		for len(hops) <= pos {
			hops = append(hops, &rawHop{bySeq: map[int]*rawProbe{}})
		}
		return hops[pos]
	}

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		kind := fields[0]
		if kind != "h" && kind != "x" && kind != "p" {
			continue
		}

		pos, err := strconv.Atoi(fields[1])
		if err != nil || pos < 0 {
			return nil, fmt.Errorf("line %d: invalid hop position %q", line, fields[1])
		}
		hop := hopAt(pos)

		switch kind {
		case "h":
			hop.address = fields[2]
		case "x":
			seq, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid sequence number %q", line, fields[2])
			}
			hop.transmit(seq)
		case "p":
			usec, err := strconv.ParseInt(fields[2], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid round trip time %q", line, fields[2])
			}
			// Old mtr versions do not print sequence numbers.
			seq := -1
			if len(fields) > 3 {
				if seq, err = strconv.Atoi(fields[3]); err != nil {
					return nil, fmt.Errorf("line %d: invalid sequence number %q", line, fields[3])
				}
			}
			p := hop.transmit(seq)
			p.replied = true
			p.address = hop.address
			p.rtt = time.Duration(usec) * time.Microsecond
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mtr output: %w", err)
	}
	if len(hops) == 0 {
		return nil, errors.New("mtr output contains no hops")
	}

	count := 0
	for _, h := range hops {
		count = max(count, len(h.probes))
	}
	if maxCycles > 0 {
		count = min(count, maxCycles)
	}

	cycles := make([]Cycle, count)
	for i := range cycles {
		samples := make([]HopSample, len(hops))
		for pos, h := range hops {
			samples[pos] = HopSample{Index: pos + 1, Loss: true}
			if i >= len(h.probes) || !h.probes[i].replied {
				continue
			}
			p := h.probes[i]
			samples[pos] = HopSample{Index: pos + 1, Address: p.address, RTT: p.rtt}
		}
		cycles[i] = Cycle{Samples: samples}
	}
	return cycles, nil
}
