// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"time"

	"github.com/telekom/tracemap/internal/helper"
)

// Method is the way probe cycles are collected.
type Method string

const (
	MethodMTR Method = "mtr"
	MethodTCP Method = "tcp"
	MethodUDP Method = "udp"
)

func (m Method) String() string {
	if m.IsValid() {
		return string(m)
	}
	return "unknown"
}

func (m Method) IsValid() bool {
	return slices.Contains([]Method{MethodMTR, MethodTCP, MethodUDP}, m)
}

const (
	// defaultTCPPort is the port the tcp method dials when none is configured.
	defaultTCPPort = 80
	// defaultUDPPort is the classic traceroute base port.
	defaultUDPPort = 33434
)

// Options contains the configuration of one collection run.
type Options struct {
	// Cycles is the number of probe cycles per destination.
	Cycles int `json:"cycles" yaml:"cycles" mapstructure:"cycles"`
	// Interval is the pause between two cycles.
	// Intervals below one second require root.
	Interval time.Duration `json:"interval" yaml:"interval" mapstructure:"interval"`
	// MaxTTL is the maximum hop distance probed.
	MaxTTL int `json:"maxHops" yaml:"maxHops" mapstructure:"maxHops"`
	// Timeout is the time to wait for the answer of a single hop.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	// Port is the destination port of the tcp and udp methods.
	Port int `json:"port" yaml:"port" mapstructure:"port"`
	// Retry is the retry configuration for single hop traces and tool runs.
	Retry helper.RetryConfig `json:"retry" yaml:"retry" mapstructure:"retry"`
}

func (o Options) Validate() error {
	var errs []error
	if o.Cycles < 1 {
		errs = append(errs, fmt.Errorf("cycles must be at least 1, got %d", o.Cycles))
	}
	if o.MaxTTL < 1 || o.MaxTTL > 255 {
		errs = append(errs, fmt.Errorf("max hops must be between 1 and 255, got %d", o.MaxTTL))
	}
	if o.Interval < 0 {
		errs = append(errs, fmt.Errorf("interval must not be negative, got %s", o.Interval))
	}
	if o.Port < 0 || o.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d, must be between 0 and 65535", o.Port))
	}
	return errors.Join(errs...)
}

// portFor returns the configured port or the default port of the method.
func (o Options) portFor(m Method) int {
	if o.Port != 0 {
		return o.Port
	}
	if m == MethodUDP {
		return defaultUDPPort
	}
	return defaultTCPPort
}

// HopSample is the observation of one hop distance within one cycle.
type HopSample struct {
	// Index is the hop distance, starting at 1.
	Index int `json:"index" yaml:"index"`
	// Address is the address that answered. Empty when nobody answered.
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
	// RTT is the round trip time. Zero when nobody answered.
	RTT time.Duration `json:"rtt" yaml:"rtt"`
	// Loss is true when the probe round for this hop failed.
	Loss bool `json:"loss" yaml:"loss"`
}

// Responded reports whether the sample carries an answering address.
func (s HopSample) Responded() bool {
	return s.Address != "" && !s.Loss
}

func (s HopSample) String() string {
	addr := s.Address
	if addr == "" {
		addr = "*"
	}
	loss := ""
	if s.Loss {
		loss = "  (loss)"
	}
	return fmt.Sprintf("%-2d  %-45.45s  %s%s", s.Index, addr, s.RTT.String(), loss)
}

// Cycle is one complete pass over all hops towards a destination.
// Samples are ordered by Index without gaps or duplicates.
type Cycle struct {
	Samples []HopSample `json:"samples" yaml:"samples"`
}

// responded reports whether any hop of the cycle answered.
func (c Cycle) responded() bool {
	return slices.ContainsFunc(c.Samples, HopSample.Responded)
}

// target is the resolved destination of an in-process trace.
type target struct {
	// destination is the literal destination as configured.
	destination string
	// addr is the resolved address dialed at the given port.
	addr net.Addr
	// hopTTL is the TTL of the probe.
	hopTTL int
	// hopChan receives the result of the probe.
	hopChan chan<- hopResult
}

// withHopTTL returns a copy of the target probing the given TTL.
func (t target) withHopTTL(ttl int) target {
	t.hopTTL = ttl
	return t
}

func (t target) String() string {
	if t.addr != nil {
		return t.addr.String()
	}
	return t.destination
}

// hopResult is a sample produced by a single in-process hop trace.
type hopResult struct {
	sample HopSample
	// reached is set when the destination itself answered.
	reached bool
}

// newTarget resolves the destination for the given method and port.
func newTarget(destination string, m Method, port int) (target, error) {
	hostport := net.JoinHostPort(destination, strconv.Itoa(port))
	var (
		addr net.Addr
		err  error
	)
	switch m {
	case MethodTCP:
		addr, err = net.ResolveTCPAddr("tcp4", hostport)
	case MethodUDP:
		addr, err = net.ResolveUDPAddr("udp4", hostport)
	default:
		return target{}, fmt.Errorf("method %s does not trace in-process", m)
	}
	if err != nil {
		return target{}, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	return target{destination: destination, addr: addr}, nil
}
