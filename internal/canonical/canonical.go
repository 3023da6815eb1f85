// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package canonical reduces the probe cycles of one destination to a single
// canonical path by majority vote per hop index.
package canonical

import (
	"errors"
	"fmt"
	"math"
	"net/netip"
	"slices"
	"time"

	"github.com/telekom/tracemap/internal/probe"
)

// ErrInsufficientData is returned when no cycles are supplied for a destination.
var ErrInsufficientData = errors.New("insufficient data: no probe cycles")

// Stats are the round trip statistics of the samples that agree with the
// canonical address of a hop.
type Stats struct {
	Best   time.Duration `json:"best" yaml:"best"`
	Worst  time.Duration `json:"worst" yaml:"worst"`
	Avg    time.Duration `json:"avg" yaml:"avg"`
	StdDev time.Duration `json:"stdDev" yaml:"stdDev"`
}

// Hop is the consolidated view of one hop index.
type Hop struct {
	Index int `json:"index" yaml:"index"`
	// Address is the canonical address. Empty for unknown hops.
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
	// Unknown is set when no sample at this index responded.
	Unknown bool `json:"unknown" yaml:"unknown"`
	// Samples is the number of samples observed at this index.
	Samples int `json:"samples" yaml:"samples"`
	// Responses is the number of samples that responded.
	Responses int `json:"responses" yaml:"responses"`
	// Loss is the percentage of samples that did not respond.
	Loss float64 `json:"loss" yaml:"loss"`
	// RTT is only set for resolved hops.
	RTT Stats `json:"rtt" yaml:"rtt"`
}

func (h Hop) String() string {
	addr := h.Address
	if h.Unknown {
		addr = "???"
	}
	return fmt.Sprintf("%-2d  %-40.40s  %5.1f%%  %3d/%-3d  avg %s", h.Index, addr, h.Loss, h.Responses, h.Samples, h.RTT.Avg)
}

// Path is the canonical hop sequence towards one destination.
// Hop indexes form the contiguous range 1..len(Hops).
type Path struct {
	Destination string `json:"destination" yaml:"destination"`
	Hops        []Hop  `json:"hops" yaml:"hops"`
	// Reached is false when the destination never answered. The path is
	// then incomplete and keeps its full observed length.
	Reached bool `json:"reached" yaml:"reached"`
}

// Resolved reports whether at least one hop of the path has an address.
func (p Path) Resolved() bool {
	return slices.ContainsFunc(p.Hops, func(h Hop) bool { return !h.Unknown })
}

// Canonicalize reduces the cycles collected for destination to a [Path].
//
// For every hop index up to the largest observed one the most frequent
// responding address wins. Ties are broken by the earliest occurrence,
// ordered by cycle and then by position within the cycle. Indexes without
// any responding sample are unknown and keep their slot.
//
// The path ends at the first hop whose address is the destination itself,
// either the literal destination or one of its resolved addresses.
func Canonicalize(destination string, addrs []netip.Addr, cycles []probe.Cycle) (Path, error) {
	if len(cycles) == 0 {
		return Path{}, fmt.Errorf("%w for %s", ErrInsufficientData, destination)
	}

	maxIndex := 0
	for _, c := range cycles {
		for _, s := range c.Samples {
			maxIndex = max(maxIndex, s.Index)
		}
	}

	buckets := make([][]probe.HopSample, maxIndex+1)
	for _, c := range cycles {
		for _, s := range c.Samples {
			if s.Index > 0 {
				buckets[s.Index] = append(buckets[s.Index], s)
			}
		}
	}

	path := Path{Destination: destination, Hops: make([]Hop, 0, maxIndex)}
	for i := 1; i <= maxIndex; i++ {
		hop := vote(i, buckets[i])
		path.Hops = append(path.Hops, hop)
		if !hop.Unknown && isDestination(hop.Address, destination, addrs) {
			path.Reached = true
			break
		}
	}
	return path, nil
}

// vote elects the canonical address of one hop index.
// Samples must be in occurrence order.
func vote(index int, samples []probe.HopSample) Hop {
	hop := Hop{Index: index, Samples: len(samples), Unknown: true}

	counts := map[string]int{}
	var order []string
	for _, s := range samples {
		if !s.Responded() {
			continue
		}
		hop.Responses++
		if counts[s.Address] == 0 {
			order = append(order, s.Address)
		}
		counts[s.Address]++
	}
	if hop.Samples > 0 {
		hop.Loss = float64(hop.Samples-hop.Responses) / float64(hop.Samples) * 100
	}
	if hop.Responses == 0 {
		return hop
	}

	// order lists addresses by first occurrence, so the first maximum wins ties.
	best := order[0]
	for _, addr := range order[1:] {
		if counts[addr] > counts[best] {
			best = addr
		}
	}
	hop.Address = best
	hop.Unknown = false
	hop.RTT = stats(best, samples)
	return hop
}

// stats computes the round trip statistics of the responding samples of addr.
func stats(addr string, samples []probe.HopSample) Stats {
	var rtts []time.Duration
	for _, s := range samples {
		if s.Responded() && s.Address == addr {
			rtts = append(rtts, s.RTT)
		}
	}
	if len(rtts) == 0 {
		return Stats{}
	}

	st := Stats{Best: slices.Min(rtts), Worst: slices.Max(rtts)}
	var sum float64
	for _, r := range rtts {
		sum += float64(r)
	}
	avg := sum / float64(len(rtts))
	var variance float64
	for _, r := range rtts {
		variance += math.Pow(float64(r)-avg, 2)
	}
	variance /= float64(len(rtts))

	st.Avg = time.Duration(math.Round(avg))
	st.StdDev = time.Duration(math.Round(math.Sqrt(variance)))
	return st
}

// isDestination reports whether addr is the destination itself.
func isDestination(addr, destination string, addrs []netip.Addr) bool {
	if addr == destination {
		return true
	}
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return false
	}
	return slices.Contains(addrs, ip.Unmap())
}
