// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package test

import (
	"time"

	"github.com/telekom/tracemap/internal/probe"
)

// NoReply marks a hop without answer in [Cycle].
const NoReply = ""

// Cycle builds a probe cycle from the answering addresses in hop order.
// Hop i answers after i milliseconds. [NoReply] is a lost probe.
func Cycle(addrs ...string) probe.Cycle {
	c := probe.Cycle{Samples: make([]probe.HopSample, 0, len(addrs))}
	for i, a := range addrs {
		s := probe.HopSample{Index: i + 1, Address: a}
		if a == NoReply {
			s.Loss = true
		} else {
			s.RTT = time.Duration(i+1) * time.Millisecond
		}
		c.Samples = append(c.Samples, s)
	}
	return c
}

// Cycles repeats the same cycle n times.
func Cycles(n int, addrs ...string) []probe.Cycle {
	cycles := make([]probe.Cycle, n)
	for i := range cycles {
		cycles[i] = Cycle(addrs...)
	}
	return cycles
}
