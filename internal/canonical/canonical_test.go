// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package canonical

import (
	"fmt"
	"math/rand/v2"
	"net/netip"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telekom/tracemap/internal/probe"
)

func cycle(addrs ...string) probe.Cycle {
	c := probe.Cycle{}
	for i, a := range addrs {
		s := probe.HopSample{Index: i + 1, Address: a, RTT: time.Duration(i+1) * time.Millisecond}
		if a == "" {
			s = probe.HopSample{Index: i + 1, Loss: true}
		}
		c.Samples = append(c.Samples, s)
	}
	return c
}

func addresses(p Path) []string {
	out := make([]string, len(p.Hops))
	for i, h := range p.Hops {
		out[i] = h.Address
		if h.Unknown {
			out[i] = "?"
		}
	}
	return out
}

func TestCanonicalize(t *testing.T) {
	dst := []netip.Addr{netip.MustParseAddr("203.0.113.9")}

	tests := []struct {
		name        string
		destination string
		addrs       []netip.Addr
		cycles      []probe.Cycle
		want        []string
		wantReached bool
	}{
		{
			name:        "tie broken by earliest cycle",
			destination: "203.0.113.9",
			addrs:       dst,
			cycles: []probe.Cycle{
				cycle("10.0.0.1", "198.51.100.2", "203.0.113.9"),
				cycle("10.0.0.1", "198.51.100.3", "203.0.113.9"),
			},
			want:        []string{"10.0.0.1", "198.51.100.2", "203.0.113.9"},
			wantReached: true,
		},
		{
			name:        "tie order depends on cycle order",
			destination: "203.0.113.9",
			addrs:       dst,
			cycles: []probe.Cycle{
				cycle("10.0.0.1", "198.51.100.3", "203.0.113.9"),
				cycle("10.0.0.1", "198.51.100.2", "203.0.113.9"),
			},
			want:        []string{"10.0.0.1", "198.51.100.3", "203.0.113.9"},
			wantReached: true,
		},
		{
			name:        "majority wins over first occurrence",
			destination: "203.0.113.9",
			addrs:       dst,
			cycles: []probe.Cycle{
				cycle("10.0.0.1", "198.51.100.2"),
				cycle("10.0.0.1", "198.51.100.3"),
				cycle("10.0.0.1", "198.51.100.3"),
			},
			want: []string{"10.0.0.1", "198.51.100.3"},
		},
		{
			name:        "lost hop between responding hops is kept",
			destination: "203.0.113.9",
			addrs:       dst,
			cycles: []probe.Cycle{
				cycle("10.0.0.1", "", "203.0.113.9"),
			},
			want:        []string{"10.0.0.1", "?", "203.0.113.9"},
			wantReached: true,
		},
		{
			name:        "truncated at first destination answer",
			destination: "203.0.113.9",
			addrs:       dst,
			cycles: []probe.Cycle{
				cycle("10.0.0.1", "203.0.113.9", "203.0.113.9", "203.0.113.9"),
			},
			want:        []string{"10.0.0.1", "203.0.113.9"},
			wantReached: true,
		},
		{
			name:        "hostname destination matched by resolved address",
			destination: "example.test",
			addrs:       dst,
			cycles: []probe.Cycle{
				cycle("10.0.0.1", "203.0.113.9"),
			},
			want:        []string{"10.0.0.1", "203.0.113.9"},
			wantReached: true,
		},
		{
			name:        "never reached keeps longest observed length",
			destination: "203.0.113.9",
			addrs:       dst,
			cycles: []probe.Cycle{
				cycle("10.0.0.1", "198.51.100.2"),
				cycle("10.0.0.1", "198.51.100.2", "", ""),
			},
			want: []string{"10.0.0.1", "198.51.100.2", "?", "?"},
		},
		{
			name:        "anonymous reply is not a response",
			destination: "203.0.113.9",
			addrs:       dst,
			cycles: []probe.Cycle{
				{Samples: []probe.HopSample{{Index: 1, RTT: time.Millisecond}, {Index: 2, Address: "198.51.100.2"}}},
			},
			want: []string{"?", "198.51.100.2"},
		},
		{
			name:        "gap in every cycle is filled with unknown hop",
			destination: "203.0.113.9",
			addrs:       dst,
			cycles: []probe.Cycle{
				{Samples: []probe.HopSample{{Index: 1, Address: "10.0.0.1"}, {Index: 3, Address: "203.0.113.9"}}},
			},
			want:        []string{"10.0.0.1", "?", "203.0.113.9"},
			wantReached: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.destination, tt.addrs, tt.cycles)
			require.NoError(t, err)
			assert.Equal(t, tt.destination, got.Destination)
			assert.Equal(t, tt.want, addresses(got))
			assert.Equal(t, tt.wantReached, got.Reached)
		})
	}
}

func TestCanonicalize_insufficientData(t *testing.T) {
	_, err := Canonicalize("203.0.113.9", nil, nil)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = Canonicalize("203.0.113.9", nil, []probe.Cycle{})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestCanonicalize_lossHop(t *testing.T) {
	path, err := Canonicalize("203.0.113.5", nil, []probe.Cycle{
		{Samples: []probe.HopSample{
			{Index: 1, Address: "10.0.0.1", RTT: time.Millisecond},
			{Index: 2, Loss: true},
			{Index: 3, Address: "198.51.100.7", RTT: 3 * time.Millisecond},
		}},
	})
	require.NoError(t, err)
	require.Len(t, path.Hops, 3)

	want := Hop{Index: 2, Unknown: true, Samples: 1, Responses: 0, Loss: 100}
	if diff := cmp.Diff(want, path.Hops[1]); diff != "" {
		t.Errorf("unknown hop mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, path.Reached)
	assert.True(t, path.Resolved())
}

func TestVote_counters(t *testing.T) {
	samples := []probe.HopSample{
		{Index: 4, Address: "198.51.100.2", RTT: 10 * time.Millisecond},
		{Index: 4, Loss: true},
		{Index: 4, Address: "198.51.100.2", RTT: 30 * time.Millisecond},
		{Index: 4, Address: "198.51.100.3", RTT: time.Millisecond},
	}

	got := vote(4, samples)
	want := Hop{
		Index:     4,
		Address:   "198.51.100.2",
		Samples:   4,
		Responses: 3,
		Loss:      25,
		RTT: Stats{
			Best:   10 * time.Millisecond,
			Worst:  30 * time.Millisecond,
			Avg:    20 * time.Millisecond,
			StdDev: 10 * time.Millisecond,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("vote() mismatch (-want +got):\n%s", diff)
	}
}

// randomCycles produces cycles of varying length with lost and flapping hops.
func randomCycles(r *rand.Rand) []probe.Cycle {
	cycles := make([]probe.Cycle, 1+r.IntN(5))
	for c := range cycles {
		n := 1 + r.IntN(12)
		for i := 1; i <= n; i++ {
			s := probe.HopSample{Index: i, Address: fmt.Sprintf("10.%d.0.%d", i, r.IntN(3)), RTT: time.Duration(r.IntN(100)) * time.Millisecond}
			if r.IntN(4) == 0 {
				s = probe.HopSample{Index: i, Loss: true}
			}
			cycles[c].Samples = append(cycles[c].Samples, s)
		}
	}
	return cycles
}

func TestCanonicalize_contiguousAndDeterministic(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2)) // #nosec G404 // deterministic test data
	for n := range 200 {
		cycles := randomCycles(r)

		maxIndex := 0
		for _, c := range cycles {
			maxIndex = max(maxIndex, len(c.Samples))
		}

		first, err := Canonicalize("192.0.2.1", nil, cycles)
		require.NoError(t, err)
		second, err := Canonicalize("192.0.2.1", nil, cycles)
		require.NoError(t, err)

		require.Len(t, first.Hops, maxIndex, "run %d: never reached path must keep the longest observed length", n)
		for i, h := range first.Hops {
			require.Equal(t, i+1, h.Index, "run %d: hop indexes must be contiguous", n)
		}
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("run %d: canonicalization is not deterministic (-first +second):\n%s", n, diff)
		}
	}
}

func TestHop_String(t *testing.T) {
	assert.Contains(t, Hop{Index: 2, Unknown: true, Samples: 3, Loss: 100}.String(), "???")
	assert.Contains(t, Hop{Index: 1, Address: "10.0.0.1", Samples: 3, Responses: 3}.String(), "10.0.0.1")
}
