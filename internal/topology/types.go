// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package topology

import (
	"fmt"
	"time"

	"github.com/telekom/tracemap/internal/geo"
)

// OriginID is the node identity of the measuring host.
const OriginID = "origin"

// Kind classifies a [Node].
type Kind string

const (
	KindOrigin      Kind = "origin"
	KindHop         Kind = "hop"
	KindUnknown     Kind = "unknown"
	KindDestination Kind = "destination"
)

// rank orders kinds when a node is seen in more than one role.
func (k Kind) rank() int {
	switch k {
	case KindOrigin:
		return 3
	case KindDestination:
		return 2
	case KindHop:
		return 1
	default:
		return 0
	}
}

// Node is a host of the merged graph.
type Node struct {
	// ID is the resolved address, [OriginID] or a synthetic unknown identity.
	ID      string `json:"id" yaml:"id"`
	Kind    Kind   `json:"kind" yaml:"kind"`
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
	// Geo is nil for unknown nodes and an origin without address.
	Geo *geo.Record `json:"geo,omitempty" yaml:"geo,omitempty"`
	// Destinations lists every destination whose path contains the node.
	Destinations []string `json:"destinations" yaml:"destinations"`
	// Traversals counts how often merged paths pass the node.
	Traversals int `json:"traversals" yaml:"traversals"`
	// HopIndex is the position of an unknown node in its path.
	HopIndex int `json:"hopIndex,omitempty" yaml:"hopIndex,omitempty"`
	// Reach is the smallest latency from the origin to the node over all
	// paths, taken as average minus standard deviation of the round trip
	// time. Only set when HasReach is true.
	Reach    time.Duration `json:"reach,omitempty" yaml:"reach,omitempty"`
	HasReach bool          `json:"hasReach" yaml:"hasReach"`
}

// Edge connects two consecutive hops of at least one path.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	// Weight counts the merged paths traversing the edge.
	Weight       int      `json:"weight" yaml:"weight"`
	Destinations []string `json:"destinations" yaml:"destinations"`
	// Latency is the smallest observed difference of the origin latencies
	// of both ends. It may be negative. Only set when HasLatency is true.
	Latency    time.Duration `json:"latency,omitempty" yaml:"latency,omitempty"`
	HasLatency bool          `json:"hasLatency" yaml:"hasLatency"`
}

func (e Edge) String() string {
	return fmt.Sprintf("%s -> %s (weight %d)", e.From, e.To, e.Weight)
}

// Snapshot is the frozen merged graph. Nodes are sorted by ID, edges by
// From and To, destinations lexically.
type Snapshot struct {
	Nodes        []Node   `json:"nodes" yaml:"nodes"`
	Edges        []Edge   `json:"edges" yaml:"edges"`
	Destinations []string `json:"destinations" yaml:"destinations"`
}

// Node returns the node with the given ID.
func (s Snapshot) Node(id string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Edge returns the edge between from and to.
func (s Snapshot) Edge(from, to string) (Edge, bool) {
	for _, e := range s.Edges {
		if e.From == from && e.To == to {
			return e, true
		}
	}
	return Edge{}, false
}

// Empty reports whether nothing was merged.
func (s Snapshot) Empty() bool {
	return len(s.Edges) == 0
}

// UnknownID is the synthetic identity of the unresponsive hop at index
// of the path towards destination.
func UnknownID(destination string, index int) string {
	return fmt.Sprintf("unknown:%s#%d", destination, index)
}
