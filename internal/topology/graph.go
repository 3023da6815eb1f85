// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package topology

import (
	"cmp"
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/telekom/tracemap/internal/canonical"
	"github.com/telekom/tracemap/internal/geo"
)

var (
	// ErrFrozen is returned when merging into a frozen graph.
	ErrFrozen = errors.New("graph is frozen")
	// ErrEmptyPath is returned when merging a path without hops.
	ErrEmptyPath = errors.New("path has no hops")
)

//go:generate go tool moq -out locator_moq.go . Locator

// Locator resolves the geolocation of an address.
type Locator interface {
	Resolve(ctx context.Context, address string) geo.Record
}

// Graph is the merged topology of all destination paths.
// It is safe for concurrent use.
type Graph struct {
	locator Locator
	origin  string

	mu           sync.Mutex
	frozen       bool
	nodes        map[string]*node
	edges        map[edgeKey]*edge
	destinations map[string]struct{}
}

type node struct {
	kind         Kind
	address      string
	geo          *geo.Record
	destinations map[string]struct{}
	traversals   int
	hopIndex     int
	// reach is the smallest latency from the origin to the node.
	reach    time.Duration
	hasReach bool
}

type edgeKey struct{ from, to string }

type edge struct {
	weight       int
	destinations map[string]struct{}
	latency      time.Duration
	hasLatency   bool
}

// Option configures a [Graph].
type Option func(*Graph)

// WithOrigin sets the address of the measuring host.
// The origin node is then geolocated like any hop.
func WithOrigin(address string) Option {
	return func(g *Graph) {
		g.origin = address
	}
}

// New creates an empty graph. The locator may be nil, in which case no
// node carries a geolocation.
func New(locator Locator, opts ...Option) *Graph {
	g := &Graph{
		locator:      locator,
		nodes:        map[string]*node{},
		edges:        map[edgeKey]*edge{},
		destinations: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// step is one node of a path in merge order.
type step struct {
	id       string
	kind     Kind
	address  string
	geo      *geo.Record
	hopIndex int
	// latency from the origin, avg minus standard deviation of the round trip time.
	latency time.Duration
	hasRTT  bool
}

// Merge folds path into the graph. The origin node precedes the first
// hop. Every consecutive pair of nodes adds one to the weight of the edge
// between them. Merging only accumulates, so the final graph does not
// depend on the merge order.
//
// Geolocation is resolved before the graph is locked.
func (g *Graph) Merge(ctx context.Context, path canonical.Path) error {
	if len(path.Hops) == 0 {
		return ErrEmptyPath
	}
	steps := g.steps(ctx, path)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.frozen {
		return ErrFrozen
	}

	g.destinations[path.Destination] = struct{}{}
	for i, s := range steps {
		g.upsertNode(s, path.Destination)
		if i > 0 {
			g.upsertEdge(steps[i-1], s, path.Destination)
		}
	}
	return nil
}

func (g *Graph) steps(ctx context.Context, path canonical.Path) []step {
	steps := make([]step, 0, len(path.Hops)+1)
	origin := step{id: OriginID, kind: KindOrigin, address: g.origin, hasRTT: true}
	if g.origin != "" {
		origin.geo = g.locate(ctx, g.origin)
	}
	steps = append(steps, origin)

	for i, hop := range path.Hops {
		if hop.Unknown {
			steps = append(steps, step{
				id:       UnknownID(path.Destination, hop.Index),
				kind:     KindUnknown,
				hopIndex: hop.Index,
			})
			continue
		}
		kind := KindHop
		if path.Reached && i == len(path.Hops)-1 {
			kind = KindDestination
		}
		steps = append(steps, step{
			id:      hop.Address,
			kind:    kind,
			address: hop.Address,
			geo:     g.locate(ctx, hop.Address),
			latency: hop.RTT.Avg - hop.RTT.StdDev,
			hasRTT:  hop.Responses > 0,
		})
	}
	return steps
}

func (g *Graph) locate(ctx context.Context, address string) *geo.Record {
	if g.locator == nil {
		return nil
	}
	rec := g.locator.Resolve(ctx, address)
	return &rec
}

func (g *Graph) upsertNode(s step, destination string) {
	n, ok := g.nodes[s.id]
	if !ok {
		n = &node{
			kind:         s.kind,
			address:      s.address,
			hopIndex:     s.hopIndex,
			destinations: map[string]struct{}{},
		}
		g.nodes[s.id] = n
	}
	if s.kind.rank() > n.kind.rank() {
		n.kind = s.kind
	}
	if s.geo != nil && (n.geo == nil || !n.geo.Resolved && s.geo.Resolved) {
		n.geo = s.geo
	}
	n.destinations[destination] = struct{}{}
	n.traversals++

	if s.kind != KindOrigin && s.hasRTT && (!n.hasReach || s.latency < n.reach) {
		n.reach = s.latency
		n.hasReach = true
	}
}

func (g *Graph) upsertEdge(from, to step, destination string) {
	key := edgeKey{from: from.id, to: to.id}
	e, ok := g.edges[key]
	if !ok {
		e = &edge{destinations: map[string]struct{}{}}
		g.edges[key] = e
	}
	e.weight++
	e.destinations[destination] = struct{}{}

	// Negative deltas from jitter are kept.
	if from.hasRTT && to.hasRTT {
		latency := to.latency - from.latency
		if !e.hasLatency || latency < e.latency {
			e.latency = latency
			e.hasLatency = true
		}
	}
}

// Freeze stops further merges and returns the graph as a [Snapshot].
// Freezing again returns an equal snapshot.
func (g *Graph) Freeze() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.frozen = true

	snap := Snapshot{
		Nodes:        make([]Node, 0, len(g.nodes)),
		Edges:        make([]Edge, 0, len(g.edges)),
		Destinations: sortedSet(g.destinations),
	}
	for id, n := range g.nodes {
		var rec *geo.Record
		if n.geo != nil {
			r := *n.geo
			rec = &r
		}
		snap.Nodes = append(snap.Nodes, Node{
			ID:           id,
			Kind:         n.kind,
			Address:      n.address,
			Geo:          rec,
			Destinations: sortedSet(n.destinations),
			Traversals:   n.traversals,
			HopIndex:     n.hopIndex,
			Reach:        n.reach,
			HasReach:     n.hasReach,
		})
	}
	for k, e := range g.edges {
		snap.Edges = append(snap.Edges, Edge{
			From:         k.from,
			To:           k.to,
			Weight:       e.weight,
			Destinations: sortedSet(e.destinations),
			Latency:      e.latency,
			HasLatency:   e.hasLatency,
		})
	}

	slices.SortFunc(snap.Nodes, func(a, b Node) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(snap.Edges, func(a, b Edge) int {
		return cmp.Or(cmp.Compare(a.From, b.From), cmp.Compare(a.To, b.To))
	})
	return snap
}

func sortedSet(set map[string]struct{}) []string {
	return slices.Sorted(maps.Keys(set))
}
