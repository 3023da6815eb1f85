// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"time"

	"github.com/telekom/tracemap/internal/geo"
	"github.com/telekom/tracemap/internal/topology"
)

// sampleSnapshot is a two destination graph with one unknown hop:
//
//	origin -> 10.0.0.1 -> 80.156.86.1 -> 93.184.216.34 (d.example, reached)
//	                   \-> unknown:e.example#2 -> 1.1.1.1 (e.example)
func sampleSnapshot() topology.Snapshot {
	unknownID := topology.UnknownID("e.example", 2)
	return topology.Snapshot{
		Destinations: []string{"d.example", "e.example"},
		Nodes: []topology.Node{
			{ID: "1.1.1.1", Kind: topology.KindHop, Address: "1.1.1.1", Destinations: []string{"e.example"}, Traversals: 1, Reach: 30 * time.Millisecond, HasReach: true,
				Geo: &geo.Record{Address: "1.1.1.1", Country: "AU", City: "Sydney", Latitude: -33.86, Longitude: 151.2, ASN: "AS13335 Cloudflare, Inc.", Resolved: true}},
			{ID: "10.0.0.1", Kind: topology.KindHop, Address: "10.0.0.1", Destinations: []string{"d.example", "e.example"}, Traversals: 2, Reach: time.Millisecond, HasReach: true,
				Geo: &geo.Record{Address: "10.0.0.1"}},
			{ID: "80.156.86.1", Kind: topology.KindHop, Address: "80.156.86.1", Destinations: []string{"d.example"}, Traversals: 1, Reach: 5 * time.Millisecond, HasReach: true,
				Geo: &geo.Record{Address: "80.156.86.1", Country: "DE", City: "Berlin", Latitude: 52.52, Longitude: 13.4, Resolved: true}},
			{ID: "93.184.216.34", Kind: topology.KindDestination, Address: "93.184.216.34", Destinations: []string{"d.example"}, Traversals: 1, Reach: 20500 * time.Microsecond, HasReach: true,
				Geo: &geo.Record{Address: "93.184.216.34", Country: "US", City: "Norwell", Latitude: 42.15, Longitude: -70.82, Resolved: true}},
			{ID: topology.OriginID, Kind: topology.KindOrigin, Destinations: []string{"d.example", "e.example"}, Traversals: 2},
			{ID: unknownID, Kind: topology.KindUnknown, Destinations: []string{"e.example"}, Traversals: 1, HopIndex: 2},
		},
		Edges: []topology.Edge{
			{From: "10.0.0.1", To: "80.156.86.1", Weight: 1, Destinations: []string{"d.example"}, Latency: 4 * time.Millisecond, HasLatency: true},
			{From: "10.0.0.1", To: unknownID, Weight: 1, Destinations: []string{"e.example"}},
			{From: "80.156.86.1", To: "93.184.216.34", Weight: 1, Destinations: []string{"d.example"}, Latency: 15500 * time.Microsecond, HasLatency: true},
			{From: topology.OriginID, To: "10.0.0.1", Weight: 2, Destinations: []string{"d.example", "e.example"}, Latency: time.Millisecond, HasLatency: true},
			{From: unknownID, To: "1.1.1.1", Weight: 1, Destinations: []string{"e.example"}},
		},
	}
}
