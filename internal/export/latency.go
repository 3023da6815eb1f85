// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"encoding/csv"
	"io"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/telekom/tracemap/internal/topology"
)

// WriteLatencyMatrix writes the symmetric latency matrix of the snapshot
// as CSV. Consecutive hops contribute their edge latency and the origin
// row holds the latency to every node it reached. Rows and columns are
// the nodes with at least one latency, in ID order. Cells hold
// milliseconds, stay empty for unconnected pairs and may be negative.
// Both directions of a pair carry the smaller latency. Nothing is
// written without latencies.
func WriteLatencyMatrix(w io.Writer, s topology.Snapshot) error {
	type pair struct{ a, b string }
	cells := map[pair]time.Duration{}
	ids := map[string]struct{}{}
	set := func(from, to string, d time.Duration) {
		if from == to {
			return
		}
		for _, p := range []pair{{from, to}, {to, from}} {
			if cur, ok := cells[p]; !ok || d < cur {
				cells[p] = d
			}
		}
		ids[from] = struct{}{}
		ids[to] = struct{}{}
	}
	for _, e := range s.Edges {
		if e.HasLatency {
			set(e.From, e.To, e.Latency)
		}
	}
	for _, n := range s.Nodes {
		if n.HasReach {
			set(topology.OriginID, n.ID, n.Reach)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	order := slices.Sorted(maps.Keys(ids))

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{""}, order...)); err != nil {
		return err
	}
	for _, from := range order {
		row := make([]string, 0, len(order)+1)
		row = append(row, from)
		for _, to := range order {
			d, ok := cells[pair{from, to}]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 3, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
