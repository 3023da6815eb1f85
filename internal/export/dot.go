// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/awalterschulze/gographviz"

	"github.com/telekom/tracemap/internal/topology"
)

const graphName = "tracemap"

// palette colours edges by their first contributing destination.
var palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

const (
	minPenWidth = 1.0
	maxPenWidth = 8.0
)

type attr struct{ key, value string }

var graphAttrs = []attr{
	{"rankdir", "LR"},
	{"fontname", "Helvetica"},
	{"label", strconv.Quote("tracemap")},
}

// Encode renders the snapshot as a directed graph in DOT format.
// Every node and every edge of the snapshot appears exactly once.
func Encode(s topology.Snapshot) ([]byte, error) {
	g := gographviz.NewGraph()
	if err := g.SetName(graphName); err != nil {
		return nil, err
	}
	if err := g.SetDir(true); err != nil {
		return nil, err
	}
	for _, a := range graphAttrs {
		if err := g.AddAttr(graphName, a.key, a.value); err != nil {
			return nil, fmt.Errorf("graph attribute %s: %w", a.key, err)
		}
	}

	colors := make(map[string]string, len(s.Destinations))
	for i, d := range s.Destinations {
		colors[d] = palette[i%len(palette)]
	}

	kinds := make(map[string]topology.Kind, len(s.Nodes))
	for _, n := range s.Nodes {
		kinds[n.ID] = n.Kind
		if err := g.AddNode(graphName, strconv.Quote(n.ID), toMap(nodeAttrs(n))); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, e := range s.Edges {
		attrs := edgeAttrs(e, colors)
		if kinds[e.From] == topology.KindUnknown || kinds[e.To] == topology.KindUnknown {
			attrs = append(attrs, attr{"style", "dashed"})
		}
		if err := g.AddEdge(strconv.Quote(e.From), strconv.Quote(e.To), true, toMap(attrs)); err != nil {
			return nil, fmt.Errorf("edge %s: %w", e, err)
		}
	}
	return []byte(g.String()), nil
}

func nodeAttrs(n topology.Node) []attr {
	lines := []string{n.ID}
	switch n.Kind {
	case topology.KindOrigin:
		lines = []string{"origin"}
		if n.Address != "" {
			lines = append(lines, n.Address)
		}
	case topology.KindUnknown:
		lines = []string{"???", fmt.Sprintf("hop %d", n.HopIndex)}
	}
	if n.Geo != nil && n.Geo.Resolved {
		lines = append(lines, n.Geo.Place(), fmt.Sprintf("(%.2f, %.2f)", n.Geo.Latitude, n.Geo.Longitude))
	}

	attrs := []attr{
		{"label", strconv.Quote(strings.Join(lines, "\n"))},
		{"tooltip", strconv.Quote(tooltip(n))},
	}
	switch n.Kind {
	case topology.KindOrigin:
		attrs = append(attrs, attr{"shape", "house"}, attr{"style", "filled"}, attr{"fillcolor", "lightgrey"})
	case topology.KindDestination:
		attrs = append(attrs, attr{"shape", "doublecircle"}, attr{"style", "filled"}, attr{"fillcolor", "lightblue"})
	case topology.KindUnknown:
		attrs = append(attrs, attr{"shape", "ellipse"}, attr{"style", "dashed"})
	default:
		attrs = append(attrs, attr{"shape", "box"}, attr{"style", "filled"}, attr{"fillcolor", "lightblue"})
	}
	return attrs
}

func tooltip(n topology.Node) string {
	var b strings.Builder
	if n.Geo != nil && n.Geo.Resolved && n.Geo.ASN != "" {
		b.WriteString(n.Geo.ASN)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "traversals: %d\ndestinations: %s", n.Traversals, strings.Join(n.Destinations, ", "))
	return b.String()
}

func edgeAttrs(e topology.Edge, colors map[string]string) []attr {
	color := palette[0]
	if len(e.Destinations) > 0 {
		color = colors[e.Destinations[0]]
	}
	tip := strings.Join(e.Destinations, ", ")
	attrs := []attr{
		{"color", strconv.Quote(color)},
		{"penwidth", penWidth(e.Weight)},
	}
	if e.HasLatency {
		label := formatLatency(e.Latency)
		tip += " | " + label
		attrs = append(attrs, attr{"label", strconv.Quote(label)})
	}
	return append(attrs, attr{"tooltip", strconv.Quote(tip)})
}

// penWidth grows logarithmically with the weight.
func penWidth(weight int) string {
	w := minPenWidth + math.Log2(float64(max(weight, 1)))
	return strconv.FormatFloat(math.Min(w, maxPenWidth), 'f', 1, 64)
}

func formatLatency(d time.Duration) string {
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 1, 64) + "ms"
}

func toMap(attrs []attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.key] = a.value
	}
	return m
}
