// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telekom/tracemap/internal/topology"
)

func TestWriteLatencyMatrix(t *testing.T) {
	tests := []struct {
		name string
		snap topology.Snapshot
		want string
	}{
		{
			name: "sample graph",
			snap: sampleSnapshot(),
			want: ",1.1.1.1,10.0.0.1,80.156.86.1,93.184.216.34,origin\n" +
				"1.1.1.1,,,,,30.000\n" +
				"10.0.0.1,,,4.000,,1.000\n" +
				"80.156.86.1,,4.000,,15.500,5.000\n" +
				"93.184.216.34,,,15.500,,20.500\n" +
				"origin,30.000,1.000,5.000,20.500,\n",
		},
		{
			name: "origin row without edge latencies",
			snap: topology.Snapshot{Nodes: []topology.Node{
				{ID: "a", Reach: 2 * time.Millisecond, HasReach: true},
				{ID: "b"},
			}},
			want: ",a,origin\na,,2.000\norigin,2.000,\n",
		},
		{
			name: "negative latencies are written",
			snap: topology.Snapshot{Edges: []topology.Edge{
				{From: "a", To: "b", Latency: -1500 * time.Microsecond, HasLatency: true},
			}},
			want: ",a,b\na,,-1.500\nb,-1.500,\n",
		},
		{
			name: "both directions keep the smaller latency",
			snap: topology.Snapshot{Edges: []topology.Edge{
				{From: "a", To: "b", Latency: 3 * time.Millisecond, HasLatency: true},
				{From: "b", To: "a", Latency: 2 * time.Millisecond, HasLatency: true},
			}},
			want: ",a,b\na,,2.000\nb,2.000,\n",
		},
		{
			name: "no latencies",
			snap: topology.Snapshot{Edges: []topology.Edge{{From: "a", To: "b"}}},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteLatencyMatrix(&buf, tt.snap))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
