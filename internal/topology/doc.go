// Package topology merges the canonical paths of all destinations into one
// directed graph.
//
// Resolved hops are identified by their address and shared between paths.
// Unresponsive hops get a synthetic identity scoped to their destination
// and hop index and are never shared. Edges accumulate a weight of one per
// merged path. Once frozen, the graph hands out an immutable [Snapshot].
package topology
