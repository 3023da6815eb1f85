// Package probe collects repeated traceroute cycles towards a destination.
//
// A [Collector] runs a configurable number of probe cycles against one
// destination and returns them as an ordered list of [Cycle]s. Every cycle
// holds one [HopSample] per hop distance, starting at 1.
//
// Three collection methods are available:
//   - mtr runs the mtr binary in raw mode and splits its probe stream into
//     cycles. This is the default.
//   - tcp dials TCP connections with incrementing TTLs and reads the ICMP
//     answers from a raw socket. Requires NET_RAW capabilities.
//   - udp sends UDP datagrams with incrementing TTLs and reads the ICMP
//     answers from the socket error queue. Works without elevated privileges.
//
// Per-destination failures are returned as [*FailureError] wrapping one of
// [ErrToolNotFound], [ErrPrivilege] or [ErrUnreachable].
//
// Typical usage:
//
//	c, err := probe.NewCollector(probe.MethodMTR)
//	cycles, err := c.Collect(ctx, "8.8.8.8", probe.Options{Cycles: 10, Interval: time.Second, MaxTTL: 30})
package probe
