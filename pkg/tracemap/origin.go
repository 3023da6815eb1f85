// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracemap

import (
	"context"
	"net"
	"net/netip"

	"github.com/telekom/tracemap/internal/geo"
	"github.com/telekom/tracemap/internal/logger"
)

// origin returns the configured origin address. Without one it falls back
// to the first public IPv4 address of the host's interfaces and returns an
// empty string if there is none.
func (t *Tracemap) origin(ctx context.Context) string {
	if t.config.Origin != "" {
		return t.config.Origin
	}
	log := logger.FromContext(ctx)

	addrs, err := t.interfaceAddrs()
	if err != nil {
		log.WarnContext(ctx, "Failed to list interface addresses, running without origin address", "error", err)
		return ""
	}
	for _, a := range addrs {
		ip, ok := interfaceIP(a)
		if ok && ip.Is4() && !geo.IsReserved(ip) {
			log.InfoContext(ctx, "Detected origin address", "origin", ip)
			return ip.String()
		}
	}

	log.InfoContext(ctx, "No public IPv4 address on any interface, running without origin address")
	return ""
}

func interfaceIP(a net.Addr) (netip.Addr, bool) {
	var raw net.IP
	switch v := a.(type) {
	case *net.IPNet:
		raw = v.IP
	case *net.IPAddr:
		raw = v.IP
	default:
		return netip.Addr{}, false
	}
	ip, ok := netip.AddrFromSlice(raw)
	return ip.Unmap(), ok
}
