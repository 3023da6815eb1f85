// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package resolve resolves probe destinations to the addresses that count
// as "destination reached" when a canonical path is terminated.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"slices"
	"time"

	"github.com/miekg/dns"
	"github.com/telekom/tracemap/internal/logger"
)

// ErrNoAddress is returned when a host has neither A nor AAAA records.
var ErrNoAddress = errors.New("no address found")

// resolvConf is the system resolver configuration.
const resolvConf = "/etc/resolv.conf"

// Resolver resolves a destination to its addresses.
//
//go:generate go tool moq -out resolver_moq.go . Resolver
type Resolver interface {
	// Resolve returns the sorted, de-duplicated addresses of host.
	// A literal IP address resolves to itself.
	Resolve(ctx context.Context, host string) ([]netip.Addr, error)
}

// Config configures the [Resolver].
type Config struct {
	// Servers are the nameservers as host:port.
	// Defaults to the nameservers of /etc/resolv.conf.
	Servers []string `json:"servers" yaml:"servers" mapstructure:"servers"`
	// Timeout is the timeout of a single query.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// hostLookuper resolves through the system resolver, see [net.Resolver].
type hostLookuper interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

type resolver struct {
	client  *dns.Client
	servers []string
	// fallback resolves hosts the nameservers do not know
	fallback hostLookuper
	// system is set unless nameservers were configured. Misses of the
	// nameservers of /etc/resolv.conf are then retried with the fallback,
	// which honours /etc/hosts and the search domains.
	system bool
}

// NewResolver creates a [Resolver] querying the configured nameservers.
// Without configured nameservers the ones of /etc/resolv.conf are used and
// hosts they cannot resolve are looked up with the Go resolver of the
// standard library. That resolver is also used alone if the file cannot
// be read.
func NewResolver(ctx context.Context, cfg Config) Resolver {
	log := logger.FromContext(ctx)
	r := &resolver{
		client:   &dns.Client{Timeout: cfg.Timeout},
		servers:  cfg.Servers,
		fallback: net.DefaultResolver,
	}

	if len(r.servers) == 0 {
		r.system = true
		cc, err := dns.ClientConfigFromFile(resolvConf)
		if err != nil {
			log.WarnContext(ctx, "Failed to read resolver configuration, using system resolver", "path", resolvConf, "error", err)
			return r
		}
		for _, s := range cc.Servers {
			r.servers = append(r.servers, net.JoinHostPort(s, cc.Port))
		}
	}
	return r
}

// Resolve sends A and AAAA queries for host.
func (r *resolver) Resolve(ctx context.Context, host string) ([]netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return []netip.Addr{addr.Unmap()}, nil
	}
	log := logger.FromContext(ctx)

	var (
		addrs []netip.Addr
		err   error
	)
	if len(r.servers) > 0 {
		addrs, err = r.queryAll(ctx, host)
	}
	if len(addrs) == 0 && r.system {
		log.DebugContext(ctx, "Nameservers returned no address, trying system resolver", "host", host, "error", err)
		found, lerr := r.fallback.LookupNetIP(ctx, "ip", host)
		if lerr != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", host, errors.Join(err, lerr))
		}
		addrs = found
	}
	if len(addrs) == 0 && err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", host, err)
	}

	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoAddress, host)
	}
	for i := range addrs {
		addrs[i] = addrs[i].Unmap()
	}
	slices.SortFunc(addrs, netip.Addr.Compare)
	return slices.Compact(addrs), nil
}

// queryAll sends the A and AAAA queries. Addresses are returned if either
// query found some.
func (r *resolver) queryAll(ctx context.Context, host string) ([]netip.Addr, error) {
	var (
		addrs []netip.Addr
		errs  []error
	)
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		found, err := r.query(ctx, host, qtype)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		addrs = append(addrs, found...)
	}
	return addrs, errors.Join(errs...)
}

// query asks the nameservers in order until one answers.
func (r *resolver) query(ctx context.Context, host string, qtype uint16) ([]netip.Addr, error) {
	log := logger.FromContext(ctx)
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), qtype)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers {
		resp, rtt, err := r.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			log.DebugContext(ctx, "DNS query failed", "server", server, "host", host, "type", dns.TypeToString[qtype], "error", err)
			lastErr = err
			continue
		}
		log.DebugContext(ctx, "DNS query answered", "server", server, "host", host, "type", dns.TypeToString[qtype], "rtt", rtt)

		switch resp.Rcode {
		case dns.RcodeSuccess:
			return answers(resp), nil
		case dns.RcodeNameError:
			return nil, fmt.Errorf("%w: %s does not exist", ErrNoAddress, host)
		default:
			lastErr = fmt.Errorf("server %s answered %s", server, dns.RcodeToString[resp.Rcode])
		}
	}
	return nil, lastErr
}

// answers extracts the A and AAAA records of a response.
// CNAME targets are resolved by the server and appear as records of their own.
func answers(resp *dns.Msg) []netip.Addr {
	var addrs []netip.Addr
	for _, rr := range resp.Answer {
		var ip net.IP
		switch rec := rr.(type) {
		case *dns.A:
			ip = rec.A
		case *dns.AAAA:
			ip = rec.AAAA
		default:
			continue
		}
		if addr, ok := netip.AddrFromSlice(ip); ok {
			addrs = append(addrs, addr)
		}
	}
	return addrs
}
