// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startServer runs a DNS server on a random local UDP port answering with canned records.
func startServer(t *testing.T) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	records := map[string][]string{
		"tracemap.test.|A":    {"tracemap.test. 30 IN A 192.0.2.20", "tracemap.test. 30 IN A 192.0.2.10"},
		"tracemap.test.|AAAA": {"tracemap.test. 30 IN AAAA 2001:db8::10"},
		"alias.test.|A":       {"alias.test. 30 IN CNAME tracemap.test.", "tracemap.test. 30 IN A 192.0.2.10"},
		"v4only.test.|A":      {"v4only.test. 30 IN A 198.51.100.7"},
	}

	started := make(chan struct{})
	srv := &dns.Server{
		PacketConn:        pc,
		NotifyStartedFunc: func() { close(started) },
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
			resp := new(dns.Msg)
			resp.SetReply(req)
			q := req.Question[0]
			switch q.Name {
			case "tracemap.test.", "alias.test.", "v4only.test.":
				for _, s := range records[q.Name+"|"+dns.TypeToString[q.Qtype]] {
					rr, err := dns.NewRR(s)
					if err == nil {
						resp.Answer = append(resp.Answer, rr)
					}
				}
			case "broken.test.":
				resp.Rcode = dns.RcodeServerFailure
			default:
				resp.Rcode = dns.RcodeNameError
			}
			_ = w.WriteMsg(resp)
		}),
	}
	go func() { _ = srv.ActivateAndServe() }()
	t.Cleanup(func() { _ = srv.Shutdown() })
	<-started

	return pc.LocalAddr().String()
}

func TestResolver_Resolve(t *testing.T) {
	server := startServer(t)
	r := NewResolver(t.Context(), Config{Servers: []string{server}, Timeout: time.Second})

	tests := []struct {
		name    string
		host    string
		want    []netip.Addr
		wantErr error
	}{
		{
			name: "literal IPv4",
			host: "8.8.8.8",
			want: []netip.Addr{netip.MustParseAddr("8.8.8.8")},
		},
		{
			name: "literal IPv6",
			host: "2001:4860:4860::8888",
			want: []netip.Addr{netip.MustParseAddr("2001:4860:4860::8888")},
		},
		{
			name: "A and AAAA records sorted",
			host: "tracemap.test",
			want: []netip.Addr{
				netip.MustParseAddr("192.0.2.10"),
				netip.MustParseAddr("192.0.2.20"),
				netip.MustParseAddr("2001:db8::10"),
			},
		},
		{
			name: "cname chain",
			host: "alias.test",
			want: []netip.Addr{netip.MustParseAddr("192.0.2.10")},
		},
		{
			name: "only A records",
			host: "v4only.test",
			want: []netip.Addr{netip.MustParseAddr("198.51.100.7")},
		},
		{
			name:    "non existing name",
			host:    "missing.test",
			wantErr: ErrNoAddress,
		},
		{
			name:    "server failure",
			host:    "broken.test",
			wantErr: assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(t.Context(), tt.host)
			if tt.wantErr != nil {
				require.Error(t, err)
				if tt.wantErr != assert.AnError {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_unreachableServer(t *testing.T) {
	r := NewResolver(t.Context(), Config{Servers: []string{"127.0.0.1:1"}, Timeout: 50 * time.Millisecond})
	_, err := r.Resolve(t.Context(), "tracemap.test")
	assert.Error(t, err)
}

// hostsFile resolves like /etc/hosts and records the looked up names.
type hostsFile struct {
	entries map[string][]netip.Addr
	lookups []string
}

func (h *hostsFile) LookupNetIP(_ context.Context, network, host string) ([]netip.Addr, error) {
	h.lookups = append(h.lookups, network+"/"+host)
	addrs, ok := h.entries[host]
	if !ok {
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}
	return addrs, nil
}

func TestResolver_Resolve_systemFallback(t *testing.T) {
	server := startServer(t)

	tests := []struct {
		name        string
		host        string
		system      bool
		want        []netip.Addr
		wantErr     error
		wantLookups []string
	}{
		{
			name:        "short name from hosts file",
			host:        "buildhost",
			system:      true,
			want:        []netip.Addr{netip.MustParseAddr("198.51.100.40")},
			wantLookups: []string{"ip/buildhost"},
		},
		{
			name:        "server failure is retried",
			host:        "broken.test",
			system:      true,
			want:        []netip.Addr{netip.MustParseAddr("192.0.2.99")},
			wantLookups: []string{"ip/broken.test"},
		},
		{
			name:   "nameserver answer needs no fallback",
			host:   "tracemap.test",
			system: true,
			want: []netip.Addr{
				netip.MustParseAddr("192.0.2.10"),
				netip.MustParseAddr("192.0.2.20"),
				netip.MustParseAddr("2001:db8::10"),
			},
		},
		{
			name:        "unknown everywhere",
			host:        "missing.test",
			system:      true,
			wantErr:     ErrNoAddress,
			wantLookups: []string{"ip/missing.test"},
		},
		{
			name:    "configured nameservers are authoritative",
			host:    "buildhost",
			wantErr: ErrNoAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hosts := &hostsFile{entries: map[string][]netip.Addr{
				"buildhost":   {netip.MustParseAddr("198.51.100.40")},
				"broken.test": {netip.MustParseAddr("192.0.2.99")},
			}}
			r := &resolver{
				client:   &dns.Client{Timeout: time.Second},
				servers:  []string{server},
				fallback: hosts,
				system:   tt.system,
			}

			got, err := r.Resolve(t.Context(), tt.host)
			assert.Equal(t, tt.wantLookups, hosts.lookups)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_Resolve_withoutNameservers(t *testing.T) {
	hosts := &hostsFile{entries: map[string][]netip.Addr{
		"buildhost": {netip.MustParseAddr("::ffff:198.51.100.40")},
	}}
	r := &resolver{fallback: hosts, system: true}

	got, err := r.Resolve(t.Context(), "buildhost")
	require.NoError(t, err)
	assert.Equal(t, []netip.Addr{netip.MustParseAddr("198.51.100.40")}, got)

	_, err = r.Resolve(t.Context(), "missing")
	var dnsErr *net.DNSError
	assert.ErrorAs(t, err, &dnsErr)
}
