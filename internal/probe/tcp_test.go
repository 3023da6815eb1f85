// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telekom/tracemap/internal/helper"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sys/unix"
)

func TestTCPCollector_trace(t *testing.T) {
	tests := []struct {
		name          string
		dialErr       error
		icmpPacket    icmpPacket
		icmpErr       error
		wantErr       error
		wantPermanent bool
		wantSample    HopSample
		wantReached   bool
	}{
		{
			name:        "tcp success",
			wantSample:  HopSample{Index: 3, Address: "1.2.3.4"},
			wantReached: true,
		},
		{
			name:        "connection refused by destination",
			dialErr:     unix.ECONNREFUSED,
			wantSample:  HopSample{Index: 3, Address: "1.2.3.4"},
			wantReached: true,
		},
		{
			name:    "unexpected dial error",
			dialErr: unix.ENETDOWN,
			wantErr: unix.ENETDOWN,
		},
		{
			name:       "ttl expired timeout",
			dialErr:    unix.EHOSTUNREACH,
			icmpErr:    context.DeadlineExceeded,
			wantSample: HopSample{Index: 3, Loss: true},
		},
		{
			name:          "icmp not available",
			dialErr:       unix.EHOSTUNREACH,
			icmpErr:       errICMPNotAvailable,
			wantErr:       ErrPrivilege,
			wantPermanent: true,
		},
		{
			name:       "intermediate router",
			dialErr:    unix.EHOSTUNREACH,
			icmpPacket: icmpPacket{remoteAddr: &net.IPAddr{IP: net.ParseIP("9.8.7.6")}, port: 31000},
			wantSample: HopSample{Index: 3, Address: "9.8.7.6"},
		},
		{
			name:        "port unreachable from destination",
			dialErr:     unix.EHOSTUNREACH,
			icmpPacket:  icmpPacket{remoteAddr: &net.IPAddr{IP: net.ParseIP("1.2.3.4")}, port: 31000, reached: true},
			wantSample:  HopSample{Index: 3, Address: "1.2.3.4"},
			wantReached: true,
		},
		{
			name:    "icmp read error",
			dialErr: unix.EHOSTUNREACH,
			icmpErr: errors.New("icmp read error"),
			wantErr: errors.New("icmp read error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var listenPort int
			c := &tcpCollector{
				dialTCP: func(_ context.Context, addr net.Addr, port, ttl int, _ time.Duration) (netConn, error) {
					assert.Equal(t, "1.2.3.4:8080", addr.String())
					assert.Equal(t, 3, ttl)
					assert.Equal(t, listenPort, port, "listener and dialer must share the local port")
					return netConn{port: port}, tt.dialErr
				},
				newICMPListener: func(port int) (icmpListener, error) {
					listenPort = port
					return &icmpListenerMock{
						ReadFunc: func(_ context.Context) (icmpPacket, error) {
							return tt.icmpPacket, tt.icmpErr
						},
						CloseFunc: func() error { return nil },
					}, nil
				},
			}

			hops := make(chan hopResult, 1)
			tgt := target{
				destination: "1.2.3.4",
				addr:        &net.TCPAddr{IP: net.ParseIP("1.2.3.4"), Port: 8080},
				hopTTL:      3,
				hopChan:     hops,
			}

			err := c.trace(t.Context(), tgt, Options{MaxTTL: 3, Timeout: time.Millisecond})
			if tt.wantErr != nil {
				require.Error(t, err)
				if !errors.Is(err, tt.wantErr) {
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
				assert.Equal(t, tt.wantPermanent, helper.IsPermanent(err))
				assert.Empty(t, hops)
				return
			}
			require.NoError(t, err)

			res := <-hops
			res.sample.RTT = 0
			assert.Equal(t, tt.wantSample, res.sample)
			assert.Equal(t, tt.wantReached, res.reached)
		})
	}
}

func TestTCPCollector_Collect(t *testing.T) {
	c := &tcpCollector{
		dialTCP: func(_ context.Context, _ net.Addr, port, ttl int, _ time.Duration) (netConn, error) {
			if ttl == 2 {
				return netConn{port: port}, nil
			}
			return netConn{port: port}, unix.EHOSTUNREACH
		},
		newICMPListener: func(port int) (icmpListener, error) {
			return &icmpListenerMock{
				ReadFunc: func(_ context.Context) (icmpPacket, error) {
					return icmpPacket{remoteAddr: &net.IPAddr{IP: net.ParseIP("10.0.0.1")}, port: port}, nil
				},
				CloseFunc: func() error { return nil },
			}, nil
		},
	}

	ctx, span := noop.NewTracerProvider().Tracer("").Start(t.Context(), "collect")
	defer span.End()

	opts := Options{Cycles: 2, MaxTTL: 4, Timeout: time.Millisecond}
	cycles, err := c.Collect(ctx, "4.3.2.1", opts)
	require.NoError(t, err)
	require.Len(t, cycles, 2)

	for _, cycle := range cycles {
		require.Len(t, cycle.Samples, 2, "collection must stop at the reached hop")
		assert.Equal(t, "10.0.0.1", cycle.Samples[0].Address)
		assert.Equal(t, "4.3.2.1", cycle.Samples[1].Address)
	}
}

func TestNetConn_Close(t *testing.T) {
	assert.NoError(t, netConn{}.Close())
	assert.NoError(t, netConn{Conn: &fakeConn{}}.Close())
}
