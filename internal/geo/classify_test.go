// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsReserved(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{addr: "10.0.0.5", want: true},
		{addr: "192.168.1.1", want: true},
		{addr: "172.16.4.2", want: true},
		{addr: "172.32.0.1", want: false},
		{addr: "127.0.0.1", want: true},
		{addr: "169.254.10.1", want: true},
		{addr: "100.64.0.1", want: true},
		{addr: "100.128.0.1", want: false},
		{addr: "0.0.0.0", want: true},
		{addr: "224.0.0.251", want: true},
		{addr: "255.255.255.255", want: true},
		{addr: "192.0.2.33", want: true},
		{addr: "::ffff:192.168.1.1", want: true},
		{addr: "::1", want: true},
		{addr: "fe80::1", want: true},
		{addr: "fd00::1", want: true},
		{addr: "2001:db8::1", want: true},
		{addr: "8.8.8.8", want: false},
		{addr: "80.156.86.1", want: false},
		{addr: "2001:4860:4860::8888", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, IsReserved(netip.MustParseAddr(tt.addr)))
		})
	}

	assert.True(t, IsReserved(netip.Addr{}), "the zero address is reserved")
}
