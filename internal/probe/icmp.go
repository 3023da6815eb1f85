// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/telekom/tracemap/internal/logger"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
	"golang.org/x/sys/unix"
)

// icmpListener is an interface for reading ICMP messages.
//
//go:generate go tool moq -out icmp_moq.go . icmpListener
type icmpListener interface {
	// Read blocks until an ICMP message for the probe arrives or the context is done.
	Read(ctx context.Context) (icmpPacket, error)
	Close() error
}

// icmpPacket represents a received ICMP packet.
type icmpPacket struct {
	// remoteAddr is the address of the device (typically a router)
	// that sent the ICMP message in response to our probe.
	remoteAddr net.Addr
	// port is the local port of the probe the message answers.
	port int
	// reached indicates whether the destination itself answered with
	// a port unreachable message.
	reached bool
}

// ICMP codes for Destination Unreachable messages.
// For more information, see:
// https://www.iana.org/assignments/icmp-parameters/icmp-parameters.xhtml#icmp-parameters-codes-3
const (
	// icmpUnreachableHost is the ICMP code for Destination Unreachable - "Host Unreachable" messages.
	icmpUnreachableHost = 1
	// icmpUnreachablePort is the ICMP code for Destination Unreachable - "Port Unreachable" messages.
	icmpUnreachablePort = 3
)

const (
	// mtuSize is the read buffer size of the raw socket.
	mtuSize = 1500
	// icmpHeaderLengthMask extracts the IHL field from the first byte of a quoted IP header.
	icmpHeaderLengthMask = 0x0F
	// byteMultiplier converts the IHL from 32 bit words to bytes.
	byteMultiplier = 4
)

// rawListener is a listener for ICMP messages over a raw socket.
// It requires NET_RAW capabilities to be created successfully.
type rawListener struct {
	// conn is the ICMP packet connection used to listen for ICMP messages.
	conn *icmp.PacketConn
	// recvPort is the local probe port we are interested in.
	recvPort int
	// canICMP indicates whether the listener was successfully created
	// with NET_RAW capabilities, meaning it can read ICMP messages.
	canICMP bool
}

// newRawListener creates a new [rawListener] for ICMP answers to probes sent
// from the given local port. If the listener cannot be created due to
// permission issues, it returns a listener that indicates ICMP is not available,
// but does not return an error.
func newRawListener(wantPort int) (icmpListener, error) {
	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err == nil {
		return &rawListener{conn: conn, recvPort: wantPort, canICMP: true}, nil
	}

	if errors.Is(err, unix.EPERM) {
		return &rawListener{conn: nil, recvPort: wantPort, canICMP: false}, nil
	}

	return nil, fmt.Errorf("failed to create ICMP listener: %w", err)
}

// Read receives all ICMP messages on the listener's connection until
// it either receives a message for the listener's port or the context is done.
//
// Returns [errICMPNotAvailable] if the listener was created without NET_RAW capabilities.
func (l *rawListener) Read(ctx context.Context) (icmpPacket, error) {
	if !l.canICMP {
		return icmpPacket{}, errICMPNotAvailable
	}
	log := logger.FromContext(ctx)

	for {
		select {
		case <-ctx.Done():
			return icmpPacket{}, ctx.Err()
		default:
		}

		pkt, err := l.recvPacket(ctx)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return icmpPacket{}, context.DeadlineExceeded
			}
			log.DebugContext(ctx, "Failed to receive ICMP packet", "error", err)
			continue
		}

		if pkt.port != l.recvPort {
			log.DebugContext(ctx, "Received ICMP message for another probe, ignoring",
				"expectedPort", l.recvPort,
				"receivedPort", pkt.port)
			continue
		}

		return *pkt, nil
	}
}

// recvPacket reads the next ICMP packet from the listener's connection.
func (l *rawListener) recvPacket(ctx context.Context) (*icmpPacket, error) {
	deadline, ok := ctx.Deadline()
	if !ok || deadline.IsZero() {
		return nil, errors.New("no deadline set for ICMP read")
	}

	if err := l.conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("failed to set read deadline: %w", err)
	}

	buf := make([]byte, mtuSize)
	n, src, err := l.conn.ReadFrom(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to read from ICMP socket: %w", err)
	}

	msg, err := icmp.ParseMessage(ipv4.ICMPTypeTimeExceeded.Protocol(), buf[:n])
	if err != nil {
		return nil, fmt.Errorf("failed to parse ICMP message: %w", err)
	}

	return newICMPPacket(src, msg)
}

// newICMPPacket creates a new ICMP packet from the given ICMP message and source address.
// The message body quotes the IP header and the first bytes of the TCP
// segment of the probe, which start with the probe's source port.
func newICMPPacket(src net.Addr, msg *icmp.Message) (*icmpPacket, error) {
	var quoted []byte
	switch msg.Type {
	case ipv4.ICMPTypeTimeExceeded:
		body, ok := msg.Body.(*icmp.TimeExceeded)
		if !ok {
			return nil, fmt.Errorf("unexpected body %T for time exceeded message", msg.Body)
		}
		quoted = body.Data
	case ipv4.ICMPTypeDestinationUnreachable:
		body, ok := msg.Body.(*icmp.DstUnreach)
		if !ok {
			return nil, fmt.Errorf("unexpected body %T for destination unreachable message", msg.Body)
		}
		quoted = body.Data
	case ipv6.ICMPTypeTimeExceeded, ipv6.ICMPTypeDestinationUnreachable:
		return nil, errors.New("ipv6 ICMP messages are not supported")
	default:
		return nil, fmt.Errorf("unexpected ICMP message type: %v", msg.Type)
	}

	if len(quoted) < ipv4.HeaderLen {
		return nil, fmt.Errorf("quoted ip header too short: %d bytes", len(quoted))
	}
	headerLen := int(quoted[0]&icmpHeaderLengthMask) * byteMultiplier
	if len(quoted) < headerLen+2 {
		return nil, fmt.Errorf("tcp segment too short: %d bytes", len(quoted)-headerLen)
	}
	segment := quoted[headerLen:]

	return &icmpPacket{
		remoteAddr: src,
		port:       int(segment[0])<<8 + int(segment[1]),
		reached:    msg.Type == ipv4.ICMPTypeDestinationUnreachable && msg.Code == icmpUnreachablePort,
	}, nil
}

// Close closes the ICMP listener connection.
//
// It is safe to call this method even if the listener was not successfully created
// or if it does not have NET_RAW capabilities.
func (l *rawListener) Close() error {
	if l.conn != nil {
		return l.conn.Close()
	}
	return nil
}
