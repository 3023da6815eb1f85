// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/telekom/tracemap/internal/logger"
	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"
)

// hopReader turns the answer to a single UDP probe into a hop.
type hopReader interface {
	// ReadHop waits for the answer to the probe sent at the given time.
	// A hop that stays silent until the timeout is returned as a lost sample.
	ReadHop(ctx context.Context, ttl int, sent time.Time) (hopResult, error)
}

const (
	// errQueueOOBSize fits the IP_RECVERR control message with its offender address.
	errQueueOOBSize = 512
	// probePayloadSize is the size of the payload a UDP probe carries.
	probePayloadSize = 1
	// extendedErrSize is the size of struct sock_extended_err, see ip(7).
	extendedErrSize = 16
)

// errNoAnswer means the error queue stayed empty until the read deadline.
var errNoAnswer = errors.New("no ICMP error queued")

// errQueue reads the ICMP errors the kernel queues on a UDP socket
// that was dialed with IP_RECVERR. Each socket carries exactly one probe.
type errQueue struct {
	conn    net.Conn
	raw     syscall.RawConn
	timeout time.Duration
	oob     []byte
}

// openErrQueue attaches to the error queue of the dialed probe socket.
func openErrQueue(conn net.Conn, timeout time.Duration) (hopReader, error) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return nil, fmt.Errorf("connection %T exposes no file descriptor", conn)
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("failed to access probe socket: %w", err)
	}
	return &errQueue{conn: conn, raw: raw, timeout: timeout, oob: make([]byte, errQueueOOBSize)}, nil
}

// ReadHop drains the error queue until an ICMP answer for the probe arrives.
// The wait ends after the per-hop timeout or at the context deadline,
// whichever comes first. Entries that do not decode are skipped.
func (q *errQueue) ReadHop(ctx context.Context, ttl int, sent time.Time) (hopResult, error) {
	log := logger.FromContext(ctx)
	lost := hopResult{sample: HopSample{Index: ttl, Loss: true}}

	deadline := sent.Add(q.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := q.conn.SetReadDeadline(deadline); err != nil {
		return hopResult{}, fmt.Errorf("failed to set read deadline: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return hopResult{}, err
		}
		if !time.Now().Before(deadline) {
			return lost, nil
		}

		entry, err := q.dequeue()
		if errors.Is(err, errNoAnswer) {
			return lost, nil
		}
		if err != nil {
			log.DebugContext(ctx, "Skipping unreadable error queue entry", "ttl", ttl, "error", err)
			continue
		}
		rtt := time.Since(sent)

		ans, err := decodeQueuedError(entry.cmsgs)
		if err != nil {
			log.DebugContext(ctx, "Skipping queued error", "ttl", ttl, "probed", entry.probed, "error", err)
			continue
		}

		log.DebugContext(ctx, "Hop answered", "ttl", ttl, "router", ans.router, "port", entry.port, "rtt", rtt)
		return hopResult{
			sample:  HopSample{Index: ttl, Address: addrString(ans.router), RTT: rtt},
			reached: ans.reached,
		}, nil
	}
}

// dequeue takes one entry off the error queue. It blocks in the runtime
// poller until the socket reports an error or the read deadline passes.
func (q *errQueue) dequeue() (queuedError, error) {
	var (
		entry queuedError
		opErr error
	)
	err := q.raw.Read(func(fd uintptr) bool {
		entry, opErr = recvErrQueue(fd, q.oob)
		return !errors.Is(opErr, unix.EAGAIN)
	})
	switch {
	case errors.Is(err, os.ErrDeadlineExceeded), errors.Is(opErr, unix.EAGAIN):
		return queuedError{}, errNoAnswer
	case err != nil:
		return queuedError{}, fmt.Errorf("failed to read probe socket: %w", err)
	}
	return entry, opErr
}

// queuedError is one entry of the socket error queue.
type queuedError struct {
	// probed is the original destination of the probe datagram.
	probed net.Addr
	// port is the destination port of the probe datagram.
	port int
	// cmsgs holds the control messages that carry the extended error.
	cmsgs []byte
}

// recvmsg is replaced in tests.
var recvmsg = unix.Recvmsg

// recvErrQueue reads one error queue entry from the socket.
var recvErrQueue = func(fd uintptr, oob []byte) (queuedError, error) {
	payload := make([]byte, probePayloadSize)
	_, oobn, _, from, err := recvmsg(int(fd), payload, oob, unix.MSG_ERRQUEUE)
	if err != nil {
		return queuedError{}, fmt.Errorf("recvmsg: %w", err)
	}

	entry := queuedError{probed: addrFromSocket(from), cmsgs: oob[:oobn]}
	if sa, ok := from.(*unix.SockaddrInet4); ok {
		entry.port = sa.Port
	}
	return entry, nil
}

// icmpAnswer is what a router or the destination told us about a probe.
type icmpAnswer struct {
	// router is the sender of the ICMP error.
	router net.Addr
	// reached is set for a port unreachable from the destination.
	reached bool
}

// decodeQueuedError finds the IP_RECVERR control message and reports the
// ICMP sender. Only time exceeded and destination unreachable answer a probe.
func decodeQueuedError(cmsgs []byte) (icmpAnswer, error) {
	msgs, err := unix.ParseSocketControlMessage(cmsgs)
	if err != nil {
		return icmpAnswer{}, fmt.Errorf("failed to parse control messages: %w", err)
	}

	for _, m := range msgs {
		if m.Header.Level != unix.SOL_IP || m.Header.Type != unix.IP_RECVERR {
			continue
		}

		ee, offender, err := decodeExtendedErr(m.Data)
		if err != nil {
			return icmpAnswer{}, err
		}
		if ee.Origin != unix.SO_EE_ORIGIN_ICMP {
			return icmpAnswer{}, fmt.Errorf("error did not come from ICMP: origin %d", ee.Origin)
		}

		switch ee.Type {
		case uint8(ipv4.ICMPTypeTimeExceeded):
			return icmpAnswer{router: offender}, nil
		case uint8(ipv4.ICMPTypeDestinationUnreachable):
			return icmpAnswer{router: offender, reached: ee.Code == icmpUnreachablePort}, nil
		default:
			return icmpAnswer{}, fmt.Errorf("ICMP type %d code %d does not answer a probe", ee.Type, ee.Code)
		}
	}

	return icmpAnswer{}, errors.New("no IP_RECVERR control message")
}

// decodeExtendedErr reads struct sock_extended_err and the SO_EE_OFFENDER
// address the kernel appends to it.
func decodeExtendedErr(data []byte) (unix.SockExtendedErr, net.Addr, error) {
	if len(data) < extendedErrSize {
		return unix.SockExtendedErr{}, nil, fmt.Errorf("extended error too short: %d bytes", len(data))
	}

	ee := unix.SockExtendedErr{
		Errno:  binary.NativeEndian.Uint32(data[0:4]),
		Origin: data[4],
		Type:   data[5],
		Code:   data[6],
		Info:   binary.NativeEndian.Uint32(data[8:12]),
		Data:   binary.NativeEndian.Uint32(data[12:16]),
	}

	offender := data[extendedErrSize:]
	if len(offender) < unix.SizeofSockaddrInet4 {
		return ee, nil, errors.New("extended error carries no offender address")
	}
	if family := binary.NativeEndian.Uint16(offender[0:2]); family != unix.AF_INET {
		return ee, nil, fmt.Errorf("unsupported offender address family %d", family)
	}
	return ee, &net.IPAddr{IP: net.IPv4(offender[4], offender[5], offender[6], offender[7])}, nil
}
