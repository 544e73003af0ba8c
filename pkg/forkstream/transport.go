package forkstream

import (
	"fmt"
	"net"
	"net/netip"
	"sync/atomic"
	"syscall"
)

// Transport owns one connected UDP socket bound to a single fixed
// destination. Sends are fire-and-forget: either the whole logical
// packet is handed to the kernel or the call fails, never a partial
// datagram. Close is idempotent.
//
// A Transport belongs to exactly one session and inherits the host's
// serialization contract: SendSignaling/SendAudio are never called
// concurrently. Close may race against a buggy double teardown, which
// is why the closed flag is atomic.
type Transport struct {
	conn *net.UDPConn
	raw  syscall.RawConn
	dest netip.AddrPort

	closed atomic.Bool

	// Gather-send scratch, reused across calls to keep the hot path
	// allocation-free. Safe because sends are serialized.
	gather gatherState
}

// OpenTransport creates the UDP socket and fixes its destination.
func OpenTransport(dest netip.AddrPort) (*Transport, error) {
	if !dest.IsValid() || !dest.Addr().Is4() {
		return nil, fmt.Errorf("%w: %s", ErrBadAddress, dest)
	}
	conn, err := net.DialUDP("udp4", nil, net.UDPAddrFromAddrPort(dest))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}
	raw, err := conn.SyscallConn()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}
	t := &Transport{conn: conn, raw: raw, dest: dest}
	t.gather.bind(t)
	return t, nil
}

// Dest returns the fixed remote endpoint.
func (t *Transport) Dest() netip.AddrPort { return t.dest }

// SendSignaling transmits one signaling packet as a single datagram.
// Signaling is advisory; callers log failures and move on.
func (t *Transport) SendSignaling(pkt []byte) error {
	if t.closed.Load() {
		return ErrTransportClosed
	}
	n, err := t.conn.Write(pkt)
	if err != nil {
		return fmt.Errorf("forkstream: send signaling: %w", err)
	}
	if n != len(pkt) {
		return fmt.Errorf("%w: signaling %d of %d bytes", ErrShortSend, n, len(pkt))
	}
	return nil
}

// SendAudio transmits header and payload as one datagram without
// copying the payload. This runs once per media unit on the host's
// delivery path; the caller is entitled to discard the returned error
// (failures are expected whenever the collector is unreachable and
// must not disturb the call).
func (t *Transport) SendAudio(hdr, payload []byte) error {
	if t.closed.Load() {
		return ErrTransportClosed
	}
	return t.gather.send(hdr, payload)
}

// Close releases the socket. Closing an already-closed transport is a
// no-op, never an error.
func (t *Transport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	return t.conn.Close()
}
