//go:build unix

package forkstream

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// gatherState sends header and payload as a single datagram with
// sendmsg(2), so large media payloads are never copied per frame. The
// iovec and result fields are reused across calls; the closure is bound
// once at open time so the hot path allocates nothing.
type gatherState struct {
	raw  syscall.RawConn
	iov  [2][]byte
	sent int
	serr error
	fn   func(fd uintptr) bool
}

func (g *gatherState) bind(t *Transport) {
	g.raw = t.raw
	g.fn = func(fd uintptr) bool {
		g.sent, g.serr = unix.SendmsgBuffers(int(fd), g.iov[:], nil, nil, 0)
		// A datagram send completes or fails immediately. EAGAIN with a
		// full socket buffer counts as a dropped packet, not a reason
		// to park the host's media thread.
		return true
	}
}

func (g *gatherState) send(hdr, payload []byte) error {
	g.iov[0], g.iov[1] = hdr, payload
	err := g.raw.Write(g.fn)
	g.iov[0], g.iov[1] = nil, nil
	if err != nil {
		return fmt.Errorf("forkstream: send audio: %w", err)
	}
	if g.serr != nil {
		return fmt.Errorf("forkstream: send audio: %w", g.serr)
	}
	if want := len(hdr) + len(payload); g.sent != want {
		return fmt.Errorf("%w: audio %d of %d bytes", ErrShortSend, g.sent, want)
	}
	return nil
}
