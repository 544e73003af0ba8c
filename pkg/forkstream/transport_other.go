//go:build !unix

package forkstream

import "fmt"

// gatherState on platforms without sendmsg support: coalesce header and
// payload into a reused buffer and issue a single Write. One memcpy per
// frame, still one datagram on the wire.
type gatherState struct {
	t   *Transport
	buf []byte
}

func (g *gatherState) bind(t *Transport) {
	g.t = t
}

func (g *gatherState) send(hdr, payload []byte) error {
	g.buf = append(g.buf[:0], hdr...)
	g.buf = append(g.buf, payload...)
	n, err := g.t.conn.Write(g.buf)
	if err != nil {
		return fmt.Errorf("forkstream: send audio: %w", err)
	}
	if n != len(g.buf) {
		return fmt.Errorf("%w: audio %d of %d bytes", ErrShortSend, n, len(g.buf))
	}
	return nil
}
