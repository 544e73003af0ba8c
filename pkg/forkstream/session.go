package forkstream

import (
	"fmt"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/stssrv/forkstream/internal/log"
	"github.com/stssrv/forkstream/pkg/wire"
)

// Session is the per-tap state: one installed hook, one UDP socket, one
// stream id, two direction sequence counters. It is created by Start,
// mutated only from inside the hook callback, and released exactly once
// by the teardown callback the host fires when the hook is removed.
//
// The sequence counters are deliberately plain integers: the host
// serializes frame delivery and teardown per channel, so the hook never
// runs concurrently with itself. A host that delivers read and write on
// independent threads would need these converted to atomics.
type Session struct {
	streamID  uint32
	info      wire.SessionInfo
	transport *Transport
	hookID    HookID

	rxSeq uint32
	txSeq uint32

	// scratch holds the 12-byte audio header between build and send.
	scratch []byte

	// released guards against a host that calls teardown twice.
	released atomic.Bool
}

// Options carries optional session settings for Start.
type Options struct {
	// Info is the session metadata sent in the signaling packets. An
	// empty Label defaults to the channel name.
	Info wire.SessionInfo

	// IDs overrides the process-wide stream id generator. Tests use
	// this for deterministic ids.
	IDs *IDGenerator
}

// Start installs a media tap on ch mirroring to dest.
//
// Setup order: generate stream id, open the transport, attach the hook
// (closing the transport again if the host refuses), then send one
// signaling packet per direction. Signaling failures are logged, not
// fatal — the audio mirror is the payload, the metadata is advisory.
//
// The returned Session is informational; its lifetime is owned by the
// hook/teardown pair, and the host releases it by destroying the hook.
func Start(ch Channel, dest netip.AddrPort, opts Options) (*Session, error) {
	gen := opts.IDs
	if gen == nil {
		gen = &defaultIDs
	}

	transport, err := OpenTransport(dest)
	if err != nil {
		return nil, err
	}

	s := &Session{
		streamID:  gen.Next(),
		info:      opts.Info,
		transport: transport,
		scratch:   make([]byte, 0, wire.AudioHeaderLen),
	}
	if s.info.Label == "" {
		s.info.Label = ch.Name()
	}

	hookID, err := ch.AttachHook(Hook{
		OnFrame:   s.onFrame,
		OnDestroy: s.teardown,
	})
	if err != nil {
		transport.Close()
		return nil, fmt.Errorf("%w: %v", ErrAttachFailure, err)
	}
	s.hookID = hookID

	s.sendSignaling()

	log.GetLogger().Infof("forkstream: mirroring channel %q to %s (stream 0x%08x, hook %d)",
		s.info.Label, dest, s.streamID, hookID)
	return s, nil
}

// StartArgs parses a "ip:port[,label[,ext[,caller[,called]]]]"
// configuration string and starts a session from it. Parse errors
// surface before any resource is created.
func StartArgs(ch Channel, config string) (*Session, error) {
	args, err := ParseArgs(config)
	if err != nil {
		return nil, err
	}
	return Start(ch, args.Dest, Options{Info: args.Info})
}

// sendSignaling emits the two session-describing packets, RX then TX.
func (s *Session) sendSignaling() {
	ts := uint32(time.Now().Unix())
	for _, dir := range [...]wire.Direction{wire.DirectionRX, wire.DirectionTX} {
		pkt := wire.EncodeSignaling(s.streamID, dir, s.info, ts)
		if err := s.transport.SendSignaling(pkt); err != nil {
			log.GetLogger().Warnf("forkstream: %s signaling packet failed: %v", dir, err)
			continue
		}
		if Verbose() {
			log.GetLogger().Debugf("forkstream: sent %s signaling packet (stream 0x%08x)", dir, s.streamID)
		}
	}
}

// teardown is the hook destroy callback. The host guarantees it runs
// exactly once per attached hook and that no frames are delivered once
// it has begun; the CAS makes a second call from a buggy host a warned
// no-op rather than a double close.
func (s *Session) teardown() {
	if s == nil {
		log.GetLogger().Warn("forkstream: teardown invoked with no session state")
		return
	}
	if !s.released.CompareAndSwap(false, true) {
		log.GetLogger().Warnf("forkstream: duplicate teardown for stream 0x%08x ignored", s.streamID)
		return
	}

	if err := s.transport.Close(); err != nil {
		log.GetLogger().WithError(err).Warnf("forkstream: closing socket for stream 0x%08x", s.streamID)
	}
	log.GetLogger().Infof("forkstream: released stream 0x%08x (hook %d, rx %d, tx %d frames)",
		s.streamID, s.hookID, s.rxSeq, s.txSeq)
}

// StreamID returns the immutable stream identifier.
func (s *Session) StreamID() uint32 { return s.streamID }

// HookID returns the host's handle for the installed hook.
func (s *Session) HookID() HookID { return s.hookID }

// Dest returns the collector endpoint.
func (s *Session) Dest() netip.AddrPort { return s.transport.Dest() }

// Info returns the session metadata after defaulting.
func (s *Session) Info() wire.SessionInfo { return s.info }

// Sequences returns the current per-direction counters. Only meaningful
// when read under the same serialization that frame delivery uses.
func (s *Session) Sequences() (rx, tx uint32) { return s.rxSeq, s.txSeq }

// Released reports whether teardown has completed.
func (s *Session) Released() bool { return s.released.Load() }
