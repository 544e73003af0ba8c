package forkstream

import (
	"github.com/stssrv/forkstream/internal/log"
	"github.com/stssrv/forkstream/pkg/wire"
)

// onFrame is the hook event callback, invoked synchronously by the host
// once per media unit in either direction. It runs on the host's media
// delivery thread: no blocking, no allocation, no error ever propagated
// back — and the original frame is always returned unchanged, whatever
// happens to the mirrored copy.
func (s *Session) onFrame(event HookEvent, f *Frame) *Frame {
	// Only voice frames with payload are mirrored; everything else
	// passes straight through.
	if f == nil || f.Type != FrameVoice || len(f.Payload) == 0 {
		return f
	}
	if len(f.Payload) > wire.MaxAudioLen {
		// Cannot be represented by the 16-bit length field. Real media
		// units are a few hundred bytes, so this is host misbehavior;
		// skip the mirror, keep the call intact.
		if Verbose() {
			log.GetLogger().Warnf("forkstream: frame of %d bytes exceeds wire limit, not mirrored", len(f.Payload))
		}
		return f
	}

	var dir wire.Direction
	var seq uint32
	switch event {
	case EventRead:
		s.rxSeq++
		seq = s.rxSeq
		dir = wire.DirectionRX
	case EventWrite:
		s.txSeq++
		seq = s.txSeq
		dir = wire.DirectionTX
	default:
		return f
	}

	s.scratch = wire.AppendAudioHeader(s.scratch[:0], s.streamID, dir, seq, len(f.Payload))
	if err := s.transport.SendAudio(s.scratch, f.Payload); err != nil {
		// Fire-and-forget: a sent-into-the-void mirror must cost the
		// call nothing, so failures are silent unless diagnostics are on.
		if Verbose() {
			log.GetLogger().Warnf("forkstream: %s send failed (seq %d): %v", dir, seq, err)
		}
		return f
	}

	if Verbose() {
		log.GetLogger().Debugf("forkstream: sent %s frame: %d bytes (seq %d)", dir, len(f.Payload), seq)
	}
	return f
}
