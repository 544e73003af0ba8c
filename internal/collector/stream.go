package collector

import (
	"fmt"
	"time"

	"github.com/stssrv/forkstream/pkg/wire"
)

// streamState accumulates what the collector knows about one mirrored
// session. All access is under the collector mutex.
type streamState struct {
	id        uint32
	info      wire.SessionInfo
	hasInfo   bool
	firstSeen time.Time
	lastSeen  time.Time

	rx directionStats
	tx directionStats
}

// directionStats tracks one half of the stream.
type directionStats struct {
	packets uint64
	bytes   uint64
	lastSeq uint32
	gaps    uint64
}

func newStreamState(id uint32) *streamState {
	now := time.Now()
	return &streamState{id: id, firstSeen: now, lastSeen: now}
}

func (st *streamState) observeSignaling(sig wire.Signaling) {
	st.lastSeen = time.Now()
	if !st.hasInfo {
		st.info = sig.Info
		st.hasInfo = true
	}
}

// observeAudio updates counters and returns the number of sequence
// numbers skipped since the previous packet in this direction (0 when
// in order; late duplicates are not counted as gaps).
func (st *streamState) observeAudio(audio wire.Audio) uint64 {
	st.lastSeen = time.Now()

	d := &st.rx
	if audio.Direction == wire.DirectionTX {
		d = &st.tx
	}
	d.packets++
	d.bytes += uint64(len(audio.Payload))

	var gap uint64
	if audio.Sequence > d.lastSeq+1 && d.lastSeq != 0 {
		gap = uint64(audio.Sequence - d.lastSeq - 1)
		d.gaps += gap
	}
	if audio.Sequence > d.lastSeq {
		d.lastSeq = audio.Sequence
	}
	return gap
}

func (st *streamState) summary() string {
	return fmt.Sprintf("stream 0x%08x ended: label=%q rx=%d/%dB (lost %d) tx=%d/%dB (lost %d) duration=%s",
		st.id, st.info.Label,
		st.rx.packets, st.rx.bytes, st.rx.gaps,
		st.tx.packets, st.tx.bytes, st.tx.gaps,
		st.lastSeen.Sub(st.firstSeen).Round(time.Second))
}

func (st *streamState) stats() map[string]any {
	return map[string]any{
		"stream_id":  fmt.Sprintf("0x%08x", st.id),
		"label":      st.info.Label,
		"extension":  st.info.Extension,
		"caller":     st.info.Caller,
		"called":     st.info.Called,
		"first_seen": st.firstSeen.Format(time.RFC3339),
		"rx_packets": st.rx.packets,
		"rx_bytes":   st.rx.bytes,
		"rx_gaps":    st.rx.gaps,
		"tx_packets": st.tx.packets,
		"tx_bytes":   st.tx.bytes,
		"tx_gaps":    st.tx.gaps,
	}
}
