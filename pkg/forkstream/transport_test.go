package forkstream

import (
	"bytes"
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/stssrv/forkstream/pkg/wire"
)

func TestOpenTransport_RejectsBadDest(t *testing.T) {
	if _, err := OpenTransport(netip.AddrPort{}); !errors.Is(err, ErrBadAddress) {
		t.Errorf("zero dest: error = %v, want ErrBadAddress", err)
	}
	v6 := netip.AddrPortFrom(netip.MustParseAddr("::1"), 9999)
	if _, err := OpenTransport(v6); !errors.Is(err, ErrBadAddress) {
		t.Errorf("v6 dest: error = %v, want ErrBadAddress", err)
	}
}

func TestTransport_GatherSendIsOneDatagram(t *testing.T) {
	col := newTestCollector(t)
	tr, err := OpenTransport(col.dest)
	if err != nil {
		t.Fatalf("OpenTransport: %v", err)
	}
	defer tr.Close()

	payload := bytes.Repeat([]byte{0x5A}, 160)
	hdr := wire.AppendAudioHeader(nil, 0xCAFE, wire.DirectionRX, 3, len(payload))
	if err := tr.SendAudio(hdr, payload); err != nil {
		t.Fatalf("SendAudio: %v", err)
	}

	// Header and payload must arrive coalesced into a single datagram,
	// not as two.
	got := col.read()
	if len(got) != wire.AudioHeaderLen+len(payload) {
		t.Fatalf("datagram is %d bytes, want %d", len(got), wire.AudioHeaderLen+len(payload))
	}
	a, err := wire.ParseAudio(got)
	if err != nil {
		t.Fatalf("ParseAudio: %v", err)
	}
	if a.Sequence != 3 || !bytes.Equal(a.Payload, payload) {
		t.Errorf("decoded %+v", a)
	}
}

func TestTransport_SendAfterClose(t *testing.T) {
	col := newTestCollector(t)
	tr, err := OpenTransport(col.dest)
	if err != nil {
		t.Fatalf("OpenTransport: %v", err)
	}

	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Errorf("second Close: %v, want nil", err)
	}

	hdr := wire.AppendAudioHeader(nil, 1, wire.DirectionRX, 1, 1)
	if err := tr.SendAudio(hdr, []byte{0}); !errors.Is(err, ErrTransportClosed) {
		t.Errorf("SendAudio after close: %v, want ErrTransportClosed", err)
	}
	pkt := wire.EncodeSignaling(1, wire.DirectionRX, wire.SessionInfo{}, 0)
	if err := tr.SendSignaling(pkt); !errors.Is(err, ErrTransportClosed) {
		t.Errorf("SendSignaling after close: %v, want ErrTransportClosed", err)
	}
}

func TestIDGenerator_TimePrefix(t *testing.T) {
	var gen IDGenerator

	for i := 0; i < 10; i++ {
		before := uint32(time.Now().Unix()) & 0xFFFF0000
		id := gen.Next()
		after := uint32(time.Now().Unix()) & 0xFFFF0000
		if hi := id & 0xFFFF0000; hi != before && hi != after {
			t.Fatalf("id 0x%08x does not carry the time prefix 0x%08x", id, before)
		}
	}

	// The low halves are randomized; 10 draws landing on one value
	// would mean the entropy is gone.
	lows := make(map[uint32]bool)
	for i := 0; i < 10; i++ {
		lows[gen.Next()&0xFFFF] = true
	}
	if len(lows) < 2 {
		t.Error("low 16 bits look constant across draws")
	}
}
