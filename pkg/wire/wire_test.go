package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
)

func TestEncodeSignaling_Layout(t *testing.T) {
	info := SessionInfo{
		Label:     "SIP/1001-00000042",
		Extension: "1002",
		Caller:    "1001",
		Called:    "1002",
	}
	pkt := EncodeSignaling(0xDEADBEEF, DirectionRX, info, 1717243200)

	if len(pkt) != SignalingPacketLen {
		t.Fatalf("packet length = %d, want %d", len(pkt), SignalingPacketLen)
	}
	if pkt[0] != PacketSignaling {
		t.Errorf("type byte = 0x%02x, want 0x%02x", pkt[0], PacketSignaling)
	}
	if got := binary.BigEndian.Uint16(pkt[1:3]); got != SignalingPacketLen {
		t.Errorf("length field = %d, want %d", got, SignalingPacketLen)
	}
	if got := binary.BigEndian.Uint32(pkt[3:7]); got != 0xDEADBEEF {
		t.Errorf("stream ID = 0x%08x, want 0xDEADBEEF", got)
	}
	if pkt[7] != uint8(DirectionRX) {
		t.Errorf("direction = 0x%02x, want 0x01", pkt[7])
	}
	if got := binary.BigEndian.Uint32(pkt[SignalingPacketLen-4:]); got != 1717243200 {
		t.Errorf("timestamp = %d, want 1717243200", got)
	}

	// Label field starts right after the header and is NUL-padded.
	label := pkt[HeaderLen : HeaderLen+LabelFieldLen]
	if !bytes.HasPrefix(label, []byte("SIP/1001-00000042\x00")) {
		t.Errorf("label field = %q", label)
	}
}

func TestEncodeSignaling_RoundTrip(t *testing.T) {
	info := SessionInfo{
		Label:     "monitor-leg-a",
		Extension: "ext100",
		Caller:    "alice",
		Called:    "bob",
	}
	pkt := EncodeSignaling(7, DirectionTX, info, 42)

	s, err := ParseSignaling(pkt)
	if err != nil {
		t.Fatalf("ParseSignaling: %v", err)
	}
	if s.StreamID != 7 || s.Direction != DirectionTX {
		t.Errorf("header = %+v", s.Header)
	}
	if s.Info != info {
		t.Errorf("info = %+v, want %+v", s.Info, info)
	}
	if s.Timestamp != 42 {
		t.Errorf("timestamp = %d, want 42", s.Timestamp)
	}
}

func TestEncodeSignaling_TruncatesLongFields(t *testing.T) {
	info := SessionInfo{
		Label:     strings.Repeat("L", 200),
		Extension: strings.Repeat("E", 40),
		Caller:    strings.Repeat("R", 40),
		Called:    strings.Repeat("D", 40),
	}
	pkt := EncodeSignaling(1, DirectionRX, info, 0)

	s, err := ParseSignaling(pkt)
	if err != nil {
		t.Fatalf("ParseSignaling: %v", err)
	}
	// Each field keeps a trailing NUL, so the usable width is one less.
	if len(s.Info.Label) != LabelFieldLen-1 {
		t.Errorf("label length = %d, want %d", len(s.Info.Label), LabelFieldLen-1)
	}
	if len(s.Info.Extension) != ExtensionFieldLen-1 {
		t.Errorf("extension length = %d, want %d", len(s.Info.Extension), ExtensionFieldLen-1)
	}
	if len(s.Info.Caller) != CallerFieldLen-1 {
		t.Errorf("caller length = %d, want %d", len(s.Info.Caller), CallerFieldLen-1)
	}
	if len(s.Info.Called) != CalledFieldLen-1 {
		t.Errorf("called length = %d, want %d", len(s.Info.Called), CalledFieldLen-1)
	}
}

func TestEncodeSignaling_EmptyFields(t *testing.T) {
	pkt := EncodeSignaling(1, DirectionRX, SessionInfo{}, 0)
	s, err := ParseSignaling(pkt)
	if err != nil {
		t.Fatalf("ParseSignaling: %v", err)
	}
	if s.Info != (SessionInfo{}) {
		t.Errorf("info = %+v, want empty", s.Info)
	}
}

func TestAppendAudioHeader(t *testing.T) {
	media := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE}
	hdr := AppendAudioHeader(nil, 0x01020304, DirectionTX, 99, len(media))

	if len(hdr) != AudioHeaderLen {
		t.Fatalf("header length = %d, want %d", len(hdr), AudioHeaderLen)
	}
	if hdr[0] != PacketAudio {
		t.Errorf("type byte = 0x%02x, want 0x%02x", hdr[0], PacketAudio)
	}
	if got := binary.BigEndian.Uint16(hdr[1:3]); int(got) != AudioHeaderLen+len(media) {
		t.Errorf("length field = %d, want %d", got, AudioHeaderLen+len(media))
	}

	// The header plus the media bytes must parse as one audio packet,
	// which is exactly what the gather send puts on the wire.
	a, err := ParseAudio(append(hdr, media...))
	if err != nil {
		t.Fatalf("ParseAudio: %v", err)
	}
	if a.StreamID != 0x01020304 || a.Direction != DirectionTX {
		t.Errorf("header = %+v", a.Header)
	}
	if a.Sequence != 99 {
		t.Errorf("sequence = %d, want 99", a.Sequence)
	}
	if !bytes.Equal(a.Payload, media) {
		t.Errorf("payload = %x, want %x", a.Payload, media)
	}
}

func TestAppendAudioHeader_ReusesScratch(t *testing.T) {
	scratch := make([]byte, 0, AudioHeaderLen)
	out := AppendAudioHeader(scratch, 1, DirectionRX, 1, 160)
	if &out[0] != &scratch[:1][0] {
		t.Error("append reallocated despite sufficient capacity")
	}
}

func TestParseHeader_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrShortPacket},
		{"truncated header", []byte{0x01, 0x00, 0x08}, ErrShortPacket},
		{"unknown type", func() []byte {
			b := EncodeSignaling(1, DirectionRX, SessionInfo{}, 0)
			b[0] = 0x7F
			return b
		}(), ErrUnknownType},
		{"length mismatch", func() []byte {
			b := EncodeSignaling(1, DirectionRX, SessionInfo{}, 0)
			return b[:100]
		}(), ErrBadLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHeader(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseHeader error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseSignaling_WrongType(t *testing.T) {
	media := make([]byte, 160)
	pkt := append(AppendAudioHeader(nil, 1, DirectionRX, 1, len(media)), media...)
	if _, err := ParseSignaling(pkt); !errors.Is(err, ErrUnknownType) {
		t.Errorf("error = %v, want ErrUnknownType", err)
	}
}

func TestParseAudio_EmptyPayload(t *testing.T) {
	// A 12-byte audio packet with no media is legal on the wire even
	// though the tap never emits one.
	pkt := AppendAudioHeader(nil, 1, DirectionRX, 5, 0)
	a, err := ParseAudio(pkt)
	if err != nil {
		t.Fatalf("ParseAudio: %v", err)
	}
	if len(a.Payload) != 0 {
		t.Errorf("payload length = %d, want 0", len(a.Payload))
	}
}

func TestDirectionString(t *testing.T) {
	if DirectionRX.String() != "RX" || DirectionTX.String() != "TX" {
		t.Error("direction names wrong")
	}
	if s := Direction(0x09).String(); s != "direction(0x09)" {
		t.Errorf("unknown direction = %q", s)
	}
}
