package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Decoding errors. The collector treats all of these as "count and drop":
// a malformed datagram never stops the listener.
var (
	ErrShortPacket = errors.New("forkstream: packet too short")
	ErrBadLength   = errors.New("forkstream: header length does not match datagram")
	ErrUnknownType = errors.New("forkstream: unknown packet type")
)

// Header is the decoded 8-byte common header.
type Header struct {
	Type      uint8
	Length    uint16 // total on-wire length, header included
	StreamID  uint32
	Direction Direction
}

// Signaling is a decoded signaling packet.
type Signaling struct {
	Header
	Info      SessionInfo
	Timestamp uint32 // Unix seconds
}

// Audio is a decoded audio packet. Payload aliases the input buffer.
type Audio struct {
	Header
	Sequence uint32
	Payload  []byte
}

// ParseHeader decodes the common header from a received datagram.
// The length field is validated against the actual datagram size.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(b))
	}
	h := Header{
		Type:      b[0],
		Length:    binary.BigEndian.Uint16(b[1:3]),
		StreamID:  binary.BigEndian.Uint32(b[3:7]),
		Direction: Direction(b[7]),
	}
	if h.Type != PacketSignaling && h.Type != PacketAudio {
		return Header{}, fmt.Errorf("%w: 0x%02x", ErrUnknownType, h.Type)
	}
	if int(h.Length) != len(b) {
		return Header{}, fmt.Errorf("%w: header says %d, datagram is %d",
			ErrBadLength, h.Length, len(b))
	}
	return h, nil
}

// ParseSignaling decodes a full signaling packet. Text fields are
// returned with trailing NUL padding stripped.
func ParseSignaling(b []byte) (Signaling, error) {
	h, err := ParseHeader(b)
	if err != nil {
		return Signaling{}, err
	}
	if h.Type != PacketSignaling {
		return Signaling{}, fmt.Errorf("%w: expected signaling, got 0x%02x", ErrUnknownType, h.Type)
	}
	if len(b) != SignalingPacketLen {
		return Signaling{}, fmt.Errorf("%w: signaling packet is %d bytes, want %d",
			ErrShortPacket, len(b), SignalingPacketLen)
	}

	p := b[HeaderLen:]
	s := Signaling{Header: h}
	s.Info.Label = cutText(p[0:LabelFieldLen])
	p = p[LabelFieldLen:]
	s.Info.Extension = cutText(p[0:ExtensionFieldLen])
	p = p[ExtensionFieldLen:]
	s.Info.Caller = cutText(p[0:CallerFieldLen])
	p = p[CallerFieldLen:]
	s.Info.Called = cutText(p[0:CalledFieldLen])
	s.Timestamp = binary.BigEndian.Uint32(p[CalledFieldLen:])
	return s, nil
}

// ParseAudio decodes an audio packet. The returned Payload aliases b;
// callers that keep it past the next read must copy.
func ParseAudio(b []byte) (Audio, error) {
	h, err := ParseHeader(b)
	if err != nil {
		return Audio{}, err
	}
	if h.Type != PacketAudio {
		return Audio{}, fmt.Errorf("%w: expected audio, got 0x%02x", ErrUnknownType, h.Type)
	}
	if len(b) < AudioHeaderLen {
		return Audio{}, fmt.Errorf("%w: audio packet is %d bytes, want at least %d",
			ErrShortPacket, len(b), AudioHeaderLen)
	}
	return Audio{
		Header:   h,
		Sequence: binary.BigEndian.Uint32(b[HeaderLen:AudioHeaderLen]),
		Payload:  b[AudioHeaderLen:],
	}, nil
}

// cutText returns the field content up to the first NUL byte.
func cutText(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
