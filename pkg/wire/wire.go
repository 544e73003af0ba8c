// Package wire implements the forkstream TLV protocol encoding.
//
// Every packet is one UDP datagram. All integers are big-endian.
//
// Header (8 bytes):
//
//	Offset  Size  Description
//	------  ----  -----------
//	0       1     Packet type (0x01 = signaling, 0x02 = audio)
//	1       2     Total packet length including header (uint16)
//	3       4     Stream ID (uint32)
//	7       1     Direction (0x01 = RX, 0x02 = TX)
//
// Signaling payload (164 bytes, fixed):
//
//	0       64    Session label   (NUL-padded)
//	64      32    Extension       (NUL-padded)
//	96      32    Caller label    (NUL-padded)
//	128     32    Called label    (NUL-padded)
//	160     4     Unix timestamp  (uint32)
//
// Audio payload (variable):
//
//	0       4     Sequence number (uint32, per direction, starts at 1)
//	4       …     Raw media bytes, codec-native, no re-encoding
//
// A signaling packet is always 172 bytes. An audio packet is
// 12 + len(media) bytes; the media bytes are not copied by this package —
// the transport sends header and payload as a two-buffer gather write.
package wire

import (
	"encoding/binary"
	"fmt"
)

// Packet types carried in the first header byte.
const (
	PacketSignaling = uint8(0x01)
	PacketAudio     = uint8(0x02)
)

// Direction identifies which half of the mirrored stream a packet
// belongs to. RX is media read from the channel, TX is media written
// to it.
type Direction uint8

const (
	DirectionRX = Direction(0x01)
	DirectionTX = Direction(0x02)
)

// String returns "RX" or "TX".
func (d Direction) String() string {
	switch d {
	case DirectionRX:
		return "RX"
	case DirectionTX:
		return "TX"
	default:
		return fmt.Sprintf("direction(0x%02x)", uint8(d))
	}
}

// Fixed layout sizes.
const (
	// HeaderLen is the common 8-byte packet header.
	HeaderLen = 8

	// Signaling text field widths. The usable length is one byte less:
	// the last byte is always NUL.
	LabelFieldLen     = 64
	ExtensionFieldLen = 32
	CallerFieldLen    = 32
	CalledFieldLen    = 32

	// SignalingPayloadLen is the fixed signaling payload: four
	// NUL-padded text fields plus a 4-byte timestamp.
	SignalingPayloadLen = LabelFieldLen + ExtensionFieldLen + CallerFieldLen + CalledFieldLen + 4

	// SignalingPacketLen is the constant on-wire size of a signaling packet.
	SignalingPacketLen = HeaderLen + SignalingPayloadLen

	// AudioHeaderLen covers the packet header plus the 4-byte sequence
	// number. Raw media bytes follow as a separate gather buffer.
	AudioHeaderLen = HeaderLen + 4

	// MaxAudioLen is the largest media unit representable by the 16-bit
	// total-length field.
	MaxAudioLen = 0xFFFF - AudioHeaderLen
)

// SessionInfo carries the metadata fields of a signaling packet.
// Values longer than the usable field width are truncated on encode.
type SessionInfo struct {
	Label     string // session / channel identifier, 63 usable bytes
	Extension string // dialed extension, 31 usable bytes
	Caller    string // calling party, 31 usable bytes
	Called    string // called party, 31 usable bytes
}

// putHeader writes the common 8-byte header into b[0:8].
func putHeader(b []byte, packetType uint8, totalLen int, streamID uint32, dir Direction) {
	b[0] = packetType
	binary.BigEndian.PutUint16(b[1:3], uint16(totalLen))
	binary.BigEndian.PutUint32(b[3:7], streamID)
	b[7] = uint8(dir)
}

// putText writes s into a NUL-padded field of width n, keeping the last
// byte NUL so the collector can always treat the field as a C string.
func putText(b []byte, s string, n int) {
	copy(b[:n-1], s)
}

// EncodeSignaling serialises a signaling packet describing one direction
// of a session. The returned slice is always SignalingPacketLen bytes.
// This runs once per direction at setup, off the hot path, so the
// allocation is fine.
func EncodeSignaling(streamID uint32, dir Direction, info SessionInfo, timestamp uint32) []byte {
	pkt := make([]byte, SignalingPacketLen)
	putHeader(pkt, PacketSignaling, SignalingPacketLen, streamID, dir)

	p := pkt[HeaderLen:]
	putText(p[0:], info.Label, LabelFieldLen)
	putText(p[LabelFieldLen:], info.Extension, ExtensionFieldLen)
	putText(p[LabelFieldLen+ExtensionFieldLen:], info.Caller, CallerFieldLen)
	putText(p[LabelFieldLen+ExtensionFieldLen+CallerFieldLen:], info.Called, CalledFieldLen)
	binary.BigEndian.PutUint32(p[SignalingPayloadLen-4:], timestamp)

	return pkt
}

// AppendAudioHeader appends the 12-byte audio packet header to dst and
// returns the extended slice. The media bytes themselves are not copied;
// the header's length field accounts for them as if they followed
// immediately, which is how they appear on the wire after the gather
// send. Callers on the hot path pass a per-session scratch buffer as
// dst to keep this allocation-free.
//
// audioLen must not exceed MaxAudioLen; the tap filters oversized units
// before calling.
func AppendAudioHeader(dst []byte, streamID uint32, dir Direction, sequence uint32, audioLen int) []byte {
	var hdr [AudioHeaderLen]byte
	putHeader(hdr[:], PacketAudio, AudioHeaderLen+audioLen, streamID, dir)
	binary.BigEndian.PutUint32(hdr[HeaderLen:], sequence)
	return append(dst, hdr[:]...)
}
