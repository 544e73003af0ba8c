package collector

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stssrv/forkstream/internal/config"
	"github.com/stssrv/forkstream/pkg/wire"
)

func newTestCollector(t *testing.T, sinks ...config.SinkConfig) *Collector {
	t.Helper()
	c, err := New(config.CollectorConfig{
		Listen:        "127.0.0.1:9999",
		ReadBatch:     8,
		StreamTimeout: time.Minute,
		Sinks:         sinks,
	})
	require.NoError(t, err)
	return c
}

func signalingDatagram(streamID uint32, dir wire.Direction, label string) []byte {
	return wire.EncodeSignaling(streamID, dir, wire.SessionInfo{Label: label}, uint32(time.Now().Unix()))
}

func audioDatagram(streamID uint32, dir wire.Direction, seq uint32, payload []byte) []byte {
	hdr := wire.AppendAudioHeader(nil, streamID, dir, seq, len(payload))
	return append(hdr, payload...)
}

func TestCollector_TracksStreams(t *testing.T) {
	c := newTestCollector(t)

	c.handleDatagram(signalingDatagram(0xA1, wire.DirectionRX, "leg-a"))
	c.handleDatagram(signalingDatagram(0xA1, wire.DirectionTX, "leg-a"))
	c.handleDatagram(audioDatagram(0xA1, wire.DirectionRX, 1, make([]byte, 160)))
	c.handleDatagram(audioDatagram(0xA1, wire.DirectionRX, 2, make([]byte, 160)))
	c.handleDatagram(audioDatagram(0xA1, wire.DirectionTX, 1, make([]byte, 80)))

	stats := c.Stats()
	assert.EqualValues(t, 5, stats["packets_total"])
	assert.EqualValues(t, 400, stats["audio_bytes"])
	assert.EqualValues(t, 1, stats["active_streams"])

	streams := stats["streams"].([]map[string]any)
	require.Len(t, streams, 1)
	assert.Equal(t, "leg-a", streams[0]["label"])
	assert.EqualValues(t, 2, streams[0]["rx_packets"])
	assert.EqualValues(t, 320, streams[0]["rx_bytes"])
	assert.EqualValues(t, 1, streams[0]["tx_packets"])
}

func TestCollector_SequenceGaps(t *testing.T) {
	c := newTestCollector(t)

	c.handleDatagram(audioDatagram(0xB2, wire.DirectionRX, 1, []byte{0}))
	c.handleDatagram(audioDatagram(0xB2, wire.DirectionRX, 2, []byte{0}))
	c.handleDatagram(audioDatagram(0xB2, wire.DirectionRX, 5, []byte{0})) // 3 and 4 lost
	c.handleDatagram(audioDatagram(0xB2, wire.DirectionRX, 4, []byte{0})) // late, not a gap
	c.handleDatagram(audioDatagram(0xB2, wire.DirectionTX, 7, []byte{0})) // first TX seen, not a gap

	streams := c.Stats()["streams"].([]map[string]any)
	require.Len(t, streams, 1)
	assert.EqualValues(t, 2, streams[0]["rx_gaps"])
	assert.EqualValues(t, 0, streams[0]["tx_gaps"])
}

func TestCollector_AudioBeforeSignaling(t *testing.T) {
	c := newTestCollector(t)

	c.handleDatagram(audioDatagram(0xC3, wire.DirectionRX, 1, []byte{1, 2}))
	c.handleDatagram(signalingDatagram(0xC3, wire.DirectionRX, "late-label"))

	streams := c.Stats()["streams"].([]map[string]any)
	require.Len(t, streams, 1)
	assert.Equal(t, "late-label", streams[0]["label"])
	assert.EqualValues(t, 1, streams[0]["rx_packets"])
}

func TestCollector_DropsMalformedDatagrams(t *testing.T) {
	c := newTestCollector(t)

	c.handleDatagram(nil)
	c.handleDatagram([]byte{0x01, 0x02, 0x03})
	bad := signalingDatagram(0xD4, wire.DirectionRX, "x")
	bad[0] = 0x7F // unknown type
	c.handleDatagram(bad)
	truncated := signalingDatagram(0xD4, wire.DirectionRX, "x")[:50]
	c.handleDatagram(truncated)

	stats := c.Stats()
	assert.EqualValues(t, 4, stats["decode_errors"])
	assert.EqualValues(t, 0, stats["packets_total"])
	assert.EqualValues(t, 0, stats["active_streams"])
}

func TestCollector_EvictsIdleStreams(t *testing.T) {
	c := newTestCollector(t)
	c.cfg.StreamTimeout = 10 * time.Millisecond

	c.handleDatagram(signalingDatagram(0xE5, wire.DirectionRX, "idle"))
	time.Sleep(30 * time.Millisecond)
	c.handleDatagram(signalingDatagram(0xE6, wire.DirectionRX, "fresh"))

	c.evictStale()

	streams := c.Stats()["streams"].([]map[string]any)
	require.Len(t, streams, 1)
	assert.Equal(t, "fresh", streams[0]["label"])
}

func TestFileSink_WritesPerDirectionFiles(t *testing.T) {
	dir := t.TempDir()
	sink, err := newFileSink(fileSinkOptions{Directory: dir})
	require.NoError(t, err)
	defer sink.Close()

	rx1, _ := wire.ParseAudio(audioDatagram(0xF7, wire.DirectionRX, 1, []byte("aaaa")))
	rx2, _ := wire.ParseAudio(audioDatagram(0xF7, wire.DirectionRX, 2, []byte("bbbb")))
	tx1, _ := wire.ParseAudio(audioDatagram(0xF7, wire.DirectionTX, 1, []byte("cccc")))
	require.NoError(t, sink.OnAudio(rx1))
	require.NoError(t, sink.OnAudio(rx2))
	require.NoError(t, sink.OnAudio(tx1))

	rxData, err := os.ReadFile(filepath.Join(dir, "000000f7-rx.raw"))
	require.NoError(t, err)
	assert.Equal(t, "aaaabbbb", string(rxData))

	txData, err := os.ReadFile(filepath.Join(dir, "000000f7-tx.raw"))
	require.NoError(t, err)
	assert.Equal(t, "cccc", string(txData))

	// Eviction closes the stream's files; later audio reopens in append
	// mode rather than clobbering the capture.
	sink.OnStreamEnd(0xF7)
	require.NoError(t, sink.OnAudio(rx1))
	rxData, err = os.ReadFile(filepath.Join(dir, "000000f7-rx.raw"))
	require.NoError(t, err)
	assert.Equal(t, "aaaabbbbaaaa", string(rxData))
}

func TestNewSink_Errors(t *testing.T) {
	_, err := newSink(config.SinkConfig{Type: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sink type")

	_, err = newSink(config.SinkConfig{Type: "file"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory")
}
