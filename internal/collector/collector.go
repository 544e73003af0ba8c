// Package collector implements the receiving end of the mirror: a UDP
// listener that decodes the wire protocol, tracks streams, and hands
// packets to configured sinks. It is strictly passive — nothing is ever
// sent back towards a tap.
package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/stssrv/forkstream/internal/config"
	"github.com/stssrv/forkstream/internal/log"
	"github.com/stssrv/forkstream/internal/metrics"
	"github.com/stssrv/forkstream/pkg/wire"
)

// maxDatagram is the largest packet the protocol can produce (16-bit
// total length).
const maxDatagram = 0xFFFF

// Collector owns the listening socket and the stream table.
type Collector struct {
	cfg   config.CollectorConfig
	conn  *net.UDPConn
	pconn *ipv4.PacketConn
	sinks []Sink

	mu      sync.Mutex
	streams map[uint32]*streamState
	closed  bool

	// Counters surfaced over the control plane (prometheus carries the
	// same numbers for scraping).
	packets      uint64
	audioBytes   uint64
	decodeErrors uint64
}

// New creates a collector from configuration. The socket is not opened
// until Run.
func New(cfg config.CollectorConfig) (*Collector, error) {
	if cfg.ReadBatch < 1 {
		cfg.ReadBatch = 1
	}
	sinks, err := buildSinks(cfg.Sinks)
	if err != nil {
		return nil, err
	}
	return &Collector{
		cfg:     cfg,
		sinks:   sinks,
		streams: make(map[uint32]*streamState),
	}, nil
}

// Run listens until ctx is cancelled. Malformed datagrams are counted
// and dropped; the listener never stops over bad input.
func (c *Collector) Run(ctx context.Context) error {
	listen, err := netip.ParseAddrPort(c.cfg.Listen)
	if err != nil {
		return fmt.Errorf("forkstream: invalid listen address %q: %w", c.cfg.Listen, err)
	}
	conn, err := net.ListenUDP("udp4", net.UDPAddrFromAddrPort(listen))
	if err != nil {
		return fmt.Errorf("forkstream: listen on %s: %w", listen, err)
	}
	c.conn = conn
	c.pconn = ipv4.NewPacketConn(conn)

	log.GetLogger().Infof("collector listening on %s (%d sinks)", listen, len(c.sinks))

	stop := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		conn.Close()
	})
	defer stop()

	if c.cfg.StreamTimeout > 0 {
		go c.evictLoop(ctx)
	}

	err = c.readLoop()
	c.closeSinks()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// readLoop drains the socket with batched reads — one recvmmsg per
// c.cfg.ReadBatch datagrams instead of one syscall each.
func (c *Collector) readLoop() error {
	msgs := make([]ipv4.Message, c.cfg.ReadBatch)
	for i := range msgs {
		msgs[i].Buffers = [][]byte{make([]byte, maxDatagram)}
	}

	for {
		n, err := c.pconn.ReadBatch(msgs, 0)
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if closed || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("forkstream: read batch: %w", err)
		}
		for i := 0; i < n; i++ {
			c.handleDatagram(msgs[i].Buffers[0][:msgs[i].N])
		}
	}
}

// handleDatagram decodes and dispatches one received packet.
func (c *Collector) handleDatagram(b []byte) {
	hdr, err := wire.ParseHeader(b)
	if err != nil {
		c.countDecodeError(err)
		return
	}

	switch hdr.Type {
	case wire.PacketSignaling:
		sig, err := wire.ParseSignaling(b)
		if err != nil {
			c.countDecodeError(err)
			return
		}
		c.handleSignaling(sig)
	case wire.PacketAudio:
		audio, err := wire.ParseAudio(b)
		if err != nil {
			c.countDecodeError(err)
			return
		}
		c.handleAudio(audio)
	}
}

func (c *Collector) handleSignaling(sig wire.Signaling) {
	metrics.PacketsTotal.WithLabelValues("signaling", sig.Direction.String()).Inc()

	c.mu.Lock()
	c.packets++
	st, known := c.streams[sig.StreamID]
	if !known {
		st = newStreamState(sig.StreamID)
		c.streams[sig.StreamID] = st
		metrics.ActiveStreams.Set(float64(len(c.streams)))
	}
	st.observeSignaling(sig)
	c.mu.Unlock()

	if !known {
		log.GetLogger().WithFields(map[string]interface{}{
			"stream":    fmt.Sprintf("0x%08x", sig.StreamID),
			"label":     sig.Info.Label,
			"extension": sig.Info.Extension,
		}).Info("new stream")
	}

	for _, sink := range c.sinks {
		if err := sink.OnSignaling(sig); err != nil {
			metrics.SinkErrorsTotal.WithLabelValues(sink.Name()).Inc()
			log.GetLogger().WithError(err).Warnf("sink %s rejected signaling packet", sink.Name())
		}
	}
}

func (c *Collector) handleAudio(audio wire.Audio) {
	dir := audio.Direction.String()
	metrics.PacketsTotal.WithLabelValues("audio", dir).Inc()
	metrics.AudioBytesTotal.WithLabelValues(dir).Add(float64(len(audio.Payload)))

	c.mu.Lock()
	c.packets++
	c.audioBytes += uint64(len(audio.Payload))
	st, known := c.streams[audio.StreamID]
	if !known {
		// Audio before signaling: the signaling packet was lost, or the
		// collector restarted mid-call. Track the stream anyway.
		st = newStreamState(audio.StreamID)
		c.streams[audio.StreamID] = st
		metrics.ActiveStreams.Set(float64(len(c.streams)))
	}
	gap := st.observeAudio(audio)
	c.mu.Unlock()

	if gap > 0 {
		metrics.SequenceGapsTotal.WithLabelValues(dir).Add(float64(gap))
	}

	for _, sink := range c.sinks {
		if err := sink.OnAudio(audio); err != nil {
			metrics.SinkErrorsTotal.WithLabelValues(sink.Name()).Inc()
			log.GetLogger().WithError(err).Warnf("sink %s rejected audio packet", sink.Name())
		}
	}
}

func (c *Collector) countDecodeError(err error) {
	metrics.DecodeErrorsTotal.Inc()
	c.mu.Lock()
	c.decodeErrors++
	c.mu.Unlock()
	log.GetLogger().WithError(err).Debug("dropped malformed datagram")
}

// evictLoop drops streams that went quiet without the tap side ever
// ending — UDP gives the collector no teardown signal, so idleness is
// the only one.
func (c *Collector) evictLoop(ctx context.Context) {
	interval := c.cfg.StreamTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.evictStale()
		}
	}
}

func (c *Collector) evictStale() {
	cutoff := time.Now().Add(-c.cfg.StreamTimeout)

	c.mu.Lock()
	var evicted []*streamState
	for id, st := range c.streams {
		if st.lastSeen.Before(cutoff) {
			delete(c.streams, id)
			evicted = append(evicted, st)
		}
	}
	metrics.ActiveStreams.Set(float64(len(c.streams)))
	c.mu.Unlock()

	for _, st := range evicted {
		log.GetLogger().Info(st.summary())
		for _, sink := range c.sinks {
			sink.OnStreamEnd(st.id)
		}
	}
}

func (c *Collector) closeSinks() {
	for _, sink := range c.sinks {
		if err := sink.Close(); err != nil {
			log.GetLogger().WithError(err).Warnf("sink %s close failed", sink.Name())
		}
	}
}

// Stats implements command.StatsProvider.
func (c *Collector) Stats() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	streams := make([]map[string]any, 0, len(c.streams))
	for _, st := range c.streams {
		streams = append(streams, st.stats())
	}
	return map[string]any{
		"listen":         c.cfg.Listen,
		"packets_total":  c.packets,
		"audio_bytes":    c.audioBytes,
		"decode_errors":  c.decodeErrors,
		"active_streams": len(c.streams),
		"streams":        streams,
	}
}
