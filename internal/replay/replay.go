package replay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/stssrv/forkstream/internal/log"
	"github.com/stssrv/forkstream/pkg/forkstream"
)

// Options configures one replay run.
type Options struct {
	// File is the pcap capture to replay.
	File string

	// Port identifies the replayed call's media port: datagrams sent to
	// it become READ frames, datagrams sent from it become WRITE frames.
	Port uint16

	// Config is the tap configuration string,
	// "ip:port[,label[,ext[,caller[,called]]]]".
	Config string

	// RealTime paces delivery by capture timestamps instead of pushing
	// frames as fast as they can be read.
	RealTime bool
}

// Run replays opts.File through a freshly attached tap. It returns once
// the capture is exhausted (the channel is then hung up, tearing the
// tap down) or when ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Port == 0 {
		return fmt.Errorf("replay: media port is required")
	}

	f, err := os.Open(opts.File)
	if err != nil {
		return fmt.Errorf("replay: open capture: %w", err)
	}
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	if err != nil {
		return fmt.Errorf("replay: read capture %s: %w", opts.File, err)
	}

	ch := NewSimChannel(filepath.Base(opts.File))
	sess, err := forkstream.StartArgs(ch, opts.Config)
	if err != nil {
		return err
	}
	// The channel owns the tap now; hangup is what releases it.
	defer ch.Hangup()

	source := gopacket.NewPacketSource(r, r.LinkType())
	source.Lazy = true
	source.NoCopy = true

	var delivered int
	var prevTS time.Time
	for packet := range source.Packets() {
		if err := ctx.Err(); err != nil {
			return err
		}

		event, payload, ok := classify(packet, opts.Port)
		if !ok {
			continue
		}

		if opts.RealTime {
			ts := packet.Metadata().Timestamp
			if !prevTS.IsZero() && ts.After(prevTS) {
				select {
				case <-time.After(ts.Sub(prevTS)):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			prevTS = ts
		}

		ch.Deliver(event, &forkstream.Frame{Type: forkstream.FrameVoice, Payload: payload})
		delivered++
	}

	rx, tx := sess.Sequences()
	log.GetLogger().Infof("replay finished: %d media units delivered (rx %d, tx %d)", delivered, rx, tx)
	return nil
}

// classify extracts the media payload of a packet belonging to the
// replayed call and maps it onto a hook event. Non-UDP packets and
// other ports are skipped; RTP framing is stripped so the tap mirrors
// the raw codec payload, matching what a host delivers to its hooks.
func classify(packet gopacket.Packet, port uint16) (forkstream.HookEvent, []byte, bool) {
	udpLayer := packet.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return 0, nil, false
	}
	udp := udpLayer.(*layers.UDP)

	var event forkstream.HookEvent
	switch {
	case uint16(udp.DstPort) == port:
		event = forkstream.EventRead
	case uint16(udp.SrcPort) == port:
		event = forkstream.EventWrite
	default:
		return 0, nil, false
	}

	payload := stripRTP(udp.Payload)
	if len(payload) == 0 {
		return 0, nil, false
	}
	return event, payload, true
}

// stripRTP removes the RTP header (12 bytes plus 4 per CSRC) when the
// datagram looks like RTP version 2; anything else is passed through as
// raw audio.
func stripRTP(b []byte) []byte {
	const fixedHeader = 12
	if len(b) < fixedHeader || b[0]>>6 != 2 {
		return b
	}
	hdrLen := fixedHeader + 4*int(b[0]&0x0F)
	if len(b) <= hdrLen {
		return nil
	}
	return b[hdrLen:]
}
