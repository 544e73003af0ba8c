package collector

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/stssrv/forkstream/internal/config"
	"github.com/stssrv/forkstream/internal/log"
	"github.com/stssrv/forkstream/pkg/wire"
)

// Sink consumes decoded packets. Implementations must tolerate audio
// arriving before signaling and streams that never end cleanly.
type Sink interface {
	Name() string
	OnSignaling(sig wire.Signaling) error
	OnAudio(audio wire.Audio) error

	// OnStreamEnd tells the sink a stream was evicted so it can release
	// per-stream resources. Best-effort; there is no error to report.
	OnStreamEnd(streamID uint32)

	Close() error
}

// buildSinks instantiates the configured sinks. Sink options arrive as
// free-form maps from YAML and are decoded per type with mapstructure.
func buildSinks(cfgs []config.SinkConfig) ([]Sink, error) {
	sinks := make([]Sink, 0, len(cfgs))
	for _, sc := range cfgs {
		sink, err := newSink(sc)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	return sinks, nil
}

func newSink(sc config.SinkConfig) (Sink, error) {
	switch sc.Type {
	case "console":
		return newConsoleSink(), nil
	case "file":
		var opts fileSinkOptions
		if err := mapstructure.Decode(sc.Options, &opts); err != nil {
			return nil, fmt.Errorf("forkstream: invalid file sink options: %w", err)
		}
		return newFileSink(opts)
	default:
		return nil, fmt.Errorf("forkstream: unknown sink type %q", sc.Type)
	}
}

// consoleSink logs signaling packets and, at debug level, every audio
// packet. Useful for eyeballing a deployment; the file sink is the one
// that keeps the media.
type consoleSink struct{}

func newConsoleSink() *consoleSink { return &consoleSink{} }

func (s *consoleSink) Name() string { return "console" }

func (s *consoleSink) OnSignaling(sig wire.Signaling) error {
	log.GetLogger().WithFields(map[string]interface{}{
		"stream":    fmt.Sprintf("0x%08x", sig.StreamID),
		"direction": sig.Direction.String(),
		"label":     sig.Info.Label,
		"extension": sig.Info.Extension,
		"caller":    sig.Info.Caller,
		"called":    sig.Info.Called,
	}).Info("signaling")
	return nil
}

func (s *consoleSink) OnAudio(audio wire.Audio) error {
	l := log.GetLogger()
	if l.IsDebugEnabled() {
		l.Debugf("audio stream=0x%08x dir=%s seq=%d bytes=%d",
			audio.StreamID, audio.Direction, audio.Sequence, len(audio.Payload))
	}
	return nil
}

func (s *consoleSink) OnStreamEnd(uint32) {}

func (s *consoleSink) Close() error { return nil }
