package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/stssrv/forkstream/pkg/wire"
)

// fileSinkOptions configures the file sink.
//
// Example sink configuration:
//
//	sinks:
//	  - type: file
//	    options:
//	      directory: /var/spool/forkstream
type fileSinkOptions struct {
	// Directory receives one raw audio file per stream and direction,
	// named <stream_id>-rx.raw / <stream_id>-tx.raw. Created if missing.
	Directory string `mapstructure:"directory"`
}

// fileSink appends raw media bytes to per-stream, per-direction files.
// The payload is codec-native, so the files are whatever the mirrored
// call carried (typically 20ms G.711 or slin frames back to back).
type fileSink struct {
	dir string

	// mu guards files: audio arrives from the read loop while stream
	// eviction runs on its own ticker goroutine.
	mu    sync.Mutex
	files map[fileKey]*os.File
}

type fileKey struct {
	streamID  uint32
	direction wire.Direction
}

func newFileSink(opts fileSinkOptions) (*fileSink, error) {
	if opts.Directory == "" {
		return nil, fmt.Errorf("forkstream: file sink requires a directory")
	}
	if err := os.MkdirAll(opts.Directory, 0750); err != nil {
		return nil, fmt.Errorf("forkstream: create sink directory: %w", err)
	}
	return &fileSink{
		dir:   opts.Directory,
		files: make(map[fileKey]*os.File),
	}, nil
}

func (s *fileSink) Name() string { return "file" }

func (s *fileSink) OnSignaling(wire.Signaling) error { return nil }

func (s *fileSink) OnAudio(audio wire.Audio) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fileKey{audio.StreamID, audio.Direction}
	f, ok := s.files[key]
	if !ok {
		name := fmt.Sprintf("%08x-%s.raw", audio.StreamID, dirSuffix(audio.Direction))
		var err error
		f, err = os.OpenFile(filepath.Join(s.dir, name),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
		if err != nil {
			return fmt.Errorf("forkstream: open %s: %w", name, err)
		}
		s.files[key] = f
	}
	if _, err := f.Write(audio.Payload); err != nil {
		return fmt.Errorf("forkstream: write audio: %w", err)
	}
	return nil
}

func (s *fileSink) OnStreamEnd(streamID uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range [...]wire.Direction{wire.DirectionRX, wire.DirectionTX} {
		key := fileKey{streamID, d}
		if f, ok := s.files[key]; ok {
			f.Close()
			delete(s.files, key)
		}
	}
}

func (s *fileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for key, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.files, key)
	}
	return firstErr
}

func dirSuffix(d wire.Direction) string {
	if d == wire.DirectionTX {
		return "tx"
	}
	return "rx"
}
