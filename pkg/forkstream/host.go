// Package forkstream mirrors a channel's bidirectional media stream to
// a remote UDP collector without touching the original stream.
//
// The package does not own a call. A host (a call-processing engine, a
// test harness, the pcap replay tool) owns channels and exposes a frame
// interception point; forkstream attaches an observer to it, forwards a
// copy of every media unit over the wire protocol in pkg/wire, and
// releases its socket when the host tears the observer down.
package forkstream

// HookEvent tells the frame observer which half of the stream a frame
// belongs to. Hosts may deliver other event kinds; the observer passes
// anything it does not recognise straight through.
type HookEvent uint8

const (
	// EventRead is a media unit read from the channel (from the far end).
	EventRead = HookEvent(1)
	// EventWrite is a media unit written to the channel (towards the far end).
	EventWrite = HookEvent(2)
)

// FrameType classifies a frame delivered through a hook.
type FrameType uint8

const (
	// FrameVoice carries raw audio payload. Only voice frames are mirrored.
	FrameVoice = FrameType(1)
	// FrameControl carries host signaling (DTMF, hold, ...). Passed through untouched.
	FrameControl = FrameType(2)
)

// Frame is one media unit moving through a channel. Payload is owned by
// the host; observers must neither modify nor retain it past the
// callback.
type Frame struct {
	Type    FrameType
	Payload []byte
}

// HookID is the host's opaque handle for an attached hook. It is stored
// only so the session can be associated with its attachment point; this
// package never asks the host to resolve it back into an object.
type HookID int

// Hook is a frame observer plus its teardown callback.
//
// The host must invoke OnDestroy exactly once when the hook is removed,
// for any cause, and must not deliver frames to OnFrame once teardown
// has begun. Frame delivery and teardown for one channel are assumed to
// be serialized by the host; OnFrame is never called concurrently with
// itself for the same hook.
type Hook struct {
	// OnFrame observes one frame and returns the frame the host should
	// continue processing. Mirroring observers always return the input
	// unchanged.
	OnFrame func(event HookEvent, f *Frame) *Frame

	// OnDestroy releases everything the observer owns.
	OnDestroy func()
}

// Channel is the minimal host surface this package needs: a
// human-readable name and a way to install a hook.
type Channel interface {
	// Name returns the host's identifier for this channel. Used as the
	// default session label when the caller does not supply one.
	Name() string

	// AttachHook installs h on the channel and returns an opaque id.
	// On success the host has taken responsibility for calling
	// h.OnDestroy exactly once.
	AttachHook(h Hook) (HookID, error)
}
