package forkstream

import "sync/atomic"

// verbose gates per-packet diagnostics. It has no effect on protocol
// behavior, only on observability, and may be flipped at any time from
// any goroutine (the control plane does).
var verbose atomic.Bool

// SetVerbose enables or disables per-packet diagnostic logging.
func SetVerbose(on bool) { verbose.Store(on) }

// Verbose reports whether per-packet diagnostics are enabled.
func Verbose() bool { return verbose.Load() }
