package forkstream

import "errors"

// Sentinel errors. Configuration errors are raised before any resource
// is created; setup errors abort Start after releasing whatever was
// already acquired; transport errors after setup are best-effort and
// never reach the host's media path.
var (
	// Configuration
	ErrNoDestination  = errors.New("forkstream: no destination specified")
	ErrBadDestination = errors.New("forkstream: destination must be ip:port")
	ErrBadAddress     = errors.New("forkstream: invalid IPv4 address")
	ErrBadPort        = errors.New("forkstream: port must be in range 1-65535")

	// Setup
	ErrTransportFailure = errors.New("forkstream: transport open failed")
	ErrAttachFailure    = errors.New("forkstream: hook attach failed")

	// Steady state
	ErrTransportClosed = errors.New("forkstream: transport closed")
	ErrShortSend       = errors.New("forkstream: short send")
)
