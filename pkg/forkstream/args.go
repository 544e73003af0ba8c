package forkstream

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/stssrv/forkstream/internal/log"
	"github.com/stssrv/forkstream/pkg/wire"
)

// Args is a parsed tap configuration string.
type Args struct {
	Dest netip.AddrPort
	Info wire.SessionInfo
}

// ParseArgs parses "ip:port[,label[,ext[,caller[,called]]]]".
//
// The destination is mandatory: a dotted-quad IPv4 address and a port
// in [1,65535]. The metadata fields are positional and optional; an
// empty field keeps its default (the session label then falls back to
// the channel name at Start). Fields beyond the fifth are ignored with
// a warning. No resource is created here, so a failed parse leaks
// nothing.
func ParseArgs(s string) (Args, error) {
	var args Args

	s = strings.TrimSpace(s)
	if s == "" {
		return Args{}, ErrNoDestination
	}

	fields := strings.Split(s, ",")
	dest, err := parseDestination(strings.TrimSpace(fields[0]))
	if err != nil {
		return Args{}, err
	}
	args.Dest = dest

	for i, field := range fields[1:] {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		switch i {
		case 0:
			args.Info.Label = field
		case 1:
			args.Info.Extension = field
		case 2:
			args.Info.Caller = field
		case 3:
			args.Info.Called = field
		default:
			log.GetLogger().Warnf("forkstream: ignoring extra argument %q", field)
		}
	}

	return args, nil
}

// parseDestination validates and splits an "ip:port" string.
func parseDestination(s string) (netip.AddrPort, error) {
	if s == "" {
		return netip.AddrPort{}, ErrNoDestination
	}

	host, portStr, ok := strings.Cut(s, ":")
	if !ok {
		return netip.AddrPort{}, fmt.Errorf("%w: got %q", ErrBadDestination, s)
	}
	if host == "" || portStr == "" {
		return netip.AddrPort{}, fmt.Errorf("%w: got %q", ErrBadDestination, s)
	}

	addr, err := netip.ParseAddr(host)
	if err != nil || !addr.Is4() {
		return netip.AddrPort{}, fmt.Errorf("%w: %q", ErrBadAddress, host)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("%w: %q is not numeric", ErrBadPort, portStr)
	}
	if port < 1 || port > 65535 {
		return netip.AddrPort{}, fmt.Errorf("%w: got %d", ErrBadPort, port)
	}

	return netip.AddrPortFrom(addr, uint16(port)), nil
}
