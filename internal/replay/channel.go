// Package replay feeds captured RTP audio through a media tap, playing
// the role the call-processing host plays in production. It exists so a
// tap-to-collector path can be exercised end to end from the CLI with
// nothing but a pcap file.
package replay

import (
	"fmt"
	"sort"
	"sync"

	"github.com/stssrv/forkstream/pkg/forkstream"
)

// SimChannel is an in-process host channel. It honors the host contract
// the tap relies on: frames and teardown are delivered from a single
// goroutine, and each hook's destroy callback fires exactly once.
type SimChannel struct {
	name string

	mu     sync.Mutex
	hooks  map[forkstream.HookID]forkstream.Hook
	nextID forkstream.HookID
	hungUp bool
}

// NewSimChannel creates a channel with the given host-side name.
func NewSimChannel(name string) *SimChannel {
	return &SimChannel{
		name:  name,
		hooks: make(map[forkstream.HookID]forkstream.Hook),
	}
}

// Name implements forkstream.Channel.
func (c *SimChannel) Name() string { return c.name }

// AttachHook implements forkstream.Channel.
func (c *SimChannel) AttachHook(h forkstream.Hook) (forkstream.HookID, error) {
	if h.OnFrame == nil {
		return 0, fmt.Errorf("replay: hook has no frame callback")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hungUp {
		return 0, fmt.Errorf("replay: channel %q is already hung up", c.name)
	}
	c.nextID++
	id := c.nextID
	c.hooks[id] = h
	return id, nil
}

// Deliver pushes one frame through every attached hook in attach order,
// threading each hook's return value into the next — exactly how a host
// runs its interception chain. Must be called from a single goroutine.
func (c *SimChannel) Deliver(event forkstream.HookEvent, f *forkstream.Frame) *forkstream.Frame {
	c.mu.Lock()
	ids := make([]int, 0, len(c.hooks))
	for id := range c.hooks {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	hooks := make([]forkstream.Hook, len(ids))
	for i, id := range ids {
		hooks[i] = c.hooks[forkstream.HookID(id)]
	}
	c.mu.Unlock()

	for _, h := range hooks {
		f = h.OnFrame(event, f)
	}
	return f
}

// Hangup destroys all hooks, firing each OnDestroy exactly once.
// Subsequent calls are no-ops, as are frame deliveries.
func (c *SimChannel) Hangup() {
	c.mu.Lock()
	if c.hungUp {
		c.mu.Unlock()
		return
	}
	c.hungUp = true
	hooks := c.hooks
	c.hooks = make(map[forkstream.HookID]forkstream.Hook)
	c.mu.Unlock()

	for _, h := range hooks {
		if h.OnDestroy != nil {
			h.OnDestroy()
		}
	}
}
